package domain

// FindingKind classifies a discovered pattern.
type FindingKind string

const (
	FindingKindCorrelation   FindingKind = "correlation"
	FindingKindTrend         FindingKind = "trend"
	FindingKindOutlierSet    FindingKind = "outlier_set"
	FindingKindConcentration FindingKind = "concentration"
	FindingKindAggregate     FindingKind = "aggregate"
	FindingKindDistribution  FindingKind = "distribution"
)

// FindingSubject narrows a finding kind to the concrete pattern it describes,
// e.g. a correlation between price columns versus one between dimension
// columns. Hypothesis templates key off the subject.
type FindingSubject string

const (
	SubjectPriceFreight    FindingSubject = "price_freight"
	SubjectDimensions      FindingSubject = "dimensions"
	SubjectWeekday         FindingSubject = "weekday"
	SubjectHourOfDay       FindingSubject = "hour_of_day"
	SubjectDeliveryDays    FindingSubject = "delivery_days"
	SubjectCustomerRegion  FindingSubject = "customer_region"
	SubjectRepeatRate      FindingSubject = "repeat_rate"
	SubjectCategory        FindingSubject = "category"
	SubjectPriceShape      FindingSubject = "price_shape"
	SubjectReviewScore     FindingSubject = "review_score"
	SubjectCommentLength   FindingSubject = "comment_length"
	SubjectPaymentMethod   FindingSubject = "payment_method"
	SubjectInstallments    FindingSubject = "installments"
	SubjectSellerRegion    FindingSubject = "seller_region"
	SubjectOrderValue      FindingSubject = "order_value"
	SubjectColumnOutliers  FindingSubject = "column_outliers"
	SubjectGenericPair     FindingSubject = "generic_pair"
	SubjectPeriodGrowth    FindingSubject = "period_growth"
	SubjectTopValue        FindingSubject = "top_value"
)

// Finding is a single discovered statistical pattern. Immutable once produced.
type Finding struct {
	ID          string         `json:"id" validate:"required"`
	Kind        FindingKind    `json:"kind" validate:"required"`
	Subject     FindingSubject `json:"subject"`
	Tables      []string       `json:"tables" validate:"required,min=1"`
	Columns     []string       `json:"columns,omitempty"`
	Statistic   float64        `json:"statistic"`
	SampleSize  int            `json:"sample_size"`
	Description string         `json:"description"`

	// Detail carries pattern-specific values substituted into hypothesis
	// templates: top category label and count, observed value range, etc.
	Detail map[string]string `json:"detail,omitempty"`
}
