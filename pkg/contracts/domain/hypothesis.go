package domain

// HypothesisCategory is the fixed category taxonomy for generated hypotheses.
type HypothesisCategory string

const (
	CategoryCorrelation  HypothesisCategory = "correlation"
	CategoryProduct      HypothesisCategory = "product"
	CategoryTemporal     HypothesisCategory = "temporal"
	CategoryLogistics    HypothesisCategory = "logistics"
	CategoryCustomer     HypothesisCategory = "customer"
	CategoryPayment      HypothesisCategory = "payment"
	CategorySeller       HypothesisCategory = "seller"
	CategorySatisfaction HypothesisCategory = "satisfaction"
	CategoryFeedback     HypothesisCategory = "feedback"
	CategoryBehavior     HypothesisCategory = "behavior"
)

// Hypothesis is a templated natural-language claim derived from exactly one
// Finding of the same run. Read-only after creation.
type Hypothesis struct {
	ID              string             `json:"id" validate:"required"`
	Category        HypothesisCategory `json:"category" validate:"required"`
	FindingID       string             `json:"finding_id" validate:"required"`
	Title           string             `json:"title"`
	Statement       string             `json:"statement" validate:"required"`
	Rationale       string             `json:"rationale"`
	TestMethod      string             `json:"test_method" validate:"required"`
	ExpectedOutcome string             `json:"expected_outcome"`
	BusinessImpact  string             `json:"business_impact"`
	Priority        int                `json:"priority" validate:"min=1"`
	Tables          []string           `json:"tables"`
}
