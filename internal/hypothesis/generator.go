// Package hypothesis turns exploration findings into testable research
// hypotheses. The mapping is a fixed template table keyed by finding
// subject: no learning, no randomness, identical findings always yield
// identical hypotheses.
package hypothesis

import (
	"fmt"
	"log/slog"
	"sort"

	"ecomlens/pkg/contracts/domain"
)

// template renders one hypothesis category from a finding.
type template struct {
	category        domain.HypothesisCategory
	title           string
	statement       func(f domain.Finding) string
	rationale       string
	testMethod      string
	expectedOutcome string
	businessImpact  string
}

// templates maps finding subjects to their hypothesis template. Subjects
// without an entry (raw outlier sets, untracked top values) yield no
// hypothesis.
var templates = map[domain.FindingSubject]template{
	domain.SubjectPriceFreight: {
		category: domain.CategoryCorrelation,
		title:    "Product Price and Shipping Cost Relationship",
		statement: func(f domain.Finding) string {
			return fmt.Sprintf("There is a %s correlation (r=%.3f) between product price and freight value.",
				direction(f.Statistic), f.Statistic)
		},
		rationale:       "Higher-priced items may incur different shipping costs due to weight, value insurance, or shipping method.",
		testMethod:      "Pearson correlation test, linear regression analysis",
		expectedOutcome: "Significant correlation between price and freight",
		businessImpact:  "Pricing strategy optimization, shipping cost structure",
	},
	domain.SubjectDimensions: {
		category: domain.CategoryProduct,
		title:    "Product Dimensions and Weight Correlation",
		statement: func(f domain.Finding) string {
			return fmt.Sprintf("Product measurements %s and %s correlate strongly (r=%.3f).",
				column(f, 0), column(f, 1), f.Statistic)
		},
		rationale:       "Larger products tend to be heavier, affecting shipping costs and warehouse storage requirements.",
		testMethod:      "Multi-variable correlation analysis, principal component analysis",
		expectedOutcome: "Strong positive correlation (r > 0.5) between weight and dimensions",
		businessImpact:  "Shipping cost estimation, warehouse optimization, packaging design",
	},
	domain.SubjectWeekday: {
		category: domain.CategoryTemporal,
		title:    "Weekly Purchase Pattern Variation",
		statement: func(f domain.Finding) string {
			return fmt.Sprintf("Purchase volume varies significantly by day of week, with peak activity on %s.",
				f.Detail["peak_day"])
		},
		rationale:       "Consumer behavior shows weekly patterns due to work schedules and weekend leisure time.",
		testMethod:      "ANOVA test, chi-square test for independence",
		expectedOutcome: "Significant variation in purchase volume across days",
		businessImpact:  "Marketing campaign scheduling, resource allocation, inventory planning",
	},
	domain.SubjectHourOfDay: {
		category: domain.CategoryTemporal,
		title:    "Daily Purchase Time Distribution",
		statement: func(f domain.Finding) string {
			return fmt.Sprintf("Purchase activity peaks during hour %s:00, showing a clear daily pattern.",
				f.Detail["peak_hour"])
		},
		rationale:       "Shopping behavior follows daily routines, with peaks during lunch hours and evenings.",
		testMethod:      "Time series analysis, hourly distribution comparison",
		expectedOutcome: "Significant hourly variation in purchase patterns",
		businessImpact:  "Ad scheduling, server capacity planning, customer support staffing",
	},
	domain.SubjectPeriodGrowth: {
		category: domain.CategoryTemporal,
		title:    "Period-over-Period Order Volume Trend",
		statement: func(f domain.Finding) string {
			return fmt.Sprintf("Order volume changed %.1f%% between %s and %s.",
				f.Statistic, f.Detail["first_period"], f.Detail["last_period"])
		},
		rationale:       "Marketplace growth reflects adoption, marketing reach and seasonal demand.",
		testMethod:      "Time series decomposition, year-over-year comparison",
		expectedOutcome: "Sustained directional trend in order volume",
		businessImpact:  "Capacity planning, growth forecasting, investment timing",
	},
	domain.SubjectDeliveryDays: {
		category: domain.CategoryLogistics,
		title:    "Delivery Time Consistency",
		statement: func(f domain.Finding) string {
			return fmt.Sprintf("Average delivery time is %.1f days with significant variation across regions.",
				f.Statistic)
		},
		rationale:       "Delivery times vary by distance, location, and logistics efficiency.",
		testMethod:      "Descriptive statistics, regional comparison analysis",
		expectedOutcome: "Significant variation in delivery times by customer location",
		businessImpact:  "Customer satisfaction improvement, logistics optimization, delivery expectation management",
	},
	domain.SubjectCustomerRegion: {
		category: domain.CategoryCustomer,
		title:    "Geographic Customer Concentration",
		statement: func(f domain.Finding) string {
			return fmt.Sprintf("Customer distribution is highly concentrated, with top state %s accounting for %.1f%% of customers.",
				f.Detail["top_value"], f.Statistic)
		},
		rationale:       "E-commerce adoption varies by region due to infrastructure, economic development, and digital literacy.",
		testMethod:      "Chi-square goodness-of-fit test, geographic concentration analysis",
		expectedOutcome: "Significant deviation from uniform distribution across states",
		businessImpact:  "Regional marketing strategies, logistics hub placement, market expansion planning",
	},
	domain.SubjectRepeatRate: {
		category: domain.CategoryBehavior,
		title:    "Customer Repeat Purchase Rate",
		statement: func(f domain.Finding) string {
			return fmt.Sprintf("%.1f%% of customers have made repeat purchases, indicating customer loyalty level.",
				f.Statistic)
		},
		rationale:       "High repeat purchase rate indicates strong customer retention and satisfaction.",
		testMethod:      "Cohort analysis, retention rate calculation",
		expectedOutcome: "Repeat purchase rate varies by customer segment and product category",
		businessImpact:  "Customer loyalty programs, retention strategies, LTV optimization",
	},
	domain.SubjectOrderValue: {
		category: domain.CategoryBehavior,
		title:    "Average Order Value Composition",
		statement: func(f domain.Finding) string {
			return fmt.Sprintf("Average order item value including freight is %.2f across %d matched records.",
				f.Statistic, f.SampleSize)
		},
		rationale:       "Order value composition drives revenue per transaction and shipping margin.",
		testMethod:      "Order value segmentation, basket analysis",
		expectedOutcome: "Order value varies by category and payment method",
		businessImpact:  "Upsell strategy, free shipping thresholds, average order value optimization",
	},
	domain.SubjectCategory: {
		category: domain.CategoryProduct,
		title:    "Product Category Concentration",
		statement: func(f domain.Finding) string {
			return fmt.Sprintf("Product catalog is dominated by category %q with %s products.",
				f.Detail["top_value"], f.Detail["top_count"])
		},
		rationale:       "Certain product categories have higher market demand and seller participation.",
		testMethod:      "Category distribution analysis, Pareto analysis (80/20 rule)",
		expectedOutcome: "Top 20% of categories represent 80% of products",
		businessImpact:  "Category management, inventory strategy, marketplace positioning",
	},
	domain.SubjectPriceShape: {
		category: domain.CategoryProduct,
		title:    "Product Price Distribution Pattern",
		statement: func(f domain.Finding) string {
			return fmt.Sprintf("Product prices show right-skewed distribution (median: %s, mean: %s).",
				f.Detail["median"], f.Detail["mean"])
		},
		rationale:       "Most products are low-to-mid price, with fewer high-value luxury items.",
		testMethod:      "Distribution analysis, skewness test, price segment analysis",
		expectedOutcome: "Right-skewed distribution with long tail of high-priced items",
		businessImpact:  "Price segmentation strategy, commission structure, target customer definition",
	},
	domain.SubjectReviewScore: {
		category: domain.CategorySatisfaction,
		title:    "Customer Satisfaction Score Distribution",
		statement: func(f domain.Finding) string {
			return fmt.Sprintf("Average review score is %.2f/5.0, indicating overall customer satisfaction level.",
				f.Statistic)
		},
		rationale:       "Review scores reflect product quality, delivery experience, and customer service.",
		testMethod:      "Descriptive statistics, score distribution analysis",
		expectedOutcome: "Score distribution shows polarization (high 4-5 stars or low 1-2 stars)",
		businessImpact:  "Quality monitoring, seller performance evaluation, customer experience improvement",
	},
	domain.SubjectCommentLength: {
		category: domain.CategoryFeedback,
		title:    "Review Comment Length and Score Relationship",
		statement: func(f domain.Finding) string {
			return fmt.Sprintf("Review comment length correlates with review score (r=%.3f), suggesting detailed comments carry strong opinions.",
				f.Statistic)
		},
		rationale:       "Detailed comments often indicate strong opinions (very positive or very negative).",
		testMethod:      "Correlation analysis, sentiment analysis by score",
		expectedOutcome: "Negative reviews tend to have longer comments than positive reviews",
		businessImpact:  "Review sentiment analysis, automated feedback triage, customer insight extraction",
	},
	domain.SubjectPaymentMethod: {
		category: domain.CategoryPayment,
		title:    "Payment Method Preference",
		statement: func(f domain.Finding) string {
			return fmt.Sprintf("Payment method %q dominates with %.1f%% of all transactions.",
				f.Detail["top_value"], f.Statistic)
		},
		rationale:       "Payment preferences vary by region, demographics, and order value.",
		testMethod:      "Chi-square test, payment method vs order value analysis",
		expectedOutcome: "Significant preference for specific payment methods",
		businessImpact:  "Payment gateway optimization, checkout flow design, payment cost reduction",
	},
	domain.SubjectInstallments: {
		category: domain.CategoryPayment,
		title:    "Installment Payment Usage",
		statement: func(f domain.Finding) string {
			return fmt.Sprintf("%.1f%% of orders use installment payments, with average %s installments.",
				f.Statistic, f.Detail["avg_installments"])
		},
		rationale:       "Installments enable larger purchases by spreading cost over time.",
		testMethod:      "Installment vs total value correlation analysis",
		expectedOutcome: "Higher order values correlate with more installments",
		businessImpact:  "Financing strategy, credit risk management, average order value optimization",
	},
	domain.SubjectSellerRegion: {
		category: domain.CategorySeller,
		title:    "Seller Geographic Distribution",
		statement: func(f domain.Finding) string {
			return fmt.Sprintf("Sellers are concentrated in state %q, indicating regional business hubs.",
				f.Detail["top_value"])
		},
		rationale:       "Sellers cluster in commercial centers with good logistics infrastructure.",
		testMethod:      "Geographic concentration analysis, seller vs customer location comparison",
		expectedOutcome: "Significant seller concentration in specific states",
		businessImpact:  "Seller acquisition strategy, logistics network design, regional marketing",
	},
	domain.SubjectGenericPair: {
		category: domain.CategoryCorrelation,
		title:    "Numeric Column Correlation",
		statement: func(f domain.Finding) string {
			return fmt.Sprintf("Columns %s and %s show a %s correlation (r=%.3f).",
				column(f, 0), column(f, 1), direction(f.Statistic), f.Statistic)
		},
		rationale:       "Correlated operational measures may share an underlying driver.",
		testMethod:      "Pearson correlation test, partial correlation for confounders",
		expectedOutcome: "Correlation persists after controlling for order size",
		businessImpact:  "Metric deduplication, driver analysis",
	},
}

// priorityByCategory is the fixed ordinal priority ranking. Logistics and
// satisfaction outrank product and temporal work.
var priorityByCategory = map[domain.HypothesisCategory]int{
	domain.CategoryLogistics:    1,
	domain.CategorySatisfaction: 2,
	domain.CategoryCustomer:     3,
	domain.CategoryCorrelation:  4,
	domain.CategoryPayment:      5,
	domain.CategoryBehavior:     6,
	domain.CategoryFeedback:     7,
	domain.CategorySeller:       8,
	domain.CategoryProduct:      9,
	domain.CategoryTemporal:     10,
}

// Generator maps findings to hypotheses.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a generator.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger.With(slog.String("component", "hypothesis.generator"))}
}

// Generate produces one hypothesis per templated finding, in finding order.
// IDs are sequential; each hypothesis references exactly the finding it came
// from.
func (g *Generator) Generate(findings []domain.Finding) []domain.Hypothesis {
	var hypotheses []domain.Hypothesis
	for _, f := range findings {
		tpl, ok := templates[f.Subject]
		if !ok {
			continue
		}
		hypotheses = append(hypotheses, domain.Hypothesis{
			ID:              fmt.Sprintf("HYP_%03d", len(hypotheses)+1),
			Category:        tpl.category,
			FindingID:       f.ID,
			Title:           tpl.title,
			Statement:       tpl.statement(f),
			Rationale:       tpl.rationale,
			TestMethod:      tpl.testMethod,
			ExpectedOutcome: tpl.expectedOutcome,
			BusinessImpact:  tpl.businessImpact,
			Priority:        priorityByCategory[tpl.category],
			Tables:          f.Tables,
		})
	}

	g.logger.Info("hypotheses generated",
		slog.Int("findings", len(findings)),
		slog.Int("hypotheses", len(hypotheses)))
	return hypotheses
}

// Prioritized returns hypotheses ordered by ascending priority rank, with
// generation order breaking ties.
func Prioritized(hypotheses []domain.Hypothesis) []domain.Hypothesis {
	ordered := make([]domain.Hypothesis, len(hypotheses))
	copy(ordered, hypotheses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})
	return ordered
}

func direction(r float64) string {
	if r >= 0 {
		return "positive"
	}
	return "negative"
}

func column(f domain.Finding, i int) string {
	if i < len(f.Columns) {
		return f.Columns[i]
	}
	return ""
}
