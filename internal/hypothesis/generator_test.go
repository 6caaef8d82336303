package hypothesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomlens/pkg/contracts/domain"
)

func priceFreightFinding() domain.Finding {
	return domain.Finding{
		ID:         "FND_001",
		Kind:       domain.FindingKindCorrelation,
		Subject:    domain.SubjectPriceFreight,
		Tables:     []string{"orders", "order_items"},
		Columns:    []string{"price", "freight_value"},
		Statistic:  0.414,
		SampleSize: 112650,
	}
}

func TestGenerator_PriceFreightStatement(t *testing.T) {
	hypotheses := NewGenerator(nil).Generate([]domain.Finding{priceFreightFinding()})
	require.Len(t, hypotheses, 1)

	h := hypotheses[0]
	assert.Equal(t, "HYP_001", h.ID)
	assert.Equal(t, domain.CategoryCorrelation, h.Category)
	assert.Equal(t, "FND_001", h.FindingID)
	assert.Contains(t, h.Statement, "0.414")
	assert.Contains(t, h.Statement, "positive")
	assert.Equal(t, []string{"orders", "order_items"}, h.Tables)
	assert.NotEmpty(t, h.TestMethod)
}

func TestGenerator_CategoryMapping(t *testing.T) {
	cases := []struct {
		subject  domain.FindingSubject
		kind     domain.FindingKind
		category domain.HypothesisCategory
	}{
		{domain.SubjectPriceFreight, domain.FindingKindCorrelation, domain.CategoryCorrelation},
		{domain.SubjectDimensions, domain.FindingKindCorrelation, domain.CategoryProduct},
		{domain.SubjectWeekday, domain.FindingKindTrend, domain.CategoryTemporal},
		{domain.SubjectHourOfDay, domain.FindingKindTrend, domain.CategoryTemporal},
		{domain.SubjectDeliveryDays, domain.FindingKindAggregate, domain.CategoryLogistics},
		{domain.SubjectCustomerRegion, domain.FindingKindConcentration, domain.CategoryCustomer},
		{domain.SubjectRepeatRate, domain.FindingKindConcentration, domain.CategoryBehavior},
		{domain.SubjectCategory, domain.FindingKindConcentration, domain.CategoryProduct},
		{domain.SubjectPriceShape, domain.FindingKindDistribution, domain.CategoryProduct},
		{domain.SubjectReviewScore, domain.FindingKindAggregate, domain.CategorySatisfaction},
		{domain.SubjectCommentLength, domain.FindingKindCorrelation, domain.CategoryFeedback},
		{domain.SubjectPaymentMethod, domain.FindingKindConcentration, domain.CategoryPayment},
		{domain.SubjectInstallments, domain.FindingKindAggregate, domain.CategoryPayment},
		{domain.SubjectSellerRegion, domain.FindingKindConcentration, domain.CategorySeller},
	}

	gen := NewGenerator(nil)
	for _, tc := range cases {
		t.Run(string(tc.subject), func(t *testing.T) {
			finding := domain.Finding{
				ID:      "FND_001",
				Kind:    tc.kind,
				Subject: tc.subject,
				Tables:  []string{"orders"},
				Columns: []string{"a", "b"},
				Detail:  map[string]string{"top_value": "x", "top_count": "1", "peak_day": "Monday", "peak_hour": "14", "median": "1", "mean": "2", "avg_installments": "2.0", "first_period": "2017", "last_period": "2018"},
			}
			hypotheses := gen.Generate([]domain.Finding{finding})
			require.Len(t, hypotheses, 1)
			assert.Equal(t, tc.category, hypotheses[0].Category)
			assert.NotEmpty(t, hypotheses[0].Statement)
			assert.Positive(t, hypotheses[0].Priority)
		})
	}
}

func TestGenerator_UntemplatedSubjectsSkipped(t *testing.T) {
	findings := []domain.Finding{
		{ID: "FND_001", Kind: domain.FindingKindOutlierSet, Subject: domain.SubjectColumnOutliers, Tables: []string{"t"}},
		{ID: "FND_002", Kind: domain.FindingKindConcentration, Subject: domain.SubjectTopValue, Tables: []string{"t"}},
	}
	assert.Empty(t, NewGenerator(nil).Generate(findings))
}

func TestGenerator_NoOrphans(t *testing.T) {
	findings := []domain.Finding{
		priceFreightFinding(),
		{ID: "FND_002", Kind: domain.FindingKindAggregate, Subject: domain.SubjectDeliveryDays, Tables: []string{"orders"}, Statistic: 12.5},
		{ID: "FND_003", Kind: domain.FindingKindOutlierSet, Subject: domain.SubjectColumnOutliers, Tables: []string{"orders"}},
	}
	hypotheses := NewGenerator(nil).Generate(findings)

	ids := map[string]int{}
	for _, f := range findings {
		ids[f.ID] = 0
	}
	for _, h := range hypotheses {
		count, exists := ids[h.FindingID]
		require.True(t, exists, "hypothesis %s references unknown finding %s", h.ID, h.FindingID)
		ids[h.FindingID] = count + 1
	}
	for _, h := range hypotheses {
		assert.Equal(t, 1, ids[h.FindingID], "each hypothesis maps to exactly one finding")
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	findings := []domain.Finding{
		priceFreightFinding(),
		{ID: "FND_002", Kind: domain.FindingKindAggregate, Subject: domain.SubjectReviewScore, Tables: []string{"order_reviews"}, Statistic: 4.09},
	}
	gen := NewGenerator(nil)
	assert.Equal(t, gen.Generate(findings), gen.Generate(findings))
}

func TestPrioritized_LogisticsAndSatisfactionFirst(t *testing.T) {
	findings := []domain.Finding{
		{ID: "FND_001", Kind: domain.FindingKindTrend, Subject: domain.SubjectWeekday, Tables: []string{"orders"}, Detail: map[string]string{"peak_day": "Monday"}},
		{ID: "FND_002", Kind: domain.FindingKindConcentration, Subject: domain.SubjectCategory, Tables: []string{"products"}, Detail: map[string]string{"top_value": "x", "top_count": "3"}},
		{ID: "FND_003", Kind: domain.FindingKindAggregate, Subject: domain.SubjectReviewScore, Tables: []string{"order_reviews"}, Statistic: 4.1},
		{ID: "FND_004", Kind: domain.FindingKindAggregate, Subject: domain.SubjectDeliveryDays, Tables: []string{"orders"}, Statistic: 12.1},
	}
	ordered := Prioritized(NewGenerator(nil).Generate(findings))
	require.Len(t, ordered, 4)

	assert.Equal(t, domain.CategoryLogistics, ordered[0].Category)
	assert.Equal(t, domain.CategorySatisfaction, ordered[1].Category)
	assert.Equal(t, domain.CategoryProduct, ordered[2].Category)
	assert.Equal(t, domain.CategoryTemporal, ordered[3].Category)
}
