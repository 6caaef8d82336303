package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomlens/internal/dataset"
	"ecomlens/pkg/contracts/domain"
)

func newCollection(tables ...*domain.Table) *dataset.Collection {
	c := dataset.NewCollection()
	for _, t := range tables {
		c.Add(t)
	}
	return c
}

func table(name string, columns []domain.Column, rows [][]string) *domain.Table {
	return &domain.Table{Name: name, Columns: columns, Rows: rows, RowCount: len(rows)}
}

func findBySubject(findings []domain.Finding, subject domain.FindingSubject) (domain.Finding, bool) {
	for _, f := range findings {
		if f.Subject == subject {
			return f, true
		}
	}
	return domain.Finding{}, false
}

func TestExplorer_CorrelationFinding(t *testing.T) {
	columns := []domain.Column{
		{Name: "price", Type: domain.ColumnTypeNumeric},
		{Name: "freight_value", Type: domain.ColumnTypeNumeric},
	}
	var rows [][]string
	for i := 1; i <= 20; i++ {
		// freight tracks price with a small wobble: strong positive r
		rows = append(rows, []string{
			fmt.Sprintf("%d", i*10),
			fmt.Sprintf("%d", i*2+(i%3)),
		})
	}
	items := table(dataset.TableOrderItems, columns, rows)

	profile, err := New(Config{CorrelationThreshold: 0.3, IQRMultiplier: 1.5}, nil).
		Explore(context.Background(), newCollection(items))
	require.NoError(t, err)

	finding, ok := findBySubject(profile.Findings, domain.SubjectPriceFreight)
	require.True(t, ok, "expected a price/freight correlation finding")
	assert.Equal(t, domain.FindingKindCorrelation, finding.Kind)
	assert.Equal(t, 20, finding.SampleSize)

	// statistic must match an independent recomputation
	xs, ys := pairedValues(items, "price", "freight_value")
	r, ok := pearson(xs, ys)
	require.True(t, ok)
	assert.InDelta(t, r, finding.Statistic, 1e-6)
	assert.GreaterOrEqual(t, abs(finding.Statistic), 0.3)
}

func TestExplorer_CorrelationBelowThresholdSuppressed(t *testing.T) {
	columns := []domain.Column{
		{Name: "price", Type: domain.ColumnTypeNumeric},
		{Name: "freight_value", Type: domain.ColumnTypeNumeric},
	}
	// alternating pattern with near-zero correlation
	rows := [][]string{
		{"10", "5"}, {"20", "1"}, {"30", "5"}, {"40", "1"},
		{"50", "5"}, {"60", "1"}, {"70", "5"}, {"80", "1"},
	}
	items := table(dataset.TableOrderItems, columns, rows)

	profile, err := New(Config{CorrelationThreshold: 0.3, IQRMultiplier: 1.5}, nil).
		Explore(context.Background(), newCollection(items))
	require.NoError(t, err)

	_, ok := findBySubject(profile.Findings, domain.SubjectPriceFreight)
	assert.False(t, ok, "weak correlation must not produce a finding")
}

func TestExplorer_CategoryConcentration(t *testing.T) {
	columns := []domain.Column{
		{Name: "product_id", Type: domain.ColumnTypeIdentifier},
		{Name: "product_category_name", Type: domain.ColumnTypeCategorical},
	}
	rows := [][]string{
		{"p1", "esporte_lazer"},
		{"p2", "cama_mesa_banho"},
		{"p3", "cama_mesa_banho"},
		{"p4", "cama_mesa_banho"},
		{"p5", "moveis_decoracao"},
		{"p6", "esporte_lazer"},
	}
	products := table(dataset.TableProducts, columns, rows)

	profile, err := New(Config{}, nil).Explore(context.Background(), newCollection(products))
	require.NoError(t, err)

	finding, ok := findBySubject(profile.Findings, domain.SubjectCategory)
	require.True(t, ok)
	assert.Equal(t, domain.FindingKindConcentration, finding.Kind)
	assert.Equal(t, "cama_mesa_banho", finding.Detail["top_value"])
	assert.Equal(t, "3", finding.Detail["top_count"])
	assert.Equal(t, "3", finding.Detail["unique_count"])
	assert.Contains(t, finding.Description, "cama_mesa_banho")
}

func TestFrequencies_TieBreakFirstEncountered(t *testing.T) {
	columns := []domain.Column{{Name: "customer_state", Type: domain.ColumnTypeCategorical}}
	rows := [][]string{
		{"RJ"}, {"SP"}, {"RJ"}, {"SP"}, {"MG"},
	}
	customers := table(dataset.TableCustomers, columns, rows)

	freq, ok := frequencies(customers, "customer_state", 10)
	require.True(t, ok)
	require.NotEmpty(t, freq.Top)
	// RJ and SP both have 2; RJ was encountered first
	assert.Equal(t, "RJ", freq.Top[0].Value)
	assert.Equal(t, 2, freq.Top[0].Count)
}

func TestExplorer_OutlierFinding(t *testing.T) {
	columns := []domain.Column{{Name: "price", Type: domain.ColumnTypeNumeric}}
	rows := [][]string{
		{"10"}, {"11"}, {"12"}, {"10"}, {"11"}, {"12"},
		{"10"}, {"11"}, {"12"}, {"500"},
	}
	items := table(dataset.TableOrderItems, columns, rows)

	profile, err := New(Config{IQRMultiplier: 1.5}, nil).
		Explore(context.Background(), newCollection(items))
	require.NoError(t, err)

	finding, ok := findBySubject(profile.Findings, domain.SubjectColumnOutliers)
	require.True(t, ok)
	assert.Equal(t, domain.FindingKindOutlierSet, finding.Kind)
	assert.Equal(t, "1", finding.Detail["outlier_count"])
	assert.Equal(t, "500.00", finding.Detail["max_outlier"])
	assert.InDelta(t, 10.0, finding.Statistic, 1e-9)
}

func TestExplorer_TemporalAndCrossTableFindings(t *testing.T) {
	orders := table(dataset.TableOrders,
		[]domain.Column{
			{Name: "order_id", Type: domain.ColumnTypeIdentifier},
			{Name: "customer_id", Type: domain.ColumnTypeIdentifier},
			{Name: "order_purchase_timestamp", Type: domain.ColumnTypeDatetime},
			{Name: "order_delivered_customer_date", Type: domain.ColumnTypeDatetime},
		},
		[][]string{
			{"o1", "c1", "2017-05-01 10:00:00", "2017-05-11 10:00:00"},
			{"o2", "c1", "2017-05-02 10:00:00", "2017-05-14 10:00:00"},
			{"o3", "c2", "2018-05-03 14:00:00", "2018-05-09 14:00:00"},
			{"o4", "c3", "2018-05-04 14:00:00", "2018-05-12 14:00:00"},
		})
	items := table(dataset.TableOrderItems,
		[]domain.Column{
			{Name: "order_id", Type: domain.ColumnTypeIdentifier},
			{Name: "price", Type: domain.ColumnTypeNumeric},
			{Name: "freight_value", Type: domain.ColumnTypeNumeric},
		},
		[][]string{
			{"o1", "100.00", "10.00"},
			{"o2", "50.00", "5.00"},
			{"o3", "30.00", "5.00"},
			{"orphan", "999.00", "99.00"},
		})

	profile, err := New(Config{}, nil).
		Explore(context.Background(), newCollection(orders, items))
	require.NoError(t, err)

	orderValue, ok := findBySubject(profile.Findings, domain.SubjectOrderValue)
	require.True(t, ok)
	// orphan row is excluded: (110 + 55 + 35) / 3
	assert.InDelta(t, 200.0/3, orderValue.Statistic, 1e-9)
	assert.Equal(t, 3, orderValue.SampleSize)

	delivery, ok := findBySubject(profile.Findings, domain.SubjectDeliveryDays)
	require.True(t, ok)
	// (10 + 12 + 6 + 8) / 4
	assert.InDelta(t, 9.0, delivery.Statistic, 1e-9)

	repeat, ok := findBySubject(profile.Findings, domain.SubjectRepeatRate)
	require.True(t, ok)
	// c1 repeats, of 3 customers
	assert.InDelta(t, 100.0/3, repeat.Statistic, 1e-9)
	assert.Equal(t, "1", repeat.Detail["repeat_customers"])

	weekday, ok := findBySubject(profile.Findings, domain.SubjectWeekday)
	require.True(t, ok)
	assert.Equal(t, domain.FindingKindTrend, weekday.Kind)

	growth, ok := findBySubject(profile.Findings, domain.SubjectPeriodGrowth)
	require.True(t, ok)
	// 2 orders in 2017, 2 in 2018
	assert.InDelta(t, 0.0, growth.Statistic, 1e-9)
}

func TestExplorer_ReviewAndPaymentFindings(t *testing.T) {
	reviews := table(dataset.TableReviews,
		[]domain.Column{
			{Name: "review_id", Type: domain.ColumnTypeIdentifier},
			{Name: "review_score", Type: domain.ColumnTypeNumeric},
			{Name: "review_comment_message", Type: domain.ColumnTypeText},
		},
		[][]string{
			{"r1", "5", ""},
			{"r2", "4", "ok"},
			{"r3", "1", "very long angry comment describing everything that went wrong"},
			{"r4", "2", "still waiting for my package after three weeks"},
			{"r5", "5", ""},
		})
	payments := table(dataset.TablePayments,
		[]domain.Column{
			{Name: "order_id", Type: domain.ColumnTypeIdentifier},
			{Name: "payment_type", Type: domain.ColumnTypeCategorical},
			{Name: "payment_installments", Type: domain.ColumnTypeNumeric},
		},
		[][]string{
			{"o1", "credit_card", "4"},
			{"o2", "credit_card", "1"},
			{"o3", "boleto", "1"},
			{"o4", "credit_card", "10"},
		})

	profile, err := New(Config{}, nil).
		Explore(context.Background(), newCollection(reviews, payments))
	require.NoError(t, err)

	score, ok := findBySubject(profile.Findings, domain.SubjectReviewScore)
	require.True(t, ok)
	assert.InDelta(t, 3.4, score.Statistic, 1e-9)

	comment, ok := findBySubject(profile.Findings, domain.SubjectCommentLength)
	require.True(t, ok, "long negative comments should correlate with score")
	assert.Negative(t, comment.Statistic)

	installments, ok := findBySubject(profile.Findings, domain.SubjectInstallments)
	require.True(t, ok)
	assert.InDelta(t, 50.0, installments.Statistic, 1e-9)
	assert.Equal(t, "4.00", installments.Detail["avg_installments"])

	payment, ok := findBySubject(profile.Findings, domain.SubjectPaymentMethod)
	require.True(t, ok)
	assert.Equal(t, "credit_card", payment.Detail["top_value"])
}

func TestExplorer_Deterministic(t *testing.T) {
	columns := []domain.Column{
		{Name: "price", Type: domain.ColumnTypeNumeric},
		{Name: "freight_value", Type: domain.ColumnTypeNumeric},
		{Name: "product_category_name", Type: domain.ColumnTypeCategorical},
	}
	var rows [][]string
	for i := 1; i <= 30; i++ {
		rows = append(rows, []string{
			fmt.Sprintf("%d.5", i),
			fmt.Sprintf("%d", i%7),
			fmt.Sprintf("cat_%d", i%4),
		})
	}
	build := func() *dataset.Collection {
		return newCollection(table(dataset.TableOrderItems, columns, rows))
	}

	e := New(Config{}, nil)
	first, err := e.Explore(context.Background(), build())
	require.NoError(t, err)
	second, err := e.Explore(context.Background(), build())
	require.NoError(t, err)

	assert.Equal(t, first.Findings, second.Findings)
	assert.Equal(t, first.Summaries, second.Summaries)
}

func TestExplorer_FindingInvariants(t *testing.T) {
	orders := table(dataset.TableOrders,
		[]domain.Column{
			{Name: "order_id", Type: domain.ColumnTypeIdentifier},
			{Name: "customer_id", Type: domain.ColumnTypeIdentifier},
			{Name: "order_purchase_timestamp", Type: domain.ColumnTypeDatetime},
		},
		[][]string{
			{"o1", "c1", "2018-01-01 09:00:00"},
			{"o2", "c1", "2018-01-02 09:00:00"},
		})

	profile, err := New(Config{}, nil).Explore(context.Background(), newCollection(orders))
	require.NoError(t, err)

	valid := map[domain.FindingKind]bool{
		domain.FindingKindCorrelation:   true,
		domain.FindingKindTrend:         true,
		domain.FindingKindOutlierSet:    true,
		domain.FindingKindConcentration: true,
		domain.FindingKindAggregate:     true,
		domain.FindingKindDistribution:  true,
	}
	seen := map[string]bool{}
	for i, f := range profile.Findings {
		assert.Equal(t, fmt.Sprintf("FND_%03d", i+1), f.ID)
		assert.False(t, seen[f.ID], "duplicate finding id")
		seen[f.ID] = true
		assert.True(t, valid[f.Kind], "unknown kind %s", f.Kind)
		assert.NotEmpty(t, f.Tables)
	}
}

func TestSummarize_SingleValueStaysFinite(t *testing.T) {
	columns := []domain.Column{{Name: "price", Type: domain.ColumnTypeNumeric}}
	items := table(dataset.TableOrderItems, columns, [][]string{{"50.00"}})

	summary, ok := summarize(items, "price")
	require.True(t, ok)
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, 0.0, summary.StdDev)
	assert.Equal(t, 0.0, summary.Skewness)

	// A one-row table must still produce an encodable profile.
	profile, err := New(Config{}, nil).Explore(context.Background(), newCollection(items))
	require.NoError(t, err)
	_, err = json.Marshal(profile)
	require.NoError(t, err)
}
