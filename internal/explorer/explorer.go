// Package explorer runs the exploratory analysis stage: descriptive
// statistics, frequency tables, outlier detection, correlations, temporal
// trends and configured cross-table joins. Its output is a Profile whose
// findings feed hypothesis generation and visualization.
package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"ecomlens/internal/dataset"
	"ecomlens/pkg/contracts/domain"
)

// topNEntries caps frequency tables at the most common values.
const topNEntries = 10

// dimensionColumns are the product measurement columns checked for
// pairwise correlation.
var dimensionColumns = map[string]bool{
	"product_weight_g":  true,
	"product_length_cm": true,
	"product_height_cm": true,
	"product_width_cm":  true,
}

// Config carries the tunable exploration parameters.
type Config struct {
	// CorrelationThreshold is the minimum |r| for a correlation finding.
	CorrelationThreshold float64
	// IQRMultiplier sets the Tukey fence width.
	IQRMultiplier float64
}

// Profile is the complete output of the exploration stage.
type Profile struct {
	Summaries   []ColumnSummary  `json:"summaries"`
	Frequencies []FrequencyTable `json:"frequencies"`
	Spans       []TemporalSpan   `json:"spans"`
	Findings    []domain.Finding `json:"findings"`
}

// Explorer analyses a loaded table collection.
type Explorer struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an explorer with the given parameters.
func New(cfg Config, logger *slog.Logger) *Explorer {
	if cfg.CorrelationThreshold <= 0 {
		cfg.CorrelationThreshold = 0.3
	}
	if cfg.IQRMultiplier <= 0 {
		cfg.IQRMultiplier = 1.5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Explorer{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "explorer")),
	}
}

// Explore runs all analyses in a fixed order so identical inputs always
// yield the same profile. Finding IDs are assigned sequentially at the end.
func (e *Explorer) Explore(ctx context.Context, collection *dataset.Collection) (*Profile, error) {
	profile := &Profile{}

	for _, table := range collection.Tables() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		e.analyzeTable(table, profile)
	}

	e.crossTableAnalysis(collection, profile)

	for i := range profile.Findings {
		profile.Findings[i].ID = fmt.Sprintf("FND_%03d", i+1)
	}

	e.logger.Info("exploration complete",
		slog.Int("summaries", len(profile.Summaries)),
		slog.Int("frequencies", len(profile.Frequencies)),
		slog.Int("findings", len(profile.Findings)))
	return profile, nil
}

func (e *Explorer) analyzeTable(table *domain.Table, profile *Profile) {
	for _, column := range table.NumericColumns() {
		summary, ok := summarize(table, column)
		if !ok {
			continue
		}
		profile.Summaries = append(profile.Summaries, summary)

		if f, ok := e.outlierFinding(table, column, summary); ok {
			profile.Findings = append(profile.Findings, f)
		}
		if f, ok := distributionFinding(table, column, summary); ok {
			profile.Findings = append(profile.Findings, f)
		}
	}

	for _, column := range table.CategoricalColumns() {
		freq, ok := frequencies(table, column, topNEntries)
		if !ok {
			continue
		}
		profile.Frequencies = append(profile.Frequencies, freq)

		if f, ok := concentrationFinding(table, column, freq); ok {
			profile.Findings = append(profile.Findings, f)
		}
	}

	for _, column := range table.DatetimeColumns() {
		if span, ok := temporalSpan(table, column, dataset.ParseTime); ok {
			profile.Spans = append(profile.Spans, span)
		}
	}

	e.correlationFindings(table, profile)

	if table.Name == dataset.TableOrders {
		e.temporalFindings(table, profile)
	}
}

// outlierFinding reports values beyond the Tukey fences as a share of the
// column's non-missing rows.
func (e *Explorer) outlierFinding(table *domain.Table, column string, summary ColumnSummary) (domain.Finding, bool) {
	values, _ := columnValues(table, column)
	lower, upper, ok := tukeyFences(values, e.cfg.IQRMultiplier)
	if !ok {
		return domain.Finding{}, false
	}

	count := 0
	minOut, maxOut := 0.0, 0.0
	for _, v := range values {
		if v < lower || v > upper {
			if count == 0 {
				minOut, maxOut = v, v
			}
			if v < minOut {
				minOut = v
			}
			if v > maxOut {
				maxOut = v
			}
			count++
		}
	}
	if count == 0 {
		return domain.Finding{}, false
	}

	pct := float64(count) / float64(len(values)) * 100
	return domain.Finding{
		Kind:       domain.FindingKindOutlierSet,
		Subject:    domain.SubjectColumnOutliers,
		Tables:     []string{table.Name},
		Columns:    []string{column},
		Statistic:  pct,
		SampleSize: len(values),
		Description: fmt.Sprintf("%d values (%.2f%%) of %s.%s fall outside [%.2f, %.2f]",
			count, pct, table.Name, column, lower, upper),
		Detail: map[string]string{
			"outlier_count": strconv.Itoa(count),
			"lower_bound":   formatFloat(lower),
			"upper_bound":   formatFloat(upper),
			"min_outlier":   formatFloat(minOut),
			"max_outlier":   formatFloat(maxOut),
		},
	}, true
}

// distributionFinding flags strongly skewed price distributions.
func distributionFinding(table *domain.Table, column string, summary ColumnSummary) (domain.Finding, bool) {
	if column != "price" || summary.Skewness <= 1 {
		return domain.Finding{}, false
	}
	return domain.Finding{
		Kind:       domain.FindingKindDistribution,
		Subject:    domain.SubjectPriceShape,
		Tables:     []string{table.Name},
		Columns:    []string{column},
		Statistic:  summary.Skewness,
		SampleSize: summary.Count,
		Description: fmt.Sprintf("%s.%s is right-skewed (skewness %.3f, median %.2f, mean %.2f)",
			table.Name, column, summary.Skewness, summary.Median, summary.Mean),
		Detail: map[string]string{
			"median": formatFloat(summary.Median),
			"mean":   formatFloat(summary.Mean),
		},
	}, true
}

// concentrationFinding reports the dominant value of selected categorical
// columns as a concentration pattern.
func concentrationFinding(table *domain.Table, column string, freq FrequencyTable) (domain.Finding, bool) {
	subject, tracked := concentrationSubject(column)
	if !tracked || len(freq.Top) == 0 {
		return domain.Finding{}, false
	}

	top := freq.Top[0]
	share := float64(top.Count) / float64(freq.Total) * 100
	return domain.Finding{
		Kind:       domain.FindingKindConcentration,
		Subject:    subject,
		Tables:     []string{table.Name},
		Columns:    []string{column},
		Statistic:  share,
		SampleSize: freq.Total,
		Description: fmt.Sprintf("top %s value %q holds %d of %d rows (%.1f%%) across %d distinct values",
			column, top.Value, top.Count, freq.Total, share, freq.Unique),
		Detail: map[string]string{
			"top_value":    top.Value,
			"top_count":    strconv.Itoa(top.Count),
			"unique_count": strconv.Itoa(freq.Unique),
		},
	}, true
}

func concentrationSubject(column string) (domain.FindingSubject, bool) {
	switch column {
	case "product_category_name":
		return domain.SubjectCategory, true
	case "customer_state":
		return domain.SubjectCustomerRegion, true
	case "seller_state":
		return domain.SubjectSellerRegion, true
	case "payment_type":
		return domain.SubjectPaymentMethod, true
	default:
		return domain.SubjectTopValue, false
	}
}

// correlationFindings checks every numeric column pair within a table.
func (e *Explorer) correlationFindings(table *domain.Table, profile *Profile) {
	numeric := table.NumericColumns()
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			xs, ys := pairedValues(table, numeric[i], numeric[j])
			r, ok := pearson(xs, ys)
			if !ok || abs(r) < e.cfg.CorrelationThreshold {
				continue
			}
			profile.Findings = append(profile.Findings, domain.Finding{
				Kind:       domain.FindingKindCorrelation,
				Subject:    correlationSubject(numeric[i], numeric[j]),
				Tables:     []string{table.Name},
				Columns:    []string{numeric[i], numeric[j]},
				Statistic:  r,
				SampleSize: len(xs),
				Description: fmt.Sprintf("%s and %s correlate at r=%.3f (n=%d)",
					numeric[i], numeric[j], r, len(xs)),
			})
		}
	}
}

func correlationSubject(colA, colB string) domain.FindingSubject {
	pair := map[string]bool{colA: true, colB: true}
	if pair["price"] && pair["freight_value"] {
		return domain.SubjectPriceFreight
	}
	if dimensionColumns[colA] && dimensionColumns[colB] {
		return domain.SubjectDimensions
	}
	return domain.SubjectGenericPair
}

// temporalFindings derives weekday, hour-of-day and year-over-year patterns
// from the order purchase timestamp.
func (e *Explorer) temporalFindings(table *domain.Table, profile *Profile) {
	idx := table.ColumnIndex("order_purchase_timestamp")
	if idx < 0 {
		return
	}

	weekdayCounts := make([]int, 7)
	hourCounts := make([]int, 24)
	yearCounts := make(map[int]int)
	total := 0
	for _, row := range table.Rows {
		if idx >= len(row) {
			continue
		}
		ts, ok := dataset.ParseTime(row[idx])
		if !ok {
			continue
		}
		weekdayCounts[int(ts.Weekday())]++
		hourCounts[ts.Hour()]++
		yearCounts[ts.Year()]++
		total++
	}
	if total == 0 {
		return
	}

	peakDay, peakDayCount := 0, 0
	for d, c := range weekdayCounts {
		if c > peakDayCount {
			peakDay, peakDayCount = d, c
		}
	}
	profile.Findings = append(profile.Findings, domain.Finding{
		Kind:       domain.FindingKindTrend,
		Subject:    domain.SubjectWeekday,
		Tables:     []string{table.Name},
		Columns:    []string{"order_purchase_timestamp"},
		Statistic:  float64(peakDayCount) / float64(total) * 100,
		SampleSize: total,
		Description: fmt.Sprintf("purchase volume peaks on %s with %d of %d orders",
			weekdayName(peakDay), peakDayCount, total),
		Detail: map[string]string{
			"peak_day":   weekdayName(peakDay),
			"peak_count": strconv.Itoa(peakDayCount),
		},
	})

	peakHour, peakHourCount := 0, 0
	for h, c := range hourCounts {
		if c > peakHourCount {
			peakHour, peakHourCount = h, c
		}
	}
	profile.Findings = append(profile.Findings, domain.Finding{
		Kind:       domain.FindingKindTrend,
		Subject:    domain.SubjectHourOfDay,
		Tables:     []string{table.Name},
		Columns:    []string{"order_purchase_timestamp"},
		Statistic:  float64(peakHourCount) / float64(total) * 100,
		SampleSize: total,
		Description: fmt.Sprintf("purchase activity peaks at hour %02d:00 with %d of %d orders",
			peakHour, peakHourCount, total),
		Detail: map[string]string{
			"peak_hour":  strconv.Itoa(peakHour),
			"peak_count": strconv.Itoa(peakHourCount),
		},
	})

	if len(yearCounts) > 1 {
		minYear, maxYear := 0, 0
		for y := range yearCounts {
			if minYear == 0 || y < minYear {
				minYear = y
			}
			if y > maxYear {
				maxYear = y
			}
		}
		first, last := yearCounts[minYear], yearCounts[maxYear]
		if first > 0 {
			growth := float64(last-first) / float64(first) * 100
			profile.Findings = append(profile.Findings, domain.Finding{
				Kind:       domain.FindingKindTrend,
				Subject:    domain.SubjectPeriodGrowth,
				Tables:     []string{table.Name},
				Columns:    []string{"order_purchase_timestamp"},
				Statistic:  growth,
				SampleSize: total,
				Description: fmt.Sprintf("order volume changed %.1f%% from %d (%d orders) to %d (%d orders)",
					growth, minYear, first, maxYear, last),
				Detail: map[string]string{
					"first_period": strconv.Itoa(minYear),
					"last_period":  strconv.Itoa(maxYear),
				},
			})
		}
	}
}

// crossTableAnalysis runs the joins declared by the manifest plus the fixed
// single-table aggregates that need no join.
func (e *Explorer) crossTableAnalysis(collection *dataset.Collection, profile *Profile) {
	if f, ok := e.orderValueFinding(collection); ok {
		profile.Findings = append(profile.Findings, f)
	}
	if f, ok := e.deliveryDaysFinding(collection); ok {
		profile.Findings = append(profile.Findings, f)
	}
	if f, ok := e.repeatRateFinding(collection); ok {
		profile.Findings = append(profile.Findings, f)
	}
	if f, ok := e.reviewScoreFinding(collection); ok {
		profile.Findings = append(profile.Findings, f)
	}
	if f, ok := e.commentLengthFinding(collection); ok {
		profile.Findings = append(profile.Findings, f)
	}
	if f, ok := e.installmentFinding(collection); ok {
		profile.Findings = append(profile.Findings, f)
	}
}

// orderValueFinding joins orders with order items and averages price plus
// freight per item row.
func (e *Explorer) orderValueFinding(collection *dataset.Collection) (domain.Finding, bool) {
	orders, okOrders := collection.Get(dataset.TableOrders)
	items, okItems := collection.Get(dataset.TableOrderItems)
	if !okOrders || !okItems {
		return domain.Finding{}, false
	}

	orderIDs := identifierSet(orders, "order_id")
	if orderIDs == nil {
		return domain.Finding{}, false
	}

	idID := items.ColumnIndex("order_id")
	idPrice := items.ColumnIndex("price")
	idFreight := items.ColumnIndex("freight_value")
	if idID < 0 || idPrice < 0 || idFreight < 0 {
		return domain.Finding{}, false
	}

	sum, n := 0.0, 0
	for _, row := range items.Rows {
		if idID >= len(row) || !orderIDs[strings.TrimSpace(row[idID])] {
			continue
		}
		price, err1 := parseCell(row, idPrice)
		freight, err2 := parseCell(row, idFreight)
		if err1 != nil || err2 != nil {
			continue
		}
		sum += price + freight
		n++
	}
	if n == 0 {
		return domain.Finding{}, false
	}

	avg := sum / float64(n)
	return domain.Finding{
		Kind:       domain.FindingKindAggregate,
		Subject:    domain.SubjectOrderValue,
		Tables:     []string{dataset.TableOrders, dataset.TableOrderItems},
		Columns:    []string{"price", "freight_value"},
		Statistic:  avg,
		SampleSize: n,
		Description: fmt.Sprintf("average order item value (price + freight) is %.2f over %d matched records",
			avg, n),
	}, true
}

// deliveryDaysFinding averages the purchase-to-delivery gap.
func (e *Explorer) deliveryDaysFinding(collection *dataset.Collection) (domain.Finding, bool) {
	orders, ok := collection.Get(dataset.TableOrders)
	if !ok {
		return domain.Finding{}, false
	}
	idPurchase := orders.ColumnIndex("order_purchase_timestamp")
	idDelivered := orders.ColumnIndex("order_delivered_customer_date")
	if idPurchase < 0 || idDelivered < 0 {
		return domain.Finding{}, false
	}

	sum, n := 0.0, 0
	for _, row := range orders.Rows {
		if idPurchase >= len(row) || idDelivered >= len(row) {
			continue
		}
		purchased, ok1 := dataset.ParseTime(row[idPurchase])
		delivered, ok2 := dataset.ParseTime(row[idDelivered])
		if !ok1 || !ok2 || delivered.Before(purchased) {
			continue
		}
		sum += delivered.Sub(purchased).Hours() / 24
		n++
	}
	if n == 0 {
		return domain.Finding{}, false
	}

	avg := sum / float64(n)
	return domain.Finding{
		Kind:       domain.FindingKindAggregate,
		Subject:    domain.SubjectDeliveryDays,
		Tables:     []string{dataset.TableOrders},
		Columns:    []string{"order_purchase_timestamp", "order_delivered_customer_date"},
		Statistic:  avg,
		SampleSize: n,
		Description: fmt.Sprintf("average delivery time is %.1f days over %d delivered orders", avg, n),
	}, true
}

// repeatRateFinding measures the share of customers with more than one order.
func (e *Explorer) repeatRateFinding(collection *dataset.Collection) (domain.Finding, bool) {
	orders, ok := collection.Get(dataset.TableOrders)
	if !ok {
		return domain.Finding{}, false
	}
	idx := orders.ColumnIndex("customer_id")
	if idx < 0 {
		return domain.Finding{}, false
	}

	counts := make(map[string]int)
	for _, row := range orders.Rows {
		if idx >= len(row) {
			continue
		}
		id := strings.TrimSpace(row[idx])
		if id != "" {
			counts[id]++
		}
	}
	if len(counts) == 0 {
		return domain.Finding{}, false
	}

	repeat := 0
	for _, c := range counts {
		if c > 1 {
			repeat++
		}
	}
	rate := float64(repeat) / float64(len(counts)) * 100
	return domain.Finding{
		Kind:       domain.FindingKindConcentration,
		Subject:    domain.SubjectRepeatRate,
		Tables:     []string{dataset.TableOrders, dataset.TableCustomers},
		Columns:    []string{"customer_id"},
		Statistic:  rate,
		SampleSize: len(counts),
		Description: fmt.Sprintf("%.1f%% of %d customers placed more than one order", rate, len(counts)),
		Detail: map[string]string{
			"repeat_customers": strconv.Itoa(repeat),
		},
	}, true
}

// reviewScoreFinding averages the review score.
func (e *Explorer) reviewScoreFinding(collection *dataset.Collection) (domain.Finding, bool) {
	reviews, ok := collection.Get(dataset.TableReviews)
	if !ok {
		return domain.Finding{}, false
	}
	values, _ := columnValues(reviews, "review_score")
	if len(values) == 0 {
		return domain.Finding{}, false
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))
	return domain.Finding{
		Kind:       domain.FindingKindAggregate,
		Subject:    domain.SubjectReviewScore,
		Tables:     []string{dataset.TableReviews},
		Columns:    []string{"review_score"},
		Statistic:  avg,
		SampleSize: len(values),
		Description: fmt.Sprintf("average review score is %.2f/5.0 over %d reviews", avg, len(values)),
	}, true
}

// commentLengthFinding correlates comment length with the review score.
func (e *Explorer) commentLengthFinding(collection *dataset.Collection) (domain.Finding, bool) {
	reviews, ok := collection.Get(dataset.TableReviews)
	if !ok {
		return domain.Finding{}, false
	}
	idComment := reviews.ColumnIndex("review_comment_message")
	idScore := reviews.ColumnIndex("review_score")
	if idComment < 0 || idScore < 0 {
		return domain.Finding{}, false
	}

	var lengths, scores []float64
	for _, row := range reviews.Rows {
		if idComment >= len(row) || idScore >= len(row) {
			continue
		}
		score, err := parseCell(row, idScore)
		if err != nil {
			continue
		}
		lengths = append(lengths, float64(len(strings.TrimSpace(row[idComment]))))
		scores = append(scores, score)
	}

	r, ok := pearson(lengths, scores)
	if !ok || abs(r) < e.cfg.CorrelationThreshold {
		return domain.Finding{}, false
	}
	return domain.Finding{
		Kind:       domain.FindingKindCorrelation,
		Subject:    domain.SubjectCommentLength,
		Tables:     []string{dataset.TableReviews},
		Columns:    []string{"review_comment_message", "review_score"},
		Statistic:  r,
		SampleSize: len(scores),
		Description: fmt.Sprintf("review comment length and score correlate at r=%.3f (n=%d)",
			r, len(scores)),
	}, true
}

// installmentFinding measures installment payment usage.
func (e *Explorer) installmentFinding(collection *dataset.Collection) (domain.Finding, bool) {
	payments, ok := collection.Get(dataset.TablePayments)
	if !ok {
		return domain.Finding{}, false
	}
	values, _ := columnValues(payments, "payment_installments")
	if len(values) == 0 {
		return domain.Finding{}, false
	}

	sum, multi := 0.0, 0
	for _, v := range values {
		sum += v
		if v > 1 {
			multi++
		}
	}
	rate := float64(multi) / float64(len(values)) * 100
	avg := sum / float64(len(values))
	return domain.Finding{
		Kind:       domain.FindingKindAggregate,
		Subject:    domain.SubjectInstallments,
		Tables:     []string{dataset.TablePayments},
		Columns:    []string{"payment_installments"},
		Statistic:  rate,
		SampleSize: len(values),
		Description: fmt.Sprintf("%.1f%% of %d payments use installments, averaging %.1f installments",
			rate, len(values), avg),
		Detail: map[string]string{
			"avg_installments": formatFloat(avg),
		},
	}, true
}

func identifierSet(table *domain.Table, column string) map[string]bool {
	idx := table.ColumnIndex(column)
	if idx < 0 {
		return nil
	}
	set := make(map[string]bool, table.RowCount)
	for _, row := range table.Rows {
		if idx < len(row) {
			if v := strings.TrimSpace(row[idx]); v != "" {
				set[v] = true
			}
		}
	}
	return set
}

func parseCell(row []string, idx int) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func weekdayName(d int) string {
	names := [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	return names[d%7]
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
