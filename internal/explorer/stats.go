package explorer

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	mstats "github.com/montanaflynn/stats"

	"ecomlens/pkg/contracts/domain"
)

// ColumnSummary holds the descriptive statistics of one numeric column.
type ColumnSummary struct {
	Table    string  `json:"table"`
	Column   string  `json:"column"`
	Count    int     `json:"count"`
	Missing  int     `json:"missing"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	StdDev   float64 `json:"std"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
}

// FrequencyEntry is one value of a frequency table, ordered by count with
// first-encountered insertion order breaking ties.
type FrequencyEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FrequencyTable holds the value distribution of one categorical column.
type FrequencyTable struct {
	Table  string           `json:"table"`
	Column string           `json:"column"`
	Unique int              `json:"unique"`
	Total  int              `json:"total"`
	Top    []FrequencyEntry `json:"top"`
}

// TemporalSpan describes the observed time range of a datetime column.
type TemporalSpan struct {
	Table    string    `json:"table"`
	Column   string    `json:"column"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	SpanDays int       `json:"span_days"`
}

// summarize computes descriptive statistics for a numeric column.
func summarize(table *domain.Table, column string) (ColumnSummary, bool) {
	values, missing := columnValues(table, column)
	if len(values) == 0 {
		return ColumnSummary{}, false
	}

	data := mstats.Float64Data(values)
	mean, _ := data.Mean()
	median, _ := data.Median()
	std, _ := data.StandardDeviationSample()
	min, _ := data.Min()
	max, _ := data.Max()
	q25, _ := data.Percentile(25)
	q75, _ := data.Percentile(75)

	// Single-value columns make the sample stats error out with NaN; the
	// summaries are JSON-encoded, so every field must stay finite.
	std = finite(std)
	return ColumnSummary{
		Table:    table.Name,
		Column:   column,
		Count:    len(values),
		Missing:  missing,
		Mean:     finite(mean),
		Median:   finite(median),
		StdDev:   std,
		Min:      finite(min),
		Max:      finite(max),
		Q25:      finite(q25),
		Q75:      finite(q75),
		Skewness: finite(skewness(values, finite(mean), std)),
	}, true
}

// finite zeroes NaN and infinite values.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// skewness is the adjusted Fisher-Pearson sample skewness.
func skewness(values []float64, mean, std float64) float64 {
	n := float64(len(values))
	if n < 3 || std == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := (v - mean) / std
		sum += d * d * d
	}
	return n / ((n - 1) * (n - 2)) * sum
}

// frequencies counts categorical values preserving first-encounter order,
// then sorts by descending count with that order as the tie-break.
func frequencies(table *domain.Table, column string, topN int) (FrequencyTable, bool) {
	idx := table.ColumnIndex(column)
	if idx < 0 {
		return FrequencyTable{}, false
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0
	total := 0
	for _, row := range table.Rows {
		if idx >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[idx])
		if v == "" {
			continue
		}
		if _, seen := counts[v]; !seen {
			firstSeen[v] = order
			order++
		}
		counts[v]++
		total++
	}
	if total == 0 {
		return FrequencyTable{}, false
	}

	entries := make([]FrequencyEntry, 0, len(counts))
	for v, c := range counts {
		entries = append(entries, FrequencyEntry{Value: v, Count: c})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return firstSeen[entries[i].Value] < firstSeen[entries[j].Value]
	})
	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}

	return FrequencyTable{
		Table:  table.Name,
		Column: column,
		Unique: len(counts),
		Total:  total,
		Top:    entries,
	}, true
}

// columnValues parses a numeric column, returning values and the count of
// blank or unparseable cells.
func columnValues(table *domain.Table, column string) ([]float64, int) {
	idx := table.ColumnIndex(column)
	if idx < 0 {
		return nil, 0
	}
	values := make([]float64, 0, table.RowCount)
	missing := 0
	for _, row := range table.Rows {
		if idx >= len(row) || strings.TrimSpace(row[idx]) == "" {
			missing++
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
		if err != nil {
			missing++
			continue
		}
		values = append(values, f)
	}
	return values, missing
}

// pairedValues extracts row-aligned value pairs where both columns parse.
func pairedValues(table *domain.Table, colA, colB string) ([]float64, []float64) {
	ia, ib := table.ColumnIndex(colA), table.ColumnIndex(colB)
	if ia < 0 || ib < 0 {
		return nil, nil
	}
	var xs, ys []float64
	for _, row := range table.Rows {
		if ia >= len(row) || ib >= len(row) {
			continue
		}
		a, errA := strconv.ParseFloat(strings.TrimSpace(row[ia]), 64)
		b, errB := strconv.ParseFloat(strings.TrimSpace(row[ib]), 64)
		if errA != nil || errB != nil {
			continue
		}
		xs = append(xs, a)
		ys = append(ys, b)
	}
	return xs, ys
}

// pearson computes the correlation coefficient of two aligned series.
func pearson(xs, ys []float64) (float64, bool) {
	if len(xs) < 3 || len(xs) != len(ys) {
		return 0, false
	}
	r, err := mstats.Correlation(mstats.Float64Data(xs), mstats.Float64Data(ys))
	if err != nil || math.IsNaN(r) {
		return 0, false
	}
	return r, true
}

// tukeyFences returns the outlier bounds at quartile +/- mult*IQR.
func tukeyFences(values []float64, mult float64) (lower, upper float64, ok bool) {
	if len(values) < 4 {
		return 0, 0, false
	}
	data := mstats.Float64Data(values)
	q25, err1 := data.Percentile(25)
	q75, err2 := data.Percentile(75)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	iqr := q75 - q25
	return q25 - mult*iqr, q75 + mult*iqr, true
}

// temporalSpan finds the observed range of a datetime column.
func temporalSpan(table *domain.Table, column string, parse func(string) (time.Time, bool)) (TemporalSpan, bool) {
	idx := table.ColumnIndex(column)
	if idx < 0 {
		return TemporalSpan{}, false
	}
	var start, end time.Time
	for _, row := range table.Rows {
		if idx >= len(row) {
			continue
		}
		ts, ok := parse(row[idx])
		if !ok {
			continue
		}
		if start.IsZero() || ts.Before(start) {
			start = ts
		}
		if ts.After(end) {
			end = ts
		}
	}
	if start.IsZero() {
		return TemporalSpan{}, false
	}
	return TemporalSpan{
		Table:    table.Name,
		Column:   column,
		Start:    start,
		End:      end,
		SpanDays: int(end.Sub(start).Hours() / 24),
	}, true
}
