package report

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"rentprep/internal/store"
)

// summaryColumns selects the modeling variables that get a numeric profile.
var summaryColumns = []struct {
	name  string
	value func(*store.Features) (float64, bool)
}{
	{"rent", func(f *store.Features) (float64, bool) { return f.Rent, f.Rent > 0 }},
	{"area", func(f *store.Features) (float64, bool) {
		if f.Area == nil {
			return 0, false
		}
		return *f.Area, true
	}},
	{"price_per_square", func(f *store.Features) (float64, bool) {
		if f.PricePerSquare == nil {
			return 0, false
		}
		return *f.PricePerSquare, true
	}},
}

func summarizeNumeric(features []store.Features) []ColumnSummary {
	out := make([]ColumnSummary, 0, len(summaryColumns))
	for _, column := range summaryColumns {
		var values []float64
		for i := range features {
			if v, ok := column.value(&features[i]); ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		out = append(out, summarize(column.name, values))
	}
	return out
}

func summarize(name string, values []float64) ColumnSummary {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		std = 0
	}
	return ColumnSummary{
		Column: name,
		Count:  len(sorted),
		Min:    sorted[0],
		Median: medianOf(sorted),
		Mean:   mean,
		Max:    sorted[len(sorted)-1],
		StdDev: std,
	}
}

// medianOf expects sorted input and averages the two middle elements for
// even counts.
func medianOf(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
