package report

import (
	"context"
	"fmt"
	"sort"

	"rentprep/internal/store"
)

// Gather collects the dataset summary from the listing store.
func Gather(ctx context.Context, st *store.Store) (*Report, error) {
	r := &Report{}

	stats, err := st.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("gather status counts: %w", err)
	}
	for _, status := range store.AllStatuses() {
		count := stats[status]
		r.TotalListings += count
		if count > 0 {
			r.Statuses = append(r.Statuses, StatusCount{Status: string(status), Count: count})
		}
	}

	listings, err := st.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("gather listings: %w", err)
	}
	r.Districts = countDistricts(listings)

	completed := make([]*store.Listing, 0, len(listings))
	for _, listing := range listings {
		if listing.Status == store.StatusCompleted {
			completed = append(completed, listing)
		}
	}

	features := make([]store.Features, 0, len(completed))
	for _, listing := range completed {
		feats, err := listing.DecodeFeatures()
		if err != nil {
			r.addError("decode features for %s: %v", listing.Link, err)
			continue
		}
		features = append(features, feats)
	}

	r.Missing = countMissing(features)
	r.Numeric = summarizeNumeric(features)

	return r, nil
}

func (r *Report) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func countDistricts(listings []*store.Listing) []DistrictCount {
	counts := make(map[string]int)
	for _, listing := range listings {
		if listing.District == "" {
			continue
		}
		counts[listing.District]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]DistrictCount, 0, len(names))
	for _, name := range names {
		out = append(out, DistrictCount{District: name, Count: counts[name]})
	}
	return out
}

// missingColumns lists the imputable feature columns in display order, each
// with a predicate reporting whether the value is absent.
var missingColumns = []struct {
	name   string
	absent func(*store.Features) bool
}{
	{"area", func(f *store.Features) bool { return f.Area == nil }},
	{"room_number", func(f *store.Features) bool { return f.Rooms == nil }},
	{"floor", func(f *store.Features) bool { return f.Floor == nil }},
	{"building_height", func(f *store.Features) bool { return f.BuildingHeight == nil }},
	{"building_age", func(f *store.Features) bool { return f.BuildingAge == nil }},
	{"heating", func(f *store.Features) bool { return f.Heating == "" }},
	{"building_type", func(f *store.Features) bool { return f.BuildingType == "" }},
	{"stop_distance", func(f *store.Features) bool { return f.StopDistance == nil }},
	{"avg_area_price", func(f *store.Features) bool { return f.AvgAreaPrice == nil }},
	{"price_per_square", func(f *store.Features) bool { return f.PricePerSquare == nil }},
	{"days_listed", func(f *store.Features) bool { return f.DaysListed == nil }},
}

func countMissing(features []store.Features) []MissingCount {
	out := make([]MissingCount, 0, len(missingColumns))
	for _, column := range missingColumns {
		missing := 0
		for i := range features {
			if column.absent(&features[i]) {
				missing++
			}
		}
		if missing > 0 {
			out = append(out, MissingCount{Column: column.name, Missing: missing})
		}
	}
	return out
}
