package report

import (
	"context"
	"math"
	"testing"

	"rentprep/internal/store"
	"rentprep/internal/testsupport"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return testsupport.MustOpenStore(t, testsupport.NewConfig(t))
}

func seed(t *testing.T, st *store.Store, link, district string, status store.Status, feats *store.Features) {
	t.Helper()
	listing := &store.Listing{Link: link, Title: "Mieszkanie " + link, District: district}
	if feats != nil {
		if err := listing.SetFeatures(*feats); err != nil {
			t.Fatalf("SetFeatures() error = %v", err)
		}
	}
	created, err := st.NewListing(context.Background(), listing)
	if err != nil {
		t.Fatalf("NewListing(%s) error = %v", link, err)
	}
	created.Status = status
	if err := st.Update(context.Background(), created); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestGatherCountsAndSummaries(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	area1, area2 := 40.0, 60.0
	seed(t, st, "https://example.com/a", "Mokotów", store.StatusCompleted, &store.Features{
		Rent: 3000, Area: &area1, PricePerSquare: floatPtr(75), Heating: "urban",
	})
	seed(t, st, "https://example.com/b", "Mokotów", store.StatusCompleted, &store.Features{
		Rent: 5000, Area: &area2, PricePerSquare: floatPtr(83.33), Heating: "urban",
	})
	seed(t, st, "https://example.com/c", "Wola", store.StatusPending, nil)

	report, err := Gather(ctx, st)
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	if report.TotalListings != 3 {
		t.Errorf("TotalListings = %d, want 3", report.TotalListings)
	}

	statusCounts := make(map[string]int)
	for _, sc := range report.Statuses {
		statusCounts[sc.Status] = sc.Count
	}
	if statusCounts["completed"] != 2 || statusCounts["pending"] != 1 {
		t.Errorf("status counts = %v, want completed:2 pending:1", statusCounts)
	}

	if len(report.Districts) != 2 {
		t.Fatalf("got %d districts, want 2", len(report.Districts))
	}
	if report.Districts[0].District != "Mokotów" || report.Districts[0].Count != 2 {
		t.Errorf("Districts[0] = %+v, want Mokotów:2", report.Districts[0])
	}
	if report.Districts[1].District != "Wola" || report.Districts[1].Count != 1 {
		t.Errorf("Districts[1] = %+v, want Wola:1", report.Districts[1])
	}

	var rent *ColumnSummary
	for i := range report.Numeric {
		if report.Numeric[i].Column == "rent" {
			rent = &report.Numeric[i]
		}
	}
	if rent == nil {
		t.Fatal("no rent summary")
	}
	if rent.Count != 2 || rent.Min != 3000 || rent.Max != 5000 {
		t.Errorf("rent summary = %+v, want count 2, min 3000, max 5000", rent)
	}
	if rent.Mean != 4000 {
		t.Errorf("rent mean = %v, want 4000", rent.Mean)
	}
}

func TestGatherCountsMissingValues(t *testing.T) {
	st := newTestStore(t)

	seed(t, st, "https://example.com/a", "Wola", store.StatusCompleted, &store.Features{
		Rent: 3000, Heating: "urban",
	})
	seed(t, st, "https://example.com/b", "Wola", store.StatusCompleted, &store.Features{
		Rent: 3500, Area: floatPtr(45), Heating: "gas",
	})

	report, err := Gather(context.Background(), st)
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	missing := make(map[string]int)
	for _, mc := range report.Missing {
		missing[mc.Column] = mc.Missing
	}
	if missing["area"] != 1 {
		t.Errorf("missing area = %d, want 1", missing["area"])
	}
	if missing["heating"] != 0 {
		t.Errorf("missing heating = %d, want 0", missing["heating"])
	}
	if missing["building_age"] != 2 {
		t.Errorf("missing building_age = %d, want 2", missing["building_age"])
	}
}

func TestSummarize(t *testing.T) {
	summary := summarize("rent", []float64{3000, 4000, 5000})
	if summary.Min != 3000 || summary.Max != 5000 {
		t.Errorf("min/max = %v/%v, want 3000/5000", summary.Min, summary.Max)
	}
	if summary.Median != 4000 {
		t.Errorf("median = %v, want 4000", summary.Median)
	}
	if summary.Mean != 4000 {
		t.Errorf("mean = %v, want 4000", summary.Mean)
	}
	if math.Abs(summary.StdDev-1000) > 1e-9 {
		t.Errorf("stddev = %v, want 1000", summary.StdDev)
	}

	even := summarize("rent", []float64{3000, 4000, 5000, 6000})
	if even.Median != 4500 {
		t.Errorf("even-count median = %v, want 4500", even.Median)
	}

	single := summarize("area", []float64{42})
	if single.StdDev != 0 {
		t.Errorf("single-value stddev = %v, want 0", single.StdDev)
	}
	if single.Median != 42 || single.Mean != 42 {
		t.Errorf("single-value median/mean = %v/%v, want 42/42", single.Median, single.Mean)
	}
}
