package enrich

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"rentprep/internal/config"
	"rentprep/internal/logging"
	"rentprep/internal/services"
	"rentprep/internal/store"
	"rentprep/internal/testsupport"
)

func writeDataset(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	testsupport.WriteCSV(t, path, content)
	return path
}

func geocodedListing(t *testing.T, lat, lon float64, feats store.Features) *store.Listing {
	t.Helper()
	listing := &store.Listing{
		Link:      "https://example.com/enrich",
		Latitude:  &lat,
		Longitude: &lon,
	}
	if err := listing.SetFeatures(feats); err != nil {
		t.Fatalf("SetFeatures() error = %v", err)
	}
	return listing
}

func TestEnricherExecute(t *testing.T) {
	stops := writeDataset(t, "stops.csv", `stop_id,stop_name,stop_lat,stop_lon
1,Centrum,52.2298,21.0118
2,Wilanowska,52.1807,21.0238
`)
	history := writeDataset(t, "history.csv", `latitude,longitude,price_per_square
52.2297,21.0122,90
52.2300,21.0125,110
52.1000,20.8000,40
`)
	cfg := testsupport.NewConfig(t,
		testsupport.WithStopsFile(stops),
		testsupport.WithHistoryFile(history),
	)

	enricher := NewEnricher(cfg, nil, logging.NewNop())
	area := 50.0
	listing := geocodedListing(t, 52.2297, 21.0122, store.Features{Rent: 4000, Area: &area})
	listing.AddedAt = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	listing.Expired = true
	listing.ExpiredAt = time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC)

	if err := enricher.Execute(context.Background(), listing); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	feats, err := listing.DecodeFeatures()
	if err != nil {
		t.Fatalf("DecodeFeatures() error = %v", err)
	}
	if feats.CenterDistance == nil || *feats.CenterDistance > 0.05 {
		t.Errorf("CenterDistance = %v, want near zero", feats.CenterDistance)
	}
	if feats.StopDistance == nil || *feats.StopDistance > 0.1 {
		t.Errorf("StopDistance = %v, want under 100m", feats.StopDistance)
	}
	if feats.AvgAreaPrice == nil || math.Abs(*feats.AvgAreaPrice-100) > 0.001 {
		t.Errorf("AvgAreaPrice = %v, want 100", feats.AvgAreaPrice)
	}
	if feats.PricePerSquare == nil || *feats.PricePerSquare != 80 {
		t.Errorf("PricePerSquare = %v, want 80", feats.PricePerSquare)
	}
	if feats.DaysListed == nil || *feats.DaysListed != 30 {
		t.Errorf("DaysListed = %v, want 30", feats.DaysListed)
	}
}

func TestEnricherExecuteNoDatasets(t *testing.T) {
	cfg := config.Default()
	enricher := NewEnricher(&cfg, nil, logging.NewNop())
	listing := geocodedListing(t, 52.25, 21.0, store.Features{Rent: 3000})

	if err := enricher.Execute(context.Background(), listing); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	feats, err := listing.DecodeFeatures()
	if err != nil {
		t.Fatalf("DecodeFeatures() error = %v", err)
	}
	if feats.CenterDistance == nil {
		t.Error("expected center distance even without datasets")
	}
	if feats.StopDistance != nil {
		t.Errorf("StopDistance = %v, want nil without stops file", feats.StopDistance)
	}
	if feats.AvgAreaPrice != nil {
		t.Errorf("AvgAreaPrice = %v, want nil without history file", feats.AvgAreaPrice)
	}
}

func TestEnricherRequiresCoordinates(t *testing.T) {
	cfg := config.Default()
	enricher := NewEnricher(&cfg, nil, logging.NewNop())
	listing := &store.Listing{Link: "https://example.com/nocoords"}

	err := enricher.Execute(context.Background(), listing)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Execute() error = %v, want ErrValidation", err)
	}
	if got := services.FailureStatus(err); got != store.StatusReview {
		t.Errorf("FailureStatus() = %q, want %q", got, store.StatusReview)
	}
}

func TestEnricherBadStopsFileIsConfigurationError(t *testing.T) {
	cfg := config.Default()
	cfg.Stops.StopsFile = filepath.Join(t.TempDir(), "missing.csv")
	enricher := NewEnricher(&cfg, nil, logging.NewNop())
	listing := geocodedListing(t, 52.25, 21.0, store.Features{})

	err := enricher.Execute(context.Background(), listing)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("Execute() error = %v, want ErrConfiguration", err)
	}

	if health := enricher.HealthCheck(context.Background()); health.Ready {
		t.Errorf("HealthCheck() = %+v, want unhealthy", health)
	}
}
