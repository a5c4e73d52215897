package scrub

import (
	"context"
	"errors"
	"testing"

	"rentprep/internal/config"
	"rentprep/internal/logging"
	"rentprep/internal/services"
	"rentprep/internal/store"
)

func newTestScrubber(t *testing.T) *Scrubber {
	t.Helper()
	cfg := config.Default()
	cfg.Pipeline.ReferenceYear = 2025
	return NewScrubber(&cfg, nil, logging.NewNop())
}

func rawListing(t *testing.T, raw store.RawListing) *store.Listing {
	t.Helper()
	listing := &store.Listing{Link: "https://example.com/oferta/scrub", Status: store.StatusScrubbing}
	if err := listing.SetRaw(raw); err != nil {
		t.Fatalf("SetRaw() error = %v", err)
	}
	return listing
}

func TestScrubberExecute(t *testing.T) {
	scrubber := newTestScrubber(t)
	listing := rawListing(t, store.RawListing{
		RentPrice:             "3 200 zł/mies + Czynsz 550 zł",
		AreaRooms:             "48.5m², 2 pokoje",
		Floor:                 "parter/4",
		FlatCondition:         "do zamieszkania",
		Heating:               "miejskie",
		AdditionalInformation: "balkon, oddzielna kuchnia, piwnica",
		Elevator:              "tak",
		BuildingType:          "kamienica",
		Security:              "teren zamknięty, monitoring / ochrona",
		Safeguards:            "drzwi / okna antywłamaniowe",
		YearOfConstruction:    "1938",
		Utilities:             "internet, telewizja kablowa",
		Equipment:             "lodówka, zmywarka",
		Description:           "Przytulne mieszkanie z klimatyzacją blisko metra.",
	})

	if err := scrubber.Execute(context.Background(), listing); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	feats, err := listing.DecodeFeatures()
	if err != nil {
		t.Fatalf("DecodeFeatures() error = %v", err)
	}

	if feats.Rent != 3200 || feats.AdditionalFees != 550 || feats.PaymentFrequency != "mies" {
		t.Errorf("rent = %+v", feats)
	}
	if feats.Area == nil || *feats.Area != 48.5 {
		t.Errorf("Area = %v", feats.Area)
	}
	if feats.Rooms == nil || *feats.Rooms != 2 {
		t.Errorf("Rooms = %v", feats.Rooms)
	}
	if feats.Floor == nil || *feats.Floor != 1 || feats.BuildingHeight == nil || *feats.BuildingHeight != 4 {
		t.Errorf("floor = %v / %v", feats.Floor, feats.BuildingHeight)
	}
	if feats.ForRenovation {
		t.Error("expected ready-to-move flat")
	}
	if feats.Heating != "district" {
		t.Errorf("Heating = %q", feats.Heating)
	}
	if feats.BuildingType != "tenement" {
		t.Errorf("BuildingType = %q", feats.BuildingType)
	}
	if feats.BuildingAge == nil || *feats.BuildingAge != 87 {
		t.Errorf("BuildingAge = %v", feats.BuildingAge)
	}
	if !feats.Elevator || !feats.Balcony || !feats.SeparateKitchen || !feats.Basement {
		t.Errorf("amenity flags = %+v", feats)
	}
	if feats.Terrace || feats.Garden || feats.ParkingSpace || feats.UtilityRoom {
		t.Errorf("unexpected amenity flags = %+v", feats)
	}
	if !feats.GatedCommunity || !feats.Monitoring || !feats.Safeguards {
		t.Errorf("security flags = %+v", feats)
	}
	if !feats.CableTV || !feats.Internet {
		t.Errorf("utility flags = %+v", feats)
	}
	if !feats.Dishwasher {
		t.Error("expected dishwasher from equipment")
	}
	if !feats.AirConditioning {
		t.Error("expected air conditioning from inflected description keyword")
	}
	if listing.ProgressPercent != 100 {
		t.Errorf("ProgressPercent = %v", listing.ProgressPercent)
	}
}

func TestScrubberExecuteRejectsForeignCurrency(t *testing.T) {
	scrubber := newTestScrubber(t)
	listing := rawListing(t, store.RawListing{RentPrice: "1 200 EUR/mies"})

	err := scrubber.Execute(context.Background(), listing)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Execute() error = %v, want ErrValidation", err)
	}
	if got := services.FailureStatus(err); got != store.StatusReview {
		t.Errorf("FailureStatus() = %q, want %q", got, store.StatusReview)
	}
}

func TestScrubberExecuteRejectsMissingRent(t *testing.T) {
	scrubber := newTestScrubber(t)
	listing := rawListing(t, store.RawListing{AreaRooms: "30m², 1 pok."})

	err := scrubber.Execute(context.Background(), listing)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Execute() error = %v, want ErrValidation", err)
	}
}

func TestScrubberHealthCheck(t *testing.T) {
	scrubber := newTestScrubber(t)
	health := scrubber.HealthCheck(context.Background())
	if !health.Ready || health.Name != "scrub" {
		t.Errorf("HealthCheck() = %+v", health)
	}
}
