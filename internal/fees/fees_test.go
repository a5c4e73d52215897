package fees

import (
	"context"
	"errors"
	"testing"

	"rentprep/internal/config"
	"rentprep/internal/logging"
	"rentprep/internal/services"
	"rentprep/internal/store"
	"rentprep/internal/testsupport"
)

type fakeExtractor struct {
	report store.FeeReport
	err    error
	calls  int
}

func (f *fakeExtractor) ExtractFees(ctx context.Context, description string) (store.FeeReport, error) {
	f.calls++
	return f.report, f.err
}

func feeListing(t *testing.T, description string, feats store.Features) *store.Listing {
	t.Helper()
	listing := &store.Listing{Link: "https://example.com/fees"}
	if err := listing.SetRaw(store.RawListing{Description: description}); err != nil {
		t.Fatalf("SetRaw() error = %v", err)
	}
	if err := listing.SetFeatures(feats); err != nil {
		t.Fatalf("SetFeatures() error = %v", err)
	}
	return listing
}

func floatPtr(v float64) *float64 { return &v }

func TestNewStageBuildsExtractorFromKey(t *testing.T) {
	withKey := NewStage(testsupport.NewConfig(t, testsupport.WithLLMKey("sk-or-test")), nil, logging.NewNop())
	if withKey.extractor == nil {
		t.Error("expected extractor when api key is configured")
	}

	withoutKey := NewStage(testsupport.NewConfig(t), nil, logging.NewNop())
	if withoutKey.extractor != nil {
		t.Error("expected nil extractor without api key")
	}
}

func TestStageSkipsWithoutExtractor(t *testing.T) {
	cfg := config.Default()
	s := NewStageWithExtractor(&cfg, nil, logging.NewNop(), nil)
	listing := feeListing(t, "Czynsz 600 zł.", store.Features{Rent: 3000})

	if err := s.Execute(context.Background(), listing); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	feats, err := listing.DecodeFeatures()
	if err != nil {
		t.Fatalf("DecodeFeatures() error = %v", err)
	}
	if feats.Fees != nil {
		t.Errorf("Fees = %+v, want nil", feats.Fees)
	}
	if listing.ProgressPercent != 100 {
		t.Errorf("ProgressPercent = %v", listing.ProgressPercent)
	}
}

func TestStageAppliesConfidentReport(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.ConfidenceThreshold = 0.7
	extractor := &fakeExtractor{report: store.FeeReport{
		AdministrativeRent: floatPtr(650),
		Deposit:            floatPtr(3000),
		Confidence:         0.9,
	}}
	s := NewStageWithExtractor(&cfg, nil, logging.NewNop(), extractor)
	listing := feeListing(t, "Do ceny należy doliczyć czynsz administracyjny 650 zł.", store.Features{Rent: 3000})

	if err := s.Execute(context.Background(), listing); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	feats, err := listing.DecodeFeatures()
	if err != nil {
		t.Fatalf("DecodeFeatures() error = %v", err)
	}
	if feats.Fees == nil || feats.Fees.Deposit == nil || *feats.Fees.Deposit != 3000 {
		t.Errorf("Fees = %+v", feats.Fees)
	}
	if feats.AdditionalFees != 650 {
		t.Errorf("AdditionalFees = %v, want 650", feats.AdditionalFees)
	}
}

func TestStageLowConfidenceKeepsScrubbedValues(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.ConfidenceThreshold = 0.7
	extractor := &fakeExtractor{report: store.FeeReport{
		AdministrativeRent: floatPtr(999),
		Confidence:         0.3,
	}}
	s := NewStageWithExtractor(&cfg, nil, logging.NewNop(), extractor)
	listing := feeListing(t, "Możliwe dodatkowe opłaty.", store.Features{Rent: 3000})

	if err := s.Execute(context.Background(), listing); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	feats, err := listing.DecodeFeatures()
	if err != nil {
		t.Fatalf("DecodeFeatures() error = %v", err)
	}
	if feats.AdditionalFees != 0 {
		t.Errorf("AdditionalFees = %v, want untouched 0", feats.AdditionalFees)
	}
	if feats.Fees == nil || feats.Fees.Confidence != 0.3 {
		t.Errorf("Fees = %+v, want stored report", feats.Fees)
	}
}

func TestStageDoesNotOverrideParsedFees(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.ConfidenceThreshold = 0.5
	extractor := &fakeExtractor{report: store.FeeReport{
		AdministrativeRent: floatPtr(700),
		Confidence:         0.95,
	}}
	s := NewStageWithExtractor(&cfg, nil, logging.NewNop(), extractor)
	listing := feeListing(t, "Czynsz administracyjny 700 zł.", store.Features{Rent: 3000, AdditionalFees: 550})

	if err := s.Execute(context.Background(), listing); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	feats, err := listing.DecodeFeatures()
	if err != nil {
		t.Fatalf("DecodeFeatures() error = %v", err)
	}
	if feats.AdditionalFees != 550 {
		t.Errorf("AdditionalFees = %v, want the parsed 550", feats.AdditionalFees)
	}
}

func TestStageSkipsEmptyDescription(t *testing.T) {
	extractor := &fakeExtractor{}
	cfg := config.Default()
	s := NewStageWithExtractor(&cfg, nil, logging.NewNop(), extractor)
	listing := feeListing(t, "   ", store.Features{Rent: 3000})

	if err := s.Execute(context.Background(), listing); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if extractor.calls != 0 {
		t.Errorf("extractor calls = %d, want 0", extractor.calls)
	}
}

func TestStageExtractionFailureIsExternal(t *testing.T) {
	extractor := &fakeExtractor{err: errors.New("rate limited")}
	cfg := config.Default()
	s := NewStageWithExtractor(&cfg, nil, logging.NewNop(), extractor)
	listing := feeListing(t, "Opis mieszkania.", store.Features{})

	err := s.Execute(context.Background(), listing)
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("Execute() error = %v, want ErrExternalService", err)
	}
}
