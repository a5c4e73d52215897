// Package fees extracts hidden rental costs from listing descriptions with
// an LLM. The stage is optional: without an API key every listing passes
// straight through, and a low-confidence report never overrides values
// parsed from the structured columns.
package fees

import (
	"context"
	"strings"

	"log/slog"

	"rentprep/internal/config"
	"rentprep/internal/logging"
	"rentprep/internal/services"
	"rentprep/internal/services/llm"
	"rentprep/internal/stage"
	"rentprep/internal/store"
)

// Extractor describes the LLM call the stage depends on.
type Extractor interface {
	ExtractFees(ctx context.Context, description string) (store.FeeReport, error)
}

// Stage runs hidden-fee extraction on scrubbed listings.
type Stage struct {
	cfg       *config.Config
	store     *store.Store
	logger    *slog.Logger
	extractor Extractor
}

// NewStage constructs the fee extraction handler using the configured
// OpenRouter client. Without an API key the extractor stays nil and the
// stage passes listings through.
func NewStage(cfg *config.Config, st *store.Store, logger *slog.Logger) *Stage {
	var extractor Extractor
	if cfg.FeesEnabled() {
		extractor = llm.NewClient(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			Referer:        cfg.LLM.Referer,
			Title:          cfg.LLM.Title,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		})
	}
	return NewStageWithExtractor(cfg, st, logger, extractor)
}

// NewStageWithExtractor allows injecting the extractor (used in tests).
func NewStageWithExtractor(cfg *config.Config, st *store.Store, logger *slog.Logger, extractor Extractor) *Stage {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "fees"))
	}
	return &Stage{cfg: cfg, store: st, logger: stageLogger, extractor: extractor}
}

func (s *Stage) Prepare(ctx context.Context, listing *store.Listing) error {
	logger := logging.WithContext(ctx, s.logger)
	listing.ProgressStage = "Extracting fees"
	listing.ProgressMessage = "Reading hidden costs from the description"
	listing.ProgressPercent = 0
	listing.ErrorMessage = ""
	logger.Info("starting fee extraction", logging.Bool("llm_configured", s.extractor != nil))
	return nil
}

func (s *Stage) Execute(ctx context.Context, listing *store.Listing) error {
	logger := logging.WithContext(ctx, s.logger)

	if s.extractor == nil {
		listing.ProgressPercent = 100
		listing.ProgressMessage = "Fee extraction not configured, skipped"
		logger.Info("no api key configured, passing listing through")
		return nil
	}

	raw, err := listing.DecodeRaw()
	if err != nil {
		return services.Wrap(services.ErrValidation, "fee_extracting", "decode raw columns",
			"Stored raw payload is not valid JSON", err)
	}
	description := strings.TrimSpace(raw.Description)
	if description == "" {
		listing.ProgressPercent = 100
		listing.ProgressMessage = "No description to analyze, skipped"
		logger.Info("listing has no description, skipping fee extraction")
		return nil
	}

	report, err := s.extractor.ExtractFees(ctx, description)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "fee_extracting", "query model",
			"Hidden-fee extraction failed", err)
	}

	feats, err := listing.DecodeFeatures()
	if err != nil {
		return services.Wrap(services.ErrValidation, "fee_extracting", "decode features",
			"Stored feature payload is not valid JSON", err)
	}
	feats.Fees = &report

	// The report only overrides the parsed fee column when the model is
	// confident and the structured column carried nothing.
	applied := false
	if report.Confidence >= s.cfg.LLM.ConfidenceThreshold &&
		feats.AdditionalFees == 0 && report.AdministrativeRent != nil {
		feats.AdditionalFees = *report.AdministrativeRent
		applied = true
	}

	if err := listing.SetFeatures(feats); err != nil {
		return services.Wrap(services.ErrTransient, "fee_extracting", "store features",
			"Failed to persist fee report", err)
	}

	listing.ProgressPercent = 100
	listing.ProgressMessage = "Fee report stored"
	logger.Info(
		"fee extraction complete",
		logging.Float64("confidence", report.Confidence),
		logging.Bool("applied_administrative_rent", applied),
	)
	return nil
}

func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	if s.extractor == nil {
		return stage.Healthy("fees")
	}
	if strings.TrimSpace(s.cfg.LLM.Model) == "" {
		return stage.Unhealthy("fees", "llm api key set without a model")
	}
	return stage.Healthy("fees")
}
