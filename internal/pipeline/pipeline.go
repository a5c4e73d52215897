package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"rentprep/internal/config"
	"rentprep/internal/enrich"
	"rentprep/internal/fees"
	"rentprep/internal/geoloc"
	"rentprep/internal/logging"
	"rentprep/internal/scrub"
	"rentprep/internal/services"
	"rentprep/internal/stage"
	"rentprep/internal/store"
)

// lockFileName guards the data directory against concurrent runs.
const lockFileName = "rentprep.lock"

// ErrAlreadyRunning indicates another process holds the run lock.
var ErrAlreadyRunning = errors.New("another pipeline run is in progress")

// Stage binds a handler to the status transition it owns.
type Stage struct {
	Name       string
	Handler    stage.Handler
	Start      store.Status
	Processing store.Status
	Done       store.Status
}

// Summary reports what a run accomplished.
type Summary struct {
	Processed int
	Failed    int
	Review    int
}

// Manager walks pending listings through the preparation stages.
type Manager struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger

	stages       []Stage
	stageByStart map[store.Status]Stage
	startOrder   []store.Status
}

// New constructs a manager with the standard stage order.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) *Manager {
	stages := []Stage{
		{
			Name:       "scrub",
			Handler:    scrub.NewScrubber(cfg, st, logger),
			Start:      store.StatusPending,
			Processing: store.StatusScrubbing,
			Done:       store.StatusScrubbed,
		},
		{
			Name:       "geocode",
			Handler:    geoloc.NewGeocoder(cfg, st, logger),
			Start:      store.StatusScrubbed,
			Processing: store.StatusGeocoding,
			Done:       store.StatusGeocoded,
		},
		{
			Name:       "enrich",
			Handler:    enrich.NewEnricher(cfg, st, logger),
			Start:      store.StatusGeocoded,
			Processing: store.StatusEnriching,
			Done:       store.StatusEnriched,
		},
		{
			Name:       "fees",
			Handler:    fees.NewStage(cfg, st, logger),
			Start:      store.StatusEnriched,
			Processing: store.StatusFeeExtracting,
			Done:       store.StatusCompleted,
		},
	}
	return NewWithStages(cfg, st, logger, stages)
}

// NewWithStages constructs a manager over a custom stage list (used in
// tests).
func NewWithStages(cfg *config.Config, st *store.Store, logger *slog.Logger, stages []Stage) *Manager {
	managerLogger := logger
	if managerLogger != nil {
		managerLogger = managerLogger.With(logging.String(logging.FieldComponent, "pipeline"))
	} else {
		managerLogger = logging.NewNop()
	}

	m := &Manager{
		cfg:          cfg,
		store:        st,
		logger:       managerLogger,
		stages:       stages,
		stageByStart: make(map[store.Status]Stage, len(stages)),
	}
	for _, stg := range stages {
		m.stageByStart[stg.Start] = stg
		m.startOrder = append(m.startOrder, stg.Start)
	}
	return m
}

// Run drains the queue until no listing sits in a stage start status.
// Interrupted listings from a previous run are reset first.
func (m *Manager) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	lock := flock.New(filepath.Join(m.cfg.Paths.DataDir, lockFileName))
	acquired, err := lock.TryLock()
	if err != nil {
		return summary, fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		return summary, ErrAlreadyRunning
	}
	defer func() {
		_ = lock.Unlock()
	}()

	reset, err := m.store.ResetStuckProcessing(ctx)
	if err != nil {
		return summary, err
	}
	if reset > 0 {
		m.logger.Info("reset listings from interrupted run", logging.Int64("count", reset))
	}

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		listing, err := m.store.NextForStatuses(ctx, m.startOrder...)
		if err != nil {
			return summary, err
		}
		if listing == nil {
			break
		}
		if err := m.processListing(ctx, listing, &summary); err != nil {
			return summary, err
		}
	}

	m.logger.Info(
		"run complete",
		logging.Int("processed", summary.Processed),
		logging.Int("failed", summary.Failed),
		logging.Int("review", summary.Review),
	)
	return summary, nil
}

// processListing advances a single listing through one stage. Stage errors
// are persisted on the listing and never abort the run.
func (m *Manager) processListing(ctx context.Context, listing *store.Listing, summary *Summary) error {
	stg, ok := m.stageByStart[listing.Status]
	if !ok {
		return fmt.Errorf("no stage configured for status %q", listing.Status)
	}

	requestID := uuid.NewString()
	stageCtx := services.WithRequestID(ctx, requestID)
	stageCtx = services.WithListingID(stageCtx, listing.ID)
	stageCtx = services.WithStage(stageCtx, stg.Name)
	logger := logging.WithContext(stageCtx, m.logger)

	listing.Status = stg.Processing
	now := time.Now().UTC()
	listing.LastHeartbeat = &now
	if err := m.store.Update(stageCtx, listing); err != nil {
		return fmt.Errorf("transition to %s: %w", stg.Processing, err)
	}

	logger.Info("stage started", logging.String("title", strings.TrimSpace(listing.Title)))

	if err := stg.Handler.Prepare(stageCtx, listing); err != nil {
		m.recordStageFailure(stageCtx, stg, listing, err, summary)
		return nil
	}
	if err := m.store.Update(stageCtx, listing); err != nil {
		return fmt.Errorf("persist stage preparation: %w", err)
	}

	if err := stg.Handler.Execute(stageCtx, listing); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		m.recordStageFailure(stageCtx, stg, listing, err, summary)
		return nil
	}

	if listing.Status == stg.Processing || listing.Status == "" {
		listing.Status = stg.Done
	}
	listing.LastHeartbeat = nil
	if listing.Status == store.StatusCompleted {
		listing.ProgressStage = "Completed"
		if listing.ProgressPercent < 100 {
			listing.ProgressPercent = 100
		}
	}
	if err := m.store.Update(stageCtx, listing); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}

	summary.Processed++
	logger.Info("stage complete", logging.String("status", string(listing.Status)))
	return nil
}

func (m *Manager) recordStageFailure(ctx context.Context, stg Stage, listing *store.Listing, stageErr error, summary *Summary) {
	logger := logging.WithContext(ctx, m.logger)

	status := services.FailureStatus(stageErr)
	listing.Status = status
	listing.ErrorMessage = strings.TrimSpace(stageErr.Error())
	listing.LastHeartbeat = nil
	if status == store.StatusReview {
		listing.NeedsReview = true
		if listing.ReviewReason == "" {
			listing.ReviewReason = listing.ErrorMessage
		}
		summary.Review++
	} else {
		summary.Failed++
	}

	logger.Error(
		"stage failed",
		logging.String("resolved_status", string(status)),
		logging.Error(stageErr),
	)
	if err := m.store.Update(ctx, listing); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}
}

// HealthCheck reports readiness for every configured stage.
func (m *Manager) HealthCheck(ctx context.Context) []stage.Health {
	health := make([]stage.Health, 0, len(m.stages))
	for _, stg := range m.stages {
		health = append(health, stg.Handler.HealthCheck(ctx))
	}
	return health
}
