// Package enrich computes the geospatial and market-duration features of a
// listing: distance to the city centre, distance to the nearest public
// transport stop, the average historical price per square metre in the
// surrounding neighborhood, days on market, and price per square metre.
package enrich

import (
	"context"
	"strings"
	"sync"

	"log/slog"

	"rentprep/internal/config"
	"rentprep/internal/geo"
	"rentprep/internal/logging"
	"rentprep/internal/services"
	"rentprep/internal/stage"
	"rentprep/internal/store"
)

// Enricher derives geospatial features for geocoded listings.
type Enricher struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger

	loadOnce sync.Once
	loadErr  error
	stops    *geo.Index
	history  *geo.History
}

// NewEnricher constructs the enrichment stage handler. The stops and
// history files load lazily on first use.
func NewEnricher(cfg *config.Config, st *store.Store, logger *slog.Logger) *Enricher {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "enrich"))
	}
	return &Enricher{cfg: cfg, store: st, logger: stageLogger}
}

func (e *Enricher) Prepare(ctx context.Context, listing *store.Listing) error {
	logger := logging.WithContext(ctx, e.logger)
	listing.ProgressStage = "Enriching"
	listing.ProgressMessage = "Computing geospatial features"
	listing.ProgressPercent = 0
	listing.ErrorMessage = ""
	logger.Info("starting enrichment", logging.String("district", strings.TrimSpace(listing.District)))
	return nil
}

func (e *Enricher) Execute(ctx context.Context, listing *store.Listing) error {
	logger := logging.WithContext(ctx, e.logger)

	if !listing.HasCoordinates() {
		return services.Wrap(services.ErrValidation, "enriching", "check coordinates",
			"Listing has no coordinates; geocode it before enrichment", nil)
	}
	if err := e.loadDatasets(); err != nil {
		return err
	}

	feats, err := listing.DecodeFeatures()
	if err != nil {
		return services.Wrap(services.ErrValidation, "enriching", "decode features",
			"Stored feature payload is not valid JSON", err)
	}

	point := geo.Point{Lat: *listing.Latitude, Lon: *listing.Longitude}
	centre := geo.Point{Lat: e.cfg.Pipeline.CenterLat, Lon: e.cfg.Pipeline.CenterLon}

	centerDistance := geo.Round3(geo.Distance(point, centre))
	feats.CenterDistance = &centerDistance

	if e.stops != nil {
		if distance, ok := e.stops.Nearest(point); ok {
			feats.StopDistance = &distance
		}
	}
	if e.history != nil {
		average := e.history.AverageWithinRadius(point, e.cfg.Pipeline.RadiusKm)
		feats.AvgAreaPrice = &average
	}
	if feats.Area != nil && *feats.Area > 0 && feats.Rent > 0 {
		pricePerSquare := feats.Rent / *feats.Area
		feats.PricePerSquare = &pricePerSquare
	}
	if listing.Expired && !listing.ExpiredAt.IsZero() && !listing.AddedAt.IsZero() {
		days := int(listing.ExpiredAt.Sub(listing.AddedAt).Hours() / 24)
		feats.DaysListed = &days
	}

	if err := listing.SetFeatures(feats); err != nil {
		return services.Wrap(services.ErrTransient, "enriching", "store features",
			"Failed to persist enriched features", err)
	}

	listing.ProgressPercent = 100
	listing.ProgressMessage = "Geospatial features computed"
	logger.Info(
		"enrichment complete",
		logging.Float64("center_distance", centerDistance),
		logging.Bool("has_stop_distance", feats.StopDistance != nil),
		logging.Bool("has_avg_area_price", feats.AvgAreaPrice != nil),
	)
	return nil
}

func (e *Enricher) HealthCheck(ctx context.Context) stage.Health {
	if err := e.loadDatasets(); err != nil {
		return stage.Unhealthy("enrich", err.Error())
	}
	return stage.Healthy("enrich")
}

// loadDatasets reads the configured stops and history files once. Either
// file is optional; a configured path that fails to load is a
// configuration error.
func (e *Enricher) loadDatasets() error {
	e.loadOnce.Do(func() {
		if path := strings.TrimSpace(e.cfg.Stops.StopsFile); path != "" {
			stops, err := geo.LoadStops(path)
			if err != nil {
				e.loadErr = services.Wrap(services.ErrConfiguration, "enriching", "load stops file",
					"Failed to load stops file "+path, err)
				return
			}
			e.stops = geo.NewIndex(stops)
		}
		if path := strings.TrimSpace(e.cfg.History.HistoryFile); path != "" {
			samples, err := geo.LoadHistory(path)
			if err != nil {
				e.loadErr = services.Wrap(services.ErrConfiguration, "enriching", "load history file",
					"Failed to load history file "+path, err)
				return
			}
			e.history = geo.NewHistory(samples)
		}
	})
	return e.loadErr
}
