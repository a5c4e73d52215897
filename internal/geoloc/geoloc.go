// Package geoloc fills missing listing coordinates through the geocoding
// service. Listings that already carry coordinates pass through untouched;
// lookup misses route the listing to manual review.
package geoloc

import (
	"context"
	"strings"

	"log/slog"

	"rentprep/internal/config"
	"rentprep/internal/logging"
	"rentprep/internal/services"
	"rentprep/internal/services/geocode"
	"rentprep/internal/stage"
	"rentprep/internal/store"
)

// Resolver describes the lookup the stage needs from the geocoding service.
type Resolver interface {
	Lookup(ctx context.Context, query string) (geocode.Result, bool, error)
}

// Geocoder resolves listing locations to coordinates.
type Geocoder struct {
	cfg      *config.Config
	store    *store.Store
	logger   *slog.Logger
	resolver Resolver
}

// NewGeocoder constructs the geocode stage handler using the configured
// HTTP client.
func NewGeocoder(cfg *config.Config, st *store.Store, logger *slog.Logger) *Geocoder {
	var resolver Resolver
	if cfg.GeocodingEnabled() {
		resolver = geocode.NewClient(geocode.Config{
			BaseURL:        cfg.Geocoding.BaseURL,
			Email:          cfg.Geocoding.Email,
			TimeoutSeconds: cfg.Geocoding.TimeoutSeconds,
			MinIntervalMS:  cfg.Geocoding.MinIntervalMS,
		})
	}
	return NewGeocoderWithResolver(cfg, st, logger, resolver)
}

// NewGeocoderWithResolver allows injecting the resolver (used in tests).
func NewGeocoderWithResolver(cfg *config.Config, st *store.Store, logger *slog.Logger, resolver Resolver) *Geocoder {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "geocode"))
	}
	return &Geocoder{cfg: cfg, store: st, logger: stageLogger, resolver: resolver}
}

func (g *Geocoder) Prepare(ctx context.Context, listing *store.Listing) error {
	logger := logging.WithContext(ctx, g.logger)
	listing.ProgressStage = "Geocoding"
	listing.ProgressMessage = "Resolving location to coordinates"
	listing.ProgressPercent = 0
	listing.ErrorMessage = ""
	logger.Info("starting geocode", logging.String("location", strings.TrimSpace(listing.Location)))
	return nil
}

func (g *Geocoder) Execute(ctx context.Context, listing *store.Listing) error {
	logger := logging.WithContext(ctx, g.logger)

	if listing.HasCoordinates() {
		listing.ProgressPercent = 100
		listing.ProgressMessage = "Coordinates already present"
		logger.Info("coordinates already present, skipping lookup")
		return nil
	}

	if g.resolver == nil {
		return services.Wrap(services.ErrConfiguration, "geocoding", "check configuration",
			"Listing has no coordinates and geocoding is disabled; enable [geocoding] or supply coordinates manually", nil)
	}

	query := strings.TrimSpace(listing.Location)
	if query == "" {
		return services.Wrap(services.ErrValidation, "geocoding", "build query",
			"Listing has no location string to geocode", nil)
	}

	result, found, err := g.resolver.Lookup(ctx, query)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "geocoding", "lookup location",
			"Geocoding request failed for "+query, err)
	}
	if !found {
		return services.Wrap(services.ErrValidation, "geocoding", "lookup location",
			"Geocoder found no match for "+query+"; verify the address by hand", nil)
	}

	lat, lon := result.Lat, result.Lon
	listing.Latitude = &lat
	listing.Longitude = &lon
	listing.ProgressPercent = 100
	listing.ProgressMessage = "Coordinates resolved"
	logger.Info(
		"geocode complete",
		logging.Float64("latitude", lat),
		logging.Float64("longitude", lon),
		logging.String("display_name", result.DisplayName),
	)
	return nil
}

func (g *Geocoder) HealthCheck(ctx context.Context) stage.Health {
	if !g.cfg.GeocodingEnabled() {
		return stage.Healthy("geocode")
	}
	if strings.TrimSpace(g.cfg.Geocoding.BaseURL) == "" {
		return stage.Unhealthy("geocode", "geocoding enabled without base_url")
	}
	if strings.TrimSpace(g.cfg.Geocoding.Email) == "" {
		return stage.Unhealthy("geocode", "geocoding enabled without contact email")
	}
	return stage.Healthy("geocode")
}
