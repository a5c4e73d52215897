package scrub

import (
	"context"
	"strings"

	"log/slog"

	"rentprep/internal/config"
	"rentprep/internal/logging"
	"rentprep/internal/services"
	"rentprep/internal/stage"
	"rentprep/internal/store"
	"rentprep/internal/textutil"
)

var (
	dishwasherKeywords      = []string{"zmywarka"}
	airConditioningKeywords = []string{"klimatyzacja", "klimatyzator"}
)

// Scrubber turns raw scraped columns into typed listing features.
type Scrubber struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
}

// NewScrubber constructs the scrub stage handler.
func NewScrubber(cfg *config.Config, st *store.Store, logger *slog.Logger) *Scrubber {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "scrub"))
	}
	return &Scrubber{cfg: cfg, store: st, logger: stageLogger}
}

func (s *Scrubber) Prepare(ctx context.Context, listing *store.Listing) error {
	logger := logging.WithContext(ctx, s.logger)
	listing.ProgressStage = "Scrubbing"
	listing.ProgressMessage = "Parsing raw advertisement columns"
	listing.ProgressPercent = 0
	listing.ErrorMessage = ""
	logger.Info("starting scrub", logging.String("title", strings.TrimSpace(listing.Title)))
	return nil
}

func (s *Scrubber) Execute(ctx context.Context, listing *store.Listing) error {
	logger := logging.WithContext(ctx, s.logger)

	raw, err := listing.DecodeRaw()
	if err != nil {
		return services.Wrap(services.ErrValidation, "scrubbing", "decode raw columns",
			"Stored raw payload is not valid JSON; re-ingest the source file", err)
	}
	if strings.TrimSpace(raw.RentPrice) == "" {
		return services.Wrap(services.ErrValidation, "scrubbing", "parse rent",
			"Listing carries no rent_price column", nil)
	}

	rent, ok := ParseRent(raw.RentPrice)
	if !ok {
		return services.Wrap(services.ErrValidation, "scrubbing", "parse rent",
			"No recognizable amount in rent_price: "+raw.RentPrice, nil)
	}
	if !rent.PricedInPLN() {
		return services.Wrap(services.ErrValidation, "scrubbing", "check currency",
			"Listing is not priced in PLN ("+rent.Currency+"); excluded from the study", nil)
	}

	feats := store.Features{
		Rent:             rent.Rent,
		AdditionalFees:   rent.AdditionalFees,
		PaymentFrequency: rent.PaymentFrequency,
		Area:             ParseArea(raw.AreaRooms),
		Rooms:            ParseRooms(raw.AreaRooms),
		ForRenovation:    forRenovation(raw.FlatCondition),
		Heating:          TranslateHeating(raw.Heating),
		BuildingType:     TranslateBuildingType(raw.BuildingType),
		BuildingAge:      BuildingAge(raw.YearOfConstruction, s.cfg.Pipeline.ReferenceYear),
		Elevator:         strings.TrimSpace(raw.Elevator) == "tak",
		Balcony:          strings.Contains(raw.AdditionalInformation, "balkon"),
		Terrace:          strings.Contains(raw.AdditionalInformation, "taras"),
		Garden:           strings.Contains(raw.AdditionalInformation, "ogródek"),
		ParkingSpace:     strings.Contains(raw.AdditionalInformation, "garaż/miejsce parkingowe"),
		SeparateKitchen:  strings.Contains(raw.AdditionalInformation, "oddzielna kuchnia"),
		UtilityRoom:      strings.Contains(raw.AdditionalInformation, "pom. użytkowe"),
		Basement:         strings.Contains(raw.AdditionalInformation, "piwnica"),
		GatedCommunity:   strings.Contains(raw.Security, "teren zamknięty"),
		Monitoring:       strings.Contains(raw.Security, "onitoring / ochrona"),
		Safeguards:       hasSafeguards(raw.Safeguards),
		CableTV:          strings.Contains(raw.Utilities, "telewizja kablowa"),
		Internet:         strings.Contains(raw.Utilities, "internet"),
	}
	feats.Floor, feats.BuildingHeight = ParseFloor(raw.Floor)
	feats.Dishwasher = strings.Contains(raw.Equipment, "zmywarka") ||
		textutil.ContainsKeyword(raw.Description, dishwasherKeywords)
	feats.AirConditioning = strings.Contains(raw.Equipment, "klimatyzacja") ||
		textutil.ContainsKeyword(raw.Description, airConditioningKeywords)

	if err := listing.SetFeatures(feats); err != nil {
		return services.Wrap(services.ErrTransient, "scrubbing", "store features",
			"Failed to persist parsed features", err)
	}

	listing.ProgressPercent = 100
	listing.ProgressMessage = "Raw columns parsed"
	logger.Info(
		"scrub complete",
		logging.Float64("rent", feats.Rent),
		logging.Bool("has_area", feats.Area != nil),
	)
	return nil
}

func (s *Scrubber) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("scrub")
}

func forRenovation(condition string) bool {
	condition = strings.TrimSpace(condition)
	return condition != "" && condition != "do zamieszkania"
}

func hasSafeguards(value string) bool {
	return strings.Contains(value, "system alarmowy") || strings.Contains(value, "antywłamaniowe")
}
