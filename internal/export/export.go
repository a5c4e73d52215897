// Package export builds the modeling-ready table from completed listings.
// Missing numeric values are imputed with the column median, missing
// categorical values with the column mode, and the result is written as CSV
// with a stable column order.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"rentprep/internal/config"
	"rentprep/internal/logging"
	"rentprep/internal/store"
	"rentprep/internal/textutil"
)

// columnOrder fixes the layout of the exported table.
var columnOrder = []string{
	"added_dt", "link", "district", "latitude", "longitude",
	"rent", "additional_fees", "area", "room_number",
	"floor", "building_height", "for_renovation", "heating",
	"building_type", "building_age", "elevator", "balcony", "terrace",
	"garden", "parking_space", "separate_kitchen", "utility_room",
	"basement", "gated_community", "security_monitoring", "safeguards",
	"cable_tv", "internet", "dishwasher", "air_conditioning",
	"center_distance", "stop_distance", "avg_area_price",
	"price_per_square", "days_listed",
}

// Result reports where the table landed and how big it is.
type Result struct {
	Path string
	Rows int
}

// row is one listing flattened for export, before imputation.
type row struct {
	listing  *store.Listing
	features store.Features
}

// Exporter writes the model table.
type Exporter struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewExporter constructs the export operation.
func NewExporter(cfg *config.Config, st *store.Store, logger *slog.Logger) *Exporter {
	opLogger := logger
	if opLogger != nil {
		opLogger = opLogger.With(logging.String(logging.FieldComponent, "export"))
	} else {
		opLogger = logging.NewNop()
	}
	return &Exporter{cfg: cfg, store: st, logger: opLogger, now: time.Now}
}

// Run exports completed listings to a timestamped CSV in export_dir.
func (e *Exporter) Run(ctx context.Context) (Result, error) {
	var result Result

	listings, err := e.store.CompletedListings(ctx)
	if err != nil {
		return result, err
	}

	rows := make([]row, 0, len(listings))
	for _, listing := range listings {
		if e.cfg.Pipeline.OnlyExpired {
			if !listing.Expired {
				continue
			}
			days := daysListed(listing)
			if days < e.cfg.Pipeline.MinDaysListed || days > e.cfg.Pipeline.MaxDaysListed {
				continue
			}
		}
		feats, err := listing.DecodeFeatures()
		if err != nil {
			return result, fmt.Errorf("decode features for %s: %w", listing.Link, err)
		}
		rows = append(rows, row{listing: listing, features: feats})
	}

	imputeNumeric(rows)
	imputeCategorical(rows)

	path := filepath.Join(e.cfg.Paths.ExportDir, fmt.Sprintf("model_table_%s.csv", e.now().Format("2006_01_02")))
	if err := writeTable(path, rows); err != nil {
		return result, err
	}

	result.Path = path
	result.Rows = len(rows)
	e.logger.Info("export complete", logging.Int("rows", result.Rows), logging.String("path", path))
	return result, nil
}

func daysListed(listing *store.Listing) int {
	if listing.ExpiredAt.IsZero() || listing.AddedAt.IsZero() {
		return 0
	}
	return int(listing.ExpiredAt.Sub(listing.AddedAt).Hours() / 24)
}

// numericColumns maps imputable numeric fields to their accessors.
func numericAccessors() map[string]func(*store.Features) **float64 {
	return map[string]func(*store.Features) **float64{
		"area":             func(f *store.Features) **float64 { return &f.Area },
		"stop_distance":    func(f *store.Features) **float64 { return &f.StopDistance },
		"avg_area_price":   func(f *store.Features) **float64 { return &f.AvgAreaPrice },
		"price_per_square": func(f *store.Features) **float64 { return &f.PricePerSquare },
	}
}

func numericIntAccessors() map[string]func(*store.Features) **int {
	return map[string]func(*store.Features) **int{
		"room_number":     func(f *store.Features) **int { return &f.Rooms },
		"floor":           func(f *store.Features) **int { return &f.Floor },
		"building_height": func(f *store.Features) **int { return &f.BuildingHeight },
		"building_age":    func(f *store.Features) **int { return &f.BuildingAge },
		"days_listed":     func(f *store.Features) **int { return &f.DaysListed },
	}
}

// imputeNumeric fills missing numeric values with the column median.
func imputeNumeric(rows []row) {
	for _, access := range numericAccessors() {
		var present []float64
		for i := range rows {
			if v := *access(&rows[i].features); v != nil {
				present = append(present, *v)
			}
		}
		if len(present) == 0 {
			continue
		}
		median := medianOf(present)
		for i := range rows {
			slot := access(&rows[i].features)
			if *slot == nil {
				value := median
				*slot = &value
			}
		}
	}

	for _, access := range numericIntAccessors() {
		var present []float64
		for i := range rows {
			if v := *access(&rows[i].features); v != nil {
				present = append(present, float64(*v))
			}
		}
		if len(present) == 0 {
			continue
		}
		median := int(medianOf(present))
		for i := range rows {
			slot := access(&rows[i].features)
			if *slot == nil {
				value := median
				*slot = &value
			}
		}
	}
}

// medianOf averages the two middle elements for even counts, matching how
// the reference datasets were imputed.
func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// imputeCategorical fills missing categorical values with the column mode.
func imputeCategorical(rows []row) {
	categorical := map[string]func(*store.Features) *string{
		"heating":       func(f *store.Features) *string { return &f.Heating },
		"building_type": func(f *store.Features) *string { return &f.BuildingType },
	}
	for _, access := range categorical {
		counts := make(map[string]int)
		for i := range rows {
			if v := *access(&rows[i].features); v != "" {
				counts[v]++
			}
		}
		mode := modeOf(counts)
		if mode == "" {
			continue
		}
		for i := range rows {
			slot := access(&rows[i].features)
			if *slot == "" {
				*slot = mode
			}
		}
	}
}

func modeOf(counts map[string]int) string {
	var mode string
	best := 0
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	// deterministic tie-break
	sort.Strings(keys)
	for _, key := range keys {
		if counts[key] > best {
			best = counts[key]
			mode = key
		}
	}
	return mode
}

func writeTable(path string, rows []row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(columnOrder); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range rows {
		if err := writer.Write(formatRow(&rows[i])); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatRow(r *row) []string {
	l := r.listing
	f := &r.features
	values := map[string]string{
		"added_dt":            formatDate(l.AddedAt),
		"link":                l.Link,
		"district":            textutil.FoldColumnName(l.District),
		"latitude":            formatFloatPtr(l.Latitude),
		"longitude":           formatFloatPtr(l.Longitude),
		"rent":                formatFloat(f.Rent),
		"additional_fees":     formatFloat(f.AdditionalFees),
		"area":                formatFloatPtr(f.Area),
		"room_number":         formatIntPtr(f.Rooms),
		"floor":               formatIntPtr(f.Floor),
		"building_height":     formatIntPtr(f.BuildingHeight),
		"for_renovation":      formatBool(f.ForRenovation),
		"heating":             f.Heating,
		"building_type":       f.BuildingType,
		"building_age":        formatIntPtr(f.BuildingAge),
		"elevator":            formatBool(f.Elevator),
		"balcony":             formatBool(f.Balcony),
		"terrace":             formatBool(f.Terrace),
		"garden":              formatBool(f.Garden),
		"parking_space":       formatBool(f.ParkingSpace),
		"separate_kitchen":    formatBool(f.SeparateKitchen),
		"utility_room":        formatBool(f.UtilityRoom),
		"basement":            formatBool(f.Basement),
		"gated_community":     formatBool(f.GatedCommunity),
		"security_monitoring": formatBool(f.Monitoring),
		"safeguards":          formatBool(f.Safeguards),
		"cable_tv":            formatBool(f.CableTV),
		"internet":            formatBool(f.Internet),
		"dishwasher":          formatBool(f.Dishwasher),
		"air_conditioning":    formatBool(f.AirConditioning),
		"center_distance":     formatFloatPtr(f.CenterDistance),
		"stop_distance":       formatFloatPtr(f.StopDistance),
		"avg_area_price":      formatFloatPtr(f.AvgAreaPrice),
		"price_per_square":    formatFloatPtr(f.PricePerSquare),
		"days_listed":         formatIntPtr(f.DaysListed),
	}

	record := make([]string, len(columnOrder))
	for i, column := range columnOrder {
		record[i] = values[column]
	}
	return record
}

func formatDate(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format("2006-01-02")
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func formatFloatPtr(value *float64) string {
	if value == nil {
		return ""
	}
	return formatFloat(*value)
}

func formatIntPtr(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

func formatBool(value bool) string {
	if value {
		return "1"
	}
	return "0"
}
