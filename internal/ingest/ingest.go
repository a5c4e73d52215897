// Package ingest reads scraped advertisement CSV exports into the listing
// store. Headers are folded to ASCII snake_case before matching, rows
// without a recognizable Warsaw district are skipped, and links already in
// the store count as duplicates rather than errors.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"log/slog"

	"rentprep/internal/config"
	"rentprep/internal/logging"
	"rentprep/internal/scrub"
	"rentprep/internal/store"
	"rentprep/internal/textutil"
)

// Result counts what an ingest run did.
type Result struct {
	Files      int
	Rows       int
	Inserted   int
	Skipped    int
	Duplicates int
}

// Importer loads raw CSV exports into the store.
type Importer struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
}

// NewImporter constructs the CSV importer.
func NewImporter(cfg *config.Config, st *store.Store, logger *slog.Logger) *Importer {
	importLogger := logger
	if importLogger != nil {
		importLogger = importLogger.With(logging.String(logging.FieldComponent, "ingest"))
	} else {
		importLogger = logging.NewNop()
	}
	return &Importer{cfg: cfg, store: st, logger: importLogger}
}

// Run ingests every CSV in raw_dir whose filename matches pattern. An empty
// pattern matches every .csv file.
func (i *Importer) Run(ctx context.Context, pattern string) (Result, error) {
	var result Result

	filter, err := compileFilter(pattern)
	if err != nil {
		return result, err
	}

	entries, err := os.ReadDir(i.cfg.Paths.RawDir)
	if err != nil {
		return result, fmt.Errorf("read raw directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		if filter != nil && !filter.MatchString(name) {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		path := filepath.Join(i.cfg.Paths.RawDir, name)
		if err := i.ingestFile(ctx, path, &result); err != nil {
			return result, fmt.Errorf("ingest %s: %w", name, err)
		}
		result.Files++
	}

	i.logger.Info(
		"ingest complete",
		logging.Int("files", result.Files),
		logging.Int("rows", result.Rows),
		logging.Int("inserted", result.Inserted),
		logging.Int("skipped", result.Skipped),
		logging.Int("duplicates", result.Duplicates),
	)
	return result, nil
}

func compileFilter(pattern string) (*regexp.Regexp, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, nil
	}
	filter, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile filename filter: %w", err)
	}
	return filter, nil
}

func (i *Importer) ingestFile(ctx context.Context, path string, result *Result) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		normalized := normalizeHeader(name)
		if canonical, ok := headerAliases[normalized]; ok {
			normalized = canonical
		}
		if _, taken := columns[normalized]; !taken {
			columns[normalized] = idx
		}
	}
	if _, ok := columns["link"]; !ok {
		return errors.New("no link column")
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		result.Rows++

		listing, ok := buildListing(columns, record)
		if !ok {
			result.Skipped++
			continue
		}

		if _, err := i.store.NewListing(ctx, listing); err != nil {
			if errors.Is(err, store.ErrDuplicateLink) {
				result.Duplicates++
				continue
			}
			return err
		}
		result.Inserted++
	}
	return nil
}

// headerAliases maps Polish column names still present in older exports to
// the English names the importer matches against.
var headerAliases = map[string]string{
	"ogrzewanie": "heating",
}

// normalizeHeader folds a scraped column name to the ASCII snake_case form
// the importer matches against.
func normalizeHeader(name string) string {
	folded := textutil.FoldColumnName(strings.TrimSpace(name))
	folded = strings.ToLower(folded)
	return strings.ReplaceAll(folded, " ", "_")
}

// isTruthy reads the expired flag column, which appears as True/False in
// the scraped exports.
func isTruthy(value string) bool {
	switch strings.ToLower(value) {
	case "true", "1", "tak", "yes":
		return true
	}
	return false
}

func buildListing(columns map[string]int, record []string) (*store.Listing, bool) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	link := field("link")
	if link == "" {
		return nil, false
	}

	location := field("location")
	district := scrub.FindDistrict(location)
	if district == "" {
		return nil, false
	}

	announcement := field("announcement_date")
	listing := &store.Listing{
		Link:       link,
		Title:      field("title"),
		Location:   location,
		District:   district,
		AddedAt:    scrub.ParseAdDate(scrub.ExtractAddedDate(announcement)),
		LastUpdate: scrub.ParseAdDate(scrub.ExtractUpdateDate(announcement)),
	}
	if lat, err := strconv.ParseFloat(field("latitude"), 64); err == nil {
		listing.Latitude = &lat
	}
	if lon, err := strconv.ParseFloat(field("longitude"), 64); err == nil {
		listing.Longitude = &lon
	}

	if when := scrub.ParseAdDate(field("expired_date")); !when.IsZero() {
		listing.Expired = true
		listing.ExpiredAt = when
	} else if isTruthy(field("expired")) {
		listing.Expired = true
	}

	raw := store.RawListing{
		RentPrice:             field("rent_price"),
		AreaRooms:             field("area_room_num"),
		Floor:                 field("floor"),
		FlatCondition:         field("flat_condition"),
		Heating:               field("heating"),
		AdditionalInformation: field("additional_information"),
		Elevator:              field("elevator"),
		BuildingType:          field("building_type"),
		Security:              field("security"),
		Safeguards:            field("safeguards"),
		YearOfConstruction:    field("year_of_construction"),
		Utilities:             field("utilities"),
		Equipment:             field("equipment"),
		Description:           field("adv_description"),
		AdvertiserType:        field("advertiser_type"),
	}
	if err := listing.SetRaw(raw); err != nil {
		return nil, false
	}
	return listing, true
}
