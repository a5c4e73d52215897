// Package review flags listings whose text mentions a district other than
// the declared one. The output CSV carries empty manual-correction columns
// so a human can fill in the verified address.
package review

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"rentprep/internal/config"
	"rentprep/internal/logging"
	"rentprep/internal/store"
	"rentprep/internal/textutil"
)

// districtInflections maps the column-safe district name to the Polish case
// forms under which the district shows up in free text. Both Praga districts
// share the bare "Praga" forms, so a Praga mention never flags the other one.
var districtInflections = map[string][]string{
	"Srodmiescie":    {"śródmieście", "śródmieściu", "śródmieścia", "śródmieściem"},
	"Wola":           {"wola", "woli"},
	"Mokotow":        {"mokotów", "mokotowa", "mokotowem", "mokotowie"},
	"Praga_Poludnie": {"praga", "pragi", "pradze", "pragę", "pragą"},
	"Praga_Polnoc":   {"praga", "pragi", "pradze", "pragę", "pragą"},
	"Ochota":         {"ochota", "ochocie", "ochoty"},
	"Ursynow":        {"ursynów", "ursynowie", "ursynowa"},
	"Wawer":          {"wawer", "wawrze"},
	"Bielany":        {"bielany", "bielan", "bielanami", "bielanach"},
	"Wlochy":         {"włochy", "włoszech", "włochach"},
	"Bemowo":         {"bemowo", "bemowa", "bemowem", "bemowie"},
	"Rembertow":      {"rembertów", "rembertowa", "rembertowem", "rembertowie"},
	"Targowek":       {"targówek", "targówka", "targówkiem", "targówku"},
	"Wesola":         {"wesoła", "wesołej"},
	"Zoliborz":       {"żoliborz", "żoliborza", "żoliborzem", "żoliborzu"},
	"Bialoleka":      {"białołęka", "białołęce", "białołęki", "białołęką"},
	"Ursus":          {"ursus", "ursusa", "ursusie"},
	"Wilanow":        {"wilanów", "wilanowa", "wilanowem", "wilanowie"},
}

var reviewColumns = []string{
	"added_dt", "link", "district", "found_district", "title",
	"adv_description", "misleading_location", "real_address",
	"real_district", "maps_href",
}

// Result reports what the detector found and where the flagged rows landed.
type Result struct {
	Path    string
	Scanned int
	Flagged int
}

// Checker scans completed listings for misleading locations.
type Checker struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewChecker constructs the review operation.
func NewChecker(cfg *config.Config, st *store.Store, logger *slog.Logger) *Checker {
	checkLogger := logger
	if checkLogger != nil {
		checkLogger = checkLogger.With(logging.String(logging.FieldComponent, "review"))
	} else {
		checkLogger = logging.NewNop()
	}
	return &Checker{cfg: cfg, store: st, logger: checkLogger, now: time.Now}
}

type flaggedRow struct {
	listing     *store.Listing
	description string
	found       string
}

// Run scans completed listings and writes the flagged ones to review_dir.
func (c *Checker) Run(ctx context.Context) (Result, error) {
	var result Result

	listings, err := c.store.CompletedListings(ctx)
	if err != nil {
		return result, err
	}

	var flagged []flaggedRow
	for _, listing := range listings {
		raw, err := listing.DecodeRaw()
		if err != nil {
			return result, fmt.Errorf("decode raw for %s: %w", listing.Link, err)
		}
		result.Scanned++
		found := foreignDistrictMentions(listing.District, listing.Title, raw.Description)
		if len(found) == 0 {
			continue
		}
		flagged = append(flagged, flaggedRow{
			listing:     listing,
			description: raw.Description,
			found:       strings.Join(found, ", "),
		})
	}

	path := filepath.Join(c.cfg.Paths.ReviewDir, fmt.Sprintf("location_to_be_checked_%s.csv", c.now().Format("2006_01_02")))
	if err := writeReview(path, flagged); err != nil {
		return result, err
	}

	result.Path = path
	result.Flagged = len(flagged)
	c.logger.Info("location review complete",
		logging.Int("scanned", result.Scanned),
		logging.Int("flagged", result.Flagged),
		logging.String("path", path))
	return result, nil
}

// foreignDistrictMentions returns the district inflections mentioned in the
// listing text when none of them belongs to the declared district. Mentions
// of the declared district's own forms clear the listing entirely.
func foreignDistrictMentions(declared, title, description string) []string {
	text := strings.ToLower(description + " " + title)

	var found []string
	seen := make(map[string]struct{})
	for _, forms := range districtInflections {
		for _, form := range forms {
			if _, dup := seen[form]; dup {
				continue
			}
			if strings.Contains(text, form) {
				seen[form] = struct{}{}
				found = append(found, form)
			}
		}
	}
	if len(found) == 0 {
		return nil
	}
	sort.Strings(found)

	own := make(map[string]struct{})
	for _, form := range districtInflections[textutil.FoldColumnName(declared)] {
		own[form] = struct{}{}
	}
	for _, form := range found {
		if _, ok := own[form]; ok {
			return nil
		}
	}
	return found
}

func writeReview(path string, flagged []flaggedRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create review file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(reviewColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range flagged {
		added := ""
		if !row.listing.AddedAt.IsZero() {
			added = row.listing.AddedAt.Format("2006-01-02")
		}
		record := []string{
			added,
			row.listing.Link,
			textutil.FoldColumnName(row.listing.District),
			row.found,
			row.listing.Title,
			row.description,
			"", "", "", "",
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
