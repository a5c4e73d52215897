package review

import (
	"context"
	"encoding/csv"
	"os"
	"reflect"
	"testing"
	"time"

	"rentprep/internal/logging"
	"rentprep/internal/store"
	"rentprep/internal/testsupport"
)

func newTestChecker(t *testing.T) (*Checker, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	checker := NewChecker(cfg, st, logging.NewNop())
	checker.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return checker, st
}

func seedCompleted(t *testing.T, st *store.Store, link, district, title, description string) {
	t.Helper()
	listing := &store.Listing{
		Link:     link,
		Title:    title,
		District: district,
		AddedAt:  time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	if err := listing.SetRaw(store.RawListing{Description: description}); err != nil {
		t.Fatalf("SetRaw() error = %v", err)
	}
	created, err := st.NewListing(context.Background(), listing)
	if err != nil {
		t.Fatalf("NewListing(%s) error = %v", link, err)
	}
	created.Status = store.StatusCompleted
	if err := st.Update(context.Background(), created); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
}

func readReview(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open review file: %v", err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read review file: %v", err)
	}
	return rows
}

func TestForeignDistrictMentions(t *testing.T) {
	tests := []struct {
		name        string
		declared    string
		title       string
		description string
		want        []string
	}{
		{
			name:        "mentions another district",
			declared:    "Mokotów",
			title:       "Kawalerka blisko metra",
			description: "Mieszkanie na Ursynowie, świetna komunikacja.",
			want:        []string{"ursynowie"},
		},
		{
			name:        "own district clears the listing",
			declared:    "Mokotów",
			title:       "Mieszkanie na Mokotowie",
			description: "Blisko Ursynowa, ale to Mokotów.",
			want:        nil,
		},
		{
			name:        "praga forms cover both praga districts",
			declared:    "Praga-Południe",
			title:       "Dwa pokoje na Pradze",
			description: "",
			want:        nil,
		},
		{
			name:        "no mentions at all",
			declared:    "Wola",
			title:       "Przytulne mieszkanie",
			description: "Blisko parku i szkoły.",
			want:        nil,
		},
		{
			name:        "case insensitive match",
			declared:    "Wola",
			title:       "OKAZJA NA BEMOWIE",
			description: "",
			want:        []string{"bemowie"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := foreignDistrictMentions(tt.declared, tt.title, tt.description)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("foreignDistrictMentions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunWritesFlaggedListings(t *testing.T) {
	checker, st := newTestChecker(t)

	seedCompleted(t, st, "https://example.com/a", "Mokotów",
		"Mieszkanie przy metrze", "Lokal położony na Bemowie.")
	seedCompleted(t, st, "https://example.com/b", "Mokotów",
		"Mieszkanie na Mokotowie", "Cichy Mokotów, blisko parku.")

	result, err := checker.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Scanned != 2 {
		t.Errorf("Scanned = %d, want 2", result.Scanned)
	}
	if result.Flagged != 1 {
		t.Errorf("Flagged = %d, want 1", result.Flagged)
	}

	rows := readReview(t, result.Path)
	if len(rows) != 2 {
		t.Fatalf("review file has %d rows, want header + 1", len(rows))
	}
	if !reflect.DeepEqual(rows[0], reviewColumns) {
		t.Errorf("header = %v, want %v", rows[0], reviewColumns)
	}
	record := rows[1]
	if record[1] != "https://example.com/a" {
		t.Errorf("link = %q, want the flagged listing", record[1])
	}
	if record[2] != "Mokotow" {
		t.Errorf("district = %q, want folded Mokotow", record[2])
	}
	if record[3] != "bemowie" {
		t.Errorf("found_district = %q, want bemowie", record[3])
	}
	for i := 6; i < 10; i++ {
		if record[i] != "" {
			t.Errorf("manual column %s = %q, want empty", reviewColumns[i], record[i])
		}
	}
}

func TestRunEmptyStoreWritesHeaderOnly(t *testing.T) {
	checker, _ := newTestChecker(t)

	result, err := checker.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Flagged != 0 || result.Scanned != 0 {
		t.Errorf("Result = %+v, want zero counts", result)
	}
	rows := readReview(t, result.Path)
	if len(rows) != 1 {
		t.Errorf("review file has %d rows, want header only", len(rows))
	}
}
