package geo

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadStops(t *testing.T) {
	path := writeFile(t, "stops.csv", `stop_id,stop_name,stop_lat,stop_lon
1001,Centrum,52.2298,21.0118
1002,Politechnika,52.2191,21.0189
1003,bad row,not-a-number,21.0
`)

	stops, err := LoadStops(path)
	if err != nil {
		t.Fatalf("LoadStops() error = %v", err)
	}
	if len(stops) != 2 {
		t.Fatalf("len(stops) = %d, want 2", len(stops))
	}
	if stops[0].Lat != 52.2298 || stops[0].Lon != 21.0118 {
		t.Errorf("stops[0] = %+v", stops[0])
	}
}

func TestLoadStopsMissingColumns(t *testing.T) {
	path := writeFile(t, "stops.csv", "stop_id,stop_name\n1,Centrum\n")
	if _, err := LoadStops(path); err == nil {
		t.Error("expected error for missing coordinate columns")
	}
}

func TestLoadHistory(t *testing.T) {
	path := writeFile(t, "history.csv", `link,latitude,longitude,price_per_square
a,52.2298,21.0118,92.5
b,52.2191,21.0189,101.0
c,,21.0,50.0
`)

	samples, err := LoadHistory(path)
	if err != nil {
		t.Fatalf("LoadHistory() error = %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("len(samples) = %d, want 2", len(samples))
	}
	if samples[1].PricePerSquare != 101.0 {
		t.Errorf("samples[1].PricePerSquare = %v", samples[1].PricePerSquare)
	}
}

func TestLoadHistoryMissingFile(t *testing.T) {
	if _, err := LoadHistory(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
