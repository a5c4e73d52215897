package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Pipeline.RadiusKm != 0.5 {
		t.Errorf("RadiusKm = %v, want 0.5", cfg.Pipeline.RadiusKm)
	}
	if cfg.Pipeline.CenterLat != 52.2297 || cfg.Pipeline.CenterLon != 21.0122 {
		t.Errorf("unexpected centre: %v, %v", cfg.Pipeline.CenterLat, cfg.Pipeline.CenterLon)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Error("exists = true for missing file")
	}
	if resolved == "" {
		t.Error("resolved path is empty")
	}
	if cfg.Pipeline.DedupCutoff != defaultDedupCutoff {
		t.Errorf("DedupCutoff = %q", cfg.Pipeline.DedupCutoff)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		"[pipeline]",
		`dedup_cutoff = "2025-01-15"`,
		"radius_km = 1.25",
		"[logging]",
		`level = "debug"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("exists = false")
	}
	if cfg.Pipeline.DedupCutoff != "2025-01-15" {
		t.Errorf("DedupCutoff = %q", cfg.Pipeline.DedupCutoff)
	}
	if cfg.Pipeline.RadiusKm != 1.25 {
		t.Errorf("RadiusKm = %v", cfg.Pipeline.RadiusKm)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
	if cfg.Paths.DataDir != filepath.Join(dir, "data") {
		t.Errorf("DataDir = %q", cfg.Paths.DataDir)
	}
	// Untouched sections keep defaults.
	if cfg.LLM.BaseURL != defaultLLMBaseURL {
		t.Errorf("LLM.BaseURL = %q", cfg.LLM.BaseURL)
	}
}

func TestLoadRejectsBadCutoff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[pipeline]\ndedup_cutoff = \"12.01.2024\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed cutoff date")
	}
}

func TestValidateGeocodingRequiresEmail(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg.Geocoding.Enabled = true
	cfg.Geocoding.Email = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when geocoding enabled without email")
	}
	cfg.Geocoding.Email = "ops@example.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[pipeline]") {
		t.Error("sample config missing [pipeline] section")
	}
}
