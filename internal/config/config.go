package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	RawDir    string `toml:"raw_dir"`
	ExportDir string `toml:"export_dir"`
	ReviewDir string `toml:"review_dir"`
	LogDir    string `toml:"log_dir"`
}

// Pipeline contains the tunables of the preparation pipeline.
type Pipeline struct {
	// DedupCutoff is the earliest acceptable added date (YYYY-MM-DD). Rows
	// added before it inherit their last-update date; anything still older
	// is removed during deduplication.
	DedupCutoff string `toml:"dedup_cutoff"`
	// OnlyExpired limits the export to listings that have left the market.
	OnlyExpired bool `toml:"only_expired"`
	// MinDaysListed / MaxDaysListed bound the market duration window applied
	// when OnlyExpired is set.
	MinDaysListed int `toml:"min_days_listed"`
	MaxDaysListed int `toml:"max_days_listed"`
	// RadiusKm is the neighborhood radius for historical price averaging.
	RadiusKm float64 `toml:"radius_km"`
	// CenterLat / CenterLon locate the city centre used for distance features.
	CenterLat float64 `toml:"center_lat"`
	CenterLon float64 `toml:"center_lon"`
	// ReferenceYear anchors building age computation.
	ReferenceYear int `toml:"reference_year"`
}

// Geocoding contains configuration for the coordinate lookup service.
type Geocoding struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	Email          string `toml:"email"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MinIntervalMS  int    `toml:"min_interval_ms"`
}

// Stops points at the transit stops dataset.
type Stops struct {
	StopsFile string `toml:"stops_file"`
}

// History points at the priced historical listings dataset.
type History struct {
	HistoryFile string `toml:"history_file"`
}

// LLM contains connection settings for the hidden-fee extraction model.
type LLM struct {
	APIKey              string  `toml:"api_key"`
	BaseURL             string  `toml:"base_url"`
	Model               string  `toml:"model"`
	Referer             string  `toml:"referer"`
	Title               string  `toml:"title"`
	TimeoutSeconds      int     `toml:"timeout_seconds"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for rentprep.
//
// Configuration sections by subsystem:
//   - Paths: working directories for data, raw CSV drops, exports, review
//     files, and logs
//   - Pipeline: dedup cutoff, duration window, enrichment radius, city centre
//   - Geocoding: Nominatim-style lookup for missing coordinates
//   - Stops: transit stops dataset for the nearest-stop feature
//   - History: priced historical listings for the radius average feature
//   - LLM: hidden-fee extraction model connection
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Pipeline  Pipeline  `toml:"pipeline"`
	Geocoding Geocoding `toml:"geocoding"`
	Stops     Stops     `toml:"stops"`
	History   History   `toml:"history"`
	LLM       LLM       `toml:"llm"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/rentprep/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second and third
// return values report the resolved path and whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("rentprep.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the working directories the pipeline needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.RawDir, c.Paths.ExportDir, c.Paths.ReviewDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// GeocodingEnabled reports whether the geocoding stage should issue lookups.
func (c *Config) GeocodingEnabled() bool {
	return c.Geocoding.Enabled && strings.TrimSpace(c.Geocoding.BaseURL) != ""
}

// FeesEnabled reports whether the hidden-fee extraction stage should run.
func (c *Config) FeesEnabled() bool {
	return strings.TrimSpace(c.LLM.APIKey) != ""
}
