package testsupport

import (
	"path/filepath"
	"testing"

	"rentprep/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.RawDir = filepath.Join(base, "raw")
	cfgVal.Paths.ExportDir = filepath.Join(base, "export")
	cfgVal.Paths.ReviewDir = filepath.Join(base, "review")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	return builder.cfg
}

// WithDedupCutoff sets the earliest acceptable added date on the test config.
func WithDedupCutoff(cutoff string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.DedupCutoff = cutoff
	}
}

// WithStopsFile points the test config at a transit stops dataset.
func WithStopsFile(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Stops.StopsFile = path
	}
}

// WithHistoryFile points the test config at a priced history dataset.
func WithHistoryFile(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.HistoryFile = path
	}
}

// WithLLMKey enables the hidden-fee extraction stage on the test config.
func WithLLMKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = key
	}
}

// WithGeocoding enables the geocoding stage against the given base URL.
func WithGeocoding(baseURL, email string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Geocoding.Enabled = true
		b.cfg.Geocoding.BaseURL = baseURL
		b.cfg.Geocoding.Email = email
	}
}
