package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeGeocoding()
	c.normalizeLLM()
	c.normalizeLogging()
	return c.normalizeDataFiles()
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("data_dir: %w", err)
	}
	if c.Paths.RawDir, err = expandPath(c.Paths.RawDir); err != nil {
		return fmt.Errorf("raw_dir: %w", err)
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("export_dir: %w", err)
	}
	if c.Paths.ReviewDir, err = expandPath(c.Paths.ReviewDir); err != nil {
		return fmt.Errorf("review_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePipeline() {
	c.Pipeline.DedupCutoff = strings.TrimSpace(c.Pipeline.DedupCutoff)
	if c.Pipeline.DedupCutoff == "" {
		c.Pipeline.DedupCutoff = defaultDedupCutoff
	}
	if c.Pipeline.RadiusKm <= 0 {
		c.Pipeline.RadiusKm = defaultRadiusKm
	}
	if c.Pipeline.CenterLat == 0 && c.Pipeline.CenterLon == 0 {
		c.Pipeline.CenterLat = defaultCenterLat
		c.Pipeline.CenterLon = defaultCenterLon
	}
	if c.Pipeline.ReferenceYear <= 0 {
		c.Pipeline.ReferenceYear = defaultReferenceYear
	}
}

func (c *Config) normalizeGeocoding() {
	c.Geocoding.BaseURL = strings.TrimSpace(c.Geocoding.BaseURL)
	if c.Geocoding.BaseURL == "" {
		c.Geocoding.BaseURL = defaultGeocodingBaseURL
	}
	c.Geocoding.Email = strings.TrimSpace(c.Geocoding.Email)
	if c.Geocoding.TimeoutSeconds <= 0 {
		c.Geocoding.TimeoutSeconds = defaultGeocodingTimeoutSeconds
	}
	if c.Geocoding.MinIntervalMS <= 0 {
		c.Geocoding.MinIntervalMS = defaultGeocodingMinIntervalMS
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.ConfidenceThreshold <= 0 || c.LLM.ConfidenceThreshold > 1 {
		c.LLM.ConfidenceThreshold = defaultLLMConfidenceThreshold
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeDataFiles() error {
	var err error
	if c.Stops.StopsFile = strings.TrimSpace(c.Stops.StopsFile); c.Stops.StopsFile != "" {
		if c.Stops.StopsFile, err = expandPath(c.Stops.StopsFile); err != nil {
			return fmt.Errorf("stops_file: %w", err)
		}
	}
	if c.History.HistoryFile = strings.TrimSpace(c.History.HistoryFile); c.History.HistoryFile != "" {
		if c.History.HistoryFile, err = expandPath(c.History.HistoryFile); err != nil {
			return fmt.Errorf("history_file: %w", err)
		}
	}
	return nil
}
