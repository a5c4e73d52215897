package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

// Validate checks the configuration for values the pipeline cannot work with.
func (c *Config) Validate() error {
	var problems []string

	if err := c.validatePipeline(); err != nil {
		problems = append(problems, err.Error())
	}
	if err := c.validateGeocoding(); err != nil {
		problems = append(problems, err.Error())
	}
	if err := c.validateLogging(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if _, err := time.Parse("2006-01-02", c.Pipeline.DedupCutoff); err != nil {
		return fmt.Errorf("pipeline.dedup_cutoff %q is not a YYYY-MM-DD date", c.Pipeline.DedupCutoff)
	}
	if c.Pipeline.MinDaysListed < 0 {
		return errors.New("pipeline.min_days_listed must not be negative")
	}
	if c.Pipeline.MaxDaysListed > 0 && c.Pipeline.MaxDaysListed < c.Pipeline.MinDaysListed {
		return errors.New("pipeline.max_days_listed must not be below min_days_listed")
	}
	if math.Abs(c.Pipeline.CenterLat) > 90 || math.Abs(c.Pipeline.CenterLon) > 180 {
		return errors.New("pipeline.center_lat/center_lon are out of range")
	}
	return nil
}

func (c *Config) validateGeocoding() error {
	if !c.Geocoding.Enabled {
		return nil
	}
	parsed, err := url.Parse(c.Geocoding.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("geocoding.base_url %q is not an absolute URL", c.Geocoding.BaseURL)
	}
	if c.Geocoding.Email == "" {
		return errors.New("geocoding.email is required when geocoding is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}
