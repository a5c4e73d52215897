// Package config loads, normalizes, and validates the TOML configuration
// for the preparation pipeline. Load applies defaults first, overlays the
// config file when one exists, expands ~ in every path, and rejects values
// the pipeline cannot work with.
package config
