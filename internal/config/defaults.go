package config

const (
	defaultDataDir   = "~/.local/share/rentprep/data"
	defaultRawDir    = "~/.local/share/rentprep/raw"
	defaultExportDir = "~/.local/share/rentprep/export"
	defaultReviewDir = "~/.local/share/rentprep/review"
	defaultLogDir    = "~/.local/share/rentprep/logs"

	defaultDedupCutoff   = "2024-12-01"
	defaultMinDaysListed = 1
	defaultMaxDaysListed = 28
	defaultRadiusKm      = 0.5
	defaultReferenceYear = 2025

	// Warsaw city centre.
	defaultCenterLat = 52.2297
	defaultCenterLon = 21.0122

	defaultGeocodingBaseURL        = "https://nominatim.openstreetmap.org/search"
	defaultGeocodingTimeoutSeconds = 15
	defaultGeocodingMinIntervalMS  = 1100

	defaultLLMBaseURL             = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel               = "google/gemini-3-flash-preview"
	defaultLLMReferer             = "https://github.com/rentprep/rentprep"
	defaultLLMTitle               = "Rentprep Fee Extractor"
	defaultLLMTimeoutSeconds      = 60
	defaultLLMConfidenceThreshold = 0.7

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			RawDir:    defaultRawDir,
			ExportDir: defaultExportDir,
			ReviewDir: defaultReviewDir,
			LogDir:    defaultLogDir,
		},
		Pipeline: Pipeline{
			DedupCutoff:   defaultDedupCutoff,
			OnlyExpired:   false,
			MinDaysListed: defaultMinDaysListed,
			MaxDaysListed: defaultMaxDaysListed,
			RadiusKm:      defaultRadiusKm,
			CenterLat:     defaultCenterLat,
			CenterLon:     defaultCenterLon,
			ReferenceYear: defaultReferenceYear,
		},
		Geocoding: Geocoding{
			Enabled:        false,
			BaseURL:        defaultGeocodingBaseURL,
			TimeoutSeconds: defaultGeocodingTimeoutSeconds,
			MinIntervalMS:  defaultGeocodingMinIntervalMS,
		},
		LLM: LLM{
			BaseURL:             defaultLLMBaseURL,
			Model:               defaultLLMModel,
			Referer:             defaultLLMReferer,
			Title:               defaultLLMTitle,
			TimeoutSeconds:      defaultLLMTimeoutSeconds,
			ConfidenceThreshold: defaultLLMConfidenceThreshold,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
