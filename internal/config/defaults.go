package config

const (
	defaultLogDir                    = "~/.local/share/reelmatch/logs"
	defaultStateDir                  = "~/.local/share/reelmatch"
	defaultAPIBind                   = "127.0.0.1:7787"
	defaultTMDBBaseURL               = "https://api.themoviedb.org/3"
	defaultTMDBLanguage              = "en-US"
	defaultLLMBaseURL                = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel                  = "google/gemini-3-flash-preview"
	defaultLLMReferer                = "https://github.com/reelmatch/reelmatch"
	defaultLLMTitle                  = "Reelmatch Recommender"
	defaultLLMTimeoutSeconds         = 60
	defaultIngestBatchSize           = 10
	defaultIngestMaxErrorFraction    = 0.3
	defaultIngestMaxRetriesPerItem   = 3
	defaultIngestRetryDelaySeconds   = 1
	defaultIngestBatchDelaySeconds   = 1
	defaultIngestSearchResultLimit   = 5
	defaultIngestAutoAcceptThreshold = 0.95
	defaultIngestStrongThreshold     = 0.8
	defaultIngestSmallRunThreshold   = 20
	defaultIngestSmallRunBatchSize   = 5
	defaultMaxRating                 = "PG-13"
	defaultNotifyRequestTimeout      = 10
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
	defaultLogRetentionDays          = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
			APIBind:  defaultAPIBind,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Ingest: Ingest{
			BatchSize:            defaultIngestBatchSize,
			MaxErrorFraction:     defaultIngestMaxErrorFraction,
			MaxRetriesPerItem:    defaultIngestMaxRetriesPerItem,
			RetryDelaySeconds:    defaultIngestRetryDelaySeconds,
			BatchDelaySeconds:    defaultIngestBatchDelaySeconds,
			SearchResultLimit:    defaultIngestSearchResultLimit,
			AutoAcceptThreshold:  defaultIngestAutoAcceptThreshold,
			StrongMatchThreshold: defaultIngestStrongThreshold,
			SmallRunThreshold:    defaultIngestSmallRunThreshold,
			SmallRunBatchSize:    defaultIngestSmallRunBatchSize,
		},
		Filter: Filter{
			DefaultMaxRating: defaultMaxRating,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Ingest:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
