package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeLLM()
	c.normalizeIngest()
	c.normalizeFilter()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeIngest() {
	if c.Ingest.BatchSize <= 0 {
		c.Ingest.BatchSize = defaultIngestBatchSize
	}
	if c.Ingest.MaxErrorFraction <= 0 || c.Ingest.MaxErrorFraction > 1 {
		c.Ingest.MaxErrorFraction = defaultIngestMaxErrorFraction
	}
	if c.Ingest.MaxRetriesPerItem <= 0 {
		c.Ingest.MaxRetriesPerItem = defaultIngestMaxRetriesPerItem
	}
	if c.Ingest.RetryDelaySeconds < 0 {
		c.Ingest.RetryDelaySeconds = defaultIngestRetryDelaySeconds
	}
	if c.Ingest.BatchDelaySeconds < 0 {
		c.Ingest.BatchDelaySeconds = defaultIngestBatchDelaySeconds
	}
	if c.Ingest.SearchResultLimit <= 0 {
		c.Ingest.SearchResultLimit = defaultIngestSearchResultLimit
	}
	if c.Ingest.AutoAcceptThreshold <= 0 || c.Ingest.AutoAcceptThreshold > 1 {
		c.Ingest.AutoAcceptThreshold = defaultIngestAutoAcceptThreshold
	}
	if c.Ingest.StrongMatchThreshold <= 0 || c.Ingest.StrongMatchThreshold > 1 {
		c.Ingest.StrongMatchThreshold = defaultIngestStrongThreshold
	}
	if c.Ingest.SmallRunThreshold <= 0 {
		c.Ingest.SmallRunThreshold = defaultIngestSmallRunThreshold
	}
	if c.Ingest.SmallRunBatchSize <= 0 {
		c.Ingest.SmallRunBatchSize = defaultIngestSmallRunBatchSize
	}
}

func (c *Config) normalizeFilter() {
	c.Filter.DefaultMaxRating = strings.ToUpper(strings.TrimSpace(c.Filter.DefaultMaxRating))
	if c.Filter.DefaultMaxRating == "" {
		c.Filter.DefaultMaxRating = defaultMaxRating
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
