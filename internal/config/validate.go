package config

import (
	"errors"
	"fmt"
	"strings"

	"reelmatch/internal/ratings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateFilter(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelmatch/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'reelmatch config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateIngest() error {
	if err := ensurePositiveMap(map[string]int{
		"ingest.batch_size":           c.Ingest.BatchSize,
		"ingest.max_retries_per_item": c.Ingest.MaxRetriesPerItem,
		"ingest.search_result_limit":  c.Ingest.SearchResultLimit,
		"ingest.small_run_threshold":  c.Ingest.SmallRunThreshold,
		"ingest.small_run_batch_size": c.Ingest.SmallRunBatchSize,
	}); err != nil {
		return err
	}
	if c.Ingest.MaxErrorFraction <= 0 || c.Ingest.MaxErrorFraction > 1 {
		return errors.New("ingest.max_error_fraction must be between 0 and 1")
	}
	if c.Ingest.AutoAcceptThreshold <= 0 || c.Ingest.AutoAcceptThreshold > 1 {
		return errors.New("ingest.auto_accept_threshold must be between 0 and 1")
	}
	if c.Ingest.StrongMatchThreshold <= 0 || c.Ingest.StrongMatchThreshold > 1 {
		return errors.New("ingest.strong_match_threshold must be between 0 and 1")
	}
	if c.Ingest.StrongMatchThreshold >= c.Ingest.AutoAcceptThreshold {
		return errors.New("ingest.strong_match_threshold must be below ingest.auto_accept_threshold")
	}
	return nil
}

func (c *Config) validateFilter() error {
	rating := strings.TrimSpace(c.Filter.DefaultMaxRating)
	if rating == "" {
		return nil
	}
	if !ratings.Known(rating) {
		return fmt.Errorf("filter.default_max_rating %q is not a recognized rating (valid: %s)", rating, strings.Join(ratings.AllowedFor("R"), ", "))
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
