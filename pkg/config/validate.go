package config

import (
	"fmt"
	"net/url"
	"time"

	"squad-scraper/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// DefaultUserAgent
	if c.DefaultUserAgent == "" {
		warnings = append(warnings, "default_user_agent is empty, defaulting to a desktop browser identity")
		c.DefaultUserAgent = DefaultBrowserUserAgent
	}

	// DefaultDelayPerHost
	if c.DefaultDelayPerHost < 0 {
		warnings = append(warnings, "default_delay_per_host cannot be negative, setting to 500ms")
		c.DefaultDelayPerHost = 500 * time.Millisecond
	}
	if c.DefaultDelayPerHost == 0 {
		c.DefaultDelayPerHost = 500 * time.Millisecond
	}

	// RequestsPerSecond
	if c.RequestsPerSecond < 0 {
		warnings = append(warnings, "requests_per_second cannot be negative, disabling global ceiling")
		c.RequestsPerSecond = 0
	}

	// NumImageWorkers
	if c.NumImageWorkers <= 0 {
		warnings = append(warnings, "num_image_workers not specified or invalid, defaulting to 2")
		c.NumImageWorkers = 2
	}

	// OutputBaseDir
	if c.OutputBaseDir == "" {
		warnings = append(warnings, "output_base_dir is empty, defaulting to './data'")
		c.OutputBaseDir = "./data"
	}

	// StateDir
	if c.StateDir == "" {
		warnings = append(warnings, "state_dir is empty, defaulting to './scraper_state'")
		c.StateDir = "./scraper_state"
	}

	// CacheTTL
	if c.CacheTTL < 0 {
		warnings = append(warnings, "cache_ttl cannot be negative, disabling response cache")
		c.CacheTTL = 0
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 24 * time.Hour
	}

	// MaxRetries
	if c.MaxRetries < 0 {
		warnings = append(warnings, "max_retries cannot be negative, setting to 0")
		c.MaxRetries = 0
	}
	if c.MaxRetries == 0 && c.InitialRetryDelay == 0 {
		c.MaxRetries = 3
	}

	// Retry delays (only if retries enabled)
	if c.MaxRetries > 0 {
		if c.InitialRetryDelay <= 0 {
			c.InitialRetryDelay = 1 * time.Second
		}
		if c.MaxRetryDelay <= 0 {
			c.MaxRetryDelay = 30 * time.Second
		}
	}

	// InitialRetryDelay > MaxRetryDelay check
	if c.InitialRetryDelay > c.MaxRetryDelay && c.MaxRetryDelay > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"initial_retry_delay (%v) > max_retry_delay (%v), using max_retry_delay for initial",
			c.InitialRetryDelay, c.MaxRetryDelay))
		c.InitialRetryDelay = c.MaxRetryDelay
	}

	// GlobalCrawlTimeout
	if c.GlobalCrawlTimeout < 0 {
		warnings = append(warnings, "global_crawl_timeout cannot be negative, disabling timeout")
		c.GlobalCrawlTimeout = 0
	}

	// MinImageSizeBytes
	if c.MinImageSizeBytes < 0 {
		warnings = append(warnings, "min_image_size_bytes cannot be negative, setting to default (1000)")
		c.MinImageSizeBytes = 0
	}
	if c.MinImageSizeBytes == 0 {
		c.MinImageSizeBytes = 1000
	}

	// HTTPClientSettings defaults
	c.validateHTTPClientSettings()

	if len(c.Sites) == 0 {
		return warnings, utils.WrapErrorf(utils.ErrConfigValidation, "no sites configured")
	}

	return warnings, nil
}

// validateHTTPClientSettings applies defaults to the shared HTTP client config
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.Timeout <= 0 {
		h.Timeout = 30 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 20
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 4
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}

// Validate checks SiteConfig fields and applies defaults.
// Returns collected warnings and a fatal error for unusable configs.
func (s *SiteConfig) Validate() (warnings []string, err error) {
	if s.CompetitionURL == "" {
		return warnings, utils.WrapErrorf(utils.ErrConfigValidation, "competition_url is required")
	}
	compURL, parseErr := url.ParseRequestURI(s.CompetitionURL)
	if parseErr != nil {
		return warnings, utils.WrapErrorf(utils.ErrConfigValidation, "competition_url is not a valid absolute URL: %v", parseErr)
	}

	if s.BaseURL == "" {
		derived := (&url.URL{Scheme: compURL.Scheme, Host: compURL.Host}).String()
		warnings = append(warnings, fmt.Sprintf("base_url is empty, deriving from competition_url: %s", derived))
		s.BaseURL = derived
	} else if _, parseErr := url.ParseRequestURI(s.BaseURL); parseErr != nil {
		return warnings, utils.WrapErrorf(utils.ErrConfigValidation, "base_url is not a valid absolute URL: %v", parseErr)
	}

	if s.TeamLimit <= 0 {
		warnings = append(warnings, "team_limit not set, defaulting to 20 (league size)")
		s.TeamLimit = 20
	}
	if s.MinTeamNameLength <= 0 {
		s.MinTeamNameLength = 3
	}
	if s.MinPlayerNameLength <= 0 {
		s.MinPlayerNameLength = 2
	}
	if s.EntityDelay < 0 {
		warnings = append(warnings, "entity_delay cannot be negative, setting to 250ms")
		s.EntityDelay = 250 * time.Millisecond
	}
	if s.EntityDelay == 0 {
		s.EntityDelay = 250 * time.Millisecond
	}

	if !GetEffectiveSkipProfiles(*s) {
		// Profile scraping provides image URLs; the template host is only
		// required when profiles are skipped
	} else if s.ImageHost == "" {
		return warnings, utils.WrapErrorf(utils.ErrConfigValidation, "image_host is required when skip_profiles is enabled")
	}

	return warnings, nil
}

// DefaultBrowserUserAgent is a realistic desktop browser identity. The origin
// rejects default library identities on asset fetches.
const DefaultBrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
