package config

import "time"

// SiteConfig holds configuration specific to a single competition crawl
type SiteConfig struct {
	CompetitionURL      string        `yaml:"competition_url"`                  // Listing page with the club table
	BaseURL             string        `yaml:"base_url"`                         // Site origin, also sent as Referer on asset fetches
	ImageHost           string        `yaml:"image_host,omitempty"`             // Host serving portrait assets (templated URLs)
	TeamLimit           int           `yaml:"team_limit,omitempty"`             // Top-N truncation; the known league size
	MinTeamNameLength   int           `yaml:"min_team_name_length,omitempty"`   // Anchors with shorter names are badges, not clubs
	MinPlayerNameLength int           `yaml:"min_player_name_length,omitempty"` //
	UserAgent           string        `yaml:"user_agent,omitempty"`
	DelayPerHost        time.Duration `yaml:"delay_per_host,omitempty"`
	EntityDelay         time.Duration `yaml:"entity_delay,omitempty"` // Politeness pause between entity iterations
	SkipImages          *bool         `yaml:"skip_images,omitempty"`
	SkipProfiles        *bool         `yaml:"skip_profiles,omitempty"` // Skip per-player profile pages; image URLs come from the template
	MinImageSizeBytes   *int64        `yaml:"min_image_size_bytes,omitempty"`
}

// AppConfig holds the global application configuration
type AppConfig struct {
	DefaultUserAgent    string        `yaml:"default_user_agent"`
	DefaultDelayPerHost time.Duration `yaml:"default_delay_per_host"`
	RequestsPerSecond   float64       `yaml:"requests_per_second,omitempty"` // Global ceiling enforced by the fetch layer
	NumImageWorkers     int           `yaml:"num_image_workers,omitempty"`
	OutputBaseDir       string        `yaml:"output_base_dir"`
	StateDir            string        `yaml:"state_dir"`
	CacheTTL            time.Duration `yaml:"cache_ttl,omitempty"` // Response cache freshness window
	MaxRetries          int           `yaml:"max_retries,omitempty"`
	InitialRetryDelay   time.Duration `yaml:"initial_retry_delay,omitempty"`
	MaxRetryDelay       time.Duration `yaml:"max_retry_delay,omitempty"`
	GlobalCrawlTimeout  time.Duration `yaml:"global_crawl_timeout,omitempty"`
	SkipImages          bool          `yaml:"skip_images,omitempty"`
	MinImageSizeBytes   int64         `yaml:"min_image_size_bytes,omitempty"`

	HTTPClientSettings HTTPClientConfig      `yaml:"http_client_settings,omitempty"`
	Sites              map[string]SiteConfig `yaml:"sites"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// GetEffectiveUserAgent determines the user agent for a site
func GetEffectiveUserAgent(siteCfg SiteConfig, appCfg AppConfig) string {
	if siteCfg.UserAgent != "" {
		return siteCfg.UserAgent
	}
	return appCfg.DefaultUserAgent
}

// GetEffectiveDelayPerHost determines the per-host politeness delay
func GetEffectiveDelayPerHost(siteCfg SiteConfig, appCfg AppConfig) time.Duration {
	if siteCfg.DelayPerHost > 0 {
		return siteCfg.DelayPerHost
	}
	return appCfg.DefaultDelayPerHost
}

// GetEffectiveSkipImages determines the effective image skip setting
func GetEffectiveSkipImages(siteCfg SiteConfig, appCfg AppConfig) bool {
	if siteCfg.SkipImages != nil {
		return *siteCfg.SkipImages
	}
	return appCfg.SkipImages
}

// GetEffectiveSkipProfiles determines whether per-player profile pages are
// fetched. When skipped, image URLs are built from the portrait template and
// metadata fields stay null.
func GetEffectiveSkipProfiles(siteCfg SiteConfig) bool {
	if siteCfg.SkipProfiles != nil {
		return *siteCfg.SkipProfiles
	}
	return false
}

// GetEffectiveMinImageSize determines the minimum accepted image body size.
// Bodies below this are treated as placeholder/error images.
func GetEffectiveMinImageSize(siteCfg SiteConfig, appCfg AppConfig) int64 {
	if siteCfg.MinImageSizeBytes != nil {
		return *siteCfg.MinImageSizeBytes
	}
	return appCfg.MinImageSizeBytes
}
