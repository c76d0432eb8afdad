// Package config provides configuration management for the eslintcraft CLI.
//
// Values are layered with koanf: built-in defaults, then an eslintcraft.yaml
// file, then ESLINTCRAFT_ environment variables, then explicitly set flags.
package config

import (
	"time"

	"github.com/leapstack-labs/eslintcraft/internal/fetch"
)

// UIConfig holds configuration for the wizard server.
type UIConfig struct {
	Port           int           `koanf:"port"`
	AutoOpen       bool          `koanf:"auto_open"`
	Watch          bool          `koanf:"watch"`
	SessionSecret  string        `koanf:"session_secret"`
	SessionTTL     time.Duration `koanf:"session_ttl"`
	PageSize       int           `koanf:"page_size"`
	SearchDebounce time.Duration `koanf:"search_debounce"`
}

// FetchConfig holds configuration for remote rule sources.
type FetchConfig struct {
	Timeout      time.Duration `koanf:"timeout"`
	UserAgent    string        `koanf:"user_agent"`
	MaxBodyBytes int64         `koanf:"max_body_bytes"`
	RateLimit    float64       `koanf:"rate_limit"`
	Burst        int           `koanf:"burst"`
	Concurrency  int           `koanf:"concurrency"`
	CachePath    string        `koanf:"cache_path"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
	DefaultTTL   time.Duration `koanf:"default_ttl"`
}

// Config holds all CLI configuration options.
type Config struct {
	Verbose      bool          `koanf:"verbose"`
	LogLevel     string        `koanf:"log_level"`
	LogFormat    string        `koanf:"log_format"`
	OutputFormat string        `koanf:"output"`
	UI           UIConfig      `koanf:"ui"`
	Fetch        FetchConfig   `koanf:"fetch"`
	Sources      fetch.Sources `koanf:"sources"`

	// ConfigFile is the file the values were read from, empty if none.
	ConfigFile string `koanf:"-"`
	// BaseDir anchors relative paths: the config file's directory, or the
	// working directory when no file was found.
	BaseDir string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultPort           = 8765
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultOutput         = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultSessionTTL     = 2 * time.Hour
	DefaultPageSize       = 10
	DefaultSearchDebounce = 300 * time.Millisecond
	DefaultTimeout        = 20 * time.Second
	DefaultMaxBodyBytes   = 4 << 20
	DefaultRateLimit      = 20
	DefaultBurst          = 10
	DefaultConcurrency    = 8
	DefaultCachePath      = ".eslintcraft/cache.db"
	DefaultCacheTTL       = time.Hour
	DefaultCatalogTTL     = 30 * time.Minute

	// DevSessionSecret is used when no secret is configured. Sessions hold
	// nothing sensitive, but production deployments should set one.
	DevSessionSecret = "eslintcraft-dev-secret-change-me!"
)

// UserAgent is sent with every outbound request unless overridden.
var UserAgent = "eslintcraft/dev"
