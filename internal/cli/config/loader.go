package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/eslintcraft/internal/cache"
	"github.com/leapstack-labs/eslintcraft/internal/fetch"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "ESLINTCRAFT_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

var configNames = []string{"eslintcraft.yaml", "eslintcraft.yml"}

var (
	mu             sync.RWMutex
	configFileUsed string
	currentConfig  *Config
)

// configIn returns the config file inside dir, or "".
func configIn(dir string) string {
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for an eslintcraft config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if path := configIn(dir); path != "" {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, in-memory or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == cache.MemoryPath || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func defaults() map[string]any {
	src := fetch.DefaultSources()
	plugins := make([]map[string]any, len(src.Plugins))
	for i, p := range src.Plugins {
		plugins[i] = map[string]any{"name": p.Name, "url": p.URL}
	}

	return map[string]any{
		"verbose":    false,
		"log_level":  DefaultLogLevel,
		"log_format": DefaultLogFormat,
		"output":     DefaultOutput,

		"ui.port":            DefaultPort,
		"ui.auto_open":       true,
		"ui.watch":           true,
		"ui.session_secret":  "",
		"ui.session_ttl":     DefaultSessionTTL.String(),
		"ui.page_size":       DefaultPageSize,
		"ui.search_debounce": DefaultSearchDebounce.String(),

		"fetch.timeout":        DefaultTimeout.String(),
		"fetch.user_agent":     UserAgent,
		"fetch.max_body_bytes": DefaultMaxBodyBytes,
		"fetch.rate_limit":     DefaultRateLimit,
		"fetch.burst":          DefaultBurst,
		"fetch.concurrency":    DefaultConcurrency,
		"fetch.cache_path":     DefaultCachePath,
		"fetch.cache_ttl":      DefaultCacheTTL.String(),
		"fetch.default_ttl":    DefaultCatalogTTL.String(),

		"sources.core_rules_url": src.CoreRulesURL,
		"sources.tags_url":       src.TagsURL,
		"sources.raw_base_url":   src.RawBaseURL,
		"sources.index_paths":    src.IndexPaths,
		"sources.rule_dirs":      src.RuleDirs,
		"sources.plugins":        plugins,
	}
}

// envKey maps ESLINTCRAFT_FETCH__CACHE_TTL to fetch.cache_ttl.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// flagKeys maps flag names to config keys. Command-local flags that are
// not listed here never reach koanf.
var flagKeys = map[string]string{
	"verbose":    "verbose",
	"log-level":  "log_level",
	"log-format": "log_format",
	"output":     "output",
	"port":       "ui.port",
	"watch":      "ui.watch",
}

// ResetConfig clears the remembered config. Used for testing.
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	if cfgFile == "" {
		cfgFile = findConfigUpward(cwd)
	}
	baseDir := cwd
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		if abs, err := filepath.Abs(cfgFile); err == nil {
			cfgFile = abs
		}
		baseDir = filepath.Dir(cfgFile)
	}

	// 3. Load environment variables (ESLINTCRAFT_ prefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			if f.Name == "no-browser" {
				v, _ := flags.GetBool("no-browser")
				return "ui.auto_open", !v
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ConfigFile = cfgFile
	cfg.BaseDir = baseDir
	cfg.Fetch.CachePath = resolvePathRelativeTo(cfg.Fetch.CachePath, baseDir)

	// ESLINTCRAFT_SESSION_SECRET is accepted as a shorthand for ui.session_secret.
	if cfg.UI.SessionSecret == "" {
		cfg.UI.SessionSecret = k.String("session_secret")
	}
	if cfg.UI.SessionSecret == "" {
		cfg.UI.SessionSecret = DevSessionSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	mu.Lock()
	configFileUsed = cfgFile
	currentConfig = &cfg
	mu.Unlock()

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	mu.RLock()
	defer mu.RUnlock()
	return configFileUsed
}

// GetCurrentConfig returns the most recently loaded configuration.
func GetCurrentConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// NewLogger builds the process logger from the logging keys.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.LogLevel)
	if cfg.Verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a log_level value to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
