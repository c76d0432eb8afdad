package commands

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/eslintcraft/internal/cache"
	"github.com/leapstack-labs/eslintcraft/internal/cli/config"
	"github.com/leapstack-labs/eslintcraft/internal/cli/output"
	"github.com/leapstack-labs/eslintcraft/internal/fetch"
	"github.com/leapstack-labs/eslintcraft/internal/metrics"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
// format, when non-empty, overrides the configured output mode.
func NewCommandContext(cmd *cobra.Command, format string) (*CommandContext, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}

	if format == "" {
		format = cfg.OutputFormat
	}
	mode, err := output.ParseMode(format)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}, nil
}

// getConfig returns the current configuration, loading defaults when the
// command runs outside the root command.
func getConfig() (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", nil)
}

// Fetcher bundles the HTTP client and its response cache.
type Fetcher struct {
	Client *fetch.Client
	Cache  *cache.Store
}

// Close releases the cache database.
func (f *Fetcher) Close() error {
	if f.Cache == nil {
		return nil
	}
	return f.Cache.Close()
}

// NewLoader returns a loader over the given sources sharing this client.
func (f *Fetcher) NewLoader(cfg *config.Config, sources fetch.Sources, logger *slog.Logger) *fetch.Loader {
	return fetch.NewLoader(f.Client, sources, cfg.Fetch.Concurrency, logger)
}

// openFetcher opens the response cache (unless disabled) and builds a client.
func openFetcher(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*Fetcher, error) {
	var store *cache.Store
	if cfg.Fetch.CachePath != "" {
		var err error
		store, err = cache.Open(cfg.Fetch.CachePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open response cache: %w", err)
		}
		logger.Debug("response cache opened", slog.String("path", store.Path()))
	}

	client := fetch.NewClient(fetch.ClientConfig{
		Timeout:      cfg.Fetch.Timeout,
		UserAgent:    cfg.Fetch.UserAgent,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		RateLimit:    cfg.Fetch.RateLimit,
		Burst:        cfg.Fetch.Burst,
		CacheTTL:     cfg.Fetch.CacheTTL,
		Cache:        store,
		Metrics:      m,
		Logger:       logger,
	})

	return &Fetcher{Client: client, Cache: store}, nil
}

// newMetrics registers collectors on a fresh registry.
func newMetrics() (*prometheus.Registry, *metrics.Metrics) {
	reg := prometheus.NewRegistry()
	return reg, metrics.New(reg)
}
