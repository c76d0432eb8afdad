package commands

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/eslintcraft/internal/cli/config"
	"github.com/leapstack-labs/eslintcraft/internal/engine"
	"github.com/leapstack-labs/eslintcraft/internal/session"
	"github.com/leapstack-labs/eslintcraft/internal/ui"
)

// ServeOptions holds options for the serve command. The values are read
// through the config loader; the fields only back the flag definitions.
type ServeOptions struct {
	Port      int
	NoBrowser bool
	Watch     bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui"},
		Short:   "Start the ESLint config wizard in the browser",
		Long: `Start a local web server hosting the interactive configuration wizard.

The wizard lets you:
- Pick a language and framework
- Choose an ESLint release and browse its rules
- Set rule severities while previewing the generated .eslintrc
- Download the result as JSON or YAML

With --watch, edits to the configuration file reload the rule sources
without restarting.`,
		Example: `  # Start the wizard on the default port
  eslintcraft serve

  # Start on a custom port
  eslintcraft serve --port 3000

  # Start without auto-opening the browser
  eslintcraft serve --no-browser`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", config.DefaultPort, "Port to serve on")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Reload sources when the config file changes")

	return cmd
}

func runServe(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd, "")
	if err != nil {
		return err
	}
	cfg, logger := cmdCtx.Cfg, cmdCtx.Logger

	reg, m := newMetrics()

	fetcher, err := openFetcher(cfg, m, logger)
	if err != nil {
		return err
	}
	defer func() { _ = fetcher.Close() }()

	eng := engine.New(engine.Config{
		Loader:     fetcher.NewLoader(cfg, cfg.Sources, logger),
		DefaultTTL: cfg.Fetch.DefaultTTL,
		Metrics:    m,
		Logger:     logger,
	})

	sessions := session.NewManager(session.Config{
		Store:       session.NewCookieStore(cfg.UI.SessionSecret, cfg.UI.SessionTTL),
		PageSize:    cfg.UI.PageSize,
		SearchDelay: cfg.UI.SearchDebounce,
		Metrics:     m,
		Logger:      logger,
	})

	if cfg.UI.SessionSecret == config.DevSessionSecret {
		logger.Warn("using the built-in session secret; set ui.session_secret for shared deployments")
	}

	// Client settings (timeouts, cache) stay fixed; only the sources are
	// re-read on change.
	reload := func(context.Context) (engine.Loader, error) {
		next, err := config.LoadConfig(cfg.ConfigFile, cmd.Flags())
		if err != nil {
			return nil, err
		}
		return fetcher.NewLoader(next, next.Sources, logger), nil
	}

	server := ui.NewServer(ui.Config{
		Engine:     eng,
		Sessions:   sessions,
		Gatherer:   reg,
		Port:       cfg.UI.Port,
		Watch:      cfg.UI.Watch,
		ConfigFile: cfg.ConfigFile,
		Reload:     reload,
		SessionTTL: cfg.UI.SessionTTL,
		Logger:     logger,
	})

	if cfg.UI.AutoOpen {
		go openBrowser(server.URL())
	}

	r := cmdCtx.Renderer
	r.Println(r.Styles().Success.Render("Wizard running on " + server.URL()))
	if cfg.ConfigFile != "" && cfg.UI.Watch {
		r.Println(r.Styles().Muted.Render("Watching " + cfg.ConfigFile))
	}
	r.Println(r.Styles().Muted.Render("Press Ctrl+C to stop"))

	if err := server.Serve(cmd.Context()); err != nil {
		return fmt.Errorf("wizard server: %w", err)
	}
	return nil
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
