// Package ui provides the web-based ESLint configuration wizard.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/eslintcraft/internal/engine"
	"github.com/leapstack-labs/eslintcraft/internal/session"
	"github.com/leapstack-labs/eslintcraft/internal/ui/notifier"
	"github.com/leapstack-labs/eslintcraft/internal/ui/router"
)

// ReloadFunc builds a loader from the configuration file after it changed.
type ReloadFunc func(ctx context.Context) (engine.Loader, error)

const reloadDebounce = 100 * time.Millisecond

// Server is the main UI server.
type Server struct {
	engine     *engine.Engine
	sessions   *session.Manager
	gatherer   prometheus.Gatherer
	port       int
	watch      bool
	configFile string
	reloadFn   ReloadFunc
	sessionTTL time.Duration
	isDev      bool
	logger     *slog.Logger
	notifier   *notifier.Notifier
}

// Config holds configuration for the UI server.
type Config struct {
	Engine   *engine.Engine
	Sessions *session.Manager
	// Gatherer backs /metrics (optional)
	Gatherer prometheus.Gatherer
	Port     int
	// Watch reloads the sources when ConfigFile changes.
	Watch      bool
	ConfigFile string
	Reload     ReloadFunc
	// SessionTTL is the idle time after which a session is dropped.
	SessionTTL time.Duration
	IsDev      bool
	Logger     *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		engine:     cfg.Engine,
		sessions:   cfg.Sessions,
		gatherer:   cfg.Gatherer,
		port:       cfg.Port,
		watch:      cfg.Watch,
		configFile: cfg.ConfigFile,
		reloadFn:   cfg.Reload,
		sessionTTL: cfg.SessionTTL,
		isDev:      cfg.IsDev,
		logger:     logger,
		notifier:   notifier.New(),
	}
}

// Handler builds the HTTP handler with middleware and all routes.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	err := router.SetupRoutes(r, router.Deps{
		Engine:   s.engine,
		Sessions: s.sessions,
		Notifier: s.notifier,
		Gatherer: s.gatherer,
		// Touching at the sweep interval keeps a session with an open page
		// from expiring.
		KeepAlive: sweepInterval(s.sessionTTL),
		Logger:    s.logger,
		IsDev:     s.isDev,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", s.URL())

	eg, egctx := errgroup.WithContext(ctx)

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start config watcher if enabled
	if s.watch && s.configFile != "" && s.reloadFn != nil {
		eg.Go(func() error {
			return s.watchConfig(egctx)
		})
	}

	if s.sessionTTL > 0 {
		eg.Go(func() error {
			return s.sessions.RunSweeper(egctx, sweepInterval(s.sessionTTL), s.sessionTTL)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// URL returns the local address of the server.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

func sweepInterval(ttl time.Duration) time.Duration {
	return min(max(ttl/4, time.Second), 10*time.Minute)
}

// reload swaps in a loader built from the current configuration, refreshes
// every session still on the default catalog and pushes the change.
func (s *Server) reload(ctx context.Context) {
	loader, err := s.reloadFn(ctx)
	if err != nil {
		s.logger.Error("config reload failed, keeping previous sources", "error", err)
		return
	}
	s.engine.SetLoader(loader)
	s.engine.Refresh(ctx, s.sessions.States()...)
	s.notifier.Broadcast()
}

// watchConfig reloads the sources whenever the configuration file changes.
// The parent directory is watched so editors that replace the file on save
// are still seen.
func (s *Server) watchConfig(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	target := filepath.Clean(s.configFile)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		s.logger.Error("failed to watch config file", "path", target, "error", err)
		// Don't fail - continue without watching
		<-ctx.Done()
		return nil
	}

	// Debounce timer; reloads never overlap.
	var (
		debounceTimer *time.Timer
		reloading     sync.Mutex
	)
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(reloadDebounce, func() {
				reloading.Lock()
				defer reloading.Unlock()
				if ctx.Err() != nil {
					return
				}
				s.logger.Info("config file changed, reloading sources", "file", event.Name)
				s.reload(ctx)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}
