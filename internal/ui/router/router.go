// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/eslintcraft/internal/engine"
	"github.com/leapstack-labs/eslintcraft/internal/metrics"
	"github.com/leapstack-labs/eslintcraft/internal/session"
	wizardFeature "github.com/leapstack-labs/eslintcraft/internal/ui/features/wizard"
	"github.com/leapstack-labs/eslintcraft/internal/ui/notifier"
	"github.com/leapstack-labs/eslintcraft/internal/ui/resources"
)

// Deps holds what the routes need.
type Deps struct {
	Engine   *engine.Engine
	Sessions *session.Manager
	Notifier *notifier.Notifier
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// KeepAlive is how often an open updates stream marks its session active.
	KeepAlive time.Duration
	Logger    *slog.Logger
	IsDev     bool
}

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(router chi.Router, deps Deps) error {
	// Hot reload endpoint for dev mode
	if deps.IsDev {
		setupReload(router)
	}

	// Static assets and metrics are served without a session.
	router.Handle("/static/*", resources.Handler())
	if deps.Gatherer != nil {
		router.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	var err error
	router.Group(func(r chi.Router) {
		r.Use(deps.Sessions.Middleware)
		err = wizardFeature.SetupRoutes(r, deps.Engine, deps.Notifier, deps.KeepAlive, deps.Logger)
	})
	return err
}

func setupReload(router chi.Router) {
	reloadChan := make(chan struct{}, 1)
	var hotReloadOnce sync.Once

	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)
		reload := func() { _ = sse.ExecuteScript("window.location.reload()") }
		hotReloadOnce.Do(reload)
		select {
		case <-reloadChan:
			reload()
		case <-r.Context().Done():
		}
	})

	router.Get("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case reloadChan <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
