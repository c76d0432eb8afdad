// Package wizard provides the ESLint configuration wizard feature.
package wizard

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/eslintcraft/internal/engine"
	"github.com/leapstack-labs/eslintcraft/internal/ui/notifier"
)

// SetupRoutes configures routes for the wizard feature. The router must
// already carry the session middleware.
func SetupRoutes(
	router chi.Router,
	eng *engine.Engine,
	notify *notifier.Notifier,
	keepAlive time.Duration,
	logger *slog.Logger,
) error {
	handlers := NewHandlers(eng, notify, logger)
	handlers.keepAlive = keepAlive

	router.Get("/", handlers.WizardPage)
	router.Get("/updates", handlers.Updates)
	router.Get("/export", handlers.Export)

	router.Route("/select", func(r chi.Router) {
		r.Post("/language", handlers.SelectLanguage)
		r.Post("/framework", handlers.SelectFramework)
		r.Post("/version", handlers.SelectVersion)
	})

	router.Route("/rules", func(r chi.Router) {
		r.Post("/search", handlers.Search)
		r.Post("/more", handlers.More)
		r.Post("/severity", handlers.Severity)
	})

	router.Post("/layout", handlers.Layout)

	return nil
}
