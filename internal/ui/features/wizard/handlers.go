package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/eslintcraft/internal/catalog"
	"github.com/leapstack-labs/eslintcraft/internal/engine"
	"github.com/leapstack-labs/eslintcraft/internal/layout"
	"github.com/leapstack-labs/eslintcraft/internal/session"
	"github.com/leapstack-labs/eslintcraft/internal/ui/features/wizard/pages"
	"github.com/leapstack-labs/eslintcraft/internal/ui/notifier"
	"github.com/leapstack-labs/eslintcraft/pkg/eslint"
)

var errNoSession = errors.New("no session in request context")

// DefaultKeepAlive is how often an open updates stream touches its session.
const DefaultKeepAlive = time.Minute

// Handlers provides HTTP handlers for the wizard feature.
type Handlers struct {
	engine    *engine.Engine
	notifier  *notifier.Notifier
	keepAlive time.Duration
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng *engine.Engine, notify *notifier.Notifier, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		engine:    eng,
		notifier:  notify,
		keepAlive: DefaultKeepAlive,
		logger:    logger,
	}
}

// SearchSignals are the signals posted by the search controls.
type SearchSignals struct {
	Search string `json:"search"`
	Plugin string `json:"plugin"`
}

// LayoutSignals are the measured heights posted on load and resize.
type LayoutSignals struct {
	PageHeight   float64 `json:"pageHeight"`
	HeaderHeight float64 `json:"headerHeight"`
	FooterHeight float64 `json:"footerHeight"`
}

// WizardPage renders the full wizard. The first visit of a session starts
// loading the default catalog and versions; the result is pushed through
// the updates stream.
func (h *Handlers) WizardPage(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	if st == nil {
		http.Error(w, errNoSession.Error(), http.StatusInternalServerError)
		return
	}

	if st.Bootstrap() {
		ctx := context.WithoutCancel(r.Context())
		go func() {
			h.engine.Bootstrap(ctx, st)
			h.notifier.Notify(st.ID())
		}()
	}

	if err := pages.WizardPage("Wizard", st.View()).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Updates is the long-lived SSE endpoint. It re-renders the wizard whenever
// the session's state changes in the background, and keeps the session from
// being swept while the stream is open.
func (h *Handlers) Updates(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	sse := datastar.NewSSE(w, r)
	if st == nil {
		_ = sse.ConsoleError(errNoSession)
		return
	}

	updates := h.notifier.Subscribe(st.ID())
	defer h.notifier.Unsubscribe(st.ID(), updates)

	// Catch up on anything that finished between page render and subscribe.
	if err := sse.PatchElementTempl(pages.Wizard(st.View())); err != nil {
		return
	}

	keepAlive := h.keepAlive
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			st.Touch(now)
		case <-updates:
			if err := sse.PatchElementTempl(pages.Wizard(st.View())); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// SelectLanguage sets the language from the "value" query parameter.
func (h *Handlers) SelectLanguage(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(st *session.State) error {
		l, err := eslint.ParseLanguage(r.URL.Query().Get("value"))
		if err != nil {
			return err
		}
		st.SetLanguage(l)
		return nil
	})
}

// SelectFramework sets the framework from the "value" query parameter.
func (h *Handlers) SelectFramework(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(st *session.State) error {
		f, err := eslint.ParseFramework(r.URL.Query().Get("value"))
		if err != nil {
			return err
		}
		st.SetFramework(f)
		return nil
	})
}

// SelectVersion starts loading the catalog of the version in "value". The
// wizard shows the loading state at once; the result arrives through the
// updates stream.
func (h *Handlers) SelectVersion(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(st *session.State) error {
		version := r.URL.Query().Get("value")
		if version == "" {
			return fmt.Errorf("no version selected")
		}
		h.engine.StartVersion(r.Context(), st, version, func(bool, error) {
			h.notifier.Notify(st.ID())
		})
		return nil
	})
}

// mutate applies fn to the session and patches the whole wizard.
func (h *Handlers) mutate(w http.ResponseWriter, r *http.Request, fn func(*session.State) error) {
	st := session.FromContext(r.Context())
	sse := datastar.NewSSE(w, r)
	if st == nil {
		_ = sse.ConsoleError(errNoSession)
		return
	}

	if err := fn(st); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchElementTempl(pages.Wizard(st.View())); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Search applies the posted search text and category after the session's
// debounce delay. A request superseded by a later keystroke renders nothing.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals SearchSignals
	readErr := datastar.ReadSignals(r, &signals)

	st := session.FromContext(r.Context())
	sse := datastar.NewSSE(w, r)
	if readErr != nil {
		_ = sse.ConsoleError(fmt.Errorf("failed to read signals: %w", readErr))
		return
	}
	if st == nil {
		_ = sse.ConsoleError(errNoSession)
		return
	}

	q := catalog.Query{Text: signals.Search, Plugin: signals.Plugin}
	done := st.Debouncer().Schedule(func() { st.SetQuery(q) })

	select {
	case applied := <-done:
		if !applied {
			return
		}
	case <-r.Context().Done():
		return
	}

	// Only the list is patched so the input being typed in is left alone.
	if err := sse.PatchElementTempl(pages.RuleList(st.View())); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// More grows the visible rule window by one page.
func (h *Handlers) More(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	sse := datastar.NewSSE(w, r)
	if st == nil {
		_ = sse.ConsoleError(errNoSession)
		return
	}

	st.LoadMore()
	if err := sse.PatchElementTempl(pages.RuleList(st.View())); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Severity sets the severity of the rule in "rule" to "value". An empty
// value removes the rule from the selection.
func (h *Handlers) Severity(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	sse := datastar.NewSSE(w, r)
	if st == nil {
		_ = sse.ConsoleError(errNoSession)
		return
	}

	rule := r.URL.Query().Get("rule")
	if rule == "" {
		_ = sse.ConsoleError(fmt.Errorf("no rule given"))
		return
	}

	if value := r.URL.Query().Get("value"); value == "" {
		st.ClearRuleSeverity(rule)
	} else {
		sev, err := eslint.ParseSeverity(value)
		if err != nil {
			_ = sse.ConsoleError(err)
			return
		}
		st.SetRuleSeverity(rule, sev)
	}

	view := st.View()
	if err := sse.PatchElementTempl(pages.RuleList(view)); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchElementTempl(pages.Preview(view)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Layout records the measured viewport, header and footer heights and
// resizes the rule list.
func (h *Handlers) Layout(w http.ResponseWriter, r *http.Request) {
	var signals LayoutSignals
	readErr := datastar.ReadSignals(r, &signals)

	st := session.FromContext(r.Context())
	sse := datastar.NewSSE(w, r)
	if readErr != nil {
		_ = sse.ConsoleError(fmt.Errorf("failed to read signals: %w", readErr))
		return
	}
	if st == nil {
		_ = sse.ConsoleError(errNoSession)
		return
	}

	reg := st.Layout()
	reg.AddOrUpdate(layout.Header, pixels(signals.HeaderHeight))
	reg.AddOrUpdate(layout.Footer, pixels(signals.FooterHeight))
	reg.SetPageHeight(pixels(signals.PageHeight))

	if err := sse.PatchElementTempl(pages.RuleList(st.View())); err != nil {
		_ = sse.ConsoleError(err)
	}
}

func pixels(v float64) int {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return int(math.Round(v))
}

// Export downloads the generated config in the format named by "format".
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	if st == nil {
		http.Error(w, errNoSession.Error(), http.StatusInternalServerError)
		return
	}

	format, err := eslint.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	text, err := eslint.Generate(st.Selection(), format)
	if err != nil {
		h.logger.Error("failed to generate config", "session", st.ID(), "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	contentType := "application/json"
	if format == eslint.FormatYAML {
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	_, _ = w.Write([]byte(text + "\n"))
}
