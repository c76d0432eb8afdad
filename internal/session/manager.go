package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/eslintcraft/internal/metrics"
)

// CookieName is the name of the session cookie.
const CookieName = "eslintcraft"

const idKey = "sid"

type contextKey struct{}

// WithState returns a copy of ctx carrying st.
func WithState(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, contextKey{}, st)
}

// FromContext returns the state stored by Manager.Middleware, or nil.
func FromContext(ctx context.Context) *State {
	st, _ := ctx.Value(contextKey{}).(*State)
	return st
}

// Config configures a Manager.
type Config struct {
	Store       sessions.Store
	PageSize    int
	SearchDelay time.Duration
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Manager maps session cookies to in-memory states.
type Manager struct {
	store       sessions.Store
	pageSize    int
	searchDelay time.Duration
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time

	mu     sync.RWMutex
	states map[string]*State
}

// NewManager creates a manager.
func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		store:       cfg.Store,
		pageSize:    cfg.PageSize,
		searchDelay: cfg.SearchDelay,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		now:         time.Now,
		states:      make(map[string]*State),
	}
}

// NewCookieStore creates the cookie store used for session ids.
func NewCookieStore(secret string, maxAge time.Duration) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(int(maxAge.Seconds()))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

// Middleware resolves (or creates) the session state of each request and
// stores it in the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, err := m.resolve(w, r)
		if err != nil {
			m.logger.Error("failed to resolve session", "error", err)
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}
		st.Touch(m.now())
		next.ServeHTTP(w, r.WithContext(WithState(r.Context(), st)))
	})
}

func (m *Manager) resolve(w http.ResponseWriter, r *http.Request) (*State, error) {
	// A cookie that fails to decode (e.g. after a secret change) yields a
	// fresh session rather than an error.
	sess, err := m.store.Get(r, CookieName)
	if err != nil && sess == nil {
		return nil, err
	}

	if id, ok := sess.Values[idKey].(string); ok {
		if st := m.Get(id); st != nil {
			return st, nil
		}
	}

	st := m.Create()
	sess.Values[idKey] = st.ID()
	if err := sess.Save(r, w); err != nil {
		m.Remove(st.ID())
		return nil, err
	}
	return st, nil
}

// Create registers a new state with a random id.
func (m *Manager) Create() *State {
	st := NewState(uuid.NewString(), m.pageSize, m.searchDelay)

	m.mu.Lock()
	m.states[st.ID()] = st
	n := len(m.states)
	m.mu.Unlock()

	m.metrics.SetSessions(n)
	m.logger.Debug("session created", "session", st.ID())
	return st
}

// Get returns the state with the given id, or nil.
func (m *Manager) Get(id string) *State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[id]
}

// Remove drops a state.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	st := m.states[id]
	delete(m.states, id)
	n := len(m.states)
	m.mu.Unlock()

	if st != nil {
		st.Debouncer().Cancel()
	}
	m.metrics.SetSessions(n)
}

// Len returns the number of live states.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}

// States returns all live states.
func (m *Manager) States() []*State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*State, 0, len(m.states))
	for _, st := range m.states {
		out = append(out, st)
	}
	return out
}

// Sweep removes states idle for longer than ttl and returns how many were
// removed.
func (m *Manager) Sweep(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)

	var stale []string
	m.mu.RLock()
	for id, st := range m.states {
		if st.LastSeen().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		m.Remove(id)
	}
	if len(stale) > 0 {
		m.logger.Debug("swept idle sessions", "count", len(stale))
	}
	return len(stale)
}

// RunSweeper sweeps every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval, ttl time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep(ttl)
		}
	}
}
