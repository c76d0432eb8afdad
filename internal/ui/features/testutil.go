// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/eslintcraft/internal/catalog"
	"github.com/leapstack-labs/eslintcraft/internal/engine"
	"github.com/leapstack-labs/eslintcraft/internal/session"
	"github.com/leapstack-labs/eslintcraft/internal/ui/notifier"
)

// FakeLoader serves canned catalogs. A version missing from Catalogs fails
// to load.
type FakeLoader struct {
	Defaults    []catalog.Rule
	Versions    []string
	VersionsErr error

	mu       sync.Mutex
	catalogs map[string][]catalog.Rule
}

// SetVersionRules registers the core rules served for version.
func (f *FakeLoader) SetVersionRules(version string, rules ...catalog.Rule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.catalogs == nil {
		f.catalogs = make(map[string][]catalog.Rule)
	}
	f.catalogs[version] = rules
}

// LoadDefaultCatalog returns Defaults.
func (f *FakeLoader) LoadDefaultCatalog(context.Context) []catalog.Rule {
	return f.Defaults
}

// LoadCatalogForVersion merges the registered core rules into previous.
func (f *FakeLoader) LoadCatalogForVersion(_ context.Context, version string, previous *catalog.Catalog) (*catalog.Catalog, error) {
	f.mu.Lock()
	rules, ok := f.catalogs[version]
	f.mu.Unlock()
	if !ok {
		return nil, errors.New("fetch rule index: not found")
	}
	return previous.MergeCore(rules), nil
}

// ListVersions returns Versions or VersionsErr.
func (f *FakeLoader) ListVersions(context.Context) ([]string, error) {
	if f.VersionsErr != nil {
		return nil, f.VersionsErr
	}
	return f.Versions, nil
}

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Loader   *FakeLoader
	Engine   *engine.Engine
	Notifier *notifier.Notifier
	Sessions *session.Manager
}

// TestPageSize is the rule window size of fixture sessions.
const TestPageSize = 2

// SetupTestFixture creates an engine over loader, a notifier and a session
// manager. Background loads outlive individual requests, so the engine and
// manager log to a discard handler rather than to t.
func SetupTestFixture(t *testing.T, loader *FakeLoader) *TestFixture {
	t.Helper()

	if loader == nil {
		loader = &FakeLoader{}
	}
	logger := slog.New(slog.DiscardHandler)

	return &TestFixture{
		Loader:   loader,
		Engine:   engine.New(engine.Config{Loader: loader, DefaultTTL: time.Hour, Logger: logger}),
		Notifier: notifier.New(),
		Sessions: session.NewManager(session.Config{
			Store:    NewTestSessionStore(),
			PageSize: TestPageSize,
			Logger:   logger,
		}),
	}
}

// RequestWithState attaches a session state to the request, bypassing the
// session middleware.
func RequestWithState(r *http.Request, st *session.State) *http.Request {
	return r.WithContext(session.WithState(r.Context(), st))
}

// RequestWithTimeout wraps a request with a context timeout. The context is
// released when the test ends.
func RequestWithTimeout(t *testing.T, r *http.Request, timeout time.Duration) *http.Request {
	t.Helper()
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	t.Cleanup(cancel)
	return r.WithContext(ctx)
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}

// Rules builds rules of one category.
func Rules(category string, names ...string) []catalog.Rule {
	rules := make([]catalog.Rule, len(names))
	for i, n := range names {
		rules[i] = catalog.Rule{Name: n, Category: category, Description: "Rule " + n}
	}
	return rules
}
