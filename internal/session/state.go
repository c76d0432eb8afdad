// Package session keeps the wizard state of each browser session.
package session

import (
	"maps"
	"sync"
	"time"

	"github.com/leapstack-labs/eslintcraft/internal/catalog"
	"github.com/leapstack-labs/eslintcraft/internal/debounce"
	"github.com/leapstack-labs/eslintcraft/internal/layout"
	"github.com/leapstack-labs/eslintcraft/pkg/eslint"
)

// LoadStatus is the state of a session's version catalog load.
type LoadStatus string

// Catalog load states: idle -> loading -> populated | errored.
const (
	StatusIdle      LoadStatus = "idle"
	StatusLoading   LoadStatus = "loading"
	StatusPopulated LoadStatus = "populated"
	StatusErrored   LoadStatus = "errored"
)

// State is the mutable wizard state of one browser session. Every field is
// guarded by mu; callers only see copies.
type State struct {
	id       string
	pageSize int
	layout   *layout.Registry
	debounce *debounce.Timer

	mu             sync.RWMutex
	selection      eslint.Selection
	catalog        *catalog.Catalog
	bootstrapped   bool
	status         LoadStatus
	loadErr        string
	pendingVersion string
	generation     uint64
	versions       []string
	versionsErr    string
	query          catalog.Query
	limit          int
	lastSeen       time.Time
}

// NewState creates an empty state. pageSize is the initial number of visible
// rules and the "load more" step; searchDelay is the search debounce delay.
func NewState(id string, pageSize int, searchDelay time.Duration) *State {
	if pageSize <= 0 {
		pageSize = catalog.PageSize
	}
	return &State{
		id:        id,
		pageSize:  pageSize,
		layout:    layout.NewRegistry(),
		debounce:  debounce.New(searchDelay),
		selection: eslint.Selection{Rules: map[string]eslint.Severity{}},
		catalog:   catalog.New(nil),
		status:    StatusIdle,
		query:     catalog.Query{Plugin: catalog.AllPlugins},
		limit:     pageSize,
		lastSeen:  time.Now(),
	}
}

// ID returns the session identifier.
func (s *State) ID() string { return s.id }

// Layout returns the session's element height registry.
func (s *State) Layout() *layout.Registry { return s.layout }

// Debouncer returns the session's search debounce timer.
func (s *State) Debouncer() *debounce.Timer { return s.debounce }

// Selection returns a copy of the current selection.
func (s *State) Selection() eslint.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sel := s.selection
	sel.Rules = maps.Clone(s.selection.Rules)
	return sel
}

// SetLanguage replaces the selected language.
func (s *State) SetLanguage(l eslint.Language) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Language = l
}

// SetFramework replaces the selected framework.
func (s *State) SetFramework(f eslint.Framework) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Framework = f
}

// SetRuleSeverity sets the severity of one rule, leaving all others as they
// are. The rule need not exist in the current catalog.
func (s *State) SetRuleSeverity(rule string, sev eslint.Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Rules[rule] = sev
}

// ClearRuleSeverity removes one rule from the selection.
func (s *State) ClearRuleSeverity(rule string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selection.Rules, rule)
}

// Catalog returns the current catalog snapshot.
func (s *State) Catalog() *catalog.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Bootstrap reports whether the caller is the first to ask, in which case it
// is responsible for loading the default catalog and versions.
func (s *State) Bootstrap() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bootstrapped {
		return false
	}
	s.bootstrapped = true
	return true
}

// SetDefaultCatalog installs the default catalog. Once a version catalog is
// in place only its plugin rules are taken from c.
func (s *State) SetDefaultCatalog(c *catalog.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.ToolVersion != "" {
		s.catalog = s.catalog.WithPluginsOf(c)
		return
	}
	s.catalog = c
	s.limit = s.pageSize
}

// BeginLoad marks a version load as started and returns its generation.
// Any load started earlier becomes stale.
func (s *State) BeginLoad(version string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.status = StatusLoading
	s.pendingVersion = version
	s.loadErr = ""
	return s.generation
}

// FinishLoad records the result of the load with the given generation. It
// returns false, changing nothing, when a newer load has started since. On
// failure the previous catalog and selected version are kept. Plugin rules
// installed while the load was running win over those in c.
func (s *State) FinishLoad(gen uint64, version string, c *catalog.Catalog, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.pendingVersion = ""
	if err != nil {
		s.status = StatusErrored
		s.loadErr = err.Error()
		return true
	}
	s.status = StatusPopulated
	s.catalog = c.WithPluginsOf(s.catalog)
	s.selection.ToolVersion = version
	s.limit = s.pageSize
	return true
}

// SetVersions records the result of listing versions.
func (s *State) SetVersions(versions []string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.versionsErr = err.Error()
		return
	}
	s.versions = append([]string(nil), versions...)
	s.versionsErr = ""
}

// SetQuery replaces the search query and resets the visible window.
func (s *State) SetQuery(q catalog.Query) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.Plugin == "" {
		q.Plugin = catalog.AllPlugins
	}
	s.query = q
	s.limit = s.pageSize
}

// Query returns the current search query.
func (s *State) Query() catalog.Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// LoadMore grows the visible window by one page, capped at the number of
// matches, and returns the new window.
func (s *State) LoadMore() catalog.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = catalog.NextLimit(s.limit, s.pageSize, len(s.catalog.Filter(s.query)))
	return s.catalog.Window(s.query, s.limit)
}

// Touch records activity at now.
func (s *State) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

// LastSeen returns the time of the last recorded activity.
func (s *State) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

// View is a consistent read-only snapshot used for rendering.
type View struct {
	ID             string
	Selection      eslint.Selection
	Catalog        *catalog.Catalog
	Status         LoadStatus
	LoadErr        string
	PendingVersion string
	Versions       []string
	VersionsErr    string
	Query          catalog.Query
	Page           catalog.Page
	PanelHeight    int
}

// View returns a snapshot of the state.
func (s *State) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sel := s.selection
	sel.Rules = maps.Clone(s.selection.Rules)
	return View{
		ID:             s.id,
		Selection:      sel,
		Catalog:        s.catalog,
		Status:         s.status,
		LoadErr:        s.loadErr,
		PendingVersion: s.pendingVersion,
		Versions:       append([]string(nil), s.versions...),
		VersionsErr:    s.versionsErr,
		Query:          s.query,
		Page:           s.catalog.Window(s.query, s.limit),
		PanelHeight:    s.layout.Available(),
	}
}
