// Package engine coordinates catalog loading for the wizard. It shares the
// default catalog and version list between sessions and drives each
// session's version load state machine.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/leapstack-labs/eslintcraft/internal/catalog"
	"github.com/leapstack-labs/eslintcraft/internal/metrics"
	"github.com/leapstack-labs/eslintcraft/internal/session"
)

// Loader loads catalogs from remote sources.
type Loader interface {
	LoadDefaultCatalog(ctx context.Context) []catalog.Rule
	LoadCatalogForVersion(ctx context.Context, version string, previous *catalog.Catalog) (*catalog.Catalog, error)
	ListVersions(ctx context.Context) ([]string, error)
}

// Catalog load kinds used as metrics labels.
const (
	KindDefault = "default"
	KindVersion = "version"
)

// Engine caches shared catalog data and loads per-session catalogs.
type Engine struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group

	mu         sync.RWMutex
	loader     Loader
	defaults   *catalog.Catalog
	defaultsAt time.Time
	versions   []string
	versionsAt time.Time
}

// Config holds engine configuration.
type Config struct {
	Loader Loader
	// DefaultTTL is how long the shared default catalog and version list are
	// reused before being loaded again.
	DefaultTTL time.Duration
	Metrics    *metrics.Metrics
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Engine{
		loader:  cfg.Loader,
		logger:  logger,
		metrics: cfg.Metrics,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (e *Engine) currentLoader() Loader {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loader
}

// SetLoader swaps the loader (after a configuration change) and drops every
// cached result.
func (e *Engine) SetLoader(l Loader) {
	e.mu.Lock()
	e.loader = l
	e.mu.Unlock()
	e.Invalidate()
}

// Invalidate drops the cached default catalog and version list.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaults = nil
	e.versions = nil
}

// DefaultCatalog returns the shared default catalog, loading it at most once
// per TTL no matter how many callers ask concurrently. An empty result is
// not cached.
func (e *Engine) DefaultCatalog(ctx context.Context) *catalog.Catalog {
	e.mu.RLock()
	if e.defaults != nil && e.now().Sub(e.defaultsAt) < e.ttl {
		c := e.defaults
		e.mu.RUnlock()
		return c
	}
	e.mu.RUnlock()

	v, _, _ := e.group.Do(KindDefault, func() (any, error) {
		loader := e.currentLoader()
		c := catalog.New(loader.LoadDefaultCatalog(context.WithoutCancel(ctx)))
		e.metrics.ObserveCatalogLoad(KindDefault, nil)
		if c.Len() > 0 {
			e.mu.Lock()
			e.defaults = c
			e.defaultsAt = e.now()
			e.mu.Unlock()
		}
		return c, nil
	})
	return v.(*catalog.Catalog)
}

// Versions returns the stable versions, newest first. Successful results are
// shared for the TTL.
func (e *Engine) Versions(ctx context.Context) ([]string, error) {
	e.mu.RLock()
	if e.versions != nil && e.now().Sub(e.versionsAt) < e.ttl {
		vs := append([]string(nil), e.versions...)
		e.mu.RUnlock()
		return vs, nil
	}
	e.mu.RUnlock()

	v, err, _ := e.group.Do("versions", func() (any, error) {
		vs, err := e.currentLoader().ListVersions(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.versions = vs
		e.versionsAt = e.now()
		e.mu.Unlock()
		return vs, nil
	})
	if err != nil {
		e.logger.Warn("failed to list versions", "error", err)
		return nil, err
	}
	return append([]string(nil), v.([]string)...), nil
}

// Bootstrap fills a fresh session with the default catalog and the version
// list.
func (e *Engine) Bootstrap(ctx context.Context, st *session.State) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		st.SetDefaultCatalog(e.DefaultCatalog(ctx))
	}()
	go func() {
		defer wg.Done()
		st.SetVersions(e.Versions(ctx))
	}()
	wg.Wait()
}

// SelectVersion loads the catalog for version into the session. The session
// moves to loading, then to populated or errored. It returns the load error,
// and reports whether the result was applied; a load superseded by a newer
// selection is discarded.
func (e *Engine) SelectVersion(ctx context.Context, st *session.State, version string) (bool, error) {
	gen := st.BeginLoad(version)
	return e.loadVersion(ctx, st, gen, version)
}

// StartVersion moves the session to loading and loads the catalog in the
// background, detached from ctx cancellation. done, if set, runs once the
// result has been recorded or dropped.
func (e *Engine) StartVersion(ctx context.Context, st *session.State, version string, done func(applied bool, err error)) {
	gen := st.BeginLoad(version)
	ctx = context.WithoutCancel(ctx)
	go func() {
		applied, err := e.loadVersion(ctx, st, gen, version)
		if done != nil {
			done(applied, err)
		}
	}()
}

func (e *Engine) loadVersion(ctx context.Context, st *session.State, gen uint64, version string) (bool, error) {
	log := e.logger.With("session", st.ID(), "version", version)
	log.Debug("loading version catalog")

	c, err := e.currentLoader().LoadCatalogForVersion(ctx, version, st.Catalog())
	e.metrics.ObserveCatalogLoad(KindVersion, err)
	if err != nil {
		log.Warn("version catalog load failed", "error", err)
	}

	applied := st.FinishLoad(gen, version, c, err)
	if !applied {
		log.Debug("dropping stale version catalog")
	}
	return applied, err
}

// Refresh reloads the shared default catalog and installs it into every
// given session. Sessions with a version catalog only take its plugin rules.
func (e *Engine) Refresh(ctx context.Context, states ...*session.State) *catalog.Catalog {
	e.Invalidate()
	c := e.DefaultCatalog(ctx)
	for _, st := range states {
		st.SetDefaultCatalog(c)
	}
	e.logger.Info("default catalog refreshed", "rules", c.Len(), "sessions", len(states))
	return c
}
