package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/eslintcraft/internal/catalog"
	"github.com/leapstack-labs/eslintcraft/internal/session"
	"github.com/leapstack-labs/eslintcraft/internal/testutil"
)

type fakeLoader struct {
	defaultCalls  atomic.Int32
	versionsCalls atomic.Int32

	defaults    []catalog.Rule
	versions    []string
	versionsErr error
	delay       time.Duration

	// per-version results; a version missing here fails
	mu       sync.Mutex
	catalogs map[string][]catalog.Rule
	gates    map[string]chan struct{}
}

func (f *fakeLoader) LoadDefaultCatalog(context.Context) []catalog.Rule {
	f.defaultCalls.Add(1)
	time.Sleep(f.delay)
	return f.defaults
}

func (f *fakeLoader) LoadCatalogForVersion(ctx context.Context, version string, previous *catalog.Catalog) (*catalog.Catalog, error) {
	f.mu.Lock()
	gate := f.gates[version]
	core, ok := f.catalogs[version]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, errors.New("fetch rule index: network error")
	}
	return previous.MergeCore(core), nil
}

func (f *fakeLoader) ListVersions(context.Context) ([]string, error) {
	f.versionsCalls.Add(1)
	if f.versionsErr != nil {
		return nil, f.versionsErr
	}
	return f.versions, nil
}

func newTestEngine(t *testing.T, l Loader) *Engine {
	t.Helper()
	return New(Config{Loader: l, DefaultTTL: time.Hour, Logger: testutil.NewTestLogger(t)})
}

func core(names ...string) []catalog.Rule {
	rules := make([]catalog.Rule, len(names))
	for i, n := range names {
		rules[i] = catalog.Rule{Name: n, Category: catalog.CoreCategory}
	}
	return rules
}

func TestEngine_DefaultCatalogIsShared(t *testing.T) {
	l := &fakeLoader{defaults: core("eqeqeq", "curly"), delay: 20 * time.Millisecond}
	e := newTestEngine(t, l)

	var wg sync.WaitGroup
	results := make([]*catalog.Catalog, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = e.DefaultCatalog(context.Background())
		}()
	}
	wg.Wait()

	for _, c := range results {
		assert.Equal(t, 2, c.Len())
	}
	assert.Equal(t, int32(1), l.defaultCalls.Load())

	// Cached within the TTL.
	e.DefaultCatalog(context.Background())
	assert.Equal(t, int32(1), l.defaultCalls.Load())

	// Expired after it.
	e.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	e.DefaultCatalog(context.Background())
	assert.Equal(t, int32(2), l.defaultCalls.Load())
}

func TestEngine_EmptyDefaultCatalogIsNotCached(t *testing.T) {
	l := &fakeLoader{}
	e := newTestEngine(t, l)

	assert.Equal(t, 0, e.DefaultCatalog(context.Background()).Len())
	assert.Equal(t, 0, e.DefaultCatalog(context.Background()).Len())
	assert.Equal(t, int32(2), l.defaultCalls.Load())
}

func TestEngine_Versions(t *testing.T) {
	l := &fakeLoader{versions: []string{"9.1.0", "9.0.0"}}
	e := newTestEngine(t, l)

	vs, err := e.Versions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"9.1.0", "9.0.0"}, vs)

	vs[0] = "mutated"
	vs, _ = e.Versions(context.Background())
	assert.Equal(t, "9.1.0", vs[0])
	assert.Equal(t, int32(1), l.versionsCalls.Load())

	e.Invalidate()
	_, _ = e.Versions(context.Background())
	assert.Equal(t, int32(2), l.versionsCalls.Load())
}

func TestEngine_VersionsErrorIsNotCached(t *testing.T) {
	l := &fakeLoader{versionsErr: errors.New("rate limited")}
	e := newTestEngine(t, l)

	_, err := e.Versions(context.Background())
	require.Error(t, err)
	_, err = e.Versions(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), l.versionsCalls.Load())
}

func TestEngine_Bootstrap(t *testing.T) {
	l := &fakeLoader{defaults: core("eqeqeq"), versions: []string{"9.0.0"}}
	e := newTestEngine(t, l)
	st := session.NewState("s", 10, time.Millisecond)

	e.Bootstrap(context.Background(), st)

	v := st.View()
	assert.Equal(t, 1, v.Catalog.Len())
	assert.Equal(t, []string{"9.0.0"}, v.Versions)
	assert.Equal(t, session.StatusIdle, v.Status)
}

func TestEngine_SelectVersion(t *testing.T) {
	l := &fakeLoader{catalogs: map[string][]catalog.Rule{"9.0.0": core("eqeqeq", "no-var")}}
	e := newTestEngine(t, l)
	st := session.NewState("s", 10, time.Millisecond)
	st.SetDefaultCatalog(catalog.New([]catalog.Rule{
		{Name: "react/jsx-key", Category: "react"},
		{Name: "old", Category: catalog.CoreCategory},
	}))

	applied, err := e.SelectVersion(context.Background(), st, "9.0.0")
	require.NoError(t, err)
	assert.True(t, applied)

	v := st.View()
	assert.Equal(t, session.StatusPopulated, v.Status)
	assert.Equal(t, "9.0.0", v.Selection.ToolVersion)
	assert.True(t, v.Catalog.Has("react/jsx-key"))
	assert.True(t, v.Catalog.Has("no-var"))
	assert.False(t, v.Catalog.Has("old"))
}

func TestEngine_SelectVersionFailureKeepsCatalog(t *testing.T) {
	l := &fakeLoader{}
	e := newTestEngine(t, l)
	st := session.NewState("s", 10, time.Millisecond)
	prev := catalog.New([]catalog.Rule{{Name: "react/jsx-key", Category: "react"}})
	st.SetDefaultCatalog(prev)

	applied, err := e.SelectVersion(context.Background(), st, "1.0.0")
	require.Error(t, err)
	assert.True(t, applied)

	v := st.View()
	assert.Equal(t, session.StatusErrored, v.Status)
	assert.Same(t, prev, v.Catalog)
	assert.Empty(t, v.Selection.ToolVersion)
}

func TestEngine_SelectVersionDropsStaleResult(t *testing.T) {
	slow := make(chan struct{})
	l := &fakeLoader{
		catalogs: map[string][]catalog.Rule{
			"8.0.0": core("from-eight"),
			"9.0.0": core("from-nine"),
		},
		gates: map[string]chan struct{}{"8.0.0": slow},
	}
	e := newTestEngine(t, l)
	st := session.NewState("s", 10, time.Millisecond)

	firstDone := make(chan bool)
	go func() {
		applied, _ := e.SelectVersion(context.Background(), st, "8.0.0")
		firstDone <- applied
	}()

	require.Eventually(t, func() bool {
		return st.View().PendingVersion == "8.0.0"
	}, time.Second, time.Millisecond)

	applied, err := e.SelectVersion(context.Background(), st, "9.0.0")
	require.NoError(t, err)
	assert.True(t, applied)

	close(slow)
	assert.False(t, <-firstDone)

	v := st.View()
	assert.Equal(t, "9.0.0", v.Selection.ToolVersion)
	assert.True(t, v.Catalog.Has("from-nine"))
	assert.False(t, v.Catalog.Has("from-eight"))
}

func TestEngine_SetLoaderInvalidates(t *testing.T) {
	first := &fakeLoader{defaults: core("a")}
	second := &fakeLoader{defaults: core("a", "b")}
	e := newTestEngine(t, first)

	assert.Equal(t, 1, e.DefaultCatalog(context.Background()).Len())
	e.SetLoader(second)
	assert.Equal(t, 2, e.DefaultCatalog(context.Background()).Len())
}

func TestEngine_RefreshSkipsVersionCatalogs(t *testing.T) {
	first := &fakeLoader{
		defaults: core("eqeqeq"),
		catalogs: map[string][]catalog.Rule{"9.0.0": core("no-var")},
	}
	e := newTestEngine(t, first)
	ctx := context.Background()

	plain := session.NewState("plain", 10, 0)
	pinned := session.NewState("pinned", 10, 0)
	e.Bootstrap(ctx, plain)
	e.Bootstrap(ctx, pinned)
	_, err := e.SelectVersion(ctx, pinned, "9.0.0")
	require.NoError(t, err)

	e.SetLoader(&fakeLoader{defaults: core("eqeqeq", "curly")})
	c := e.Refresh(ctx, plain, pinned)

	assert.Equal(t, 2, c.Len())
	assert.True(t, plain.Catalog().Has("curly"))
	assert.False(t, pinned.Catalog().Has("curly"), "a version catalog is not replaced")
	assert.True(t, pinned.Catalog().Has("no-var"))
}

func TestEngine_StartVersion(t *testing.T) {
	gate := make(chan struct{})
	l := &fakeLoader{
		catalogs: map[string][]catalog.Rule{"9.0.0": core("no-var")},
		gates:    map[string]chan struct{}{"9.0.0": gate},
	}
	e := newTestEngine(t, l)
	st := session.NewState("s", 10, 0)

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan bool, 1)
	e.StartVersion(ctx, st, "9.0.0", func(applied bool, err error) {
		assert.NoError(t, err)
		results <- applied
	})

	assert.Equal(t, session.StatusLoading, st.View().Status, "loading is visible before the load finishes")

	cancel()
	close(gate)

	select {
	case applied := <-results:
		assert.True(t, applied)
	case <-time.After(time.Second):
		t.Fatal("version load did not finish")
	}
	assert.Equal(t, session.StatusPopulated, st.View().Status, "request cancellation does not abort the load")
	assert.Equal(t, "9.0.0", st.Selection().ToolVersion)
}

// =============================================================================
// Default catalog racing a version load
// =============================================================================

func TestEngine_LateDefaultCatalogAddsPluginRules(t *testing.T) {
	l := &fakeLoader{
		defaults: []catalog.Rule{
			{Name: "eqeqeq", Category: catalog.CoreCategory},
			{Name: "react/jsx-key", Category: "react"},
		},
		versions: []string{"9.0.0"},
		delay:    200 * time.Millisecond,
		catalogs: map[string][]catalog.Rule{"9.0.0": core("curly")},
	}
	e := newTestEngine(t, l)
	st := session.NewState("s", 10, 0)

	bootstrapped := make(chan struct{})
	go func() {
		e.Bootstrap(context.Background(), st)
		close(bootstrapped)
	}()

	// The version load finishes while the default catalog is still loading.
	time.Sleep(10 * time.Millisecond)
	applied, err := e.SelectVersion(context.Background(), st, "9.0.0")
	require.NoError(t, err)
	require.True(t, applied)
	assert.False(t, st.Catalog().Has("react/jsx-key"))

	<-bootstrapped

	c := st.Catalog()
	assert.True(t, c.Has("react/jsx-key"), "plugin rules from the default catalog")
	assert.True(t, c.Has("curly"))
	assert.False(t, c.Has("eqeqeq"), "core rules stay those of the selected version")
	assert.Equal(t, "9.0.0", st.Selection().ToolVersion)
}

func TestEngine_DefaultCatalogDuringVersionLoad(t *testing.T) {
	gate := make(chan struct{})
	l := &fakeLoader{
		defaults: []catalog.Rule{
			{Name: "eqeqeq", Category: catalog.CoreCategory},
			{Name: "react/jsx-key", Category: "react"},
		},
		catalogs: map[string][]catalog.Rule{"9.0.0": core("curly")},
		gates:    map[string]chan struct{}{"9.0.0": gate},
	}
	e := newTestEngine(t, l)
	st := session.NewState("s", 10, 0)

	results := make(chan bool, 1)
	e.StartVersion(context.Background(), st, "9.0.0", func(applied bool, _ error) {
		results <- applied
	})

	// The default catalog lands while the load is in flight.
	require.Eventually(t, func() bool {
		return st.View().PendingVersion == "9.0.0"
	}, time.Second, time.Millisecond)
	e.Bootstrap(context.Background(), st)
	assert.True(t, st.Catalog().Has("eqeqeq"))

	close(gate)
	select {
	case applied := <-results:
		assert.True(t, applied)
	case <-time.After(time.Second):
		t.Fatal("version load did not finish")
	}

	c := st.Catalog()
	assert.True(t, c.Has("react/jsx-key"))
	assert.True(t, c.Has("curly"))
	assert.False(t, c.Has("eqeqeq"))
}

func TestEngine_RefreshUpdatesPluginRulesOfVersionCatalogs(t *testing.T) {
	first := &fakeLoader{
		defaults: []catalog.Rule{{Name: "react/jsx-key", Category: "react"}},
		catalogs: map[string][]catalog.Rule{"9.0.0": core("no-var")},
	}
	e := newTestEngine(t, first)
	ctx := context.Background()

	st := session.NewState("s", 10, 0)
	e.Bootstrap(ctx, st)
	_, err := e.SelectVersion(ctx, st, "9.0.0")
	require.NoError(t, err)

	e.SetLoader(&fakeLoader{defaults: []catalog.Rule{
		{Name: "curly", Category: catalog.CoreCategory},
		{Name: "import/no-cycle", Category: "import"},
	}})
	e.Refresh(ctx, st)

	c := st.Catalog()
	assert.True(t, c.Has("import/no-cycle"))
	assert.False(t, c.Has("react/jsx-key"))
	assert.True(t, c.Has("no-var"))
	assert.False(t, c.Has("curly"))
}
