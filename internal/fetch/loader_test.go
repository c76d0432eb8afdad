package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/eslintcraft/internal/catalog"
	"github.com/leapstack-labs/eslintcraft/internal/testutil"
)

// remote is a fake raw-content host. Paths not in files answer 404.
type remote struct {
	srv *httptest.Server

	mu        sync.Mutex
	files     map[string]string
	requested []string
}

func newRemote(t *testing.T, files map[string]string) *remote {
	t.Helper()
	r := &remote{files: files}
	r.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		r.requested = append(r.requested, req.URL.Path)
		body, ok := r.files[req.URL.Path]
		r.mu.Unlock()
		if !ok {
			http.NotFound(w, req)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(r.srv.Close)
	return r
}

func (r *remote) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.requested...)
}

func (r *remote) sources() Sources {
	s := DefaultSources()
	s.CoreRulesURL = r.srv.URL + "/eslint/main/eslint-all.js"
	s.TagsURL = r.srv.URL + "/tags"
	s.RawBaseURL = r.srv.URL + "/eslint"
	s.Plugins = []PluginSource{
		{Name: "react", URL: r.srv.URL + "/react/index.js"},
		{Name: "broken", URL: r.srv.URL + "/broken/index.js"},
		{Name: "@typescript-eslint", URL: r.srv.URL + "/ts/index.ts"},
	}
	return s
}

func newTestLoader(t *testing.T, r *remote) *Loader {
	t.Helper()
	return NewLoader(NewClient(ClientConfig{}), r.sources(), 4, testutil.NewTestLogger(t))
}

func TestLoader_LoadDefaultCatalog(t *testing.T) {
	r := newRemote(t, map[string]string{
		"/eslint/main/eslint-all.js": eslintAllJS,
		"/react/index.js":            reactListingJS,
		"/ts/index.ts":               `export default { 'no-explicit-any': noExplicitAny, "no-unused-vars": x };`,
	})

	rules := newTestLoader(t, r).LoadDefaultCatalog(context.Background())

	var names []string
	for _, rule := range rules {
		names = append(names, rule.Name)
	}
	assert.Equal(t, []string{
		"accessor-pairs",
		"array-callback-return",
		"arrow-body-style",
		"no-unused-vars",
		"eqeqeq",
		"react/boolean-prop-naming",
		"react/button-has-type",
		"react/jsx-key",
		"@typescript-eslint/no-explicit-any",
		"@typescript-eslint/no-unused-vars",
	}, names)

	assert.Equal(t, catalog.CoreCategory, rules[0].Category)
	assert.Equal(t, "react", rules[5].Category)
	assert.Equal(t, "@typescript-eslint", rules[8].Category)
}

func TestLoader_LoadDefaultCatalogNeverFails(t *testing.T) {
	r := newRemote(t, map[string]string{
		"/eslint/main/eslint-all.js": "module.exports = { rules: { broken( } }",
	})

	logger, records := testutil.NewCaptureLogger()
	l := NewLoader(NewClient(ClientConfig{}), r.sources(), 4, logger)

	rules := l.LoadDefaultCatalog(context.Background())
	assert.Empty(t, rules)
	assert.GreaterOrEqual(t, records.Count("core rules unavailable"), 1)
	assert.Equal(t, 3, records.Count("plugin rules unavailable"))
}

func versionFiles(prefix string) map[string]string {
	return map[string]string{
		prefix + "/packages/js/src/rules/index.js":          rulesIndexJS,
		prefix + "/packages/js/src/rules/eqeqeq.js":         eqeqeqJS,
		prefix + "/lib/rules/no-unused-vars.js":             noConsoleJS,
		prefix + "/packages/js/src/rules/accessor-pairs.js": brokenMetaJS,
	}
}

func TestLoader_LoadCatalogForVersion(t *testing.T) {
	r := newRemote(t, versionFiles("/eslint/v9.1.0"))
	l := newTestLoader(t, r)

	previous := catalog.New([]catalog.Rule{
		{Name: "react/jsx-key", Category: "react"},
		{Name: "old-core-rule", Category: catalog.CoreCategory},
	})

	got, err := l.LoadCatalogForVersion(context.Background(), "v9.1.0", previous)
	require.NoError(t, err)

	var names []string
	for _, rule := range got.Rules() {
		names = append(names, rule.Name)
	}
	assert.Equal(t, []string{
		"react/jsx-key",
		"accessor-pairs",
		"array-callback-return",
		"eqeqeq",
		"no-unused-vars",
	}, names)

	eq, _ := got.Get("eqeqeq")
	assert.Equal(t, catalog.CoreCategory, eq.Category)
	assert.Equal(t, "Best Practices", eq.DocsCategory)
	assert.True(t, eq.Fixable)

	// metadata found in the third directory
	unused, _ := got.Get("no-unused-vars")
	assert.True(t, unused.Recommended)

	// unparsable meta and missing files fall back to stubs
	for _, name := range []string{"accessor-pairs", "array-callback-return"} {
		rule, ok := got.Get(name)
		require.True(t, ok)
		assert.Equal(t, StubDescription, rule.Description, name)
		assert.Equal(t, catalog.CoreCategory, rule.Category, name)
		assert.Equal(t, catalog.OtherCategory, rule.DocsCategory, name)
	}

	assert.False(t, got.Has("old-core-rule"))
	assert.True(t, previous.Has("old-core-rule"), "previous catalog is not mutated")
}

func TestLoader_LoadCatalogForVersionFallsBackInOrder(t *testing.T) {
	files := map[string]string{
		"/eslint/v7.0.0/lib/rules/index.js":      legacyIndexJS,
		"/eslint/v7.0.0/lib/rules/no-console.js": noConsoleJS,
	}
	r := newRemote(t, files)

	got, err := newTestLoader(t, r).LoadCatalogForVersion(context.Background(), "7.0.0", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())

	var indexRequests []string
	for _, p := range r.paths() {
		if strings.HasSuffix(p, "index.js") {
			indexRequests = append(indexRequests, p)
		}
	}
	assert.Equal(t, []string{
		"/eslint/v7.0.0/packages/js/src/rules/index.js",
		"/eslint/v7.0.0/packages/eslint-core/src/rules/index.js",
		"/eslint/v7.0.0/lib/rules/index.js",
	}, indexRequests)
}

func TestLoader_LoadCatalogForVersionLogsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/eslint/v7.0.0/packages/js/src/rules/index.js":
			http.Error(w, "boom", http.StatusBadGateway)
		case "/eslint/v7.0.0/lib/rules/index.js":
			_, _ = w.Write([]byte(legacyIndexJS))
		default:
			http.NotFound(w, req)
		}
	}))
	t.Cleanup(srv.Close)

	sources := DefaultSources()
	sources.RawBaseURL = srv.URL + "/eslint"
	logger, records := testutil.NewCaptureLogger()
	l := NewLoader(NewClient(ClientConfig{}), sources, 4, logger)

	got, err := l.LoadCatalogForVersion(context.Background(), "7.0.0", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())

	// The 502 is worth a warning; the 404 is an ordinary fallback.
	assert.Equal(t, 1, records.Count("rule index candidate failed"))
	assert.Equal(t, 1, records.Count("rule index not found"))
}

func TestLoader_LoadCatalogForVersionAllIndexesMissing(t *testing.T) {
	r := newRemote(t, map[string]string{})

	previous := catalog.New([]catalog.Rule{
		{Name: "react/jsx-key", Category: "react"},
		{Name: "@typescript-eslint/no-explicit-any", Category: "@typescript-eslint"},
	})
	before := previous.Rules()

	got, err := newTestLoader(t, r).LoadCatalogForVersion(context.Background(), "1.0.0", previous)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, before, previous.Rules(), "plugin rules unchanged")
	assert.Len(t, r.paths(), 3)
}

func TestLoader_LoadCatalogForVersionEmptyIndex(t *testing.T) {
	r := newRemote(t, map[string]string{
		"/eslint/v2.0.0/packages/js/src/rules/index.js": "module.exports = {};",
	})

	_, err := newTestLoader(t, r).LoadCatalogForVersion(context.Background(), "2.0.0", nil)
	assert.ErrorIs(t, err, ErrParse)

	_, err = newTestLoader(t, r).LoadCatalogForVersion(context.Background(), " ", nil)
	assert.ErrorIs(t, err, ErrParse)
}

func TestLoader_ListVersions(t *testing.T) {
	r := newRemote(t, map[string]string{"/tags": tagsJSON})

	versions, err := newTestLoader(t, r).ListVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"9.1.0", "9.0.0", "8.57.0", "8.9.0", "nightly"}, versions)
}

func TestLoader_ListVersionsErrors(t *testing.T) {
	t.Run("network", func(t *testing.T) {
		r := newRemote(t, map[string]string{})
		_, err := newTestLoader(t, r).ListVersions(context.Background())
		assert.ErrorIs(t, err, ErrNetwork)
	})

	t.Run("parse", func(t *testing.T) {
		r := newRemote(t, map[string]string{"/tags": `{"message": "rate limited"}`})
		_, err := newTestLoader(t, r).ListVersions(context.Background())
		assert.ErrorIs(t, err, ErrParse)
	})
}

func TestSortVersions(t *testing.T) {
	versions := []string{"8.9.0", "latest", "10.0.0", "8.10.0", "9.0.0", "main"}
	SortVersions(versions)
	assert.Equal(t, []string{"10.0.0", "9.0.0", "8.10.0", "8.9.0", "latest", "main"}, versions)
}

func TestSources_URLs(t *testing.T) {
	s := DefaultSources()
	assert.Equal(t,
		"https://raw.githubusercontent.com/eslint/eslint/v8.57.0/lib/rules/index.js",
		s.IndexURLs("8.57.0")[2])
	assert.Equal(t,
		"https://raw.githubusercontent.com/eslint/eslint/v9.0.0/packages/eslint-core/src/rules/eqeqeq.js",
		s.RuleURLs("9.0.0", "eqeqeq")[1])
	assert.Equal(t,
		[]string{"react", "@typescript-eslint", "jsx-a11y", "@next/next", "import", "react-hooks"},
		s.PluginNames())
}
