package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New(reg), reg
}

func TestMetrics_ObserveFetch(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveFetch("index", OutcomeOK, 120*time.Millisecond)
	m.ObserveFetch("index", OutcomeOK, 80*time.Millisecond)
	m.ObserveFetch("index", OutcomeStatus, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetchRequests.WithLabelValues("index", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchRequests.WithLabelValues("index", OutcomeStatus)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.fetchDuration))
}

func TestMetrics_CacheAndCatalog(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveCache(CacheHit)
	m.ObserveCache(CacheHit)
	m.ObserveCache(CacheMiss)
	m.ObserveCatalogLoad("version", nil)
	m.ObserveCatalogLoad("version", errors.New("boom"))
	m.SetSessions(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues(CacheHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues(CacheMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogLoads.WithLabelValues("version", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogLoads.WithLabelValues("version", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sessionsActive))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFetch("core", OutcomeOK, time.Second)
		m.ObserveCache(CacheHit)
		m.ObserveCatalogLoad("default", nil)
		m.SetSessions(1)
	})
}

func TestHandler(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.SetSessions(2)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "eslintcraft_ui_sessions_active 2"), body)
}
