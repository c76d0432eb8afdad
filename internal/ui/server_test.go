package ui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/eslintcraft/internal/catalog"
	"github.com/leapstack-labs/eslintcraft/internal/engine"
	"github.com/leapstack-labs/eslintcraft/internal/metrics"
	"github.com/leapstack-labs/eslintcraft/internal/ui/features"
)

func newTestServer(t *testing.T, f *features.TestFixture, cfg Config) *Server {
	t.Helper()
	cfg.Engine = f.Engine
	cfg.Sessions = f.Sessions
	return NewServer(cfg)
}

func TestServer_Handler(t *testing.T) {
	f := features.SetupTestFixture(t, &features.FakeLoader{
		Defaults: features.Rules(catalog.CoreCategory, "eqeqeq"),
	})
	reg := prometheus.NewRegistry()
	metrics.New(reg).SetSessions(3)

	s := newTestServer(t, f, Config{Gatherer: reg})
	h, err := s.Handler()
	require.NoError(t, err)

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{path: "/healthz", wantStatus: http.StatusOK, wantBody: "OK"},
		{path: "/metrics", wantStatus: http.StatusOK, wantBody: "eslintcraft_ui_sessions_active 3"},
		{path: "/static/app.css", wantStatus: http.StatusOK},
		{path: "/", wantStatus: http.StatusOK, wantBody: "<!doctype html>"},
		{path: "/export?format=yaml", wantStatus: http.StatusOK, wantBody: "root: true"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestServer_Reload(t *testing.T) {
	f := features.SetupTestFixture(t, &features.FakeLoader{
		Defaults: features.Rules(catalog.CoreCategory, "eqeqeq"),
	})
	st := f.Sessions.Create()
	st.SetDefaultCatalog(f.Engine.DefaultCatalog(context.Background()))

	next := &features.FakeLoader{
		Defaults: features.Rules(catalog.CoreCategory, "eqeqeq", "curly"),
	}
	s := newTestServer(t, f, Config{
		Reload: func(context.Context) (engine.Loader, error) { return next, nil },
	})

	updates := s.Notifier().Subscribe(st.ID())
	defer s.Notifier().Unsubscribe(st.ID(), updates)

	s.reload(context.Background())

	assert.Equal(t, 2, st.Catalog().Len())
	select {
	case <-updates:
	default:
		t.Fatal("sessions were not notified")
	}
}

func TestServer_ReloadFailureKeepsSources(t *testing.T) {
	f := features.SetupTestFixture(t, &features.FakeLoader{
		Defaults: features.Rules(catalog.CoreCategory, "eqeqeq"),
	})
	st := f.Sessions.Create()
	st.SetDefaultCatalog(f.Engine.DefaultCatalog(context.Background()))

	s := newTestServer(t, f, Config{
		Reload: func(context.Context) (engine.Loader, error) { return nil, errors.New("invalid configuration") },
	})
	s.reload(context.Background())

	assert.Equal(t, 1, st.Catalog().Len())
	assert.Equal(t, 1, f.Engine.DefaultCatalog(context.Background()).Len())
}

func TestServer_WatchConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eslintcraft.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0600))

	f := features.SetupTestFixture(t, nil)
	var reloads atomic.Int32
	s := newTestServer(t, f, Config{
		Watch:      true,
		ConfigFile: path,
		Reload: func(context.Context) (engine.Loader, error) {
			reloads.Add(1)
			return &features.FakeLoader{}, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.watchConfig(ctx) }()

	// Writes to other files in the directory are filtered out.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0600)
		_ = os.WriteFile(path, []byte("log_level: debug\n"), 0600)
		return reloads.Load() > 0
	}, 3*time.Second, 200*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestSweepInterval(t *testing.T) {
	assert.Equal(t, time.Second, sweepInterval(time.Second))
	assert.Equal(t, 15*time.Minute/4, sweepInterval(15*time.Minute))
	assert.Equal(t, 10*time.Minute, sweepInterval(24*time.Hour))
}
