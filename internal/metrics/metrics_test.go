package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestObserveSweep(t *testing.T) {
	m := New()
	m.ObserveSweep(4, nil)
	m.ObserveSweep(2, nil)
	m.ObserveSweep(0, errors.New("locked"))

	out := scrape(t, m)
	assert.Contains(t, out, "notes_sweeper_removed_total 6")
	assert.Contains(t, out, `notes_sweeper_runs_total{result="ok"} 2`)
	assert.Contains(t, out, `notes_sweeper_runs_total{result="error"} 1`)
}

func TestRegistry_GathersCollectors(t *testing.T) {
	m := New()
	m.ObserveSweep(3, nil)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	byName := map[string]*dto.MetricFamily{}
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}
	require.Contains(t, byName, "notes_sweeper_removed_total")
	assert.Equal(t, 3.0, byName["notes_sweeper_removed_total"].GetMetric()[0].GetCounter().GetValue())
	assert.Contains(t, byName, "go_goroutines")
}

func TestMiddleware_UsesRouteTemplate(t *testing.T) {
	m := New()
	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/api/notes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	for _, path := range []string{"/api/notes/1", "/api/notes/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	out := scrape(t, m)
	assert.Contains(t, out, `notes_http_requests_total{code="404",method="GET",route="/api/notes/{id}"} 2`)
}
