package metrics

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	sweepRuns    *prometheus.CounterVec
	sweepRemoved prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_http_requests_total",
			Help: "HTTP requests by method, route template and status code.",
		}, []string{"method", "route", "code"}),
		sweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notes_sweeper_runs_total",
			Help: "Retention sweeps by result.",
		}, []string{"result"}),
		sweepRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notes_sweeper_removed_total",
			Help: "Trashed notes purged by retention sweeps.",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.sweepRuns,
		m.sweepRemoved,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSweep records the outcome of one retention sweep.
func (m *Metrics) ObserveSweep(removed int64, err error) {
	if err != nil {
		m.sweepRuns.WithLabelValues("error").Inc()
		return
	}
	m.sweepRuns.WithLabelValues("ok").Inc()
	m.sweepRemoved.Add(float64(removed))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware counts requests by their route template so that note IDs do
// not become label values.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
	})
}
