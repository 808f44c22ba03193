// internal/infra/metrics/metrics.go
// Package metrics exposes run counters over HTTP while the daemon runs.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"econ_release_notifier/internal/app"
	"econ_release_notifier/internal/apperr"
)

const namespace = "econ_notifier"

// Server owns the metric set and the HTTP endpoint that serves it. Each
// Server registers against its own registry, so daemon restarts inside one
// process never collide.
type Server struct {
	registry *prometheus.Registry
	server   *http.Server

	runsTotal       *prometheus.CounterVec
	sentTotal       prometheus.Counter
	suppressedTotal prometheus.Counter
	lastCandidates  prometheus.Gauge
	lastRunAt       prometheus.Gauge
}

// NewServer builds the metric set and an HTTP server on addr serving
// /metrics and /healthz.
func NewServer(addr string) *Server {
	s := &Server{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs by outcome.",
		}, []string{"outcome"}),
		sentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Notifications delivered successfully.",
		}),
		suppressedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_suppressed_total",
			Help:      "Candidates suppressed by the dedup cooldown.",
		}),
		lastCandidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_candidates",
			Help:      "Candidate count of the most recent run.",
		}),
		lastRunAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the most recent run.",
		}),
	}
	s.registry.MustRegister(s.runsTotal, s.sentTotal, s.suppressedTotal, s.lastCandidates, s.lastRunAt)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// ObserveRun folds one run's report and outcome into the counters.
func (s *Server) ObserveRun(report *app.RunReport, runErr error) {
	s.runsTotal.WithLabelValues(outcomeLabel(runErr)).Inc()
	s.lastRunAt.SetToCurrentTime()
	if report == nil {
		return
	}
	s.sentTotal.Add(float64(report.Sent))
	s.suppressedTotal.Add(float64(report.Suppressed))
	s.lastCandidates.Set(float64(report.Candidates))
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	switch apperr.ClassOf(err) {
	case apperr.ClassUsage:
		return "usage"
	case apperr.ClassTransport:
		return "transport"
	default:
		return "internal"
	}
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Serve blocks until the listener fails or Shutdown is called.
func (s *Server) Serve() error {
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
