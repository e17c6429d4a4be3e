// Package metrics owns the Prometheus registry of the exporter and the
// HTTP server that exposes it for scraping.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/naka-gawa/github-stats-exporter/internal/domain"
	"github.com/naka-gawa/github-stats-exporter/internal/gateway"
)

const (
	namespace = "github_stats"

	openIssuesName = "open_issues_count"
	stargazersName = "stargazers_count"
)

// Gauge is an unlabelled gauge that is only exposed once it has been set.
type Gauge struct {
	vec *prometheus.GaugeVec
}

func newGauge(name, help string) *Gauge {
	return &Gauge{vec: prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, nil)}
}

// Set overwrites the gauge value.
func (g *Gauge) Set(v float64) {
	g.vec.WithLabelValues().Set(v)
}

// Metrics holds the repository gauges and the exporter's own health metrics.
type Metrics struct {
	Registry *prometheus.Registry

	OpenIssues *Gauge
	Stargazers *Gauge

	lastFetchSuccess     prometheus.Gauge
	lastSuccessTimestamp prometheus.Gauge
	fetchErrors          *prometheus.CounterVec
	fetchDuration        prometheus.Histogram
	rateLimitEvents      prometheus.Counter

	now func() time.Time
}

// New creates the metric handles and registers them on a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		OpenIssues: newGauge(openIssuesName, "count of issues in the repository"),
		Stargazers: newGauge(stargazersName, "count of stars in the repository"),

		lastFetchSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_fetch_success",
			Help:      "Whether the last fetch of the repository stats succeeded (1) or failed (0).",
		}),
		lastSuccessTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last successful fetch.",
		}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Total number of failed fetches by error kind.",
		}, []string{"kind"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of fetch cycles against the GitHub API.",
			Buckets:   prometheus.DefBuckets,
		}),
		rateLimitEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_events_total",
			Help:      "Total number of secondary rate limit responses from GitHub.",
		}),

		now: time.Now,
	}

	toRegister := []prometheus.Collector{
		m.OpenIssues.vec,
		m.Stargazers.vec,
		m.lastFetchSuccess,
		m.lastSuccessTimestamp,
		m.fetchErrors,
		m.fetchDuration,
		m.rateLimitEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		if err := m.Registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	for _, kind := range []string{gateway.KindRequest, gateway.KindDecode, gateway.KindStatus} {
		m.fetchErrors.WithLabelValues(kind)
	}

	return m, nil
}

// ObserveSuccess records a successful fetch cycle.
func (m *Metrics) ObserveSuccess(_ *domain.RepositoryStats, took time.Duration) {
	m.fetchDuration.Observe(took.Seconds())
	m.lastFetchSuccess.Set(1)
	m.lastSuccessTimestamp.Set(float64(m.now().Unix()))
}

// ObserveFailure records a failed fetch cycle.
func (m *Metrics) ObserveFailure(err error, took time.Duration) {
	m.fetchDuration.Observe(took.Seconds())
	m.lastFetchSuccess.Set(0)
	m.fetchErrors.WithLabelValues(gateway.Kind(err)).Inc()
}

// RateLimited counts a rate limit response.
func (m *Metrics) RateLimited() {
	m.rateLimitEvents.Inc()
}
