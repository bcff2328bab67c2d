// Package metrics provides Prometheus metrics for the HTTP surface,
// checklist submissions and the species resolver cache.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes
const (
	SubmissionSuccess    = "success"
	SubmissionValidation = "validation_error"
	SubmissionNotFound   = "not_found"
	SubmissionError      = "error"
)

// Metrics holds every collector exposed at /metrics. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	submissionsTotal    *prometheus.CounterVec
	submittedSightings  prometheus.Counter
	speciesCacheLookups *prometheus.CounterVec
}

// New creates and registers the metrics on a fresh registry
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "birdbox_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "birdbox_http_request_duration_seconds",
				Help:    "Time taken for HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		submissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "birdbox_checklist_submissions_total",
				Help: "Checklist submissions by outcome",
			},
			[]string{"status"}, // status: success, validation_error, not_found, error
		),
		submittedSightings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "birdbox_submitted_sightings_total",
				Help: "Sightings written by successful checklist submissions",
			},
		),
		speciesCacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "birdbox_species_cache_lookups_total",
				Help: "Species name resolutions by cache result",
			},
			[]string{"result"}, // result: hit, miss
		),
	}

	for _, c := range []prometheus.Collector{
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.submissionsTotal,
		m.submittedSightings,
		m.speciesCacheLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTPRequest records one finished request. route is the matched
// mux pattern so that path parameters do not explode cardinality.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordSubmission counts a checklist submission outcome
func (m *Metrics) RecordSubmission(status string, sightings int) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(status).Inc()
	if status == SubmissionSuccess {
		m.submittedSightings.Add(float64(sightings))
	}
}

// RecordCacheLookup counts a species cache hit or miss
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.speciesCacheLookups.WithLabelValues(result).Inc()
}
