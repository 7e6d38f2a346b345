// Package telemetry exposes Prometheus metrics for audits and the HTTP API.
package telemetry

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	auditsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calaudit_audits_total",
			Help: "Total number of audit runs by detected source",
		},
		[]string{"source"},
	)

	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calaudit_events_total",
			Help: "Events seen per pipeline stage (parsed, filtered)",
		},
		[]string{"stage"},
	)

	warningsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "calaudit_warnings_total",
			Help: "Total number of ingestion warnings",
		},
	)

	refreshFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calaudit_refresh_failures_total",
			Help: "Scheduled refreshes that could not load their source",
		},
		[]string{"source_id"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "calaudit_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(auditsTotal)
	prometheus.MustRegister(eventsTotal)
	prometheus.MustRegister(warningsTotal)
	prometheus.MustRegister(refreshFailuresTotal)
	prometheus.MustRegister(apiRequestDuration)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAudit counts one audit run.
func RecordAudit(source string, parsed, filtered, warnings int) {
	auditsTotal.WithLabelValues(source).Inc()
	eventsTotal.WithLabelValues("parsed").Add(float64(parsed))
	eventsTotal.WithLabelValues("filtered").Add(float64(filtered))
	warningsTotal.Add(float64(warnings))
}

// RecordRefreshFailure counts a source that could not be refreshed.
func RecordRefreshFailure(sourceID string) {
	refreshFailuresTotal.WithLabelValues(sourceID).Inc()
}

// RecordAPIRequest observes one HTTP request. path should be the route
// template, not the raw URL, to keep label cardinality bounded.
func RecordAPIRequest(method, path string, status int, seconds float64) {
	apiRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(seconds)
}
