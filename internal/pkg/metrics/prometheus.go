package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xdrpull",
			Subsystem: "collector",
			Name:      "runs_total",
			Help:      "Total number of collection runs",
		},
		[]string{"status"},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "xdrpull",
			Subsystem: "collector",
			Name:      "run_duration_seconds",
			Help:      "Duration of collection runs in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	pagesFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "xdrpull",
			Subsystem: "collector",
			Name:      "pages_fetched_total",
			Help:      "Total number of non-empty alert pages fetched",
		},
	)

	alertsRetrievedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "xdrpull",
			Subsystem: "collector",
			Name:      "alerts_retrieved_total",
			Help:      "Total number of alerts retrieved from the source",
		},
	)

	pageErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "xdrpull",
			Subsystem: "collector",
			Name:      "page_errors_total",
			Help:      "Total number of page fetch failures that ended a run",
		},
	)

	storageWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xdrpull",
			Subsystem: "storage",
			Name:      "writes_total",
			Help:      "Total number of storage writes",
		},
		[]string{"status"},
	)
)

// RecordRun records the outcome and duration of a collection run.
func RecordRun(status string, duration time.Duration) {
	runsTotal.WithLabelValues(status).Inc()
	runDuration.Observe(duration.Seconds())
}

// RecordPages records fetched pages and retrieved alerts for a run.
func RecordPages(pages, alerts int) {
	pagesFetchedTotal.Add(float64(pages))
	alertsRetrievedTotal.Add(float64(alerts))
}

// RecordPageError records a page fetch failure.
func RecordPageError() {
	pageErrorsTotal.Inc()
}

// RecordStorageWrite records a storage write outcome.
func RecordStorageWrite(status string) {
	storageWritesTotal.WithLabelValues(status).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
