package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalysesInFlight is the current number of outbound model calls running.
	AnalysesInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fontdetect",
		Subsystem: "analyzer",
		Name:      "analyses_in_flight",
		Help:      "Current number of font analyses being processed.",
	})

	// AnalysesTotal counts completed analyses by outcome.
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fontdetect",
		Subsystem: "analyzer",
		Name:      "analyses_total",
		Help:      "Total number of font analyses, labeled by result (success, empty, error).",
	}, []string{"result"})

	// AnalysisDurationSeconds is end-to-end time per analysis, including the
	// outbound model call and response parsing.
	AnalysisDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fontdetect",
		Subsystem: "analyzer",
		Name:      "analysis_duration_seconds",
		Help:      "End-to-end time to run one font analysis (model call + parse).",
		// Keep buckets fairly coarse to avoid high-cardinality time series.
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 60, 120},
	}, []string{"result"})

	// ActiveSessions is the current number of live analysis sessions.
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fontdetect",
		Subsystem: "analyzer",
		Name:      "active_sessions",
		Help:      "Current number of live analysis sessions.",
	})

	// UploadsTotal counts accepted image uploads.
	UploadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fontdetect",
		Subsystem: "analyzer",
		Name:      "uploads_total",
		Help:      "Total number of accepted image uploads.",
	})
)

// Register registers analyzer metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalysesInFlight,
			AnalysesTotal,
			AnalysisDurationSeconds,
			ActiveSessions,
			UploadsTotal,
		)
	})
}
