package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the DOL
// evidence engine.
type Metrics struct {
	Verifications        *prometheus.CounterVec // labels: event_type, operation={discover,verify}, outcome={success,client_error,error}
	VerificationDuration prometheus.Histogram
	RecordsPersisted     prometheus.Counter

	// Collaborator metrics.
	GeocodeRequests      *prometheus.CounterVec // labels: outcome={success,empty,error}
	GeocodeCache         *prometheus.CounterVec // labels: result={hit,miss}
	StationFetchDuration prometheus.Histogram
	StationFetchErrors   prometheus.Counter
	CandidatesBuilt      *prometheus.HistogramVec // labels: event_type
	AuditPublished       *prometheus.CounterVec   // labels: outcome={success,error}
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Verifications,
		m.VerificationDuration,
		m.RecordsPersisted,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.StationFetchDuration,
		m.StationFetchErrors,
		m.CandidatesBuilt,
		m.AuditPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so parallel tests avoid
// "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dol_engine",
			Name:      "verifications_total",
			Help:      "Verification pipeline runs by event type, operation, and outcome.",
		}, []string{"event_type", "operation", "outcome"}),
		VerificationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dol_engine",
			Name:      "verification_duration_seconds",
			Help:      "End-to-end duration of a verification pipeline run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RecordsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dol_engine",
			Name:      "records_persisted_total",
			Help:      "Verification records written to the store.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dol_engine",
			Name:      "geocode_requests_total",
			Help:      "Geocoding attempts by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dol_engine",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		StationFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dol_engine",
			Name:      "station_fetch_duration_seconds",
			Help:      "Per-station observation fetch duration.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		StationFetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dol_engine",
			Name:      "station_fetch_errors_total",
			Help:      "Station observation fetches that failed and were absorbed.",
		}),
		CandidatesBuilt: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dol_engine",
			Name:      "candidates_built",
			Help:      "Candidates produced per request, by event type.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		}, []string{"event_type"}),
		AuditPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dol_engine",
			Name:      "audit_published_total",
			Help:      "Verification records published to the audit stream, by outcome.",
		}, []string{"outcome"}),
	}
}
