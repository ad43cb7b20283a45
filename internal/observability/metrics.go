package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// widget backend.
type Metrics struct {
	FetchesTotal  *prometheus.CounterVec // labels: outcome={success,transport_error,malformed,rate_limited}
	FetchDuration prometheus.Histogram
	SeriesPoints  prometheus.Histogram

	ResponsesDiscarded   prometheus.Counter
	ReconcileTransitions *prometheus.CounterVec // labels: state
	InstancesOnSample    prometheus.Gauge

	// Transit board metrics.
	TransitFetches *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchesTotal,
		m.FetchDuration,
		m.SeriesPoints,
		m.ResponsesDiscarded,
		m.ReconcileTransitions,
		m.InstancesOnSample,
		m.TransitFetches,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "precip_timeline",
			Name:      "fetches_total",
			Help:      "Forecast fetch attempts by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "precip_timeline",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of one forecast fetch including decoding.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SeriesPoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "precip_timeline",
			Name:      "series_points",
			Help:      "Number of points in each built series.",
			Buckets:   []float64{0, 1, 6, 12, 24, 48},
		}),
		ResponsesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_timeline",
			Name:      "responses_discarded_total",
			Help:      "Fetch responses dropped because their correlation token matched no instance.",
		}),
		ReconcileTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "precip_timeline",
			Name:      "reconcile_transitions_total",
			Help:      "Reconciliation decisions by resulting state.",
		}, []string{"state"}),
		InstancesOnSample: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "precip_timeline",
			Name:      "instances_on_sample",
			Help:      "Number of instances currently showing the synthesized sample.",
		}),
		TransitFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "precip_timeline",
			Name:      "transit_fetches_total",
			Help:      "Transit departure fetches by outcome.",
		}, []string{"outcome"}),
	}
}
