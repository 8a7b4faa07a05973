package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the geometry-to-ownership pipeline.
// All methods are safe on a nil receiver.
type Metrics struct {
	PolygonsExtracted  prometheus.Counter
	ExtractionFailures prometheus.Counter
	LookupDuration     *prometheus.HistogramVec
	OwnersResolved     prometheus.Histogram
	OwnersExcluded     prometheus.Counter
	LookupFailures     *prometheus.CounterVec
	CircuitOpen        prometheus.Gauge
}

// New registers all metrics with reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		PolygonsExtracted: factory.NewCounter(prometheus.CounterOpts{
			Name: "masseutsendelse_polygons_extracted_total",
			Help: "Total number of polygons extracted from uploaded drawings",
		}),
		ExtractionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "masseutsendelse_extraction_failures_total",
			Help: "Total number of drawings rejected by the extractor",
		}),
		LookupDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "masseutsendelse_matrikkel_lookup_duration_seconds",
			Help:    "Duration of registry lookups, including projection",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		OwnersResolved: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "masseutsendelse_owners_resolved",
			Help:    "Number of owners returned per polygon lookup",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		OwnersExcluded: factory.NewCounter(prometheus.CounterOpts{
			Name: "masseutsendelse_owners_excluded_total",
			Help: "Total number of owners removed by the exclusion list",
		}),
		LookupFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "masseutsendelse_matrikkel_lookup_failures_total",
			Help: "Registry lookup failures by error code and transport category",
		}, []string{"code", "category"}),
		CircuitOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "masseutsendelse_matrikkel_circuit_open",
			Help: "1 while the registry circuit breaker is open",
		}),
	}
}

func (m *Metrics) IncrementPolygonsExtracted(n int) {
	if m == nil {
		return
	}
	m.PolygonsExtracted.Add(float64(n))
}

func (m *Metrics) IncrementExtractionFailures() {
	if m == nil {
		return
	}
	m.ExtractionFailures.Inc()
}

// ObserveLookup records the duration of a registry lookup.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveLookup(endpoint string, start time.Time) {
	if m == nil {
		return
	}
	m.LookupDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveOwnersResolved(n int) {
	if m == nil {
		return
	}
	m.OwnersResolved.Observe(float64(n))
}

func (m *Metrics) IncrementOwnersExcluded(n int) {
	if m == nil || n == 0 {
		return
	}
	m.OwnersExcluded.Add(float64(n))
}

func (m *Metrics) IncrementLookupFailures(code, category string) {
	if m == nil {
		return
	}
	m.LookupFailures.WithLabelValues(code, category).Inc()
}

func (m *Metrics) SetCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitOpen.Set(1)
		return
	}
	m.CircuitOpen.Set(0)
}
