package metrics

import (
	"SmartSignal/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
	fallbacks    *prometheus.CounterVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not panic.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		signalsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartsignal_signals_generated_total",
				Help: "Total number of generated signals",
			},
			[]string{"symbol", "confidence"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartsignal_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "smartsignal_last_price",
				Help: "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smartsignal_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartsignal_fallbacks_total",
				Help: "Times a collaborator failed and fallback data or text was served",
			},
			[]string{"source"},
		),
	}
}

// RecordSignal counts a generated signal.
func (r *Recorder) RecordSignal(symbol string, tier models.ConfidenceTier) {
	r.signalsTotal.WithLabelValues(symbol, tier.Level()).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordFallback counts a fallback served in place of source.
func (r *Recorder) RecordFallback(source string) {
	r.fallbacks.WithLabelValues(source).Inc()
}
