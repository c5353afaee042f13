package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector implements Collector with its own registry.
type PrometheusCollector struct {
	validations        *prometheus.CounterVec
	validationDuration prometheus.Histogram
	issued             prometheus.Counter
	generationFailures *prometheus.CounterVec
	geofenceChecks     *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewPrometheusCollector creates a collector registering under namespace
// (default "siteqr").
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	if namespace == "" {
		namespace = "siteqr"
	}

	pc := &PrometheusCollector{registry: prometheus.NewRegistry()}

	pc.validations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Token validations by terminal reason",
		},
		[]string{"reason"},
	)

	pc.validationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Time spent validating one token",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01},
		},
	)

	pc.issued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Tokens generated for sites",
		},
	)

	pc.generationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_failures_total",
			Help:      "Site records that failed to produce a token",
		},
		[]string{"kind"},
	)

	pc.geofenceChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geofence_checks_total",
			Help:      "Proximity checks by verdict",
		},
		[]string{"within"},
	)

	pc.registry.MustRegister(
		pc.validations,
		pc.validationDuration,
		pc.issued,
		pc.generationFailures,
		pc.geofenceChecks,
	)

	return pc
}

func (pc *PrometheusCollector) ValidationCompleted(reason string, duration time.Duration) {
	pc.validations.WithLabelValues(reason).Inc()
	pc.validationDuration.Observe(duration.Seconds())
}

func (pc *PrometheusCollector) TokenIssued() { pc.issued.Inc() }

func (pc *PrometheusCollector) GenerationFailed(kind string) {
	pc.generationFailures.WithLabelValues(kind).Inc()
}

func (pc *PrometheusCollector) GeofenceChecked(within bool) {
	pc.geofenceChecks.WithLabelValues(strconv.FormatBool(within)).Inc()
}

// Registry exposes the underlying registry.
func (pc *PrometheusCollector) Registry() *prometheus.Registry { return pc.registry }

// Handler serves the registry in the Prometheus exposition format.
func (pc *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(pc.registry, promhttp.HandlerOpts{})
}
