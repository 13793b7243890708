package metrics

import (
	"sync"

	"github.com/arloliu/subwire/types"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Vectors are created and registered lazily on first use, so constructing a
// collector that is never exercised leaves the registry untouched.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	stateTransitions  *prometheus.CounterVec
	listenOutcomes    *prometheus.CounterVec
	listenDuration    *prometheus.HistogramVec
	provisionRequests *prometheus.CounterVec
	provisionLatency  *prometheus.HistogramVec
	provisionSkipped  *prometheus.CounterVec
	eventsForwarded   *prometheus.CounterVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "subwire" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "subwire"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.stateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "listener",
			Name:      "state_transitions_total",
			Help:      "Total listener state transitions by source and target state.",
		}, []string{"from", "to"})

		p.listenOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "listener",
			Name:      "listen_results_total",
			Help:      "Total listen invocations by result (success,failure).",
		}, []string{"result"})

		p.listenDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "listener",
			Name:      "listen_duration_seconds",
			Help:      "Time from listen to settlement in seconds by result.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms .. ~10s
		}, []string{"result"})

		p.provisionRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "provisioning",
			Name:      "requests_total",
			Help:      "Total topic/channel creation requests by resource and result.",
		}, []string{"resource", "result"})

		p.provisionLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "provisioning",
			Name:      "request_duration_seconds",
			Help:      "Latency of topic/channel creation requests in seconds.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"resource"})

		p.provisionSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "provisioning",
			Name:      "skipped_total",
			Help:      "Creation steps skipped because the resource was already created or auto-created.",
		}, []string{"resource"})

		p.eventsForwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "events",
			Name:      "forwarded_total",
			Help:      "Total broker notifications republished to observers by kind.",
		}, []string{"kind"})

		p.reg.MustRegister(p.stateTransitions)
		p.reg.MustRegister(p.listenOutcomes)
		p.reg.MustRegister(p.listenDuration)
		p.reg.MustRegister(p.provisionRequests)
		p.reg.MustRegister(p.provisionLatency)
		p.reg.MustRegister(p.provisionSkipped)
		p.reg.MustRegister(p.eventsForwarded)
	})
}

// RecordStateTransition increments the transition counter for from -> to.
func (p *PrometheusCollector) RecordStateTransition(from, to types.State) {
	p.ensureRegistered()
	p.stateTransitions.WithLabelValues(from.String(), to.String()).Inc()
}

// RecordListenOutcome counts a settled listen and observes its duration.
func (p *PrometheusCollector) RecordListenOutcome(success bool, duration float64) {
	p.ensureRegistered()
	result := resultLabel(success)
	p.listenOutcomes.WithLabelValues(result).Inc()
	p.listenDuration.WithLabelValues(result).Observe(duration)
}

// RecordProvisionRequest counts a creation request and observes its latency.
func (p *PrometheusCollector) RecordProvisionRequest(resource string, success bool, duration float64) {
	p.ensureRegistered()
	p.provisionRequests.WithLabelValues(resource, resultLabel(success)).Inc()
	p.provisionLatency.WithLabelValues(resource).Observe(duration)
}

// RecordProvisionSkipped counts a skipped creation step.
func (p *PrometheusCollector) RecordProvisionSkipped(resource string) {
	p.ensureRegistered()
	p.provisionSkipped.WithLabelValues(resource).Inc()
}

// RecordEventForwarded counts a republished notification.
func (p *PrometheusCollector) RecordEventForwarded(kind types.EventKind) {
	p.ensureRegistered()
	p.eventsForwarded.WithLabelValues(kind.String()).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}

	return "failure"
}
