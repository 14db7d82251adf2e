// Package metrics exposes optional Prometheus instrumentation for the
// session layer. Every method has a nil receiver guard, so components take
// a *Metrics and call it unconditionally — a deployment that never
// constructs one pays no cost and emits nothing.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "opcua_session"

// Metrics holds the session layer's Prometheus collectors. The zero value
// is not usable directly — construct with New — but a nil *Metrics is: every
// method below tolerates it.
type Metrics struct {
	sessionsCreated  *prometheus.CounterVec
	sessionsActive   prometheus.Gauge
	sessionsClosed   *prometheus.CounterVec
	activationResult *prometheus.CounterVec
	discoveryQueue   *prometheus.GaugeVec
}

// New registers the session layer's collectors against reg and returns a
// Metrics handle. Pass prometheus.DefaultRegisterer for the global registry,
// or a fresh prometheus.NewRegistry() in tests to avoid collisions between
// parallel test binaries.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sessionsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "created_total",
			Help:      "Total CreateSession attempts, by outcome.",
		}, []string{"outcome"}),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Sessions currently occupying a table slot.",
		}),
		sessionsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "closed_total",
			Help:      "Total sessions closed, by status.",
		}, []string{"status"}),
		activationResult: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "activation_total",
			Help:      "Total ActivateSession attempts, by outcome.",
		}, []string{"outcome"}),
		discoveryQueue: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "queue_depth",
			Help:      "Waiting discovery requests, per channel configuration index.",
		}, []string{"channel_config_idx"}),
	}
}

// SessionCreated records a CreateSession outcome ("ok" or "failed") and
// updates the active gauge.
func (m *Metrics) SessionCreated(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.sessionsCreated.WithLabelValues("ok").Inc()
		m.sessionsActive.Inc()
	} else {
		m.sessionsCreated.WithLabelValues("failed").Inc()
	}
}

// SessionClosed records a session closure with its terminal status name.
func (m *Metrics) SessionClosed(status string) {
	if m == nil {
		return
	}
	m.sessionsClosed.WithLabelValues(status).Inc()
	m.sessionsActive.Dec()
}

// ActivationResult records an ActivateSession outcome with its status name
// ("good" on success).
func (m *Metrics) ActivationResult(status string) {
	if m == nil {
		return
	}
	m.activationResult.WithLabelValues(status).Inc()
}

// DiscoveryQueueDepth reports the current FIFO depth for one channel
// configuration index.
func (m *Metrics) DiscoveryQueueDepth(channelConfigIdx int, depth int) {
	if m == nil {
		return
	}
	m.discoveryQueue.WithLabelValues(strconv.Itoa(channelConfigIdx)).Set(float64(depth))
}
