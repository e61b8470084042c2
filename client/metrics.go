package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts session traffic. A nil *Metrics records nothing.
type Metrics struct {
	received   *prometheus.CounterVec
	sent       *prometheus.CounterVec
	malformed  *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	reconnects prometheus.Counter
	inWorld    prometheus.Gauge
}

// NewMetrics registers the client collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		received: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eo",
			Subsystem: "client",
			Name:      "messages_received_total",
			Help:      "Inbound messages by kind",
		}, []string{"kind"}),
		sent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eo",
			Subsystem: "client",
			Name:      "messages_sent_total",
			Help:      "Outbound messages by family and action",
		}, []string{"message"}),
		malformed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eo",
			Subsystem: "client",
			Name:      "messages_malformed_total",
			Help:      "Inbound messages dropped because they failed to parse",
		}, []string{"kind"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eo",
			Subsystem: "client",
			Name:      "commands_rejected_total",
			Help:      "Local commands rejected before sending",
		}, []string{"command", "reason"}),
		reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "eo",
			Subsystem: "client",
			Name:      "reconnects_total",
			Help:      "Manual reconnects",
		}),
		inWorld: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "eo",
			Subsystem: "client",
			Name:      "in_world",
			Help:      "1 while the session is in the game world",
		}),
	}
}

func (m *Metrics) incReceived(kind string) {
	if m != nil {
		m.received.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) incSent(message string) {
	if m != nil {
		m.sent.WithLabelValues(message).Inc()
	}
}

func (m *Metrics) incMalformed(kind string) {
	if m != nil {
		m.malformed.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) incRejected(command, reason string) {
	if m != nil {
		m.rejected.WithLabelValues(command, reason).Inc()
	}
}

func (m *Metrics) incReconnects() {
	if m != nil {
		m.reconnects.Inc()
	}
}

func (m *Metrics) setInWorld(in bool) {
	if m == nil {
		return
	}
	if in {
		m.inWorld.Set(1)
	} else {
		m.inWorld.Set(0)
	}
}
