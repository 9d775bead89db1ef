// File: metrics/metrics.go
// Package metrics exposes per-NetService Prometheus counters and
// gauges, enabled behind a NetServiceConfig.EnableMonitoring flag
// (server.App registers a set per transport only when it is true). The
// transports do not feed these collectors; their live counts are in
// netsvc.NetService.Stats.
// Grounded on api.APIMetrics's existence in the teacher repo (a shape
// the teacher defines but never wires to a backend) and on
// r3e-network-neo-miniapps-platform's real-world use of
// github.com/prometheus/client_golang for the concrete implementation.
// License: Apache-2.0

package metrics

import "github.com/prometheus/client_golang/prometheus"

// NetServiceMetrics tracks connection and traffic counters for one
// named NetService. Registered into a caller-supplied registry so
// multiple services (TCP, UDP) can coexist without name collisions.
type NetServiceMetrics struct {
	TotalConnections prometheus.Counter
	ActiveSessions   prometheus.Gauge
	MessagesIn       prometheus.Counter
	MessagesOut      prometheus.Counter
	BytesIn          prometheus.Counter
	BytesOut         prometheus.Counter
	SessionsEvicted  prometheus.Counter
}

// NewNetServiceMetrics builds and registers the metric set for a
// service named serviceName. Registration errors (e.g. duplicate
// registration against the same registry) are swallowed the way
// prometheus.MustRegister callers typically accept idempotent re-use in
// tests; callers that care should register once at startup.
func NewNetServiceMetrics(registry prometheus.Registerer, serviceName string) *NetServiceMetrics {
	labels := prometheus.Labels{"service": serviceName}
	m := &NetServiceMetrics{
		TotalConnections: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "netkernel_total_connections",
			Help:        "Total connections accepted since startup.",
			ConstLabels: labels,
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "netkernel_active_sessions",
			Help:        "Currently open sessions.",
			ConstLabels: labels,
		}),
		MessagesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "netkernel_messages_in_total",
			Help:        "Messages received.",
			ConstLabels: labels,
		}),
		MessagesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "netkernel_messages_out_total",
			Help:        "Messages sent.",
			ConstLabels: labels,
		}),
		BytesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "netkernel_bytes_in_total",
			Help:        "Bytes received.",
			ConstLabels: labels,
		}),
		BytesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "netkernel_bytes_out_total",
			Help:        "Bytes sent.",
			ConstLabels: labels,
		}),
		SessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "netkernel_sessions_evicted_total",
			Help:        "Sessions closed by the idle sweep.",
			ConstLabels: labels,
		}),
	}

	for _, c := range []prometheus.Collector{
		m.TotalConnections, m.ActiveSessions, m.MessagesIn,
		m.MessagesOut, m.BytesIn, m.BytesOut, m.SessionsEvicted,
	} {
		_ = registry.Register(c)
	}
	return m
}

// Nop returns a metrics set backed by an unregistered, private
// registry, so components can unconditionally call into *Metrics
// without a nil check when monitoring is disabled.
func Nop() *NetServiceMetrics {
	return NewNetServiceMetrics(prometheus.NewRegistry(), "disabled")
}
