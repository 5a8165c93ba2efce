// Package metrics exposes console activity to Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so several apps can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	events   *prometheus.CounterVec
	decision *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rbac_console",
			Name:      "events_total",
			Help:      "Notifications emitted by the editors",
		}, []string{"name", "type"}),
		decision: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rbac_console",
			Name:      "capability_checks_total",
			Help:      "Capability checks by capability and result",
		}, []string{"capability", "result"}), // result: granted|denied
	}

	m.registry.MustRegister(m.events, m.decision)
	return m
}

// TrackSessions publishes the number of open console sessions.
func (m *Metrics) TrackSessions(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "rbac_console",
		Name:      "open_sessions",
		Help:      "Console sessions currently open",
	}, func() float64 { return float64(count()) }))
}

// Emit counts the event; it makes Metrics usable as a notify.Notifier.
func (m *Metrics) Emit(e notify.Event) {
	m.events.WithLabelValues(e.Name, e.Type).Inc()
}

// Gate wraps inner and counts its decisions. Invalidation requests are
// passed through when inner supports them.
func (m *Metrics) Gate(inner access.Gate) access.Gate {
	return &countingGate{inner: inner, decision: m.decision}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

type countingGate struct {
	inner    access.Gate
	decision *prometheus.CounterVec
}

func (g *countingGate) CanAccess(ctx context.Context, p access.Principal, capability string) bool {
	ok := g.inner.CanAccess(ctx, p, capability)
	result := "denied"
	if ok {
		result = "granted"
	}
	g.decision.WithLabelValues(capability, result).Inc()
	return ok
}

func (g *countingGate) Invalidate(userID uint) {
	if inv, ok := g.inner.(access.Invalidator); ok {
		inv.Invalidate(userID)
	}
}

func (g *countingGate) Flush() {
	if inv, ok := g.inner.(access.Invalidator); ok {
		inv.Flush()
	}
}
