// Package observability ships a ready-made Prometheus instrumentation set
// for the engine lifecycle hooks.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendrilhq/tendril/pkg/domain"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	sessionsStarted *prometheus.CounterVec
	sessionsEnded   *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	nodesEntered    *prometheus.CounterVec
	nodesLeft       *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on reg. Pass
// prometheus.DefaultRegisterer to use the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tendril_sessions_started_total",
			Help: "Sessions created by a trigger match.",
		}, []string{"flow_id"}),
		sessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tendril_sessions_ended_total",
			Help: "Sessions terminated, by reason.",
		}, []string{"flow_id", "reason"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tendril_active_sessions",
			Help: "Sessions currently alive.",
		}),
		nodesEntered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tendril_nodes_entered_total",
			Help: "Node entries during traversal, by kind.",
		}, []string{"node_kind"}),
		nodesLeft: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tendril_nodes_left_total",
			Help: "Node completions, by kind and outcome.",
		}, []string{"node_kind", "outcome"}),
	}

	reg.MustRegister(
		m.sessionsStarted,
		m.sessionsEnded,
		m.activeSessions,
		m.nodesEntered,
		m.nodesLeft,
	)
	return m
}

// ActiveSessionsGauge exposes the live-session gauge for dashboards that
// read it directly.
func (m *Metrics) ActiveSessionsGauge() prometheus.Gauge {
	return m.activeSessions
}

// Hooks returns lifecycle hooks that feed the collectors. Pass the result to
// the engine via its hooks option.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(_ context.Context, ev *domain.SessionEvent) {
			m.sessionsStarted.WithLabelValues(ev.FlowID).Inc()
			m.activeSessions.Inc()
		},
		OnSessionEnd: func(_ context.Context, ev *domain.SessionEvent) {
			m.sessionsEnded.WithLabelValues(ev.FlowID, ev.Reason).Inc()
			m.activeSessions.Dec()
		},
		OnNodeEnter: func(_ context.Context, ev *domain.NodeEvent) {
			m.nodesEntered.WithLabelValues(ev.NodeKind).Inc()
		},
		OnNodeLeave: func(_ context.Context, ev *domain.NodeEvent) {
			outcome := "success"
			if ev.Failed {
				outcome = "failure"
			}
			m.nodesLeft.WithLabelValues(ev.NodeKind, outcome).Inc()
		},
	}
}
