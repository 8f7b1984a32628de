package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the agent/daemon.
type Metrics struct {
	registry       *prometheus.Registry
	AgentRuns      *prometheus.CounterVec
	AgentDuration  *prometheus.HistogramVec
	ToolExecutions *prometheus.CounterVec
	ApprovalVotes  *prometheus.CounterVec
	ActiveSession  *prometheus.GaugeVec
	TransportErrs  *prometheus.CounterVec
}

// NewMetrics constructs a metrics registry with agent collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "presentor_agent_runs_total",
		Help: "Total agent runs by terminal state",
	}, []string{"state"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "presentor_agent_duration_seconds",
		Help:    "Agent run duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"state"})

	toolExecs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "presentor_tool_executions_total",
		Help: "Tool executions by tool and status",
	}, []string{"tool", "status"})

	approvals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "presentor_approval_decisions_total",
		Help: "Approval decisions by outcome",
	}, []string{"decision"})

	active := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "presentor_transport_active_sessions",
		Help: "Active streaming sessions by transport",
	}, []string{"transport"})

	trErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "presentor_transport_errors_total",
		Help: "Transport-level errors (handler/streaming) by transport and reason",
	}, []string{"transport", "reason"})

	reg.MustRegister(runs, durs, toolExecs, approvals, active, trErrors)

	return &Metrics{
		registry:       reg,
		AgentRuns:      runs,
		AgentDuration:  durs,
		ToolExecutions: toolExecs,
		ApprovalVotes:  approvals,
		ActiveSession:  active,
		TransportErrs:  trErrors,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAgentRun records a terminal run state and its duration.
func (m *Metrics) RecordAgentRun(state string, duration time.Duration) {
	if m == nil {
		return
	}
	if state == "" {
		state = "unknown"
	}
	m.AgentRuns.WithLabelValues(state).Inc()
	m.AgentDuration.WithLabelValues(state).Observe(duration.Seconds())
}

// RecordToolExecution counts one tool invocation by result status.
func (m *Metrics) RecordToolExecution(tool, status string) {
	if m == nil {
		return
	}
	if tool == "" {
		tool = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.ToolExecutions.WithLabelValues(tool, status).Inc()
}

// RecordApprovalDecision counts an approve/reject decision.
func (m *Metrics) RecordApprovalDecision(decision string) {
	if m == nil {
		return
	}
	if decision == "" {
		decision = "unknown"
	}
	m.ApprovalVotes.WithLabelValues(decision).Inc()
}

// IncActiveSessions increments the active session gauge.
func (m *Metrics) IncActiveSessions(transport string) {
	if m == nil {
		return
	}
	m.ActiveSession.WithLabelValues(transport).Inc()
}

// DecActiveSessions decrements the active session gauge.
func (m *Metrics) DecActiveSessions(transport string) {
	if m == nil {
		return
	}
	m.ActiveSession.WithLabelValues(transport).Dec()
}

// RecordTransportError records a transport-level error.
func (m *Metrics) RecordTransportError(transport, reason string) {
	if m == nil {
		return
	}
	if transport == "" {
		transport = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	m.TransportErrs.WithLabelValues(transport, reason).Inc()
}
