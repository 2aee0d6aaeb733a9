package orchestrator

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes prometheus collectors that report orchestrator activity.
type Metrics struct {
	executions      *prometheus.CounterVec
	decisions       *prometheus.CounterVec
	handlerDuration *prometheus.HistogramVec
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// defaultMetrics returns the package-level instance registered with the
// global prometheus registry. The collectors are created only once to avoid
// duplicate registration panics when the orchestrator is instantiated
// multiple times.
func defaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics constructs a Metrics instance using the provided registerer.
// Callers supply a fresh registry when unique metric names are required (for
// example in tests). Registration errors panic, mirroring promauto semantics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	executions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "warden",
			Subsystem: "orchestrator",
			Name:      "executions_total",
			Help:      "Execution attempts by agent, action and outcome.",
		},
		[]string{"agent", "action", "status"},
	)
	decisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "warden",
			Subsystem: "orchestrator",
			Name:      "approval_decisions_total",
			Help:      "Approval decisions by verdict and idempotency.",
		},
		[]string{"decision", "idempotent"},
	)
	handlerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "warden",
			Subsystem: "orchestrator",
			Name:      "handler_duration_seconds",
			Help:      "Duration of agent action handler invocations.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"agent", "action"},
	)

	collectors := []prometheus.Collector{executions, decisions, handlerDuration}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				switch collector {
				case executions:
					executions = already.ExistingCollector.(*prometheus.CounterVec)
				case decisions:
					decisions = already.ExistingCollector.(*prometheus.CounterVec)
				case handlerDuration:
					handlerDuration = already.ExistingCollector.(*prometheus.HistogramVec)
				}
				continue
			}
			panic(err)
		}
	}

	return &Metrics{
		executions:      executions,
		decisions:       decisions,
		handlerDuration: handlerDuration,
	}
}

// IncExecution increments the execution counter.
func (m *Metrics) IncExecution(agent, action, status string) {
	if m == nil || m.executions == nil {
		return
	}
	m.executions.WithLabelValues(agent, action, status).Inc()
}

// IncDecision increments the decision counter.
func (m *Metrics) IncDecision(decision string, idempotent bool) {
	if m == nil || m.decisions == nil {
		return
	}
	label := "false"
	if idempotent {
		label = "true"
	}
	m.decisions.WithLabelValues(decision, label).Inc()
}

// ObserveHandlerDuration records a handler invocation duration.
func (m *Metrics) ObserveHandlerDuration(agent, action string, duration time.Duration) {
	if m == nil || m.handlerDuration == nil {
		return
	}
	m.handlerDuration.WithLabelValues(agent, action).Observe(duration.Seconds())
}
