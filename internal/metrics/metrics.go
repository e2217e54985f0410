package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Policy: какой tier вернул резолвер по каждому действию
	PolicyChecks *prometheus.CounterVec

	// Workflow: переходы конечного автомата заявок
	WorkflowTransitions *prometheus.CounterVec

	// Executor: классификация исходов (success, not_found, not_permitted, failed)
	ExecutorOutcomes *prometheus.CounterVec

	// Backend: латентность вызовов API по эндпоинтам
	BackendDuration *prometheus.HistogramVec

	// Saturation: состояние Circuit Breaker (0 - closed, 1 - half-open, 2 - open)
	CircuitBreakerState *prometheus.GaugeVec

	// Notify: заполненность очереди личных сообщений (backpressure)
	NotifyQueueFill prometheus.Gauge

	// Leveling
	XPAwards     *prometheus.CounterVec
	CacheLookups *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		PolicyChecks: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ultibot_policy_checks_total",
			Help: "Permission tier resolutions by action and tier.",
		}, []string{"action", "tier"}),

		WorkflowTransitions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ultibot_workflow_transitions_total",
			Help: "Approval workflow state transitions.",
		}, []string{"action", "state"}),

		ExecutorOutcomes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ultibot_executor_outcomes_total",
			Help: "Moderation action outcomes by type.",
		}, []string{"action", "outcome"}),

		BackendDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ultibot_backend_request_duration_seconds",
			Help:    "Histogram of backend API latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"endpoint", "status"}),

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "ultibot_circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open).",
		}, []string{"breaker"}),

		NotifyQueueFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "ultibot_notify_queue_utilization",
			Help: "Current number of direct messages waiting in the queue.",
		}),

		XPAwards: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ultibot_xp_awards_total",
			Help: "XP award attempts by result.",
		}, []string{"result"}), // awarded, level_up, cooldown, disabled, ignored_role, failed

		CacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ultibot_cache_lookups_total",
			Help: "Read-through cache lookups.",
		}, []string{"cache", "result"}),
	}
}
