package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"example.com/playguard/internal/domain"
	"example.com/playguard/internal/observability"
)

var (
	evaluationsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "playguard",
		Subsystem: "engine",
		Name:      "evaluations_total",
		Help:      "Number of evaluation passes run after a session closed.",
	})

	actionsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playguard",
		Subsystem: "engine",
		Name:      "actions_fired_total",
		Help:      "Number of enforcement actions fired, by kind and scope kind.",
	}, []string{"kind", "scope"})

	advisoriesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "playguard",
		Subsystem: "engine",
		Name:      "advisories_total",
		Help:      "Number of proactive advisories issued.",
	})

	suppressedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "playguard",
		Subsystem: "engine",
		Name:      "firings_suppressed_total",
		Help:      "Number of qualifying rules suppressed by dedup state.",
	})

	supersededCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "playguard",
		Subsystem: "engine",
		Name:      "firings_superseded_total",
		Help:      "Number of qualifying rules de-armed without applying because a more severe rule won the pass.",
	})

	anomaliesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "playguard",
		Subsystem: "engine",
		Name:      "clock_anomalies_total",
		Help:      "Number of sessions dropped for non-positive duration.",
	})

	sessionsOpenedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "playguard",
		Subsystem: "engine",
		Name:      "sessions_opened_total",
		Help:      "Number of sessions opened by the tracker.",
	})

	sessionsClosedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "playguard",
		Subsystem: "engine",
		Name:      "sessions_closed_total",
		Help:      "Number of sessions closed by the tracker.",
	})

	publishErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playguard",
		Subsystem: "engine",
		Name:      "publish_errors_total",
		Help:      "Number of failed downstream publishes, by payload kind.",
	}, []string{"payload"})
)

func init() {
	prometheus.MustRegister(
		evaluationsCounter,
		actionsCounter,
		advisoriesCounter,
		suppressedCounter,
		supersededCounter,
		anomaliesCounter,
		sessionsOpenedCounter,
		sessionsClosedCounter,
		publishErrorCounter,
	)
}

func recordEvaluation() {
	evaluationsCounter.Inc()
}

func recordActionFired(action domain.Action) {
	actionsCounter.WithLabelValues(string(action.Kind), string(action.Scope.Kind)).Inc()
	observability.RecordActionFired(action.At)
}

func recordAdvisory() {
	advisoriesCounter.Inc()
}

func recordSuppressed() {
	suppressedCounter.Inc()
}

func recordSuperseded() {
	supersededCounter.Inc()
}

func recordAnomaly() {
	anomaliesCounter.Inc()
}

func recordSessionOpened() {
	sessionsOpenedCounter.Inc()
}

func recordSessionClosed(d time.Duration) {
	sessionsClosedCounter.Inc()
	observability.RecordSessionClosed(time.Now().UTC(), d)
}

func recordPublishError(payload string) {
	publishErrorCounter.WithLabelValues(payload).Inc()
}
