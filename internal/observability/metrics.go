package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	lastActionGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "playguard",
		Subsystem: "enforcement",
		Name:      "last_action_fired_timestamp_seconds",
		Help:      "Unix timestamp of the most recent enforcement action fired.",
	})
	lastSessionGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "playguard",
		Subsystem: "tracking",
		Name:      "last_session_closed_timestamp_seconds",
		Help:      "Unix timestamp of the most recent session closed.",
	})
	sessionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "playguard",
		Subsystem: "tracking",
		Name:      "session_duration_hours",
		Help:      "Closed session lengths in hours.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 12, 24},
	})
)

func init() {
	prometheus.MustRegister(lastActionGauge, lastSessionGauge, sessionDuration)
}

// RecordActionFired updates the enforcement watermark gauge.
func RecordActionFired(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastActionGauge.Set(float64(ts.Unix()))
}

// RecordSessionClosed updates the tracking watermark and the session
// length histogram.
func RecordSessionClosed(ts time.Time, d time.Duration) {
	if ts.IsZero() {
		return
	}
	lastSessionGauge.Set(float64(ts.Unix()))
	sessionDuration.Observe(d.Hours())
}
