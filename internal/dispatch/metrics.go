package dispatch

import "github.com/prometheus/client_golang/prometheus"

var (
	publishedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playguard",
		Subsystem: "dispatch",
		Name:      "messages_published_total",
		Help:      "Number of messages delivered to Kafka, by topic and event type.",
	}, []string{"topic", "event_type"})

	publishFailedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playguard",
		Subsystem: "dispatch",
		Name:      "publish_failures_total",
		Help:      "Number of failed Kafka deliveries per topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(publishedCounter, publishFailedCounter)
}

func recordPublished(topic, eventType string) {
	publishedCounter.WithLabelValues(topic, eventType).Inc()
}

func recordPublishFailed(topic string) {
	publishFailedCounter.WithLabelValues(topic).Inc()
}
