// Package metrics exposes prometheus counters for the publish pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PublishDelivered counts prompt events acknowledged by the broker.
	PublishDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "echker_prompt_publish_delivered_total",
		Help: "Prompt-check events acknowledged by the broker.",
	})

	// PublishFailed counts prompt events whose delivery callback reported
	// a terminal failure.
	PublishFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "echker_prompt_publish_failed_total",
		Help: "Prompt-check events that failed broker delivery.",
	})

	// PublishQueueFull counts publishes rejected by producer backpressure.
	PublishQueueFull = promauto.NewCounter(prometheus.CounterOpts{
		Name: "echker_prompt_publish_queue_full_total",
		Help: "Prompt-check publishes rejected because the producer buffer was full.",
	})
)
