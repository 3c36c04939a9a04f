// Package metrics provides Prometheus metrics for the recommendation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PurchasesRecordedTotal tracks purchase ingestion outcomes
	PurchasesRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nerdx",
			Subsystem: "purchase_graph",
			Name:      "purchases_total",
			Help:      "Total number of purchase ingestion attempts by outcome",
		},
		[]string{"status"},
	)

	// PurchaseRecordDuration tracks how long one ingestion transaction takes
	PurchaseRecordDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "nerdx",
			Subsystem: "purchase_graph",
			Name:      "record_duration_seconds",
			Help:      "Duration of purchase ingestion transactions in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// RecommendationQueriesTotal tracks recommendation queries by outcome
	RecommendationQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nerdx",
			Subsystem: "recommendations",
			Name:      "queries_total",
			Help:      "Total number of recommendation queries by outcome",
		},
		[]string{"status"},
	)

	// RecommendationQueryDuration tracks the co-purchase traversal latency
	RecommendationQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "nerdx",
			Subsystem: "recommendations",
			Name:      "query_duration_seconds",
			Help:      "Duration of recommendation traversals in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// EventsProcessedTotal tracks order events consumed from Kafka by outcome
	EventsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nerdx",
			Subsystem: "order_events",
			Name:      "processed_total",
			Help:      "Total number of order-completed events processed by outcome",
		},
		[]string{"status"},
	)

	// EventsDeadLetteredTotal tracks events shipped to the dead-letter topic
	EventsDeadLetteredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nerdx",
			Subsystem: "order_events",
			Name:      "dead_lettered_total",
			Help:      "Total number of order-completed events sent to the DLQ",
		},
		[]string{"reason"},
	)
)
