// Package metrics exposes Prometheus counters for pipeline health. Served at
// /metrics by the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AppointmentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appointments_created_total",
			Help: "Appointments accepted and persisted as pending",
		},
		[]string{"country_iso"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_events_published_total",
			Help: "Lifecycle events published to the appointment topic",
		},
		[]string{"event_type"},
	)

	EnrichmentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichments_processed_total",
			Help: "Appointments enriched and upserted by country workers",
		},
		[]string{"country_iso"},
	)

	EnrichmentMisroutes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_misrouted_dropped_total",
			Help: "Messages dropped by a worker because the country did not match",
		},
		[]string{"country_iso"},
	)

	EnrichmentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_failures_total",
			Help: "Worker processing errors returned to the transport for retry",
		},
		[]string{"country_iso"},
	)

	MessagesDeadLettered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_dead_lettered_total",
			Help: "Messages moved to a queue's dead-letter area after exhausting redelivery",
		},
		[]string{"queue"},
	)

	CompletionsReconciled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "completions_reconciled_total",
			Help: "Completion events applied to the appointment store",
		},
	)

	ReconcileFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_failures_total",
			Help: "Completion events that failed to apply and were returned for retry",
		},
	)
)
