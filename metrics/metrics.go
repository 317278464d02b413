package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Reconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_reconciliations_total",
			Help: "Reconciliation attempts by result",
		},
		[]string{"result"},
	)

	AttendeesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_attendees_created_total",
			Help: "Attendee rows written by reconciliation",
		},
	)

	PartialAllocations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tickets_partial_allocations",
			Help: "Purchases left with fewer seats than paid for, as of the last check",
		},
	)

	Webhooks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_webhooks_total",
			Help: "Payment webhook deliveries by event type and result",
		},
		[]string{"type", "result"},
	)

	Checkins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_checkins_total",
			Help: "Check-in actions by outcome",
		},
		[]string{"action"},
	)

	PollAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tickets_poll_attempts",
			Help:    "Success-page attempts needed before a ticket was confirmed",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
	)

	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_emails_total",
			Help: "Outbound emails by kind and result",
		},
		[]string{"kind", "result"},
	)
)
