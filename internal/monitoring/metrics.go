package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	purchasesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "club95_purchases_total",
			Help: "Completed ticket purchases",
		},
	)

	purchaseFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "club95_purchase_failures_total",
			Help: "Rejected purchase attempts by reason",
		},
		[]string{"reason"},
	)

	ticketsSoldTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "club95_tickets_sold_total",
			Help: "Individual tickets sold across all tiers",
		},
	)

	refundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "club95_refunds_total",
			Help: "Order lines refunded by tier deletions",
		},
	)

	statusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "club95_event_status_transitions_total",
			Help: "Automatic event status transitions by new status",
		},
		[]string{"status"},
	)
)

func RecordPurchase(ticketCount int) {
	purchasesTotal.Inc()
	ticketsSoldTotal.Add(float64(ticketCount))
}

func RecordPurchaseFailure(reason string) {
	purchaseFailuresTotal.WithLabelValues(reason).Inc()
}

func RecordRefunds(lineCount int) {
	refundsTotal.Add(float64(lineCount))
}

func RecordStatusTransition(newStatus string) {
	statusTransitionsTotal.WithLabelValues(newStatus).Inc()
}
