package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalTicketsOpened is the total number of tickets opened, by flow.
	TotalTicketsOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tick_tickets_opened_total",
		Help: "The total number of tickets opened",
	}, []string{"flow"})

	// TotalTicketsClosed is the total number of tickets closed, by reason.
	TotalTicketsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tick_tickets_closed_total",
		Help: "The total number of tickets closed",
	}, []string{"reason"})

	// TotalWatchdogScans is the total number of watchdog scans completed.
	TotalWatchdogScans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tick_watchdog_scans_total",
		Help: "The total number of watchdog scans completed",
	})
)
