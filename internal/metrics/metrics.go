// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pdv"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_sync_runs_total",
		Help:      "External order sync runs by outcome (success, failed, skipped).",
	}, []string{"outcome"})

	SyncedOrders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_sync_orders_total",
		Help:      "Orders processed by sync, by result (created, updated, error).",
	}, []string{"result"})

	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_sync_duration_seconds",
		Help:      "Duration of a full external order sync.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	Classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "item_classifications_total",
		Help:      "Line items classified, by source (auto, manual, cascade).",
	}, []string{"source"})

	SalesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sales_created_total",
		Help:      "Point-of-sale sales recorded.",
	})

	TicketDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ticket_deliveries_total",
		Help:      "Ticket deliveries through the messaging gateway by outcome (sent, failed, disabled).",
	}, []string{"outcome"})

	AttendanceChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attendance_changes_total",
		Help:      "Attendance confirmations and cancellations by origin.",
	}, []string{"origin", "action"})
)
