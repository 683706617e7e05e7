// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Reminder dispatch
	DispatchTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wellnest_reminder_ticks_total",
			Help: "Reminder dispatch passes by outcome (ok, load_error, overlap_skipped); dropped counts minutes abandoned after a stall",
		},
		[]string{"outcome"},
	)

	RemindersMatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wellnest_reminders_matched_total",
			Help: "Active reminders whose time matched the current minute",
		},
	)

	RemindersDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wellnest_reminders_deduplicated_total",
			Help: "Matched reminders skipped because they were already sent this minute",
		},
	)

	// Notifications
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wellnest_notifications_total",
			Help: "Notification delivery attempts by transport and outcome (sent, failed, breaker_open)",
		},
		[]string{"transport", "outcome"},
	)

	InAppSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wellnest_inapp_subscribers",
			Help: "Open in-app reminder websocket connections",
		},
	)

	// Journal cache
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wellnest_journal_cache_hits_total",
			Help: "Journal list cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wellnest_journal_cache_misses_total",
			Help: "Journal list cache misses",
		},
	)

	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wellnest_http_requests_total",
			Help: "HTTP requests by method, route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wellnest_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
