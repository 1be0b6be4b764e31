package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by route and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendboard_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "code"})

	// HTTPDuration observes request latency by route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attendboard_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// ActiveSessions is the number of live sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "attendboard_sessions_active",
		Help: "Sessions currently held in memory.",
	})

	// OccurrencesUpserted counts created and updated events and weekly classes.
	OccurrencesUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendboard_occurrences_upserted_total",
		Help: "Events and weekly classes created or updated.",
	}, []string{"type", "action"})

	// AttendanceSaves counts committed fill-attendance saves.
	AttendanceSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendboard_attendance_saves_total",
		Help: "Attendance saves by occurrence type.",
	}, []string{"type"})

	// RecordsWritten counts attendance records written by saves.
	RecordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendboard_attendance_records_written_total",
		Help: "Attendance records written by saves.",
	})

	// Exports counts report downloads by format.
	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendboard_exports_total",
		Help: "Report exports by format.",
	}, []string{"format"})

	// BelowThreshold counts participants reported under the attendance threshold.
	BelowThreshold = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendboard_below_threshold_alerts_total",
		Help: "Participants flagged below the attendance threshold after a save.",
	})

	// RateLimited counts rejected requests.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendboard_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	})
)
