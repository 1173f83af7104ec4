// Package metrics exposes Prometheus collectors for enrollment, verification,
// attendance and guest lifecycle events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "presenca"

// Verification outcomes
const (
	ResultMatch    = "match"
	ResultMismatch = "mismatch"
	ResultNoFace   = "no_face"
	ResultError    = "error"
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultValid    = "valid"
	ResultInvalid  = "invalid"
)

var (
	Enrollments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrollments_total",
		Help:      "Enrollment attempts by result.",
	}, []string{"result"})

	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verifications_total",
		Help:      "Verification attempts by result.",
	}, []string{"result"})

	VerificationDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "verification_distance",
		Help:      "Minimum descriptor distance observed at verification.",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 1.0, 1.5},
	})

	ExtractDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "extract_duration_seconds",
		Help:      "Latency of face descriptor extraction.",
		Buckets:   prometheus.DefBuckets,
	})

	AttendanceEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attendance_events_total",
		Help:      "Recorded check-ins and check-outs.",
	}, []string{"event", "identity_kind", "status"})

	TokenValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_validations_total",
		Help:      "Guest token validations by result.",
	}, []string{"result"})

	CleanupRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cleanup_runs_total",
		Help:      "Guest cleanup runs by result.",
	}, []string{"result"})

	CleanupDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cleanup_deleted_total",
		Help:      "Expired guests removed by cleanup.",
	})

	ActiveGuests = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_guests",
		Help:      "Guests whose retention has not elapsed.",
	})

	CheckedInToday = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "checked_in_today",
		Help:      "Attendance records for the current date.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)
