// Package metrics provides Prometheus metrics definitions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rentalportal"

var (
	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPThrottled counts requests rejected by the per-client rate limiter.
	HTTPThrottled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "throttled_total",
			Help:      "Requests rejected with 429 by route",
		},
		[]string{"route"},
	)

	// DBPoolConnections tracks database connection pool state.
	DBPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "pool_connections",
			Help:      "Number of database connections by state",
		},
		[]string{"state"},
	)

	// AuthAttempts counts register and login attempts by outcome.
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Authentication attempts by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// PasswordHashDuration tracks bcrypt cost as seen by requests.
	PasswordHashDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "password_hash_duration_seconds",
			Help:      "Time spent hashing or comparing passwords",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2},
		},
		[]string{"operation"},
	)

	// BookingsCreated counts accepted booking requests.
	BookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "created_total",
			Help:      "Bookings accepted",
		},
	)
)
