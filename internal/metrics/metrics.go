package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AuthEvents counts register/login/logout outcomes.
	AuthEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_events_total",
			Help: "Authentication events by kind and result",
		},
		[]string{"event", "result"},
	)

	// TodoOperations counts successful todo mutations by operation (create, update, delete).
	TodoOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_operations_total",
			Help: "Successful todo mutations by operation",
		},
		[]string{"op"},
	)

	// RevokedSessionsPruned counts revocation entries dropped by the janitor.
	RevokedSessionsPruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "revoked_sessions_pruned_total",
			Help: "Expired revocation entries removed from memory",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, AuthEvents, TodoOperations, RevokedSessionsPruned)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /todoitems/123 -> /todoitems/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncAuth records an auth event, e.g. IncAuth("login", "invalid_credentials").
func IncAuth(event, result string) {
	AuthEvents.WithLabelValues(event, result).Inc()
}

// IncTodo records a successful todo mutation.
func IncTodo(op string) {
	TodoOperations.WithLabelValues(op).Inc()
}

// AddPruned records n pruned revocation entries.
func AddPruned(n int) {
	if n > 0 {
		RevokedSessionsPruned.Add(float64(n))
	}
}
