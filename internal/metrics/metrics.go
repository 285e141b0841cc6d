package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicketsIssued counts tickets created, by purchase method
	TicketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dreamstate",
			Name:      "tickets_issued_total",
			Help:      "The total number of tickets issued",
		},
		[]string{"method"},
	)

	// Fulfillments counts checkout completions by outcome (fulfilled, duplicate, rejected, failed)
	Fulfillments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dreamstate",
			Name:      "fulfillments_total",
			Help:      "Checkout fulfillment attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Verifications counts door scans by outcome (verified, already_verified, not_found, unauthorized)
	Verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dreamstate",
			Name:      "verifications_total",
			Help:      "Ticket verification attempts by outcome",
		},
		[]string{"outcome"},
	)

	NotificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dreamstate",
			Name:      "notification_failures_total",
			Help:      "Confirmation emails that could not be sent",
		},
	)

	ScoreEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dreamstate",
			Name:      "score_events_total",
			Help:      "Faction score ledger mutations by action",
		},
		[]string{"action"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dreamstate",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming handlers working behind the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Observe wraps a handler and records latency. route names the pattern, not the raw path.
func Observe(route func(*http.Request) string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		RequestDuration.
			WithLabelValues(r.Method, route(r), strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
