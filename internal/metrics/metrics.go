// Package metrics exposes Prometheus instrumentation for the HTTP API and the
// credential flows.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth event names
const (
	EventRegister       = "register"
	EventLogin          = "login"
	EventLogout         = "logout"
	EventForgotPassword = "forgot_password"
	EventResetPassword  = "reset_password"
	EventUpdatePassword = "update_password"
)

// Auth event outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// HTTPRequests counts handled requests by route pattern and status.
// Use RegisterMetrics to register this with a Prometheus registry.
var HTTPRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shopit_http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"method", "route", "status"},
)

// HTTPDuration is the histogram for request latency.
var HTTPDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "shopit_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// AuthEvents counts credential lifecycle events by outcome
var AuthEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shopit_auth_events_total",
		Help: "Total number of authentication events",
	},
	[]string{"event", "outcome"},
)

// RegisterMetrics registers the package metrics with the given registry.
// Panics if registration fails.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(HTTPDuration)
	reg.MustRegister(AuthEvents)
}

// RecordAuthEvent increments the auth event counter. A nil err is a success.
func RecordAuthEvent(event string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	AuthEvents.WithLabelValues(event, outcome).Inc()
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Middleware records request count and latency labelled by the chi route pattern
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}
