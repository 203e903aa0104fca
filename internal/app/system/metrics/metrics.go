// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// AuthzDecisions counts policy outcomes by check name and outcome
	// (allow|deny).
	AuthzDecisions *prometheus.CounterVec

	MembershipRequests *prometheus.CounterVec
	TicketTransitions  *prometheus.CounterVec
	LoginAttempts      *prometheus.CounterVec
	MigrationsApplied  prometheus.Counter
}

// NewMetrics creates the collectors and registers them on registry.
// A nil registry gets a fresh one with the Go and process collectors.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "villahub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "villahub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthzDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "villahub_authz_decisions_total",
				Help: "Access policy decisions by check and outcome",
			},
			[]string{"check", "outcome"},
		),
		MembershipRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "villahub_group_membership_requests_total",
				Help: "Group membership requests by result",
			},
			[]string{"result"},
		),
		TicketTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "villahub_ticket_transitions_total",
				Help: "Ticket status transitions by target status",
			},
			[]string{"to"},
		),
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "villahub_login_attempts_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		MigrationsApplied: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "villahub_migrations_applied_total",
				Help: "Data migrations applied by this process",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthzDecisions,
		m.MembershipRequests,
		m.TicketTransitions,
		m.LoginAttempts,
		m.MigrationsApplied,
	)
	return m
}

// Decision records one policy outcome and returns allowed unchanged.
// It is safe on a nil *Metrics.
func (m *Metrics) Decision(check string, allowed bool) bool {
	if m == nil {
		return allowed
	}
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	m.AuthzDecisions.WithLabelValues(check, outcome).Inc()
	return allowed
}

// Membership records a membership request result.
func (m *Metrics) Membership(result string) {
	if m != nil {
		m.MembershipRequests.WithLabelValues(result).Inc()
	}
}

// Transition records a ticket status change.
func (m *Metrics) Transition(to string) {
	if m != nil {
		m.TicketTransitions.WithLabelValues(to).Inc()
	}
}

// Login records a login attempt result.
func (m *Metrics) Login(result string) {
	if m != nil {
		m.LoginAttempts.WithLabelValues(result).Inc()
	}
}

// Migration records an applied migration.
func (m *Metrics) Migration() {
	if m != nil {
		m.MigrationsApplied.Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware instruments requests. Routes are labeled by chi route pattern
// so ids in paths do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
