// Package metrics holds the bridge's Prometheus instruments. A nil *Metrics
// is valid and records nothing, so tests and tools can skip registration.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ircbridge"

// Result labels.
const (
	ResultOK          = "ok"
	ResultRejected    = "rejected"
	ResultRateLimited = "rate_limited"
	ResultError       = "error"
	ResultTicket      = "ticket"
)

type Metrics struct {
	reg *prometheus.Registry

	provisions       *prometheus.CounterVec
	authAttempts     *prometheus.CounterVec
	usernameRetries  prometheus.Counter
	hashDuration     *prometheus.HistogramVec
	ticketsIssued    prometheus.Counter
	housekeepingRows prometheus.Counter
}

// New registers every instrument, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		reg: reg,
		provisions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provisions_total",
				Help:      "Provisioning calls by result and whether a new mapping was created",
			},
			[]string{"result", "created"},
		),
		authAttempts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_callback_total",
				Help:      "Bouncer auth callback decisions by result",
			},
			[]string{"result"}, // ok, ticket, rejected, rate_limited, error
		),
		usernameRetries: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "username_collisions_total",
				Help:      "Derived usernames that collided and were retried with a new suffix",
			},
		),
		hashDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "credential_hash_seconds",
				Help:      "Time spent hashing or verifying credentials, including the wait for a hashing slot",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"op"}, // hash, verify
		),
		ticketsIssued: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_tickets_issued_total",
				Help:      "Single-use login tickets issued",
			},
		),
		housekeepingRows: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "housekeeping_deleted_rows_total",
				Help:      "Rows removed by the housekeeping worker",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) RecordProvision(result string, created bool) {
	if m == nil {
		return
	}
	c := "false"
	if created {
		c = "true"
	}
	m.provisions.WithLabelValues(result, c).Inc()
}

func (m *Metrics) RecordAuth(result string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordUsernameCollision() {
	if m == nil {
		return
	}
	m.usernameRetries.Inc()
}

func (m *Metrics) ObserveHash(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.hashDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) RecordTicketIssued() {
	if m == nil {
		return
	}
	m.ticketsIssued.Inc()
}

func (m *Metrics) RecordHousekeepingDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.housekeepingRows.Add(float64(n))
}
