package client

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what the client does with its connection.
// A nil *Metrics records nothing.
type Metrics struct {
	dials     prometheus.Counter
	reuses    prometheus.Counter
	retries   prometheus.Counter
	redirects prometheus.Counter
	failures  *prometheus.CounterVec
}

// NewMetrics creates the client collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sockethttp",
			Subsystem: "client",
			Name:      name,
			Help:      help,
		})
	}

	m := &Metrics{
		dials:     counter("dials_total", "Connections dialed."),
		reuses:    counter("reuses_total", "Requests sent over an already open connection."),
		retries:   counter("retries_total", "Requests resent after the connection turned out dead."),
		redirects: counter("redirects_total", "Redirects followed."),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sockethttp",
			Subsystem: "client",
			Name:      "failures_total",
			Help:      "Requests that returned an error, by kind.",
		}, []string{"kind"}),
	}

	for _, c := range []prometheus.Collector{m.dials, m.reuses, m.retries, m.redirects, m.failures} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering client metrics")
		}
	}

	return m, nil
}

func (m *Metrics) dialed() {
	if m != nil {
		m.dials.Inc()
	}
}

func (m *Metrics) reused() {
	if m != nil {
		m.reuses.Inc()
	}
}

func (m *Metrics) retried() {
	if m != nil {
		m.retries.Inc()
	}
}

func (m *Metrics) redirected() {
	if m != nil {
		m.redirects.Inc()
	}
}

func (m *Metrics) failed(err error) {
	if m != nil {
		m.failures.WithLabelValues(failureKind(err)).Inc()
	}
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrConnection):
		return "connection"
	case errors.Is(err, ErrConnectionAborted):
		return "aborted"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrTooManyRedirects):
		return "too_many_redirects"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	}
	return "other"
}
