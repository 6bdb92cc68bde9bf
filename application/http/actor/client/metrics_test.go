package client

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func (s *ClientTestSuite) TestMetrics() {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	s.Require().NoError(err)

	opts := DefaultOptions()
	opts.Metrics = metrics
	s.client = New(s.transport, s.logger, s.clock, opts)

	s.serve(s.addr, func(req receivedRequest) reply {
		switch req.Target {
		case "/moved":
			return redirectReply(301, "/")
		case "/bad":
			return reply{raw: "HTTP/1.1 200 OK\r\nbroken\r\n\r\n"}
		case "/drop":
			r := okReply("bye")
			r.hangup = true
			return r
		}
		return okReply("ok")
	})

	for _, path := range []string{"/moved", "/drop", "/", "/bad"} {
		_, _ = s.client.Request(context.Background(), "GET", "http://example.com"+path, nil)
	}

	// /moved dials, / reuses, /drop reuses then hangs up,
	// / writes into the dead conn, retries and dials, /bad reuses.
	s.Equal(2.0, testutil.ToFloat64(metrics.dials))
	s.Equal(4.0, testutil.ToFloat64(metrics.reuses))
	s.Equal(1.0, testutil.ToFloat64(metrics.retries))
	s.Equal(1.0, testutil.ToFloat64(metrics.redirects))
	s.Equal(1.0, testutil.ToFloat64(metrics.failures.WithLabelValues("protocol")))

	_, err = NewMetrics(reg)
	s.Error(err, "registering twice fails")
}

func (s *ClientTestSuite) TestFailureKind() {
	testcases := []struct {
		err  error
		kind string
	}{
		{err: newError(ErrConnection, nil), kind: "connection"},
		{err: newError(ErrConnectionAborted, nil), kind: "aborted"},
		{err: newError(ErrProtocol, nil), kind: "protocol"},
		{err: newError(ErrTooManyRedirects, nil), kind: "too_many_redirects"},
		{err: newError(ErrInvalidRequest, nil), kind: "invalid_request"},
		{err: context.Canceled, kind: "canceled"},
		{err: context.DeadlineExceeded, kind: "canceled"},
	}

	for _, tc := range testcases {
		s.Equal(tc.kind, failureKind(tc.err))
	}
}
