package client

import (
	"bufio"
	"context"
	"io"
	"time"

	"sockethttp/application/http"
	"sockethttp/application/http/transfer"
	"sockethttp/application/util/rule"
	"sockethttp/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// conn is one persistent connection to addr.
type conn struct {
	con  transport.Conn
	addr transport.Addr

	br  *bufio.Reader
	enc *http.RequestEncoder
	dec *http.ResponseDecoder

	clock   clock.Clock
	timeout TimeoutOptions
}

func newConn(con transport.Conn, addr transport.Addr, clock clock.Clock, opts Options) *conn {
	br := bufio.NewReader(con)
	return &conn{
		con:     con,
		addr:    addr,
		br:      br,
		enc:     http.NewRequestEncoder(con, opts.Encode),
		dec:     http.NewResponseDecoder(br, opts.Decode),
		clock:   clock,
		timeout: opts.Timeout,
	}
}

func (c *conn) close() error { return c.con.Close() }

func (c *conn) deadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return c.clock.Now().Add(d)
}

// roundtrip writes request and reads the whole response.
// retry is set when the failure happened before any of the response arrived,
// which is how a connection silently closed by the server shows up.
// The connection must not be used again after an error.
func (c *conn) roundtrip(ctx context.Context, request http.Request) (_ *Response, retry bool, _ error) {
	// Cancellation unblocks pending I/O through an expired deadline.
	interrupted := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(interrupted)
		past := c.clock.Now().Add(-time.Second)
		c.con.SetWriteDeadLine(past)
		c.con.SetReadDeadLine(past)
	})
	defer func() {
		if !stop() {
			// Already running. Let it finish before the conn is handed out again.
			<-interrupted
		}
	}()

	c.con.SetWriteDeadLine(c.deadline(c.timeout.Write))
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	if err := c.enc.Encode(request); err != nil {
		if errors.Is(err, transport.ErrDeadLineExceeded) {
			return nil, false, newError(ErrConnectionAborted, errors.Wrap(err, "writing request"))
		}
		return nil, true, newError(ErrConnectionAborted, errors.Wrap(err, "writing request"))
	}

	c.con.SetReadDeadLine(c.deadline(c.timeout.Read))
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	// Only a failure before the first byte of the response may be retried.
	if _, err := c.br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			err = http.ErrNoResponse
		}
		return nil, isStale(err), classifyReadErr(errors.Wrap(err, "awaiting response"))
	}

	head, err := c.readFinalHead()
	if err != nil {
		return nil, false, classifyReadErr(errors.Wrap(err, "reading response head"))
	}

	var body []byte
	if hasBody(request.Method, head.StatusCode) {
		if body, err = transfer.ReadBody(c.br, head.Headers); err != nil {
			return nil, false, classifyReadErr(errors.Wrap(err, "reading response body"))
		}
	}

	return newResponse(head, body), false, nil
}

// readFinalHead skips interim 1xx responses and returns the head of the final one.
// 101 is final: the connection no longer speaks HTTP after it.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.2
func (c *conn) readFinalHead() (http.Response, error) {
	for {
		var head http.Response
		if err := c.dec.Decode(&head); err != nil {
			return http.Response{}, err
		}
		if !isInterim(head.StatusCode) {
			return head, nil
		}
	}
}

func isInterim(status int) bool {
	return status >= 100 && status < 200 && status != 101
}

// hasBody reports whether a response to method with status carries a body at all,
// whatever its framing headers say.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.1
func hasBody(method string, status int) bool {
	switch {
	case method == "HEAD":
		return false
	case status >= 100 && status < 200, status == 204, status == 304:
		return false
	}
	return true
}

// reusable reports whether the connection may carry another request after res.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-9.3
func reusable(keepAlive bool, res *Response) bool {
	if !keepAlive || res.Status == 101 {
		return false
	}

	connection, _ := res.Headers.Get("connection")
	if rule.HasToken(connection, "close") {
		return false
	}

	if res.Version.Less(http.Version11) {
		return rule.HasToken(connection, "keep-alive")
	}

	return true
}
