// Package client implements an HTTP/1.1 client that keeps a single connection alive across requests.
package client

import (
	"context"
	"log/slog"
	"sync"

	"sockethttp/application/http"
	"sockethttp/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type Client struct {
	dialer transport.ConnDialer
	logger *slog.Logger
	clock  clock.Clock
	opts   Options

	mu   sync.Mutex // serializes requests, guards conn.
	conn *conn
}

func New(
	d transport.ConnDialer,
	logger *slog.Logger,
	clock clock.Clock,
	opts Options,
) *Client {
	return &Client{
		dialer: d,
		logger: logger,
		clock:  clock,
		opts:   opts,
	}
}

// Request sends a request to rawURL and returns the whole response, following redirects.
// body is sent verbatim; framing it (e.g. Content-Length) is up to the caller's headers.
// Host and Connection are managed by the client and are ignored in headers.
//
// Concurrent calls are served one at a time.
func (c *Client) Request(ctx context.Context, method, rawURL string, body []byte, headers ...http.Field) (*Response, error) {
	res, err := c.request(ctx, method, rawURL, body, headers)
	if err != nil {
		c.opts.Metrics.failed(err)
		return nil, err
	}
	return res, nil
}

func (c *Client) request(ctx context.Context, method, rawURL string, body []byte, headers []http.Field) (*Response, error) {
	target, err := parseTarget(rawURL)
	if err != nil {
		return nil, newError(ErrInvalidRequest, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for redirects := uint(0); ; redirects++ {
		request := buildRequest(method, target, c.opts.KeepAlive, body, headers)
		if err := request.Validate(); err != nil {
			return nil, newError(ErrInvalidRequest, err)
		}

		res, err := c.send(ctx, addrOf(target), request)
		if err != nil {
			return nil, err
		}

		if c.opts.Redirect.Disable {
			return res, nil
		}

		next, ok, err := redirectTarget(target, res)
		if err != nil {
			return nil, newError(ErrProtocol, errors.Wrap(err, "following redirect"))
		}
		if !ok {
			return res, nil
		}

		if redirects >= c.opts.maxRedirects() {
			return nil, newError(ErrTooManyRedirects, errors.Errorf("stopped after %d redirects at %s", redirects, next.String()))
		}

		c.opts.Metrics.redirected()
		c.logger.Debug("following redirect",
			slog.Int("status", res.Status),
			slog.String("from", target.String()),
			slog.String("to", next.String()),
		)
		target = next
	}
}

// send performs one exchange, retrying once on a fresh connection
// when the reused one turns out to be dead.
func (c *Client) send(ctx context.Context, addr transport.Addr, request http.Request) (*Response, error) {
	for attempt := 0; ; attempt++ {
		conn, err := c.ensureConnected(ctx, addr)
		if err != nil {
			return nil, err
		}

		res, retry, err := conn.roundtrip(ctx, request)
		if err != nil {
			c.discard("roundtrip failed", err)

			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.Wrap(ctxErr, "sending request")
			}
			if retry && attempt == 0 {
				c.opts.Metrics.retried()
				c.logger.Debug("retrying on a new connection", slog.String("addr", addr.String()))
				continue
			}
			return nil, err
		}

		if !reusable(c.opts.KeepAlive, res) {
			c.discard("connection not persistent", nil)
		}

		return res, nil
	}
}

// ensureConnected returns the open connection to addr, dialing a new one if needed.
// A connection to another address is closed first.
func (c *Client) ensureConnected(ctx context.Context, addr transport.Addr) (*conn, error) {
	if c.conn != nil {
		if c.conn.addr == addr {
			c.opts.Metrics.reused()
			c.logger.Debug("reusing connection", slog.String("addr", addr.String()))
			return c.conn, nil
		}
		c.discard("switching address", nil)
	}

	dialCtx := ctx
	if c.opts.Timeout.Dial > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = c.clock.WithTimeout(ctx, c.opts.Timeout.Dial)
		defer cancel()
	}

	con, err := c.dialer.Dial(dialCtx, addr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrap(ctxErr, "dialing")
		}
		return nil, newError(ErrConnection, errors.Wrapf(err, "dialing %s", addr))
	}

	c.opts.Metrics.dialed()
	c.logger.Debug("connected", slog.String("addr", addr.String()))
	c.conn = newConn(con, addr, c.clock, c.opts)

	return c.conn, nil
}

func (c *Client) discard(reason string, cause error) {
	if c.conn == nil {
		return
	}

	attrs := []any{slog.String("addr", c.conn.addr.String()), slog.String("reason", reason)}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	c.logger.Debug("closing connection", attrs...)

	if err := c.conn.close(); err != nil {
		c.logger.Debug("error while closing connection", slog.String("error", err.Error()))
	}
	c.conn = nil
}

// Close releases the kept connection. The client stays usable.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.close()
	c.conn = nil
	return errors.Wrap(err, "closing connection")
}

