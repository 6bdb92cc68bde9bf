// Package tcp dials platform sockets, wrapping them in TLS for secure addresses.
package tcp

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"os"
	"syscall"
	"time"

	"sockethttp/transport"

	"github.com/pkg/errors"
)

type Dialer struct {
	tlsConfig *tls.Config
	dialer    net.Dialer
	logger    *slog.Logger
}

var _ transport.ConnDialer = (*Dialer)(nil)

// NewDialer creates a Dialer. tlsConfig may be nil, in which case a default config is used.
// ServerName is filled from the dialed host when the config leaves it empty.
func NewDialer(tlsConfig *tls.Config, logger *slog.Logger) *Dialer {
	return &Dialer{tlsConfig: tlsConfig, logger: logger}
}

func (d *Dialer) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	raw, err := d.dialer.DialContext(ctx, string(transport.TCP), addr.HostPort())
	if err != nil {
		return nil, convertErr(err)
	}

	if !addr.Secure {
		return &conn{Conn: raw, logger: d.logger}, nil
	}

	var config *tls.Config
	if d.tlsConfig != nil {
		config = d.tlsConfig.Clone()
	} else {
		config = &tls.Config{}
	}
	if config.ServerName == "" {
		host, _, _ := net.SplitHostPort(addr.HostPort())
		config.ServerName = host
	}

	tlsConn := tls.Client(raw, config)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		raw.Close()
		return nil, errors.Wrap(err, "tls handshake")
	}

	return &conn{Conn: tlsConn, logger: d.logger}, nil
}

// conn adapts net.Conn to transport.Conn.
type conn struct {
	net.Conn
	logger *slog.Logger
}

var _ transport.Conn = (*conn)(nil)

func (c *conn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	return n, convertErr(err)
}

func (c *conn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	return n, convertErr(err)
}

// SetReadDeadLine fails only on a closed connection, where the next Read reports it anyway.
func (c *conn) SetReadDeadLine(t time.Time) {
	if err := c.Conn.SetReadDeadline(t); err != nil {
		c.logger.Debug("setting read deadline", slog.String("error", err.Error()))
	}
}

func (c *conn) SetWriteDeadLine(t time.Time) {
	if err := c.Conn.SetWriteDeadline(t); err != nil {
		c.logger.Debug("setting write deadline", slog.String("error", err.Error()))
	}
}

// convertErr maps socket errors onto transport errors, keeping the original as cause.
// io.EOF passes through untouched.
func convertErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrDeadlineExceeded):
		return errors.Wrap(transport.ErrDeadLineExceeded, err.Error())
	case errors.Is(err, net.ErrClosed):
		return errors.Wrap(transport.ErrConnClosed, err.Error())
	case errors.Is(err, syscall.ECONNREFUSED):
		return errors.Wrap(transport.ErrConnRefused, err.Error())
	case errors.Is(err, syscall.ENETUNREACH):
		return errors.Wrap(transport.ErrNetUnreachable, err.Error())
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return errors.Wrap(transport.ErrConnClosed, err.Error())
	}
	return err
}
