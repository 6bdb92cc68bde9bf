// Package transport defines the byte streams the HTTP client runs on.
package transport

import (
	"net"
	"strconv"
	"strings"
)

type Protocol string

const (
	TCP Protocol = "tcp"
)

// Addr identifies a stream endpoint. Secure asks the dialer for a TLS wrapped stream.
type Addr struct {
	Host   string // IP literals may keep their brackets.
	Port   uint16
	Secure bool
}

// HostPort returns the address in "host:port" form, suitable for net.Dial.
func (a Addr) HostPort() string {
	host := strings.TrimSuffix(strings.TrimPrefix(a.Host, "["), "]")
	return net.JoinHostPort(host, strconv.FormatUint(uint64(a.Port), 10))
}

func (a Addr) String() string {
	if a.Secure {
		return "tls://" + a.HostPort()
	}
	return "tcp://" + a.HostPort()
}
