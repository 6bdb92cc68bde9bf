package client

import (
	"io"

	"sockethttp/application/http"
	"sockethttp/transport"

	"github.com/pkg/errors"
)

// Error kinds returned by [Client.Request]. Match them with errors.Is.
var (
	// ErrConnection means the connection could not be established.
	ErrConnection = errors.New("connection failed")

	// ErrConnectionAborted means the connection broke while sending the request or awaiting the response.
	ErrConnectionAborted = errors.New("connection aborted")

	// ErrProtocol means the server sent something that is not HTTP/1.1.
	ErrProtocol = errors.New("protocol violation")

	// ErrTooManyRedirects means the redirect chain went past the configured maximum.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrInvalidRequest means the request could not be written as given.
	ErrInvalidRequest = errors.New("invalid request")
)

// Error carries the kind of failure along with its cause.
// Both match with errors.Is.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind, err error) *Error { return &Error{Kind: kind, Err: err} }

// classifyReadErr tells apart a server speaking garbage from a broken stream.
func classifyReadErr(err error) error {
	switch {
	case errors.Is(err, http.ErrMalformedMessage),
		errors.Is(err, io.ErrUnexpectedEOF):
		return newError(ErrProtocol, err)
	}
	return newError(ErrConnectionAborted, err)
}

// isStale reports whether err, raised before the first byte of the response,
// shows the server dropped the connection.
func isStale(err error) bool {
	return errors.Is(err, http.ErrNoResponse) ||
		errors.Is(err, transport.ErrConnClosed)
}
