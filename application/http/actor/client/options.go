package client

import (
	"time"

	"sockethttp/application/http"
)

const DefaultMaxRedirects = 10

type Options struct {
	// KeepAlive asks the server to keep the connection open and reuses it for the next request.
	KeepAlive bool

	Redirect RedirectOptions
	Timeout  TimeoutOptions

	Encode http.EncodeOptions
	Decode http.DecodeOptions

	// Metrics is optional.
	Metrics *Metrics
}

type RedirectOptions struct {
	// Disable returns redirect responses to the caller as they are.
	Disable bool

	// Max is the number of redirects followed for one request.
	// Zero means [DefaultMaxRedirects].
	Max uint
}

// Zero value means no timeout. Context deadlines apply regardless.
type TimeoutOptions struct {
	Dial  time.Duration
	Read  time.Duration
	Write time.Duration
}

func DefaultOptions() Options {
	return Options{
		KeepAlive: true,
		Redirect:  RedirectOptions{Max: DefaultMaxRedirects},
		Encode:    http.DefaultEncodeOptions,
		Decode: http.DecodeOptions{
			// Servers in the wild still end lines with a bare LF.
			AllowSoleLF: true,
		},
	}
}

func (o Options) maxRedirects() uint {
	if o.Redirect.Max == 0 {
		return DefaultMaxRedirects
	}
	return o.Redirect.Max
}
