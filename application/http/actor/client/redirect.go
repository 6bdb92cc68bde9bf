package client

import (
	"sockethttp/application/util/uri"

	"github.com/pkg/errors"
)

// Redirects that are followed by re-issuing the same method and body.
var redirectStatuses = map[int]struct{}{
	301: {}, // Moved Permanently
	302: {}, // Found
	303: {}, // See Other
	307: {}, // Temporary Redirect
}

// redirectTarget returns where res points to, resolved against current.
// ok is false when res is not a redirect to follow.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-10.2.2
func redirectTarget(current uri.URI, res *Response) (_ uri.URI, ok bool, _ error) {
	if _, isRedirect := redirectStatuses[res.Status]; !isRedirect {
		return uri.URI{}, false, nil
	}

	location, found := res.Headers.Get("location")
	if !found || location == "" {
		return uri.URI{}, false, nil
	}

	ref, err := uri.Parse(location)
	if err != nil {
		return uri.URI{}, false, errors.Wrapf(err, "parsing location %q", location)
	}

	resolver, err := uri.NewRefResolver(current)
	if err != nil {
		return uri.URI{}, false, errors.Wrap(err, "creating resolver")
	}

	next := resolver.Resolve(ref)
	if err := checkTarget(next); err != nil {
		return uri.URI{}, false, errors.Wrapf(err, "location %q", location)
	}

	// A fragment is kept by the user agent, never sent.
	next.Fragment = nil

	return next, true, nil
}
