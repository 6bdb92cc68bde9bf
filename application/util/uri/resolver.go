package uri

import (
	"errors"
	"strings"
)

type RefResolver struct {
	base URI
}

func NewRefResolver(baseURI URI) (*RefResolver, error) {
	if baseURI.IsRelativeRef() {
		return nil, errors.New("baseURI cannot be relative ref")
	}
	return &RefResolver{base: baseURI}, nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.2
func (rr *RefResolver) Resolve(ref URI) (out URI) {
	out = ref

	defer func() { out.Path = removeDotSegments(out.Path) }()

	if out.Scheme != "" {
		return out
	}
	out.Scheme = rr.base.Scheme

	if out.Authority != nil {
		return out
	}
	out.Authority = rr.base.Authority

	if out.Path != "" {
		if !strings.HasPrefix(out.Path, "/") {
			out.Path = mergePath(rr.base, out)
		}
		return out
	}
	out.Path = rr.base.Path

	if out.Query != nil {
		return out
	}
	out.Query = rr.base.Query

	return out
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.3
func mergePath(base, ref URI) string {
	if base.Authority != nil && base.Path == "" {
		return "/" + ref.Path
	}

	if idx := strings.LastIndexByte(base.Path, '/'); idx >= 0 {
		return base.Path[:idx+1] + ref.Path
	}

	return ref.Path
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.4
func removeDotSegments(path string) string {
	out := make([]string, 0)
	pop := func() {
		if len(out) > 0 {
			out = out[:len(out)-1]
		}
	}

	for len(path) > 0 {
		var found bool
		// A. "../" or "./" prefix is removed.
		if path, found = strings.CutPrefix(path, "../"); found {
			continue
		}
		if path, found = strings.CutPrefix(path, "./"); found {
			continue
		}

		// B. "/./" or "/." is replaced with "/".
		if path, found = strings.CutPrefix(path, "/./"); found {
			path = "/" + path
			continue
		} else if path == "/." {
			path = "/"
			continue
		}

		// C. "/../" or "/.." is replaced with "/" and the last output segment is removed.
		if path, found = strings.CutPrefix(path, "/../"); found {
			pop()
			path = "/" + path
			continue
		} else if path == "/.." {
			pop()
			path = "/"
			continue
		}

		// D. "." or ".." alone is removed.
		if path == ".." || path == "." {
			break
		}

		// E. The first segment, with its leading "/", moves to the output.
		idx := strings.IndexByte(path[1:], '/') + 1
		if idx == 0 {
			idx = len(path)
		}
		out = append(out, path[:idx])
		path = path[idx:]
	}

	return strings.Join(out, "")
}
