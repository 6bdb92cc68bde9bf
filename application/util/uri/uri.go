package uri

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/idna"
)

// NOTE: Path, Query and Fragment hold escaped text.
type URI struct {
	Scheme    string
	Authority *Authority
	Path      string
	Query     *string
	Fragment  *string
}

type Authority struct {
	UserInfo string
	Host     string // IP literals keep their brackets.

	// Port is nil if the authority has no port.
	// Reference: datatracker.ietf.org/doc/html/rfc3986#section-3.2.3
	Port *uint16
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-4.2
func (u *URI) IsRelativeRef() bool {
	return u.Scheme == ""
}

// RequestTarget returns the origin-form of u. Fragment is never part of it.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2.1
func (u *URI) RequestTarget() string {
	target := u.Path
	if target == "" {
		target = "/"
	}
	if u.Query != nil {
		target += "?" + *u.Query
	}
	return target
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.3
func (u *URI) String() string {
	b := new(strings.Builder)
	if u.Scheme != "" {
		b.WriteString(u.Scheme)
		b.WriteByte(':')
	}

	if u.Authority != nil {
		b.WriteString("//")
		if u.Authority.UserInfo != "" {
			b.WriteString(u.Authority.UserInfo)
			b.WriteByte('@')
		}
		b.WriteString(u.Authority.Host)
		if u.Authority.Port != nil {
			b.WriteByte(':')
			b.WriteString(strconv.FormatUint(uint64(*u.Authority.Port), 10))
		}
	}

	b.WriteString(u.Path)

	if u.Query != nil {
		b.WriteByte('?')
		b.WriteString(*u.Query)
	}

	if u.Fragment != nil {
		b.WriteByte('#')
		b.WriteString(*u.Fragment)
	}

	return b.String()
}

// Parse parses an absolute URI or a relative reference.
// Non-ASCII characters are accepted the way browsers accept them: the host is
// converted with IDNA and the rest is percent-encoded.
func Parse(rawURL string) (URI, error) {
	if containsCTL(rawURL) {
		return URI{}, errors.New("URI should not contain CTL or space")
	}

	var uri URI

	// Get scheme
	scheme, rest, err := cutScheme(rawURL)
	if err != nil {
		return URI{}, errors.Wrap(err, "getting scheme")
	}
	// Scheme is recommended to be lowercase.
	uri.Scheme = strings.ToLower(scheme)

	if strings.HasPrefix(rest, "//") {
		var authorityRaw string
		authorityRaw, rest = rest[2:], ""
		if i := strings.IndexAny(authorityRaw, "/?#"); i >= 0 {
			authorityRaw, rest = authorityRaw[:i], authorityRaw[i:]
		}

		authority, err := parseAuthority(authorityRaw)
		if err != nil {
			return URI{}, errors.Wrap(err, "parsing authority")
		}

		uri.Authority = &authority
	}

	path, query, frag := splitPathQueryFrag(rest)

	if uri.Authority != nil && path != "" && !strings.HasPrefix(path, "/") {
		return URI{}, errors.New("path must begin with '/' when authority is present")
	}
	uri.Path = escapeNonASCII(path)

	if len(query) > 0 {
		// Strip '?' from query.
		query = escapeNonASCII(query[1:])
		uri.Query = &query
	}

	if len(frag) > 0 {
		// Strip '#' from fragment.
		frag = escapeNonASCII(frag[1:])
		uri.Fragment = &frag
	}

	return uri, nil
}

// cutScheme cuts scheme from rawURL. If scheme is not valid, it returns an error.
func cutScheme(rawURL string) (scheme, rest string, err error) {
	// A colon after the first '/', '?' or '#' belongs to the rest.
	end := len(rawURL)
	if i := strings.IndexAny(rawURL, "/?#"); i >= 0 {
		end = i
	}

	before, after, found := strings.Cut(rawURL[:end], ":")
	if !found {
		// If seperator is not found, scheme doesn't exist.
		return "", rawURL, nil
	}

	if err := assertValidScheme(before); err != nil {
		return "", "", err
	}

	return before, after + rawURL[end:], nil
}

func parseAuthority(raw string) (authority Authority, err error) {
	var userInfo, host string
	if i := strings.LastIndex(raw, "@"); i >= 0 {
		userInfo, host = raw[:i], raw[i+1:]
	} else {
		host = raw
	}
	authority.UserInfo = userInfo

	host, portPart, err := getHostPort(host)
	if err != nil {
		return Authority{}, errors.Wrap(err, "parsing host")
	}

	port, hasPort, err := parsePort(portPart)
	if err != nil {
		return Authority{}, errors.Wrap(err, "parsing port")
	}

	if hasPort {
		authority.Port = &port
	}

	if !isASCII(host) {
		if host, err = idna.Punycode.ToASCII(host); err != nil {
			return Authority{}, errors.Wrap(err, "converting host to ASCII")
		}
	}
	authority.Host = strings.ToLower(host)

	return authority, nil
}

func getHostPort(raw string) (host string, portPart string, err error) {
	if strings.HasPrefix(raw, "[") {
		// This is IP Literal.
		idx := strings.LastIndex(raw, "]")
		if idx < 0 {
			return "", "", errors.New("missing ']' in IP Literal")
		}

		host = raw[:idx+1]
		portPart = raw[idx+1:]
	} else {
		// ipv4 or reg-name.
		host = raw
		if idx := strings.LastIndex(raw, ":"); idx >= 0 {
			host = raw[:idx]
			portPart = raw[idx:]
		}
	}

	if err := assertValidHost(host); err != nil {
		return "", "", errors.Wrap(err, "host is not valid")
	}

	return host, portPart, nil
}

// This is not the same rule as RFC. See [Authority].
func parsePort(s string) (port uint16, hasPort bool, err error) {
	if s == "" {
		return 0, false, nil
	}

	if s[0] != ':' {
		return 0, false, errors.New("colon delimiter not found on port")
	}

	s = s[1:]
	if s == "" {
		// Empty port is the same as no port.
		// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-6.2.3
		return 0, false, nil
	}

	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to parse uint")
	}

	return uint16(n), true, nil
}

func splitPathQueryFrag(raw string) (path, query, frag string) {
	if idx := strings.IndexByte(raw, '#'); idx >= 0 {
		frag = raw[idx:]
		raw = raw[:idx]
	}

	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		query = raw[idx:]
		raw = raw[:idx]
	}

	path = raw
	return
}
