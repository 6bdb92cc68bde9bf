package client

import (
	"strconv"
	"strings"

	"sockethttp/application/http"
	"sockethttp/application/util/uri"
	"sockethttp/transport"

	"github.com/pkg/errors"
)

var defaultPorts = map[string]uint16{
	"http":  80,
	"https": 443,
}

// parseTarget parses an absolute http or https URL.
func parseTarget(rawURL string) (uri.URI, error) {
	u, err := uri.Parse(rawURL)
	if err != nil {
		return uri.URI{}, errors.Wrapf(err, "parsing url %q", rawURL)
	}

	if err := checkTarget(u); err != nil {
		return uri.URI{}, errors.Wrapf(err, "url %q", rawURL)
	}

	return u, nil
}

func checkTarget(u uri.URI) error {
	if _, ok := defaultPorts[u.Scheme]; !ok {
		return errors.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Authority == nil || u.Authority.Host == "" {
		return errors.New("host is missing")
	}
	return nil
}

func addrOf(u uri.URI) transport.Addr {
	port := defaultPorts[u.Scheme]
	if u.Authority.Port != nil {
		port = *u.Authority.Port
	}

	return transport.Addr{
		Host:   u.Authority.Host,
		Port:   port,
		Secure: u.Scheme == "https",
	}
}

// hostValue is the Host field value: the host, plus the port when it is not the scheme's default.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-7.2
func hostValue(u uri.URI) string {
	host := u.Authority.Host
	if port := u.Authority.Port; port != nil && *port != defaultPorts[u.Scheme] {
		host += ":" + strconv.FormatUint(uint64(*port), 10)
	}
	return host
}

// buildRequest puts Host and Connection first.
// Caller fields with either name are dropped so each is sent exactly once.
func buildRequest(method string, target uri.URI, keepAlive bool, body []byte, headers []http.Field) http.Request {
	connection := "Close"
	if keepAlive {
		connection = "Keep-Alive"
	}

	fields := make(http.Fields, 0, len(headers)+2)
	fields = append(fields,
		http.Field{Name: "Host", Value: hostValue(target)},
		http.Field{Name: "Connection", Value: connection},
	)

	for _, field := range headers {
		if strings.EqualFold(field.Name, "Host") || strings.EqualFold(field.Name, "Connection") {
			continue
		}
		fields = append(fields, field)
	}

	return http.NewRequest(method, target.RequestTarget(), fields, body)
}
