package client

import (
	"strings"

	"sockethttp/application/http"
)

// Headers maps lower-cased field names to values.
// For a repeated field the last value wins.
type Headers map[string]string

func (h Headers) Get(name string) (string, bool) {
	v, ok := h[strings.ToLower(name)]
	return v, ok
}

type Response struct {
	Status  int
	Reason  string
	Version http.Version
	Headers Headers
	Body    []byte
}

func newResponse(head http.Response, body []byte) *Response {
	headers := make(Headers, len(head.Headers))
	for _, field := range head.Headers {
		headers[strings.ToLower(field.Name)] = field.Value
	}

	return &Response{
		Status:  head.StatusCode,
		Reason:  head.ReasonPhrase,
		Version: head.Version,
		Headers: headers,
		Body:    body,
	}
}
