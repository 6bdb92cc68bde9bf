package client

import (
	"testing"

	"sockethttp/application/http"

	"github.com/stretchr/testify/assert"
)

func TestReusable(t *testing.T) {
	testcases := []struct {
		desc       string
		keepAlive  bool
		version    http.Version
		connection string
		status     int
		expected   bool
	}{
		{desc: "http/1.1 default", keepAlive: true, version: http.Version11, expected: true},
		{desc: "client disabled keep-alive", keepAlive: false, version: http.Version11, expected: false},
		{desc: "server says close", keepAlive: true, version: http.Version11, connection: "Close", expected: false},
		{desc: "close among tokens", keepAlive: true, version: http.Version11, connection: "upgrade, close", expected: false},
		{desc: "http/1.0 default", keepAlive: true, version: http.Version{1, 0}, expected: false},
		{desc: "http/1.0 keep-alive", keepAlive: true, version: http.Version{1, 0}, connection: "Keep-Alive", expected: true},
		{desc: "switching protocols", keepAlive: true, version: http.Version11, status: 101, expected: false},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			status := tc.status
			if status == 0 {
				status = 200
			}
			res := &Response{Status: status, Version: tc.version, Headers: Headers{}}
			if tc.connection != "" {
				res.Headers["connection"] = tc.connection
			}
			assert.Equal(t, tc.expected, reusable(tc.keepAlive, res))
		})
	}
}

func TestHasBody(t *testing.T) {
	testcases := []struct {
		method   string
		status   int
		expected bool
	}{
		{method: "GET", status: 200, expected: true},
		{method: "POST", status: 302, expected: true},
		{method: "HEAD", status: 200, expected: false},
		{method: "GET", status: 204, expected: false},
		{method: "GET", status: 304, expected: false},
		{method: "GET", status: 101, expected: false},
	}

	for _, tc := range testcases {
		assert.Equal(t, tc.expected, hasBody(tc.method, tc.status), "%s %d", tc.method, tc.status)
	}
}

func TestIsInterim(t *testing.T) {
	for status, expected := range map[int]bool{100: true, 101: false, 103: true, 199: true, 200: false, 204: false} {
		assert.Equal(t, expected, isInterim(status), "%d", status)
	}
}
