package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidToken(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected bool
	}{
		{
			desc:     "valid token with alphabets",
			input:    "Token",
			expected: true,
		},
		{
			desc:     "valid token with digits",
			input:    "Token123",
			expected: true,
		},
		{
			desc:     "valid token with special characters",
			input:    "Token-._~",
			expected: true,
		},
		{
			desc:     "invalid token with space",
			input:    "Token 123",
			expected: false,
		},
		{
			desc:     "invalid token with special characters",
			input:    "Token@123",
			expected: false,
		},
		{
			desc:     "empty token",
			input:    "",
			expected: false,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			result := IsValidToken(tc.input)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestIsValidFieldValue(t *testing.T) {
	assert.True(t, IsValidFieldValue("text/plain; charset=utf-8"))
	assert.True(t, IsValidFieldValue("tab\tseparated"))
	assert.True(t, IsValidFieldValue(""))
	assert.False(t, IsValidFieldValue("evil\r\nInjected: yes"))
	assert.False(t, IsValidFieldValue("nul\x00"))
}

func TestSplitList(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected []string
	}{
		{
			desc:     "single element",
			input:    "chunked",
			expected: []string{"chunked"},
		},
		{
			desc:     "elements with OWS",
			input:    "gzip ,\tchunked",
			expected: []string{"gzip", "chunked"},
		},
		{
			desc:     "empty elements are dropped",
			input:    ", ,close,",
			expected: []string{"close"},
		},
		{
			desc:     "empty value",
			input:    "",
			expected: []string{},
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, SplitList(tc.input))
		})
	}
}

func TestHasToken(t *testing.T) {
	assert.True(t, HasToken("Keep-Alive", "keep-alive"))
	assert.True(t, HasToken("TE, close", "Close"))
	assert.False(t, HasToken("closed", "close"))
	assert.False(t, HasToken("", "close"))
}
