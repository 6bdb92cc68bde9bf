package uri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.4
func TestRefResolverResolve(t *testing.T) {
	baseURI, err := Parse("http://a/b/c/d;p?q")
	require.NoError(t, err)

	testcases := []struct {
		input  string
		output string
	}{
		// Normal examples.
		{"g:h", "g:h"},
		{"g", "http://a/b/c/g"},
		{"./g", "http://a/b/c/g"},
		{"g/", "http://a/b/c/g/"},
		{"/g", "http://a/g"},
		{"//g", "http://g"},
		{"?y", "http://a/b/c/d;p?y"},
		{"g?y", "http://a/b/c/g?y"},
		{"#s", "http://a/b/c/d;p?q#s"},
		{"g#s", "http://a/b/c/g#s"},
		{"g?y#s", "http://a/b/c/g?y#s"},
		{";x", "http://a/b/c/;x"},
		{"g;x", "http://a/b/c/g;x"},
		{"", "http://a/b/c/d;p?q"},
		{".", "http://a/b/c/"},
		{"./", "http://a/b/c/"},
		{"..", "http://a/b/"},
		{"../", "http://a/b/"},
		{"../g", "http://a/b/g"},
		{"../..", "http://a/"},
		{"../../", "http://a/"},
		{"../../g", "http://a/g"},
		// Abnormal examples.
		{"../../../g", "http://a/g"},
		{"../../../../g", "http://a/g"},
		{"/./g", "http://a/g"},
		{"/../g", "http://a/g"},
		{"g.", "http://a/b/c/g."},
		{".g", "http://a/b/c/.g"},
		{"g..", "http://a/b/c/g.."},
		{"..g", "http://a/b/c/..g"},
		{"./../g", "http://a/b/g"},
		{"./g/.", "http://a/b/c/g/"},
		{"g/./h", "http://a/b/c/g/h"},
		{"g/../h", "http://a/b/c/h"},
	}

	resolver, err := NewRefResolver(baseURI)
	require.NoError(t, err)

	for _, tc := range testcases {
		t.Run(tc.input, func(t *testing.T) {
			ref, err := Parse(tc.input)
			require.NoError(t, err)

			resolved := resolver.Resolve(ref)
			assert.Equal(t, tc.output, resolved.String())
		})
	}
}

func TestNewRefResolverRejectsRelativeBase(t *testing.T) {
	_, err := NewRefResolver(URI{Path: "/a"})
	assert.Error(t, err)
}

func TestRemoveDotSegments(t *testing.T) {
	assert.Equal(t, "/a/g", removeDotSegments("/a/b/c/./../../g"))
	assert.Equal(t, "mid/6", removeDotSegments("mid/content=5/../6"))
}
