package uri

import (
	"strings"

	"sockethttp/application/util/rule"

	"github.com/pkg/errors"
)

// containsCTL also rejects SP, which can't appear in a request line.
func containsCTL(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; rule.IsCTL(c) || c == rule.SP {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func isSubDelim(c byte) bool {
	switch c {
	case '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=':
		return true
	}
	return false
}

func isUnreserved(c byte) bool {
	if rule.IsAlpha(rune(c)) || rule.IsDigit(rune(c)) {
		return true
	}
	switch c {
	case '-', '.', '_', '~':
		return true
	}
	return false
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.1
func assertValidScheme(scheme string) error {
	if len(scheme) == 0 {
		return errors.New("scheme is empty")
	}

	if !rule.IsAlpha(rune(scheme[0])) {
		return errors.New("first character of scheme is not alphabet")
	}

	for i := 1; i < len(scheme); i++ {
		c := scheme[i]
		if rule.IsAlpha(rune(c)) || rule.IsDigit(rune(c)) {
			continue
		}
		if c == '+' || c == '-' || c == '.' {
			continue
		}
		return errors.Errorf("invalid character %q in scheme", c)
	}

	return nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.2
func assertValidHost(host string) error {
	if strings.HasPrefix(host, "[") {
		if !strings.HasSuffix(host, "]") || len(host) < 3 {
			return errors.New("IP literal is not closed")
		}
		for i := 1; i < len(host)-1; i++ {
			c := host[i]
			if !isUnreserved(c) && !isSubDelim(c) && c != ':' {
				return errors.Errorf("invalid character %q in IP literal", c)
			}
		}
		return nil
	}

	for i := 0; i < len(host); i++ {
		c := host[i]
		// Non-ASCII is converted with IDNA afterwards.
		if c >= 0x80 || isUnreserved(c) || isSubDelim(c) || c == '%' {
			continue
		}
		return errors.Errorf("invalid character %q in host", c)
	}

	return nil
}

const upperhex = "0123456789ABCDEF"

// escapeNonASCII percent-encodes bytes outside of ASCII and leaves everything else.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc3987#section-3.1
func escapeNonASCII(s string) string {
	if isASCII(s) {
		return s
	}

	b := new(strings.Builder)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x80 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0F])
	}
	return b.String()
}
