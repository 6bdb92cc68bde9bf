package rule

import "strings"

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.2-2
func IsValidToken(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if IsAlpha(c) || IsDigit(c) {
			continue
		}

		switch c {
		case '!', '#', '$', '%', '&', '\'', '*', '+',
			'-', '.', '^', '_', '`', '|', '~':
			continue
		}

		return false
	}

	return true
}

// IsValidFieldValue rejects values that would break the field line,
// i.e. any CTL other than HTAB.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.5-2
func IsValidFieldValue(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; IsCTL(c) && c != HTAB {
			return false
		}
	}
	return true
}

// SplitList splits a comma separated field value into its trimmed, non-empty elements.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.1
func SplitList(value string) []string {
	elems := make([]string, 0)
	for _, elem := range strings.Split(value, ",") {
		elem = strings.TrimFunc(elem, IsOWS)
		if elem != "" {
			elems = append(elems, elem)
		}
	}
	return elems
}

// HasToken reports whether the list in value contains token, ignoring case.
func HasToken(value, token string) bool {
	for _, elem := range SplitList(value) {
		if strings.EqualFold(elem, token) {
			return true
		}
	}
	return false
}
