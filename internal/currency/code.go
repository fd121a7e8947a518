// Package currency holds the currency code syntax shared by configuration
// and request validation.
package currency

import "strings"

// ValidCode reports whether code is three ASCII letters, in either case.
func ValidCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i] | 0x20
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

// SplitPair splits "BASE/QUOTE" and reports whether both sides are valid
// codes. The codes are returned as written.
func SplitPair(pair string) (base, quote string, ok bool) {
	base, quote, found := strings.Cut(pair, "/")
	if !found || !ValidCode(base) || !ValidCode(quote) {
		return "", "", false
	}
	return base, quote, true
}
