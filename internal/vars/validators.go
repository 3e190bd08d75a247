package vars

import (
	"strconv"
	"strings"
	"unicode"
)

// IsValidIdentifier reports whether s is a valid filter-expression
// identifier: a letter or underscore followed by letters, digits or
// underscores.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

// IsValidKeyPath reports whether s is a dotted path of valid identifiers,
// as used by store keys and resource-locator references.
func IsValidKeyPath(s string) bool {
	if s == "" {
		return false
	}
	for _, segment := range strings.Split(s, ".") {
		if !IsValidIdentifier(segment) {
			return false
		}
	}
	return true
}

// IsNumeric reports whether the raw value parses as a number. Used by the
// .(toNumber) placeholder form and by data-driven example expansion.
func IsNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
