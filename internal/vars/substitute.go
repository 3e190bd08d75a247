package vars

import (
	"regexp"
	"strings"
)

// placeholderPattern matches #{expression} tokens inside an authored string.
var placeholderPattern = regexp.MustCompile(`#\{([^{}]*)\}`)

// toNumberSuffix marks an expression that coerces its key's value to a
// number, or the empty string when absent or blank.
const toNumberSuffix = ".(toNumber)"

// ReplaceVariables resolves every #{...} placeholder in the input.
//
// Expression forms, part of the public wire contract:
//
//	#{pwd.<ciphertext>}    decrypt, password class
//	#{enc.<ciphertext>}    decrypt, generic class
//	#{<key>.(toNumber)}    look up key, coerce to number or empty string
//	#{<key>}               direct lookup
//	#{env.<NAME>}          resolve from the process environment
//
// Unresolvable bare keys pass through unchanged - the literal key text
// becomes the output - and log a one-time warning per key.
func (s *Store) ReplaceVariables(input string) string {
	if !strings.Contains(input, "#{") {
		return input
	}

	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := match[2 : len(match)-1]
		if strings.TrimSpace(expr) == "" {
			return match
		}
		return s.resolveExpression(expr, match)
	})
}

func (s *Store) resolveExpression(expr, original string) string {
	if cipher, ok := strings.CutPrefix(expr, "pwd."); ok {
		return s.decrypt(cipher, original)
	}
	if cipher, ok := strings.CutPrefix(expr, "enc."); ok {
		return s.decrypt(cipher, original)
	}

	if key, ok := strings.CutSuffix(expr, toNumberSuffix); ok {
		value := strings.TrimSpace(s.GetValue(key, true))
		if value == "" || !IsNumeric(value) {
			return ""
		}
		return value
	}

	// Bare key (env. prefixed keys resolve from the environment inside
	// GetValue). On miss the key text itself is the output.
	return s.GetValue(expr, false)
}

func (s *Store) decrypt(cipher, original string) string {
	if s.decrypter == nil {
		s.logger.Warn().Msg("Encrypted placeholder found but no decrypter configured - leaving literal")
		return original
	}
	plain, err := s.decrypter.Decrypt(cipher)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to decrypt placeholder value - leaving literal")
		return original
	}
	return plain
}
