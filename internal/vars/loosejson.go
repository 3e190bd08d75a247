package vars

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParseLooseOptions accepts the relaxed option syntax authored in steps
// (unquoted keys, single-quoted strings, bareword True/False/None, trailing
// commas) and returns a strict JSON object.
//
// Raw locator values written as locator: xpath=... / css=... / chain=...
// are masked behind placeholders before any other transform so that quote
// normalization cannot corrupt them, and restored verbatim as JSON strings
// just before parsing.
//
// Unparseable input fails with a descriptive error - a partial object is
// never returned.
func ParseLooseOptions(input string) (map[string]any, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || trimmed == `""` || trimmed == "''" {
		return map[string]any{}, nil
	}

	if !strings.HasPrefix(trimmed, "{") {
		trimmed = "{" + trimmed + "}"
	}

	work, locMasks := maskLocatorValues(trimmed)
	work = normalizeSingleQuotes(work)
	work, strMasks := maskQuotedStrings(work)
	work = quoteBareKeys(work)
	work = normalizePythonLiterals(work)
	work = stripTrailingCommas(work)
	work = restoreQuotedStrings(work, strMasks)
	work = restoreLocatorValues(work, locMasks)

	options := make(map[string]any)
	if err := json.Unmarshal([]byte(work), &options); err != nil {
		return nil, fmt.Errorf("unparseable options string %q: %w", input, err)
	}
	return options, nil
}

// locatorKeyPattern finds a locator key (quoted or bare) followed by a raw
// selector prefix. The value itself is extracted by scanLocatorValue so
// selectors containing commas inside brackets survive.
var locatorKeyPattern = regexp.MustCompile(`(?i)['"]?locator['"]?\s*:\s*(xpath|css|chain)\s*=`)

func maskLocatorValues(s string) (string, []string) {
	var masks []string
	var out strings.Builder
	rest := s
	for {
		m := locatorKeyPattern.FindStringSubmatchIndex(rest)
		if m == nil {
			out.WriteString(rest)
			break
		}
		// The value starts at the selector prefix (submatch 1) and runs to
		// the first comma or brace outside brackets and quotes.
		prefixStart := m[2]
		valueEnd := scanLocatorValue(rest, m[1])
		value := strings.TrimSpace(rest[prefixStart:valueEnd])

		out.WriteString(rest[:prefixStart])
		out.WriteString(fmt.Sprintf("@@loc%d@@", len(masks)))
		masks = append(masks, value)
		rest = rest[valueEnd:]
	}
	return out.String(), masks
}

// scanLocatorValue returns the index just past a raw selector value. The
// value ends at the first comma or closing brace at bracket depth zero;
// commas inside (), [] or quotes belong to the selector.
func scanLocatorValue(s string, from int) int {
	depth := 0
	var quote byte
	for i := from; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',', '}':
			if depth <= 0 {
				return i
			}
		}
	}
	return len(s)
}

func restoreLocatorValues(s string, masks []string) string {
	for i, value := range masks {
		token := fmt.Sprintf("@@loc%d@@", i)
		quoted := strconv.Quote(value)
		// The masking token may have been wrapped in quotes by the
		// normalization passes; consume them so the restored value is a
		// single well-formed JSON string.
		s = strings.Replace(s, `"`+token+`"`, quoted, 1)
		s = strings.Replace(s, token, quoted, 1)
	}
	return s
}

// quotedStringPattern matches a complete double-quoted span. Quoted spans
// are masked before key quoting and literal normalization so that commas,
// colons and barewords inside string values are never rewritten.
var quotedStringPattern = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)

func maskQuotedStrings(s string) (string, []string) {
	var masks []string
	masked := quotedStringPattern.ReplaceAllStringFunc(s, func(m string) string {
		token := fmt.Sprintf("@@str%d@@", len(masks))
		masks = append(masks, m)
		return token
	})
	return masked, masks
}

func restoreQuotedStrings(s string, masks []string) string {
	for i, value := range masks {
		s = strings.Replace(s, fmt.Sprintf("@@str%d@@", i), value, 1)
	}
	return s
}

var singleQuotedPattern = regexp.MustCompile(`'((?:[^'\\]|\\.)*)'`)

func normalizeSingleQuotes(s string) string {
	return singleQuotedPattern.ReplaceAllStringFunc(s, func(m string) string {
		inner := m[1 : len(m)-1]
		inner = strings.ReplaceAll(inner, `\'`, `'`)
		return strconv.Quote(inner)
	})
}

var bareKeyPattern = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_\-.]*)(\s*:)`)

func quoteBareKeys(s string) string {
	return bareKeyPattern.ReplaceAllString(s, `$1"$2"$3`)
}

var pythonLiteralPattern = regexp.MustCompile(`([:\[,]\s*)(True|False|None)(\s*[,}\]])`)

func normalizePythonLiterals(s string) string {
	replace := func(in string) string {
		return pythonLiteralPattern.ReplaceAllStringFunc(in, func(m string) string {
			sub := pythonLiteralPattern.FindStringSubmatch(m)
			var lit string
			switch sub[2] {
			case "True":
				lit = "true"
			case "False":
				lit = "false"
			case "None":
				lit = "null"
			}
			return sub[1] + lit + sub[3]
		})
	}
	// Two passes: adjacent literals ([True, False]) share the separator
	// consumed by the first match.
	return replace(replace(s))
}

var trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)

func stripTrailingCommas(s string) string {
	return trailingCommaPattern.ReplaceAllString(s, `$1`)
}
