package compiler

import "strings"

const (
	// trailingPunct is stripped from the end of a query.
	trailingPunct = `+-!({[^~:\/&|=<>`
	// specialChars disable fuzziness for the whole query.
	specialChars = `:~^/+-!(){}[]*?\&|<>=@`
)

// Sanitize repairs raw query text so it always parses as query-string
// syntax. It is idempotent.
func Sanitize(q string) string {
	s := normalizeSpace(q)
	for {
		next := sanitizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func sanitizeOnce(s string) string {
	if strings.Count(s, `"`)%2 == 1 {
		i := strings.LastIndex(s, `"`)
		s = s[:i] + s[i+1:]
	}
	s = balanceParens(s)
	s = trimOperators(normalizeSpace(s))
	s = strings.TrimRight(s, trailingPunct)
	return normalizeSpace(s)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// trimOperators drops boolean operator tokens at both ends. A lone
// operator yields the empty string.
func trimOperators(s string) string {
	return strings.Join(trimOperatorTokens(strings.Fields(s)), " ")
}

func trimOperatorTokens(tokens []string) []string {
	for len(tokens) > 0 && isOperator(tokens[0]) {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && isOperator(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// balanceParens removes unmatched parentheses outside quoted phrases.
func balanceParens(s string) string {
	if !strings.ContainsAny(s, "()") {
		return s
	}
	drop := make(map[int]bool)
	var open []int
	quoted := false
	for i, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '(':
			open = append(open, i)
		case r == ')':
			if len(open) == 0 {
				drop[i] = true
			} else {
				open = open[:len(open)-1]
			}
		}
	}
	for _, i := range open {
		drop[i] = true
	}
	if len(drop) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if !drop[i] {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func isOperator(token string) bool {
	switch token {
	case "AND", "OR", "NOT":
		return true
	}
	return false
}

func hasSpecialChars(s string) bool {
	return strings.ContainsAny(s, specialChars)
}
