package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"flood", "flood"},
		{"  flood   relief  ", "flood relief"},
		{`"disaster risk`, "disaster risk"},
		{`"disaster risk" "`, `"disaster risk"`},
		{`"disaster risk reduction"`, `"disaster risk reduction"`},
		{"AND flood", "flood"},
		{"flood OR", "flood"},
		{"NOT", ""},
		{"AND OR NOT", ""},
		{"flood AND drought", "flood AND drought"},
		{"flood -", "flood"},
		{"flood+", "flood"},
		{"flood AND (", "flood"},
		{"flood ~:", "flood"},
		{"flood \\", "flood"},
		{"(flood OR drought", "flood OR drought"},
		{"flood) AND drought", "flood AND drought"},
		{"(flood OR drought)", "(flood OR drought)"},
		{"and the", "and the"},
		{`health "AND`, "health"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "Sanitize(%q)", tt.in)
	}
}

func TestSanitize_Properties(t *testing.T) {
	inputs := []string{
		`"`, `""`, `"""`, `a "b" "c`, `OR "x`, `"x" AND`, `x AND "`,
		`NOT NOT x NOT`, `( ) [ ] { }`, `x^`, `x ~ OR -`, `@home`,
		`covid-19 "cases`, `a AND -`, `"AND"`, `title:"flood`, `-`, `AND "`,
		`(a OR (b AND c)`, `a)) OR b`, `"(" flood`, `x /`, `x = <`,
	}
	for _, in := range inputs {
		out := Sanitize(in)

		assert.Equal(t, out, Sanitize(out), "not idempotent for %q", in)
		assert.Zero(t, strings.Count(out, `"`)%2, "odd quotes in %q (from %q)", out, in)

		tokens := strings.Fields(out)
		if len(tokens) > 0 {
			assert.False(t, isOperator(tokens[0]), "%q starts with operator", out)
			assert.False(t, isOperator(tokens[len(tokens)-1]), "%q ends with operator", out)
		}
	}
}
