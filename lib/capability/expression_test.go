// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package capability

import (
	"errors"
	"testing"
)

func TestParseExpressions(t *testing.T) {
	expressions, err := ParseExpressions("read:~data/public/**;write:~/data/{user}/docs/**")
	if err != nil {
		t.Fatalf("ParseExpressions: %v", err)
	}
	if len(expressions) != 2 {
		t.Fatalf("expected 2 expressions, got %d", len(expressions))
	}
	if expressions[0].Verb != VerbRead || expressions[0].Pattern != "~data/public/**" {
		t.Errorf("first expression = %+v", expressions[0])
	}
	if expressions[1].Verb != VerbWrite || expressions[1].Pattern != "~/data/{user}/docs/**" {
		t.Errorf("second expression = %+v", expressions[1])
	}
}

func TestParseExpressionsSingle(t *testing.T) {
	expressions, err := ParseExpressions("list:/data/**")
	if err != nil {
		t.Fatal(err)
	}
	if len(expressions) != 1 || expressions[0].Verb != VerbList {
		t.Errorf("expressions = %+v", expressions)
	}
}

func TestParseExpressionsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing separator", "read /data"},
		{"unknown verb", "chmod:/data/**"},
		{"empty pattern", "read:"},
		{"trailing semicolon", "read:/data/**;"},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExpressions(tt.input)
			if !errors.Is(err, ErrMalformedExpression) {
				t.Errorf("ParseExpressions(%q) error = %v, want ErrMalformedExpression", tt.input, err)
			}
		})
	}
}

func TestExpressionString(t *testing.T) {
	e := Expression{Verb: VerbWrite, Pattern: "~/data/{user}/**"}
	if e.String() != "write:~/data/{user}/**" {
		t.Errorf("String() = %q", e.String())
	}
}
