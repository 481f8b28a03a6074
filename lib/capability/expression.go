// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package capability

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedExpression reports a capability expression that cannot
// be parsed: missing verb separator, unknown verb, or empty pattern.
var ErrMalformedExpression = errors.New("malformed capability expression")

// Verb is an operation a capability can grant.
type Verb string

// The four verbs of the expression language. These are protocol
// constants shared with the capabilities store.
const (
	VerbList   Verb = "list"
	VerbRead   Verb = "read"
	VerbWrite  Verb = "write"
	VerbDelete Verb = "delete"
)

// ParseVerb validates a verb string.
func ParseVerb(s string) (Verb, error) {
	switch Verb(s) {
	case VerbList, VerbRead, VerbWrite, VerbDelete:
		return Verb(s), nil
	default:
		return "", fmt.Errorf("%w: unknown verb %q", ErrMalformedExpression, s)
	}
}

// Expression is a single verb:pattern grant.
type Expression struct {
	// Verb is the operation granted.
	Verb Verb

	// Pattern is the path pattern, possibly containing {user}, "*",
	// "**", or an unexpanded leading "~alias".
	Pattern string
}

// String returns the wire form "verb:pattern".
func (e Expression) String() string {
	return string(e.Verb) + ":" + e.Pattern
}

// Capability is a named bundle of expressions loaded from the
// capabilities store.
type Capability struct {
	// Name identifies the capability (e.g. "cap:home:basic").
	Name string

	// Expressions are the grants this capability carries.
	Expressions []Expression

	// Description is optional free text from the store.
	Description string
}

// ParseExpressions parses a semicolon-joined capability expression
// string. Each element is split on the first ":" into verb and
// pattern. An empty element (for example from a trailing semicolon)
// is malformed, as is an empty pattern — an expression that grants
// nothing is more likely a typo than an intent.
func ParseExpressions(s string) ([]Expression, error) {
	parts := strings.Split(s, ";")
	expressions := make([]Expression, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("%w: empty expression in %q", ErrMalformedExpression, s)
		}
		verbText, pattern, found := strings.Cut(part, ":")
		if !found {
			return nil, fmt.Errorf("%w: missing verb separator in %q", ErrMalformedExpression, part)
		}
		verb, err := ParseVerb(verbText)
		if err != nil {
			return nil, err
		}
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			return nil, fmt.Errorf("%w: empty pattern in %q", ErrMalformedExpression, part)
		}
		expressions = append(expressions, Expression{Verb: verb, Pattern: pattern})
	}
	return expressions, nil
}
