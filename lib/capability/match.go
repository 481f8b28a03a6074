// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package capability

import (
	"strings"
)

// Authorize checks whether a capability set authorizes verb on an
// absolute path for the given username. Capabilities are OR'd: the
// first expression with a matching verb and pattern wins. Patterns
// that still carry an unexpanded "~alias" never match — callers
// expand aliases through the namespace resolver before asking.
func Authorize(capabilities []Capability, verb Verb, path, username string) bool {
	for _, cap := range capabilities {
		for _, expression := range cap.Expressions {
			if expression.Verb != verb {
				continue
			}
			if MatchPattern(expression.Pattern, path, username) {
				return true
			}
		}
	}
	return false
}

// MatchPattern checks whether a path matches a pattern under Warren's
// segment glob semantics. "{user}" is substituted with username
// before matching; "*" consumes exactly one segment; "**" consumes
// any number of segments including zero, backtracking over all split
// points when it is not the final segment. Trailing slashes are
// normalized so "foo/" and "foo" are equivalent.
//
// The empty pattern matches nothing. A pattern containing "~" is an
// unexpanded mount alias and matches nothing — an unresolved alias
// must never grant access.
func MatchPattern(pattern, path, username string) bool {
	if pattern == "" {
		return false
	}
	pattern = strings.ReplaceAll(pattern, "{user}", username)
	if strings.Contains(pattern, "~") {
		return false
	}
	return matchSegments(splitSegments(pattern), splitSegments(path))
}

// splitSegments normalizes leading and trailing slashes away and
// splits on "/". The empty path yields zero segments, so "**" (which
// matches zero or more segments) matches it.
func splitSegments(s string) []string {
	s = strings.Trim(s, "/")
	if s == "" {
		return nil
	}
	return strings.Split(s, "/")
}

// matchSegments walks pattern and path segments simultaneously.
// Literal segments must match exactly, "*" consumes exactly one
// segment, and "**" tries every possible number of consumed segments
// from most to least (greedy with backtracking). Recursion depth is
// bounded by the pattern length, and each "**" adds at most one level
// of backtracking, so pathological patterns stay cheap at the path
// sizes Warren sees.
func matchSegments(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}

	if pattern[0] == "**" {
		// Greedy: consume as much of the path as possible, fall back
		// toward zero segments until the rest of the pattern matches.
		for consumed := len(path); consumed >= 0; consumed-- {
			if matchSegments(pattern[1:], path[consumed:]) {
				return true
			}
		}
		return false
	}

	if len(path) == 0 {
		return false
	}

	if pattern[0] == "*" {
		return matchSegments(pattern[1:], path[1:])
	}

	if pattern[0] != path[0] {
		return false
	}
	return matchSegments(pattern[1:], path[1:])
}
