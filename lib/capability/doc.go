// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package capability implements Warren's capability expression
// language and the pattern matcher that answers authorization
// queries. It is pure: no filesystem access, no alias resolution, no
// clock — just string and segment matching over data, so the matcher
// is independently testable.
//
// A capability is a named bundle of expressions. Each expression is a
// verb plus a path pattern, and a capability string joins expressions
// with semicolons:
//
//	read:~data/public/**;write:~/data/{user}/docs/**
//
// Verbs are list, read, write, and delete. Patterns are hierarchical
// "/"-separated strings where:
//
//   - a literal segment matches itself exactly
//   - "{user}" is substituted with the requesting username before
//     matching
//   - "*" consumes exactly one segment (it never crosses a "/")
//   - "**" consumes any number of segments, including zero, with
//     backtracking when it appears before the end of the pattern
//   - a leading "~alias" names a mount alias and must be expanded to
//     a concrete root by the namespace resolver before matching; a
//     pattern still carrying a "~" never matches anything
//
// Trailing slashes are normalized away, so "foo/" and "foo" are
// equivalent in both patterns and candidate paths. The empty pattern
// matches nothing; the pattern "**" alone matches every path
// including the empty one. A request is authorized when the verb
// matches exactly and at least one expression of at least one
// capability matches the path — capabilities are OR'd, and there are
// no negative rules.
package capability
