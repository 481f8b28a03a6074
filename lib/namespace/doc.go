// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package namespace computes per-identity mount tables and resolves
// mount aliases to concrete filesystem paths. It is Warren's
// equivalent of a Plan 9 per-process namespace: every user sees a
// small table of symbolic roots, and what the table contains depends
// on who is asking.
//
// Fixed system aliases (~system, ~data, ~log, ~cache, ~uploads) map
// to the configured roots. The legacy ~home alias and the parametric
// "~/data/<name>" form map to a user's home root, which is the
// per-user homeDirOverride when present, and otherwise found by
// checking which of <data>/users/<name> and <data>/projects/<name>
// already exists on disk (defaulting to the users root). Share
// aliases ("~share/<owner>") expose an explicitly granted, read-only
// slice of another user's home.
//
// Isolation is enforced by construction, not by a post-hoc path
// check: the only home that is ever placed in a user's mount table is
// the one computed from their own username, and the only way another
// user's subtree can appear is an explicit share grant. Two
// non-privileged users therefore never resolve into each other's
// homes, no matter what the capability or role stores say.
package namespace
