// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package capability

import (
	"testing"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern  string
		path     string
		username string
		want     bool
	}{
		// Literal matching.
		{"/data/public", "/data/public", "", true},
		{"/data/public", "/data/private", "", false},
		{"/data/public", "/data/public/sub", "", false},

		// {user} substitution.
		{"/data/users/{user}/**", "/data/users/alice/docs/a.md", "alice", true},
		{"/data/users/{user}/**", "/data/users/alice/docs/a.md", "bob", false},
		{"/data/users/{user}", "/data/users/alice", "alice", true},

		// Single-segment wildcard never crosses a boundary.
		{"/games/demo/*", "/games/demo/x.json", "", true},
		{"/games/demo/*", "/games/demo/sub/x.json", "", false},
		{"/games/demo/*", "/games/demo", "", false},

		// Recursive wildcard.
		{"/games/demo/**", "/games/demo/sub/x.json", "", true},
		{"/games/demo/**", "/games/demo", "", true},
		{"/games/demo/**", "/games/other", "", false},

		// Interior ** backtracks.
		{"/data/**/docs/*", "/data/users/alice/docs/a.md", "", true},
		{"/data/**/docs/*", "/data/docs/a.md", "", true},
		{"/data/**/docs/*", "/data/users/alice/images/a.png", "", false},
		{"/a/**/b/**/c", "/a/x/b/y/z/c", "", true},
		{"/a/**/b/**/c", "/a/x/y/c", "", false},

		// Universal pattern matches everything, including empty.
		{"**", "/anything/at/all", "", true},
		{"**", "", "", true},

		// Empty pattern matches nothing.
		{"", "/data", "", false},
		{"", "", "", false},

		// Trailing slash normalization.
		{"/data/public/", "/data/public", "", true},
		{"/data/public", "/data/public/", "", true},

		// Unexpanded aliases never match.
		{"~data/public/**", "/data/public/x", "", false},
		{"~/data/{user}/**", "/data/users/alice/x", "alice", false},
	}

	for _, tt := range tests {
		got := MatchPattern(tt.pattern, tt.path, tt.username)
		if got != tt.want {
			t.Errorf("MatchPattern(%q, %q, %q) = %v, want %v",
				tt.pattern, tt.path, tt.username, got, tt.want)
		}
	}
}

func TestAuthorize(t *testing.T) {
	caps := []Capability{
		{
			Name: "cap:docs:rw",
			Expressions: []Expression{
				{Verb: VerbRead, Pattern: "/data/users/{user}/**"},
				{Verb: VerbWrite, Pattern: "/data/users/{user}/docs/**"},
			},
		},
		{
			Name: "cap:games:ro",
			Expressions: []Expression{
				{Verb: VerbRead, Pattern: "/games/demo/*"},
			},
		},
	}

	tests := []struct {
		name     string
		verb     Verb
		path     string
		username string
		want     bool
	}{
		{"own subtree read", VerbRead, "/data/users/alice/notes.md", "alice", true},
		{"other user denied", VerbRead, "/data/users/bob/notes.md", "alice", false},
		{"write narrower than read", VerbWrite, "/data/users/alice/docs/a.md", "alice", true},
		{"write outside docs denied", VerbWrite, "/data/users/alice/notes.md", "alice", false},
		{"verb must match exactly", VerbDelete, "/data/users/alice/docs/a.md", "alice", false},
		{"second capability ORs in", VerbRead, "/games/demo/x.json", "alice", true},
		{"single star segment bound", VerbRead, "/games/demo/sub/x.json", "alice", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Authorize(caps, tt.verb, tt.path, tt.username)
			if got != tt.want {
				t.Errorf("Authorize(%s, %q, %q) = %v, want %v",
					tt.verb, tt.path, tt.username, got, tt.want)
			}
		})
	}
}

func TestAuthorizeEmptyCapabilitySetDenies(t *testing.T) {
	if Authorize(nil, VerbRead, "/data/anything", "alice") {
		t.Error("empty capability set must deny")
	}
}
