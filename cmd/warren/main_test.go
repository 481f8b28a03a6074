// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"strings"
	"testing"

	"github.com/warren-project/warren/cmd/warren/cli"
)

// TestCommandTreeWellFormed walks the full production command tree and
// checks the invariants help output and dispatch rely on: every
// command has a name and a summary or description, leaf commands have
// a Run function, and sibling names are unique.
func TestCommandTreeWellFormed(t *testing.T) {
	walkCommands(root(), nil, func(command *cli.Command, path []string) {
		where := strings.Join(path, " ")
		if command.Name == "" {
			t.Errorf("%s: command with empty name", where)
		}
		if command.Summary == "" && command.Description == "" {
			t.Errorf("%s: command with no summary or description", where)
		}
		if len(command.Subcommands) == 0 && command.Run == nil {
			t.Errorf("%s: leaf command with no Run function", where)
		}

		seen := make(map[string]bool)
		for _, sub := range command.Subcommands {
			for _, name := range append([]string{sub.Name}, sub.Aliases...) {
				if seen[name] {
					t.Errorf("%s: subcommand name %q dispatches ambiguously", where, name)
				}
				seen[name] = true
			}
		}
	})
}

// walkCommands recursively visits every command in the tree,
// calling visit for each node with the accumulated command path.
func walkCommands(command *cli.Command, path []string, visit func(*cli.Command, []string)) {
	current := make([]string, len(path)+1)
	copy(current, path)
	current[len(path)] = command.Name
	visit(command, current)
	for _, sub := range command.Subcommands {
		walkCommands(sub, current, visit)
	}
}
