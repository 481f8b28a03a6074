// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package auth implements the "warren auth" subcommands: credential
// and authorization checks against the live policy state.
package auth

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/warren-project/warren/cmd/warren/cli"
	"github.com/warren-project/warren/lib/access"
	"github.com/warren-project/warren/lib/capability"
)

// Command returns the "auth" command tree.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "auth",
		Summary: "Check authentication and authorization decisions",
		Subcommands: []*cli.Command{
			checkCommand(),
			verifyCommand(),
		},
	}
}

func checkCommand() *cli.Command {
	var configPath *string
	var strict *bool

	return &cli.Command{
		Name:    "check",
		Summary: "Ask whether a user may apply a verb to a path or alias",
		Usage:   "warren auth check <username> <verb> <path-or-alias> [flags]",
		Description: `Ask whether a user may apply a verb to a path or alias.

Prints "allowed" or "denied" and exits 0 or 1 respectively, so the
command composes with shell conditionals. The decision is recorded in
the audit log like any other.`,
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("check", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			strict = flags.Bool("strict", false, "fail on undefined or malformed capability grants instead of skipping them")
			return flags
		},
		Examples: []cli.Example{
			{
				Description: "May alice write into her home?",
				Command:     "warren auth check alice write ~home/notes.txt",
			},
			{
				Description: "Guard a script step on read access",
				Command:     "warren auth check backup read ~data/exports && run-backup",
			},
		},
		Run: func(args []string) error {
			if len(args) != 3 {
				return fmt.Errorf("expected username, verb, and path-or-alias arguments")
			}
			verb, err := capability.ParseVerb(args[1])
			if err != nil {
				return err
			}

			var opts []access.Option
			if *strict {
				opts = append(opts, access.StrictCapabilities())
			}
			engine, err := cli.OpenEngine(*configPath, opts...)
			if err != nil {
				return err
			}
			defer engine.Close()

			allowed, err := engine.Authorize(args[0], verb, args[2])
			if err != nil {
				return err
			}
			if !allowed {
				fmt.Println("denied")
				return &cli.ExitError{Code: 1}
			}
			fmt.Println("allowed")
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	var configPath *string

	return &cli.Command{
		Name:    "verify",
		Summary: "Verify a user's password",
		Usage:   "warren auth verify <username> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("verify", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one username argument")
			}
			password, err := cli.PromptPassword("Password", false)
			if err != nil {
				return err
			}

			engine, err := cli.OpenEngine(*configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			if !engine.Authenticate(args[0], password) {
				fmt.Println("denied")
				return &cli.ExitError{Code: 1}
			}
			fmt.Println("ok")
			return nil
		},
	}
}
