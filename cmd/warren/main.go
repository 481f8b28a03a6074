// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	authcmd "github.com/warren-project/warren/cmd/warren/auth"
	capabilitycmd "github.com/warren-project/warren/cmd/warren/capability"
	"github.com/warren-project/warren/cmd/warren/cli"
	mountcmd "github.com/warren-project/warren/cmd/warren/mount"
	rolecmd "github.com/warren-project/warren/cmd/warren/role"
	sharecmd "github.com/warren-project/warren/cmd/warren/share"
	statecmd "github.com/warren-project/warren/cmd/warren/state"
	usercmd "github.com/warren-project/warren/cmd/warren/user"
	"github.com/warren-project/warren/lib/version"
)

func main() {
	if err := run(); err != nil {
		// Commands whose result is their exit status (auth check)
		// return an ExitError. Don't print a redundant "error:" line
		// for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return root().Execute(os.Args[1:])
}

func root() *cli.Command {
	return &cli.Command{
		Name: "warren",
		Description: `Warren: identity, capability, and namespace engine.

Manage user credentials, role-based capability grants, and per-user
mount tables over flat-file policy stores.`,
		Subcommands: []*cli.Command{
			usercmd.Command(),
			rolecmd.Command(),
			capabilitycmd.Command(),
			authcmd.Command(),
			mountcmd.Command(),
			sharecmd.Command(),
			statecmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("warren %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Create a developer account",
				Command:     "warren user add alice --role user,dev",
			},
			{
				Description: "May alice write into her home?",
				Command:     "warren auth check alice write ~home/notes.txt",
			},
			{
				Description: "Show alice's mount table",
				Command:     "warren mount list alice",
			},
		},
	}
}
