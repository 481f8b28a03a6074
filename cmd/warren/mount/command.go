// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package mount implements the "warren mount" subcommands: mount
// table enumeration and alias resolution.
package mount

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/warren-project/warren/cmd/warren/cli"
)

// Command returns the "mount" command tree.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "mount",
		Summary: "Inspect mount tables and resolve aliases",
		Subcommands: []*cli.Command{
			listCommand(),
			resolveCommand(),
		},
	}
}

func listCommand() *cli.Command {
	var configPath *string

	return &cli.Command{
		Name:    "list",
		Summary: "Show a user's mount table",
		Usage:   "warren mount list <username> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			return flags
		},
		Examples: []cli.Example{
			{
				Description: "What does alice see?",
				Command:     "warren mount list alice",
			},
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one username argument")
			}
			engine, err := cli.OpenEngine(*configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			mounts := engine.Mounts(args[0])
			if len(mounts) == 0 {
				fmt.Printf("%s: no mounts\n", args[0])
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(tw, "ALIAS\tPATH\tMODE\n")
			for _, mount := range mounts {
				mode := "rw"
				if mount.ReadOnly {
					mode = "ro"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", mount.Alias, mount.Path, mode)
			}
			return tw.Flush()
		},
	}
}

func resolveCommand() *cli.Command {
	var configPath *string
	var username *string

	return &cli.Command{
		Name:    "resolve",
		Summary: "Translate a mount alias to its absolute path",
		Usage:   "warren mount resolve <alias-or-path> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("resolve", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			username = flags.String("user", "", "username for ~home, ~share, and {user} forms")
			return flags
		},
		Examples: []cli.Example{
			{
				Description: "Where is alice's home?",
				Command:     "warren mount resolve ~home --user alice",
			},
			{
				Description: "Resolve a fixed alias with a sub-path",
				Command:     "warren mount resolve ~log/warren/audit.log",
			},
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one alias-or-path argument")
			}
			engine, err := cli.OpenEngine(*configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			resolved, err := engine.Resolve(args[0], *username)
			if err != nil {
				return err
			}
			fmt.Println(resolved)
			return nil
		},
	}
}
