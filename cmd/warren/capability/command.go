// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package capability implements the "warren capability" subcommands:
// capability definitions and asset sets in their backing stores.
package capability

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/warren-project/warren/cmd/warren/cli"
	caplib "github.com/warren-project/warren/lib/capability"
)

// Command returns the "capability" command tree.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "capability",
		Summary: "Manage capability definitions and asset sets",
		Description: `Manage capability definitions and asset sets.

A capability is a named bundle of verb:pattern grants, bound to roles
with "warren role bind". An asset set names a group of path patterns a
capability can reference as "@setName".`,
		Subcommands: []*cli.Command{
			listCommand(),
			defineCommand(),
			removeCommand(),
			assetCommand(),
		},
	}
}

func listCommand() *cli.Command {
	var configPath *string

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Summary: "List defined capabilities",
		Usage:   "warren capability list [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			engine, err := cli.OpenEngine(*configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			table := engine.Capabilities()
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(tw, "NAME\tEXPRESSIONS\tDESCRIPTION\n")
			for _, name := range table.Names() {
				defined, err := table.Lookup(name)
				if err != nil {
					fmt.Fprintf(tw, "%s\t(malformed: %v)\t\n", name, err)
					continue
				}
				expressions := make([]string, len(defined.Expressions))
				for i, expression := range defined.Expressions {
					expressions[i] = expression.String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, strings.Join(expressions, "; "), defined.Description)
			}
			return tw.Flush()
		},
	}
}

func defineCommand() *cli.Command {
	var configPath *string
	var description *string

	return &cli.Command{
		Name:    "define",
		Summary: "Define or replace a capability",
		Usage:   "warren capability define <name> <expressions> [flags]",
		Description: `Define or replace a capability.

Expressions are verb:pattern pairs joined with semicolons, for example
"list:~home/**;read:~home/**". Verbs: list, read, write, delete.`,
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("define", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			description = flags.String("description", "", "free-text description stored with the capability")
			return flags
		},
		Examples: []cli.Example{
			{
				Description: "Read-only access to the demo games",
				Command:     `warren capability define cap:games:ro "list:/games/demo/**;read:/games/demo/**"`,
			},
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected a capability name and an expression string")
			}
			expressions, err := caplib.ParseExpressions(args[1])
			if err != nil {
				return err
			}
			engine, err := cli.OpenEngine(*configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			return engine.Capabilities().Define(args[0], expressions, *description)
		},
	}
}

func removeCommand() *cli.Command {
	var configPath *string

	return &cli.Command{
		Name:    "remove",
		Aliases: []string{"rm"},
		Summary: "Delete a capability definition",
		Usage:   "warren capability remove <name> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("remove", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one capability name")
			}
			engine, err := cli.OpenEngine(*configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			return engine.Capabilities().Remove(args[0])
		},
	}
}

func assetCommand() *cli.Command {
	return &cli.Command{
		Name:    "asset",
		Summary: "Manage asset sets",
		Subcommands: []*cli.Command{
			assetListCommand(),
			assetDefineCommand(),
		},
	}
}

func assetListCommand() *cli.Command {
	var configPath *string

	return &cli.Command{
		Name:    "list",
		Summary: "List asset sets and their paths",
		Usage:   "warren capability asset list [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			engine, err := cli.OpenEngine(*configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			assets := engine.Assets()
			if assets == nil {
				return fmt.Errorf("no assets store configured")
			}
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(tw, "SET\tPATHS\n")
			for _, set := range assets.Sets() {
				paths, _ := assets.Paths(set)
				fmt.Fprintf(tw, "%s\t%s\n", set, strings.Join(paths, " "))
			}
			return tw.Flush()
		},
	}
}

func assetDefineCommand() *cli.Command {
	var configPath *string

	return &cli.Command{
		Name:    "define",
		Summary: "Define or replace an asset set",
		Usage:   "warren capability asset define <set> <path> [path...] [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("define", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			return flags
		},
		Examples: []cli.Example{
			{
				Description: "Name the public demo paths",
				Command:     "warren capability asset define demo-games /games/demo/** /games/arcade/**",
			},
		},
		Run: func(args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("expected a set name and at least one path")
			}
			engine, err := cli.OpenEngine(*configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			assets := engine.Assets()
			if assets == nil {
				return fmt.Errorf("no assets store configured")
			}
			return assets.Define(args[0], args[1:])
		},
	}
}
