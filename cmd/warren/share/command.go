// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package share implements the "warren share" subcommands: explicit
// read-only grants of one user's home subtree to another.
package share

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/warren-project/warren/cmd/warren/cli"
	"github.com/warren-project/warren/lib/namespace"
)

// Command returns the "share" command tree.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "share",
		Summary: "Manage home-subtree share grants",
		Description: `Manage home-subtree share grants.

A share gives one user (the guest) a read-only ~share/<owner> mount
bound to a subtree of the owner's home. Shares are the only way one
user's home ever appears in another's mount table.`,
		Subcommands: []*cli.Command{
			grantCommand(),
			revokeCommand(),
			listCommand(),
		},
	}
}

func grantCommand() *cli.Command {
	var configPath *string

	return &cli.Command{
		Name:    "grant",
		Summary: "Grant a guest read access to an owner's home subtree",
		Usage:   "warren share grant <owner> <guest> <subpath> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("grant", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			return flags
		},
		Examples: []cli.Example{
			{
				Description: "Let bob read alice's docs folder",
				Command:     "warren share grant alice bob docs",
			},
		},
		Run: func(args []string) error {
			if len(args) != 3 {
				return fmt.Errorf("expected owner, guest, and subpath arguments")
			}
			engine, err := cli.OpenEngine(*configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			shares := engine.Shares()
			if shares == nil {
				return fmt.Errorf("no shares store configured")
			}
			return shares.Grant(namespace.Share{Owner: args[0], Guest: args[1], Subpath: args[2]})
		},
	}
}

func revokeCommand() *cli.Command {
	var configPath *string

	return &cli.Command{
		Name:    "revoke",
		Summary: "Revoke a share grant",
		Usage:   "warren share revoke <owner> <guest> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("revoke", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected owner and guest arguments")
			}
			engine, err := cli.OpenEngine(*configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			shares := engine.Shares()
			if shares == nil {
				return fmt.Errorf("no shares store configured")
			}
			return shares.Revoke(args[0], args[1])
		},
	}
}

func listCommand() *cli.Command {
	var configPath *string

	return &cli.Command{
		Name:    "list",
		Summary: "List the shares granted to a guest",
		Usage:   "warren share list <guest> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one guest argument")
			}
			engine, err := cli.OpenEngine(*configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			shares := engine.Shares()
			if shares == nil {
				return fmt.Errorf("no shares store configured")
			}
			grants := shares.For(args[0])
			if len(grants) == 0 {
				fmt.Printf("%s: no shares\n", args[0])
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(tw, "OWNER\tSUBPATH\tALIAS\n")
			for _, grant := range grants {
				fmt.Fprintf(tw, "%s\t%s\t~share/%s\n", grant.Owner, grant.Subpath, grant.Owner)
			}
			return tw.Flush()
		},
	}
}
