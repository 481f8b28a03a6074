// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package user implements the "warren user" subcommands: credential
// lifecycle for the users store.
package user

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/warren-project/warren/cmd/warren/cli"
	rolelib "github.com/warren-project/warren/lib/role"
)

// Command returns the "user" command tree.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "user",
		Summary: "Manage user credentials",
		Description: `Manage user credentials.

Users are rows in the users store: username, salt, password hash, and
an optional home-directory override. Removing a user cascades to the
role row and any share grants.`,
		Subcommands: []*cli.Command{
			addCommand(),
			removeCommand(),
			passwdCommand(),
			listCommand(),
		},
	}
}

func addCommand() *cli.Command {
	var configPath *string
	var roleNames *[]string
	var home *string
	var passwordStdin *bool

	return &cli.Command{
		Name:    "add",
		Summary: "Create a user",
		Usage:   "warren user add <username> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("add", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			roleNames = flags.StringSlice("role", nil, "role(s) for the new user (default: user)")
			home = flags.String("home", "", "home-directory override, relative to the data root")
			passwordStdin = flags.Bool("password-stdin", false, "read the password from stdin instead of prompting")
			return flags
		},
		Examples: []cli.Example{
			{
				Description: "Create a developer account",
				Command:     "warren user add alice --role user,dev",
			},
			{
				Description: "Create a project account homed under projects/",
				Command:     "warren user add ci-builder --role project --home projects/ci-builder",
			},
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one username argument")
			}
			username := args[0]

			roles := make([]rolelib.Role, 0, len(*roleNames))
			for _, name := range *roleNames {
				parsed, err := rolelib.Parse(name)
				if err != nil {
					return err
				}
				roles = append(roles, parsed)
			}

			password, err := cli.PromptPassword("Password", !*passwordStdin)
			if err != nil {
				return err
			}

			engine, err := cli.OpenEngine(*configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.AddUser(username, password, roles); err != nil {
				return err
			}
			if *home != "" {
				if err := engine.Users().SetHomeOverride(username, *home); err != nil {
					return err
				}
			}
			fmt.Printf("created user %s\n", username)
			return nil
		},
	}
}

func removeCommand() *cli.Command {
	var configPath *string

	return &cli.Command{
		Name:    "remove",
		Aliases: []string{"rm"},
		Summary: "Delete a user and its role and share rows",
		Usage:   "warren user remove <username> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("remove", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			return flags
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

			if err := engine.RemoveUser(args[0]); err != nil {
				return err
			}
			fmt.Printf("removed user %s\n", args[0])
			return nil
		},
	}
}

func passwdCommand() *cli.Command {
	var configPath *string
	var passwordStdin *bool

	return &cli.Command{
		Name:    "passwd",
		Summary: "Change a user's password",
		Usage:   "warren user passwd <username> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("passwd", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			passwordStdin = flags.Bool("password-stdin", false, "read the password from stdin instead of prompting")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one username argument")
			}

			password, err := cli.PromptPassword("New password", !*passwordStdin)
			if err != nil {
				return err
			}

			engine, err := cli.OpenEngine(*configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.Users().UpdatePassword(args[0], password); err != nil {
				return err
			}
			fmt.Printf("updated password for %s\n", args[0])
			return nil
		},
	}
}

func listCommand() *cli.Command {
	var configPath *string

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Summary: "List users with their roles",
		Usage:   "warren user list [flags]",
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

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(tw, "USERNAME\tROLES\tHOME OVERRIDE\n")
			for _, username := range engine.Users().Usernames() {
				roles := engine.RolesOf(username)
				names := make([]string, len(roles))
				for i, assigned := range roles {
					names[i] = string(assigned)
				}
				override := ""
				if user, ok := engine.Users().Lookup(username); ok {
					override = user.HomeOverride
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", username, strings.Join(names, ","), override)
			}
			return tw.Flush()
		},
	}
}
