// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package role implements the "warren role" subcommands: role
// assignment and role→capability bindings in the roles store.
package role

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/warren-project/warren/cmd/warren/cli"
	rolelib "github.com/warren-project/warren/lib/role"
)

// Command returns the "role" command tree.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "role",
		Summary: "Manage role assignments and capability bindings",
		Description: `Manage role assignments and capability bindings.

Valid roles: ` + roleList() + `. A user with a credential but no role
row acts as "user". Role rows and role→capability rows share the
roles store.`,
		Subcommands: []*cli.Command{
			showCommand(),
			setCommand(),
			addCommand(),
			removeCommand(),
			bindCommand(),
		},
	}
}

func roleList() string {
	names := make([]string, len(rolelib.All))
	for i, r := range rolelib.All {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

func parseRoles(names []string) ([]rolelib.Role, error) {
	roles := make([]rolelib.Role, 0, len(names))
	for _, name := range names {
		parsed, err := rolelib.Parse(name)
		if err != nil {
			return nil, err
		}
		roles = append(roles, parsed)
	}
	return roles, nil
}

func showCommand() *cli.Command {
	var configPath *string

	return &cli.Command{
		Name:    "show",
		Summary: "Show a user's roles and expanded capabilities",
		Usage:   "warren role show <username> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("show", pflag.ContinueOnError)
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

			username := args[0]
			roles := engine.RolesOf(username)
			if len(roles) == 0 {
				fmt.Printf("%s: no roles\n", username)
				return nil
			}
			names := make([]string, len(roles))
			for i, assigned := range roles {
				names[i] = string(assigned)
			}
			fmt.Printf("roles: %s\n", strings.Join(names, ", "))

			grants, err := engine.Grants(username)
			if err != nil {
				return err
			}
			for _, grant := range grants {
				expressions := make([]string, len(grant.Expressions))
				for i, expression := range grant.Expressions {
					expressions[i] = expression.String()
				}
				fmt.Printf("  %s: %s\n", grant.Name, strings.Join(expressions, "; "))
			}
			return nil
		},
	}
}

func setCommand() *cli.Command {
	var configPath *string

	return &cli.Command{
		Name:    "set",
		Summary: "Replace a user's role list",
		Usage:   "warren role set <username> <role> [role...] [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("set", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			return flags
		},
		Examples: []cli.Example{
			{
				Description: "Make alice a developer and ordinary user",
				Command:     "warren role set alice user dev",
			},
		},
		Run: func(args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("expected a username and at least one role")
			}
			roles, err := parseRoles(args[1:])
			if err != nil {
				return err
			}
			engine, err := cli.OpenEngine(*configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			return engine.Registry().SetRoles(args[0], roles)
		},
	}
}

func addCommand() *cli.Command {
	var configPath *string

	return &cli.Command{
		Name:    "add",
		Summary: "Add one role to a user",
		Usage:   "warren role add <username> <role> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("add", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected a username and a role")
			}
			parsed, err := rolelib.Parse(args[1])
			if err != nil {
				return err
			}
			engine, err := cli.OpenEngine(*configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			return engine.Registry().AddRole(args[0], parsed)
		},
	}
}

func removeCommand() *cli.Command {
	var configPath *string

	return &cli.Command{
		Name:    "remove",
		Summary: "Remove one role from a user",
		Usage:   "warren role remove <username> <role> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("remove", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected a username and a role")
			}
			parsed, err := rolelib.Parse(args[1])
			if err != nil {
				return err
			}
			engine, err := cli.OpenEngine(*configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			return engine.Registry().RemoveRole(args[0], parsed)
		},
	}
}

func bindCommand() *cli.Command {
	var configPath *string

	return &cli.Command{
		Name:    "bind",
		Summary: "Replace a role's capability bindings",
		Usage:   "warren role bind <role> <capability> [capability...] [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("bind", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			return flags
		},
		Examples: []cli.Example{
			{
				Description: "Grant every dev the log-reading capability",
				Command:     "warren role bind dev cap:home:basic cap:log:read",
			},
		},
		Run: func(args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("expected a role and at least one capability name")
			}
			parsed, err := rolelib.Parse(args[0])
			if err != nil {
				return err
			}
			engine, err := cli.OpenEngine(*configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			return engine.Registry().SetCapabilities(parsed, args[1:])
		},
	}
}
