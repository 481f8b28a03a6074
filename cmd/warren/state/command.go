// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package state implements the "warren state" subcommands: policy
// snapshot export and fingerprinting.
package state

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/warren-project/warren/cmd/warren/cli"
	"github.com/warren-project/warren/lib/codec"
)

// Command returns the "state" command tree.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "state",
		Summary: "Export and fingerprint the policy state",
		Description: `Export and fingerprint the policy state.

The export is deterministic CBOR: encoding the same stores always
yields the same bytes, so exports diff and fingerprint stably. The
fingerprint is the keyed BLAKE3 digest of that encoding, the same
value stamped on audit records.`,
		Subcommands: []*cli.Command{
			exportCommand(),
			fingerprintCommand(),
			diagnoseCommand(),
		},
	}
}

func exportCommand() *cli.Command {
	var configPath *string
	var output *string
	var asJSON *bool

	return &cli.Command{
		Name:    "export",
		Summary: "Write the full policy snapshot",
		Usage:   "warren state export [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("export", pflag.ContinueOnError)
			configPath = cli.ConfigFlag(flags)
			output = flags.StringP("output", "o", "", "write to a file instead of stdout")
			asJSON = flags.Bool("json", false, "emit JSON instead of CBOR (for human inspection; not fingerprint-stable)")
			return flags
		},
		Examples: []cli.Example{
			{
				Description: "Snapshot the policy state before a migration",
				Command:     "warren state export -o policy-backup.cbor",
			},
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

			var encoded []byte
			if *asJSON {
				encoded, err = json.MarshalIndent(engine.Export(), "", "  ")
				if err == nil {
					encoded = append(encoded, '\n')
				}
			} else {
				encoded, err = codec.Marshal(engine.Export())
			}
			if err != nil {
				return fmt.Errorf("encoding state: %w", err)
			}

			if *output == "" {
				_, err = os.Stdout.Write(encoded)
				return err
			}
			return os.WriteFile(*output, encoded, 0600)
		},
	}
}

func diagnoseCommand() *cli.Command {
	return &cli.Command{
		Name:        "diagnose",
		Summary:     "Print a CBOR export in diagnostic notation",
		Description: "Print an exported snapshot in CBOR diagnostic notation (RFC 8949 §8) for human inspection. Reads from stdin when no file is given.",
		Usage:       "warren state diagnose [file]",
		Examples: []cli.Example{
			{
				Description: "Inspect a snapshot taken with state export",
				Command:     "warren state diagnose policy-backup.cbor",
			},
		},
		Run: func(args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("unexpected arguments: %v", args[1:])
			}

			var data []byte
			var err error
			if len(args) == 1 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(os.Stdin)
			}
			if err != nil {
				return fmt.Errorf("reading snapshot: %w", err)
			}

			notation, err := codec.Diagnose(data)
			if err != nil {
				return fmt.Errorf("not valid CBOR: %w", err)
			}
			fmt.Println(notation)
			return nil
		},
	}
}

func fingerprintCommand() *cli.Command {
	var configPath *string

	return &cli.Command{
		Name:    "fingerprint",
		Summary: "Print the policy state fingerprint",
		Usage:   "warren state fingerprint [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("fingerprint", pflag.ContinueOnError)
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

			fingerprint := engine.Fingerprint()
			if fingerprint == "" {
				return fmt.Errorf("fingerprint unavailable")
			}
			fmt.Println(fingerprint)
			return nil
		},
	}
}
