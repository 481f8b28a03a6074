// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/spf13/pflag"

	"github.com/warren-project/warren/lib/access"
	"github.com/warren-project/warren/lib/config"
)

// ConfigFlag registers the shared --config flag on a flag set and
// returns the destination. Empty means fall back to WARREN_CONFIG.
func ConfigFlag(flags *pflag.FlagSet) *string {
	return flags.String("config", "", "path to the warren config file (default: $WARREN_CONFIG)")
}

// LoadConfig loads the configuration from an explicit path, or from
// WARREN_CONFIG when the path is empty.
func LoadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// OpenEngine loads configuration and opens a wired engine with the
// command logger attached. The caller owns the engine and must Close
// it.
func OpenEngine(configPath string, opts ...access.Option) (*access.Engine, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	opts = append([]access.Option{access.WithLogger(NewCommandLogger())}, opts...)
	return access.Open(cfg, opts...)
}
