// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/warren-project/warren/lib/namespace"
	"github.com/warren-project/warren/lib/role"
)

// Config is the master configuration for a Warren instance.
type Config struct {
	// Roots binds the fixed mount aliases to filesystem roots.
	Roots RootsConfig `yaml:"roots"`

	// Stores names the backing store files.
	Stores StoresConfig `yaml:"stores"`

	// MountPolicy maps role names to the mount aliases that role may
	// enumerate. Empty means the built-in default policy.
	MountPolicy map[string][]string `yaml:"mount_policy,omitempty"`

	// Audit configures the decision log.
	Audit AuditConfig `yaml:"audit"`
}

// RootsConfig configures the filesystem roots behind the fixed
// aliases.
type RootsConfig struct {
	System  string `yaml:"system"`
	Data    string `yaml:"data"`
	Log     string `yaml:"log"`
	Cache   string `yaml:"cache"`
	Uploads string `yaml:"uploads"`
}

// StoresConfig names the flat-file backing stores. Users and roles
// are required; capabilities, assets, and shares are optional.
type StoresConfig struct {
	Users        string `yaml:"users"`
	Roles        string `yaml:"roles"`
	Capabilities string `yaml:"capabilities"`
	Assets       string `yaml:"assets,omitempty"`
	Shares       string `yaml:"shares,omitempty"`
}

// AuditConfig configures the decision log.
type AuditConfig struct {
	// Path is the audit log file. Empty disables auditing.
	Path string `yaml:"path,omitempty"`

	// MaxBytes rotates the log when it exceeds this size. Zero
	// disables rotation.
	MaxBytes int64 `yaml:"max_bytes,omitempty"`
}

// Default returns the default configuration rooted under root. Every
// field gets a sensible value; the config file remains the source of
// truth for real deployments.
func Default(root string) *Config {
	return &Config{
		Roots: RootsConfig{
			System:  filepath.Join(root, "system"),
			Data:    filepath.Join(root, "data"),
			Log:     filepath.Join(root, "log"),
			Cache:   filepath.Join(root, "cache"),
			Uploads: filepath.Join(root, "uploads"),
		},
		Stores: StoresConfig{
			Users:        filepath.Join(root, "state", "users"),
			Roles:        filepath.Join(root, "state", "roles"),
			Capabilities: filepath.Join(root, "state", "capabilities"),
			Assets:       filepath.Join(root, "state", "assets"),
			Shares:       filepath.Join(root, "state", "shares"),
		},
		Audit: AuditConfig{
			Path:     filepath.Join(root, "log", "audit.log"),
			MaxBytes: 16 << 20,
		},
	}
}

// Load reads configuration from the file named by WARREN_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv("WARREN_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("WARREN_CONFIG environment variable not set; " +
			"set it to the path of your warren.yaml config file, or use --config")
	}
	return LoadFile(path)
}

// LoadFile reads configuration from an explicit path. Defaults are
// rooted under the file's directory, so a config file only needs to
// name what it changes.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".json" || ext == ".jsonc" {
		data = jsonc.ToJSON(data)
	}

	cfg := Default(filepath.Dir(path))
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks roots, store paths, and the mount policy.
func (c *Config) Validate() error {
	if err := c.NamespaceRoots().Validate(); err != nil {
		return err
	}
	if c.Stores.Users == "" {
		return fmt.Errorf("stores.users is required")
	}
	if c.Stores.Roles == "" {
		return fmt.Errorf("stores.roles is required")
	}
	for name := range c.MountPolicy {
		if _, err := role.Parse(name); err != nil {
			return fmt.Errorf("mount_policy: %w", err)
		}
	}
	return nil
}

// NamespaceRoots converts the configured roots for the resolver.
func (c *Config) NamespaceRoots() namespace.Roots {
	return namespace.Roots{
		System:  c.Roots.System,
		Data:    c.Roots.Data,
		Log:     c.Roots.Log,
		Cache:   c.Roots.Cache,
		Uploads: c.Roots.Uploads,
	}
}

// NamespacePolicy converts the configured mount policy, or nil when
// unset so the resolver applies its default.
func (c *Config) NamespacePolicy() namespace.Policy {
	if len(c.MountPolicy) == 0 {
		return nil
	}
	policy := make(namespace.Policy, len(c.MountPolicy))
	for name, aliases := range c.MountPolicy {
		policy[role.Role(name)] = aliases
	}
	return policy
}
