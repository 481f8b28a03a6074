// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Warren.
//
// Configuration is loaded from a single file specified by either the
// WARREN_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. An authorization engine must run
// against deterministic, auditable configuration with no hidden
// overrides.
//
// The file is YAML by default. Files ending in .json or .jsonc are
// accepted too: comments and trailing commas are stripped before
// decoding through the same structure.
//
// Key exports:
//
//   - [Config] -- master struct with Roots, Stores, MountPolicy, Audit
//   - [Default] -- returns a Config rooted under a base directory
//   - [Load] and [LoadFile] -- the two entry points for loading
package config
