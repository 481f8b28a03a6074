// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the warren CLI command framework: the
// [Command] tree with pflag-based flag parsing, structured help
// output, typo suggestions, password prompting, and shared
// configuration loading.
package cli
