// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the warren
// binary.
//
// The semantic version lives in [Version] (set manually for releases,
// or overridden with -ldflags -X). VCS metadata is not injected: it is
// read from the build info the Go toolchain stamps into every binary
// built inside a checkout, via [Current]. Binaries built outside a
// checkout, and test runs, report "unknown".
//
// Formatting functions produce human-readable version strings:
//
//   - [Info] -- "0.1.0-dev (abc123456789, 2026-02-10T...)" for --version
//   - [Full] -- Info plus Go version and GOOS/GOARCH
//   - [Short] -- just the version number
package version
