// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Warren is the administrative CLI for a Warren deployment. It
// provides subcommands for credential management (user), role
// assignment (role), capability and asset-set definitions
// (capability), authorization checks (auth), mount table inspection
// (mount), share grants (share), and policy state export (state).
package main
