// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package access is the facade over Warren's four policy components:
// credentials (lib/identity), roles (lib/role), capability matching
// (lib/capability), and namespace resolution (lib/namespace).
//
// An external request carries (username, verb, path-or-alias). The
// [Engine] authenticates the user against the credential store,
// expands the user's roles into capability grants, resolves mount
// aliases to absolute paths, and answers the authorization question.
// Every decision is appended to the audit log together with a
// fingerprint of the policy state that produced it.
//
// All collaborators are injected; there are no process-wide
// singletons, so tests run any number of isolated engines. [Open]
// builds a fully wired engine from a [config.Config]; [NewEngine]
// accepts pre-built collaborators directly.
package access
