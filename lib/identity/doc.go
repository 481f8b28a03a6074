// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity implements Warren's credential store: salted
// password hashes per user plus an optional per-user home-directory
// override. It is the leaf of the component stack — it knows nothing
// about roles, capabilities, or mounts.
//
// Credentials are argon2id hashes with a fresh random 16-byte salt
// per user, stored hex-encoded in the users store as
// "username,salt,hash[,homeDirOverride]".
//
// [Store.Verify] never returns an error: unknown user, wrong
// password, and store read failure all report false. Distinguishing
// those cases to a caller would leak which usernames exist.
package identity
