// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package role implements Warren's role registry: the mapping from
// usernames to roles and from roles to capability names.
//
// Both mappings live in the same roles store. A row whose key column
// is a role name from the fixed allow-list is a role→capabilities
// row ("role,cap:a;cap:b"); any other row is a username→roles row
// ("username,role1,role2"). Because role names claim the keyspace,
// usernames must never collide with the allow-list — the access
// engine rejects such usernames at creation.
//
// Reads are tolerant and writes are strict: a stored role outside the
// allow-list is silently dropped when read (old stores keep working
// after an allow-list change), but rejected with [ErrInvalidRole]
// when written. The asymmetry is deliberate and preserved for
// compatibility with existing stores; see DESIGN.md before unifying.
package role
