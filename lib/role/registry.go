// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package role

import (
	"errors"
	"fmt"
	"strings"

	"github.com/warren-project/warren/lib/flatfile"
)

// ErrInvalidRole reports an attempt to write a role outside the
// allow-list.
var ErrInvalidRole = errors.New("invalid role")

// Role is a role name from the fixed allow-list.
type Role string

// The role allow-list. Roles are not independently persisted
// entities; they exist as the right-hand side of username→roles rows
// and the key of role→capabilities rows.
const (
	Admin   Role = "admin"
	User    Role = "user"
	Project Role = "project"
	Dev     Role = "dev"
	Guest   Role = "guest"
)

// All lists the allow-list in precedence order.
var All = []Role{Admin, User, Project, Dev, Guest}

// Valid reports whether r is on the allow-list.
func Valid(r Role) bool {
	for _, known := range All {
		if r == known {
			return true
		}
	}
	return false
}

// Parse validates a role string against the allow-list.
func Parse(s string) (Role, error) {
	r := Role(s)
	if !Valid(r) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Privileged reports whether a role set contains an admin-equivalent
// role.
func Privileged(roles []Role) bool {
	for _, r := range roles {
		if r == Admin {
			return true
		}
	}
	return false
}

// RowShape validates a roles-store row: key plus at least one value.
var RowShape = flatfile.MinFields(2)

// Registry answers role and capability-name queries for users,
// backed by the shared roles store.
type Registry struct {
	file *flatfile.Store
}

// NewRegistry wraps a roles flat-file store.
func NewRegistry(file *flatfile.Store) *Registry {
	return &Registry{file: file}
}

// Rows returns the raw store rows for state export. Callers must not
// modify the returned slices.
func (r *Registry) Rows() [][]string {
	return r.file.Snapshot().Rows
}

// isRoleRow reports whether a row is a role→capabilities row (the key
// column is a known role name) rather than a username→roles row.
func isRoleRow(row []string) bool {
	return Valid(Role(row[0]))
}

// RolesOf returns the roles assigned to a username, in declaration
// order. Unknown role strings in the store are silently filtered
// (tolerant read). Returns an empty slice when the user has no row —
// the default-role policy belongs to the caller, not the registry.
func (r *Registry) RolesOf(username string) []Role {
	for _, row := range r.file.Snapshot().Rows {
		if isRoleRow(row) || row[0] != username {
			continue
		}
		roles := make([]Role, 0, len(row)-1)
		for _, name := range row[1:] {
			if candidate := Role(name); Valid(candidate) {
				roles = append(roles, candidate)
			}
		}
		return roles
	}
	return nil
}

// Usernames returns every username with a role row, in store order.
func (r *Registry) Usernames() []string {
	var names []string
	for _, row := range r.file.Snapshot().Rows {
		if !isRoleRow(row) {
			names = append(names, row[0])
		}
	}
	return names
}

// CapabilityNamesOf returns the capability names configured for a
// role, in declaration order. A role with no row grants nothing.
// Capability names within a row are semicolon-joined:
// "user,cap:home:basic;cap:games:ro".
func (r *Registry) CapabilityNamesOf(role Role) []string {
	for _, row := range r.file.Snapshot().Rows {
		if !isRoleRow(row) || Role(row[0]) != role {
			continue
		}
		var names []string
		for _, field := range row[1:] {
			for _, name := range strings.Split(field, ";") {
				name = strings.TrimSpace(name)
				if name != "" {
					names = append(names, name)
				}
			}
		}
		return names
	}
	return nil
}

// CapabilitiesOf returns the union of capability names over the
// user's roles: role-declaration order, then within-role order,
// duplicates removed on first occurrence. The result is therefore a
// set — reordering the user's role list changes at most the order,
// never the membership.
func (r *Registry) CapabilitiesOf(username string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, assigned := range r.RolesOf(username) {
		for _, name := range r.CapabilityNamesOf(assigned) {
			if seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// SetRoles replaces the role list for a username, creating the row if
// absent and deleting it when roles is empty. Every role is validated
// against the allow-list (strict write).
func (r *Registry) SetRoles(username string, roles []Role) error {
	for _, candidate := range roles {
		if !Valid(candidate) {
			return fmt.Errorf("%w: %q", ErrInvalidRole, candidate)
		}
	}
	return r.file.Mutate(func(rows [][]string) ([][]string, error) {
		kept := rows[:0]
		for _, row := range rows {
			if !isRoleRow(row) && row[0] == username {
				continue
			}
			kept = append(kept, row)
		}
		if len(roles) > 0 {
			row := make([]string, 0, len(roles)+1)
			row = append(row, username)
			for _, assigned := range roles {
				row = append(row, string(assigned))
			}
			kept = append(kept, row)
		}
		return kept, nil
	})
}

// AddRole appends a role to a username's list if not already present.
// The current list is read under the store lock, so concurrent
// additions of different roles to the same user both survive.
func (r *Registry) AddRole(username string, added Role) error {
	if !Valid(added) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, added)
	}
	return r.mutateUserRoles(username, func(current []Role) []Role {
		for _, existing := range current {
			if existing == added {
				return current
			}
		}
		return append(current, added)
	})
}

// RemoveRole removes a role from a username's list. Removing a role
// the user does not hold is a no-op.
func (r *Registry) RemoveRole(username string, removed Role) error {
	if !Valid(removed) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, removed)
	}
	return r.mutateUserRoles(username, func(current []Role) []Role {
		kept := current[:0]
		for _, existing := range current {
			if existing != removed {
				kept = append(kept, existing)
			}
		}
		return kept
	})
}

// mutateUserRoles applies fn to the user's on-disk role list inside
// the store's exclusive lock. Composed read-modify-write operations
// must go through here: reading the snapshot first and then writing
// would let two interleaved mutators lose one update. An empty result
// deletes the row.
func (r *Registry) mutateUserRoles(username string, fn func(current []Role) []Role) error {
	return r.file.Mutate(func(rows [][]string) ([][]string, error) {
		index := -1
		var current []Role
		for i, row := range rows {
			if isRoleRow(row) || row[0] != username {
				continue
			}
			index = i
			for _, name := range row[1:] {
				if candidate := Role(name); Valid(candidate) {
					current = append(current, candidate)
				}
			}
			break
		}

		updated := fn(current)
		if len(updated) == 0 {
			if index >= 0 {
				rows = append(rows[:index], rows[index+1:]...)
			}
			return rows, nil
		}

		row := make([]string, 0, len(updated)+1)
		row = append(row, username)
		for _, assigned := range updated {
			row = append(row, string(assigned))
		}
		if index >= 0 {
			rows[index] = row
		} else {
			rows = append(rows, row)
		}
		return rows, nil
	})
}

// RemoveUser deletes a username's role row entirely. Used by the
// access engine to cascade a credential removal. Missing rows are a
// no-op: removal is idempotent.
func (r *Registry) RemoveUser(username string) error {
	return r.SetRoles(username, nil)
}

// SetCapabilities replaces the capability-name list for a role. Names
// are stored semicolon-joined in a single field.
func (r *Registry) SetCapabilities(configured Role, names []string) error {
	if !Valid(configured) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, configured)
	}
	return r.file.Mutate(func(rows [][]string) ([][]string, error) {
		kept := rows[:0]
		for _, row := range rows {
			if isRoleRow(row) && Role(row[0]) == configured {
				continue
			}
			kept = append(kept, row)
		}
		if len(names) > 0 {
			kept = append(kept, []string{string(configured), strings.Join(names, ";")})
		}
		return kept, nil
	})
}
