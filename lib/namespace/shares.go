// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"github.com/warren-project/warren/lib/flatfile"
)

// Share is an explicit grant exposing a slice of one user's home to
// another. Shares are the single sanctioned exception to home-mount
// isolation: nothing implicit ever creates one.
type Share struct {
	// Owner is the user whose home is shared.
	Owner string

	// Guest is the user who receives the ~share/<owner> alias.
	Guest string

	// Subpath is the shared directory relative to the owner's home.
	// Empty shares the whole home.
	Subpath string
}

// ShareRowShape validates a shares-store row: owner, guest, subpath.
var ShareRowShape = flatfile.FieldCount(3, 3)

// ShareTable reads and mutates share grants backed by the optional
// shares store.
type ShareTable struct {
	file *flatfile.Store
}

// NewShareTable wraps a shares flat-file store.
func NewShareTable(file *flatfile.Store) *ShareTable {
	return &ShareTable{file: file}
}

// Rows returns the raw store rows for state export. Callers must not
// modify the returned slices.
func (t *ShareTable) Rows() [][]string {
	return t.file.Snapshot().Rows
}

func shareFromRow(row []string) Share {
	return Share{Owner: row[0], Guest: row[1], Subpath: row[2]}
}

// For returns the shares granted to a guest, in store order.
func (t *ShareTable) For(guest string) []Share {
	var shares []Share
	for _, row := range t.file.Snapshot().Rows {
		if row[1] == guest {
			shares = append(shares, shareFromRow(row))
		}
	}
	return shares
}

// Grant records a share. Re-granting the same owner/guest pair
// replaces the subpath.
func (t *ShareTable) Grant(share Share) error {
	return t.file.Mutate(func(rows [][]string) ([][]string, error) {
		kept := rows[:0]
		for _, row := range rows {
			if row[0] == share.Owner && row[1] == share.Guest {
				continue
			}
			kept = append(kept, row)
		}
		return append(kept, []string{share.Owner, share.Guest, share.Subpath}), nil
	})
}

// Revoke removes a share. Revoking a share that does not exist is a
// no-op.
func (t *ShareTable) Revoke(owner, guest string) error {
	return t.file.Mutate(func(rows [][]string) ([][]string, error) {
		kept := rows[:0]
		for _, row := range rows {
			if row[0] == owner && row[1] == guest {
				continue
			}
			kept = append(kept, row)
		}
		return kept, nil
	})
}

// RevokeAll removes every share owned by or granted to a username.
// Used by the access engine when a user is removed.
func (t *ShareTable) RevokeAll(username string) error {
	return t.file.Mutate(func(rows [][]string) ([][]string, error) {
		kept := rows[:0]
		for _, row := range rows {
			if row[0] == username || row[1] == username {
				continue
			}
			kept = append(kept, row)
		}
		return kept, nil
	})
}
