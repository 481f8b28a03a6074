// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"errors"
	"fmt"

	"github.com/warren-project/warren/lib/flatfile"
)

var (
	// ErrDuplicateUser reports an Add for a username that already has
	// a credential row.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrUserNotFound reports a mutation on a username with no
	// credential row.
	ErrUserNotFound = errors.New("user not found")
)

// User is a credential record from the users store.
type User struct {
	// Username is the unique, immutable key.
	Username string

	// Salt and Hash are hex-encoded.
	Salt string
	Hash string

	// HomeOverride, when non-empty, replaces the computed home
	// directory for this user. Relative to the data root.
	HomeOverride string
}

// RowShape validates a users-store row: 3 or 4 fields, 4th optional.
var RowShape = flatfile.FieldCount(3, 4)

// Store verifies and mutates user credentials backed by a flat-file
// users store. The backing store must be loaded before use.
type Store struct {
	file *flatfile.Store
}

// NewStore wraps a users flat-file store.
func NewStore(file *flatfile.Store) *Store {
	return &Store{file: file}
}

// Rows returns the raw store rows for state export. Callers must not
// modify the returned slices.
func (s *Store) Rows() [][]string {
	return s.file.Snapshot().Rows
}

// userFromRow converts a validated store row.
func userFromRow(row []string) User {
	user := User{Username: row[0], Salt: row[1], Hash: row[2]}
	if len(row) == 4 {
		user.HomeOverride = row[3]
	}
	return user
}

func (u User) toRow() []string {
	row := []string{u.Username, u.Salt, u.Hash}
	if u.HomeOverride != "" {
		row = append(row, u.HomeOverride)
	}
	return row
}

// Lookup returns the credential record for a username from the
// current snapshot.
func (s *Store) Lookup(username string) (User, bool) {
	row := s.file.Snapshot().Lookup(username)
	if row == nil {
		return User{}, false
	}
	return userFromRow(row), true
}

// Usernames returns every username with a credential row, in store
// order.
func (s *Store) Usernames() []string {
	snapshot := s.file.Snapshot()
	names := make([]string, 0, len(snapshot.Rows))
	for _, row := range snapshot.Rows {
		names = append(names, row[0])
	}
	return names
}

// Verify recomputes the hash of password with the stored salt and
// compares. Returns false for unknown users, wrong passwords, and any
// internal failure — never an error, so callers cannot distinguish
// "no such user" from "bad password".
func (s *Store) Verify(username, password string) bool {
	user, ok := s.Lookup(username)
	if !ok {
		return false
	}
	computed, err := hashPassword(password, user.Salt)
	if err != nil {
		return false
	}
	return hashEqual(computed, user.Hash)
}

// Add creates a credential row for a new user with a fresh salt.
// Fails with ErrDuplicateUser if the username already exists. The
// single-row append fast path is used, with the uniqueness check run
// under the store lock so two concurrent Adds of the same username
// cannot both pass it; role assignment is the caller's concern.
func (s *Store) Add(username, password string) error {
	salt, err := newSalt()
	if err != nil {
		return err
	}
	hash, err := hashPassword(password, salt)
	if err != nil {
		return err
	}
	row := User{Username: username, Salt: salt, Hash: hash}.toRow()
	return s.file.AppendIf(row, func(rows [][]string) error {
		for _, existing := range rows {
			if existing[0] == username {
				return fmt.Errorf("%w: %s", ErrDuplicateUser, username)
			}
		}
		return nil
	})
}

// Remove deletes a user's credential row. Fails with ErrUserNotFound
// if absent. Cascading role removal is the caller's responsibility.
func (s *Store) Remove(username string) error {
	found := false
	err := s.file.Mutate(func(rows [][]string) ([][]string, error) {
		kept := rows[:0]
		for _, row := range rows {
			if row[0] == username {
				found = true
				continue
			}
			kept = append(kept, row)
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return kept, nil
	})
	return err
}

// UpdatePassword rotates the salt and hash for an existing user.
// Fails with ErrUserNotFound if absent.
func (s *Store) UpdatePassword(username, newPassword string) error {
	salt, err := newSalt()
	if err != nil {
		return err
	}
	hash, err := hashPassword(newPassword, salt)
	if err != nil {
		return err
	}
	return s.file.Mutate(func(rows [][]string) ([][]string, error) {
		for i, row := range rows {
			if row[0] != username {
				continue
			}
			user := userFromRow(row)
			user.Salt = salt
			user.Hash = hash
			rows[i] = user.toRow()
			return rows, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	})
}

// SetHomeOverride sets or clears (empty string) the home-directory
// override for an existing user.
func (s *Store) SetHomeOverride(username, override string) error {
	return s.file.Mutate(func(rows [][]string) ([][]string, error) {
		for i, row := range rows {
			if row[0] != username {
				continue
			}
			user := userFromRow(row)
			user.HomeOverride = override
			rows[i] = user.toRow()
			return rows, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	})
}
