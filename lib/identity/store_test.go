// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/warren-project/warren/lib/flatfile"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	file := flatfile.Open(filepath.Join(t.TempDir(), "users"), flatfile.WithValidator(RowShape))
	if err := file.Load(); err != nil {
		t.Fatal(err)
	}
	return NewStore(file)
}

func TestAddThenVerify(t *testing.T) {
	store := newTestStore(t)
	if err := store.Add("alice", "correct horse"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !store.Verify("alice", "correct horse") {
		t.Error("Verify returned false for correct password")
	}
}

func TestVerifyNegative(t *testing.T) {
	store := newTestStore(t)
	if err := store.Add("alice", "secret"); err != nil {
		t.Fatal(err)
	}

	if store.Verify("alice", "wrong") {
		t.Error("Verify accepted a wrong password")
	}
	if store.Verify("nobody", "anything") {
		t.Error("Verify accepted an unknown user")
	}
}

func TestAddDuplicateUser(t *testing.T) {
	store := newTestStore(t)
	if err := store.Add("alice", "one"); err != nil {
		t.Fatal(err)
	}
	err := store.Add("alice", "two")
	if !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
}

func TestConcurrentAddSameUsername(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	for i := range errs {
		go func() {
			defer wg.Done()
			errs[i] = store.Add("alice", "pw")
		}()
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateUser):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != 1 {
		t.Errorf("want one success and one ErrDuplicateUser, got %v", errs)
	}

	var count int
	for _, row := range store.Rows() {
		if row[0] == "alice" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("store holds %d rows for alice, want 1", count)
	}
}

func TestSaltsDifferPerUser(t *testing.T) {
	store := newTestStore(t)
	if err := store.Add("alice", "same password"); err != nil {
		t.Fatal(err)
	}
	if err := store.Add("bob", "same password"); err != nil {
		t.Fatal(err)
	}

	alice, _ := store.Lookup("alice")
	bob, _ := store.Lookup("bob")
	if alice.Salt == bob.Salt {
		t.Error("two users share a salt")
	}
	if alice.Hash == bob.Hash {
		t.Error("same password produced the same hash for two users")
	}
}

func TestUpdatePasswordRotatesSalt(t *testing.T) {
	store := newTestStore(t)
	if err := store.Add("alice", "old"); err != nil {
		t.Fatal(err)
	}
	before, _ := store.Lookup("alice")

	if err := store.UpdatePassword("alice", "new"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	after, _ := store.Lookup("alice")

	if before.Salt == after.Salt {
		t.Error("salt not rotated on password update")
	}
	if store.Verify("alice", "old") {
		t.Error("old password still verifies")
	}
	if !store.Verify("alice", "new") {
		t.Error("new password does not verify")
	}
}

func TestUpdatePasswordUnknownUser(t *testing.T) {
	store := newTestStore(t)
	err := store.UpdatePassword("nobody", "pw")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)
	if err := store.Add("alice", "pw"); err != nil {
		t.Fatal(err)
	}
	if err := store.Remove("alice"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if store.Verify("alice", "pw") {
		t.Error("removed user still verifies")
	}
	if err := store.Remove("alice"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on double remove, got %v", err)
	}
}

func TestHomeOverridePersists(t *testing.T) {
	store := newTestStore(t)
	if err := store.Add("alice", "pw"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetHomeOverride("alice", "projects/research"); err != nil {
		t.Fatalf("SetHomeOverride: %v", err)
	}

	user, ok := store.Lookup("alice")
	if !ok || user.HomeOverride != "projects/research" {
		t.Errorf("override not persisted: %+v", user)
	}

	// Credentials survive the override edit.
	if !store.Verify("alice", "pw") {
		t.Error("password broken by home override update")
	}
}
