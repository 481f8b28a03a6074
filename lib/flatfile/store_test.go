// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package flatfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadParsesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users")
	writeFile(t, path, "alice,salt1,hash1\n\n  bob , salt2 , hash2 , users/bob \n")

	store := Open(path, Required(), WithValidator(FieldCount(3, 4)))
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	rows := store.Snapshot().Rows
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "alice" {
		t.Errorf("expected first row key alice, got %q", rows[0][0])
	}
	// Fields are trimmed.
	if rows[1][3] != "users/bob" {
		t.Errorf("expected trimmed field, got %q", rows[1][3])
	}
}

func TestLoadRequiredStoreCorruptRowIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users")
	writeFile(t, path, "alice,salt1,hash1\nbroken-row\n")

	store := Open(path, Required(), WithValidator(FieldCount(3, 4)))
	err := store.Load()
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}

	// The previous (empty) snapshot stays in place.
	if len(store.Snapshot().Rows) != 0 {
		t.Error("snapshot changed despite failed load")
	}
}

func TestLoadOptionalStoreSkipsCorruptRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets")
	writeFile(t, path, "good,one,two\nbad\nalso-good,three\n")

	store := Open(path, WithValidator(MinFields(2)))
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(store.Snapshot().Rows) != 2 {
		t.Fatalf("expected 2 rows after skipping, got %d", len(store.Snapshot().Rows))
	}
}

func TestLoadOptionalStoreMissingFileIsEmpty(t *testing.T) {
	store := Open(filepath.Join(t.TempDir(), "absent"))
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(store.Snapshot().Rows) != 0 {
		t.Error("expected empty snapshot for missing optional store")
	}
}

func TestLoadRequiredStoreMissingFileIsError(t *testing.T) {
	store := Open(filepath.Join(t.TempDir(), "absent"), Required())
	if err := store.Load(); err == nil {
		t.Fatal("expected error for missing required store")
	}
}

func TestMutateRewritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles")
	writeFile(t, path, "alice,user\n")

	store := Open(path, Required(), WithValidator(MinFields(2)))
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}

	err := store.Mutate(func(rows [][]string) ([][]string, error) {
		return append(rows, []string{"bob", "dev"}), nil
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	// Snapshot reflects the mutation.
	if got := store.Snapshot().Lookup("bob"); got == nil {
		t.Error("snapshot missing appended row")
	}

	// A fresh store sees the persisted state.
	fresh := Open(path, Required(), WithValidator(MinFields(2)))
	if err := fresh.Load(); err != nil {
		t.Fatal(err)
	}
	if got := fresh.Snapshot().Lookup("bob"); got == nil {
		t.Error("persisted file missing appended row")
	}

	// No temp file left behind.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind after rewrite")
	}
}

func TestMutateErrorLeavesStateUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles")
	writeFile(t, path, "alice,user\n")

	store := Open(path, Required(), WithValidator(MinFields(2)))
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := store.Mutate(func(rows [][]string) ([][]string, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error surfaced, got %v", err)
	}
	if len(store.Snapshot().Rows) != 1 {
		t.Error("snapshot changed despite failed mutation")
	}
}

func TestSequentialMutationsDoNotLoseUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles")
	writeFile(t, path, "u,user\n")

	store := Open(path, Required(), WithValidator(MinFields(2)))
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}

	addRole := func(role string) error {
		return store.Mutate(func(rows [][]string) ([][]string, error) {
			for i, row := range rows {
				if row[0] == "u" {
					rows[i] = append(row, role)
				}
			}
			return rows, nil
		})
	}

	if err := addRole("dev"); err != nil {
		t.Fatal(err)
	}
	if err := addRole("project"); err != nil {
		t.Fatal(err)
	}

	row := store.Snapshot().Lookup("u")
	if len(row) != 4 || row[2] != "dev" || row[3] != "project" {
		t.Fatalf("lost update: row = %v", row)
	}
}

func TestAppendFastPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users")
	writeFile(t, path, "alice,s,h\n")

	store := Open(path, Required(), WithValidator(FieldCount(3, 4)))
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	if err := store.Append([]string{"bob", "s2", "h2"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	fresh := Open(path, Required(), WithValidator(FieldCount(3, 4)))
	if err := fresh.Load(); err != nil {
		t.Fatal(err)
	}
	if len(fresh.Snapshot().Rows) != 2 {
		t.Fatalf("expected 2 rows after append, got %d", len(fresh.Snapshot().Rows))
	}
}

func TestAppendRejectsEmbeddedComma(t *testing.T) {
	store := Open(filepath.Join(t.TempDir(), "users"))
	err := store.Append([]string{"alice", "a,b"})
	if !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
}

func TestMutateRejectsRowFailingValidator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles")
	writeFile(t, path, "alice,user\n")

	store := Open(path, Required(), WithValidator(MinFields(2)))
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}

	err := store.Mutate(func(rows [][]string) ([][]string, error) {
		return append(rows, []string{"lonely"}), nil
	})
	if err == nil {
		t.Fatal("Mutate accepted a row the validator rejects")
	}

	// Neither the snapshot nor the file picked up the bad row.
	if len(store.Snapshot().Rows) != 1 {
		t.Error("snapshot changed despite rejected mutation")
	}
	fresh := Open(path, Required(), WithValidator(MinFields(2)))
	if err := fresh.Load(); err != nil {
		t.Fatalf("store unreadable after rejected mutation: %v", err)
	}
	if len(fresh.Snapshot().Rows) != 1 {
		t.Error("file changed despite rejected mutation")
	}
}

func TestAppendRejectsRowFailingValidator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users")
	writeFile(t, path, "alice,s,h\n")

	store := Open(path, Required(), WithValidator(FieldCount(3, 4)))
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	if err := store.Append([]string{"bob", "s2"}); err == nil {
		t.Fatal("Append accepted a row the validator rejects")
	}

	fresh := Open(path, Required(), WithValidator(FieldCount(3, 4)))
	if err := fresh.Load(); err != nil {
		t.Fatalf("store unreadable after rejected append: %v", err)
	}
	if len(fresh.Snapshot().Rows) != 1 {
		t.Error("file changed despite rejected append")
	}
}

func TestAppendIfChecksCurrentRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users")
	writeFile(t, path, "alice,s,h\n")

	store := Open(path, Required(), WithValidator(FieldCount(3, 4)))
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}

	exists := errors.New("exists")
	noDuplicate := func(key string) func(rows [][]string) error {
		return func(rows [][]string) error {
			for _, row := range rows {
				if row[0] == key {
					return exists
				}
			}
			return nil
		}
	}

	err := store.AppendIf([]string{"alice", "s2", "h2"}, noDuplicate("alice"))
	if !errors.Is(err, exists) {
		t.Fatalf("expected check error surfaced, got %v", err)
	}
	if len(store.Snapshot().Rows) != 1 {
		t.Error("row appended despite failed check")
	}

	if err := store.AppendIf([]string{"bob", "s2", "h2"}, noDuplicate("bob")); err != nil {
		t.Fatalf("AppendIf: %v", err)
	}
	if len(store.Snapshot().Rows) != 2 {
		t.Error("row not appended after passing check")
	}
}

func TestMutateCreatesMissingOptionalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shares")
	store := Open(path, WithValidator(MinFields(3)))
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	err := store.Mutate(func(rows [][]string) ([][]string, error) {
		return append(rows, []string{"alice", "bob", "docs"}), nil
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("store file not created: %v", err)
	}
}
