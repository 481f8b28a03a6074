// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package flatfile

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

var (
	// ErrCorrupt reports a row whose shape the store's validator
	// rejected. Fatal at load time for required stores.
	ErrCorrupt = errors.New("store corrupt")

	// ErrInvalidField reports a field that cannot be encoded in the
	// flat format (embedded comma or newline).
	ErrInvalidField = errors.New("field contains delimiter")
)

// RowValidator checks the shape of a parsed row. The store calls it
// for every non-blank line at load time and for every row written by
// a mutation or append, so a buggy mutator cannot poison the next
// load. Returning an error marks the row corrupt.
type RowValidator func(fields []string) error

// FieldCount returns a validator that accepts rows with between min
// and max fields inclusive.
func FieldCount(min, max int) RowValidator {
	return func(fields []string) error {
		if len(fields) < min || len(fields) > max {
			return fmt.Errorf("expected %d-%d fields, got %d", min, max, len(fields))
		}
		return nil
	}
}

// MinFields returns a validator that accepts rows with at least min
// fields.
func MinFields(min int) RowValidator {
	return func(fields []string) error {
		if len(fields) < min {
			return fmt.Errorf("expected at least %d fields, got %d", min, len(fields))
		}
		return nil
	}
}

// Snapshot is an immutable view of a store's rows. Callers must not
// modify the returned slices; Mutate copies before applying changes.
type Snapshot struct {
	// Rows holds one entry per record, in file order.
	Rows [][]string
}

// Lookup returns the first row whose first field equals key, or nil.
func (s *Snapshot) Lookup(key string) []string {
	for _, row := range s.Rows {
		if row[0] == key {
			return row
		}
	}
	return nil
}

// Store is a single flat-file backing store. Zero value is not usable;
// construct with [Open].
type Store struct {
	path     string
	required bool
	validate RowValidator
	logger   *slog.Logger

	// mu serializes mutations within the process. The flock on the
	// sibling .lock file serializes across processes.
	mu       sync.Mutex
	snapshot atomic.Pointer[Snapshot]
}

// Option configures a Store.
type Option func(*Store)

// Required marks the store as required: malformed rows are fatal at
// load time and a missing file is an error.
func Required() Option {
	return func(s *Store) { s.required = true }
}

// WithValidator sets the per-row shape validator.
func WithValidator(v RowValidator) Option {
	return func(s *Store) { s.validate = v }
}

// WithLogger sets the logger used for skipped-row warnings. Defaults
// to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Open creates a Store for the given file path. The file is not read
// until [Store.Load] is called.
func Open(path string, opts ...Option) *Store {
	s := &Store{path: path}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.snapshot.Store(&Snapshot{})
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the backing file and swaps in a fresh snapshot. For a
// required store, a missing file or a row rejected by the validator is
// an error and the previous snapshot is left in place. For an optional
// store, a missing file loads empty and bad rows are skipped with a
// warning.
func (s *Store) Load() error {
	snapshot, err := s.read()
	if err != nil {
		return err
	}
	s.snapshot.Store(snapshot)
	return nil
}

// Snapshot returns the last successfully loaded snapshot. Never nil.
func (s *Store) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// read parses the backing file without touching the live snapshot.
func (s *Store) read() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) && !s.required {
			return &Snapshot{}, nil
		}
		return nil, fmt.Errorf("reading store %s: %w", s.path, err)
	}

	var rows [][]string
	for lineNumber, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if s.validate != nil {
			if err := s.validate(fields); err != nil {
				if s.required {
					return nil, fmt.Errorf("%w: %s line %d: %v", ErrCorrupt, s.path, lineNumber+1, err)
				}
				s.logger.Warn("skipping malformed store row",
					"store", s.path, "line", lineNumber+1, "error", err)
				continue
			}
		}
		rows = append(rows, fields)
	}
	return &Snapshot{Rows: rows}, nil
}

// Mutate applies fn to the current on-disk rows under the store's
// exclusive lock, rewrites the whole file atomically, and swaps the
// snapshot. fn receives a copy it may modify freely and returns the
// rows to persist. If fn or the write fails, neither the file nor the
// snapshot changes and the error is returned to the caller — there is
// no retry and no silent fallback to a stale view.
func (s *Store) Mutate(fn func(rows [][]string) ([][]string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lockFile()
	if err != nil {
		return err
	}
	defer unlock()

	// Re-read under the lock: another process may have rewritten the
	// file since our last load.
	current, err := s.read()
	if err != nil {
		return err
	}

	rows := make([][]string, len(current.Rows))
	for i, row := range current.Rows {
		rows[i] = append([]string(nil), row...)
	}

	updated, err := fn(rows)
	if err != nil {
		return err
	}

	if err := s.writeAll(updated); err != nil {
		return err
	}
	s.snapshot.Store(&Snapshot{Rows: updated})
	return nil
}

// Append adds a single row to the end of the file. This is the
// fast path for "add" operations: the row is appended rather than the
// whole file rewritten, but it takes the same locks as Mutate so it
// serializes correctly against full rewrites.
func (s *Store) Append(fields []string) error {
	return s.AppendIf(fields, nil)
}

// AppendIf appends a single row after check approves the current
// on-disk rows. The check runs under the store's exclusive lock, so a
// precondition such as "no row with this key exists" cannot race with
// a concurrent append or rewrite. A nil check always passes.
func (s *Store) AppendIf(fields []string, check func(rows [][]string) error) error {
	if err := s.checkRow(fields); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lockFile()
	if err != nil {
		return err
	}
	defer unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	if check != nil {
		if err := check(current.Rows); err != nil {
			return err
		}
	}

	file, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("opening store %s for append: %w", s.path, err)
	}
	if _, err := file.WriteString(strings.Join(fields, ",") + "\n"); err != nil {
		file.Close()
		return fmt.Errorf("appending to store %s: %w", s.path, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("syncing store %s: %w", s.path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing store %s: %w", s.path, err)
	}

	rows := append(current.Rows, fields)
	s.snapshot.Store(&Snapshot{Rows: rows})
	return nil
}

// writeAll rewrites the backing file atomically: write to a temporary
// file in the same directory, fsync, rename into place, then sync the
// directory so the rename survives power loss. Readers of the file
// never see a partial write.
func (s *Store) writeAll(rows [][]string) error {
	var builder strings.Builder
	for _, row := range rows {
		if err := s.checkRow(row); err != nil {
			return err
		}
		builder.WriteString(strings.Join(row, ","))
		builder.WriteByte('\n')
	}

	temporaryPath := s.path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating temporary store file: %w", err)
	}
	if _, err := file.WriteString(builder.String()); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary store file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary store file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary store file: %w", err)
	}
	if err := os.Rename(temporaryPath, s.path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming store file into place: %w", err)
	}

	if directory, err := os.Open(filepath.Dir(s.path)); err == nil {
		directory.Sync()
		directory.Close()
	}
	return nil
}

// lockFile takes an exclusive advisory flock on <path>.lock and
// returns the release function. The lock file is separate from the
// data file because the data file is replaced by rename on every
// rewrite, which would silently drop a lock held on the old inode.
func (s *Store) lockFile() (func(), error) {
	lockPath := s.path + ".lock"
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file %s: %w", lockPath, err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX); err != nil {
		file.Close()
		return nil, fmt.Errorf("locking %s: %w", lockPath, err)
	}
	return func() {
		unix.Flock(int(file.Fd()), unix.LOCK_UN)
		file.Close()
	}, nil
}

// checkRow rejects a row that could not be read back: a field with an
// embedded delimiter, or a shape the store's validator refuses.
func (s *Store) checkRow(fields []string) error {
	for _, field := range fields {
		if strings.ContainsAny(field, ",\n") {
			return fmt.Errorf("%w: %q", ErrInvalidField, field)
		}
	}
	if s.validate != nil {
		if err := s.validate(fields); err != nil {
			return fmt.Errorf("refusing to write malformed row: %w", err)
		}
	}
	return nil
}
