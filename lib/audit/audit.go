// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package audit appends authorization decisions to a JSON-lines log
// file with size-based rotation. Rotated segments are compressed with
// zstd (decision records are highly repetitive text, so ratios are
// good and decompression for later inspection is cheap).
//
// Every record carries the fingerprint of the policy snapshot that
// produced the decision (see lib/codec), so a logged decision can be
// correlated with the exact store contents it was evaluated against.
package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Record is one authorization or resolution decision.
type Record struct {
	// Time is when the decision was made, RFC3339 with nanoseconds.
	Time time.Time `json:"time"`

	// User is the requesting username.
	User string `json:"user"`

	// Verb is the requested operation ("read", "resolve", ...).
	Verb string `json:"verb"`

	// Target is the path or alias the request named.
	Target string `json:"target"`

	// Resolved is the concrete path the target resolved to, when
	// resolution happened.
	Resolved string `json:"resolved,omitempty"`

	// Allowed is the decision.
	Allowed bool `json:"allowed"`

	// Reason explains a denial. Empty when allowed.
	Reason string `json:"reason,omitempty"`

	// Fingerprint identifies the policy snapshot (lib/codec).
	Fingerprint string `json:"fingerprint,omitempty"`
}

// zstdEncoder is reused across rotations; zstd.Encoder is safe for
// concurrent use via EncodeAll.
var zstdEncoder *zstd.Encoder

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("audit: zstd encoder initialization failed: " + err.Error())
	}
}

// Log appends records to a file, rotating when the file exceeds the
// configured size. Safe for concurrent use.
type Log struct {
	path     string
	maxBytes int64
	logger   *slog.Logger

	mu   sync.Mutex
	file *os.File
	size int64
}

// NewLog opens (or creates) the audit log at path. maxBytes <= 0
// disables rotation. logger nil means slog.Default().
func NewLog(path string, maxBytes int64, logger *slog.Logger) (*Log, error) {
	if logger == nil {
		logger = slog.Default()
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat audit log: %w", err)
	}
	return &Log{path: path, maxBytes: maxBytes, logger: logger, file: file, size: info.Size()}, nil
}

// Write appends one record as a JSON line, rotating first if the file
// is full. A failed write surfaces the error; the decision itself has
// already been made and returned to the caller, so audit failure is
// reported but never blocks authorization.
func (l *Log) Write(record Record) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding audit record: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.maxBytes > 0 && l.size+int64(len(line)) > l.maxBytes && l.size > 0 {
		if err := l.rotateLocked(); err != nil {
			// Rotation failure must not lose the record: keep
			// appending to the oversized file and complain.
			l.logger.Warn("audit log rotation failed", "error", err)
		}
	}

	written, err := l.file.Write(line)
	l.size += int64(written)
	if err != nil {
		return fmt.Errorf("writing audit record: %w", err)
	}
	return nil
}

// rotateLocked renames the current file to a timestamped segment,
// compresses the segment to <segment>.zst, and opens a fresh file.
// Caller holds l.mu.
func (l *Log) rotateLocked() error {
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing audit log for rotation: %w", err)
	}

	segment := fmt.Sprintf("%s.%s", l.path, time.Now().UTC().Format("20060102T150405.000000000"))
	renameErr := os.Rename(l.path, segment)

	// Reopen unconditionally: even if the rename failed, the old handle
	// is closed and writes must keep landing somewhere.
	file, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("reopening audit log: %w", err)
	}
	l.file = file
	if renameErr != nil {
		info, statErr := file.Stat()
		if statErr == nil {
			l.size = info.Size()
		}
		return fmt.Errorf("renaming audit segment: %w", renameErr)
	}
	l.size = 0

	if err := compressSegment(segment); err != nil {
		// The uncompressed segment remains on disk; nothing is lost.
		l.logger.Warn("audit segment compression failed", "segment", segment, "error", err)
	}
	return nil
}

// compressSegment compresses a rotated segment to <segment>.zst and
// removes the original on success.
func compressSegment(segment string) error {
	data, err := os.ReadFile(segment)
	if err != nil {
		return err
	}
	compressed := zstdEncoder.EncodeAll(data, nil)
	if err := os.WriteFile(segment+".zst", compressed, 0600); err != nil {
		return err
	}
	return os.Remove(segment)
}

// Close flushes and closes the log file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
