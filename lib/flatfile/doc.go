// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package flatfile implements the transactional flat-file store that
// backs all of Warren's persisted state (users, roles, capabilities,
// assets, shares). Each store is a plain text file: one record per
// line, comma-separated fields, blank lines ignored, lines trimmed
// before splitting. There is no escaping mechanism — a field must not
// contain a literal comma — so the format stays greppable and
// hand-editable.
//
// The store enforces the single-writer discipline in one place rather
// than per caller:
//
//   - Readers operate on an immutable [Snapshot] obtained from
//     [Store.Snapshot]. Snapshots are swapped with a single atomic
//     pointer assignment, so a reader never observes a half-updated
//     row set and never blocks on a writer.
//   - Writers go through [Store.Mutate] (read-current, apply in
//     memory, write-temp, fsync, rename) or the single-row
//     [Store.Append] fast path. Both serialize on a process-wide
//     mutex plus an advisory flock on a sibling .lock file, so two
//     interleaved mutations cannot lose an update.
//
// Required stores treat malformed rows as fatal at load time
// ([ErrCorrupt]): refusing to start beats running with a partial
// identity set. Optional stores skip bad rows with a warning and load
// as empty when the file is missing.
package flatfile
