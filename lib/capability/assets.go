// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package capability

// The assets store carries named groups of path patterns:
// setName,path1,path2,... A capability expression whose pattern is
// "@setName" stands for the whole group, matched as if each path were
// its own pattern. The store is auxiliary: it is always optional and
// an undefined set simply matches nothing.

import (
	"github.com/warren-project/warren/lib/flatfile"
)

// AssetRowShape validates an assets-store row: set name plus at least
// one path.
var AssetRowShape = flatfile.MinFields(2)

// AssetTable reads and writes the assets store.
type AssetTable struct {
	file *flatfile.Store
}

// NewAssetTable wraps an opened assets store.
func NewAssetTable(file *flatfile.Store) *AssetTable {
	return &AssetTable{file: file}
}

// Rows returns the raw store rows for state export. Callers must not
// modify the returned slices.
func (t *AssetTable) Rows() [][]string {
	return t.file.Snapshot().Rows
}

// Paths returns the path patterns of the named set, or nil, false when
// the set is not defined.
func (t *AssetTable) Paths(set string) ([]string, bool) {
	row := t.file.Snapshot().Lookup(set)
	if row == nil {
		return nil, false
	}
	return append([]string(nil), row[1:]...), true
}

// Sets returns every defined set name in file order.
func (t *AssetTable) Sets() []string {
	snapshot := t.file.Snapshot()
	sets := make([]string, 0, len(snapshot.Rows))
	for _, row := range snapshot.Rows {
		sets = append(sets, row[0])
	}
	return sets
}

// Define adds or replaces a named set.
func (t *AssetTable) Define(set string, paths []string) error {
	row := append([]string{set}, paths...)
	return t.file.Mutate(func(rows [][]string) ([][]string, error) {
		for i, existing := range rows {
			if existing[0] == set {
				rows[i] = row
				return rows, nil
			}
		}
		return append(rows, row), nil
	})
}
