// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package capability

import (
	"errors"
	"fmt"
	"strings"

	"github.com/warren-project/warren/lib/flatfile"
)

// ErrUnknownCapability reports a capability name with no definition in
// the capabilities store.
var ErrUnknownCapability = errors.New("unknown capability")

// RowShape validates a capabilities-store row: name and expression,
// with an optional description.
var RowShape = flatfile.FieldCount(2, 3)

// Table reads and writes the capabilities store. Rows are
// name,expression[,description] where expression is one or more
// verb:pattern pairs joined with semicolons.
type Table struct {
	file *flatfile.Store
}

// NewTable wraps an opened capabilities store.
func NewTable(file *flatfile.Store) *Table {
	return &Table{file: file}
}

// Rows returns the raw store rows for state export. Callers must not
// modify the returned slices.
func (t *Table) Rows() [][]string {
	return t.file.Snapshot().Rows
}

// Lookup returns the named capability with its expressions parsed.
// ErrUnknownCapability when no row defines the name;
// ErrMalformedExpression when the stored expression does not parse.
func (t *Table) Lookup(name string) (Capability, error) {
	row := t.file.Snapshot().Lookup(name)
	if row == nil {
		return Capability{}, fmt.Errorf("%w: %q", ErrUnknownCapability, name)
	}
	expressions, err := ParseExpressions(row[1])
	if err != nil {
		return Capability{}, fmt.Errorf("capability %q: %w", name, err)
	}
	capability := Capability{Name: name, Expressions: expressions}
	if len(row) > 2 {
		capability.Description = row[2]
	}
	return capability, nil
}

// Names returns every defined capability name in file order.
func (t *Table) Names() []string {
	snapshot := t.file.Snapshot()
	names := make([]string, 0, len(snapshot.Rows))
	for _, row := range snapshot.Rows {
		names = append(names, row[0])
	}
	return names
}

// Define adds or replaces a capability definition. The expressions
// must parse; defining a capability with a malformed expression is
// rejected rather than stored for a later load to trip over.
func (t *Table) Define(name string, expressions []Expression, description string) error {
	if len(expressions) == 0 {
		return fmt.Errorf("%w: capability %q has no expressions", ErrMalformedExpression, name)
	}
	encoded := make([]string, len(expressions))
	for i, expression := range expressions {
		encoded[i] = expression.String()
	}
	row := []string{name, strings.Join(encoded, ";")}
	if description != "" {
		row = append(row, description)
	}

	return t.file.Mutate(func(rows [][]string) ([][]string, error) {
		for i, existing := range rows {
			if existing[0] == name {
				rows[i] = row
				return rows, nil
			}
		}
		return append(rows, row), nil
	})
}

// Remove deletes a capability definition. Removing an undefined name
// fails with ErrUnknownCapability.
func (t *Table) Remove(name string) error {
	return t.file.Mutate(func(rows [][]string) ([][]string, error) {
		for i, existing := range rows {
			if existing[0] == name {
				return append(rows[:i], rows[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownCapability, name)
	})
}
