// Package table provides the canonical in-memory table handed to the
// reconciliation engine: ordered named columns with a declared type and
// ordered rows of tagged cell values.
package table

import "fmt"

// Column is a named, typed column.
type Column struct {
	Name string
	Type Kind
}

// Table holds ordered columns and rows. The engine treats tables as
// immutable for the duration of a comparison and never mutates them.
type Table struct {
	cols  []Column
	index map[string]int
	rows  [][]Value
}

// New creates an empty table with the given columns.
func New(cols []Column) *Table {
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c.Name] = i
	}
	return &Table{cols: cols, index: index}
}

// AppendRow adds a row. The row length must match the column count.
func (t *Table) AppendRow(row []Value) error {
	if len(row) != len(t.cols) {
		return fmt.Errorf("row has %d values, table has %d columns", len(row), len(t.cols))
	}
	t.rows = append(t.rows, row)
	return nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.rows) }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the ordered column descriptors.
func (t *Table) Columns() []Column { return t.cols }

// ColumnIndex returns the position of a column by name, or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Value returns the cell at (row, col).
func (t *Table) Value(row, col int) Value {
	return t.rows[row][col]
}

// Row returns the full row at the given index.
func (t *Table) Row(row int) []Value {
	return t.rows[row]
}

// RenameColumn renames a column in place. Used by loaders to map a
// source-side identifier column onto the report-side key column name
// before the table reaches the engine.
func (t *Table) RenameColumn(from, to string) error {
	i, ok := t.index[from]
	if !ok {
		return fmt.Errorf("column %q not found", from)
	}
	if _, exists := t.index[to]; exists {
		return fmt.Errorf("column %q already exists", to)
	}
	delete(t.index, from)
	t.cols[i].Name = to
	t.index[to] = i
	return nil
}
