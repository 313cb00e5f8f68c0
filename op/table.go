package op

import (
	"errors"
	"iter"
	"strings"

	"github.com/simpledb/simpledb/core"
)

// TableOp wraps a table with typed, key-oriented accessors. Keys are
// primary-key values in the column's native type.
type TableOp struct {
	Table *core.Table
}

// PrimaryKey names the table's primary key column.
func (op *TableOp) PrimaryKey() (string, error) {
	for _, col := range op.Table.Columns() {
		if col.PrimaryKey {
			return col.Name, nil
		}
	}
	return "", errors.New("no primary key found")
}

// Insert appends one row of native values in schema order.
func (op *TableOp) Insert(values ...any) (int64, error) {
	return op.Table.InsertRow(values)
}

// Get returns the row whose primary key equals key.
func (op *TableOp) Get(key any) (core.Row, bool) {
	pos, err := op.primaryKeyPosition()
	if err != nil {
		return core.Row{}, false
	}
	for _, row := range op.Table.Rows() {
		if row.Values[pos] == key {
			return row, true
		}
	}
	return core.Row{}, false
}

// GetString reads one TEXT column of the row stored under key.
func (op *TableOp) GetString(key any, column string) (string, bool) {
	row, exists := op.Get(key)
	if !exists {
		return "", false
	}
	pos, ok := op.columnPosition(column)
	if !ok {
		return "", false
	}
	value, ok := row.Values[pos].(string)
	return value, ok
}

// GetInt reads one INT column of the row stored under key.
func (op *TableOp) GetInt(key any, column string) (int64, bool) {
	row, exists := op.Get(key)
	if !exists {
		return 0, false
	}
	pos, ok := op.columnPosition(column)
	if !ok {
		return 0, false
	}
	value, ok := row.Values[pos].(int64)
	return value, ok
}

// Update changes the named columns of the row stored under key.
func (op *TableOp) Update(key any, changes map[string]any) error {
	row, exists := op.Get(key)
	if !exists {
		return errors.New("key not found")
	}
	return op.Table.UpdateRow(row.ID, changes)
}

// Delete removes the row stored under key.
func (op *TableOp) Delete(key any) error {
	row, exists := op.Get(key)
	if !exists {
		return errors.New("key not found")
	}
	return op.Table.DeleteRow(row.ID)
}

func (op *TableOp) Count() int {
	return op.Table.RowCount()
}

// Keys lists the primary-key values in insertion order.
func (op *TableOp) Keys() []any {
	pos, err := op.primaryKeyPosition()
	if err != nil {
		return nil
	}
	rows := op.Table.Rows()
	keys := make([]any, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.Values[pos])
	}
	return keys
}

// Scan iterates all rows in insertion order, keyed by row id.
func (op *TableOp) Scan() iter.Seq2[int64, core.Row] {
	return op.scan(nil)
}

// ScanWithFilter iterates the rows the filter accepts.
func (op *TableOp) ScanWithFilter(filter func(row core.Row) bool) iter.Seq2[int64, core.Row] {
	return op.scan(filter)
}

func (op *TableOp) scan(filter func(row core.Row) bool) iter.Seq2[int64, core.Row] {
	return func(yield func(int64, core.Row) bool) {
		for _, row := range op.Table.Rows() {
			if filter != nil && !filter(row) {
				continue
			}
			if !yield(row.ID, row) {
				return
			}
		}
	}
}

func (op *TableOp) primaryKeyPosition() (int, error) {
	for i, col := range op.Table.Columns() {
		if col.PrimaryKey {
			return i, nil
		}
	}
	return 0, errors.New("no primary key found")
}

func (op *TableOp) columnPosition(name string) (int, bool) {
	for i, col := range op.Table.Columns() {
		if strings.EqualFold(col.Name, name) {
			return i, true
		}
	}
	return 0, false
}
