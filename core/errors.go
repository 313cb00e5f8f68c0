package core

import (
	"errors"
	"fmt"
)

// Not-found signals, reported alongside the structured error types below.
var (
	ErrRowNotFound   = errors.New("row not found")
	ErrTableNotFound = errors.New("table not found")
)

// TableError reports a schema-level problem with a table definition or a
// table-level operation.
type TableError struct {
	Table string
	Msg   string
}

func (e *TableError) Error() string {
	return fmt.Sprintf("table %q: %s", e.Table, e.Msg)
}

// ColumnError reports an invalid column definition or a reference to a
// column that does not exist.
type ColumnError struct {
	Column string
	Msg    string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q: %s", e.Column, e.Msg)
}

// ValidationError reports a row value that does not fit its column, either
// by shape (arity) or by type.
type ValidationError struct {
	Column string
	Msg    string
}

func (e *ValidationError) Error() string {
	if e.Column == "" {
		return "validation: " + e.Msg
	}
	return fmt.Sprintf("validation: column %q: %s", e.Column, e.Msg)
}

// TypeMismatchError reports a predicate comparison between incompatible
// operands. Malformed comparisons always fail; they never silently report
// "no match".
type TypeMismatchError struct {
	Left  string
	Right string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: cannot compare %s with %s", e.Left, e.Right)
}

// IndexError reports an index definition problem, such as an unrecognized
// index kind or a duplicate index name.
type IndexError struct {
	Index string
	Msg   string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %q: %s", e.Index, e.Msg)
}

// UnsupportedPredicateError reports a predicate shape the evaluator does not
// implement, such as AND/OR/NOT composition.
type UnsupportedPredicateError struct {
	Kind string
}

func (e *UnsupportedPredicateError) Error() string {
	return fmt.Sprintf("unsupported predicate: %s", e.Kind)
}
