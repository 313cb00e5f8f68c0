package core

import (
	"strconv"
	"strings"
)

// PredicateKind tags the variants of the predicate tree. Only comparisons
// are evaluated today; the combinators exist so that an unsupported shape is
// rejected explicitly instead of being misread as "no match".
type PredicateKind int

const (
	PredicateCompare PredicateKind = iota
	PredicateAnd
	PredicateOr
	PredicateNot
)

func (k PredicateKind) String() string {
	switch k {
	case PredicateCompare:
		return "comparison"
	case PredicateAnd:
		return "AND"
	case PredicateOr:
		return "OR"
	case PredicateNot:
		return "NOT"
	default:
		return "unknown"
	}
}

type CompareOp int

const (
	OpEquals CompareOp = iota
	OpNotEquals
	OpLessThan
	OpGreaterThan
	OpLessThanOrEqual
	OpGreaterThanOrEqual
)

func (op CompareOp) String() string {
	switch op {
	case OpEquals:
		return "="
	case OpNotEquals:
		return "<>"
	case OpLessThan:
		return "<"
	case OpGreaterThan:
		return ">"
	case OpLessThanOrEqual:
		return "<="
	case OpGreaterThanOrEqual:
		return ">="
	default:
		return "?"
	}
}

// Predicate is a boolean condition tree evaluated per row. A comparison node
// uses Left, Op and Right; combinator nodes use Children.
type Predicate struct {
	Kind     PredicateKind
	Left     Value
	Op       CompareOp
	Right    Value
	Children []*Predicate
}

// Compare builds a single-comparison predicate.
func Compare(left Value, op CompareOp, right Value) *Predicate {
	return &Predicate{Kind: PredicateCompare, Left: left, Op: op, Right: right}
}

// evaluatePredicate tests one row against a predicate. An operand naming an
// existing column resolves to that row's value; any other operand is used
// literally. Comparisons between incompatible types fail with
// TypeMismatchError; combinator nodes fail with UnsupportedPredicateError.
func (t *Table) evaluatePredicate(row Row, p *Predicate) (bool, error) {
	if p == nil {
		return true, nil
	}
	if p.Kind != PredicateCompare {
		return false, &UnsupportedPredicateError{Kind: p.Kind.String()}
	}

	if err := t.checkOperand(p.Left); err != nil {
		return false, err
	}
	if err := t.checkOperand(p.Right); err != nil {
		return false, err
	}

	left, leftCol := t.resolveOperand(row, p.Left)
	right, rightCol := t.resolveOperand(row, p.Right)

	// A literal facing a column is coerced to that column's declared type
	// before comparison; a failed coercion is a type mismatch rather than a
	// non-match.
	var err error
	switch {
	case leftCol != nil && rightCol == nil:
		right, err = coerceLiteral(*leftCol, p.Right)
	case rightCol != nil && leftCol == nil:
		left, err = coerceLiteral(*rightCol, p.Left)
	case leftCol == nil && rightCol == nil:
		left, right = literalPair(p.Left, p.Right)
	}
	if err != nil {
		return false, err
	}

	// Null never satisfies a comparison.
	if left == nil || right == nil {
		return false, nil
	}

	cmp, err := compareValues(left, right)
	if err != nil {
		return false, err
	}

	switch p.Op {
	case OpEquals:
		return cmp == 0, nil
	case OpNotEquals:
		return cmp != 0, nil
	case OpLessThan:
		return cmp < 0, nil
	case OpGreaterThan:
		return cmp > 0, nil
	case OpLessThanOrEqual:
		return cmp <= 0, nil
	case OpGreaterThanOrEqual:
		return cmp >= 0, nil
	default:
		return false, &UnsupportedPredicateError{Kind: "operator " + p.Op.String()}
	}
}

// checkOperand rejects a bare word that is neither a column of this table
// nor a recognizable literal. Treating it as text would make a mistyped
// column name silently match nothing.
func (t *Table) checkOperand(v Value) error {
	if v.Quoted || v.Null {
		return nil
	}
	if _, ok := t.columnPosition(v.Text); ok {
		return nil
	}
	if _, err := strconv.ParseFloat(v.Text, 64); err == nil {
		return nil
	}
	switch strings.ToLower(v.Text) {
	case "true", "false":
		return nil
	}
	return &ColumnError{Column: v.Text, Msg: "unknown column"}
}

// resolveOperand returns the row value and column for an operand that names
// a column, or (nil, nil) for a literal operand.
func (t *Table) resolveOperand(row Row, v Value) (any, *Column) {
	if v.Quoted || v.Null {
		return nil, nil
	}
	pos, ok := t.columnPosition(v.Text)
	if !ok {
		return nil, nil
	}
	return row.Values[pos], &t.columns[pos]
}

func coerceLiteral(col Column, v Value) (any, error) {
	coerced, err := col.Coerce(v)
	if err != nil {
		return nil, &TypeMismatchError{Left: col.Type.String(), Right: v.String()}
	}
	return coerced, nil
}

// literalPair interprets two unresolved operands: both numeric compares
// numerically, anything else compares as text.
func literalPair(a, b Value) (any, any) {
	if a.Null || b.Null {
		var left, right any
		if !a.Null {
			left = a.Text
		}
		if !b.Null {
			right = b.Text
		}
		return left, right
	}
	if !a.Quoted && !b.Quoted {
		af, aerr := strconv.ParseFloat(a.Text, 64)
		bf, berr := strconv.ParseFloat(b.Text, 64)
		if aerr == nil && berr == nil {
			return af, bf
		}
	}
	return a.Text, b.Text
}
