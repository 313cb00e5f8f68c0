package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a lexical value taken from a statement: the raw text of a literal,
// identifier or NULL keyword. Values carry no type; coercion to a column's
// declared type happens at execution time.
type Value struct {
	Text   string
	Quoted bool
	Null   bool
}

// NullValue returns the lexical NULL value.
func NullValue() Value {
	return Value{Null: true}
}

// StringValue returns a quoted lexical value.
func StringValue(text string) Value {
	return Value{Text: text, Quoted: true}
}

// RawValue returns an unquoted lexical value (number, bare word, column name).
func RawValue(text string) Value {
	return Value{Text: text}
}

func (v Value) String() string {
	if v.Null {
		return "NULL"
	}
	if v.Quoted {
		return "'" + v.Text + "'"
	}
	return v.Text
}

// typeName names the runtime type of a stored value for error messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "NULL"
	case int64:
		return "INT"
	case float64:
		return "FLOAT"
	case string:
		return "TEXT"
	case bool:
		return "BOOLEAN"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// FormatValue renders a stored value as display text. Nulls render as NULL.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// compareValues orders two stored values of the same runtime type. Nil sorts
// before every real value. Returns a TypeMismatchError for values of
// different runtime types; there is no implicit INT/FLOAT widening.
func compareValues(a, b any) (int, error) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, nil
		case a == nil:
			return -1, nil
		default:
			return 1, nil
		}
	}

	switch av := a.(type) {
	case int64:
		if bv, ok := b.(int64); ok {
			switch {
			case av < bv:
				return -1, nil
			case av > bv:
				return 1, nil
			}
			return 0, nil
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1, nil
			case av > bv:
				return 1, nil
			}
			return 0, nil
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), nil
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case !av && bv:
				return -1, nil
			case av && !bv:
				return 1, nil
			}
			return 0, nil
		}
	}

	return 0, &TypeMismatchError{Left: typeName(a), Right: typeName(b)}
}
