package core

import (
	"fmt"
	"strconv"
	"strings"
)

type ColumnType int

const (
	IntType ColumnType = iota
	TextType
	FloatType
	BoolType
)

func (t ColumnType) String() string {
	switch t {
	case IntType:
		return "INT"
	case TextType:
		return "TEXT"
	case FloatType:
		return "FLOAT"
	case BoolType:
		return "BOOLEAN"
	default:
		return "UNKNOWN"
	}
}

// ParseColumnType resolves a declared type name, including its aliases, to a
// ColumnType.
func ParseColumnType(name string) (ColumnType, bool) {
	switch strings.ToUpper(name) {
	case "INT", "INTEGER":
		return IntType, true
	case "TEXT", "STRING":
		return TextType, true
	case "FLOAT", "REAL":
		return FloatType, true
	case "BOOLEAN", "BOOL":
		return BoolType, true
	default:
		return 0, false
	}
}

// Column is one declared field of a table schema.
type Column struct {
	Name       string     `json:"name"`
	Type       ColumnType `json:"type"`
	Nullable   bool       `json:"nullable"`
	PrimaryKey bool       `json:"primaryKey"`
}

// NewColumn builds a column from its declared type name, validating the
// column name against cfg limits and the type against the supported set.
func NewColumn(name, declaredType string, nullable, primaryKey bool, cfg Config) (Column, error) {
	if !validIdentifier(name, cfg.MaxColumnNameLength) {
		return Column{}, &ColumnError{Column: name, Msg: "invalid column name"}
	}
	columnType, ok := ParseColumnType(declaredType)
	if !ok {
		return Column{}, &ColumnError{Column: name, Msg: fmt.Sprintf("unsupported data type %q", declaredType)}
	}
	return Column{Name: name, Type: columnType, Nullable: nullable, PrimaryKey: primaryKey}, nil
}

// ValidateValue checks a stored value against the column. Null is valid iff
// the column is nullable; otherwise the runtime type must match the declared
// type exactly.
func (c Column) ValidateValue(v any) error {
	if v == nil {
		if !c.Nullable {
			return &ValidationError{Column: c.Name, Msg: "null value in NOT NULL column"}
		}
		return nil
	}

	ok := false
	switch c.Type {
	case IntType:
		_, ok = v.(int64)
	case TextType:
		_, ok = v.(string)
	case FloatType:
		_, ok = v.(float64)
	case BoolType:
		_, ok = v.(bool)
	}
	if !ok {
		return &ValidationError{Column: c.Name, Msg: fmt.Sprintf("expected %s, got %s", c.Type, typeName(v))}
	}
	return nil
}

// Coerce converts a lexical value to the column's declared type. The
// returned error is untyped; callers wrap it as a ValidationError or a
// TypeMismatchError depending on context.
func (c Column) Coerce(v Value) (any, error) {
	if v.Null {
		return nil, nil
	}

	switch c.Type {
	case IntType:
		n, err := strconv.ParseInt(v.Text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot convert %q to INT", v.Text)
		}
		return n, nil
	case FloatType:
		f, err := strconv.ParseFloat(v.Text, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot convert %q to FLOAT", v.Text)
		}
		return f, nil
	case BoolType:
		switch strings.ToLower(v.Text) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return nil, fmt.Errorf("cannot convert %q to BOOLEAN", v.Text)
	case TextType:
		return v.Text, nil
	}
	return nil, fmt.Errorf("unsupported column type %v", c.Type)
}

// validIdentifier reports whether name matches [A-Za-z_][A-Za-z0-9_]* and
// fits within maxLen bytes.
func validIdentifier(name string, maxLen int) bool {
	if name == "" || len(name) > maxLen {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '_':
		case ch >= '0' && ch <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
