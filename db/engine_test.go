package db

import (
	"errors"
	"reflect"
	"testing"

	"github.com/simpledb/simpledb/core"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(core.DefaultConfig())
}

func exec(t *testing.T, engine *Engine, query string) Result {
	t.Helper()
	result, err := engine.Execute(query)
	if err != nil {
		t.Fatalf("Execute(%q): %v", query, err)
	}
	return result
}

func query(t *testing.T, engine *Engine, q string) QueryResult {
	t.Helper()
	result := exec(t, engine, q)
	qr, ok := result.(QueryResult)
	if !ok {
		t.Fatalf("Execute(%q) returned %T, expected QueryResult", q, result)
	}
	return qr
}

func TestCreateTable(t *testing.T) {
	engine := newEngine(t)

	result := exec(t, engine, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT NOT NULL)")
	er := result.(ExecResult)
	if er.Operation != "CREATE TABLE" || er.Table != "users" {
		t.Errorf("unexpected result %+v", er)
	}

	table, err := engine.Database().Table("users")
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Columns()) != 2 {
		t.Errorf("column count = %d, expected 2", len(table.Columns()))
	}
	if table.RowCount() != 0 {
		t.Errorf("row count = %d, expected 0", table.RowCount())
	}
}

func TestCreateTableDuplicate(t *testing.T) {
	engine := newEngine(t)
	exec(t, engine, "CREATE TABLE t (a INT)")

	if _, err := engine.Execute("CREATE TABLE t (a INT)"); err == nil {
		t.Error("expected error creating duplicate table")
	}
}

func TestInsertAndSelectAll(t *testing.T) {
	engine := newEngine(t)
	exec(t, engine, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT NOT NULL)")

	first := exec(t, engine, "INSERT INTO users VALUES (1, 'Alice')").(ExecResult)
	second := exec(t, engine, "INSERT INTO users VALUES (2, 'Bob')").(ExecResult)

	if !reflect.DeepEqual(first.RowIDs, []int64{1}) {
		t.Errorf("first insert ids = %v, expected [1]", first.RowIDs)
	}
	if !reflect.DeepEqual(second.RowIDs, []int64{2}) {
		t.Errorf("second insert ids = %v, expected [2]", second.RowIDs)
	}

	qr := query(t, engine, "SELECT * FROM users")
	expected := [][]string{{"1", "Alice"}, {"2", "Bob"}}
	if !reflect.DeepEqual(qr.Data, expected) {
		t.Errorf("Data = %v, expected %v", qr.Data, expected)
	}
	if !reflect.DeepEqual(qr.Columns, []string{"id", "name"}) {
		t.Errorf("Columns = %v", qr.Columns)
	}
}

func TestSelectProjectionWithWhere(t *testing.T) {
	engine := newEngine(t)
	exec(t, engine, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT NOT NULL)")
	exec(t, engine, "INSERT INTO users VALUES (1, 'Alice'), (2, 'Bob')")

	qr := query(t, engine, "SELECT name FROM users WHERE id = 2")
	expected := [][]string{{"Bob"}}
	if !reflect.DeepEqual(qr.Data, expected) {
		t.Errorf("Data = %v, expected %v", qr.Data, expected)
	}
}

func TestSelectOrderByDescWithLimit(t *testing.T) {
	engine := newEngine(t)
	exec(t, engine, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT NOT NULL)")
	exec(t, engine, "INSERT INTO users VALUES (1, 'Alice'), (2, 'Bob')")

	qr := query(t, engine, "SELECT * FROM users ORDER BY name DESC LIMIT 1")
	expected := [][]string{{"2", "Bob"}}
	if !reflect.DeepEqual(qr.Data, expected) {
		t.Errorf("Data = %v, expected %v", qr.Data, expected)
	}
}

func TestDeleteDoesNotReuseRowIDs(t *testing.T) {
	engine := newEngine(t)
	exec(t, engine, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT NOT NULL)")
	exec(t, engine, "INSERT INTO users VALUES (1, 'Alice'), (2, 'Bob')")

	del := exec(t, engine, "DELETE FROM users WHERE id = 1").(ExecResult)
	if del.RowsAffected != 1 {
		t.Fatalf("RowsAffected = %d, expected 1", del.RowsAffected)
	}

	qr := query(t, engine, "SELECT * FROM users")
	if !reflect.DeepEqual(qr.Data, [][]string{{"2", "Bob"}}) {
		t.Errorf("Data = %v", qr.Data)
	}

	ins := exec(t, engine, "INSERT INTO users VALUES (3, 'Carol')").(ExecResult)
	if !reflect.DeepEqual(ins.RowIDs, []int64{3}) {
		t.Errorf("reinsert ids = %v, expected [3]", ins.RowIDs)
	}
}

func TestUpdate(t *testing.T) {
	engine := newEngine(t)
	exec(t, engine, "CREATE TABLE users (id INT, name TEXT, age INT)")
	exec(t, engine, "INSERT INTO users VALUES (1, 'Alice', 30), (2, 'Bob', 40)")

	upd := exec(t, engine, "UPDATE users SET age = 41 WHERE name = 'Bob'").(ExecResult)
	if upd.RowsAffected != 1 {
		t.Fatalf("RowsAffected = %d, expected 1", upd.RowsAffected)
	}

	qr := query(t, engine, "SELECT age FROM users WHERE name = 'Bob'")
	if !reflect.DeepEqual(qr.Data, [][]string{{"41"}}) {
		t.Errorf("Data = %v", qr.Data)
	}
}

func TestUpdateWithoutWhereTouchesAllRows(t *testing.T) {
	engine := newEngine(t)
	exec(t, engine, "CREATE TABLE t (a INT)")
	exec(t, engine, "INSERT INTO t VALUES (1), (2), (3)")

	upd := exec(t, engine, "UPDATE t SET a = 0").(ExecResult)
	if upd.RowsAffected != 3 {
		t.Errorf("RowsAffected = %d, expected 3", upd.RowsAffected)
	}
}

func TestInsertWithColumnList(t *testing.T) {
	engine := newEngine(t)
	exec(t, engine, "CREATE TABLE users (id INT, name TEXT, note TEXT)")
	exec(t, engine, "INSERT INTO users (name, id) VALUES ('Alice', 1)")

	qr := query(t, engine, "SELECT * FROM users")
	expected := [][]string{{"1", "Alice", "NULL"}}
	if !reflect.DeepEqual(qr.Data, expected) {
		t.Errorf("Data = %v, expected %v", qr.Data, expected)
	}
}

func TestInsertValidation(t *testing.T) {
	engine := newEngine(t)
	exec(t, engine, "CREATE TABLE users (id INT, name TEXT NOT NULL)")

	tests := []struct {
		name string
		sql  string
	}{
		{"arity mismatch", "INSERT INTO users VALUES (1)"},
		{"type mismatch", "INSERT INTO users VALUES ('x', 'Alice')"},
		{"null in not null column", "INSERT INTO users VALUES (1, NULL)"},
		{"unknown column", "INSERT INTO users (id, nickname) VALUES (1, 'Al')"},
		{"int column rejects float", "INSERT INTO users VALUES (1.5, 'Alice')"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := engine.Execute(test.sql); err == nil {
				t.Errorf("Execute(%q) succeeded, expected error", test.sql)
			}
		})
	}

	if table, _ := engine.Database().Table("users"); table.RowCount() != 0 {
		t.Errorf("failed inserts left %d rows behind", table.RowCount())
	}
}

func TestSelectUnknownTable(t *testing.T) {
	engine := newEngine(t)
	if _, err := engine.Execute("SELECT * FROM nowhere"); !errors.Is(err, core.ErrTableNotFound) {
		t.Errorf("expected ErrTableNotFound, got %v", err)
	}
}

func TestSelectUnknownColumn(t *testing.T) {
	engine := newEngine(t)
	exec(t, engine, "CREATE TABLE t (a INT)")
	if _, err := engine.Execute("SELECT b FROM t"); err == nil {
		t.Error("expected error for unknown projection column")
	}
	if _, err := engine.Execute("SELECT * FROM t WHERE b = 1"); err == nil {
		t.Error("expected error for unknown predicate column")
	}
	if _, err := engine.Execute("SELECT * FROM t ORDER BY b"); err == nil {
		t.Error("expected error for unknown sort column")
	}
}

func TestWhereTypeMismatch(t *testing.T) {
	engine := newEngine(t)
	exec(t, engine, "CREATE TABLE t (a INT)")
	exec(t, engine, "INSERT INTO t VALUES (1)")

	_, err := engine.Execute("SELECT * FROM t WHERE a = 'one'")
	var mismatch *core.TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Errorf("expected TypeMismatchError, got %v", err)
	}
}

func TestTransactionsRejected(t *testing.T) {
	engine := newEngine(t)
	for _, q := range []string{"BEGIN", "COMMIT", "ROLLBACK"} {
		if _, err := engine.Execute(q); !errors.Is(err, ErrTransactionsUnsupported) {
			t.Errorf("Execute(%q) = %v, expected ErrTransactionsUnsupported", q, err)
		}
	}
}

func TestCreateIndexAndQuery(t *testing.T) {
	engine := newEngine(t)
	exec(t, engine, "CREATE TABLE users (id INT, name TEXT)")
	exec(t, engine, "INSERT INTO users VALUES (1, 'Alice'), (2, 'Bob'), (3, 'Carol')")

	exec(t, engine, "CREATE INDEX idx_id ON users (id)")
	exec(t, engine, "CREATE INDEX idx_name ON users (name) USING HASH")

	table, err := engine.Database().Table("users")
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Indexes()) != 2 {
		t.Fatalf("index count = %d, expected 2", len(table.Indexes()))
	}

	// queries stay correct with indexes attached
	qr := query(t, engine, "SELECT name FROM users WHERE id = 2")
	if !reflect.DeepEqual(qr.Data, [][]string{{"Bob"}}) {
		t.Errorf("Data = %v", qr.Data)
	}
}

func TestCreateIndexErrors(t *testing.T) {
	engine := newEngine(t)
	exec(t, engine, "CREATE TABLE t (a INT)")
	exec(t, engine, "CREATE INDEX idx_a ON t (a)")

	tests := []struct {
		name string
		sql  string
	}{
		{"duplicate index name", "CREATE INDEX idx_a ON t (a)"},
		{"unknown column", "CREATE INDEX idx_b ON t (b)"},
		{"unknown table", "CREATE INDEX idx_c ON missing (a)"},
		{"unknown kind", "CREATE INDEX idx_d ON t (a) USING TRIE"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := engine.Execute(test.sql); err == nil {
				t.Errorf("Execute(%q) succeeded, expected error", test.sql)
			}
		})
	}
}

func TestBoolAndFloatColumns(t *testing.T) {
	engine := newEngine(t)
	exec(t, engine, "CREATE TABLE m (flag BOOL, score FLOAT)")
	exec(t, engine, "INSERT INTO m VALUES (true, 1.5), (false, -2.25)")

	qr := query(t, engine, "SELECT * FROM m WHERE flag = true")
	if !reflect.DeepEqual(qr.Data, [][]string{{"true", "1.5"}}) {
		t.Errorf("Data = %v", qr.Data)
	}

	qr = query(t, engine, "SELECT * FROM m WHERE score < 0")
	if !reflect.DeepEqual(qr.Data, [][]string{{"false", "-2.25"}}) {
		t.Errorf("Data = %v", qr.Data)
	}
}

func TestMultiKeyOrdering(t *testing.T) {
	engine := newEngine(t)
	exec(t, engine, "CREATE TABLE people (dept TEXT, name TEXT)")
	exec(t, engine, "INSERT INTO people VALUES ('eng', 'Zoe'), ('ops', 'Amy'), ('eng', 'Al')")

	qr := query(t, engine, "SELECT name FROM people ORDER BY dept ASC, name ASC")
	expected := [][]string{{"Al"}, {"Zoe"}, {"Amy"}}
	if !reflect.DeepEqual(qr.Data, expected) {
		t.Errorf("Data = %v, expected %v", qr.Data, expected)
	}
}

func TestLimitZero(t *testing.T) {
	engine := newEngine(t)
	exec(t, engine, "CREATE TABLE t (a INT)")
	exec(t, engine, "INSERT INTO t VALUES (1), (2)")

	qr := query(t, engine, "SELECT * FROM t LIMIT 0")
	if len(qr.Data) != 0 {
		t.Errorf("Data = %v, expected empty", qr.Data)
	}
}
