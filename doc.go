// Package simpledb provides a small in-memory SQL database engine with
// optional Git-backed snapshots.
//
// Statements are tokenized and parsed into a closed command set, executed
// against schema-validated in-memory tables, and may be accelerated by
// secondary indexes (B-tree for range lookups, hash for point lookups).
// Every index is reconciled synchronously with each mutation.
//
// # Quick Start
//
// Create an ephemeral instance:
//
//	store, _ := ps.NewMemoryStore()
//	instance, _ := simpledb.Open(store, core.DefaultConfig())
//
//	instance.Execute("CREATE TABLE users (id INT PRIMARY KEY, name TEXT NOT NULL)")
//	instance.Execute("INSERT INTO users VALUES (1, 'Alice')")
//
//	result, _ := instance.Execute("SELECT * FROM users")
//	result.Display()
//
//	instance.Save(ps.Identity{Name: "App", Email: "app@example.com"})
//
// # Supported SQL
//
//   - CREATE TABLE with INT, TEXT, FLOAT and BOOL columns, NOT NULL and
//     PRIMARY KEY constraints
//   - CREATE INDEX ... USING BTREE|HASH
//   - INSERT (multi-row, optional column list), SELECT, UPDATE, DELETE
//   - WHERE with a single comparison (= <> != < <= > >=)
//   - ORDER BY over multiple keys, LIMIT
package simpledb
