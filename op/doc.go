// Package op provides a typed, SQL-free API over SimpleDB databases and
// tables.
//
// The op package sits between the SQL engine (db/) and the snapshot store
// (ps/), for callers that want programmatic access without building SQL
// strings.
//
// # DatabaseOp
//
// DatabaseOp wraps database-level operations:
//
//	dbOp := op.Wrap(database, store)
//	tables := dbOp.TableNames()           // List all tables
//	txn, _ := dbOp.Snapshot(identity)     // Commit current state
//	dbOp.RestoreAt(txn)                   // Restore to point in time
//
// # TableOp
//
// TableOp wraps table-level operations for CRUD and scanning:
//
//	tableOp, err := dbOp.Table("users")
//
//	// Read operations
//	row, exists := tableOp.Get(int64(1))          // Lookup by primary key
//	count := tableOp.Count()                      // Count rows
//
//	// Write operations
//	id, _ := tableOp.Insert(int64(1), "Alice")
//	tableOp.Delete(int64(1))
//
//	// Scanning with optional filter
//	for id, row := range tableOp.Scan() {
//	    // process all rows
//	}
//	for id, row := range tableOp.ScanWithFilter(func(row core.Row) bool {
//	    return row.Values[1] == "Alice"
//	}) {
//	    // process filtered rows
//	}
//
// # Architecture
//
// The layering is:
//
//	SQL Parser (sql/)
//	     ↓
//	SQL Engine (db/)
//	     ↓
//	Operations (op/)     ← This package
//	     ↓
//	Snapshot Store (ps/)
//	     ↓
//	Git Storage (go-git)
package op
