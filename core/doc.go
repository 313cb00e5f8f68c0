// Package core implements the relational engine: schema-validated tables,
// typed columns, predicate evaluation and secondary indexes.
//
// # Column Types
//
// Supported column types and their declared-type aliases:
//   - IntType: INT, INTEGER
//   - TextType: TEXT, STRING
//   - FloatType: FLOAT, REAL
//   - BoolType: BOOLEAN, BOOL
//
// Stored values are Go natives (int64, string, float64, bool) or nil for
// NULL. Validation is strict: a value's runtime type must match the declared
// type exactly, with no implicit INT/FLOAT widening.
//
// # Tables and Indexes
//
// A Table owns an ordered row sequence, a monotonic row-id counter and zero
// or more secondary indexes. Indexes come in two variants: BTreeIndex keeps
// keys sorted for range lookups, HashIndex answers equality lookups in
// expected constant time. Every row mutation reconciles every attached index
// before returning, so an index's entries always equal what a full scan of
// its column would produce.
//
//	cfg := core.DefaultConfig()
//	db := core.NewDatabase(cfg)
//	table, _ := db.CreateTable("users", []core.Column{
//	    {Name: "id", Type: core.IntType, PrimaryKey: true},
//	    {Name: "name", Type: core.TextType},
//	})
//	table.InsertRow([]any{int64(1), "Alice"})
package core
