package core

import (
	"fmt"
	"sync"
)

// Database is a named collection of tables and the dispatch surface for the
// engine's create/insert/select/update/delete operations.
type Database struct {
	mu     sync.RWMutex
	tables map[string]*Table
	names  []string
	cfg    Config
}

func NewDatabase(cfg Config) *Database {
	return &Database{
		tables: make(map[string]*Table),
		cfg:    cfg,
	}
}

func (d *Database) Config() Config {
	return d.cfg
}

// CreateTable builds a new table and registers it. Fails with a TableError
// if a table of that name already exists or the definition is invalid.
func (d *Database) CreateTable(name string, columns []Column) (*Table, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.tables[name]; exists {
		return nil, &TableError{Table: name, Msg: "already exists"}
	}
	table, err := NewTable(name, columns, d.cfg)
	if err != nil {
		return nil, err
	}
	d.tables[name] = table
	d.names = append(d.names, name)
	return table, nil
}

// AdoptTable registers an already-built table, used when reloading a
// serialized snapshot.
func (d *Database) AdoptTable(table *Table) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.tables[table.Name()]; exists {
		return &TableError{Table: table.Name(), Msg: "already exists"}
	}
	d.tables[table.Name()] = table
	d.names = append(d.names, table.Name())
	return nil
}

// Table looks a table up by name.
func (d *Database) Table(name string) (*Table, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	table, ok := d.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", name, ErrTableNotFound)
	}
	return table, nil
}

// TableNames returns the table names in creation order.
func (d *Database) TableNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.names...)
}

// Insert appends rows of already-coerced values and returns the assigned
// row ids in order.
func (d *Database) Insert(table string, rows [][]any) ([]int64, error) {
	t, err := d.Table(table)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, values := range rows {
		id, err := t.InsertRow(values)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Select runs a filtered, ordered, limited projection over one table.
func (d *Database) Select(table string, columns []string, predicate *Predicate, orderBy []OrderKey, limit int) (*ResultSet, error) {
	t, err := d.Table(table)
	if err != nil {
		return nil, err
	}
	return t.Select(columns, predicate, orderBy, limit)
}

// Update applies a set map to every row of a table matching the predicate.
func (d *Database) Update(table string, set map[string]Value, predicate *Predicate) (int, error) {
	t, err := d.Table(table)
	if err != nil {
		return 0, err
	}
	return t.Update(set, predicate)
}

// Delete removes every row of a table matching the predicate.
func (d *Database) Delete(table string, predicate *Predicate) (int, error) {
	t, err := d.Table(table)
	if err != nil {
		return 0, err
	}
	return t.Delete(predicate)
}

// CreateIndex creates and backfills a secondary index on a table column.
func (d *Database) CreateIndex(table, name, column, kind string) (Index, error) {
	t, err := d.Table(table)
	if err != nil {
		return nil, err
	}
	return t.CreateIndex(name, column, kind)
}
