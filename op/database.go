package op

import (
	"github.com/simpledb/simpledb/core"
	"github.com/simpledb/simpledb/ps"
)

// DatabaseOp pairs a live database with its snapshot store.
type DatabaseOp struct {
	Database *core.Database
	Store    *ps.Store
}

// Wrap builds a DatabaseOp over an existing database. The store may be nil
// for purely in-memory use; snapshot operations then fail with
// ps.ErrNotInitialized.
func Wrap(database *core.Database, store *ps.Store) *DatabaseOp {
	return &DatabaseOp{
		Database: database,
		Store:    store,
	}
}

// CreateTable creates a table and returns its TableOp.
func (op *DatabaseOp) CreateTable(name string, columns []core.Column) (*TableOp, error) {
	table, err := op.Database.CreateTable(name, columns)
	if err != nil {
		return nil, err
	}
	return &TableOp{Table: table}, nil
}

// Table looks up an existing table.
func (op *DatabaseOp) Table(name string) (*TableOp, error) {
	table, err := op.Database.Table(name)
	if err != nil {
		return nil, err
	}
	return &TableOp{Table: table}, nil
}

func (op *DatabaseOp) TableNames() []string {
	return op.Database.TableNames()
}

// Snapshot commits the current state to the store.
func (op *DatabaseOp) Snapshot(identity ps.Identity) (ps.Transaction, error) {
	if op.Store == nil {
		return ps.Transaction{}, ps.ErrNotInitialized
	}
	return op.Store.Save(op.Database, identity)
}

// History lists committed snapshots newest first.
func (op *DatabaseOp) History() []ps.Transaction {
	if op.Store == nil {
		return nil
	}
	return op.Store.History()
}

// RestoreAt replaces the live database with the state recorded in a past
// snapshot. The store's HEAD is untouched until the next Snapshot.
func (op *DatabaseOp) RestoreAt(asof ps.Transaction) error {
	if op.Store == nil {
		return ps.ErrNotInitialized
	}
	database, err := op.Store.LoadAt(asof)
	if err != nil {
		return err
	}
	op.Database = database
	return nil
}
