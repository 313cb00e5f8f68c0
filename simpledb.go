package simpledb

import (
	"errors"

	"github.com/simpledb/simpledb/core"
	"github.com/simpledb/simpledb/db"
	"github.com/simpledb/simpledb/ps"
)

// Instance ties an execution engine to a snapshot store.
type Instance struct {
	Store  *ps.Store
	engine *db.Engine
}

// Open builds an instance on top of a store, resuming from the latest
// snapshot when one exists.
func Open(store *ps.Store, cfg core.Config) (*Instance, error) {
	instance := &Instance{Store: store}

	if store != nil {
		database, err := store.Load()
		switch {
		case err == nil:
			instance.engine = db.NewEngineWith(database)
			return instance, nil
		case errors.Is(err, ps.ErrNoSnapshot):
			// fresh store, start empty
		default:
			return nil, err
		}
	}

	instance.engine = db.NewEngine(cfg)
	return instance, nil
}

// Engine returns the statement executor.
func (instance *Instance) Engine() *db.Engine {
	return instance.engine
}

// Execute runs one statement.
func (instance *Instance) Execute(query string) (db.Result, error) {
	return instance.engine.Execute(query)
}

// Save commits the current database state to the store.
func (instance *Instance) Save(identity ps.Identity) (ps.Transaction, error) {
	if instance.Store == nil {
		return ps.Transaction{}, ps.ErrNotInitialized
	}
	return instance.Store.Save(instance.engine.Database(), identity)
}
