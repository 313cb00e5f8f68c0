package ps

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/simpledb/simpledb/core"
)

var testIdentity = Identity{Name: "test", Email: "test@test.com"}

func buildDatabase(t *testing.T) *core.Database {
	t.Helper()
	database := core.NewDatabase(core.DefaultConfig())

	id, err := core.NewColumn("id", "INT", false, true, database.Config())
	if err != nil {
		t.Fatal(err)
	}
	name, err := core.NewColumn("name", "TEXT", true, false, database.Config())
	if err != nil {
		t.Fatal(err)
	}
	score, err := core.NewColumn("score", "FLOAT", true, false, database.Config())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := database.CreateTable("users", []core.Column{id, name, score}); err != nil {
		t.Fatal(err)
	}

	if _, err := database.Insert("users", [][]any{
		{int64(1), "alice", 9.5},
		{int64(2), "bob", nil},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := database.CreateIndex("users", "idx_id", "id", "BTREE"); err != nil {
		t.Fatal(err)
	}
	if _, err := database.CreateIndex("users", "idx_name", "name", "HASH"); err != nil {
		t.Fatal(err)
	}
	return database
}

func TestNewMemoryStore(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create memory store: %v", err)
	}
	if !store.IsInitialized() {
		t.Error("Expected store to be initialized")
	}
}

func TestStoreNotInitialized(t *testing.T) {
	var store Store

	if store.IsInitialized() {
		t.Error("Expected uninitialized store to return false")
	}
	if err := store.ensureInitialized(); err != ErrNotInitialized {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatal(err)
	}
	database := buildDatabase(t)

	txn, err := store.Save(database, testIdentity)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if txn.Id == "" {
		t.Error("Expected transaction id to be set")
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	table, err := loaded.Table("users")
	if err != nil {
		t.Fatal(err)
	}
	rows := table.Rows()
	if len(rows) != 2 {
		t.Fatalf("loaded %d rows, expected 2", len(rows))
	}
	if !reflect.DeepEqual(rows[0].Values, []any{int64(1), "alice", 9.5}) {
		t.Errorf("row 1 = %v", rows[0].Values)
	}
	if !reflect.DeepEqual(rows[1].Values, []any{int64(2), "bob", nil}) {
		t.Errorf("row 2 = %v", rows[1].Values)
	}
	if len(table.Indexes()) != 2 {
		t.Errorf("loaded %d indexes, expected 2", len(table.Indexes()))
	}

	// indexes are rebuilt and answer lookups
	idx, ok := table.Index("idx_id")
	if !ok {
		t.Fatal("idx_id missing after load")
	}
	if ids := idx.Lookup(int64(2)); !reflect.DeepEqual(ids, []int64{2}) {
		t.Errorf("Lookup(2) = %v, expected [2]", ids)
	}
}

func TestLoadPreservesRowIDCounter(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatal(err)
	}
	database := buildDatabase(t)

	// delete the highest row so the counter exceeds every surviving id
	if _, err := database.Delete("users",
		core.Compare(core.RawValue("id"), core.OpEquals, core.RawValue("2"))); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Save(database, testIdentity); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}

	table, err := loaded.Table("users")
	if err != nil {
		t.Fatal(err)
	}
	if next := table.NextRowID(); next != 3 {
		t.Errorf("NextRowID = %d, expected 3", next)
	}
}

func TestLoadWithoutSnapshot(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestSaveDropsVanishedTables(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatal(err)
	}

	database := buildDatabase(t)
	if _, err := store.Save(database, testIdentity); err != nil {
		t.Fatal(err)
	}

	// a later snapshot from a database without the table removes its file
	empty := core.NewDatabase(core.DefaultConfig())
	if _, err := store.Save(empty, testIdentity); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if names := loaded.TableNames(); len(names) != 0 {
		t.Errorf("loaded tables %v, expected none", names)
	}
}

func TestHistory(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatal(err)
	}
	database := buildDatabase(t)

	if _, err := store.Save(database, testIdentity); err != nil {
		t.Fatal(err)
	}
	if _, err := database.Insert("users", [][]any{{int64(3), "carol", nil}}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(database, testIdentity); err != nil {
		t.Fatal(err)
	}

	history := store.History()
	if len(history) != 2 {
		t.Fatalf("history length = %d, expected 2", len(history))
	}
	latest := store.LatestTransaction()
	if latest.Id != history[0].Id {
		t.Errorf("LatestTransaction %s does not match history head %s", latest.Id, history[0].Id)
	}
}

func TestLoadAt(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatal(err)
	}
	database := buildDatabase(t)

	first, err := store.Save(database, testIdentity)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := database.Insert("users", [][]any{{int64(3), "carol", nil}}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(database, testIdentity); err != nil {
		t.Fatal(err)
	}

	old, err := store.LoadAt(first)
	if err != nil {
		t.Fatalf("LoadAt failed: %v", err)
	}
	table, err := old.Table("users")
	if err != nil {
		t.Fatal(err)
	}
	if table.RowCount() != 2 {
		t.Errorf("snapshot has %d rows, expected 2", table.RowCount())
	}

	// HEAD still points at the later snapshot
	latest, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	table, err = latest.Table("users")
	if err != nil {
		t.Fatal(err)
	}
	if table.RowCount() != 3 {
		t.Errorf("head has %d rows, expected 3", table.RowCount())
	}

	if _, err := store.LoadAt(Transaction{Id: "0000000000000000000000000000000000000000"}); err == nil {
		t.Error("expected error for unknown snapshot")
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}
	database := buildDatabase(t)
	if _, err := store.Save(database, testIdentity); err != nil {
		t.Fatal(err)
	}

	// reopen and load
	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("Failed to reopen file store: %v", err)
	}
	loaded, err := reopened.Load()
	if err != nil {
		t.Fatalf("Load after reopen failed: %v", err)
	}
	table, err := loaded.Table("users")
	if err != nil {
		t.Fatal(err)
	}
	if table.RowCount() != 2 {
		t.Errorf("loaded %d rows, expected 2", table.RowCount())
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	database := buildDatabase(t)

	var buf bytes.Buffer
	restoreCreate := osCreate
	restoreOpen := osOpen
	osCreate = func(path string) (io.WriteCloser, error) {
		return nopWriteCloser{&buf}, nil
	}
	osOpen = func(path string) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
	}
	defer func() {
		osCreate = restoreCreate
		osOpen = restoreOpen
	}()

	if err := ExportSnapshot(database, "backup.json", nil); err != nil {
		t.Fatalf("ExportSnapshot failed: %v", err)
	}

	imported, err := ImportSnapshot("backup.json", nil)
	if err != nil {
		t.Fatalf("ImportSnapshot failed: %v", err)
	}

	table, err := imported.Table("users")
	if err != nil {
		t.Fatal(err)
	}
	if table.RowCount() != 2 {
		t.Errorf("imported %d rows, expected 2", table.RowCount())
	}
	if len(table.Indexes()) != 2 {
		t.Errorf("imported %d indexes, expected 2", len(table.Indexes()))
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
