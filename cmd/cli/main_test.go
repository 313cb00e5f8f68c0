package main

import (
	"strings"
	"testing"

	"github.com/simpledb/simpledb"
	"github.com/simpledb/simpledb/core"
	"github.com/simpledb/simpledb/db"
	"github.com/simpledb/simpledb/ps"
)

func setupTestCLI(t *testing.T) *CLI {
	store, err := ps.NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	instance, err := simpledb.Open(store, core.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to open instance: %v", err)
	}

	return &CLI{
		engine:   instance.Engine(),
		store:    store,
		identity: ps.Identity{Name: "test", Email: "test@test.com"},
		history:  make([]string, 0),
	}
}

func TestCLICreateTableAndInsert(t *testing.T) {
	cli := setupTestCLI(t)

	// Setup
	_, err := cli.engine.Execute("CREATE TABLE users (id INT PRIMARY KEY, name TEXT)")
	if err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}

	// Insert
	_, err = cli.engine.Execute("INSERT INTO users (id, name) VALUES (1, 'Alice')")
	if err != nil {
		t.Fatalf("INSERT failed: %v", err)
	}

	// Select
	result, err := cli.engine.Execute("SELECT * FROM users")
	if err != nil {
		t.Fatalf("SELECT failed: %v", err)
	}

	if result == nil {
		t.Fatal("Expected non-nil result")
	}
}

func TestCLIAddToHistory(t *testing.T) {
	cli := setupTestCLI(t)

	cli.addToHistory("SELECT * FROM test")
	cli.addToHistory("INSERT INTO test VALUES (1)")

	if len(cli.history) != 2 {
		t.Errorf("Expected 2 history entries, got %d", len(cli.history))
	}

	// Adding duplicate of last command should not increase count
	cli.addToHistory("INSERT INTO test VALUES (1)")
	if len(cli.history) != 2 {
		t.Errorf("Expected 2 history entries after duplicate, got %d", len(cli.history))
	}
}

func TestCLIHistoryLimit(t *testing.T) {
	cli := setupTestCLI(t)

	// Add more than 1000 entries
	for i := 0; i < 1100; i++ {
		cli.addToHistory("SELECT " + string(rune(i)))
	}

	if len(cli.history) > 1000 {
		t.Errorf("Expected history to be limited to 1000, got %d", len(cli.history))
	}
}

func TestCLIGetPrompt(t *testing.T) {
	cli := setupTestCLI(t)

	// Normal prompt
	prompt := cli.getPrompt(false)
	if !strings.Contains(prompt, "simpledb") {
		t.Error("Expected prompt to contain 'simpledb'")
	}

	// Multi-line prompt
	prompt = cli.getPrompt(true)
	if !strings.Contains(prompt, "...>") {
		t.Error("Expected multi-line prompt to contain '...>'")
	}
}

func TestCLIHandleCommand(t *testing.T) {
	cli := setupTestCLI(t)

	tests := []struct {
		command  string
		expected bool // should return true (command handled)
	}{
		{".help", true},
		{".version", true},
		{".history", true},
		{".tables", true},
		{".unknown", true}, // Unknown commands are still handled (with error message)
	}

	for _, test := range tests {
		result := cli.handleCommand(test.command)
		if result != test.expected {
			t.Errorf("handleCommand(%s) = %v, expected %v", test.command, result, test.expected)
		}
	}
}

func TestCLISaveCommand(t *testing.T) {
	cli := setupTestCLI(t)

	cli.engine.Execute("CREATE TABLE t (id INT PRIMARY KEY)")
	cli.handleCommand(".save")

	txn := cli.store.LatestTransaction()
	if txn.Id == "" {
		t.Error("Expected a snapshot after .save")
	}
}

func TestVersionVariable(t *testing.T) {
	// Test that Version variable exists and has a default value
	if Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"single statement", "SELECT * FROM test", 1},
		{"two statements", "SELECT * FROM a; SELECT * FROM b", 2},
		{"with semicolons", "INSERT INTO t VALUES (1); INSERT INTO t VALUES (2);", 2},
		{"with comments", "-- comment\nSELECT * FROM test", 1},
		{"multiline", "CREATE TABLE t (\n  id INT,\n  name TEXT\n);", 1},
		{"empty", "", 0},
		{"only semicolons", ";;;", 0},
		{"string with semicolon", "INSERT INTO t (s) VALUES ('a;b')", 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := splitStatements(test.input)
			if len(result) != test.expected {
				t.Errorf("splitStatements(%q) = %d statements, expected %d", test.input, len(result), test.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		max      int
		expected string
	}{
		{"short", 10, "short"},
		{"this is a long string", 10, "this is..."},
		{"exact", 5, "exact"},
		{"ab", 10, "ab"},
	}

	for _, test := range tests {
		result := truncate(test.input, test.max)
		if result != test.expected {
			t.Errorf("truncate(%q, %d) = %q, expected %q", test.input, test.max, result, test.expected)
		}
	}
}

func TestImportFile(t *testing.T) {
	cli := setupTestCLI(t)

	// Test importing the example file
	err := cli.importFile("../../examples/shop.sql")
	if err != nil {
		t.Fatalf("importFile failed: %v", err)
	}

	// Verify data was imported
	result, err := cli.engine.Execute("SELECT * FROM products")
	if err != nil {
		t.Fatalf("SELECT failed: %v", err)
	}

	// We inserted 5 products
	qr := result.(db.QueryResult)
	if qr.RecordsRead != 5 {
		t.Errorf("Expected 5 products, got %d", qr.RecordsRead)
	}

	// Verify customers
	result, _ = cli.engine.Execute("SELECT * FROM customers")
	qr = result.(db.QueryResult)
	if qr.RecordsRead != 3 {
		t.Errorf("Expected 3 customers, got %d", qr.RecordsRead)
	}
}

func TestImportFileNotFound(t *testing.T) {
	cli := setupTestCLI(t)

	err := cli.importFile("nonexistent.sql")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestImportCommand(t *testing.T) {
	cli := setupTestCLI(t)

	// Test .import command handling
	result := cli.handleCommand(".import")
	if !result {
		t.Error("Expected .import to be handled")
	}
}
