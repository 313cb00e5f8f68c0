package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/simpledb/simpledb"
	"github.com/simpledb/simpledb/core"
	"github.com/simpledb/simpledb/db"
	"github.com/simpledb/simpledb/ps"
)

const (
	PromptColor  = "\033[36m" // Cyan
	ErrorColor   = "\033[31m" // Red
	SuccessColor = "\033[32m" // Green
	ResetColor   = "\033[0m"
	BoldColor    = "\033[1m"
)

// Version is set at build time via -ldflags
var Version = "dev"

// CLI holds the CLI state
type CLI struct {
	engine      *db.Engine
	store       *ps.Store
	identity    ps.Identity
	history     []string
	historyFile string
}

func main() {
	dataDir := flag.String("dataDir", "", "Data directory for the database (memory if empty)")
	sqlFile := flag.String("sqlFile", "", "SQL file to execute (non-interactive)")
	userName := flag.String("name", "SimpleDB", "User name for snapshot commits")
	userEmail := flag.String("email", "cli@simpledb.local", "User email for snapshot commits")
	flag.Parse()

	printBanner()

	var store *ps.Store
	var err error

	if *dataDir == "" {
		fmt.Printf("%sUsing memory store%s\n", SuccessColor, ResetColor)
		store, err = ps.NewMemoryStore()
	} else {
		fmt.Printf("%sUsing file store: %s%s\n", SuccessColor, *dataDir, ResetColor)
		store, err = ps.NewFileStore(*dataDir)
	}
	if err != nil {
		fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
		return
	}

	instance, err := simpledb.Open(store, core.DefaultConfig())
	if err != nil {
		fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
		return
	}

	cli := &CLI{
		engine: instance.Engine(),
		store:  store,
		identity: ps.Identity{
			Name:  *userName,
			Email: *userEmail,
		},
		history:     make([]string, 0),
		historyFile: getHistoryPath(),
	}

	cli.loadHistory()

	// Execute SQL file if provided
	if *sqlFile != "" {
		err := cli.importFile(*sqlFile)
		if err != nil {
			fmt.Printf("%sError importing file: %v%s\n", ErrorColor, err, ResetColor)
			os.Exit(1)
		}
		return
	}

	cli.run()
}

func printBanner() {
	fmt.Println()
	bannerWidth := 39 // inner width of the banner box
	versionLine := fmt.Sprintf("SimpleDB v%s", Version)
	padding := bannerWidth - len(versionLine) - 2 // -2 for "  " margins
	if padding < 0 {
		padding = 0
	}
	leftPad := padding / 2
	rightPad := padding - leftPad

	fmt.Printf("%s%s╔═══════════════════════════════════════╗%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s║ %*s%s%*s ║%s\n", BoldColor, PromptColor, leftPad, "", versionLine, rightPad, "", ResetColor)
	fmt.Printf("%s%s║   In-memory SQL Engine                ║%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s╚═══════════════════════════════════════╝%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println()
	fmt.Println("Type .help for commands, .quit to exit")
	fmt.Println()
}

func (cli *CLI) run() {
	reader := bufio.NewReader(os.Stdin)
	var multiLineBuffer strings.Builder

	for {
		// Show prompt
		prompt := cli.getPrompt(multiLineBuffer.Len() > 0)
		fmt.Print(prompt)

		// Read input
		input, err := reader.ReadString('\n')
		if err != nil {
			cli.shutdown()
			return
		}

		input = strings.TrimSuffix(input, "\n")
		input = strings.TrimSuffix(input, "\r")

		// Handle empty input
		if strings.TrimSpace(input) == "" {
			continue
		}

		// Check for special commands (only when not in multi-line mode)
		if multiLineBuffer.Len() == 0 && strings.HasPrefix(input, ".") {
			if cli.handleCommand(input) {
				continue
			}
		}

		// Multi-line support: accumulate until we see a semicolon
		multiLineBuffer.WriteString(input)

		// Check if the statement is complete (ends with ;)
		trimmed := strings.TrimSpace(multiLineBuffer.String())
		if !strings.HasSuffix(trimmed, ";") {
			multiLineBuffer.WriteString(" ")
			continue
		}

		// Execute the complete statement
		sql := strings.TrimSuffix(trimmed, ";")
		multiLineBuffer.Reset()

		if strings.TrimSpace(sql) == "" {
			continue
		}

		// Add to history
		cli.addToHistory(sql + ";")

		// Execute SQL
		result, err := cli.engine.Execute(sql)
		if err != nil {
			fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		} else {
			result.Display()
		}
	}
}

func (cli *CLI) getPrompt(multiLine bool) string {
	if multiLine {
		return fmt.Sprintf("%s   ...>%s ", PromptColor, ResetColor)
	}
	return fmt.Sprintf("%ssimpledb>%s ", PromptColor, ResetColor)
}

func (cli *CLI) handleCommand(input string) bool {
	parts := strings.Fields(strings.TrimSpace(input))

	if len(parts) == 0 {
		return true
	}

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit", ".q":
		cli.shutdown()
		os.Exit(0)

	case ".help", ".h", ".?":
		cli.printHelp()

	case ".tables":
		cli.showTables()

	case ".schema":
		if len(parts) > 1 {
			cli.showSchema(parts[1])
		} else {
			fmt.Printf("%s✗ Usage: .schema <table>%s\n", ErrorColor, ResetColor)
		}

	case ".save":
		cli.save()

	case ".log":
		cli.showLog()

	case ".export":
		if len(parts) > 1 {
			err := ps.ExportSnapshot(cli.engine.Database(), parts[1], nil)
			if err != nil {
				fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
			} else {
				fmt.Printf("%s✓ Exported to %s%s\n", SuccessColor, parts[1], ResetColor)
			}
		} else {
			fmt.Printf("%s✗ Usage: .export <dest>%s\n", ErrorColor, ResetColor)
		}

	case ".restore":
		if len(parts) > 1 {
			database, err := ps.ImportSnapshot(parts[1], nil)
			if err != nil {
				fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
			} else {
				cli.engine = db.NewEngineWith(database)
				fmt.Printf("%s✓ Restored from %s%s\n", SuccessColor, parts[1], ResetColor)
			}
		} else {
			fmt.Printf("%s✗ Usage: .restore <source>%s\n", ErrorColor, ResetColor)
		}

	case ".clear", ".cls":
		fmt.Print("\033[H\033[2J")

	case ".history":
		cli.printHistory()

	case ".version":
		fmt.Printf("SimpleDB version %s\n", Version)

	case ".import":
		if len(parts) > 1 {
			err := cli.importFile(parts[1])
			if err != nil {
				fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
			}
		} else {
			fmt.Printf("%s✗ Usage: .import <file.sql>%s\n", ErrorColor, ResetColor)
		}

	default:
		fmt.Printf("%s✗ Unknown command: %s (type .help for commands)%s\n", ErrorColor, parts[0], ResetColor)
	}

	return true
}

func (cli *CLI) printHelp() {
	fmt.Println()
	fmt.Printf("%s%sSpecial Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println("  .help, .h        Show this help message")
	fmt.Println("  .quit, .exit     Save and exit the CLI")
	fmt.Println("  .tables          List all tables")
	fmt.Println("  .schema <table>  Show a table's columns and indexes")
	fmt.Println("  .save            Commit the current state to the store")
	fmt.Println("  .log             Show snapshot history")
	fmt.Println("  .export <dest>   Export a snapshot (file path, s3:// or URL)")
	fmt.Println("  .restore <src>   Replace the database from a snapshot")
	fmt.Println("  .import <file>   Execute SQL statements from a file")
	fmt.Println("  .history         Show command history")
	fmt.Println("  .clear           Clear the screen")
	fmt.Println("  .version         Show version info")
	fmt.Println()
	fmt.Printf("%s%sSQL Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println("  CREATE TABLE <table> (<column> <type> [NOT NULL] [PRIMARY KEY], ...);")
	fmt.Println("  INSERT INTO <table> [(<cols>)] VALUES (<vals>), ...;")
	fmt.Println("  SELECT <cols> FROM <table> [WHERE ...] [ORDER BY ...] [LIMIT n];")
	fmt.Println("  UPDATE <table> SET <col>=<val>, ... [WHERE ...];")
	fmt.Println("  DELETE FROM <table> [WHERE ...];")
	fmt.Println("  CREATE INDEX <name> ON <table> (<column>) [USING BTREE|HASH];")
	fmt.Println()
	fmt.Printf("%s%sTypes:%s INT, FLOAT, TEXT, BOOL\n", BoldColor, PromptColor, ResetColor)
	fmt.Println()
}

func (cli *CLI) showTables() {
	names := cli.engine.Database().TableNames()
	if len(names) == 0 {
		fmt.Println("No tables")
		return
	}

	writer := db.NewTableWriter(os.Stdout)
	writer.Header([]string{"table", "rows", "indexes"})
	for _, name := range names {
		table, err := cli.engine.Database().Table(name)
		if err != nil {
			continue
		}
		writer.Row([]string{
			name,
			fmt.Sprintf("%d", table.RowCount()),
			fmt.Sprintf("%d", len(table.Indexes())),
		})
	}
	writer.Render()
}

func (cli *CLI) showSchema(name string) {
	table, err := cli.engine.Database().Table(name)
	if err != nil {
		fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		return
	}

	writer := db.NewTableWriter(os.Stdout)
	writer.Header([]string{"column", "type", "nullable", "primary key"})
	for _, column := range table.Columns() {
		writer.Row([]string{
			column.Name,
			column.Type.String(),
			fmt.Sprintf("%t", column.Nullable),
			fmt.Sprintf("%t", column.PrimaryKey),
		})
	}
	writer.Render()

	indexes := table.Indexes()
	if len(indexes) == 0 {
		return
	}

	fmt.Println()
	writer = db.NewTableWriter(os.Stdout)
	writer.Header([]string{"index", "column", "kind"})
	for _, index := range indexes {
		writer.Row([]string{index.Name(), index.Column(), index.Kind().String()})
	}
	writer.Render()
}

func (cli *CLI) save() {
	txn, err := cli.store.Save(cli.engine.Database(), cli.identity)
	if err != nil {
		fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		return
	}
	fmt.Printf("%s✓ Saved snapshot %s%s\n", SuccessColor, txn.Id, ResetColor)
}

func (cli *CLI) showLog() {
	transactions := cli.store.History()
	if len(transactions) == 0 {
		fmt.Println("No snapshots")
		return
	}
	for _, txn := range transactions {
		fmt.Printf("  %s\n", txn)
	}
}

// shutdown saves history, commits pending state, and says goodbye.
func (cli *CLI) shutdown() {
	cli.saveHistory()
	if _, err := cli.store.Save(cli.engine.Database(), cli.identity); err != nil {
		fmt.Printf("%s✗ Save failed: %v%s\n", ErrorColor, err, ResetColor)
	}
	fmt.Printf("%sGoodbye!%s\n", SuccessColor, ResetColor)
}

func (cli *CLI) addToHistory(cmd string) {
	// Don't add duplicates of the last command
	if len(cli.history) > 0 && cli.history[len(cli.history)-1] == cmd {
		return
	}
	cli.history = append(cli.history, cmd)

	// Limit history size
	if len(cli.history) > 1000 {
		cli.history = cli.history[len(cli.history)-1000:]
	}
}

func (cli *CLI) printHistory() {
	if len(cli.history) == 0 {
		fmt.Println("No command history")
		return
	}

	start := 0
	if len(cli.history) > 20 {
		start = len(cli.history) - 20
	}

	for i := start; i < len(cli.history); i++ {
		fmt.Printf("  %3d  %s\n", i+1, cli.history[i])
	}
}

func getHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".simpledb_history")
}

func (cli *CLI) loadHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Open(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		cli.history = append(cli.history, scanner.Text())
	}
}

func (cli *CLI) saveHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Create(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	// Save last 1000 entries
	start := 0
	if len(cli.history) > 1000 {
		start = len(cli.history) - 1000
	}

	for i := start; i < len(cli.history); i++ {
		_, _ = file.WriteString(cli.history[i] + "\n")
	}
}

// importFile reads and executes SQL statements from a file
func (cli *CLI) importFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	content := string(data)
	statements := splitStatements(content)

	successCount := 0
	errorCount := 0

	for i, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || strings.HasPrefix(stmt, "--") {
			continue
		}

		result, err := cli.engine.Execute(stmt)
		if err != nil {
			fmt.Printf("%s[%d] ✗ %s%s\n", ErrorColor, i+1, truncate(stmt, 50), ResetColor)
			fmt.Printf("      Error: %v\n", err)
			errorCount++
		} else {
			successCount++
			// Compact output based on result type
			switch r := result.(type) {
			case db.ExecResult:
				fmt.Printf("%s[%d] ✓ %s (%s, %d affected)%s\n", SuccessColor, i+1, truncate(stmt, 50), r.Operation, r.RowsAffected, ResetColor)
			case db.QueryResult:
				fmt.Printf("%s[%d] ✓ %s (%d rows)%s\n", SuccessColor, i+1, truncate(stmt, 50), r.RecordsRead, ResetColor)
			default:
				fmt.Printf("%s[%d] ✓ %s%s\n", SuccessColor, i+1, truncate(stmt, 50), ResetColor)
			}
		}
	}

	fmt.Printf("\n%s✓ Import complete: %d succeeded, %d failed%s\n",
		SuccessColor, successCount, errorCount, ResetColor)

	return nil
}

// splitStatements splits SQL content into individual statements
func splitStatements(content string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := byte(0)

	for i := 0; i < len(content); i++ {
		ch := content[i]

		// Handle string literals
		if (ch == '\'' || ch == '"') && (i == 0 || content[i-1] != '\\') {
			if !inString {
				inString = true
				stringChar = ch
			} else if ch == stringChar {
				inString = false
			}
		}

		// Handle comments
		if !inString && ch == '-' && i+1 < len(content) && content[i+1] == '-' {
			// Skip to end of line
			for i < len(content) && content[i] != '\n' {
				i++
			}
			continue
		}

		// Statement separator
		if !inString && ch == ';' {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
			continue
		}

		current.WriteByte(ch)
	}

	// Handle last statement without semicolon
	stmt := strings.TrimSpace(current.String())
	if stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}

// truncate shortens a string to max length with ellipsis
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
