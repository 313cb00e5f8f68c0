package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/simpledb/simpledb/core"
	"github.com/simpledb/simpledb/sql"
)

// ErrTransactionsUnsupported is returned for BEGIN, COMMIT and ROLLBACK.
// The statements parse so that clients get a deliberate answer instead of
// a syntax error.
var ErrTransactionsUnsupported = errors.New("transactions are not supported")

// Engine executes statements against an in-memory database.
type Engine struct {
	database *core.Database
	cfg      core.Config
}

func NewEngine(cfg core.Config) *Engine {
	return &Engine{
		database: core.NewDatabase(cfg),
		cfg:      cfg,
	}
}

// NewEngineWith wraps an existing database, for callers that load one from
// a snapshot before serving queries.
func NewEngineWith(database *core.Database) *Engine {
	return &Engine{
		database: database,
		cfg:      database.Config(),
	}
}

// Database exposes the underlying store for persistence and inspection.
func (engine *Engine) Database() *core.Database {
	return engine.database
}

// Execute tokenizes, parses and runs a single statement.
func (engine *Engine) Execute(query string) (Result, error) {
	tokens, err := sql.Tokenize(query, engine.cfg)
	if err != nil {
		return nil, err
	}
	command, err := sql.Parse(tokens)
	if err != nil {
		return nil, err
	}

	switch command.Kind {
	case sql.CreateTableCommand:
		return engine.executeCreateTable(command.CreateTable)
	case sql.InsertCommand:
		return engine.executeInsert(command.Insert)
	case sql.SelectCommand:
		return engine.executeSelect(command.Select)
	case sql.UpdateCommand:
		return engine.executeUpdate(command.Update)
	case sql.DeleteCommand:
		return engine.executeDelete(command.Delete)
	case sql.CreateIndexCommand:
		return engine.executeCreateIndex(command.CreateIndex)
	case sql.TransactionCommand:
		return nil, fmt.Errorf("%s: %w", command.Transaction.Op, ErrTransactionsUnsupported)
	default:
		return nil, fmt.Errorf("unsupported command kind: %v", command.Kind)
	}
}

func (engine *Engine) executeCreateTable(statement *sql.CreateTable) (ExecResult, error) {
	startTime := time.Now()

	columns := make([]core.Column, 0, len(statement.Columns))
	for _, def := range statement.Columns {
		column, err := core.NewColumn(def.Name, def.Type, !def.NotNull, def.PrimaryKey, engine.cfg)
		if err != nil {
			return ExecResult{}, err
		}
		columns = append(columns, column)
	}

	if _, err := engine.database.CreateTable(statement.Table, columns); err != nil {
		return ExecResult{}, err
	}

	return ExecResult{
		Operation:        "CREATE TABLE",
		Table:            statement.Table,
		ExecutionTimeSec: time.Since(startTime).Seconds(),
		ExecutionOps:     1,
	}, nil
}

func (engine *Engine) executeInsert(statement *sql.Insert) (ExecResult, error) {
	startTime := time.Now()

	table, err := engine.database.Table(statement.Table)
	if err != nil {
		return ExecResult{}, err
	}
	columns := table.Columns()

	rows := make([][]any, 0, len(statement.Rows))
	for _, values := range statement.Rows {
		row, err := bindRow(columns, statement.Columns, values)
		if err != nil {
			return ExecResult{}, err
		}
		rows = append(rows, row)
	}

	ids, err := engine.database.Insert(statement.Table, rows)
	if err != nil {
		return ExecResult{}, err
	}

	return ExecResult{
		Operation:        "INSERT",
		Table:            statement.Table,
		RowsAffected:     len(ids),
		RowIDs:           ids,
		ExecutionTimeSec: time.Since(startTime).Seconds(),
		ExecutionOps:     len(ids),
	}, nil
}

// bindRow coerces one VALUES tuple into table column order. With an
// explicit column list, unlisted columns receive NULL and are still
// subject to nullability checks downstream.
func bindRow(columns []core.Column, names []string, values []core.Value) ([]any, error) {
	if len(names) == 0 {
		if len(values) != len(columns) {
			return nil, fmt.Errorf("expected %d values, got %d", len(columns), len(values))
		}
		row := make([]any, len(columns))
		for i, column := range columns {
			coerced, err := column.Coerce(values[i])
			if err != nil {
				return nil, err
			}
			row[i] = coerced
		}
		return row, nil
	}

	if len(names) != len(values) {
		return nil, fmt.Errorf("expected %d values, got %d", len(names), len(values))
	}

	row := make([]any, len(columns))
	for i, name := range names {
		pos := -1
		for j, column := range columns {
			if strings.EqualFold(column.Name, name) {
				pos = j
				break
			}
		}
		if pos < 0 {
			return nil, &core.ColumnError{Column: name, Msg: "unknown column"}
		}
		coerced, err := columns[pos].Coerce(values[i])
		if err != nil {
			return nil, err
		}
		row[pos] = coerced
	}
	return row, nil
}

func (engine *Engine) executeSelect(statement *sql.Select) (QueryResult, error) {
	startTime := time.Now()

	var columns []string
	if !statement.Star {
		columns = statement.Columns
	}

	table, err := engine.database.Table(statement.Table)
	if err != nil {
		return QueryResult{}, err
	}
	scanned := table.RowCount()

	result, err := engine.database.Select(statement.Table, columns, statement.Where, statement.OrderBy, statement.Limit)
	if err != nil {
		return QueryResult{}, err
	}

	data := make([][]string, len(result.Rows))
	for i, row := range result.Rows {
		data[i] = make([]string, len(row))
		for j, value := range row {
			data[i][j] = core.FormatValue(value)
		}
	}

	return QueryResult{
		Columns:          result.Columns,
		Data:             data,
		RecordsRead:      len(data),
		ExecutionTimeSec: time.Since(startTime).Seconds(),
		ExecutionOps:     scanned,
	}, nil
}

func (engine *Engine) executeUpdate(statement *sql.Update) (ExecResult, error) {
	startTime := time.Now()

	set := make(map[string]core.Value, len(statement.Set))
	for _, clause := range statement.Set {
		set[clause.Column] = clause.Value
	}

	affected, err := engine.database.Update(statement.Table, set, statement.Where)
	if err != nil {
		return ExecResult{}, err
	}

	return ExecResult{
		Operation:        "UPDATE",
		Table:            statement.Table,
		RowsAffected:     affected,
		ExecutionTimeSec: time.Since(startTime).Seconds(),
		ExecutionOps:     affected,
	}, nil
}

func (engine *Engine) executeDelete(statement *sql.Delete) (ExecResult, error) {
	startTime := time.Now()

	affected, err := engine.database.Delete(statement.Table, statement.Where)
	if err != nil {
		return ExecResult{}, err
	}

	return ExecResult{
		Operation:        "DELETE",
		Table:            statement.Table,
		RowsAffected:     affected,
		ExecutionTimeSec: time.Since(startTime).Seconds(),
		ExecutionOps:     affected,
	}, nil
}

func (engine *Engine) executeCreateIndex(statement *sql.CreateIndex) (ExecResult, error) {
	startTime := time.Now()

	if _, err := engine.database.CreateIndex(statement.Table, statement.Name, statement.Column, statement.Kind); err != nil {
		return ExecResult{}, err
	}

	return ExecResult{
		Operation:        "CREATE INDEX",
		Table:            statement.Table,
		ExecutionTimeSec: time.Since(startTime).Seconds(),
		ExecutionOps:     1,
	}, nil
}
