package ps

import (
	"encoding/json"
	"fmt"

	"github.com/simpledb/simpledb/core"
)

const (
	tablesDir  = "tables"
	configFile = "config.json"
)

// tableSnapshot is the JSON form of one table: schema, rows, the row id
// counter and the attached index definitions. Index contents are rebuilt on
// load rather than stored.
type tableSnapshot struct {
	Name      string          `json:"name"`
	Columns   []core.Column   `json:"columns"`
	NextRowID int64           `json:"nextRowId"`
	Rows      []core.Row      `json:"rows"`
	Indexes   []indexSnapshot `json:"indexes,omitempty"`
}

type indexSnapshot struct {
	Name   string `json:"name"`
	Column string `json:"column"`
	Kind   string `json:"kind"`
}

// encodeSnapshot renders every table of the database to its snapshot file,
// keyed by repository path.
func encodeSnapshot(database *core.Database) (map[string][]byte, error) {
	files := make(map[string][]byte)

	cfgData, err := json.MarshalIndent(database.Config(), "", "  ")
	if err != nil {
		return nil, err
	}
	files[configFile] = cfgData

	for _, name := range database.TableNames() {
		table, err := database.Table(name)
		if err != nil {
			return nil, err
		}
		data, err := encodeTable(table)
		if err != nil {
			return nil, fmt.Errorf("failed to encode table %s: %w", name, err)
		}
		files[tablesDir+"/"+name+".json"] = data
	}

	return files, nil
}

func encodeTable(table *core.Table) ([]byte, error) {
	snapshot := tableSnapshot{
		Name:      table.Name(),
		Columns:   table.Columns(),
		NextRowID: table.NextRowID(),
		Rows:      table.Rows(),
	}
	for _, idx := range table.Indexes() {
		snapshot.Indexes = append(snapshot.Indexes, indexSnapshot{
			Name:   idx.Name(),
			Column: idx.Column(),
			Kind:   idx.Kind().String(),
		})
	}
	return json.MarshalIndent(snapshot, "", "  ")
}

// decodeTable rebuilds a table from its snapshot file. Row values are
// restored to the native type each column declares, since JSON alone cannot
// distinguish INT from FLOAT.
func decodeTable(data []byte, cfg core.Config) (*core.Table, error) {
	var snapshot struct {
		Name      string            `json:"name"`
		Columns   []core.Column     `json:"columns"`
		NextRowID int64             `json:"nextRowId"`
		Rows      []json.RawMessage `json:"rows"`
		Indexes   []indexSnapshot   `json:"indexes"`
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}

	table, err := core.NewTable(snapshot.Name, snapshot.Columns, cfg)
	if err != nil {
		return nil, err
	}

	// indexes first, so adopted rows backfill them
	for _, idx := range snapshot.Indexes {
		if _, err := table.CreateIndex(idx.Name, idx.Column, idx.Kind); err != nil {
			return nil, err
		}
	}

	for _, raw := range snapshot.Rows {
		row, err := decodeRow(raw, snapshot.Columns)
		if err != nil {
			return nil, err
		}
		if err := table.AdoptRow(row); err != nil {
			return nil, err
		}
	}
	table.RestoreRowIDCounter(snapshot.NextRowID)

	return table, nil
}

func decodeRow(data []byte, columns []core.Column) (core.Row, error) {
	var raw struct {
		ID     int64             `json:"id"`
		Values []json.RawMessage `json:"values"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return core.Row{}, err
	}
	if len(raw.Values) != len(columns) {
		return core.Row{}, fmt.Errorf("row %d has %d values for %d columns", raw.ID, len(raw.Values), len(columns))
	}

	values := make([]any, len(raw.Values))
	for i, rawValue := range raw.Values {
		value, err := decodeValue(rawValue, columns[i].Type)
		if err != nil {
			return core.Row{}, fmt.Errorf("row %d column %s: %w", raw.ID, columns[i].Name, err)
		}
		values[i] = value
	}
	return core.Row{ID: raw.ID, Values: values}, nil
}

func decodeValue(data []byte, columnType core.ColumnType) (any, error) {
	if string(data) == "null" {
		return nil, nil
	}

	switch columnType {
	case core.IntType:
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		return n, nil
	case core.FloatType:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f, nil
	case core.TextType:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return s, nil
	case core.BoolType:
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported column type %v", columnType)
	}
}

func decodeConfig(data []byte) (core.Config, error) {
	var cfg core.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return core.Config{}, err
	}
	return cfg, nil
}
