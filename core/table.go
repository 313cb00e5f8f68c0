package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Row is one stored record: a synthetic id plus one value per column in
// schema order. Row ids start at 1, grow monotonically and are never reused.
type Row struct {
	ID     int64 `json:"id"`
	Values []any `json:"values"`
}

// OrderKey is one key of a multi-key ordering spec.
type OrderKey struct {
	Column     string
	Descending bool
}

// ResultSet is the outcome of a select: the projected column names and the
// projected row values, in result order.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Table is a schema-validated row store that owns its secondary indexes.
// Every mutation propagates into every attached index before it returns, so
// no observer sees a row change while an index still reflects the old value.
type Table struct {
	mu      sync.RWMutex
	name    string
	columns []Column
	rows    []Row
	nextID  int64
	indexes map[string]Index
	cfg     Config
}

// NewTable builds an empty table, validating the table name, that at least
// one column exists, that column names are unique case-insensitively, and
// that at most one column is a primary key.
func NewTable(name string, columns []Column, cfg Config) (*Table, error) {
	if !validIdentifier(name, cfg.MaxTableNameLength) {
		return nil, &TableError{Table: name, Msg: "invalid table name"}
	}
	if len(columns) == 0 {
		return nil, &TableError{Table: name, Msg: "table must have at least one column"}
	}

	seen := make(map[string]bool, len(columns))
	primaryKeys := 0
	for _, col := range columns {
		lower := strings.ToLower(col.Name)
		if seen[lower] {
			return nil, &TableError{Table: name, Msg: fmt.Sprintf("duplicate column name %q", col.Name)}
		}
		seen[lower] = true
		if col.PrimaryKey {
			primaryKeys++
		}
	}
	if primaryKeys > 1 {
		return nil, &TableError{Table: name, Msg: "multiple primary key columns"}
	}

	return &Table{
		name:    name,
		columns: append([]Column(nil), columns...),
		nextID:  1,
		indexes: make(map[string]Index),
		cfg:     cfg,
	}, nil
}

func (t *Table) Name() string {
	return t.name
}

// Columns returns a copy of the declared column list in schema order.
func (t *Table) Columns() []Column {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Column(nil), t.columns...)
}

// Rows returns a copy of the row sequence in insertion order, so a
// persistence layer can serialize table state losslessly.
func (t *Table) Rows() []Row {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rows := make([]Row, len(t.rows))
	for i, row := range t.rows {
		rows[i] = Row{ID: row.ID, Values: append([]any(nil), row.Values...)}
	}
	return rows
}

func (t *Table) RowCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// NextRowID reports the id the next insert will take.
func (t *Table) NextRowID() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nextID
}

// InsertRow validates values against the schema, assigns the next row id,
// appends the row and propagates it into every attached index. Returns the
// assigned id.
func (t *Table) InsertRow(values []any) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.validateRow(values); err != nil {
		return 0, err
	}

	row := Row{ID: t.nextID, Values: append([]any(nil), values...)}
	t.nextID++
	t.rows = append(t.rows, row)
	for _, idx := range t.indexes {
		idx.Insert(row)
	}
	return row.ID, nil
}

// AdoptRow restores a previously serialized row, keeping its id. The row id
// counter advances past the adopted id so future inserts never reuse it.
func (t *Table) AdoptRow(row Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.validateRow(row.Values); err != nil {
		return err
	}
	if row.ID >= t.nextID {
		t.nextID = row.ID + 1
	}
	adopted := Row{ID: row.ID, Values: append([]any(nil), row.Values...)}
	t.rows = append(t.rows, adopted)
	for _, idx := range t.indexes {
		idx.Insert(adopted)
	}
	return nil
}

// RestoreRowIDCounter raises the next row id to at least next. Snapshots
// record the counter separately because the highest ever assigned id can
// exceed the highest surviving row.
func (t *Table) RestoreRowIDCounter(next int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if next > t.nextID {
		t.nextID = next
	}
}

// UpdateRow replaces the named columns of one row. Indexes are reconciled by
// removing the row's prior entries before inserting the new ones, so no
// index retains a stale key. Returns ErrRowNotFound if the id is absent.
func (t *Table) UpdateRow(id int64, changes map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updateRowLocked(id, changes)
}

func (t *Table) updateRowLocked(id int64, changes map[string]any) error {
	pos := t.rowPosition(id)
	if pos < 0 {
		return ErrRowNotFound
	}

	updated := append([]any(nil), t.rows[pos].Values...)
	for name, value := range changes {
		colPos, ok := t.columnPosition(name)
		if !ok {
			return &ColumnError{Column: name, Msg: "not found in table " + t.name}
		}
		if err := t.columns[colPos].ValidateValue(value); err != nil {
			return err
		}
		updated[colPos] = value
	}

	oldRow := t.rows[pos]
	newRow := Row{ID: id, Values: updated}
	for _, idx := range t.indexes {
		idx.Delete(oldRow)
		idx.Insert(newRow)
	}
	t.rows[pos] = newRow
	return nil
}

// DeleteRow removes one row from storage and from every attached index.
// Returns ErrRowNotFound if the id is absent. The id is never reassigned.
func (t *Table) DeleteRow(id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deleteRowLocked(id)
}

func (t *Table) deleteRowLocked(id int64) error {
	pos := t.rowPosition(id)
	if pos < 0 {
		return ErrRowNotFound
	}
	row := t.rows[pos]
	for _, idx := range t.indexes {
		idx.Delete(row)
	}
	t.rows = append(t.rows[:pos], t.rows[pos+1:]...)
	return nil
}

// Update coerces set values to their columns' declared types and applies
// them to every row matching the predicate. Returns the number of rows
// changed.
func (t *Table) Update(set map[string]Value, predicate *Predicate) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	changes := make(map[string]any, len(set))
	for name, value := range set {
		colPos, ok := t.columnPosition(name)
		if !ok {
			return 0, &ColumnError{Column: name, Msg: "not found in table " + t.name}
		}
		coerced, err := t.columns[colPos].Coerce(value)
		if err != nil {
			return 0, &ValidationError{Column: name, Msg: err.Error()}
		}
		changes[name] = coerced
	}

	ids, err := t.matchingIDs(predicate)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := t.updateRowLocked(id, changes); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

// Delete removes every row matching the predicate and returns the count.
func (t *Table) Delete(predicate *Predicate) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids, err := t.matchingIDs(predicate)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := t.deleteRowLocked(id); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

// Select filters rows by the predicate over a full scan, applies a stable
// multi-key sort, truncates to limit (negative means no limit) and projects
// the named columns. A nil or empty column list projects the full schema
// order.
func (t *Table) Select(columns []string, predicate *Predicate, orderBy []OrderKey, limit int) (*ResultSet, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	positions, names, err := t.resolveProjection(columns)
	if err != nil {
		return nil, err
	}

	orderPositions := make([]int, len(orderBy))
	for i, key := range orderBy {
		pos, ok := t.columnPosition(key.Column)
		if !ok {
			return nil, &ColumnError{Column: key.Column, Msg: "not found in table " + t.name}
		}
		orderPositions[i] = pos
	}

	var matched []Row
	for _, row := range t.rows {
		ok, err := t.evaluatePredicate(row, predicate)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, row)
		}
	}

	if len(orderBy) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for k, key := range orderBy {
				pos := orderPositions[k]
				cmp := compareKeys(matched[i].Values[pos], matched[j].Values[pos])
				if cmp == 0 {
					continue
				}
				if key.Descending {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	if limit >= 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	result := &ResultSet{Columns: names, Rows: make([][]any, len(matched))}
	for i, row := range matched {
		projected := make([]any, len(positions))
		for j, pos := range positions {
			projected[j] = row.Values[pos]
		}
		result.Rows[i] = projected
	}
	return result, nil
}

// CreateIndex builds an empty index of the named kind over a column,
// backfills it from every existing row, then publishes it under name.
func (t *Table) CreateIndex(name, column, kind string) (Index, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	colPos, ok := t.columnPosition(column)
	if !ok {
		return nil, &ColumnError{Column: column, Msg: "not found in table " + t.name}
	}
	indexKind, ok := ParseIndexKind(kind)
	if !ok {
		return nil, &IndexError{Index: name, Msg: fmt.Sprintf("unrecognized index kind %q", kind)}
	}
	if _, exists := t.indexes[name]; exists {
		return nil, &IndexError{Index: name, Msg: "already exists"}
	}

	var idx Index
	switch indexKind {
	case OrderedKind:
		idx = NewBTreeIndex(name, t.columns[colPos].Name, colPos, t.cfg.BTreeOrder)
	case PointKind:
		idx = NewHashIndex(name, t.columns[colPos].Name, colPos, t.cfg.HashTableSize)
	}

	for _, row := range t.rows {
		idx.Insert(row)
	}
	t.indexes[name] = idx
	return idx, nil
}

// Index returns a published index by name.
func (t *Table) Index(name string) (Index, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx, ok := t.indexes[name]
	return idx, ok
}

// Indexes returns the attached indexes sorted by name.
func (t *Table) Indexes() []Index {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.indexes))
	for name := range t.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	indexes := make([]Index, len(names))
	for i, name := range names {
		indexes[i] = t.indexes[name]
	}
	return indexes
}

func (t *Table) validateRow(values []any) error {
	if len(values) != len(t.columns) {
		return &ValidationError{Msg: fmt.Sprintf("expected %d values, got %d", len(t.columns), len(values))}
	}
	for i, col := range t.columns {
		if err := col.ValidateValue(values[i]); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) matchingIDs(predicate *Predicate) ([]int64, error) {
	var ids []int64
	for _, row := range t.rows {
		ok, err := t.evaluatePredicate(row, predicate)
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, row.ID)
		}
	}
	return ids, nil
}

func (t *Table) resolveProjection(columns []string) ([]int, []string, error) {
	if len(columns) == 0 {
		positions := make([]int, len(t.columns))
		names := make([]string, len(t.columns))
		for i, col := range t.columns {
			positions[i] = i
			names[i] = col.Name
		}
		return positions, names, nil
	}

	positions := make([]int, len(columns))
	names := make([]string, len(columns))
	for i, name := range columns {
		pos, ok := t.columnPosition(name)
		if !ok {
			return nil, nil, &ColumnError{Column: name, Msg: "not found in table " + t.name}
		}
		positions[i] = pos
		names[i] = t.columns[pos].Name
	}
	return positions, names, nil
}

func (t *Table) rowPosition(id int64) int {
	for i, row := range t.rows {
		if row.ID == id {
			return i
		}
	}
	return -1
}

// columnPosition resolves a column name case-insensitively, matching the
// case-insensitive uniqueness rule for column names.
func (t *Table) columnPosition(name string) (int, bool) {
	for i, col := range t.columns {
		if strings.EqualFold(col.Name, name) {
			return i, true
		}
	}
	return -1, false
}
