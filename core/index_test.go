package core

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

func TestParseIndexKind(t *testing.T) {
	tests := []struct {
		name string
		kind IndexKind
		ok   bool
	}{
		{"BTREE", OrderedKind, true},
		{"btree", OrderedKind, true},
		{"ORDERED", OrderedKind, true},
		{"HASH", PointKind, true},
		{"point", PointKind, true},
		{"BITMAP", 0, false},
	}
	for _, tc := range tests {
		kind, ok := ParseIndexKind(tc.name)
		if ok != tc.ok || (ok && kind != tc.kind) {
			t.Errorf("ParseIndexKind(%q) = %v, %v", tc.name, kind, ok)
		}
	}
}

func intRow(id int64, key int64) Row {
	return Row{ID: id, Values: []any{key}}
}

func TestBTreeIndexInsertAndLookup(t *testing.T) {
	idx := NewBTreeIndex("idx", "k", 0, 4)

	// Shuffled distinct keys, enough to force several splits at order 4.
	keys := rand.New(rand.NewSource(1)).Perm(64)
	for i, k := range keys {
		idx.Insert(intRow(int64(i+1), int64(k)))
	}

	for i, k := range keys {
		ids := idx.Lookup(int64(k))
		if !reflect.DeepEqual(ids, []int64{int64(i + 1)}) {
			t.Fatalf("Lookup(%d) = %v, expected [%d]", k, ids, i+1)
		}
	}
	if ids := idx.Lookup(int64(64)); ids != nil {
		t.Errorf("Lookup(64) = %v, expected nil", ids)
	}

	got := idx.Keys()
	if len(got) != 64 {
		t.Fatalf("Keys() returned %d keys, expected 64", len(got))
	}
	if !sort.SliceIsSorted(got, func(i, j int) bool { return got[i].(int64) < got[j].(int64) }) {
		t.Error("Keys() not in sorted order")
	}
}

func TestBTreeIndexDuplicateKeys(t *testing.T) {
	idx := NewBTreeIndex("idx", "k", 0, 4)
	idx.Insert(intRow(1, 7))
	idx.Insert(intRow(2, 7))
	idx.Insert(intRow(1, 7)) // same row again

	if ids := idx.Lookup(int64(7)); !reflect.DeepEqual(ids, []int64{1, 2}) {
		t.Errorf("Lookup(7) = %v, expected [1 2]", ids)
	}
}

func TestBTreeIndexDelete(t *testing.T) {
	idx := NewBTreeIndex("idx", "k", 0, 4)
	for i := int64(1); i <= 10; i++ {
		idx.Insert(intRow(i, i))
	}
	idx.Insert(intRow(11, 5))

	idx.Delete(intRow(5, 5))
	if ids := idx.Lookup(int64(5)); !reflect.DeepEqual(ids, []int64{11}) {
		t.Errorf("Lookup(5) after partial delete = %v, expected [11]", ids)
	}

	// Emptying an entry hides it from Lookup, Keys and Range.
	idx.Delete(intRow(11, 5))
	if ids := idx.Lookup(int64(5)); len(ids) != 0 {
		t.Errorf("Lookup(5) after full delete = %v", ids)
	}
	for _, key := range idx.Keys() {
		if key == int64(5) {
			t.Error("Keys() still lists a fully deleted key")
		}
	}
	if ids := idx.Range(int64(5), int64(5), true, true); len(ids) != 0 {
		t.Errorf("Range over deleted key = %v", ids)
	}

	// Deleting an absent row is a no-op.
	idx.Delete(intRow(99, 42))
}

func TestBTreeIndexRange(t *testing.T) {
	idx := NewBTreeIndex("idx", "k", 0, 4)
	for i := int64(1); i <= 10; i++ {
		idx.Insert(intRow(i, i))
	}

	tests := []struct {
		name               string
		min, max           any
		withMin, withMax   bool
		expected           []int64
	}{
		{"inclusive both", int64(3), int64(6), true, true, []int64{3, 4, 5, 6}},
		{"exclusive min", int64(3), int64(6), false, true, []int64{4, 5, 6}},
		{"exclusive max", int64(3), int64(6), true, false, []int64{3, 4, 5}},
		{"exclusive both", int64(3), int64(6), false, false, []int64{4, 5}},
		{"open min", nil, int64(2), true, true, []int64{1, 2}},
		{"open max", int64(9), nil, true, true, []int64{9, 10}},
		{"open both", nil, nil, true, true, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{"empty interval", int64(6), int64(3), true, true, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ids := idx.Range(tc.min, tc.max, tc.withMin, tc.withMax)
			if !reflect.DeepEqual(ids, tc.expected) {
				t.Errorf("Range = %v, expected %v", ids, tc.expected)
			}
		})
	}
}

func TestBTreeIndexLookupReturnsCopy(t *testing.T) {
	idx := NewBTreeIndex("idx", "k", 0, 4)
	idx.Insert(intRow(1, 1))

	ids := idx.Lookup(int64(1))
	ids[0] = 99
	if again := idx.Lookup(int64(1)); !reflect.DeepEqual(again, []int64{1}) {
		t.Errorf("mutating a Lookup result changed the index: %v", again)
	}
}

func TestHashIndexGrowth(t *testing.T) {
	idx := NewHashIndex("idx", "k", 0, 1)

	// Far past the two-entries-per-bucket threshold of a single bucket.
	for i := int64(1); i <= 100; i++ {
		idx.Insert(intRow(i, i*10))
	}
	for i := int64(1); i <= 100; i++ {
		if ids := idx.Lookup(i * 10); !reflect.DeepEqual(ids, []int64{i}) {
			t.Fatalf("Lookup(%d) after growth = %v, expected [%d]", i*10, ids, i)
		}
	}
	if ids := idx.Lookup(int64(5)); ids != nil {
		t.Errorf("Lookup(5) = %v, expected nil", ids)
	}
}

func TestHashIndexDelete(t *testing.T) {
	idx := NewHashIndex("idx", "k", 0, 8)
	idx.Insert(intRow(1, 7))
	idx.Insert(intRow(2, 7))

	idx.Delete(intRow(1, 7))
	if ids := idx.Lookup(int64(7)); !reflect.DeepEqual(ids, []int64{2}) {
		t.Errorf("Lookup(7) = %v, expected [2]", ids)
	}
	idx.Delete(intRow(1, 7)) // already gone
	idx.Delete(intRow(9, 99))
}

func TestHashIndexNullKey(t *testing.T) {
	idx := NewHashIndex("idx", "k", 0, 8)
	idx.Insert(Row{ID: 1, Values: []any{nil}})
	idx.Insert(Row{ID: 2, Values: []any{int64(0)}})

	if ids := idx.Lookup(nil); !reflect.DeepEqual(ids, []int64{1}) {
		t.Errorf("Lookup(nil) = %v, expected [1]", ids)
	}
	if ids := idx.Lookup(int64(0)); !reflect.DeepEqual(ids, []int64{2}) {
		t.Errorf("Lookup(0) = %v, expected [2]", ids)
	}
}

func TestCreateIndexBackfillsExistingRows(t *testing.T) {
	table := usersTable(t)
	insertUser(t, table, 1, "Alice", int64(30), "Oslo")
	insertUser(t, table, 2, "Bob", int64(25), "Lima")

	idx, err := table.CreateIndex("idx_city", "city", "HASH")
	if err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if idx.Kind() != PointKind || idx.Column() != "city" {
		t.Errorf("index kind %v over %q", idx.Kind(), idx.Column())
	}
	if ids := idx.Lookup("Oslo"); !reflect.DeepEqual(ids, []int64{1}) {
		t.Errorf("Lookup(Oslo) = %v, expected [1]", ids)
	}
}

func TestCreateIndexErrors(t *testing.T) {
	table := usersTable(t)
	if _, err := table.CreateIndex("idx_age", "age", "BTREE"); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	if _, err := table.CreateIndex("idx_age", "name", "HASH"); err == nil {
		t.Error("expected error for duplicate index name")
	}
	if _, err := table.CreateIndex("idx_bad", "salary", "HASH"); err == nil {
		t.Error("expected error for unknown column")
	}
	if _, err := table.CreateIndex("idx_kind", "name", "BITMAP"); err == nil {
		t.Error("expected error for unrecognized index kind")
	}
}

// Every mutation must be visible through every index before the mutating
// call returns, with no entry left under a replaced key.
func TestIndexesFollowMutations(t *testing.T) {
	table := usersTable(t)
	ordered, err := table.CreateIndex("idx_age", "age", "BTREE")
	if err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	point, err := table.CreateIndex("idx_city", "city", "HASH")
	if err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	id := insertUser(t, table, 1, "Alice", int64(30), "Oslo")
	if ids := ordered.Lookup(int64(30)); !reflect.DeepEqual(ids, []int64{id}) {
		t.Fatalf("ordered Lookup(30) = %v", ids)
	}

	if err := table.UpdateRow(id, map[string]any{"age": int64(31), "city": "Lima"}); err != nil {
		t.Fatalf("UpdateRow: %v", err)
	}
	if ids := ordered.Lookup(int64(30)); len(ids) != 0 {
		t.Errorf("stale ordered entry under old key: %v", ids)
	}
	if ids := ordered.Lookup(int64(31)); !reflect.DeepEqual(ids, []int64{id}) {
		t.Errorf("ordered Lookup(31) = %v", ids)
	}
	if ids := point.Lookup("Oslo"); len(ids) != 0 {
		t.Errorf("stale point entry under old key: %v", ids)
	}
	if ids := point.Lookup("Lima"); !reflect.DeepEqual(ids, []int64{id}) {
		t.Errorf("point Lookup(Lima) = %v", ids)
	}

	if err := table.DeleteRow(id); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	if ids := ordered.Lookup(int64(31)); len(ids) != 0 {
		t.Errorf("ordered entry survives row delete: %v", ids)
	}
	if ids := point.Lookup("Lima"); len(ids) != 0 {
		t.Errorf("point entry survives row delete: %v", ids)
	}
}

func TestIndexesSortedByName(t *testing.T) {
	table := usersTable(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := table.CreateIndex(name, "age", "HASH"); err != nil {
			t.Fatalf("CreateIndex(%q): %v", name, err)
		}
	}

	indexes := table.Indexes()
	names := make([]string, len(indexes))
	for i, idx := range indexes {
		names[i] = idx.Name()
	}
	if !reflect.DeepEqual(names, []string{"alpha", "mid", "zeta"}) {
		t.Errorf("Indexes() order = %v", names)
	}

	if _, ok := table.Index("mid"); !ok {
		t.Error("Index(mid) not found")
	}
	if _, ok := table.Index("missing"); ok {
		t.Error("Index(missing) found")
	}
}
