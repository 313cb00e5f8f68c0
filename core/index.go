package core

import "strings"

// IndexKind selects one of the two index variants.
type IndexKind int

const (
	// OrderedKind indexes keep keys sorted and answer range lookups.
	OrderedKind IndexKind = iota
	// PointKind indexes answer equality lookups in expected O(1).
	PointKind
)

func (k IndexKind) String() string {
	switch k {
	case OrderedKind:
		return "BTREE"
	case PointKind:
		return "HASH"
	default:
		return "UNKNOWN"
	}
}

// ParseIndexKind resolves an index kind name.
func ParseIndexKind(name string) (IndexKind, bool) {
	switch strings.ToUpper(name) {
	case "BTREE", "ORDERED":
		return OrderedKind, true
	case "HASH", "POINT":
		return PointKind, true
	default:
		return 0, false
	}
}

// Index is the capability shared by both index variants. Insert and Delete
// are safe no-ops for a row id that is already present or already absent,
// which supports the remove-then-insert reconciliation pattern on update.
type Index interface {
	Name() string
	Column() string
	Kind() IndexKind

	// Insert records the row's indexed-column value for its row id.
	Insert(row Row)
	// Delete removes the row id from the entry for its indexed-column value.
	Delete(row Row)
	// Lookup returns the row ids stored under a key, in insertion order.
	Lookup(key any) []int64
}

// compareKeys orders index keys. Keys come from a single validated column,
// so both sides share a runtime type (or are nil, which sorts first).
func compareKeys(a, b any) int {
	cmp, err := compareValues(a, b)
	if err != nil {
		return strings.Compare(FormatValue(a), FormatValue(b))
	}
	return cmp
}

func removeID(ids []int64, id int64) []int64 {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func containsID(ids []int64, id int64) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
