package core

import "hash/fnv"

// HashIndex is the point index variant: a chained hash table mapping a
// column value to the row ids holding it. The initial bucket count comes
// from Config.HashTableSize; the table doubles when the load factor exceeds
// two entries per bucket.
type HashIndex struct {
	name    string
	column  string
	colPos  int
	buckets []*hashEntry
	entries int
}

type hashEntry struct {
	key  any
	ids  []int64
	next *hashEntry
}

// NewHashIndex builds an empty point index over the column at colPos.
func NewHashIndex(name, column string, colPos int, initialSize int) *HashIndex {
	if initialSize < 1 {
		initialSize = 1
	}
	return &HashIndex{
		name:    name,
		column:  column,
		colPos:  colPos,
		buckets: make([]*hashEntry, initialSize),
	}
}

func (idx *HashIndex) Name() string    { return idx.name }
func (idx *HashIndex) Column() string  { return idx.column }
func (idx *HashIndex) Kind() IndexKind { return PointKind }

func (idx *HashIndex) Insert(row Row) {
	key := row.Values[idx.colPos]

	entry := idx.findEntry(key)
	if entry == nil {
		if idx.entries >= len(idx.buckets)*2 {
			idx.grow()
		}
		slot := idx.slot(key)
		entry = &hashEntry{key: key, next: idx.buckets[slot]}
		idx.buckets[slot] = entry
		idx.entries++
	}
	if !containsID(entry.ids, row.ID) {
		entry.ids = append(entry.ids, row.ID)
	}
}

func (idx *HashIndex) Delete(row Row) {
	entry := idx.findEntry(row.Values[idx.colPos])
	if entry != nil {
		entry.ids = removeID(entry.ids, row.ID)
	}
}

func (idx *HashIndex) Lookup(key any) []int64 {
	entry := idx.findEntry(key)
	if entry == nil {
		return nil
	}
	return append([]int64(nil), entry.ids...)
}

func (idx *HashIndex) findEntry(key any) *hashEntry {
	for entry := idx.buckets[idx.slot(key)]; entry != nil; entry = entry.next {
		if compareKeys(entry.key, key) == 0 {
			return entry
		}
	}
	return nil
}

func (idx *HashIndex) slot(key any) int {
	h := fnv.New64a()
	h.Write([]byte(hashText(key)))
	return int(h.Sum64() % uint64(len(idx.buckets)))
}

// hashText gives every key a canonical byte form; the type tag keeps values
// of different types from colliding into one entry.
func hashText(key any) string {
	return typeName(key) + ":" + FormatValue(key)
}

func (idx *HashIndex) grow() {
	old := idx.buckets
	idx.buckets = make([]*hashEntry, len(old)*2)
	for _, entry := range old {
		for entry != nil {
			next := entry.next
			slot := idx.slot(entry.key)
			entry.next = idx.buckets[slot]
			idx.buckets[slot] = entry
			entry = next
		}
	}
}
