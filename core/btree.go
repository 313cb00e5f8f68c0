package core

// BTreeIndex is the ordered index variant: a balanced multiway tree keyed by
// the indexed column's value, with the fan-out taken from Config.BTreeOrder.
// Each key maps to the set of row ids holding that value. An entry whose id
// set has been emptied by deletes is retained in place and skipped by
// lookups; structural rebalancing on delete is not required for the
// consistency contract.
type BTreeIndex struct {
	name       string
	column     string
	colPos     int
	order      int
	root       *btreeNode
	maxEntries int
}

type btreeEntry struct {
	key any
	ids []int64
}

type btreeNode struct {
	entries  []btreeEntry
	children []*btreeNode
}

func (n *btreeNode) leaf() bool {
	return len(n.children) == 0
}

// NewBTreeIndex builds an empty ordered index over the column at colPos.
func NewBTreeIndex(name, column string, colPos int, order int) *BTreeIndex {
	if order < 3 {
		order = 3
	}
	return &BTreeIndex{
		name:       name,
		column:     column,
		colPos:     colPos,
		order:      order,
		root:       &btreeNode{},
		maxEntries: order - 1,
	}
}

func (idx *BTreeIndex) Name() string    { return idx.name }
func (idx *BTreeIndex) Column() string  { return idx.column }
func (idx *BTreeIndex) Kind() IndexKind { return OrderedKind }

func (idx *BTreeIndex) Insert(row Row) {
	key := row.Values[idx.colPos]

	if len(idx.root.entries) == idx.maxEntries {
		oldRoot := idx.root
		idx.root = &btreeNode{children: []*btreeNode{oldRoot}}
		idx.splitChild(idx.root, 0)
	}
	idx.insertNonFull(idx.root, key, row.ID)
}

func (idx *BTreeIndex) Delete(row Row) {
	entry := idx.find(idx.root, row.Values[idx.colPos])
	if entry != nil {
		entry.ids = removeID(entry.ids, row.ID)
	}
}

func (idx *BTreeIndex) Lookup(key any) []int64 {
	entry := idx.find(idx.root, key)
	if entry == nil {
		return nil
	}
	return append([]int64(nil), entry.ids...)
}

// Range returns the row ids for every key within the given bounds, in key
// order. A nil bound leaves that side open.
func (idx *BTreeIndex) Range(min, max any, includeMin, includeMax bool) []int64 {
	var ids []int64
	idx.walk(idx.root, func(e *btreeEntry) {
		if len(e.ids) == 0 {
			return
		}
		if min != nil {
			cmp := compareKeys(e.key, min)
			if cmp < 0 || (cmp == 0 && !includeMin) {
				return
			}
		}
		if max != nil {
			cmp := compareKeys(e.key, max)
			if cmp > 0 || (cmp == 0 && !includeMax) {
				return
			}
		}
		ids = append(ids, e.ids...)
	})
	return ids
}

// Keys returns every live key in sorted order.
func (idx *BTreeIndex) Keys() []any {
	var keys []any
	idx.walk(idx.root, func(e *btreeEntry) {
		if len(e.ids) > 0 {
			keys = append(keys, e.key)
		}
	})
	return keys
}

func (idx *BTreeIndex) find(n *btreeNode, key any) *btreeEntry {
	i := 0
	for i < len(n.entries) && compareKeys(key, n.entries[i].key) > 0 {
		i++
	}
	if i < len(n.entries) && compareKeys(key, n.entries[i].key) == 0 {
		return &n.entries[i]
	}
	if n.leaf() {
		return nil
	}
	return idx.find(n.children[i], key)
}

func (idx *BTreeIndex) walk(n *btreeNode, visit func(*btreeEntry)) {
	for i := range n.entries {
		if !n.leaf() {
			idx.walk(n.children[i], visit)
		}
		visit(&n.entries[i])
	}
	if !n.leaf() {
		idx.walk(n.children[len(n.entries)], visit)
	}
}

// splitChild splits the full child at position i, promoting its median entry
// into the parent.
func (idx *BTreeIndex) splitChild(parent *btreeNode, i int) {
	child := parent.children[i]
	mid := idx.maxEntries / 2

	median := child.entries[mid]
	right := &btreeNode{
		entries: append([]btreeEntry(nil), child.entries[mid+1:]...),
	}
	if !child.leaf() {
		right.children = append([]*btreeNode(nil), child.children[mid+1:]...)
		child.children = child.children[:mid+1]
	}
	child.entries = child.entries[:mid]

	parent.entries = append(parent.entries, btreeEntry{})
	copy(parent.entries[i+1:], parent.entries[i:])
	parent.entries[i] = median

	parent.children = append(parent.children, nil)
	copy(parent.children[i+2:], parent.children[i+1:])
	parent.children[i+1] = right
}

func (idx *BTreeIndex) insertNonFull(n *btreeNode, key any, id int64) {
	i := 0
	for i < len(n.entries) && compareKeys(key, n.entries[i].key) > 0 {
		i++
	}
	if i < len(n.entries) && compareKeys(key, n.entries[i].key) == 0 {
		if !containsID(n.entries[i].ids, id) {
			n.entries[i].ids = append(n.entries[i].ids, id)
		}
		return
	}

	if n.leaf() {
		n.entries = append(n.entries, btreeEntry{})
		copy(n.entries[i+1:], n.entries[i:])
		n.entries[i] = btreeEntry{key: key, ids: []int64{id}}
		return
	}

	if len(n.children[i].entries) == idx.maxEntries {
		idx.splitChild(n, i)
		cmp := compareKeys(key, n.entries[i].key)
		if cmp == 0 {
			if !containsID(n.entries[i].ids, id) {
				n.entries[i].ids = append(n.entries[i].ids, id)
			}
			return
		}
		if cmp > 0 {
			i++
		}
	}
	idx.insertNonFull(n.children[i], key, id)
}
