package sourcemap

// StringTable is a deduplicated, insertion-ordered table of strings,
// referenced by index from mapping entries. The zero value is not usable;
// use NewStringTable.
//
// Lookups are exact-match and indices are stable for the lifetime of the
// table, which keeps encoded output deterministic.
type StringTable struct {
	indices map[string]int
	items   []string
}

// NewStringTable returns an empty table.
func NewStringTable() *StringTable {
	return &StringTable{indices: make(map[string]int)}
}

// Add returns the index assigned to s, inserting it at the end of the table
// if it has not been seen before.
func (t *StringTable) Add(s string) int {
	if i, ok := t.indices[s]; ok {
		return i
	}
	i := len(t.items)
	t.indices[s] = i
	t.items = append(t.items, s)
	return i
}

// Index returns the index of s and whether it is present.
func (t *StringTable) Index(s string) (int, bool) {
	i, ok := t.indices[s]
	return i, ok
}

// Len returns the number of distinct strings in the table.
func (t *StringTable) Len() int {
	return len(t.items)
}

// Items returns the table contents in insertion order. The returned slice
// is shared with the table and must not be modified.
func (t *StringTable) Items() []string {
	return t.items
}
