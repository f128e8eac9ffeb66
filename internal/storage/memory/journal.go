package memory

// journalEntry is a modification that can be reverted.
type journalEntry interface {
	revert()
}

// journal records undo entries for one Atomic call, in application order.
type journal struct {
	entries []journalEntry
}

func (j *journal) append(e journalEntry) {
	j.entries = append(j.entries, e)
}

// revert undoes every entry, newest first.
func (j *journal) revert() {
	for i := len(j.entries) - 1; i >= 0; i-- {
		j.entries[i].revert()
	}
	j.entries = j.entries[:0]
}

// mapChange restores one map slot to its state before a write.
type mapChange[K comparable, V any] struct {
	m       map[K]V
	key     K
	prev    V
	existed bool
}

func (c mapChange[K, V]) revert() {
	if c.existed {
		c.m[c.key] = c.prev
	} else {
		delete(c.m, c.key)
	}
}

// put writes m[key] = v and journals the previous slot state.
func put[K comparable, V any](j *journal, m map[K]V, key K, v V) {
	prev, existed := m[key]
	j.append(mapChange[K, V]{m: m, key: key, prev: prev, existed: existed})
	m[key] = v
}
