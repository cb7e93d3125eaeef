// Package intern provides a thread-safe bidirectional table between
// structural keys and small sequential ids.
package intern

import (
	"fmt"
	"sync"
)

// Table maps keys to ids of type ID, assigned sequentially from 0.
//
// Intern is linearizable: of two concurrent calls for an equal key, exactly
// one allocates the id and both observe it. Entries are never removed, so an
// id stays valid for the lifetime of the table.
type Table[K comparable, ID ~uint32] struct {
	mu   sync.RWMutex
	ids  map[K]ID
	keys []K
}

// NewTable creates an empty table.
func NewTable[K comparable, ID ~uint32]() *Table[K, ID] {
	return &Table[K, ID]{
		ids: make(map[K]ID),
	}
}

// Intern returns the id for key, allocating the next id if key is new.
func (t *Table[K, ID]) Intern(key K) ID {
	t.mu.RLock()
	id, ok := t.ids[key]
	t.mu.RUnlock()
	if ok {
		return id
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.ids[key]; ok {
		return id
	}
	id = ID(len(t.keys))
	t.keys = append(t.keys, key)
	t.ids[key] = id
	return id
}

// Lookup returns the key interned as id. It panics if id was never issued
// by this table.
func (t *Table[K, ID]) Lookup(id ID) K {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) >= len(t.keys) {
		panic(fmt.Sprintf("intern: id %d out of range (%d entries)", id, len(t.keys)))
	}
	return t.keys[id]
}

// Get returns the id for key without allocating.
func (t *Table[K, ID]) Get(key K) (ID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.ids[key]
	return id, ok
}

// Len returns the number of interned keys.
func (t *Table[K, ID]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.keys)
}

// Keys returns a copy of all keys indexed by id.
func (t *Table[K, ID]) Keys() []K {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]K, len(t.keys))
	copy(out, t.keys)
	return out
}
