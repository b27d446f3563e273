package paging

import (
	"container/list"
	"fmt"
)

// A Table is an associative store with a fixed maximum number of entries.
// Keys are enumerated in the order they were first inserted.
type Table[K comparable, V any] struct {
	capacity int
	entries  *list.List
	index    map[K]*list.Element
}

type tableEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewTable creates a table that can hold up to capacity entries.
func NewTable[K comparable, V any](capacity int) *Table[K, V] {
	if capacity <= 0 {
		panic(fmt.Sprintf("table capacity must be positive, got %d", capacity))
	}

	return &Table[K, V]{
		capacity: capacity,
		entries:  list.New(),
		index:    make(map[K]*list.Element),
	}
}

// Add inserts or overwrites the value stored under key. It fails without
// changing the table if the table is full. An overwritten key keeps its
// original position.
func (t *Table[K, V]) Add(key K, value V) error {
	if t.IsFull() {
		return fmt.Errorf("table with %d entries is full: %w",
			t.capacity, ErrCapacityExceeded)
	}

	t.put(key, value)

	return nil
}

// TryAdd is the same as Add, but only reports whether the value is stored.
func (t *Table[K, V]) TryAdd(key K, value V) bool {
	return t.Add(key, value) == nil
}

func (t *Table[K, V]) put(key K, value V) {
	elem, found := t.index[key]
	if found {
		elem.Value = tableEntry[K, V]{key: key, value: value}
		return
	}

	t.index[key] = t.entries.PushBack(tableEntry[K, V]{key: key, value: value})
}

// Get returns the value stored under key.
func (t *Table[K, V]) Get(key K) (V, bool) {
	elem, found := t.index[key]
	if !found {
		var zero V
		return zero, false
	}

	return elem.Value.(tableEntry[K, V]).value, true
}

// Has tells if the key is in the table.
func (t *Table[K, V]) Has(key K) bool {
	_, found := t.index[key]
	return found
}

// Remove deletes the entry stored under key and reports whether it existed.
func (t *Table[K, V]) Remove(key K) bool {
	elem, found := t.index[key]
	if !found {
		return false
	}

	t.entries.Remove(elem)
	delete(t.index, key)

	return true
}

// Front returns the earliest inserted entry that is still in the table.
func (t *Table[K, V]) Front() (key K, value V, ok bool) {
	elem := t.entries.Front()
	if elem == nil {
		return key, value, false
	}

	entry := elem.Value.(tableEntry[K, V])

	return entry.key, entry.value, true
}

// Keys returns a snapshot of the keys in insertion order.
func (t *Table[K, V]) Keys() []K {
	keys := make([]K, 0, t.entries.Len())
	for elem := t.entries.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(tableEntry[K, V]).key)
	}

	return keys
}

// Size returns the number of entries.
func (t *Table[K, V]) Size() int {
	return t.entries.Len()
}

// Capacity returns the maximum number of entries.
func (t *Table[K, V]) Capacity() int {
	return t.capacity
}

// IsFull tells if no more entries can be added.
func (t *Table[K, V]) IsFull() bool {
	return t.Size() >= t.capacity
}

// HasCapacity tells if amount more entries can be added.
func (t *Table[K, V]) HasCapacity(amount int) bool {
	return t.capacity-t.Size() >= amount
}
