// Package ordered provides an insertion-ordered string-keyed map.
//
// OpenAPI documents are order-sensitive for code generation: property order,
// path order and status-code order all show up in the generated source. Go maps
// do not keep insertion order, so every ordered mapping read from a document is
// stored in a Map.
package ordered

import "iter"

// Map is a string-keyed map that remembers insertion order.
// Read methods are safe on a nil *Map and behave as on an empty one.
type Map[V any] struct {
	keys  []string
	items map[string]V
}

// New returns an empty Map.
func New[V any]() *Map[V] {
	return &Map[V]{items: make(map[string]V)}
}

// Set stores v under key. A key that already exists keeps its position.
func (m *Map[V]) Set(key string, v V) {
	if m.items == nil {
		m.items = make(map[string]V)
	}
	if _, ok := m.items[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.items[key] = v
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key string) (V, bool) {
	if m == nil {
		var zero V
		return zero, false
	}
	v, ok := m.items[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map[V]) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *Map[V]) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// All iterates entries in insertion order.
func (m *Map[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.items[k]) {
				return
			}
		}
	}
}
