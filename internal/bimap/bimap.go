// Package bimap implements a small generic bidirectional map: values
// can be looked up by key or keys looked up by value.
package bimap

// Bimap indexes a set of key/value pairs from both directions. Both Key
// and Value must be comparable so each side can back a plain map.
type Bimap[K comparable, V comparable] struct {
	byKey   map[K]V
	byValue map[V]K
}

// New constructs a Bimap from an initial set of pairs.
func New[K comparable, V comparable](pairs map[K]V) *Bimap[K, V] {
	b := &Bimap[K, V]{
		byKey:   make(map[K]V, len(pairs)),
		byValue: make(map[V]K, len(pairs)),
	}
	for k, v := range pairs {
		b.Insert(k, v)
	}
	return b
}

// Insert adds a key/value pair. If either side already has an entry, the
// stale entry on the other side is removed first, keeping the mapping a
// true bijection.
func (b *Bimap[K, V]) Insert(k K, v V) {
	if oldV, ok := b.byKey[k]; ok {
		delete(b.byValue, oldV)
	}
	if oldK, ok := b.byValue[v]; ok {
		delete(b.byKey, oldK)
	}
	b.byKey[k] = v
	b.byValue[v] = k
}

// ByKey looks up the value for a key.
func (b *Bimap[K, V]) ByKey(k K) (V, bool) {
	v, ok := b.byKey[k]
	return v, ok
}

// ByValue looks up the key for a value.
func (b *Bimap[K, V]) ByValue(v V) (K, bool) {
	k, ok := b.byValue[v]
	return k, ok
}
