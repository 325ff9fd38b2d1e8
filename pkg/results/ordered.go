package results

// OrderedMap is an associative container that iterates in insertion order.
// Merge output depends on it being deterministic.
type OrderedMap[K comparable, V any] struct {
	index  map[K]int
	keys   []K
	values []V
}

func NewOrderedMap[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{index: make(map[K]int)}
}

func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	i, ok := m.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return m.values[i], true
}

// Set inserts key at the end, or replaces its value in place if present.
func (m *OrderedMap[K, V]) Set(key K, value V) {
	if i, ok := m.index[key]; ok {
		m.values[i] = value
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
}

func (m *OrderedMap[K, V]) Len() int {
	return len(m.keys)
}

func (m *OrderedMap[K, V]) Each(fn func(key K, value V)) {
	for i, k := range m.keys {
		fn(k, m.values[i])
	}
}

// attribution merges tool names per key, keeping first-seen order of both
// keys and tools.
type attribution struct {
	entries *OrderedMap[string, []string]
}

func newAttribution() *attribution {
	return &attribution{entries: NewOrderedMap[string, []string]()}
}

func (a *attribution) add(key, tool string) {
	tools, ok := a.entries.Get(key)
	if !ok {
		a.entries.Set(key, []string{tool})
		return
	}
	for _, t := range tools {
		if t == tool {
			return
		}
	}
	a.entries.Set(key, append(tools, tool))
}

func (a *attribution) each(fn func(key string, tools []string)) {
	a.entries.Each(fn)
}
