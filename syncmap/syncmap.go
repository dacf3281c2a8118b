// Package syncmap provides the thread-safe keyed map used by every registry
// and cache in the mesh runtime (actor registry, name registry, pending-call
// table, remote-member cache, outbound connection map). Per-process
// reentrancy bookkeeping is deliberately absent: this runtime's locking
// policy never nests two registry critical sections, so a plain
// sync.RWMutex suffices.
package syncmap

import "sync"

// Map is a generic, mutex-guarded map. The zero value is not usable; use
// New.
type Map[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

// New allocates an empty Map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{data: make(map[K]V)}
}

// Put inserts or replaces the value under key.
func (m *Map[K, V]) Put(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Get returns the value under key, if present.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok = m.data[key]
	return
}

// Delete removes key, returning the value it held (if any) so callers can
// complete a pending operation exactly once without a second lookup.
func (m *Map[K, V]) Delete(key K) (value V, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok = m.data[key]
	delete(m.data, key)
	return
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Clear removes every entry.
func (m *Map[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[K]V)
}

// Range calls f for every entry in an unspecified order. f must not call
// back into m; Range holds the read lock for its entire duration, so f
// should only copy out values rather than perform I/O.
func (m *Map[K, V]) Range(f func(key K, value V) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, v := range m.data {
		if !f(k, v) {
			return
		}
	}
}

// Keys returns a snapshot of all keys.
func (m *Map[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]K, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

// PutIfAbsent inserts value under key only if key is not already present.
// It reports whether the insert happened, making name-registration atomic
// without a separate existence check.
func (m *Map[K, V]) PutIfAbsent(key K, value V) (inserted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; exists {
		return false
	}
	m.data[key] = value
	return true
}

// DeleteMatching removes every entry for which match returns true and
// returns the keys it removed.
func (m *Map[K, V]) DeleteMatching(match func(key K, value V) bool) []K {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []K
	for k, v := range m.data {
		if match(k, v) {
			delete(m.data, k)
			removed = append(removed, k)
		}
	}
	return removed
}
