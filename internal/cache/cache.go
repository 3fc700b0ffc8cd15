package cache

import "sync"

// Cache defines a generic cache interface
type Cache[K comparable, V any] interface {
	// Get retrieves a value from the cache
	Get(key K) (V, bool)

	// Set stores a value in the cache
	Set(key K, data V)

	// Delete removes a key from the cache
	Delete(key K)

	// Clear drops every entry
	Clear()

	// Size returns the current number of items in the cache
	Size() int
}

// MapCache is an unbounded cache with no expiry. Entries leave only through
// Delete or Clear, which is what coarse invalidation needs.
type MapCache[K comparable, V any] struct {
	mu    sync.Mutex
	items map[K]V
}

// NewMapCache creates an empty map-backed cache
func NewMapCache[K comparable, V any]() *MapCache[K, V] {
	return &MapCache[K, V]{items: make(map[K]V)}
}

func (c *MapCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *MapCache[K, V]) Set(key K, data V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
}

func (c *MapCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *MapCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
}

func (c *MapCache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
