package lru

import (
	"container/list"
	"sync"
)

type listEntry[T any] struct {
	key   string
	entry T
}

// Cache is a thread-safe, fixed-capacity cache of generic entries
// keyed by string. The least recently used entry is evicted when
// the capacity is exceeded.
type Cache[T any] struct {
	capacity int
	mu       sync.RWMutex
	order    *list.List
}

func NewCache[T any](capacity int) *Cache[T] {
	return &Cache[T]{
		capacity: capacity,
		order:    list.New(),
	}
}

func (c *Cache[T]) addEntryUnsafe(key string, entry T) {
	if c.order.Len() >= c.capacity {
		c.evictUnsafe()
	}

	c.order.PushFront(&listEntry[T]{
		key:   key,
		entry: entry,
	})
}

func (c *Cache[T]) evictUnsafe() {
	element := c.order.Back()
	if element != nil {
		c.order.Remove(element)
	}
}

func (c *Cache[T]) Put(key string, entry T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for element := c.order.Front(); element != nil; element = element.Next() {
		if element.Value.(*listEntry[T]).key == key {
			element.Value.(*listEntry[T]).entry = entry
			c.order.MoveToFront(element)
			return
		}
	}

	c.addEntryUnsafe(key, entry)
}

func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for element := c.order.Front(); element != nil; element = element.Next() {
		entry := element.Value.(*listEntry[T])
		if entry.key == key {
			c.order.MoveToFront(element)
			return entry.entry, true
		}
	}
	var zero T
	return zero, false
}

func (c *Cache[T]) Delete(key string) (present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for element := c.order.Front(); element != nil; element = element.Next() {
		if element.Value.(*listEntry[T]).key == key {
			c.order.Remove(element)
			return true
		}
	}
	return false
}

func (c *Cache[T]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.order.Len()
}
