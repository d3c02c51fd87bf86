package util

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// CacheConfig controls the behavior of an LRUCache.
type CacheConfig[K comparable, V any] struct {
	// Capacity is the maximum number of entries. 0 means unbounded by count.
	Capacity int
	// MaxWeight is the maximum total weight of all entries. 0 means
	// unbounded by weight.
	MaxWeight int
	// TTL is the lifetime of an entry. 0 means entries never expire.
	TTL time.Duration
}

type entry[K comparable, V any] struct {
	key        K
	value      V
	weight     int
	expiration time.Time
}

// LRUCache is a generic, thread-safe LRU cache with optional weight and TTL
// limits. It is used to memoize embedding calls for repeated questions.
type LRUCache[K comparable, V any] struct {
	config        CacheConfig[K, V]
	ll            *list.List
	cache         map[K]*list.Element
	currentWeight int
	lock          sync.RWMutex
}

// NewWithConfig creates an LRUCache. At least one of Capacity or MaxWeight
// must be set.
func NewWithConfig[K comparable, V any](config CacheConfig[K, V]) (*LRUCache[K, V], error) {
	if config.Capacity <= 0 && config.MaxWeight <= 0 {
		return nil, fmt.Errorf("at least one of Capacity or MaxWeight must be set")
	}
	return &LRUCache[K, V]{
		config: config,
		ll:     list.New(),
		cache:  make(map[K]*list.Element),
	}, nil
}

// Get returns the value for key, expiring it first if its TTL has passed.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	element, ok := c.cache[key]
	if !ok {
		var zeroV V
		return zeroV, false
	}

	entry := element.Value.(*entry[K, V])
	if c.config.TTL > 0 && time.Now().After(entry.expiration) {
		c.removeElement(element)
		var zeroV V
		return zeroV, false
	}

	c.ll.MoveToFront(element)
	return entry.value, true
}

// Put inserts or updates a key with the given weight. Pass weight 1 when only
// capacity-based eviction is wanted.
func (c *LRUCache[K, V]) Put(key K, value V, weight int) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, ok := c.cache[key]; ok {
		entry := element.Value.(*entry[K, V])
		c.currentWeight += (weight - entry.weight)
		entry.weight = weight
		entry.value = value
		if c.config.TTL > 0 {
			entry.expiration = time.Now().Add(c.config.TTL)
		}
		c.ll.MoveToFront(element)
	} else {
		newEntry := &entry[K, V]{
			key:    key,
			value:  value,
			weight: weight,
		}
		if c.config.TTL > 0 {
			newEntry.expiration = time.Now().Add(c.config.TTL)
		}
		element := c.ll.PushFront(newEntry)
		c.cache[key] = element
		c.currentWeight += weight
	}

	// A single large entry may need to evict several old ones.
	for c.isOverCapacity() {
		c.evict()
	}
}

// isOverCapacity assumes the lock is held.
func (c *LRUCache[K, V]) isOverCapacity() bool {
	if c.config.Capacity > 0 && c.ll.Len() > c.config.Capacity {
		return true
	}
	if c.config.MaxWeight > 0 && c.currentWeight > c.config.MaxWeight {
		return true
	}
	return false
}

// evict assumes the lock is held.
func (c *LRUCache[K, V]) evict() {
	backElement := c.ll.Back()
	if backElement != nil {
		c.removeElement(backElement)
	}
}

// removeElement assumes the lock is held.
func (c *LRUCache[K, V]) removeElement(e *list.Element) {
	c.ll.Remove(e)
	entry := e.Value.(*entry[K, V])
	delete(c.cache, entry.key)
	c.currentWeight -= entry.weight
}

// Len returns the current number of entries.
func (c *LRUCache[K, V]) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.ll.Len()
}

// Weight returns the current total weight.
func (c *LRUCache[K, V]) Weight() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.currentWeight
}
