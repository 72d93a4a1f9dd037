package memory

import (
	"container/list"
	"sync"
	"time"
)

type item[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// LRUTTL is a threadsafe LRU cache with a fixed per-entry TTL. It backs
// the session table and the per-species fact cache.
type LRUTTL[K comparable, V any] struct {
	mu         sync.Mutex
	order      *list.List
	items      map[K]*list.Element
	maxEntries int
	ttl        time.Duration
}

func NewLRUTTL[K comparable, V any](maxEntries int, ttl time.Duration) *LRUTTL[K, V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &LRUTTL[K, V]{
		order:      list.New(),
		items:      make(map[K]*list.Element),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

func (c *LRUTTL[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ele, ok := c.items[key]
	if !ok {
		return zero, false
	}
	it := ele.Value.(*item[K, V])
	if time.Now().After(it.expiresAt) {
		c.removeLocked(ele)
		return zero, false
	}
	c.order.MoveToFront(ele)
	return it.value, true
}

// Set inserts or refreshes an entry. Refreshing restarts the TTL.
func (c *LRUTTL[K, V]) Set(key K, value V) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if ele, ok := c.items[key]; ok {
		it := ele.Value.(*item[K, V])
		it.value = value
		it.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(ele)
		return
	}

	ele := c.order.PushFront(&item[K, V]{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.items[key] = ele
	for c.order.Len() > c.maxEntries {
		c.removeLocked(c.order.Back())
	}
}

func (c *LRUTTL[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.items[key]; ok {
		c.removeLocked(ele)
	}
}

func (c *LRUTTL[K, V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRUTTL[K, V]) removeLocked(ele *list.Element) {
	if ele == nil {
		return
	}
	c.order.Remove(ele)
	delete(c.items, ele.Value.(*item[K, V]).key)
}
