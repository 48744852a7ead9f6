package cache

import "container/list"

// New returns a LRU holding up to capacity entries, zero is treated as one
func New[K comparable, V any](capacity uint64) *LRU[K, V] {
	if capacity == 0 {
		capacity = 1
	}
	return &LRU[K, V]{
		Cap:   capacity,
		l:     list.New(),
		items: make(map[K]*list.Element),
	}
}

// Add adds or replaces a value, evicting the oldest entry when full
func (c *LRU[K, V]) Add(key K, value V) {
	c.m.Lock()
	defer c.m.Unlock()
	if f, ok := c.items[key]; ok {
		c.l.MoveToFront(f)
		f.Value.(*item[K, V]).value = value
		return
	}
	c.items[key] = c.l.PushFront(&item[K, V]{key: key, value: value})
	if uint64(c.l.Len()) > c.Cap {
		c.removeOldest()
	}
}

// Get returns the value and marks the key as recently used
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if f, ok := c.items[key]; ok {
		c.l.MoveToFront(f)
		return f.Value.(*item[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Contains checks if a key is present without touching its recency
func (c *LRU[K, V]) Contains(key K) bool {
	c.m.Lock()
	defer c.m.Unlock()
	_, ok := c.items[key]
	return ok
}

// Remove removes a key, returning whether it was present
func (c *LRU[K, V]) Remove(key K) bool {
	c.m.Lock()
	defer c.m.Unlock()
	if f, ok := c.items[key]; ok {
		c.l.Remove(f)
		delete(c.items, key)
		return true
	}
	return false
}

// Clear empties the cache
func (c *LRU[K, V]) Clear() {
	c.m.Lock()
	defer c.m.Unlock()
	c.l.Init()
	c.items = make(map[K]*list.Element)
}

// Len returns the number of entries
func (c *LRU[K, V]) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return c.l.Len()
}

func (c *LRU[K, V]) removeOldest() {
	if e := c.l.Back(); e != nil {
		c.l.Remove(e)
		delete(c.items, e.Value.(*item[K, V]).key)
	}
}

// oldest returns the least recently used key
func (c *LRU[K, V]) oldest() (K, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if e := c.l.Back(); e != nil {
		return e.Value.(*item[K, V]).key, true
	}
	var zero K
	return zero, false
}
