package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type entry struct {
	key        string
	value      []byte
	expiration time.Time
}

// MemoryCache is an in-process LRU with a TTL per entry
type MemoryCache struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	items   map[string]*list.Element
	lruList *list.List
}

// NewMemoryCache creates an LRU holding at most capacity entries
func NewMemoryCache(capacity int, ttl time.Duration) *MemoryCache {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryCache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*list.Element),
		lruList:  list.New(),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	e := elem.Value.(*entry)
	if c.now().After(e.expiration) {
		c.removeElement(elem)
		return nil, false, nil
	}
	c.lruList.MoveToFront(elem)
	return e.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiration := c.now().Add(c.ttl)
	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry)
		e.value = value
		e.expiration = expiration
		c.lruList.MoveToFront(elem)
		return nil
	}

	c.items[key] = c.lruList.PushFront(&entry{key: key, value: value, expiration: expiration})
	for c.lruList.Len() > c.capacity {
		c.removeElement(c.lruList.Back())
	}
	return nil
}

func (c *MemoryCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.lruList.Init()
	return nil
}

// Len returns the number of cached entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}

func (c *MemoryCache) removeElement(elem *list.Element) {
	c.lruList.Remove(elem)
	delete(c.items, elem.Value.(*entry).key)
}
