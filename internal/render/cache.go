package render

import (
	"strings"
	"sync"
)

// DefaultCacheSize is the number of rendered pages kept in memory
const DefaultCacheSize = 64

// Cache is a thread-safe least recently used cache of rendered pages
type Cache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*cacheNode
	head     *cacheNode // most recently used
	tail     *cacheNode // least recently used
	hits     int64
	misses   int64
}

type cacheNode struct {
	key   string
	page  *Page
	prev  *cacheNode
	next  *cacheNode
}

// NewCache creates a cache holding up to capacity pages
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}

	c := &Cache{
		capacity: capacity,
		items:    make(map[string]*cacheNode),
		head:     &cacheNode{},
		tail:     &cacheNode{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the page under key and marks it as recently used
func (c *Cache) Get(key string) (*Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.items[key]; ok {
		c.unlink(node)
		c.pushFront(node)
		c.hits++
		return node.page, true
	}
	c.misses++
	return nil, false
}

// Put stores page under key, evicting the least recently used entry when full
func (c *Cache) Put(key string, page *Page) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.items[key]; ok {
		node.page = page
		c.unlink(node)
		c.pushFront(node)
		return
	}

	node := &cacheNode{key: key, page: page}
	c.pushFront(node)
	c.items[key] = node

	if len(c.items) > c.capacity {
		lru := c.tail.prev
		c.unlink(lru)
		delete(c.items, lru.key)
	}
}

// RemovePrefix drops every entry whose key starts with prefix and returns
// how many were removed
func (c *Cache) RemovePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, node := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.unlink(node)
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached pages
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns the cached keys from most to least recently used
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for n := c.head.next; n != c.tail; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

// Stats returns hit and miss counters
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}
	return CacheStats{
		Hits:     c.hits,
		Misses:   c.misses,
		HitRate:  hitRate,
		Size:     len(c.items),
		Capacity: c.capacity,
	}
}

func (c *Cache) pushFront(node *cacheNode) {
	node.prev = c.head
	node.next = c.head.next
	c.head.next.prev = node
	c.head.next = node
}

func (c *Cache) unlink(node *cacheNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
}

// CacheStats describes cache effectiveness
type CacheStats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRate  float64 `json:"hit_rate_percent"`
	Size     int     `json:"current_size"`
	Capacity int     `json:"max_capacity"`
}
