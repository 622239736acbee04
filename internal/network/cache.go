package network

import (
	"fmt"
	"sync"
)

// defaultRouteCacheSize bounds memory for repeated route queries; a route
// over a metro-scale network is a few KB of geometry.
const defaultRouteCacheSize = 512

// routeCache is a thread-safe LRU cache for computed routes. The network is
// immutable after Build, so entries are never invalidated, only evicted.
type routeCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	head       *cacheEntry // most recently used
	tail       *cacheEntry // least recently used
}

type cacheEntry struct {
	key   string
	value Route
	prev  *cacheEntry
	next  *cacheEntry
}

func newRouteCache(maxEntries int) *routeCache {
	return &routeCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*cacheEntry),
	}
}

func routeKey(from, to int64) string {
	// Undirected graph: a route and its reverse share an entry.
	if from > to {
		from, to = to, from
	}
	return fmt.Sprintf("%d:%d", from, to)
}

func (c *routeCache) get(from, to int64) (Route, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[routeKey(from, to)]
	if !ok {
		return Route{}, false
	}
	c.moveToFront(e)
	r := e.value
	// Reverse queries get the cached route flipped.
	if len(r.NodeIDs) > 0 && r.NodeIDs[0] != from {
		r = reverseRoute(r)
	}
	return r, true
}

func (c *routeCache) put(from, to int64, value Route) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := routeKey(from, to)
	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &cacheEntry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func reverseRoute(r Route) Route {
	out := Route{
		NodeIDs: make([]int64, len(r.NodeIDs)),
		Line:    reverseLine(r.Line),
		Meters:  r.Meters,
	}
	for i, id := range r.NodeIDs {
		out.NodeIDs[len(r.NodeIDs)-1-i] = id
	}
	return out
}

func (c *routeCache) moveToFront(e *cacheEntry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *routeCache) addToFront(e *cacheEntry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *routeCache) remove(e *cacheEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *routeCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
