package landmask

import (
	"math"
	"sync"

	"github.com/couchcryptid/storm-track-etl/internal/domain"
)

// cellsPerDegree sets the lookup grid for CachedSampler: 0.01 degrees.
const cellsPerDegree = 100

// CachedSampler wraps a LandSampler with an LRU cache keyed on a 0.01 degree
// grid. Best-track positions are reported to one or two decimals, so
// consecutive runs over the same archive hit the same cells.
type CachedSampler struct {
	inner domain.LandSampler
	cache *lruCache
}

// NewCachedSampler creates a cache decorator around a sampler.
func NewCachedSampler(inner domain.LandSampler, maxEntries int) *CachedSampler {
	return &CachedSampler{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

// SampleLandFlag implements domain.LandSampler.
func (c *CachedSampler) SampleLandFlag(lon, lat float64) domain.Surface {
	key := cellKey{
		lon: int32(math.Round(lon * cellsPerDegree)),
		lat: int32(math.Round(lat * cellsPerDegree)),
	}
	if s, ok := c.cache.get(key); ok {
		return s
	}
	s := c.inner.SampleLandFlag(lon, lat)
	c.cache.put(key, s)
	return s
}

type cellKey struct {
	lon, lat int32
}

// lruCache is a thread-safe LRU cache of surface classifications.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[cellKey]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   cellKey
	value domain.Surface
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[cellKey]*entry),
	}
}

func (c *lruCache) get(key cellKey) (domain.Surface, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Sea, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key cellKey, value domain.Surface) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
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

func (c *lruCache) remove(e *entry) {
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

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
