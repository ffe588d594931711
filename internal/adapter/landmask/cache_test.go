package landmask

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/storm-track-etl/internal/domain"
)

// --- mock for cache tests ---

type countingSampler struct {
	mu    sync.Mutex
	calls int
	land  bool
}

func (m *countingSampler) SampleLandFlag(_, _ float64) domain.Surface {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.land {
		return domain.Land
	}
	return domain.Sea
}

// --- CachedSampler tests ---

func TestCachedSampler_Hit(t *testing.T) {
	inner := &countingSampler{land: true}
	cached := NewCachedSampler(inner, 10)

	assert.Equal(t, domain.Land, cached.SampleLandFlag(130.001, -20.002))
	assert.Equal(t, domain.Land, cached.SampleLandFlag(130.0, -20.0))

	assert.Equal(t, 1, inner.calls, "same grid cell should only call inner once")
}

func TestCachedSampler_DifferentCellsMiss(t *testing.T) {
	inner := &countingSampler{}
	cached := NewCachedSampler(inner, 10)

	cached.SampleLandFlag(130.0, -20.0)
	cached.SampleLandFlag(130.1, -20.0)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedSampler_Concurrent(t *testing.T) {
	inner := &countingSampler{}
	cached := NewCachedSampler(inner, 4)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				cached.SampleLandFlag(float64(i), float64(j%6))
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, cached.cache.len(), 4)
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)
	c.put(cellKey{1, 1}, domain.Land)

	v, ok := c.get(cellKey{1, 1})
	assert.True(t, ok)
	assert.Equal(t, domain.Land, v)

	_, ok = c.get(cellKey{2, 2})
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)
	c.put(cellKey{1, 0}, domain.Land)
	c.put(cellKey{2, 0}, domain.Sea)
	c.put(cellKey{3, 0}, domain.Land)

	_, ok := c.get(cellKey{1, 0})
	assert.False(t, ok, "oldest entry should be evicted")
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_GetRefreshesRecency(t *testing.T) {
	c := newLRUCache(2)
	c.put(cellKey{1, 0}, domain.Land)
	c.put(cellKey{2, 0}, domain.Sea)
	c.get(cellKey{1, 0})
	c.put(cellKey{3, 0}, domain.Sea)

	_, ok := c.get(cellKey{1, 0})
	assert.True(t, ok)
	_, ok = c.get(cellKey{2, 0})
	assert.False(t, ok)
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)
	c.put(cellKey{1, 0}, domain.Sea)
	c.put(cellKey{1, 0}, domain.Land)

	v, _ := c.get(cellKey{1, 0})
	assert.Equal(t, domain.Land, v)
	assert.Equal(t, 1, c.len())
}

func TestLRUCache_MinimumSize(t *testing.T) {
	c := newLRUCache(0)
	c.put(cellKey{1, 0}, domain.Land)
	_, ok := c.get(cellKey{1, 0})
	assert.True(t, ok)
}
