package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[int, string](2)

	c.Set(1, "one")
	c.Set(2, "two")

	// Touch 1 so that 2 becomes the eviction candidate.
	_, ok := c.Get(1)
	require.True(t, ok)

	c.Set(3, "three")
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get(2)
	assert.False(t, ok, "least recently used entry should be evicted")

	v, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "one", v)

	v, ok = c.Get(3)
	assert.True(t, ok)
	assert.Equal(t, "three", v)
}

func TestLRU_Update(t *testing.T) {
	c := NewLRU[string, int](2)

	c.Set("a", 1)
	c.Set("a", 2)
	assert.Equal(t, 1, c.Len())

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestLRU_Disabled(t *testing.T) {
	c := NewLRU[int, int](0)

	c.Set(1, 1)
	_, ok := c.Get(1)
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestLRU_InvalidateAndPurge(t *testing.T) {
	c := NewLRU[int, int](10)
	for i := range 6 {
		c.Set(i, i*i)
	}

	c.Invalidate(func(k int) bool { return k%2 == 0 })
	assert.Equal(t, 3, c.Len())
	_, ok := c.Get(2)
	assert.False(t, ok)
	_, ok = c.Get(3)
	assert.True(t, ok)

	c.Purge()
	assert.Zero(t, c.Len())
	_, ok = c.Get(3)
	assert.False(t, ok)
}

func TestLRU_Stats(t *testing.T) {
	c := NewLRU[int, int](4)
	c.Set(1, 1)

	c.Get(1)
	c.Get(1)
	c.Get(2)

	hits, misses := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[int, int](16)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 1000 {
				k := (g*1000 + i) % 64
				c.Set(k, i)
				c.Get(k)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 16)
}
