package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	t.Parallel()
	c := New[string, string](5)
	c.Add("hello", "world")
	assert.True(t, c.Contains("hello"))

	v, ok := c.Get("hello")
	require.True(t, ok)
	assert.Equal(t, "world", v)

	assert.True(t, c.Remove("hello"))
	assert.False(t, c.Remove("hello"))
	_, ok = c.Get("hello")
	assert.False(t, ok)
}

func TestEviction(t *testing.T) {
	t.Parallel()
	c := New[int, int](2)
	c.Add(1, 1)
	c.Add(2, 2)
	_, ok := c.Get(1)
	require.True(t, ok)
	c.Add(3, 3)
	assert.Equal(t, 2, c.Len())
	assert.False(t, c.Contains(2), "least recently used entry should be evicted")
	k, ok := c.oldest()
	require.True(t, ok)
	assert.Equal(t, 1, k)

	c.Add(1, 10)
	v, _ := c.Get(1)
	assert.Equal(t, 10, v)
	k, _ = c.oldest()
	assert.Equal(t, 3, k)
}

func TestClearAndZeroCapacity(t *testing.T) {
	t.Parallel()
	c := New[int, int](0)
	assert.EqualValues(t, 1, c.Cap)
	c.Add(1, 1)
	c.Add(2, 2)
	assert.Equal(t, 1, c.Len())
	c.Clear()
	assert.Zero(t, c.Len())
	_, ok := c.oldest()
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()
	c := New[int, int](16)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Add(j%32, i)
				c.Get(j % 32)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 16)
}
