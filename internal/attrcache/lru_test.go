package attrcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU(2)

	c.Insert(1, Attr{Size: 1})
	c.Insert(2, Attr{Size: 2})
	c.Insert(3, Attr{Size: 3}) // evicts 1, the least recently used

	_, ok := c.Get(1)
	assert.False(t, ok)

	attr, ok := c.Get(2)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), attr.Size)

	attr, ok = c.Get(3)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), attr.Size)
}

func TestLRUCache_GetPromotesToMostRecentlyUsed(t *testing.T) {
	c := NewLRU(2)

	c.Insert(1, Attr{Size: 1})
	c.Insert(2, Attr{Size: 2})

	c.Get(1) // 1 is now most-recently-used; 2 becomes the eviction target

	c.Insert(3, Attr{Size: 3})

	_, ok := c.Get(2)
	assert.False(t, ok, "2 should have been evicted, not 1")

	_, ok = c.Get(1)
	assert.True(t, ok)
}

func TestLRUCache_InsertUpdatesExistingEntry(t *testing.T) {
	c := NewLRU(2)

	c.Insert(1, Attr{Size: 1})
	c.Insert(1, Attr{Size: 99})

	attr, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, uint64(99), attr.Size)
}

func TestLRUCache_Invalidate(t *testing.T) {
	c := NewLRU(4)

	c.Insert(1, Attr{Size: 1})
	c.Invalidate(1)

	_, ok := c.Get(1)
	assert.False(t, ok)
}
