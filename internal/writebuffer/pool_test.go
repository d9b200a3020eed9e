package writebuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_OpenGetRelease(t *testing.T) {
	p := NewPool()

	h := p.Open(1, "f", false)
	assert.Equal(t, "f", h.Path())

	got, ok := p.Get(1)
	assert.True(t, ok)
	assert.Same(t, h, got)

	p.Release(1)

	_, ok = p.Get(1)
	assert.False(t, ok)
}

func TestPool_GetUnknownHandle(t *testing.T) {
	p := NewPool()
	_, ok := p.Get(99)
	assert.False(t, ok)
}
