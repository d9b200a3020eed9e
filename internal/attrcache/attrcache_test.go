package attrcache

import (
	"testing"
	"time"

	"github.com/jacobsa/timeutil"
	"github.com/restfuse-project/restfuse/internal/registry"
	"github.com/stretchr/testify/assert"
)

func TestInvalidateByPath(t *testing.T) {
	reg := registry.New()
	clock := timeutil.NewSimulatedClock(time.Unix(0, 0))
	cache := NewTTL(time.Minute, clock)

	ino := reg.LookupOrInsert("a/b.txt", registry.KindFile)
	cache.Insert(ino, Attr{Size: 5})

	InvalidateByPath(cache, reg, "a/b.txt")

	_, ok := cache.Get(ino)
	assert.False(t, ok)
}

func TestInvalidateByPath_UnknownPathIsNoop(t *testing.T) {
	reg := registry.New()
	clock := timeutil.NewSimulatedClock(time.Unix(0, 0))
	cache := NewTTL(time.Minute, clock)

	assert.NotPanics(t, func() {
		InvalidateByPath(cache, reg, "nope")
	})
}
