package attrcache

import (
	"time"

	"github.com/jacobsa/syncutil"
	"github.com/jacobsa/timeutil"
)

type ttlEntry struct {
	attr       Attr
	insertedAt time.Time
}

// ttlCache evicts lazily: an entry is fresh if now - insertedAt < ttl. There
// is no capacity bound; staleness is the only eviction trigger.
type ttlCache struct {
	mu syncutil.InvariantMutex

	clock timeutil.Clock
	ttl   time.Duration

	// GUARDED_BY(mu)
	items map[uint64]ttlEntry
}

// NewTTL returns a Cache that expires entries ttl after insertion, using
// clock to read the current time (a fake clock in tests, timeutil.RealClock
// in production).
func NewTTL(ttl time.Duration, clock timeutil.Clock) Cache {
	c := &ttlCache{
		clock: clock,
		ttl:   ttl,
		items: make(map[uint64]ttlEntry),
	}
	c.mu = syncutil.NewInvariantMutex(c.checkInvariants)
	return c
}

func (c *ttlCache) checkInvariants() {
	if c.ttl < 0 {
		panic("attrcache: negative ttl")
	}
}

func (c *ttlCache) Get(ino uint64) (Attr, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[ino]
	if !ok {
		return Attr{}, false
	}

	if c.clock.Now().Sub(e.insertedAt) >= c.ttl {
		delete(c.items, ino)
		return Attr{}, false
	}

	return e.attr, true
}

func (c *ttlCache) Insert(ino uint64, attr Attr) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[ino] = ttlEntry{attr: attr, insertedAt: c.clock.Now()}
}

func (c *ttlCache) Invalidate(ino uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, ino)
}
