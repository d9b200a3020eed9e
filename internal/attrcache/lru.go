package attrcache

import (
	"container/list"

	"github.com/jacobsa/syncutil"
)

type lruNode struct {
	ino  uint64
	attr Attr
}

// lruCache is a fixed-capacity, entry-count-bounded cache: get moves the
// touched entry to the front, insert may evict the back entry. Entries
// never expire by time.
//
// Capacity here is a plain entry count rather than a byte-size budget, since
// every record is a fixed-size attribute struct with no meaningful notion of
// its own byte size to report. The eviction bookkeeping is built directly
// over the standard library's container/list.
type lruCache struct {
	mu syncutil.InvariantMutex

	capacity int

	// GUARDED_BY(mu)
	order *list.List // front = most recently used; each Value is *lruNode
	// GUARDED_BY(mu)
	index map[uint64]*list.Element
}

// NewLRU returns a Cache holding at most capacity entries.
func NewLRU(capacity int) Cache {
	c := &lruCache{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[uint64]*list.Element),
	}
	c.mu = syncutil.NewInvariantMutex(c.checkInvariants)
	return c
}

func (c *lruCache) checkInvariants() {
	if c.capacity <= 0 {
		panic("attrcache: non-positive lru capacity")
	}
	if c.order.Len() != len(c.index) {
		panic("attrcache: lru order/index length mismatch")
	}
	if c.order.Len() > c.capacity {
		panic("attrcache: lru cache over capacity")
	}
}

func (c *lruCache) Get(ino uint64) (Attr, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[ino]
	if !ok {
		return Attr{}, false
	}

	c.order.MoveToFront(el)
	return el.Value.(*lruNode).attr, true
}

func (c *lruCache) Insert(ino uint64, attr Attr) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[ino]; ok {
		el.Value.(*lruNode).attr = attr
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.capacity {
		back := c.order.Back()
		if back != nil {
			c.order.Remove(back)
			delete(c.index, back.Value.(*lruNode).ino)
		}
	}

	el := c.order.PushFront(&lruNode{ino: ino, attr: attr})
	c.index[ino] = el
}

func (c *lruCache) Invalidate(ino uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[ino]
	if !ok {
		return
	}
	c.order.Remove(el)
	delete(c.index, ino)
}
