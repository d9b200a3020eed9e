package writebuffer

import "github.com/jacobsa/syncutil"

// Pool is the open-handles map, keyed by FUSE file-handle id, guarded by a
// single exclusive lock.
type Pool struct {
	mu syncutil.InvariantMutex

	// GUARDED_BY(mu)
	handles map[uint64]*Handle
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	p := &Pool{handles: make(map[uint64]*Handle)}
	p.mu = syncutil.NewInvariantMutex(p.checkInvariants)
	return p
}

func (p *Pool) checkInvariants() {
	for fh, h := range p.handles {
		if h == nil {
			panic("writebuffer: nil handle in pool")
		}
		_ = fh
	}
}

// Open creates and registers a new handle for fh, the file-handle id
// returned to the kernel by open/create.
func (p *Pool) Open(fh uint64, path string, truncate bool) *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	h := NewHandle(path, truncate)
	p.handles[fh] = h
	return h
}

// Get returns the handle registered for fh, if any.
func (p *Pool) Get(fh uint64) (*Handle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.handles[fh]
	return h, ok
}

// Release removes fh from the pool unconditionally. The caller invokes this
// after calling the package-level Release function (successful or not): a
// failed PUT still discards the handle's dirty state rather than retrying it.
func (p *Pool) Release(fh uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.handles, fh)
}
