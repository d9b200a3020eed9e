// Package registry implements the bidirectional mapping between ephemeral
// inode numbers and canonical slash-separated paths that the VFS dispatch
// layer presents to the kernel.
//
// Inode 1 is reserved for the mount root ("") and is never reused. All other
// inodes are allocated monotonically starting at 2; wrap-around is not
// handled, matching the session-scoped lifetime the registry is meant for.
package registry

import (
	"strings"

	"github.com/jacobsa/syncutil"
)

// Kind distinguishes files from directories in a registry entry.
type Kind int

const (
	KindFile Kind = iota
	KindDir
)

// RootInode is always mapped to the empty path, which denotes the mount
// point itself.
const RootInode uint64 = 1

type entry struct {
	path        string
	kind        Kind
	lookupCount uint64
	unlinked    bool
}

// Registry is the path/inode registry, C1. All operations take the single
// exclusive lock; it is a small, hot structure and contention is acceptable.
type Registry struct {
	mu syncutil.InvariantMutex

	// GUARDED_BY(mu)
	byInode map[uint64]*entry
	// GUARDED_BY(mu)
	byPath map[string]uint64
	// GUARDED_BY(mu)
	nextInode uint64
}

// New returns a registry with only the root inode populated.
func New() *Registry {
	r := &Registry{
		byInode: map[uint64]*entry{
			RootInode: {path: "", kind: KindDir, lookupCount: 1},
		},
		byPath:    map[string]uint64{"": RootInode},
		nextInode: RootInode + 1,
	}
	r.mu = syncutil.NewInvariantMutex(r.checkInvariants)
	return r
}

func (r *Registry) checkInvariants() {
	if ino, ok := r.byPath[""]; !ok || ino != RootInode {
		panic("registry: root path is not mapped to RootInode")
	}
	if e, ok := r.byInode[RootInode]; !ok || e.path != "" {
		panic("registry: RootInode is not mapped to the root path")
	}

	for path, ino := range r.byPath {
		e, ok := r.byInode[ino]
		if !ok {
			panic("registry: byPath entry with no corresponding byInode entry")
		}
		if e.path != path {
			panic("registry: byPath/byInode path mismatch")
		}
		if e.unlinked {
			panic("registry: unlinked entry still present in byPath")
		}
	}

	if r.nextInode <= RootInode {
		panic("registry: nextInode must be greater than RootInode")
	}
}

// LookupOrInsert resolves path to its inode, creating one (of the given
// kind) if the path is not yet known. Each call increments the entry's
// lookup count, mirroring the kernel's own reference counting; callers that
// do not represent a kernel lookup (e.g. a plain refresh) should not call
// this repeatedly without an eventual matching Forget.
func (r *Registry) LookupOrInsert(path string, kind Kind) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ino, ok := r.byPath[path]; ok {
		r.byInode[ino].lookupCount++
		return ino
	}

	ino := r.nextInode
	r.nextInode++
	r.byInode[ino] = &entry{path: path, kind: kind, lookupCount: 1}
	r.byPath[path] = ino
	return ino
}

// PathOf returns the path currently mapped to ino, or ok=false if ino is
// unknown or has been unlinked.
func (r *Registry) PathOf(ino uint64) (path string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, found := r.byInode[ino]
	if !found || e.unlinked {
		return "", false
	}
	return e.path, true
}

// KindOf returns the kind recorded for ino, or ok=false if ino is unknown.
func (r *Registry) KindOf(ino uint64) (kind Kind, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, found := r.byInode[ino]
	if !found {
		return 0, false
	}
	return e.kind, true
}

// InodeOf returns the inode currently mapped to path, if any.
func (r *Registry) InodeOf(path string) (ino uint64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ino, ok = r.byPath[path]
	return
}

// Rename rewrites every entry whose path equals oldPath or is rooted under
// oldPath, preserving inode numbers so that open file handles remain valid
// across a move.
func (r *Registry) Rename(oldPath, newPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := oldPath + "/"
	for path, ino := range r.byPath {
		if path != oldPath && !strings.HasPrefix(path, prefix) {
			continue
		}

		rewritten := newPath + path[len(oldPath):]
		delete(r.byPath, path)
		r.byPath[rewritten] = ino
		r.byInode[ino].path = rewritten
	}
}

// Unlink removes path from the registry immediately, as required for
// explicit unlink/rmdir. The backing inode record is kept, tombstoned,
// until the kernel's lookup count reaches zero via Forget, so that a handle
// opened before the unlink still resolves by inode.
func (r *Registry) Unlink(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ino, ok := r.byPath[path]
	if !ok {
		return
	}
	delete(r.byPath, path)

	e := r.byInode[ino]
	e.unlinked = true
	if e.lookupCount == 0 {
		delete(r.byInode, ino)
	}
}

// Forget decrements ino's lookup count by n, as the kernel does via
// ForgetInodeOp, and destroys the backing record once the count reaches
// zero and the path has been unlinked. It reports whether the record was
// destroyed.
func (r *Registry) Forget(ino uint64, n uint64) (destroyed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byInode[ino]
	if !ok {
		return true
	}

	if n >= e.lookupCount {
		e.lookupCount = 0
	} else {
		e.lookupCount -= n
	}

	if e.lookupCount == 0 && e.unlinked {
		delete(r.byInode, ino)
		return true
	}
	return false
}
