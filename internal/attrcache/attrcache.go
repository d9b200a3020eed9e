// Package attrcache implements the attribute cache, C2: a short-lived cache
// of file metadata keyed by inode, with pluggable eviction behind a single
// narrow interface so callers never see which policy is in effect.
package attrcache

import (
	"time"

	"github.com/restfuse-project/restfuse/internal/registry"
)

// Attr is the attribute record cached for one inode.
type Attr struct {
	Size  uint64
	Mode  uint32 // 9 permission bits plus type, as returned by the server
	Mtime time.Time
	Atime time.Time
	Ctime time.Time
	Nlink uint32
	Uid   uint32
	Gid   uint32
}

// Cache is the capability both eviction policies implement: get, insert,
// invalidate. Leaking which policy is in effect into callers defeats the
// point of making it pluggable, so this is the only surface C5 ever sees.
type Cache interface {
	Get(ino uint64) (Attr, bool)
	Insert(ino uint64, attr Attr)
	Invalidate(ino uint64)
}

// InvalidateByPath resolves path to an inode via the registry and
// invalidates its attribute record, if both exist. A path with no known
// inode, or an inode with no cached attributes, is a silent no-op.
func InvalidateByPath(c Cache, reg *registry.Registry, path string) {
	ino, ok := reg.InodeOf(path)
	if !ok {
		return
	}
	c.Invalidate(ino)
}
