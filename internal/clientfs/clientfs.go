// Package clientfs dispatches kernel VFS operations onto the HTTP API,
// wiring together the path/inode registry, the attribute cache, and the
// write buffer pool.
package clientfs

import (
	"context"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/jacobsa/timeutil"

	"github.com/restfuse-project/restfuse/internal/attrcache"
	"github.com/restfuse-project/restfuse/internal/httpapi"
	"github.com/restfuse-project/restfuse/internal/registry"
	"github.com/restfuse-project/restfuse/internal/writebuffer"
)

// FileSystem implements fuseutil.FileSystem over the HTTP API client,
// emulating a local filesystem view of a remote directory tree.
//
// Symlinks, hard links, and device nodes are out of scope: the embedded
// fuseutil.NotImplementedFileSystem answers those ops with ENOSYS.
type FileSystem struct {
	fuseutil.NotImplementedFileSystem

	clock timeutil.Clock
	api   *httpapi.Client
	reg   *registry.Registry
	attrs attrcache.Cache
	bufs  *writebuffer.Pool

	uid uint32
	gid uint32

	mu         sync.Mutex
	dirHandles map[fuseops.HandleID]*dirHandle
	nextHandle fuseops.HandleID
}

// New builds a fuse.Server backed by api, caching attributes in attrs. The
// returned *FileSystem is the same instance the server dispatches onto,
// exposed so a change-stream listener can invalidate its cache by path.
func New(api *httpapi.Client, attrs attrcache.Cache, clock timeutil.Clock) (fuse.Server, *FileSystem) {
	fs := newFileSystem(api, attrs, clock)
	return fuseutil.NewFileSystemServer(fs), fs
}

// InvalidatePath drops the cached attributes for path, if any, so the next
// lookup or getattr re-fetches them from the server. Used to apply remote
// change notifications this client did not itself originate.
func (fs *FileSystem) InvalidatePath(path string) {
	attrcache.InvalidateByPath(fs.attrs, fs.reg, path)
}

func newFileSystem(api *httpapi.Client, attrs attrcache.Cache, clock timeutil.Clock) *FileSystem {
	return &FileSystem{
		clock:      clock,
		api:        api,
		reg:        registry.New(),
		attrs:      attrs,
		bufs:       writebuffer.NewPool(),
		uid:        uint32(os.Getuid()),
		gid:        uint32(os.Getgid()),
		dirHandles: make(map[fuseops.HandleID]*dirHandle),
		nextHandle: 1,
	}
}

// dirHandle buffers one listing for the lifetime of an open directory
// handle, so readdir's DirOffset-paged protocol doesn't re-list on every
// call.
type dirHandle struct {
	entries []fuseutil.Dirent
}

func (fs *FileSystem) allocHandle() fuseops.HandleID {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	h := fs.nextHandle
	fs.nextHandle++
	return h
}

// reqCtx guards against an op whose embedded context was never populated
// (notably hand-built ops in tests), so a nil context never reaches the
// HTTP client's request construction.
func reqCtx(c context.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	return c
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

func parentOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

func baseName(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

// toErrno maps the internal/httpapi error taxonomy onto the POSIX errno
// values the kernel expects back from a FileSystem method.
func toErrno(err error) error {
	if err == nil {
		return nil
	}

	if httpapi.IsNotFound(err) {
		return syscall.ENOENT
	}

	if status, ok := httpapi.StatusOf(err); ok {
		switch status {
		case 403:
			return syscall.EACCES
		case 409:
			return syscall.EEXIST
		default:
			return syscall.EIO
		}
	}

	return syscall.EIO
}

func attrFromEntry(e httpapi.Entry, uid, gid uint32) attrcache.Attr {
	mode := e.Mode & 0o777
	nlink := uint32(1)
	if e.Kind == httpapi.KindDir {
		mode |= uint32(os.ModeDir)
		nlink = 2
	}
	mtime := time.Unix(int64(e.Mtime), 0)
	return attrcache.Attr{
		Size:  e.Size,
		Mode:  mode,
		Mtime: mtime,
		Atime: mtime,
		Ctime: mtime,
		Nlink: nlink,
		Uid:   uid,
		Gid:   gid,
	}
}

func toInodeAttributes(a attrcache.Attr) fuseops.InodeAttributes {
	return fuseops.InodeAttributes{
		Size:  a.Size,
		Nlink: a.Nlink,
		Mode:  os.FileMode(a.Mode),
		Atime: a.Atime,
		Mtime: a.Mtime,
		Ctime: a.Ctime,
		Uid:   a.Uid,
		Gid:   a.Gid,
	}
}
