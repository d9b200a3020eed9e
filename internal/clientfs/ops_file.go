package clientfs

import (
	"context"
	"syscall"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/restfuse-project/restfuse/internal/attrcache"
	"github.com/restfuse-project/restfuse/internal/httpapi"
	"github.com/restfuse-project/restfuse/internal/registry"
	"github.com/restfuse-project/restfuse/internal/writebuffer"
)

func (fs *FileSystem) CreateFile(op *fuseops.CreateFileOp) (err error) {
	parentPath, ok := fs.reg.PathOf(uint64(op.Parent))
	if !ok {
		err = syscall.ENOENT
		return
	}
	childPath := joinPath(parentPath, op.Name)

	if err = fs.api.WriteFull(reqCtx(op.Context()), childPath, nil); err != nil {
		err = toErrno(err)
		return
	}

	ino := fs.reg.LookupOrInsert(childPath, registry.KindFile)
	attr := attrFromEntry(httpapi.Entry{
		Name: op.Name,
		Kind: httpapi.KindFile,
		Mode: uint32(op.Mode & 0o777),
	}, fs.uid, fs.gid)
	fs.attrs.Insert(ino, attr)

	h := fs.allocHandle()
	fs.bufs.Open(uint64(h), childPath, true)

	op.Entry.Child = fuseops.InodeID(ino)
	op.Entry.Attributes = toInodeAttributes(attr)
	op.Handle = h
	return
}

func (fs *FileSystem) remove(ctx context.Context, parent fuseops.InodeID, name string) (err error) {
	parentPath, ok := fs.reg.PathOf(uint64(parent))
	if !ok {
		return syscall.ENOENT
	}
	childPath := joinPath(parentPath, name)

	if err = fs.api.Delete(ctx, childPath); err != nil {
		return toErrno(err)
	}

	if ino, ok := fs.reg.InodeOf(childPath); ok {
		fs.attrs.Invalidate(ino)
	}
	fs.reg.Unlink(childPath)
	return nil
}

func (fs *FileSystem) OpenFile(op *fuseops.OpenFileOp) (err error) {
	path, ok := fs.reg.PathOf(uint64(op.Inode))
	if !ok {
		err = syscall.ENOENT
		return
	}

	flags := uint32(op.OpenFlags)
	if isWriteFlags(flags) {
		h := fs.allocHandle()
		fs.bufs.Open(uint64(h), path, flags&syscall.O_TRUNC != 0)
		op.Handle = h
	}
	return
}

func isWriteFlags(flags uint32) bool {
	accmode := flags & syscall.O_ACCMODE
	return accmode == syscall.O_WRONLY || accmode == syscall.O_RDWR || flags&syscall.O_TRUNC != 0
}

func (fs *FileSystem) ReadFile(op *fuseops.ReadFileOp) (err error) {
	path, ok := fs.reg.PathOf(uint64(op.Inode))
	if !ok {
		err = syscall.ENOENT
		return
	}

	data, err := fs.api.ReadRange(reqCtx(op.Context()), path, op.Offset, int64(op.Size))
	if err != nil {
		err = toErrno(err)
		return
	}
	op.Data = data
	return
}

func (fs *FileSystem) WriteFile(op *fuseops.WriteFileOp) (err error) {
	h, ok := fs.bufs.Get(uint64(op.Handle))
	if !ok {
		err = syscall.EBADF
		return
	}

	end := h.Write(op.Offset, op.Data)

	ino := uint64(op.Inode)
	if attr, ok := fs.attrs.Get(ino); ok && int64(attr.Size) < end {
		attr.Size = uint64(end)
		fs.attrs.Insert(ino, attr)
	}
	return
}

func (fs *FileSystem) SyncFile(op *fuseops.SyncFileOp) (err error) {
	return
}

func (fs *FileSystem) FlushFile(op *fuseops.FlushFileOp) (err error) {
	return
}

func (fs *FileSystem) ReleaseFileHandle(op *fuseops.ReleaseFileHandleOp) (err error) {
	h, ok := fs.bufs.Get(uint64(op.Handle))
	if !ok {
		return nil
	}

	path := h.Path()
	ino, hasIno := fs.reg.InodeOf(path)

	var currentSize int64
	if hasIno {
		if attrs, err := fs.attributesFor(reqCtx(op.Context()), ino); err == nil {
			currentSize = int64(attrs.Size)
		}
	}

	finalSize, err := writebuffer.Release(reqCtx(op.Context()), fs.api, h, currentSize)
	fs.bufs.Release(uint64(op.Handle))

	if err != nil {
		return toErrno(err)
	}

	if hasIno {
		attr, ok := fs.attrs.Get(ino)
		if !ok {
			attr = attrcache.Attr{Mode: uint32(0o644), Nlink: 1, Uid: fs.uid, Gid: fs.gid}
		}
		attr.Size = uint64(finalSize)
		fs.attrs.Insert(ino, attr)
	}
	return nil
}
