package clientfs

import (
	"context"
	"os"
	"syscall"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/restfuse-project/restfuse/internal/attrcache"
	"github.com/restfuse-project/restfuse/internal/httpapi"
	"github.com/restfuse-project/restfuse/internal/registry"
)

func (fs *FileSystem) Init(op *fuseops.InitOp) (err error) {
	return
}

func (fs *FileSystem) LookUpInode(op *fuseops.LookUpInodeOp) (err error) {
	parentPath, ok := fs.reg.PathOf(uint64(op.Parent))
	if !ok {
		err = syscall.ENOENT
		return
	}

	entries, err := fs.api.List(reqCtx(op.Context()), parentPath)
	if err != nil {
		err = toErrno(err)
		return
	}

	for _, e := range entries {
		if e.Name != op.Name {
			continue
		}

		childPath := joinPath(parentPath, e.Name)
		kind := registry.KindFile
		if e.Kind == httpapi.KindDir {
			kind = registry.KindDir
		}
		ino := fs.reg.LookupOrInsert(childPath, kind)

		attr := attrFromEntry(e, fs.uid, fs.gid)
		fs.attrs.Insert(ino, attr)

		op.Entry.Child = fuseops.InodeID(ino)
		op.Entry.Attributes = toInodeAttributes(attr)
		return
	}

	err = syscall.ENOENT
	return
}

func (fs *FileSystem) GetInodeAttributes(op *fuseops.GetInodeAttributesOp) (err error) {
	attrs, err := fs.attributesFor(reqCtx(op.Context()), uint64(op.Inode))
	if err != nil {
		return
	}
	op.Attributes = attrs
	return
}

// attributesFor resolves the cached or freshly-listed attributes for ino,
// the shared core of GetInodeAttributes and the attribute refresh
// SetInodeAttributes performs after a mutation.
func (fs *FileSystem) attributesFor(ctx context.Context, ino uint64) (fuseops.InodeAttributes, error) {
	if attr, ok := fs.attrs.Get(ino); ok {
		return toInodeAttributes(attr), nil
	}

	if ino == registry.RootInode {
		attr := attrcache.Attr{
			Mode:  uint32(os.ModeDir | 0o755),
			Nlink: 2,
			Uid:   fs.uid,
			Gid:   fs.gid,
		}
		fs.attrs.Insert(ino, attr)
		return toInodeAttributes(attr), nil
	}

	path, ok := fs.reg.PathOf(ino)
	if !ok {
		return fuseops.InodeAttributes{}, syscall.ENOENT
	}

	entries, err := fs.api.List(ctx, parentOf(path))
	if err != nil {
		return fuseops.InodeAttributes{}, toErrno(err)
	}

	name := baseName(path)
	for _, e := range entries {
		if e.Name != name {
			continue
		}
		attr := attrFromEntry(e, fs.uid, fs.gid)
		fs.attrs.Insert(ino, attr)
		return toInodeAttributes(attr), nil
	}

	return fuseops.InodeAttributes{}, syscall.ENOENT
}

func (fs *FileSystem) SetInodeAttributes(op *fuseops.SetInodeAttributesOp) (err error) {
	ino := uint64(op.Inode)

	path, ok := fs.reg.PathOf(ino)
	if !ok {
		err = syscall.ENOENT
		return
	}

	if op.Mode != nil {
		if err = fs.api.Chmod(reqCtx(op.Context()), path, uint32(*op.Mode&0o777)); err != nil {
			err = toErrno(err)
			return
		}
	}

	if op.Size != nil {
		var data []byte
		if *op.Size > 0 {
			data, err = fs.api.ReadRange(reqCtx(op.Context()), path, 0, int64(*op.Size))
			if err != nil {
				err = toErrno(err)
				return
			}
		}
		buf := make([]byte, *op.Size)
		copy(buf, data)
		if err = fs.api.WriteFull(reqCtx(op.Context()), path, buf); err != nil {
			err = toErrno(err)
			return
		}
	}

	fs.attrs.Invalidate(ino)

	op.Attributes, err = fs.attributesFor(reqCtx(op.Context()), ino)
	return
}

func (fs *FileSystem) ForgetInode(op *fuseops.ForgetInodeOp) (err error) {
	if destroyed := fs.reg.Forget(uint64(op.Inode), op.N); destroyed {
		fs.attrs.Invalidate(uint64(op.Inode))
	}
	return
}

func (fs *FileSystem) StatFS(op *fuseops.StatFSOp) (err error) {
	return
}
