package clientfs

import (
	"syscall"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"

	"github.com/restfuse-project/restfuse/internal/httpapi"
	"github.com/restfuse-project/restfuse/internal/registry"
)

func (fs *FileSystem) OpenDir(op *fuseops.OpenDirOp) (err error) {
	path, ok := fs.reg.PathOf(uint64(op.Inode))
	if !ok {
		err = syscall.ENOENT
		return
	}

	entries, err := fs.api.List(reqCtx(op.Context()), path)
	if err != nil {
		err = toErrno(err)
		return
	}

	dirents := make([]fuseutil.Dirent, 0, len(entries)+2)
	dirents = append(dirents, fuseutil.Dirent{
		Offset: 1,
		Inode:  op.Inode,
		Name:   ".",
		Type:   fuseutil.DT_Directory,
	})

	parentIno := fuseops.InodeID(registry.RootInode)
	if p, ok := fs.reg.InodeOf(parentOf(path)); ok {
		parentIno = fuseops.InodeID(p)
	}
	dirents = append(dirents, fuseutil.Dirent{
		Offset: 2,
		Inode:  parentIno,
		Name:   "..",
		Type:   fuseutil.DT_Directory,
	})

	for i, e := range entries {
		childPath := joinPath(path, e.Name)
		kind := registry.KindFile
		dt := fuseutil.DT_File
		if e.Kind == httpapi.KindDir {
			kind = registry.KindDir
			dt = fuseutil.DT_Directory
		}
		ino := fs.reg.LookupOrInsert(childPath, kind)

		dirents = append(dirents, fuseutil.Dirent{
			Offset: fuseops.DirOffset(i + 3),
			Inode:  fuseops.InodeID(ino),
			Name:   e.Name,
			Type:   dt,
		})
	}

	h := fs.allocHandle()
	fs.mu.Lock()
	fs.dirHandles[h] = &dirHandle{entries: dirents}
	fs.mu.Unlock()

	op.Handle = h
	return
}

func (fs *FileSystem) ReadDir(op *fuseops.ReadDirOp) (err error) {
	fs.mu.Lock()
	dh, ok := fs.dirHandles[op.Handle]
	fs.mu.Unlock()
	if !ok {
		err = syscall.EIO
		return
	}

	idx := int(op.Offset)
	if idx > len(dh.entries) {
		err = syscall.EINVAL
		return
	}

	n := 0
	for ; idx < len(dh.entries); idx++ {
		written := fuseutil.WriteDirent(op.Dst[n:], dh.entries[idx])
		if written == 0 {
			break
		}
		n += written
	}
	op.BytesRead = n
	return
}

func (fs *FileSystem) ReleaseDirHandle(op *fuseops.ReleaseDirHandleOp) (err error) {
	fs.mu.Lock()
	delete(fs.dirHandles, op.Handle)
	fs.mu.Unlock()
	return
}

func (fs *FileSystem) MkDir(op *fuseops.MkDirOp) (err error) {
	parentPath, ok := fs.reg.PathOf(uint64(op.Parent))
	if !ok {
		err = syscall.ENOENT
		return
	}
	childPath := joinPath(parentPath, op.Name)

	if err = fs.api.Mkdir(reqCtx(op.Context()), childPath); err != nil {
		err = toErrno(err)
		return
	}

	ino := fs.reg.LookupOrInsert(childPath, registry.KindDir)
	attr := attrFromEntry(httpapi.Entry{
		Name: op.Name,
		Kind: httpapi.KindDir,
		Mode: uint32(op.Mode & 0o777),
	}, fs.uid, fs.gid)
	fs.attrs.Insert(ino, attr)

	op.Entry.Child = fuseops.InodeID(ino)
	op.Entry.Attributes = toInodeAttributes(attr)
	return
}

func (fs *FileSystem) RmDir(op *fuseops.RmDirOp) (err error) {
	return fs.remove(reqCtx(op.Context()), op.Parent, op.Name)
}

func (fs *FileSystem) Unlink(op *fuseops.UnlinkOp) (err error) {
	return fs.remove(reqCtx(op.Context()), op.Parent, op.Name)
}
