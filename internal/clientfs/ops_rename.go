package clientfs

import (
	"syscall"

	"github.com/jacobsa/fuse/fuseops"
)

// Rename has no single-call equivalent on the HTTP API, so it is emulated
// as read-old, write-new, delete-old, matching how the kernel's own
// rename(2) over network filesystems with no atomic rename degrades.
func (fs *FileSystem) Rename(op *fuseops.RenameOp) (err error) {
	oldParentPath, ok := fs.reg.PathOf(uint64(op.OldParent))
	if !ok {
		err = syscall.ENOENT
		return
	}
	newParentPath, ok := fs.reg.PathOf(uint64(op.NewParent))
	if !ok {
		err = syscall.ENOENT
		return
	}

	oldPath := joinPath(oldParentPath, op.OldName)
	newPath := joinPath(newParentPath, op.NewName)

	entries, err := fs.api.List(reqCtx(op.Context()), oldParentPath)
	if err != nil {
		err = toErrno(err)
		return
	}

	size := int64(-1)
	for _, e := range entries {
		if e.Name == op.OldName {
			size = int64(e.Size)
			break
		}
	}
	if size < 0 {
		err = syscall.ENOENT
		return
	}

	var data []byte
	if size > 0 {
		data, err = fs.api.ReadRange(reqCtx(op.Context()), oldPath, 0, size)
		if err != nil {
			err = toErrno(err)
			return
		}
	}

	if err = fs.api.WriteFull(reqCtx(op.Context()), newPath, data); err != nil {
		err = toErrno(err)
		return
	}
	if err = fs.api.Delete(reqCtx(op.Context()), oldPath); err != nil {
		err = toErrno(err)
		return
	}

	fs.reg.Rename(oldPath, newPath)
	if ino, ok := fs.reg.InodeOf(newPath); ok {
		fs.attrs.Invalidate(ino)
	}
	return
}
