package clientfs

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restfuse-project/restfuse/internal/attrcache"
	"github.com/restfuse-project/restfuse/internal/httpapi"
)

// fakeServer is a minimal in-memory backing directory speaking the same
// wire protocol as the real server, just enough to drive clientfs end to
// end without a network round trip to an actual filesystem.
type fakeServer struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
	mode  map[string]uint32
}

func newFakeServer() *httptest.Server {
	fs := &fakeServer{
		files: make(map[string][]byte),
		dirs:  map[string]bool{"": true},
		mode:  make(map[string]uint32),
	}
	return httptest.NewServer(http.HandlerFunc(fs.handle))
}

func (f *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, "/list/"):
		dir := strings.TrimPrefix(r.URL.Path, "/list/")
		if !f.dirs[dir] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var entries []httpapi.Entry
		prefix := dir
		if prefix != "" {
			prefix += "/"
		}
		for p, data := range f.files {
			if !strings.HasPrefix(p, prefix) || strings.Contains(strings.TrimPrefix(p, prefix), "/") {
				continue
			}
			entries = append(entries, httpapi.Entry{Name: strings.TrimPrefix(p, prefix), Kind: httpapi.KindFile, Size: uint64(len(data)), Mode: f.mode[p]})
		}
		for p := range f.dirs {
			if p == "" || !strings.HasPrefix(p, prefix) || strings.Contains(strings.TrimPrefix(p, prefix), "/") {
				continue
			}
			entries = append(entries, httpapi.Entry{Name: strings.TrimPrefix(p, prefix), Kind: httpapi.KindDir, Mode: f.mode[p]})
		}
		json.NewEncoder(w).Encode(entries)

	case strings.HasPrefix(r.URL.Path, "/files/"):
		path := strings.TrimPrefix(r.URL.Path, "/files/")
		switch r.Method {
		case http.MethodGet:
			data, ok := f.files[path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			offset, length := parseRange(r.Header.Get("Range"), len(data))
			w.Write(data[offset : offset+length])
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.files[path] = body
		case http.MethodDelete:
			delete(f.files, path)
			delete(f.dirs, path)
		case http.MethodPatch:
			var body struct {
				Perm string `json:"perm"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			mode, _ := strconv.ParseUint(body.Perm, 8, 32)
			f.mode[path] = uint32(mode)
		}

	case strings.HasPrefix(r.URL.Path, "/mkdir/"):
		path := strings.TrimPrefix(r.URL.Path, "/mkdir/")
		f.dirs[path] = true
	}
}

func parseRange(header string, size int) (int, int) {
	if header == "" {
		return 0, size
	}
	header = strings.TrimPrefix(header, "bytes=")
	parts := strings.SplitN(header, "-", 2)
	start, _ := strconv.Atoi(parts[0])
	end := size - 1
	if len(parts) == 2 && parts[1] != "" {
		end, _ = strconv.Atoi(parts[1])
	}
	if end >= size {
		end = size - 1
	}
	if start > end {
		return 0, 0
	}
	return start, end - start + 1
}

func newTestFS(t *testing.T) (*FileSystem, *httptest.Server) {
	srv := newFakeServer()
	api := httpapi.New(srv.URL, "test-client", 0)
	attrs := attrcache.NewLRU(64)
	fs := newFileSystem(api, attrs, timeutil.RealClock())
	return fs, srv
}

func TestClientFS_CreateWriteReleaseThenReadBack(t *testing.T) {
	fs, srv := newTestFS(t)
	defer srv.Close()

	createOp := &fuseops.CreateFileOp{Parent: fuseops.InodeID(1), Name: "hello.txt", Mode: 0o644}
	require.NoError(t, fs.CreateFile(createOp))
	ino := createOp.Entry.Child

	writeOp := &fuseops.WriteFileOp{Inode: ino, Handle: createOp.Handle, Offset: 0, Data: []byte("hello world")}
	require.NoError(t, fs.WriteFile(writeOp))

	require.NoError(t, fs.ReleaseFileHandle(&fuseops.ReleaseFileHandleOp{Handle: createOp.Handle}))

	readOp := &fuseops.ReadFileOp{Inode: ino, Offset: 0, Size: 32}
	require.NoError(t, fs.ReadFile(readOp))
	assert.Equal(t, "hello world", string(readOp.Data))
}

func TestClientFS_LookUpInodeAndGetAttributes(t *testing.T) {
	fs, srv := newTestFS(t)
	defer srv.Close()

	require.NoError(t, fs.CreateFile(&fuseops.CreateFileOp{Parent: fuseops.InodeID(1), Name: "a", Mode: 0o600}))

	lookup := &fuseops.LookUpInodeOp{Parent: fuseops.InodeID(1), Name: "a"}
	require.NoError(t, fs.LookUpInode(lookup))
	assert.Equal(t, uint64(0), lookup.Entry.Attributes.Size)

	attrOp := &fuseops.GetInodeAttributesOp{Inode: lookup.Entry.Child}
	require.NoError(t, fs.GetInodeAttributes(attrOp))
	assert.Equal(t, uint64(0), attrOp.Attributes.Size)
}

func TestClientFS_LookUpInodeMissingReturnsENOENT(t *testing.T) {
	fs, srv := newTestFS(t)
	defer srv.Close()

	err := fs.LookUpInode(&fuseops.LookUpInodeOp{Parent: fuseops.InodeID(1), Name: "nope"})
	assert.Error(t, err)
}

func TestClientFS_MkDirThenOpenDirReadDir(t *testing.T) {
	fs, srv := newTestFS(t)
	defer srv.Close()

	mk := &fuseops.MkDirOp{Parent: fuseops.InodeID(1), Name: "sub", Mode: 0o755}
	require.NoError(t, fs.MkDir(mk))
	require.NoError(t, fs.CreateFile(&fuseops.CreateFileOp{Parent: fuseops.InodeID(1), Name: "top.txt", Mode: 0o644}))

	openOp := &fuseops.OpenDirOp{Inode: fuseops.InodeID(1)}
	require.NoError(t, fs.OpenDir(openOp))

	buf := make([]byte, 4096)
	readOp := &fuseops.ReadDirOp{Handle: openOp.Handle, Offset: 0, Dst: buf}
	require.NoError(t, fs.ReadDir(readOp))
	assert.Greater(t, readOp.BytesRead, 0)
}

func TestClientFS_UnlinkRemovesEntry(t *testing.T) {
	fs, srv := newTestFS(t)
	defer srv.Close()

	require.NoError(t, fs.CreateFile(&fuseops.CreateFileOp{Parent: fuseops.InodeID(1), Name: "gone.txt", Mode: 0o644}))
	require.NoError(t, fs.Unlink(&fuseops.UnlinkOp{Parent: fuseops.InodeID(1), Name: "gone.txt"}))

	err := fs.LookUpInode(&fuseops.LookUpInodeOp{Parent: fuseops.InodeID(1), Name: "gone.txt"})
	assert.Error(t, err)
}

func TestClientFS_RenameMovesContent(t *testing.T) {
	fs, srv := newTestFS(t)
	defer srv.Close()

	create := &fuseops.CreateFileOp{Parent: fuseops.InodeID(1), Name: "old.txt", Mode: 0o644}
	require.NoError(t, fs.CreateFile(create))
	require.NoError(t, fs.WriteFile(&fuseops.WriteFileOp{Inode: create.Entry.Child, Handle: create.Handle, Offset: 0, Data: []byte("payload")}))
	require.NoError(t, fs.ReleaseFileHandle(&fuseops.ReleaseFileHandleOp{Handle: create.Handle}))

	require.NoError(t, fs.Rename(&fuseops.RenameOp{
		OldParent: fuseops.InodeID(1), OldName: "old.txt",
		NewParent: fuseops.InodeID(1), NewName: "new.txt",
	}))

	lookup := &fuseops.LookUpInodeOp{Parent: fuseops.InodeID(1), Name: "new.txt"}
	require.NoError(t, fs.LookUpInode(lookup))

	readOp := &fuseops.ReadFileOp{Inode: lookup.Entry.Child, Offset: 0, Size: 32}
	require.NoError(t, fs.ReadFile(readOp))
	assert.Equal(t, "payload", string(readOp.Data))

	err := fs.LookUpInode(&fuseops.LookUpInodeOp{Parent: fuseops.InodeID(1), Name: "old.txt"})
	assert.Error(t, err)
}

func TestClientFS_GetXattrReturnsENODATA(t *testing.T) {
	fs, srv := newTestFS(t)
	defer srv.Close()

	err := fs.GetXattr(&fuseops.GetXattrOp{Inode: fuseops.InodeID(1), Name: "user.foo"})
	assert.Error(t, err)
}

func TestClientFS_ForgetInodeAfterUnlinkDestroys(t *testing.T) {
	fs, srv := newTestFS(t)
	defer srv.Close()

	lookup := func() fuseops.InodeID {
		create := &fuseops.CreateFileOp{Parent: fuseops.InodeID(1), Name: "f", Mode: 0o644}
		require.NoError(t, fs.CreateFile(create))
		return create.Entry.Child
	}()

	require.NoError(t, fs.Unlink(&fuseops.UnlinkOp{Parent: fuseops.InodeID(1), Name: "f"}))
	require.NoError(t, fs.ForgetInode(&fuseops.ForgetInodeOp{Inode: lookup, N: 1}))

	_, ok := fs.reg.KindOf(uint64(lookup))
	assert.False(t, ok, "the record must be gone once an unlinked inode's lookup count reaches zero")
}
