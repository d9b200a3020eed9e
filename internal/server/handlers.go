package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/gorilla/mux"

	"github.com/restfuse-project/restfuse/cfg"
	"github.com/restfuse-project/restfuse/internal/httpapi"
)

const clientIDHeader = "X-Client-ID"

func (s *Server) resolve(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	relPath := mux.Vars(r)["path"]
	dir := s.resolve(relPath)

	infos, err := os.ReadDir(dir)
	if err != nil {
		writeFSError(w, err)
		return
	}

	entries := make([]httpapi.Entry, 0, len(infos))
	for _, info := range infos {
		fi, err := info.Info()
		if err != nil {
			continue
		}

		kind := httpapi.KindFile
		if info.IsDir() {
			kind = httpapi.KindDir
		}
		entries = append(entries, httpapi.Entry{
			Name:  info.Name(),
			Kind:  kind,
			Size:  uint64(fi.Size()),
			Mode:  uint32(fi.Mode().Perm()),
			Mtime: uint64(fi.ModTime().Unix()),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	relPath := mux.Vars(r)["path"]
	path := s.resolve(relPath)

	f, err := os.Open(path)
	if err != nil {
		writeFSError(w, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeFSError(w, err)
		return
	}
	size := info.Size()

	start, end, hasRange := parseRangeHeader(r.Header.Get("Range"), size)
	if r.Header.Get("Range") != "" && !hasRange {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	if !hasRange {
		start, end = 0, size-1
	}

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		writeFSError(w, err)
		return
	}

	length := end - start + 1
	if r.Header.Get("Range") != "" {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
		w.WriteHeader(http.StatusPartialContent)
	}

	io.CopyN(w, f, length)
}

// parseRangeHeader parses a single "bytes=start-end" range against size.
// ok is false when header is empty or the range cannot be satisfied.
func parseRangeHeader(header string, size int64) (start, end int64, ok bool) {
	if header == "" {
		return 0, 0, false
	}
	header = strings.TrimPrefix(header, "bytes=")
	parts := strings.SplitN(header, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	start, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || start < 0 || start > size {
		return 0, 0, false
	}

	end = size - 1
	if parts[1] != "" {
		end, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0, 0, false
		}
	}
	if end >= size {
		end = size - 1
	}

	if start == size {
		// A range beginning exactly at EOF is satisfiable: it just reads
		// zero bytes, rather than 416 (reserved for start > size).
		return start, start - 1, true
	}
	if end < start {
		return 0, 0, false
	}

	return start, end, true
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	clientID := r.Header.Get(clientIDHeader)
	if clientID == "" {
		http.Error(w, "missing "+clientIDHeader, http.StatusBadRequest)
		return
	}

	relPath := mux.Vars(r)["path"]
	path := s.resolve(relPath)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		writeFSError(w, err)
		return
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".restfuse-tmp-*")
	if err != nil {
		writeFSError(w, err)
		return
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		writeFSError(w, err)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		writeFSError(w, err)
		return
	}

	// Each handler records the attribution before the mutation becomes
	// visible, so the watcher's event cannot arrive ahead of it.
	s.mods.record(relPath, clientID)
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		writeFSError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	clientID := r.Header.Get(clientIDHeader)
	if clientID == "" {
		http.Error(w, "missing "+clientIDHeader, http.StatusBadRequest)
		return
	}

	relPath := mux.Vars(r)["path"]
	path := s.resolve(relPath)

	s.mods.record(relPath, clientID)
	if err := os.RemoveAll(path); err != nil {
		writeFSError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMkdir(w http.ResponseWriter, r *http.Request) {
	clientID := r.Header.Get(clientIDHeader)
	if clientID == "" {
		http.Error(w, "missing "+clientIDHeader, http.StatusBadRequest)
		return
	}

	relPath := mux.Vars(r)["path"]
	path := s.resolve(relPath)

	s.mods.record(relPath, clientID)
	if err := os.MkdirAll(path, 0o755); err != nil {
		writeFSError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type chmodBody struct {
	Perm cfg.Octal `json:"perm"`
}

func (s *Server) handleChmod(w http.ResponseWriter, r *http.Request) {
	clientID := r.Header.Get(clientIDHeader)
	if clientID == "" {
		http.Error(w, "missing "+clientIDHeader, http.StatusBadRequest)
		return
	}

	var body chmodBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid chmod body", http.StatusBadRequest)
		return
	}

	relPath := mux.Vars(r)["path"]
	path := s.resolve(relPath)

	s.mods.record(relPath, clientID)
	if err := os.Chmod(path, os.FileMode(body.Perm)&0o777); err != nil {
		writeFSError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func writeFSError(w http.ResponseWriter, err error) {
	switch {
	case os.IsNotExist(err), errors.Is(err, syscall.ENOTDIR):
		// A path component existing as a file where a directory was
		// expected (e.g. listing through a file) is reported by the OS as
		// ENOTDIR, not ENOENT, but is just as much a 404 to a caller.
		http.Error(w, err.Error(), http.StatusNotFound)
	case os.IsPermission(err):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
