package server

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/restfuse-project/restfuse/internal/logger"
)

// watcher recursively watches root for filesystem changes and attributes
// each one to whichever client's HTTP request caused it, falling back to
// an unknown origin for changes this server didn't itself just serve
// (edits made directly against the backing directory, out of band): C8's
// watcher half.
type watcher struct {
	root string
	fsw  *fsnotify.Watcher
	mods *recentMods
	hub  *Hub
}

func newWatcher(root string, mods *recentMods, hub *Hub) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &watcher{root: root, fsw: fsw, mods: mods, hub: hub}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

func (w *watcher) addTree(dir string) error {
	return filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.fsw.Add(p)
		}
		return nil
	})
}

// Run processes events until the watcher is closed.
func (w *watcher) Run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warnf("server: watcher error: %v", err)
		}
	}
}

func (w *watcher) Close() error {
	return w.fsw.Close()
}

func (w *watcher) handle(event fsnotify.Event) {
	path := w.relPath(event.Name)
	if path == "" {
		return
	}

	// The write handler's temp files are part of an atomic PUT; only the
	// rename onto the target path is reported.
	if strings.HasPrefix(filepath.Base(event.Name), ".restfuse-tmp-") {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				logger.Warnf("server: failed to watch new directory %s: %v", event.Name, err)
			}
		}
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Chmod) == 0 {
		return
	}

	clientID, ok := w.mods.take(path)
	if !ok {
		clientID = "unknown"
	}
	w.hub.broadcast(path, clientID)
}

// relPath converts an absolute fsnotify path into the slash-separated
// path clients address entries by.
func (w *watcher) relPath(absPath string) string {
	rel, err := filepath.Rel(w.root, absPath)
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return ""
	}
	return strings.TrimPrefix(rel, "./")
}
