package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jacobsa/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_AttributesWriteToRecordedClient(t *testing.T) {
	root := t.TempDir()
	mods := newRecentMods(timeutil.RealClock(), 2*time.Second)
	hub := newHub()

	w, err := newWatcher(root, mods, hub)
	require.NoError(t, err)
	defer w.Close()
	go w.Run()

	ch := hub.subscribe()
	defer hub.unsubscribe(ch)

	mods.record("a.txt", "client-1")
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hi"), 0o644))

	select {
	case frame := <-ch:
		assert.Equal(t, "CHANGE:a.txt|BY:client-1", frame)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never broadcast the write")
	}
}

func TestWatcher_UnattributedChangeBroadcastsUnknownClientID(t *testing.T) {
	root := t.TempDir()
	mods := newRecentMods(timeutil.RealClock(), 2*time.Second)
	hub := newHub()

	w, err := newWatcher(root, mods, hub)
	require.NoError(t, err)
	defer w.Close()
	go w.Run()

	ch := hub.subscribe()
	defer hub.unsubscribe(ch)

	// No mods.record call: this write looks like it came from outside
	// this server's own HTTP handlers.
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("hi"), 0o644))

	select {
	case frame := <-ch:
		assert.Equal(t, "CHANGE:b.txt|BY:unknown", frame)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never broadcast the write")
	}
}

func TestWatcher_NewSubdirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	mods := newRecentMods(timeutil.RealClock(), 2*time.Second)
	hub := newHub()

	w, err := newWatcher(root, mods, hub)
	require.NoError(t, err)
	defer w.Close()
	go w.Run()

	ch := hub.subscribe()
	defer hub.unsubscribe(ch)

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	// The directory's own creation is broadcast first.
	select {
	case frame := <-ch:
		assert.Equal(t, "CHANGE:sub|BY:unknown", frame)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never broadcast the new directory")
	}

	// Give the watcher a moment to notice the new directory and add it
	// before writing a file inside it.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "c.txt"), []byte("hi"), 0o644))

	select {
	case frame := <-ch:
		assert.Contains(t, frame, "sub/c.txt")
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never observed a write inside the newly created subdirectory")
	}
}
