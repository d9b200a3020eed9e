package server

import (
	"sync"
	"time"

	"github.com/jacobsa/timeutil"
)

// recentMods tracks the client responsible for each path this server has
// just mutated through its own HTTP handlers, so the filesystem watcher
// can attribute the resulting fsnotify event to that client instead of
// broadcasting it as an unattributed change. An entry moves from Pending
// (recorded by a handler) to Emitted (consumed by the watcher, which
// broadcasts and removes it) within a short deadline; if the deadline
// passes before any matching fsnotify event arrives, the entry is dropped
// and a later event for that path is reported with an unknown origin.
type recentMods struct {
	mu     sync.Mutex
	clock  timeutil.Clock
	window time.Duration

	// GUARDED_BY(mu)
	pending map[string]recentMod
}

type recentMod struct {
	clientID string
	deadline time.Time
}

func newRecentMods(clock timeutil.Clock, window time.Duration) *recentMods {
	return &recentMods{
		clock:   clock,
		window:  window,
		pending: make(map[string]recentMod),
	}
}

// record marks path as just mutated by clientID (Idle -> Pending).
func (r *recentMods) record(path, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending[path] = recentMod{
		clientID: clientID,
		deadline: r.clock.Now().Add(r.window),
	}
}

// take consumes the pending entry for path, if any and unexpired,
// transitioning Pending -> Emitted by removing it. The second return value
// is false if no attribution is available, in which case the caller
// should broadcast the change with an unknown origin.
func (r *recentMods) take(path string) (clientID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mod, found := r.pending[path]
	if !found {
		return "", false
	}
	delete(r.pending, path)

	if r.clock.Now().After(mod.deadline) {
		return "", false
	}
	return mod.clientID, true
}
