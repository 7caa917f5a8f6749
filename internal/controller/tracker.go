package controller

import (
	"sync"
	"time"
)

// localTracker remembers which work items the current user just mutated.
// While an id is marked, refresh triggers referencing it are ignored so a
// poll or push racing the mutation cannot revert the optimistic value.
// Marks expire on their own after the grace window, which the config
// layer guarantees is strictly longer than one poll interval: at least
// one full poll cycle is suppressed, and if the optimistic value turned
// out wrong, the next cycle after expiry corrects it.
type localTracker struct {
	mu    sync.Mutex
	grace time.Duration
	marks map[string]*time.Timer
}

func newLocalTracker(grace time.Duration) *localTracker {
	return &localTracker{
		grace: grace,
		marks: make(map[string]*time.Timer),
	}
}

// markLocal shields id for the grace window. Marking an already-marked
// id restarts its window; marks for different ids are independent.
func (t *localTracker) markLocal(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.marks[id]; ok {
		timer.Reset(t.grace)
		return
	}
	t.marks[id] = time.AfterFunc(t.grace, func() {
		t.unmark(id)
	})
}

// isLocal reports whether id is currently shielded.
func (t *localTracker) isLocal(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.marks[id]
	return ok
}

// anyLocal reports whether any id is shielded. The poll tick defers
// entirely while anything is mid-flight rather than attempting a partial
// merge.
func (t *localTracker) anyLocal() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.marks) > 0
}

// unmark removes the shield for id.
func (t *localTracker) unmark(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.marks[id]; ok {
		timer.Stop()
		delete(t.marks, id)
	}
}

// close stops all outstanding expiry timers.
func (t *localTracker) close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.marks {
		timer.Stop()
		delete(t.marks, id)
	}
}
