// Package controller keeps the in-memory work item collection consistent
// across three interleaved inputs: user-initiated mutations, a fixed
// interval poll, and the push change feed. Two small mechanisms carry
// all the correctness weight: a fetch token that makes the last *issued*
// refresh win, and a per-item suppression window that keeps a refresh
// from silently reverting the user's own recent edit.
package controller

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hvila/tablero/internal/logger"
	"github.com/hvila/tablero/internal/model"
	"github.com/hvila/tablero/internal/status"
	"github.com/hvila/tablero/internal/store"
)

// Store is the slice of the remote boundary the controller needs.
// *store.Client satisfies it; tests supply an in-process fake.
type Store interface {
	WorkItems(ctx context.Context, f store.Filter) ([]model.WorkItem, error)
	StatusEvents(ctx context.Context) ([]model.StatusEvent, error)
	AppendStatusEvent(ctx context.Context, itemID string, s model.Status, note string) error
	EnqueueNotification(ctx context.Context, userID, workItemID, message string) error
	Subscribe(ctx context.Context, onEvent func(table, id string)) (io.Closer, error)
}

// Notifier is the external side-channel (mail/messaging) invoked on
// select transitions. Strictly fire-and-forget: failures are logged and
// never block or roll back the primary mutation.
type Notifier interface {
	Notify(ctx context.Context, itemID string, s model.Status, message string)
}

// Options tunes the controller.
type Options struct {
	PollInterval  time.Duration
	GraceWindow   time.Duration
	NotifyAdvisor bool
	Filter        store.Filter

	// OnCommit is called with the freshly committed collection after
	// every token-current refresh. Used for the snapshot cache; may be
	// nil.
	OnCommit func(items []model.WorkItem)
}

// Controller owns the in-memory collection and its reconciliation.
type Controller struct {
	store    Store
	notifier Notifier
	opts     Options

	guard   fetchGuard
	tracker *localTracker

	mu      sync.Mutex
	items   []model.WorkItem
	loading bool
	lastErr error

	stopOnce sync.Once
	stopCh   chan struct{}
	sub      io.Closer
	wg       sync.WaitGroup
}

// New creates a controller. Start must be called before it refreshes.
func New(st Store, notifier Notifier, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.GraceWindow <= opts.PollInterval {
		opts.GraceWindow = opts.PollInterval + opts.PollInterval/2
	}
	return &Controller{
		store:    st,
		notifier: notifier,
		opts:     opts,
		tracker:  newLocalTracker(opts.GraceWindow),
		stopCh:   make(chan struct{}),
	}
}

// Items returns a copy of the current collection.
func (c *Controller) Items() []model.WorkItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.WorkItem, len(c.items))
	copy(out, c.items)
	return out
}

// Item returns the item with the given id, if present.
func (c *Controller) Item(id string) (model.WorkItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.ID == id {
			return item, true
		}
	}
	return model.WorkItem{}, false
}

// Err returns the error of the most recent failed refresh, or nil. A
// failed refresh never blanks the collection; the last-known-good items
// stay in place behind this error.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Loading reports whether a refresh is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Refresh re-fetches the entire visible collection and commits it if no
// newer refresh was issued meanwhile. Incremental patching is deliberate
// non-engineering here: collections are hundreds of rows.
func (c *Controller) Refresh(ctx context.Context) error {
	// Token issue and the loading stamp are one critical section: with a
	// gap between them, a newer refresh could run to completion in the
	// gap and have its cleared loading flag overwritten by this one's
	// late stamp, which nothing would ever clear.
	c.mu.Lock()
	tok := c.guard.beginFetch()
	c.loading = true
	c.mu.Unlock()

	items, err := c.store.WorkItems(ctx, c.opts.Filter)
	if err != nil {
		return c.failRefresh(tok, fmt.Errorf("fetching work items: %w", err))
	}
	events, err := c.store.StatusEvents(ctx)
	if err != nil {
		return c.failRefresh(tok, fmt.Errorf("fetching status events: %w", err))
	}

	projected := status.Project(items, events)

	c.mu.Lock()
	if !c.guard.isCurrent(tok) {
		// Superseded by a newer refresh. Not an error: discard without
		// touching state, loading included, which still belongs to the
		// newer refresh.
		c.mu.Unlock()
		logger.Debug("Refresh discarded as stale", logger.F("token", tok))
		return nil
	}
	c.items = c.mergeLocked(projected)
	c.loading = false
	c.lastErr = nil
	committed := make([]model.WorkItem, len(c.items))
	copy(committed, c.items)
	c.mu.Unlock()

	if c.opts.OnCommit != nil {
		c.opts.OnCommit(committed)
	}
	return nil
}

// failRefresh records a refresh failure, but only when the refresh is
// still current. A stale aborted refresh must not clear the loading flag
// or plant an error over a newer in-flight refresh.
func (c *Controller) failRefresh(tok int64, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.guard.isCurrent(tok) {
		return nil
	}
	c.loading = false
	c.lastErr = err
	logger.Warn("Refresh failed", logger.F("error", err))
	return err
}

// mergeLocked overlays fetched items onto local state, preserving the
// optimistic status of any item still inside its suppression window. A
// refresh triggered by an unrelated item must not revert a shielded one.
// Caller holds c.mu.
func (c *Controller) mergeLocked(fetched []model.WorkItem) []model.WorkItem {
	if !c.tracker.anyLocal() {
		return fetched
	}

	local := make(map[string]model.WorkItem, len(c.items))
	for _, item := range c.items {
		local[item.ID] = item
	}
	for i, item := range fetched {
		if !c.tracker.isLocal(item.ID) {
			continue
		}
		if held, ok := local[item.ID]; ok {
			fetched[i].Status = held.Status
			fetched[i].CompletedAt = held.CompletedAt
		}
	}
	return fetched
}
