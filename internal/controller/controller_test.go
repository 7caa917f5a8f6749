package controller_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hvila/tablero/internal/controller"
	"github.com/hvila/tablero/internal/model"
	"github.com/hvila/tablero/internal/store"
)

// fakeStore is an in-process stand-in for the remote boundary. Snapshots
// of items/events are returned as-is; hooks let tests block or fail
// individual calls to reproduce the interleavings the controller exists
// to survive.
type fakeStore struct {
	mu sync.Mutex

	items  []model.WorkItem
	events []model.StatusEvent

	fetchCalls  int
	onWorkItems func(call int) error

	appendCalls int
	appendErr   map[string]error // per item id
	appended    []model.StatusEvent

	notified []model.Notification

	feedEvent func(table, id string)
}

func newFakeStore(items []model.WorkItem, events []model.StatusEvent) *fakeStore {
	return &fakeStore{items: items, events: events, appendErr: map[string]error{}}
}

func (f *fakeStore) setRemote(items []model.WorkItem, events []model.StatusEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = items
	f.events = events
}

func (f *fakeStore) WorkItems(ctx context.Context, _ store.Filter) ([]model.WorkItem, error) {
	f.mu.Lock()
	f.fetchCalls++
	call := f.fetchCalls
	hook := f.onWorkItems
	f.mu.Unlock()

	if hook != nil {
		if err := hook(call); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.WorkItem, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeStore) StatusEvents(ctx context.Context) ([]model.StatusEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.StatusEvent, len(f.events))
	copy(out, f.events)
	return out, nil
}

func (f *fakeStore) AppendStatusEvent(ctx context.Context, itemID string, s model.Status, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendCalls++
	if err := f.appendErr[itemID]; err != nil {
		return err
	}
	f.appended = append(f.appended, model.StatusEvent{
		WorkItemID: itemID,
		Status:     s,
		Note:       note,
		CreatedAt:  time.Now(),
	})
	return nil
}

func (f *fakeStore) EnqueueNotification(ctx context.Context, userID, workItemID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, model.Notification{
		UserID:     userID,
		WorkItemID: workItemID,
		Message:    message,
	})
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func (f *fakeStore) Subscribe(ctx context.Context, onEvent func(table, id string)) (io.Closer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedEvent = onEvent
	return nopCloser{}, nil
}

// push simulates one change feed event.
func (f *fakeStore) push(table, id string) {
	f.mu.Lock()
	cb := f.feedEvent
	f.mu.Unlock()
	if cb != nil {
		cb(table, id)
	}
}

func (f *fakeStore) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

func (f *fakeStore) appendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appendCalls
}

func (f *fakeStore) notifications() []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Notification, len(f.notified))
	copy(out, f.notified)
	return out
}

func item(id string, advisor string) model.WorkItem {
	return model.WorkItem{
		ID:        id,
		Folio:     "VID-" + id,
		Client:    "Acme",
		Product:   "Intro video",
		AdvisorID: advisor,
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func pendingEvent(id string, seq int64) model.StatusEvent {
	return model.StatusEvent{
		Seq:        seq,
		WorkItemID: id,
		Status:     model.StatusPending,
		CreatedAt:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func newController(t *testing.T, f *fakeStore, tweak func(*controller.Options)) *controller.Controller {
	t.Helper()
	opts := controller.Options{
		// Long enough that ticks never fire inside a test unless the
		// test configures otherwise.
		PollInterval:  time.Hour,
		GraceWindow:   2 * time.Hour,
		NotifyAdvisor: true,
	}
	if tweak != nil {
		tweak(&opts)
	}
	c := controller.New(f, nil, opts)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLastIssuedRefreshWins(t *testing.T) {
	f := newFakeStore(
		[]model.WorkItem{item("x", "u1")},
		[]model.StatusEvent{pendingEvent("x", 1)},
	)

	started := make(chan struct{})
	release := make(chan struct{})
	f.onWorkItems = func(call int) error {
		if call == 1 {
			close(started)
			<-release
		}
		return nil
	}

	c := newController(t, f, nil)

	// Refresh A: issued first, stalls mid-flight.
	doneA := make(chan error, 1)
	go func() { doneA <- c.Refresh(context.Background()) }()
	<-started

	// Remote state advances; refresh B is issued later but completes
	// first.
	f.setRemote(
		[]model.WorkItem{item("x", "u1")},
		[]model.StatusEvent{
			pendingEvent("x", 1),
			{Seq: 2, WorkItemID: "x", Status: model.StatusInProduction,
				CreatedAt: time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)},
		},
	)
	require.NoError(t, c.Refresh(context.Background()))

	got, ok := c.Item("x")
	require.True(t, ok)
	require.Equal(t, model.StatusInProduction, got.Status)

	// Roll the remote snapshot back so A fetches data that visibly
	// contradicts B's commit, then let A finish. Its late arrival is
	// discarded silently: no error, no overwrite.
	f.setRemote(
		[]model.WorkItem{item("x", "u1")},
		[]model.StatusEvent{pendingEvent("x", 1)},
	)
	close(release)
	require.NoError(t, <-doneA)

	got, _ = c.Item("x")
	require.Equal(t, model.StatusInProduction, got.Status)
	require.NoError(t, c.Err())
}

func TestStaleFailedRefreshLeavesNewerLoadingState(t *testing.T) {
	f := newFakeStore([]model.WorkItem{item("x", "u1")}, nil)

	started := make(chan struct{})
	failA := make(chan struct{})
	blockB := make(chan struct{})
	f.onWorkItems = func(call int) error {
		switch call {
		case 1:
			close(started)
			<-failA
			return errors.New("socket closed")
		case 2:
			<-blockB
		}
		return nil
	}

	c := newController(t, f, nil)

	doneA := make(chan error, 1)
	go func() { doneA <- c.Refresh(context.Background()) }()
	<-started

	// B is issued while A is stuck; B stays in flight.
	doneB := make(chan error, 1)
	go func() { doneB <- c.Refresh(context.Background()) }()
	require.Eventually(t, func() bool { return f.fetchCount() == 2 },
		time.Second, time.Millisecond)

	// A aborts. Being stale, it must neither record an error nor clear
	// the loading flag that now belongs to B.
	close(failA)
	require.NoError(t, <-doneA)
	require.NoError(t, c.Err())
	require.True(t, c.Loading())

	close(blockB)
	require.NoError(t, <-doneB)
	require.False(t, c.Loading())
}

func TestConcurrentRefreshesSettleLoadingFlag(t *testing.T) {
	f := newFakeStore(
		[]model.WorkItem{item("x", "u1")},
		[]model.StatusEvent{pendingEvent("x", 1)},
	)
	c := newController(t, f, nil)

	// Many interleaved refreshes: whatever order their goroutines are
	// scheduled in, only the last-issued one owns the loading flag, and
	// it clears it on completion. A stale refresh stamping loading after
	// a newer one already finished would leave the flag stuck true.
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Refresh(context.Background())
		}()
	}
	wg.Wait()

	require.False(t, c.Loading())
	require.NoError(t, c.Err())
	require.Len(t, c.Items(), 1)
}

func TestFailedRefreshKeepsLastKnownGood(t *testing.T) {
	f := newFakeStore(
		[]model.WorkItem{item("x", "u1")},
		[]model.StatusEvent{pendingEvent("x", 1)},
	)
	c := newController(t, f, nil)
	require.NoError(t, c.Refresh(context.Background()))

	f.onWorkItems = func(call int) error { return errors.New("store down") }
	require.Error(t, c.Refresh(context.Background()))

	// Collection not blanked, error surfaced for a retry affordance.
	require.Len(t, c.Items(), 1)
	require.Error(t, c.Err())

	// A later successful refresh clears the error.
	f.onWorkItems = nil
	require.NoError(t, c.Refresh(context.Background()))
	require.NoError(t, c.Err())
}

func TestOptimisticApplyIsSynchronousAndRollsBack(t *testing.T) {
	f := newFakeStore(
		[]model.WorkItem{item("x", "u1")},
		[]model.StatusEvent{pendingEvent("x", 1)},
	)
	c := newController(t, f, nil)
	require.NoError(t, c.Refresh(context.Background()))

	f.mu.Lock()
	f.appendErr["x"] = errors.New("constraint violation")
	f.mu.Unlock()

	err := c.Transition(context.Background(), "x", model.StatusDelivered, "")
	require.Error(t, err)

	// After the operation settles the item is back where it started,
	// completion stamp included.
	got, ok := c.Item("x")
	require.True(t, ok)
	require.Equal(t, model.StatusPending, got.Status)
	require.Nil(t, got.CompletedAt)
}

func TestTransitionNoOpOnSameStatus(t *testing.T) {
	f := newFakeStore(
		[]model.WorkItem{item("x", "u1")},
		[]model.StatusEvent{pendingEvent("x", 1)},
	)
	c := newController(t, f, nil)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.Start(ctx))

	before := f.fetchCount()
	require.NoError(t, c.Transition(ctx, "x", model.StatusPending, ""))
	require.Zero(t, f.appendCount())

	// The item was not marked local: a push event for it is not
	// suppressed and triggers a refresh.
	f.push(store.TableWorkItems, "x")
	require.Greater(t, f.fetchCount(), before)
}

func TestTransitionUnknownItemIsNoOp(t *testing.T) {
	f := newFakeStore([]model.WorkItem{item("x", "u1")}, nil)
	c := newController(t, f, nil)
	require.NoError(t, c.Refresh(context.Background()))

	require.NoError(t, c.Transition(context.Background(), "ghost", model.StatusReady, ""))
	require.Zero(t, f.appendCount())
}

func TestSuppressionWindowShieldsThenReleases(t *testing.T) {
	f := newFakeStore(
		[]model.WorkItem{item("y", "u1")},
		[]model.StatusEvent{pendingEvent("y", 1)},
	)
	c := newController(t, f, func(o *controller.Options) {
		o.PollInterval = 100 * time.Millisecond
		o.GraceWindow = 250 * time.Millisecond
	})
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	require.NoError(t, c.Transition(ctx, "y", model.StatusReady, ""))

	// The remote still contradicts the optimistic value (the fake never
	// applied the append to its snapshots). Inside the window neither a
	// push for y nor the poll may revert it.
	f.push(store.TableStatusEvents, "y")
	time.Sleep(120 * time.Millisecond) // at least one poll tick elapses
	got, _ := c.Item("y")
	require.Equal(t, model.StatusReady, got.Status)

	// After the window expires the same event is allowed through and the
	// remote value wins again.
	time.Sleep(250 * time.Millisecond)
	f.push(store.TableStatusEvents, "y")
	require.Eventually(t, func() bool {
		got, _ := c.Item("y")
		return got.Status == model.StatusPending
	}, time.Second, 10*time.Millisecond)
}

func TestRefreshForUnrelatedItemPreservesShieldedOne(t *testing.T) {
	f := newFakeStore(
		[]model.WorkItem{item("y", "u1"), item("z", "u2")},
		[]model.StatusEvent{pendingEvent("y", 1), pendingEvent("z", 2)},
	)
	c := newController(t, f, nil)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.Start(ctx))

	require.NoError(t, c.Transition(ctx, "y", model.StatusInProduction, ""))

	// A push for z is not suppressed and refreshes the whole collection.
	// y is still inside its window; the stale remote projection must not
	// leak through the full-collection overwrite.
	before := f.fetchCount()
	f.push(store.TableWorkItems, "z")
	require.Eventually(t, func() bool { return f.fetchCount() > before }, time.Second, 5*time.Millisecond)

	got, _ := c.Item("y")
	require.Equal(t, model.StatusInProduction, got.Status)
}

func TestConcurrentTransitionsAreIndependent(t *testing.T) {
	f := newFakeStore(
		[]model.WorkItem{item("a", "u1"), item("b", "u2")},
		[]model.StatusEvent{pendingEvent("a", 1), pendingEvent("b", 2)},
	)
	c := newController(t, f, nil)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))

	f.mu.Lock()
	f.appendErr["a"] = errors.New("remote rejected")
	f.mu.Unlock()

	require.NoError(t, c.Transition(ctx, "b", model.StatusReady, ""))
	require.Error(t, c.Transition(ctx, "a", model.StatusInProduction, ""))

	// a rolled back, b untouched by a's rollback.
	gotA, _ := c.Item("a")
	gotB, _ := c.Item("b")
	require.Equal(t, model.StatusPending, gotA.Status)
	require.Equal(t, model.StatusReady, gotB.Status)
}

func TestDeliveredStampsCompletionAndNotifiesAdvisor(t *testing.T) {
	f := newFakeStore(
		[]model.WorkItem{item("x", "adv-1")},
		[]model.StatusEvent{pendingEvent("x", 1)},
	)
	c := newController(t, f, nil)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))

	require.NoError(t, c.Transition(ctx, "x", model.StatusDelivered, "listo"))

	got, _ := c.Item("x")
	require.Equal(t, model.StatusDelivered, got.Status)
	require.NotNil(t, got.CompletedAt)

	notes := f.notifications()
	require.Len(t, notes, 1)
	require.Equal(t, "adv-1", notes[0].UserID)
	require.Equal(t, "x", notes[0].WorkItemID)
}

func TestNotificationSettingDisabled(t *testing.T) {
	f := newFakeStore(
		[]model.WorkItem{item("x", "adv-1")},
		[]model.StatusEvent{pendingEvent("x", 1)},
	)
	c := newController(t, f, func(o *controller.Options) { o.NotifyAdvisor = false })
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))

	require.NoError(t, c.Transition(ctx, "x", model.StatusDelivered, ""))
	require.Empty(t, f.notifications())
}

func TestIntermediateStatusDoesNotNotify(t *testing.T) {
	f := newFakeStore(
		[]model.WorkItem{item("x", "adv-1")},
		[]model.StatusEvent{pendingEvent("x", 1)},
	)
	c := newController(t, f, nil)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))

	require.NoError(t, c.Transition(ctx, "x", model.StatusInProduction, ""))
	require.Empty(t, f.notifications())

	got, _ := c.Item("x")
	require.Nil(t, got.CompletedAt)
}

func TestPollTickSkippedWhileAnyMarkActive(t *testing.T) {
	f := newFakeStore(
		[]model.WorkItem{item("a", "u1"), item("b", "u2")},
		[]model.StatusEvent{pendingEvent("a", 1), pendingEvent("b", 2)},
	)
	c := newController(t, f, func(o *controller.Options) {
		o.PollInterval = 50 * time.Millisecond
		o.GraceWindow = 400 * time.Millisecond
	})
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	require.NoError(t, c.Transition(ctx, "a", model.StatusReady, ""))

	// Several ticks pass while a is marked; none of them refresh, even
	// though b has no mark. Backpressure is collection-wide.
	before := f.fetchCount()
	time.Sleep(200 * time.Millisecond)
	require.Equal(t, before, f.fetchCount())

	// Once the mark expires the poll resumes.
	require.Eventually(t, func() bool { return f.fetchCount() > before }, 2*time.Second, 20*time.Millisecond)
}

func TestCloseStopsTriggers(t *testing.T) {
	f := newFakeStore([]model.WorkItem{item("x", "u1")}, nil)
	c := newController(t, f, func(o *controller.Options) {
		o.PollInterval = 30 * time.Millisecond
	})
	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Close())

	after := f.fetchCount()
	f.push(store.TableWorkItems, "x")
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, after, f.fetchCount())
}

func TestCommitCallbackSeesCommittedCollectionOnly(t *testing.T) {
	f := newFakeStore(
		[]model.WorkItem{item("x", "u1")},
		[]model.StatusEvent{pendingEvent("x", 1)},
	)

	var mu sync.Mutex
	commits := 0
	c := newController(t, f, func(o *controller.Options) {
		o.OnCommit = func(items []model.WorkItem) {
			mu.Lock()
			commits++
			mu.Unlock()
		}
	})
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))

	f.onWorkItems = func(call int) error { return errors.New("down") }
	_ = c.Refresh(ctx)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, commits)
}
