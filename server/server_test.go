package server_test

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hvila/tablero/internal/model"
	"github.com/hvila/tablero/internal/status"
	"github.com/hvila/tablero/internal/store"
	"github.com/hvila/tablero/server"
)

// newTestClient boots the server against the database named by
// TABLERO_TEST_DATABASE_URL and returns a logged-in store client talking
// to it over HTTP. Skipped when no test database is configured.
func newTestClient(t *testing.T) *store.Client {
	t.Helper()

	dbURL := os.Getenv("TABLERO_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TABLERO_TEST_DATABASE_URL not set")
	}

	srv, err := server.New(server.Options{
		DatabaseURL: dbURL,
		StorageDir:  t.TempDir(),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})

	t.Setenv("HOME", t.TempDir())
	client, err := store.NewClient(ts.URL)
	require.NoError(t, err)

	email := uuid.NewString() + "@example.com"
	require.NoError(t, client.Register("Prueba Productor", email, "contraseña-larga"))
	return client
}

func createItem(t *testing.T, client *store.Client) model.WorkItem {
	t.Helper()
	item, err := client.CreateWorkItem(context.Background(), store.CreateWorkItemRequest{
		Client:    "Acme " + uuid.NewString()[:8],
		Product:   "Intro video",
		AdvisorID: client.UserID(),
	})
	require.NoError(t, err)
	return item
}

func eventsFor(events []model.StatusEvent, itemID string) []model.StatusEvent {
	var out []model.StatusEvent
	for _, ev := range events {
		if ev.WorkItemID == itemID {
			out = append(out, ev)
		}
	}
	return out
}

func findItem(items []model.WorkItem, id string) (model.WorkItem, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return model.WorkItem{}, false
}

func TestCreateSeedsExactlyOnePendingEvent(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	item := createItem(t, client)
	require.NotEmpty(t, item.ID)
	require.Regexp(t, `^VID-\d{4,}$`, item.Folio)
	require.Equal(t, model.StatusPending, item.Status)

	// The insert and its initial event are one transaction: exactly one
	// event exists, and it is Pending.
	events, err := client.StatusEvents(ctx)
	require.NoError(t, err)
	mine := eventsFor(events, item.ID)
	require.Len(t, mine, 1)
	require.Equal(t, model.StatusPending, mine[0].Status)
	require.Equal(t, client.UserID(), mine[0].ActorID)

	// The projection over the full log agrees.
	items, err := client.WorkItems(ctx, store.Filter{})
	require.NoError(t, err)
	projected := status.Project(items, events)
	got, ok := findItem(projected, item.ID)
	require.True(t, ok)
	require.Equal(t, model.StatusPending, got.Status)
}

func TestSoftDeleteRestoreRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	item := createItem(t, client)

	require.NoError(t, client.SoftDelete(ctx, item.ID))

	// Gone from the default view, present in the trash with the deletion
	// metadata stamped.
	items, err := client.WorkItems(ctx, store.Filter{})
	require.NoError(t, err)
	_, ok := findItem(items, item.ID)
	require.False(t, ok)

	trash, err := client.WorkItems(ctx, store.Filter{Deleted: true})
	require.NoError(t, err)
	got, ok := findItem(trash, item.ID)
	require.True(t, ok)
	require.True(t, got.Deleted)
	require.NotNil(t, got.DeletedAt)
	require.Equal(t, client.UserID(), got.DeletedBy)

	// Deleting an already-deleted item is a 404, not a double delete.
	require.ErrorIs(t, client.SoftDelete(ctx, item.ID), store.ErrNotFound)

	require.NoError(t, client.Restore(ctx, item.ID))

	// Back in the default view, gone from the trash, metadata cleared.
	items, err = client.WorkItems(ctx, store.Filter{})
	require.NoError(t, err)
	got, ok = findItem(items, item.ID)
	require.True(t, ok)
	require.False(t, got.Deleted)
	require.Nil(t, got.DeletedAt)
	require.Empty(t, got.DeletedBy)

	trash, err = client.WorkItems(ctx, store.Filter{Deleted: true})
	require.NoError(t, err)
	_, ok = findItem(trash, item.ID)
	require.False(t, ok)
}

func TestDeliveredEventStampsCompletion(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	item := createItem(t, client)
	require.Nil(t, item.CompletedAt)

	require.NoError(t, client.AppendStatusEvent(ctx, item.ID, model.StatusDelivered, "listo"))

	items, err := client.WorkItems(ctx, store.Filter{})
	require.NoError(t, err)
	got, ok := findItem(items, item.ID)
	require.True(t, ok)
	require.NotNil(t, got.CompletedAt)

	events, err := client.StatusEvents(ctx)
	require.NoError(t, err)
	mine := eventsFor(events, item.ID)
	require.Len(t, mine, 2)

	projected := status.Project(items, events)
	got, _ = findItem(projected, item.ID)
	require.Equal(t, model.StatusDelivered, got.Status)
}

func TestAppendEventUnknownItem(t *testing.T) {
	client := newTestClient(t)

	err := client.AppendStatusEvent(context.Background(), uuid.NewString(), model.StatusReady, "")
	require.ErrorIs(t, err, store.ErrNotFound)
}
