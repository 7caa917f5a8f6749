package status_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hvila/tablero/internal/model"
	"github.com/hvila/tablero/internal/status"
)

func ev(item string, s model.Status, seq int64, at time.Time) model.StatusEvent {
	return model.StatusEvent{
		ID:         item + "-" + string(s),
		Seq:        seq,
		WorkItemID: item,
		Status:     s,
		CreatedAt:  at,
	}
}

func TestLatestPicksMaxTimestamp(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// Deliberately out of fetch order: the projection must not depend on
	// how the store happened to return the rows.
	events := []model.StatusEvent{
		ev("z", model.StatusInProduction, 2, base.Add(1*time.Hour)),
		ev("z", model.StatusCorrection, 3, base.Add(2*time.Hour)),
		ev("z", model.StatusPending, 1, base),
	}

	latest, ok := status.Latest(events)
	require.True(t, ok)
	require.Equal(t, model.StatusCorrection, latest.Status)
}

func TestLatestTieBrokenBySeq(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	events := []model.StatusEvent{
		ev("z", model.StatusReady, 7, at),
		ev("z", model.StatusInProduction, 4, at),
	}

	latest, ok := status.Latest(events)
	require.True(t, ok)
	require.Equal(t, model.StatusReady, latest.Status)

	// Same result with the slice reversed.
	events[0], events[1] = events[1], events[0]
	latest, ok = status.Latest(events)
	require.True(t, ok)
	require.Equal(t, model.StatusReady, latest.Status)
}

func TestLatestEmpty(t *testing.T) {
	_, ok := status.Latest(nil)
	require.False(t, ok)
}

func TestProjectDefaultsToPending(t *testing.T) {
	items := []model.WorkItem{{ID: "a"}, {ID: "b"}}
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []model.StatusEvent{
		ev("b", model.StatusDelivered, 1, at),
	}

	projected := status.Project(items, events)
	require.Equal(t, model.StatusPending, projected[0].Status)
	require.Equal(t, model.StatusDelivered, projected[1].Status)

	// Input slice untouched.
	require.Equal(t, model.Status(""), items[0].Status)
}

func TestProjectIgnoresForeignEvents(t *testing.T) {
	items := []model.WorkItem{{ID: "a"}}
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []model.StatusEvent{
		ev("other", model.StatusDelivered, 1, at),
	}

	projected := status.Project(items, events)
	require.Equal(t, model.StatusPending, projected[0].Status)
}
