package export_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hvila/tablero/internal/export"
	"github.com/hvila/tablero/internal/model"
)

func TestBitacoraColumnsAndOrder(t *testing.T) {
	items := []model.WorkItem{
		{ID: "w1", Folio: "VID-0001"},
		{ID: "w2"}, // folio not yet assigned
	}
	users := []model.User{
		{ID: "u1", Name: "Laura"},
	}
	events := []model.StatusEvent{
		{Seq: 1, WorkItemID: "w1", ActorID: "u1", Status: model.StatusPending,
			CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		{Seq: 2, WorkItemID: "w2", ActorID: "u1", Status: model.StatusDelivered,
			Note:      "Entrega final",
			CreatedAt: time.Date(2025, 3, 2, 14, 30, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, export.Bitacora(&buf, events, items, users))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.Equal(t, []string{"Fecha", "Folio", "Usuario", "Estado", "Acción"}, records[0])

	// Newest first.
	require.Equal(t, "02/03/2025 14:30", records[1][0])
	require.Equal(t, "PENDIENTE", records[1][1])
	require.Equal(t, "Laura", records[1][2])
	require.Equal(t, "Entregado", records[1][3])
	require.Equal(t, "Entrega final", records[1][4])

	require.Equal(t, "VID-0001", records[2][1])
	require.Equal(t, "Pendiente", records[2][3])
	require.Equal(t, "Cambio de estado", records[2][4])
}

func TestBitacoraEscapesFreeText(t *testing.T) {
	events := []model.StatusEvent{
		{Seq: 1, WorkItemID: "w1", ActorID: "u1", Status: model.StatusCorrection,
			Note:      `Cliente pidió "otro corte", más corto`,
			CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, export.Bitacora(&buf, events, nil, nil))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, `Cliente pidió "otro corte", más corto`, records[1][4])
}

func TestBitacoraUnknownReferencesFallBackToIDs(t *testing.T) {
	events := []model.StatusEvent{
		{Seq: 1, WorkItemID: "w-gone", ActorID: "u-gone", Status: model.StatusReady,
			CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, export.Bitacora(&buf, events, nil, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, "w-gone", records[1][1])
	require.Equal(t, "u-gone", records[1][2])
}
