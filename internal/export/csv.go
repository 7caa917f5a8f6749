// Package export flattens the status event log into the bitácora CSV.
// Column order is fixed: Fecha, Folio, Usuario, Estado, Acción. Fields
// go through encoding/csv, so embedded commas and quotes in free-text
// notes are escaped properly.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/hvila/tablero/internal/model"
)

var header = []string{"Fecha", "Folio", "Usuario", "Estado", "Acción"}

// statusLabels are the user-facing Spanish names written to the export.
var statusLabels = map[model.Status]string{
	model.StatusPending:      "Pendiente",
	model.StatusInProduction: "En Producción",
	model.StatusCorrection:   "Corrección",
	model.StatusReady:        "Listo",
	model.StatusDelivered:    "Entregado",
}

// StatusLabel returns the display name for a status.
func StatusLabel(s model.Status) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Bitacora writes the audit log as CSV. Events are written newest first;
// folios and user names are resolved from the given collections, falling
// back to raw ids for rows referencing data outside the current view.
func Bitacora(w io.Writer, events []model.StatusEvent, items []model.WorkItem, users []model.User) error {
	folios := make(map[string]string, len(items))
	for _, item := range items {
		folios[item.ID] = item.FolioLabel()
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	sorted := make([]model.StatusEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].Seq > sorted[j].Seq
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing bitácora header: %w", err)
	}

	for _, ev := range sorted {
		folio := folios[ev.WorkItemID]
		if folio == "" {
			folio = ev.WorkItemID
		}
		user := names[ev.ActorID]
		if user == "" {
			user = ev.ActorID
		}
		accion := ev.Note
		if accion == "" {
			accion = "Cambio de estado"
		}

		row := []string{
			ev.CreatedAt.Format("02/01/2006 15:04"),
			folio,
			user,
			StatusLabel(ev.Status),
			accion,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing bitácora row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
