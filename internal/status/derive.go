// Package status derives the current status of work items from their
// append-only StatusEvent logs. The store never holds status on the item
// row itself; everything here is a pure projection over the full event
// set, recomputed on each refresh. No caching: collections are hundreds
// of rows, not millions.
package status

import (
	"github.com/hvila/tablero/internal/model"
)

// Latest returns the event that determines the current status of a work
// item: greatest CreatedAt, ties broken by greatest Seq. The Seq
// tie-break makes the projection deterministic regardless of the order
// the store returned the events in.
func Latest(events []model.StatusEvent) (model.StatusEvent, bool) {
	if len(events) == 0 {
		return model.StatusEvent{}, false
	}
	best := events[0]
	for _, ev := range events[1:] {
		if ev.CreatedAt.After(best.CreatedAt) {
			best = ev
			continue
		}
		if ev.CreatedAt.Equal(best.CreatedAt) && ev.Seq > best.Seq {
			best = ev
		}
	}
	return best, true
}

// ByItem groups events by their work item id.
func ByItem(events []model.StatusEvent) map[string][]model.StatusEvent {
	grouped := make(map[string][]model.StatusEvent, len(events))
	for _, ev := range events {
		grouped[ev.WorkItemID] = append(grouped[ev.WorkItemID], ev)
	}
	return grouped
}

// Project stamps each item's Status field from its event log. Items with
// no events default to Pending. The input slice is not modified; a new
// slice is returned.
func Project(items []model.WorkItem, events []model.StatusEvent) []model.WorkItem {
	grouped := ByItem(events)
	out := make([]model.WorkItem, len(items))
	for i, item := range items {
		item.Status = model.StatusPending
		if latest, ok := Latest(grouped[item.ID]); ok {
			item.Status = latest.Status
		}
		out[i] = item
	}
	return out
}
