package model

import "time"

// StatusEvent is an immutable append-only record of a status change.
// The current status of a work item is the status of its event with the
// greatest CreatedAt; identical timestamps are broken by the greater Seq,
// which the store assigns from an insertion sequence.
type StatusEvent struct {
	ID         string    `json:"id"`
	Seq        int64     `json:"seq"`
	WorkItemID string    `json:"work_item_id"`
	Status     Status    `json:"status"`
	ActorID    string    `json:"actor_id"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
