package model

import "time"

// Notification is an inbox entry surfaced to a user about activity on a
// work item. Purely informational; never authoritative state.
type Notification struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	WorkItemID string    `json:"work_item_id,omitempty"`
	Message    string    `json:"message"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}
