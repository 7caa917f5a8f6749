package model

import "time"

// RequestType classifies what kind of production work was requested
const (
	RequestFullVideo  = "full_video"
	RequestAddition   = "addition"
	RequestVariant    = "variant"
	RequestCorrection = "correction"
)

// Priority levels for work items
const (
	PriorityUrgent = 1 // Red - Urgent
	PriorityHigh   = 2 // Orange - High
	PriorityMedium = 3 // Yellow - Medium
	PriorityLow    = 4 // Blue - Low (default)
)

// Status values a work item can be in. Status is never stored on the
// item itself in the authoritative store; it is always derived from the
// latest StatusEvent for the item.
type Status string

const (
	StatusPending      Status = "pending"
	StatusInProduction Status = "in_production"
	StatusCorrection   Status = "correction"
	StatusReady        Status = "ready"
	StatusDelivered    Status = "delivered"
)

// ValidStatus reports whether s is one of the known status values.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProduction, StatusCorrection, StatusReady, StatusDelivered:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal status. Delivered items get a
// completion timestamp stamped on them; nothing else is blocked, any
// status may still transition to any other.
func (s Status) Terminal() bool {
	return s == StatusDelivered
}

// WorkItem represents a single production request
type WorkItem struct {
	ID          string     `json:"id"`
	Folio       string     `json:"folio,omitempty"` // server-assigned, empty until created
	Client      string     `json:"client"`
	Product     string     `json:"product"`
	RequestType string     `json:"request_type"`
	Priority    int        `json:"priority"`
	Status      Status     `json:"status"` // projection of the StatusEvent log
	AdvisorID   string     `json:"advisor_id"`
	VideoType   string     `json:"video_type,omitempty"`
	Board       string     `json:"board,omitempty"`
	LogoURLs    []string   `json:"logo_urls,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Deleted     bool       `json:"deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeletedBy   string     `json:"deleted_by,omitempty"`
}

// FolioLabel returns the human-readable folio, or the placeholder shown
// while the store has not assigned one yet.
func (w *WorkItem) FolioLabel() string {
	if w.Folio == "" {
		return "PENDIENTE"
	}
	return w.Folio
}
