package store

import (
	"context"
	"fmt"

	"github.com/hvila/tablero/internal/model"
)

// CreateWorkItemRequest carries the fields for a new work item. The
// server assigns the id and folio and pairs the insert with the initial
// Pending status event in one transaction.
type CreateWorkItemRequest struct {
	Client      string   `json:"client"`
	Product     string   `json:"product"`
	RequestType string   `json:"request_type"`
	Priority    int      `json:"priority"`
	AdvisorID   string   `json:"advisor_id"`
	VideoType   string   `json:"video_type,omitempty"`
	Board       string   `json:"board,omitempty"`
	LogoURLs    []string `json:"logo_urls,omitempty"`
}

// WorkItemPatch carries a partial update. Nil fields are left untouched.
type WorkItemPatch struct {
	Client      *string   `json:"client,omitempty"`
	Product     *string   `json:"product,omitempty"`
	RequestType *string   `json:"request_type,omitempty"`
	Priority    *int      `json:"priority,omitempty"`
	AdvisorID   *string   `json:"advisor_id,omitempty"`
	VideoType   *string   `json:"video_type,omitempty"`
	Board       *string   `json:"board,omitempty"`
	LogoURLs    *[]string `json:"logo_urls,omitempty"`
}

// CreateWorkItem inserts a new work item and returns it with the
// server-assigned id and folio.
func (c *Client) CreateWorkItem(ctx context.Context, req CreateWorkItemRequest) (model.WorkItem, error) {
	var item model.WorkItem
	if err := c.doJSON(ctx, "POST", "/api/v1/workitems", req, &item); err != nil {
		return model.WorkItem{}, fmt.Errorf("creating work item: %w", err)
	}
	return item, nil
}

// UpdateWorkItem applies a partial field update to a work item.
func (c *Client) UpdateWorkItem(ctx context.Context, id string, patch WorkItemPatch) error {
	if err := c.doJSON(ctx, "PATCH", "/api/v1/workitems/"+id, patch, nil); err != nil {
		return fmt.Errorf("updating work item %s: %w", id, err)
	}
	return nil
}

// AppendStatusEvent records a status transition for a work item. The
// server stamps the completion timestamp for delivered in the same
// transaction.
func (c *Client) AppendStatusEvent(ctx context.Context, itemID string, s model.Status, note string) error {
	body := map[string]string{
		"status": string(s),
		"note":   note,
	}
	if err := c.doJSON(ctx, "POST", "/api/v1/workitems/"+itemID+"/events", body, nil); err != nil {
		return fmt.Errorf("appending status event for %s: %w", itemID, err)
	}
	return nil
}

// SoftDelete flags a work item deleted. The row stays in the store and
// disappears from default queries.
func (c *Client) SoftDelete(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, "DELETE", "/api/v1/workitems/"+id, nil, nil); err != nil {
		return fmt.Errorf("deleting work item %s: %w", id, err)
	}
	return nil
}

// Restore clears a work item's deleted flag.
func (c *Client) Restore(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, "POST", "/api/v1/workitems/"+id+"/restore", nil, nil); err != nil {
		return fmt.Errorf("restoring work item %s: %w", id, err)
	}
	return nil
}

// EnqueueNotification inserts an inbox notification for a user.
func (c *Client) EnqueueNotification(ctx context.Context, userID, workItemID, message string) error {
	body := map[string]string{
		"user_id":      userID,
		"work_item_id": workItemID,
		"message":      message,
	}
	if err := c.doJSON(ctx, "POST", "/api/v1/notifications", body, nil); err != nil {
		return fmt.Errorf("enqueueing notification: %w", err)
	}
	return nil
}

// MarkNotificationRead flags an inbox notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, "POST", "/api/v1/notifications/"+id+"/read", nil, nil); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}
