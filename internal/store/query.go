package store

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hvila/tablero/internal/model"
)

// Filter narrows the work item collection query. Zero month/year means
// no date filter. Deleted selects the trash view instead of the default
// (non-deleted) collection.
type Filter struct {
	Month   int
	Year    int
	Deleted bool
}

func (f Filter) query() string {
	q := url.Values{}
	if f.Month != 0 {
		q.Set("month", fmt.Sprintf("%d", f.Month))
	}
	if f.Year != 0 {
		q.Set("year", fmt.Sprintf("%d", f.Year))
	}
	if f.Deleted {
		q.Set("deleted", "true")
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// WorkItems fetches the work item collection matching the filter. Status
// on the returned items is not authoritative; callers derive it from the
// full StatusEvent set.
func (c *Client) WorkItems(ctx context.Context, f Filter) ([]model.WorkItem, error) {
	var items []model.WorkItem
	if err := c.doJSON(ctx, "GET", "/api/v1/workitems"+f.query(), nil, &items); err != nil {
		return nil, fmt.Errorf("fetching work items: %w", err)
	}
	return items, nil
}

// StatusEvents fetches the complete status event log in one round trip.
func (c *Client) StatusEvents(ctx context.Context) ([]model.StatusEvent, error) {
	var events []model.StatusEvent
	if err := c.doJSON(ctx, "GET", "/api/v1/status-events", nil, &events); err != nil {
		return nil, fmt.Errorf("fetching status events: %w", err)
	}
	return events, nil
}

// Users fetches all user accounts.
func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.doJSON(ctx, "GET", "/api/v1/users", nil, &users); err != nil {
		return nil, fmt.Errorf("fetching users: %w", err)
	}
	return users, nil
}

// Notifications fetches the logged-in user's inbox, newest first.
func (c *Client) Notifications(ctx context.Context) ([]model.Notification, error) {
	var notes []model.Notification
	if err := c.doJSON(ctx, "GET", "/api/v1/notifications", nil, &notes); err != nil {
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}
	return notes, nil
}
