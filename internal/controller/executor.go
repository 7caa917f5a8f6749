package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/hvila/tablero/internal/logger"
	"github.com/hvila/tablero/internal/model"
	"github.com/hvila/tablero/internal/notify"
)

// Transition applies a status change optimistically: the in-memory item
// reflects newStatus before any network round trip, and is restored to
// its previous state if the remote append fails.
//
// The suppression mark set here is cleared only by the grace timer, not
// on completion: a poll or push event caused by the now-durable (or
// now-rolled-back) remote write can still arrive late.
func (c *Controller) Transition(ctx context.Context, itemID string, newStatus model.Status, note string) error {
	if !model.ValidStatus(newStatus) {
		return fmt.Errorf("unknown status %q", newStatus)
	}

	c.mu.Lock()
	idx := -1
	for i, item := range c.items {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx == -1 || c.items[idx].Status == newStatus {
		// Unknown item or already there: no mutation, no mark.
		c.mu.Unlock()
		return nil
	}

	c.tracker.markLocal(itemID)

	// Per-item snapshot. Transitions on different items are independent;
	// rolling this one back must not disturb another item's optimistic
	// patch.
	prev := c.items[idx]

	c.items[idx].Status = newStatus
	if newStatus == model.StatusDelivered {
		now := time.Now()
		c.items[idx].CompletedAt = &now
	}
	advisorID := c.items[idx].AdvisorID
	folio := c.items[idx].FolioLabel()
	c.mu.Unlock()

	if err := c.store.AppendStatusEvent(ctx, itemID, newStatus, note); err != nil {
		c.rollback(itemID, prev)
		return fmt.Errorf("status transition for %s: %w", itemID, err)
	}

	c.afterTransition(ctx, itemID, newStatus, advisorID, folio)

	// No refetch on success: the optimistic value stands until poll or
	// push reconciles it.
	return nil
}

// rollback restores a single item to its pre-mutation snapshot.
func (c *Controller) rollback(itemID string, prev model.WorkItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.items {
		if item.ID == itemID {
			c.items[i] = prev
			return
		}
	}
}

// afterTransition handles the secondary effects of select transitions:
// the advisor's inbox notification and the external side-channel. Both
// are subordinate to the already-durable status event; their failures
// are logged and never propagate.
func (c *Controller) afterTransition(ctx context.Context, itemID string, s model.Status, advisorID, folio string) {
	message, ok := notify.TransitionMessage(s, folio)
	if !ok {
		return
	}

	if c.opts.NotifyAdvisor && advisorID != "" {
		if err := c.store.EnqueueNotification(ctx, advisorID, itemID, message); err != nil {
			logger.Warn("Failed to enqueue advisor notification",
				logger.F("item", itemID), logger.F("error", err))
		}
	}

	if c.notifier != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			c.notifier.Notify(ctx, itemID, s, message)
		}()
	}
}
