package controller

import (
	"context"
	"time"

	"github.com/hvila/tablero/internal/logger"
	"github.com/hvila/tablero/internal/store"
)

// Start performs the initial refresh, opens the change feed and begins
// the poll loop. Poll and push are two producers feeding the same
// refresh consumer, with the suppression check applied uniformly to
// both. The poll is also the designed fallback: the feed may die
// silently, the ticker may not.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		// Initial refresh failure is not fatal: the error is held for
		// the caller to surface, and the poll loop retries.
		logger.Warn("Initial refresh failed", logger.F("error", err))
	}

	sub, err := c.store.Subscribe(ctx, c.onFeedEvent)
	if err != nil {
		logger.Warn("Change feed unavailable, relying on poll", logger.F("error", err))
	} else {
		c.sub = sub
	}

	c.wg.Add(1)
	go c.pollLoop(ctx)
	return nil
}

func (c *Controller) pollLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if c.tracker.anyLocal() {
				// Something is mid-flight locally: defer the whole tick
				// rather than attempt a partial merge.
				logger.Debug("Poll tick skipped, local mutations in flight")
				continue
			}
			_ = c.Refresh(ctx)
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// onFeedEvent handles one push event. The feed carries the affected work
// item id for both tables: a work_items row change carries its own id, a
// status_events insert carries the referenced work item's id.
func (c *Controller) onFeedEvent(table, id string) {
	if table != store.TableWorkItems && table != store.TableStatusEvents {
		return
	}
	select {
	case <-c.stopCh:
		return
	default:
	}
	if c.tracker.isLocal(id) {
		logger.Debug("Push event suppressed", logger.F("table", table), logger.F("id", id))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = c.Refresh(ctx)
}

// Close tears down the ticker, the feed subscription and the expiry
// timers. After Close returns no dangling trigger can refresh a
// torn-down session.
func (c *Controller) Close() error {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if c.sub != nil {
			_ = c.sub.Close()
		}
		c.wg.Wait()
		c.tracker.close()
	})
	return nil
}
