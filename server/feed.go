package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/hvila/tablero/internal/logger"
)

// Feed table names. For status_events rows the published id is the
// referenced work item's id, not the event row's.
const (
	feedTableWorkItems    = "work_items"
	feedTableStatusEvents = "status_events"
)

type feedEvent struct {
	table string
	id    string
}

// feedHub fans mutation events out to connected SSE subscribers.
// Delivery is at-most-once: a subscriber whose buffer is full simply
// misses the event. The client's poll loop covers the gap.
type feedHub struct {
	mu     sync.Mutex
	subs   map[chan feedEvent]struct{}
	closed bool
}

func newFeedHub() *feedHub {
	return &feedHub{subs: make(map[chan feedEvent]struct{})}
}

func (h *feedHub) subscribe() chan feedEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan feedEvent, 16)
	if !h.closed {
		h.subs[ch] = struct{}{}
	}
	return ch
}

func (h *feedHub) unsubscribe(ch chan feedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, ch)
}

// publish sends the event to every subscriber without blocking.
func (h *feedHub) publish(table, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- feedEvent{table: table, id: id}:
		default:
			// Slow subscriber, drop. At-most-once per change.
		}
	}
}

func (h *feedHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
	}
}

// handleChangeFeed streams change events as server-sent events until the
// client disconnects.
func (s *Server) handleChangeFeed(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ch := s.feed.subscribe()
	defer s.feed.unsubscribe(ch)

	logger.Debug("Change feed subscriber connected")

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Change feed subscriber disconnected")
			return nil
		case ev := <-ch:
			if _, err := fmt.Fprintf(w, "data: %s:%s\n\n", ev.table, ev.id); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
