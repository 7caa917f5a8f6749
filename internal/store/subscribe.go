package store

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hvila/tablero/internal/logger"
)

// Feed table names carried on change events
const (
	TableWorkItems    = "work_items"
	TableStatusEvents = "status_events"
)

// Subscription is an open change feed connection. Close tears it down;
// the event callback fires no more after Close returns.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Close terminates the subscription and waits for the reader to exit.
func (s *Subscription) Close() error {
	s.cancel()
	<-s.done
	return nil
}

// Subscribe opens the server-sent-events change feed. onEvent is invoked
// with the table name and changed row id for every event received.
// Delivery is best-effort: if the connection drops the subscription goes
// silent without reconnecting. The poll loop is the fallback that keeps
// eventual consistency alive when that happens.
func (c *Client) Subscribe(ctx context.Context, onEvent func(table, id string)) (io.Closer, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.session.ServerURL+"/api/v1/events", nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	// No timeout on the stream itself; the request context governs it.
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("opening change feed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("change feed error (%d): %s", resp.StatusCode, string(body))
	}

	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer func() {
			_ = resp.Body.Close()
		}()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			table, id, ok := parseEvent(strings.TrimPrefix(line, "data: "))
			if !ok {
				continue
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			onEvent(table, id)
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			logger.Warn("Change feed disconnected", logger.F("error", err))
		}
	}()

	return sub, nil
}

// parseEvent splits a "table:id" feed payload.
func parseEvent(data string) (table, id string, ok bool) {
	table, id, ok = strings.Cut(strings.TrimSpace(data), ":")
	if !ok || table == "" || id == "" {
		return "", "", false
	}
	return table, id, true
}
