// Package notify is the external side-channel: a webhook that reaches a
// party outside the system (the requester's email/messaging bridge).
// Strictly fire-and-forget; a dead webhook never blocks or rolls back
// the mutation that triggered it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hvila/tablero/internal/logger"
	"github.com/hvila/tablero/internal/model"
)

// TransitionMessage returns the notice text for a status transition, or
// false when the transition carries no notice. Only correction and
// delivered reach the advisor and the side-channel.
func TransitionMessage(s model.Status, folio string) (string, bool) {
	switch s {
	case model.StatusCorrection:
		return fmt.Sprintf("La solicitud %s necesita corrección", folio), true
	case model.StatusDelivered:
		return fmt.Sprintf("La solicitud %s fue entregada", folio), true
	}
	return "", false
}

// Webhook posts transition notices to a configured URL.
type Webhook struct {
	url        string
	httpClient *http.Client
}

// NewWebhook creates a webhook notifier. An empty URL yields a notifier
// that silently does nothing.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts the transition notice. Failure is logged only.
func (w *Webhook) Notify(ctx context.Context, itemID string, s model.Status, message string) {
	if w.url == "" {
		return
	}

	body, err := json.Marshal(map[string]string{
		"work_item_id": itemID,
		"status":       string(s),
		"message":      message,
	})
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		logger.Warn("Side-channel request build failed", logger.F("error", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		logger.Warn("Side-channel notify failed", logger.F("item", itemID), logger.F("error", err))
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		logger.Warn("Side-channel notify rejected",
			logger.F("item", itemID), logger.F("status", resp.StatusCode))
	}
}
