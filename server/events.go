package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hvila/tablero/internal/logger"
	"github.com/hvila/tablero/internal/model"
)

// handleListStatusEvents returns the complete status event log. Clients
// derive per-item current status from this set in one round trip instead
// of querying per item.
func (s *Server) handleListStatusEvents(c echo.Context) error {
	rows, err := s.db.Query(`
		SELECT id, seq, work_item_id, status, actor_id, note, created_at
		FROM status_events
		ORDER BY created_at DESC, seq DESC`)
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer rows.Close()

	events := []model.StatusEvent{}
	for rows.Next() {
		var ev model.StatusEvent
		if err := rows.Scan(&ev.ID, &ev.Seq, &ev.WorkItemID, &ev.Status,
			&ev.ActorID, &ev.Note, &ev.CreatedAt); err != nil {
			logger.Error("scan error", logger.F("error", err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		events = append(events, ev)
	}

	return c.JSON(http.StatusOK, events)
}

type appendEventRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// handleAppendStatusEvent records a status transition. Events are
// append-only: nothing here updates or deletes an existing event. A
// delivered transition also stamps the completion timestamp on the item
// in the same transaction.
func (s *Server) handleAppendStatusEvent(c echo.Context) error {
	itemID := c.Param("id")
	userID := c.Get("user_id").(string)

	var req appendEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	newStatus := model.Status(req.Status)
	if !model.ValidStatus(newStatus) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown status"})
	}

	tx, err := s.db.Begin()
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM work_items WHERE id = $1)`, itemID).Scan(&exists); err != nil || !exists {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "work item not found"})
	}

	if _, err := tx.Exec(`
		INSERT INTO status_events (work_item_id, status, actor_id, note)
		VALUES ($1, $2, $3, $4)`,
		itemID, newStatus, userID, req.Note,
	); err != nil {
		logger.Error("insert event error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	if newStatus == model.StatusDelivered {
		if _, err := tx.Exec(`
			UPDATE work_items SET completed_at = NOW() WHERE id = $1`,
			itemID,
		); err != nil {
			logger.Error("completion stamp error", logger.F("error", err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Error("commit error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	// The feed carries the affected work item id for both tables;
	// subscribers never need to resolve an event row back to its item.
	s.feed.publish(feedTableStatusEvents, itemID)
	if newStatus == model.StatusDelivered {
		s.feed.publish(feedTableWorkItems, itemID)
	}

	logger.Info("Status event appended",
		logger.F("item", itemID), logger.F("status", newStatus), logger.F("actor", userID))
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
