package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hvila/tablero/internal/logger"
	"github.com/hvila/tablero/internal/model"
)

// handleListNotifications returns the logged-in user's inbox, newest
// first.
func (s *Server) handleListNotifications(c echo.Context) error {
	userID := c.Get("user_id").(string)

	rows, err := s.db.Query(`
		SELECT id, user_id, COALESCE(work_item_id::text, ''), message, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID)
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer rows.Close()

	notes := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.WorkItemID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			logger.Error("scan error", logger.F("error", err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		notes = append(notes, n)
	}

	return c.JSON(http.StatusOK, notes)
}

type enqueueNotificationRequest struct {
	UserID     string `json:"user_id"`
	WorkItemID string `json:"work_item_id"`
	Message    string `json:"message"`
}

// handleEnqueueNotification inserts an inbox entry for a user
func (s *Server) handleEnqueueNotification(c echo.Context) error {
	var req enqueueNotificationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.UserID == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_id and message required"})
	}

	var workItemID interface{}
	if req.WorkItemID != "" {
		workItemID = req.WorkItemID
	}

	if _, err := s.db.Exec(`
		INSERT INTO notifications (user_id, work_item_id, message)
		VALUES ($1, $2, $3)`,
		req.UserID, workItemID, req.Message,
	); err != nil {
		logger.Error("insert notification error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleMarkNotificationRead flags one of the user's notifications read
func (s *Server) handleMarkNotificationRead(c echo.Context) error {
	id := c.Param("id")
	userID := c.Get("user_id").(string)

	result, err := s.db.Exec(`
		UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		logger.Error("update notification error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "notification not found"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
