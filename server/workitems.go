package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hvila/tablero/internal/logger"
	"github.com/hvila/tablero/internal/model"
	"github.com/hvila/tablero/internal/store"
)

// scanWorkItem reads one work_items row
func scanWorkItem(rows interface {
	Scan(dest ...interface{}) error
}) (model.WorkItem, error) {
	var item model.WorkItem
	var advisorID, createdBy, deletedBy sql.NullString
	var completedAt, deletedAt sql.NullTime
	var logos []byte

	err := rows.Scan(&item.ID, &item.Folio, &item.Client, &item.Product,
		&item.RequestType, &item.Priority, &advisorID, &item.VideoType,
		&item.Board, &logos, &createdBy, &item.CreatedAt, &completedAt,
		&item.Deleted, &deletedAt, &deletedBy)
	if err != nil {
		return model.WorkItem{}, err
	}

	item.AdvisorID = advisorID.String
	item.CreatedBy = createdBy.String
	item.DeletedBy = deletedBy.String
	if completedAt.Valid {
		t := completedAt.Time
		item.CompletedAt = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		item.DeletedAt = &t
	}
	if len(logos) > 0 {
		_ = json.Unmarshal(logos, &item.LogoURLs)
	}
	return item, nil
}

const workItemColumns = `id, folio, client, product, request_type, priority, advisor_id,
	video_type, board, logo_urls, created_by, created_at, completed_at,
	deleted, deleted_at, deleted_by`

// handleListWorkItems returns the collection, default view excludes
// soft-deleted rows, ?deleted=true selects the trash view, ?month=&year=
// narrow by creation date.
func (s *Server) handleListWorkItems(c echo.Context) error {
	deleted := c.QueryParam("deleted") == "true"

	query := fmt.Sprintf(`SELECT %s FROM work_items WHERE deleted = $1`, workItemColumns)
	args := []interface{}{deleted}

	if monthStr := c.QueryParam("month"); monthStr != "" {
		month, err := strconv.Atoi(monthStr)
		if err != nil || month < 1 || month > 12 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid month"})
		}
		year := time.Now().Year()
		if yearStr := c.QueryParam("year"); yearStr != "" {
			if year, err = strconv.Atoi(yearStr); err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid year"})
			}
		}
		query += ` AND EXTRACT(MONTH FROM created_at) = $2 AND EXTRACT(YEAR FROM created_at) = $3`
		args = append(args, month, year)
	} else if yearStr := c.QueryParam("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid year"})
		}
		query += ` AND EXTRACT(YEAR FROM created_at) = $2`
		args = append(args, year)
	}

	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer rows.Close()

	items := []model.WorkItem{}
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			logger.Error("scan error", logger.F("error", err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		items = append(items, item)
	}

	return c.JSON(http.StatusOK, items)
}

// handleCreateWorkItem inserts a work item, assigns its folio and pairs
// it with the initial Pending status event in one transaction.
func (s *Server) handleCreateWorkItem(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var req store.CreateWorkItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Client == "" || req.Product == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "client and product required"})
	}
	if req.Priority == 0 {
		req.Priority = model.PriorityLow
	}
	if req.RequestType == "" {
		req.RequestType = model.RequestFullVideo
	}

	logos, _ := json.Marshal(req.LogoURLs)
	if req.LogoURLs == nil {
		logos = []byte("[]")
	}

	tx, err := s.db.Begin()
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var advisor interface{}
	if req.AdvisorID != "" {
		advisor = req.AdvisorID
	}

	var id string
	err = tx.QueryRow(`
		INSERT INTO work_items
			(folio, client, product, request_type, priority, advisor_id,
			 video_type, board, logo_urls, created_by)
		VALUES ('VID-' || LPAD(nextval('folio_seq')::text, 4, '0'),
			$1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		req.Client, req.Product, req.RequestType, req.Priority, advisor,
		req.VideoType, req.Board, logos, userID,
	).Scan(&id)
	if err != nil {
		logger.Error("insert error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	// Every item is born with its Pending event; status is never stored
	// on the item row.
	if _, err := tx.Exec(`
		INSERT INTO status_events (work_item_id, status, actor_id, note)
		VALUES ($1, $2, $3, '')`,
		id, model.StatusPending, userID,
	); err != nil {
		logger.Error("insert event error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	row := tx.QueryRow(fmt.Sprintf(`SELECT %s FROM work_items WHERE id = $1`, workItemColumns), id)
	item, err := scanWorkItem(row)
	if err != nil {
		logger.Error("read-back error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	if err := tx.Commit(); err != nil {
		logger.Error("commit error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	item.Status = model.StatusPending
	s.feed.publish(feedTableWorkItems, id)
	s.feed.publish(feedTableStatusEvents, id)

	logger.Info("Work item created", logger.F("id", id), logger.F("folio", item.Folio))
	return c.JSON(http.StatusOK, item)
}

// handleUpdateWorkItem applies a partial field update
func (s *Server) handleUpdateWorkItem(c echo.Context) error {
	id := c.Param("id")

	var patch store.WorkItemPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	set := []string{}
	args := []interface{}{}
	add := func(col string, val interface{}) {
		args = append(args, val)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Client != nil {
		add("client", *patch.Client)
	}
	if patch.Product != nil {
		add("product", *patch.Product)
	}
	if patch.RequestType != nil {
		add("request_type", *patch.RequestType)
	}
	if patch.Priority != nil {
		add("priority", *patch.Priority)
	}
	if patch.AdvisorID != nil {
		if *patch.AdvisorID == "" {
			add("advisor_id", nil)
		} else {
			add("advisor_id", *patch.AdvisorID)
		}
	}
	if patch.VideoType != nil {
		add("video_type", *patch.VideoType)
	}
	if patch.Board != nil {
		add("board", *patch.Board)
	}
	if patch.LogoURLs != nil {
		logos, _ := json.Marshal(*patch.LogoURLs)
		add("logo_urls", logos)
	}

	if len(set) == 0 {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE work_items SET %s WHERE id = $%d`,
		strings.Join(set, ", "), len(args))

	result, err := s.db.Exec(query, args...)
	if err != nil {
		logger.Error("update error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "work item not found"})
	}

	s.feed.publish(feedTableWorkItems, id)
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleSoftDelete flags an item deleted; the row stays for the trash
// view and later restore.
func (s *Server) handleSoftDelete(c echo.Context) error {
	id := c.Param("id")
	userID := c.Get("user_id").(string)

	result, err := s.db.Exec(`
		UPDATE work_items
		SET deleted = TRUE, deleted_at = NOW(), deleted_by = $2
		WHERE id = $1 AND deleted = FALSE`,
		id, userID,
	)
	if err != nil {
		logger.Error("delete error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "work item not found"})
	}

	s.feed.publish(feedTableWorkItems, id)
	logger.Info("Work item soft-deleted", logger.F("id", id), logger.F("by", userID))
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleRestore clears the deleted flag and its metadata
func (s *Server) handleRestore(c echo.Context) error {
	id := c.Param("id")

	result, err := s.db.Exec(`
		UPDATE work_items
		SET deleted = FALSE, deleted_at = NULL, deleted_by = NULL
		WHERE id = $1 AND deleted = TRUE`,
		id,
	)
	if err != nil {
		logger.Error("restore error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "work item not found in trash"})
	}

	s.feed.publish(feedTableWorkItems, id)
	logger.Info("Work item restored", logger.F("id", id))
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
