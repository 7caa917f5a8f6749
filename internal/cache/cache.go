// Package cache persists the last committed work item collection to a
// local SQLite database so the CLI renders the last-known-good view when
// the store is unreachable, and watch sessions start warm. Only
// token-current refreshes are written here; a failed or stale refresh
// never touches it.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hvila/tablero/internal/model"
)

// Cache wraps the SQLite snapshot database
type Cache struct {
	db *sql.DB
}

// DefaultPath returns the default cache path (~/.tablero/cache.db)
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".tablero", "cache.db"), nil
}

// Open opens or creates the snapshot database
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to cache: %w", err)
	}

	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run cache migrations: %w", err)
	}
	return c, nil
}

// OpenDefault opens the cache at the default path
func OpenDefault() (*Cache, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Close closes the database
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) migrate() error {
	_, err := c.db.Exec(migrationSnapshot)
	return err
}

const migrationSnapshot = `
CREATE TABLE IF NOT EXISTS work_item_snapshot (
    id TEXT PRIMARY KEY,
    folio TEXT,
    client TEXT NOT NULL,
    product TEXT NOT NULL,
    request_type TEXT,
    priority INTEGER DEFAULT 4,
    status TEXT NOT NULL,
    advisor_id TEXT,
    video_type TEXT,
    board TEXT,
    logo_urls TEXT,
    created_by TEXT,
    created_at TEXT NOT NULL,
    completed_at TEXT,
    deleted INTEGER DEFAULT 0,
    deleted_at TEXT,
    deleted_by TEXT
);

CREATE TABLE IF NOT EXISTS snapshot_meta (
    key TEXT PRIMARY KEY,
    value TEXT
);
`

// Save replaces the snapshot with the given collection.
func (c *Cache) Save(ctx context.Context, items []model.WorkItem) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM work_item_snapshot"); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	for _, item := range items {
		logos := ""
		if len(item.LogoURLs) > 0 {
			data, _ := json.Marshal(item.LogoURLs)
			logos = string(data)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO work_item_snapshot
			(id, folio, client, product, request_type, priority, status, advisor_id,
			 video_type, board, logo_urls, created_by, created_at, completed_at,
			 deleted, deleted_at, deleted_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.Folio, item.Client, item.Product, item.RequestType,
			item.Priority, string(item.Status), item.AdvisorID, item.VideoType,
			item.Board, logos, item.CreatedBy, item.CreatedAt.Format(time.RFC3339Nano),
			formatTimePtr(item.CompletedAt), boolInt(item.Deleted),
			formatTimePtr(item.DeletedAt), item.DeletedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot row %s: %w", item.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (key, value) VALUES ('saved_at', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		time.Now().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("failed to stamp snapshot: %w", err)
	}

	return tx.Commit()
}

// Load returns the cached collection, ordered by creation time.
func (c *Cache) Load(ctx context.Context) ([]model.WorkItem, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, folio, client, product, request_type, priority, status,
		       advisor_id, video_type, board, logo_urls, created_by, created_at,
		       completed_at, deleted, deleted_at, deleted_by
		FROM work_item_snapshot
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	defer rows.Close()

	var items []model.WorkItem
	for rows.Next() {
		var item model.WorkItem
		var statusStr, logos, createdAt string
		var completedAt, deletedAt sql.NullString
		var deleted int
		if err := rows.Scan(&item.ID, &item.Folio, &item.Client, &item.Product,
			&item.RequestType, &item.Priority, &statusStr, &item.AdvisorID,
			&item.VideoType, &item.Board, &logos, &item.CreatedBy, &createdAt,
			&completedAt, &deleted, &deletedAt, &item.DeletedBy); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		item.Status = model.Status(statusStr)
		item.Deleted = deleted != 0
		if logos != "" {
			_ = json.Unmarshal([]byte(logos), &item.LogoURLs)
		}
		item.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		item.CompletedAt = parseTimePtr(completedAt)
		item.DeletedAt = parseTimePtr(deletedAt)
		items = append(items, item)
	}
	return items, rows.Err()
}

// SavedAt returns when the snapshot was last written, if ever.
func (c *Cache) SavedAt(ctx context.Context) (time.Time, bool) {
	var value string
	err := c.db.QueryRowContext(ctx,
		"SELECT value FROM snapshot_meta WHERE key = 'saved_at'").Scan(&value)
	if err != nil {
		return time.Time{}, false
	}
	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339Nano), Valid: true}
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
