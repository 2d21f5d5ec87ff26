package client

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/reelvault/reelvault-server/internal/dto"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS clips (
	local_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	remote_id  TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL,
	title      TEXT NOT NULL,
	collection TEXT NOT NULL,
	tags       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_clips_created_at ON clips(created_at DESC);
`

// Cache is the best-effort local fallback store. It holds the last known
// clip list so the UI can render something while the server is unreachable.
// It is not synchronized with the server: whatever snapshot was written last
// wins, and clips saved offline get local IDs until the next reconcile
// replaces them.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the cache database at path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	// The cache is single-process; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// StoreSnapshot replaces the cached list wholesale with the given views.
func (c *Cache) StoreSnapshot(ctx context.Context, views []dto.ClipView) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM clips`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO clips (remote_id, url, title, collection, tags, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cache insert: %w", err)
	}
	defer stmt.Close()

	for _, view := range views {
		tags, err := json.Marshal(view.Tags)
		if err != nil {
			return fmt.Errorf("encode tags: %w", err)
		}
		_, err = stmt.ExecContext(ctx,
			view.ID, view.URL, view.Title, view.Collection, string(tags), view.CreatedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("insert cached clip: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache transaction: %w", err)
	}
	return nil
}

// StoreLocal appends a clip saved while offline. The returned view carries a
// generated local ID so it can live in the sync store until a reconcile
// assigns the real one.
func (c *Cache) StoreLocal(ctx context.Context, view dto.ClipView) (dto.ClipView, error) {
	tags, err := json.Marshal(view.Tags)
	if err != nil {
		return dto.ClipView{}, fmt.Errorf("encode tags: %w", err)
	}
	if view.CreatedAt.IsZero() {
		view.CreatedAt = time.Now()
	}

	result, err := c.db.ExecContext(ctx,
		`INSERT INTO clips (remote_id, url, title, collection, tags, created_at) VALUES ('', ?, ?, ?, ?, ?)`,
		view.URL, view.Title, view.Collection, string(tags), view.CreatedAt.UnixMilli())
	if err != nil {
		return dto.ClipView{}, fmt.Errorf("insert local clip: %w", err)
	}

	localID, err := result.LastInsertId()
	if err != nil {
		return dto.ClipView{}, fmt.Errorf("read local clip ID: %w", err)
	}

	view.ID = fmt.Sprintf("local-%d", localID)
	return view, nil
}

// LoadAll returns the cached clip list, newest first.
func (c *Cache) LoadAll(ctx context.Context) ([]dto.ClipView, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT local_id, remote_id, url, title, collection, tags, created_at FROM clips ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query cached clips: %w", err)
	}
	defer rows.Close()

	var views []dto.ClipView
	for rows.Next() {
		var (
			localID   int64
			remoteID  string
			tagsJSON  string
			createdAt int64
			view      dto.ClipView
		)
		err := rows.Scan(&localID, &remoteID, &view.URL, &view.Title, &view.Collection, &tagsJSON, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan cached clip: %w", err)
		}

		view.ID = remoteID
		if view.ID == "" {
			view.ID = fmt.Sprintf("local-%d", localID)
		}
		view.CreatedAt = time.UnixMilli(createdAt)
		if err := json.Unmarshal([]byte(tagsJSON), &view.Tags); err != nil || view.Tags == nil {
			view.Tags = []string{}
		}

		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached clips: %w", err)
	}
	return views, nil
}
