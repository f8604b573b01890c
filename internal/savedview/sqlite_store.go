package savedview

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lokeshvelayudham/cryoVizWeb-sub000/pkg/geometry"
)

// SQLiteStore persists saved views using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (creating if needed) the saved-view database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for sqlite: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS views (
		id TEXT PRIMARY KEY,
		dataset_id TEXT NOT NULL,
		name TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		z INTEGER NOT NULL,
		planes TEXT NOT NULL,
		creator TEXT NOT NULL,
		created_at_ms INTEGER NOT NULL,
		load_count INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_views_dataset ON views(dataset_id);

	CREATE TABLE IF NOT EXISTS view_load_stats (
		view_id TEXT NOT NULL,
		user TEXT NOT NULL,
		count INTEGER NOT NULL,
		last_load_ms INTEGER NOT NULL,
		PRIMARY KEY (view_id, user),
		FOREIGN KEY (view_id) REFERENCES views(id) ON DELETE CASCADE
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, v SavedView) (string, error) {
	name, err := normalizeName(v.Name)
	if err != nil {
		return "", err
	}

	planes, err := json.Marshal(v.Planes)
	if err != nil {
		return "", fmt.Errorf("failed to encode plane state: %w", err)
	}
	id := uuid.NewString()
	createdAt := v.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO views (id, dataset_id, name, x, y, z, planes, creator, created_at_ms, load_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		id, v.DatasetID, name,
		v.Coords.X, v.Coords.Y, v.Coords.Z,
		string(planes), v.Creator, createdAt.UnixMilli())
	if err != nil {
		return "", fmt.Errorf("failed to insert view: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) List(ctx context.Context, datasetID string) ([]SavedView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dataset_id, name, x, y, z, planes, creator, created_at_ms, load_count
		FROM views WHERE dataset_id = ? ORDER BY created_at_ms`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query views: %w", err)
	}
	defer rows.Close()

	var out []SavedView
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		stats, err := s.loadStats(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].LoadStats = stats
	}
	return out, nil
}

func (s *SQLiteStore) Load(ctx context.Context, id, user string) (SavedView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SavedView{}, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	// Counter and stat row move together so load_count stays the sum of
	// the per-user counts.
	res, err := tx.ExecContext(ctx, `UPDATE views SET load_count = load_count + 1 WHERE id = ?`, id)
	if err != nil {
		return SavedView{}, fmt.Errorf("failed to bump load count: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return SavedView{}, err
	}
	if n == 0 {
		return SavedView{}, ErrNotFound
	}

	now := time.Now().UnixMilli()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO view_load_stats (view_id, user, count, last_load_ms)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(view_id, user) DO UPDATE SET count = count + 1, last_load_ms = ?`,
		id, user, now, now); err != nil {
		return SavedView{}, fmt.Errorf("failed to upsert load stat: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		SELECT id, dataset_id, name, x, y, z, planes, creator, created_at_ms, load_count
		FROM views WHERE id = ?`, id)
	v, err := scanView(row)
	if err != nil {
		return SavedView{}, err
	}

	if err := tx.Commit(); err != nil {
		return SavedView{}, fmt.Errorf("failed to commit: %w", err)
	}

	stats, err := s.loadStats(ctx, id)
	if err != nil {
		return SavedView{}, err
	}
	v.LoadStats = stats
	return v, nil
}

func (s *SQLiteStore) Rename(ctx context.Context, id, name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `UPDATE views SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename view: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	placeholders := strings.TrimRight(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM view_load_stats WHERE view_id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to delete load stats: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM views WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to delete views: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 && len(ids) == 1 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *SQLiteStore) loadStats(ctx context.Context, viewID string) ([]LoadStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user, count, last_load_ms FROM view_load_stats
		WHERE view_id = ? ORDER BY user`, viewID)
	if err != nil {
		return nil, fmt.Errorf("failed to query load stats: %w", err)
	}
	defer rows.Close()

	var stats []LoadStat
	for rows.Next() {
		var st LoadStat
		var lastLoad int64
		if err := rows.Scan(&st.User, &st.Count, &lastLoad); err != nil {
			return nil, err
		}
		st.LastLoad = time.UnixMilli(lastLoad)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanView(row rowScanner) (SavedView, error) {
	var v SavedView
	var planes string
	var createdAt int64
	err := row.Scan(&v.ID, &v.DatasetID, &v.Name,
		&v.Coords.X, &v.Coords.Y, &v.Coords.Z,
		&planes, &v.Creator, &createdAt, &v.LoadCount)
	if err == sql.ErrNoRows {
		return SavedView{}, ErrNotFound
	}
	if err != nil {
		return SavedView{}, fmt.Errorf("failed to scan view: %w", err)
	}
	v.CreatedAt = time.UnixMilli(createdAt)
	v.Planes = map[geometry.Plane]PlaneState{}
	if err := json.Unmarshal([]byte(planes), &v.Planes); err != nil {
		return SavedView{}, fmt.Errorf("failed to decode plane state: %w", err)
	}
	return v, nil
}
