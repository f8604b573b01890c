package annotation

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/lokeshvelayudham/cryoVizWeb-sub000/pkg/geometry"
)

// SQLiteStore persists annotations using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (creating if needed) the annotation database.
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
	CREATE TABLE IF NOT EXISTS annotations (
		remote_id TEXT PRIMARY KEY,
		local_id TEXT NOT NULL,
		user TEXT NOT NULL,
		dataset_id TEXT NOT NULL,
		view TEXT NOT NULL,
		slice INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		text TEXT NOT NULL,
		instance INTEGER DEFAULT 0,
		datetime_ms INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'active'
	);

	CREATE INDEX IF NOT EXISTS idx_annotations_scope ON annotations(user, dataset_id, status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// newRemoteID generates a 24-hex-character identifier.
func newRemoteID() string {
	b := make([]byte, 12)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// List returns all active annotations for (user, dataset).
func (s *SQLiteStore) List(ctx context.Context, user, datasetID string) ([]Annotation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT remote_id, local_id, user, dataset_id, view, slice, x, y, text, instance, datetime_ms, status
		FROM annotations
		WHERE user = ? AND dataset_id = ? AND status = ?
		ORDER BY datetime_ms ASC
	`, user, datasetID, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Annotation
	for rows.Next() {
		var a Annotation
		var view string
		err := rows.Scan(
			&a.RemoteID, &a.ID, &a.User, &a.DatasetID, &view,
			&a.Slice, &a.X, &a.Y, &a.Text, &a.Instance, &a.Datetime, &a.Status,
		)
		if err != nil {
			return nil, err
		}
		if a.View, err = geometry.ParsePlane(view); err != nil {
			return nil, fmt.Errorf("stored annotation %s: %w", a.RemoteID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create inserts an annotation and returns its assigned remote identifier.
func (s *SQLiteStore) Create(ctx context.Context, a Annotation) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remoteID := newRemoteID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO annotations (remote_id, local_id, user, dataset_id, view, slice, x, y, text, instance, datetime_ms, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		remoteID, a.ID, a.User, a.DatasetID, a.View.String(),
		a.Slice, a.X, a.Y, a.Text, a.Instance, a.Datetime, a.Status,
	)
	if err != nil {
		return "", err
	}
	return remoteID, nil
}

// Update replaces the mutable fields of an annotation.
func (s *SQLiteStore) Update(ctx context.Context, remoteID string, a Annotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE annotations SET view = ?, slice = ?, x = ?, y = ?, text = ?, status = ?
		WHERE remote_id = ?
	`, a.View.String(), a.Slice, a.X, a.Y, a.Text, a.Status, remoteID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdatePosition moves an annotation without touching its text.
func (s *SQLiteStore) UpdatePosition(ctx context.Context, remoteID string, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE annotations SET x = ?, y = ? WHERE remote_id = ? AND status = ?
	`, x, y, remoteID, StatusActive)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes an annotation row.
func (s *SQLiteStore) Delete(ctx context.Context, remoteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM annotations WHERE remote_id = ?", remoteID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
