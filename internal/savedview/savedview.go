// Package savedview persists named camera snapshots: volume cursor plus
// per-plane pan/zoom, with per-user load statistics.
package savedview

import (
	"context"
	"errors"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/lokeshvelayudham/cryoVizWeb-sub000/pkg/geometry"
)

var (
	ErrNotFound  = errors.New("saved view not found")
	ErrEmptyName = errors.New("view name must not be empty")
)

// PlaneState is one plane's camera in a saved view.
type PlaneState struct {
	Zoom float64 `json:"zoom"`
	Pan  r2.Vec  `json:"pan"`
}

// LoadStat is one user's load history for a view.
type LoadStat struct {
	User     string    `json:"user"`
	Count    int       `json:"count"`
	LastLoad time.Time `json:"lastLoad"`
}

// SavedView is a restorable viewer state. LoadCount always equals the sum
// of the per-user stat counts; the store maintains both in one
// transaction.
type SavedView struct {
	ID        string                        `json:"id"`
	DatasetID string                        `json:"datasetId"`
	Name      string                        `json:"name"`
	Coords    geometry.Cursor               `json:"coords"`
	Planes    map[geometry.Plane]PlaneState `json:"planes"`
	Creator   string                        `json:"creator"`
	CreatedAt time.Time                     `json:"createdAt"`
	LoadCount int                           `json:"loadCount"`
	LoadStats []LoadStat                    `json:"loadStats,omitempty"`
}

// Store persists saved views.
type Store interface {
	// Save stores a new view and returns its assigned ID. The name is
	// trimmed; an empty result is rejected.
	Save(ctx context.Context, v SavedView) (string, error)
	// List returns all views for a dataset with their load stats.
	List(ctx context.Context, datasetID string) ([]SavedView, error)
	// Load returns the view after incrementing its load counter and the
	// calling user's stat row atomically.
	Load(ctx context.Context, id, user string) (SavedView, error)
	// Rename changes a view's name with the same validation as Save.
	Rename(ctx context.Context, id, name string) error
	// Delete removes one or more views. Unknown IDs among several are
	// ignored; a single unknown ID reports ErrNotFound.
	Delete(ctx context.Context, ids ...string) error
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}
