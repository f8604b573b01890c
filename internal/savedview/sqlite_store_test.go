package savedview

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/lokeshvelayudham/cryoVizWeb-sub000/pkg/geometry"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "views.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testView(name string) SavedView {
	return SavedView{
		DatasetID: "mouse-brain",
		Name:      name,
		Coords:    geometry.Cursor{X: 10, Y: 20, Z: 30},
		Planes: map[geometry.Plane]PlaneState{
			geometry.PlaneXY: {Zoom: 2.0, Pan: r2.Vec{X: 5, Y: -3}},
			geometry.PlaneXZ: {Zoom: 1.0},
			geometry.PlaneYZ: {Zoom: 0.5, Pan: r2.Vec{X: 1, Y: 1}},
		},
		Creator: "alice",
	}
}

func TestSaveListRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, testView("  hippocampus  "))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	views, err := store.List(ctx, "mouse-brain")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	v := views[0]
	if v.ID != id || v.Name != "hippocampus" || v.Creator != "alice" {
		t.Errorf("view mismatch: %+v", v)
	}
	if v.Coords != (geometry.Cursor{X: 10, Y: 20, Z: 30}) {
		t.Errorf("coords %+v", v.Coords)
	}
	xy := v.Planes[geometry.PlaneXY]
	if xy.Zoom != 2.0 || xy.Pan.X != 5 || xy.Pan.Y != -3 {
		t.Errorf("xy plane state %+v", xy)
	}
	if v.LoadCount != 0 || len(v.LoadStats) != 0 {
		t.Errorf("fresh view has load history: count=%d stats=%+v", v.LoadCount, v.LoadStats)
	}

	if _, err := store.List(ctx, "other-dataset"); err != nil {
		t.Fatalf("List other: %v", err)
	}
}

func TestSaveRejectsEmptyName(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Save(context.Background(), testView("   ")); !errors.Is(err, ErrEmptyName) {
		t.Errorf("got %v, want ErrEmptyName", err)
	}
}

func TestLoadCountersStayConsistent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, testView("v"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Same user twice: one stats row with count 2.
	if _, err := store.Load(ctx, id, "alice"); err != nil {
		t.Fatalf("Load 1: %v", err)
	}
	v, err := store.Load(ctx, id, "alice")
	if err != nil {
		t.Fatalf("Load 2: %v", err)
	}
	if v.LoadCount != 2 {
		t.Errorf("loadCount %d, want 2", v.LoadCount)
	}
	if len(v.LoadStats) != 1 || v.LoadStats[0].User != "alice" || v.LoadStats[0].Count != 2 {
		t.Errorf("stats %+v", v.LoadStats)
	}

	// A second user adds a row; the total stays the sum of the counts.
	v, err = store.Load(ctx, id, "bob")
	if err != nil {
		t.Fatalf("Load bob: %v", err)
	}
	sum := 0
	for _, st := range v.LoadStats {
		sum += st.Count
	}
	if v.LoadCount != 3 || sum != v.LoadCount {
		t.Errorf("loadCount %d, Σcounts %d", v.LoadCount, sum)
	}
	if len(v.LoadStats) != 2 {
		t.Errorf("expected 2 stat rows, got %d", len(v.LoadStats))
	}
}

func TestLoadUnknownView(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Load(context.Background(), "nope", "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestRename(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, _ := store.Save(ctx, testView("old"))
	if err := store.Rename(ctx, id, " new name "); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	views, _ := store.List(ctx, "mouse-brain")
	if views[0].Name != "new name" {
		t.Errorf("name %q", views[0].Name)
	}

	if err := store.Rename(ctx, id, "  "); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty rename: got %v", err)
	}
	if err := store.Rename(ctx, "nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown rename: got %v", err)
	}
}

func TestDeleteSingleAndBulk(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, _ := store.Save(ctx, testView("a"))
	b, _ := store.Save(ctx, testView("b"))
	c, _ := store.Save(ctx, testView("c"))
	if _, err := store.Load(ctx, a, "alice"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := store.Delete(ctx, a, b); err != nil {
		t.Fatalf("bulk Delete: %v", err)
	}
	views, _ := store.List(ctx, "mouse-brain")
	if len(views) != 1 || views[0].ID != c {
		t.Errorf("views after bulk delete: %+v", views)
	}

	if err := store.Delete(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("single unknown delete: got %v", err)
	}
	// Unknown IDs mixed into a bulk delete are ignored.
	if err := store.Delete(ctx, c, "nope"); err != nil {
		t.Errorf("bulk with unknown: %v", err)
	}
}
