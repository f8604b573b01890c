package annotation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lokeshvelayudham/cryoVizWeb-sub000/pkg/geometry"
)

// fakeStore records calls and can fail UpdatePosition a configurable number
// of times with ErrNotFound.
type fakeStore struct {
	records map[string]Annotation

	createCalls   int
	updateCalls   int
	positionCalls int
	deleteCalls   int
	listCalls     int

	notFoundTimes int
	failList      bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]Annotation{}}
}

func (f *fakeStore) List(ctx context.Context, user, datasetID string) ([]Annotation, error) {
	f.listCalls++
	if f.failList {
		return nil, errors.New("store unavailable")
	}
	var out []Annotation
	for _, a := range f.records {
		if a.User == user && a.DatasetID == datasetID && a.Status == StatusActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) Create(ctx context.Context, a Annotation) (string, error) {
	f.createCalls++
	id := newRemoteID()
	a.RemoteID = id
	f.records[id] = a
	return id, nil
}

func (f *fakeStore) Update(ctx context.Context, remoteID string, a Annotation) error {
	f.updateCalls++
	if _, ok := f.records[remoteID]; !ok {
		return ErrNotFound
	}
	a.RemoteID = remoteID
	f.records[remoteID] = a
	return nil
}

func (f *fakeStore) UpdatePosition(ctx context.Context, remoteID string, x, y float64) error {
	f.positionCalls++
	if f.notFoundTimes > 0 {
		f.notFoundTimes--
		return ErrNotFound
	}
	a, ok := f.records[remoteID]
	if !ok {
		return ErrNotFound
	}
	a.X, a.Y = x, y
	f.records[remoteID] = a
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, remoteID string) error {
	f.deleteCalls++
	if _, ok := f.records[remoteID]; !ok {
		return ErrNotFound
	}
	delete(f.records, remoteID)
	return nil
}

func newTestManager(store Store) *Manager {
	m := NewManager(store, "alice", "mouse-brain")
	m.SetRetryDelay(time.Millisecond)
	return m
}

func TestCreateAndFetchRoundTrip(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	ctx := context.Background()

	a, err := m.StartPending(geometry.PlaneXY, 12, 10, 20)
	if err != nil {
		t.Fatalf("StartPending: %v", err)
	}
	a.Text = "T"
	if err := m.Save(ctx, a, false); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A fresh manager for the same user/dataset sees the annotation.
	m2 := newTestManager(store)
	if err := m2.FetchAll(ctx); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	list := m2.Annotations()
	if len(list) != 1 {
		t.Fatalf("expected 1 annotation, got %d", len(list))
	}
	got := list[0]
	if got.Text != "T" || got.View != geometry.PlaneXY || got.Slice != 12 || got.X != 10 || got.Y != 20 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !ValidRemoteID(got.RemoteID) {
		t.Errorf("store assigned malformed remote id %q", got.RemoteID)
	}
}

func TestEmptyTextOnCreatePathDeletesPending(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)

	a, err := m.StartPending(geometry.PlaneXZ, 3, 1, 2)
	if err != nil {
		t.Fatalf("StartPending: %v", err)
	}
	a.Text = "   "
	if err := m.Save(context.Background(), a, false); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if store.createCalls != 0 {
		t.Errorf("expected no create call, got %d", store.createCalls)
	}
	if len(m.Annotations()) != 0 {
		t.Errorf("pending annotation not removed: %+v", m.Annotations())
	}
}

func TestEmptyTextOnEditDeletesRemote(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	ctx := context.Background()

	a, _ := m.StartPending(geometry.PlaneXY, 0, 0, 0)
	a.Text = "keep me"
	if err := m.Save(ctx, a, false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved := m.Annotations()[0]

	saved.Text = ""
	if err := m.Save(ctx, saved, false); err != nil {
		t.Fatalf("Save empty: %v", err)
	}
	if store.deleteCalls != 1 {
		t.Errorf("expected delete call, got %d", store.deleteCalls)
	}
	if len(m.Annotations()) != 0 {
		t.Error("annotation not removed locally")
	}
}

func TestArchiveFlipsStatusAndRemovesLocally(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	ctx := context.Background()

	a, _ := m.StartPending(geometry.PlaneXY, 2, 3, 4)
	a.Text = "soma boundary"
	if err := m.Save(ctx, a, false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved := m.Annotations()[0]

	if err := m.Archive(ctx, saved.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if store.deleteCalls != 0 {
		t.Errorf("archive issued %d hard deletes", store.deleteCalls)
	}
	got, ok := store.records[saved.RemoteID]
	if !ok {
		t.Fatal("archived row removed from store")
	}
	if got.Status != StatusDeleted {
		t.Errorf("status %q, want %q", got.Status, StatusDeleted)
	}
	if len(m.Annotations()) != 0 {
		t.Error("archived annotation still listed locally")
	}
	if err := m.Archive(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second archive: got %v, want not-found", err)
	}
}

func TestPositionUpdateValidatesIDBeforeStore(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)

	tests := []struct {
		name     string
		remoteID string
		wantErr  error
	}{
		{"missing", "", ErrMissingRemoteID},
		{"tooShort", "abc123", ErrInvalidRemoteID},
		{"nonHex", "zzzzzzzzzzzzzzzzzzzzzzzz", ErrInvalidRemoteID},
		{"upperCase", "ABCDEFABCDEFABCDEFABCDEF", ErrInvalidRemoteID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Save(context.Background(), Annotation{RemoteID: tt.remoteID, X: 1, Y: 1}, true)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
	if store.positionCalls != 0 {
		t.Errorf("store called %d times despite invalid ids", store.positionCalls)
	}
}

func TestPositionUpdateRetriesNotFound(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	ctx := context.Background()

	a, _ := m.StartPending(geometry.PlaneYZ, 1, 5, 5)
	a.Text = "mark"
	if err := m.Save(ctx, a, false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved := m.Annotations()[0]

	// Two transient not-founds, then success on the third attempt.
	store.notFoundTimes = 2
	store.positionCalls = 0
	saved.X, saved.Y = 42, 43
	if err := m.Save(ctx, saved, true); err != nil {
		t.Fatalf("Save position: %v", err)
	}
	if store.positionCalls != 3 {
		t.Errorf("expected 3 attempts, got %d", store.positionCalls)
	}
	if got := store.records[saved.RemoteID]; got.X != 42 || got.Y != 43 {
		t.Errorf("position not persisted: %+v", got)
	}
}

func TestPositionUpdateRetryIsBounded(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	ctx := context.Background()

	a, _ := m.StartPending(geometry.PlaneXY, 1, 0, 0)
	a.Text = "mark"
	if err := m.Save(ctx, a, false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved := m.Annotations()[0]

	store.notFoundTimes = 100
	store.positionCalls = 0
	err := m.Save(ctx, saved, true)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not-found after bounded retry, got %v", err)
	}
	if store.positionCalls != positionRetryLimit+1 {
		t.Errorf("expected %d attempts, got %d", positionRetryLimit+1, store.positionCalls)
	}
}

func TestFetchAllFailsClosed(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	ctx := context.Background()

	a, _ := m.StartPending(geometry.PlaneXY, 0, 0, 0)
	a.Text = "x"
	if err := m.Save(ctx, a, false); err != nil {
		t.Fatalf("Save: %v", err)
	}

	store.failList = true
	if err := m.FetchAll(ctx); err == nil {
		t.Fatal("expected surfaced fetch error")
	}
	if len(m.Annotations()) != 0 {
		t.Error("expected empty local list after failed fetch")
	}
}

func TestNoUserBlocksMutations(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, "", "ds")

	if _, err := m.StartPending(geometry.PlaneXY, 0, 0, 0); !errors.Is(err, ErrNoUser) {
		t.Errorf("StartPending: got %v", err)
	}
	if err := m.Save(context.Background(), Annotation{Text: "x"}, false); !errors.Is(err, ErrNoUser) {
		t.Errorf("Save: got %v", err)
	}
	// FetchAll without a user is a silent no-op.
	if err := m.FetchAll(context.Background()); err != nil {
		t.Errorf("FetchAll: got %v", err)
	}
	if store.listCalls != 0 {
		t.Errorf("store listed %d times without a user", store.listCalls)
	}
}
