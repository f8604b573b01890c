package annotation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lokeshvelayudham/cryoVizWeb-sub000/pkg/geometry"
)

// Position-update retry policy: only the not-found failure class is retried,
// and only this many times. Everything else fails on the first report.
const (
	positionRetryLimit = 3
	positionRetryDelay = 300 * time.Millisecond
)

// Manager keeps the local annotation list for one (user, dataset) pair and
// synchronizes it with a Store. Updates are optimistic; the only automatic
// rollback is the refetch performed during the bounded not-found retry.
type Manager struct {
	store      Store
	user       string
	datasetID  string
	retryDelay time.Duration

	mu   sync.Mutex
	list []Annotation
}

// NewManager creates a manager scoped to one user and dataset. An empty
// user disables all mutations.
func NewManager(store Store, user, datasetID string) *Manager {
	return &Manager{
		store:      store,
		user:       user,
		datasetID:  datasetID,
		retryDelay: positionRetryDelay,
	}
}

// Annotations returns a copy of the local list.
func (m *Manager) Annotations() []Annotation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Annotation, len(m.list))
	copy(out, m.list)
	return out
}

// FetchAll replaces the local list from the store. Without a user it is a
// no-op. On store failure the list is emptied (fail closed) and the error
// is surfaced.
func (m *Manager) FetchAll(ctx context.Context) error {
	if m.user == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refetchLocked(ctx)
}

func (m *Manager) refetchLocked(ctx context.Context) error {
	list, err := m.store.List(ctx, m.user, m.datasetID)
	if err != nil {
		m.list = nil
		return fmt.Errorf("fetch annotations: %w", err)
	}
	m.list = list
	return nil
}

// StartPending creates a local annotation in edit mode at a clamped
// plane-pixel position. Nothing is persisted until Save.
func (m *Manager) StartPending(view geometry.Plane, slice int, x, y float64) (Annotation, error) {
	if m.user == "" {
		return Annotation{}, ErrNoUser
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a := Annotation{
		ID:        uuid.NewString(),
		View:      view,
		Slice:     slice,
		X:         x,
		Y:         y,
		Instance:  len(m.list) + 1,
		Datetime:  time.Now().UnixMilli(),
		User:      m.user,
		DatasetID: m.datasetID,
		Status:    StatusActive,
	}
	m.list = append(m.list, a)
	return a, nil
}

// Save commits an annotation. Behavior depends on its state:
//   - no RemoteID and empty trimmed text: the pending annotation is dropped
//     locally and no store call is made;
//   - no RemoteID: create, which assigns the RemoteID;
//   - RemoteID and empty trimmed text: delete instead of an empty-text save;
//   - RemoteID and positionOnly: position update with the bounded not-found
//     retry; the RemoteID format is validated before any store call;
//   - otherwise: full update.
func (m *Manager) Save(ctx context.Context, a Annotation, positionOnly bool) error {
	if m.user == "" {
		return ErrNoUser
	}

	if positionOnly {
		return m.savePosition(ctx, a)
	}

	text := strings.TrimSpace(a.Text)

	if a.RemoteID == "" {
		if text == "" {
			m.removeLocal(a.ID)
			return nil
		}
		a.Text = text
		remoteID, err := m.store.Create(ctx, a)
		if err != nil {
			return fmt.Errorf("create annotation: %w", err)
		}
		a.RemoteID = remoteID
		m.upsertLocal(a)
		return nil
	}

	if text == "" {
		return m.Delete(ctx, a.ID)
	}

	a.Text = text
	if err := m.store.Update(ctx, a.RemoteID, a); err != nil {
		return fmt.Errorf("update annotation: %w", err)
	}
	m.upsertLocal(a)
	return nil
}

func (m *Manager) savePosition(ctx context.Context, a Annotation) error {
	if a.RemoteID == "" {
		return ErrMissingRemoteID
	}
	if !ValidRemoteID(a.RemoteID) {
		return ErrInvalidRemoteID
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = m.store.UpdatePosition(ctx, a.RemoteID, a.X, a.Y)
		if err == nil || !errors.Is(err, ErrNotFound) || attempt >= positionRetryLimit {
			break
		}

		// The record may not be visible yet on an eventually consistent
		// store; refetch and try again after a fixed delay.
		m.mu.Lock()
		_ = m.refetchLocked(ctx)
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.retryDelay):
		}
	}
	if err != nil {
		return fmt.Errorf("update annotation position: %w", err)
	}

	m.mu.Lock()
	for i := range m.list {
		if m.list[i].RemoteID == a.RemoteID {
			m.list[i].X = a.X
			m.list[i].Y = a.Y
		}
	}
	m.mu.Unlock()
	return nil
}

// Delete hard-deletes an annotation by its local ID. The local entry is
// removed only after the store acknowledges.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if m.user == "" {
		return ErrNoUser
	}

	a, ok := m.find(id)
	if !ok {
		return ErrNotFound
	}
	if a.RemoteID == "" {
		return ErrMissingRemoteID
	}

	if err := m.store.Delete(ctx, a.RemoteID); err != nil {
		return fmt.Errorf("delete annotation: %w", err)
	}
	m.removeLocal(id)
	return nil
}

// Archive soft-deletes: flips the status remotely and removes the entry
// from the local list.
func (m *Manager) Archive(ctx context.Context, id string) error {
	if m.user == "" {
		return ErrNoUser
	}

	a, ok := m.find(id)
	if !ok {
		return ErrNotFound
	}
	if a.RemoteID == "" {
		return ErrMissingRemoteID
	}

	a.Status = StatusDeleted
	if err := m.store.Update(ctx, a.RemoteID, a); err != nil {
		return fmt.Errorf("archive annotation: %w", err)
	}
	m.removeLocal(id)
	return nil
}

// Find returns the annotation with the given local ID.
func (m *Manager) Find(id string) (Annotation, bool) {
	return m.find(id)
}

func (m *Manager) find(id string) (Annotation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.list {
		if a.ID == id {
			return a, true
		}
	}
	return Annotation{}, false
}

func (m *Manager) upsertLocal(a Annotation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.list {
		if m.list[i].ID == a.ID {
			m.list[i] = a
			return
		}
	}
	m.list = append(m.list, a)
}

func (m *Manager) removeLocal(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.list {
		if m.list[i].ID == id {
			m.list = append(m.list[:i], m.list[i+1:]...)
			return
		}
	}
}

// SetRetryDelay overrides the fixed delay between position-update retries.
func (m *Manager) SetRetryDelay(d time.Duration) {
	m.retryDelay = d
}

// User returns the manager's user identity.
func (m *Manager) User() string {
	return m.user
}
