// Package annotation implements persistent text annotations anchored to
// sub-pixel plane coordinates, with a local working list synchronized
// against a backing store.
package annotation

import (
	"context"
	"errors"
	"regexp"

	"github.com/lokeshvelayudham/cryoVizWeb-sub000/pkg/geometry"
)

// Annotation status values. Empty text while active is never persisted;
// it means the annotation is deleted instead.
const (
	StatusActive  = "active"
	StatusDeleted = "deleted"
)

// Annotation is one text marker. X and Y are plane-pixel coordinates, not
// screen coordinates, so they stay valid across pan/zoom changes. ID is a
// session-local stable key assigned before the store hands out RemoteID;
// a non-empty RemoteID is the sole signal that the record exists remotely.
type Annotation struct {
	ID        string         `json:"id"`
	RemoteID  string         `json:"_id,omitempty"`
	View      geometry.Plane `json:"view"`
	Slice     int            `json:"slice"`
	X         float64        `json:"x"`
	Y         float64        `json:"y"`
	Text      string         `json:"text"`
	Instance  int            `json:"instance"`
	Datetime  int64          `json:"datetime"` // unix milliseconds
	User      string         `json:"user"`
	DatasetID string         `json:"datasetId"`
	Status    string         `json:"status"`
}

var (
	// ErrNoUser is returned for mutations without an authenticated user.
	ErrNoUser = errors.New("no authenticated user")
	// ErrNotFound is returned by stores when the remote record is missing.
	ErrNotFound = errors.New("annotation not found")
	// ErrMissingRemoteID is returned when an operation requires a
	// store-assigned identifier the annotation does not have.
	ErrMissingRemoteID = errors.New("annotation has no remote id")
	// ErrInvalidRemoteID is returned for malformed remote identifiers,
	// before any store call is made.
	ErrInvalidRemoteID = errors.New("malformed remote id")
)

var remoteIDPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

// ValidRemoteID reports whether s is a well-formed store identifier
// (24 lowercase hex characters).
func ValidRemoteID(s string) bool {
	return remoteIDPattern.MatchString(s)
}

// Store is the persistence collaborator. All reads are scoped by
// (user, dataset, status=active).
type Store interface {
	List(ctx context.Context, user, datasetID string) ([]Annotation, error)
	Create(ctx context.Context, a Annotation) (remoteID string, err error)
	Update(ctx context.Context, remoteID string, a Annotation) error
	UpdatePosition(ctx context.Context, remoteID string, x, y float64) error
	Delete(ctx context.Context, remoteID string) error
}
