// Package session holds per-viewer state: the volume cursor, one view
// transform per plane, the interaction mode and transient measurement
// points. All mutation goes through the event methods, which dispatch to
// the active mode and bump the session's state revision.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/annotation"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/measure"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/pkg/geometry"
)

// Mode is the active interaction mode. Exactly one is active at a time;
// event dispatch checks measure first, then annotate, else navigate.
type Mode string

const (
	ModeNavigate Mode = "navigate"
	ModeAnnotate Mode = "annotate"
	ModeMeasure  Mode = "measure"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNavigate, ModeAnnotate, ModeMeasure:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// PlaneSize reports the pixel dimensions of a plane's slice images.
type PlaneSize struct {
	W, H int
}

// ClickAction names what a click ended up doing.
type ClickAction string

const (
	ActionNavigate    ClickAction = "navigate"
	ActionAnnotate    ClickAction = "annotate"
	ActionMeasureOpen ClickAction = "measure_point"
	ActionMeasureLine ClickAction = "measure_line"
)

// ClickResult is the outcome of a click event.
type ClickResult struct {
	Action  ClickAction
	Cursor  geometry.Cursor
	Line    *measure.Line
	Pending *annotation.Annotation
}

// Session is one viewer's state against one dataset.
type Session struct {
	ID        string
	DatasetID string

	mu         sync.Mutex
	dims       geometry.VolumeDims
	sizes      map[geometry.Plane]PlaneSize
	cursor     geometry.Cursor
	transforms map[geometry.Plane]geometry.Transform
	mode       Mode
	measures   *measure.Set
	ann        *annotation.Manager
	rev        uint64
	touched    time.Time
}

// New creates a session with the cursor at the volume center and identity
// transforms. sizes must carry an entry for every plane.
func New(datasetID string, dims geometry.VolumeDims, sizes map[geometry.Plane]PlaneSize, micronsPerPixel float64, ann *annotation.Manager) *Session {
	transforms := make(map[geometry.Plane]geometry.Transform, 3)
	for _, p := range geometry.Planes() {
		transforms[p] = geometry.IdentityTransform()
	}
	return &Session{
		ID:        uuid.NewString(),
		DatasetID: datasetID,
		dims:      dims,
		sizes:     sizes,
		cursor: geometry.Cursor{
			X: dims.NX / 2,
			Y: dims.NY / 2,
			Z: dims.NZ / 2,
		},
		transforms: transforms,
		mode:       ModeNavigate,
		measures:   measure.NewSet(micronsPerPixel),
		ann:        ann,
		touched:    time.Now(),
	}
}

// Click dispatches a click at screen coordinates sc on plane p.
func (s *Session) Click(p geometry.Plane, sc r2.Vec) (ClickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	size := s.sizes[p]
	px := s.transforms[p].ScreenToPixel(sc, r2.Vec{})

	switch s.mode {
	case ModeMeasure:
		// Measurement points are deliberately not clamped: a line may
		// extend past the slice edge.
		line, closed := s.measures.AddPoint(p, px)
		s.rev++
		if closed {
			return ClickResult{Action: ActionMeasureLine, Cursor: s.cursor, Line: &line}, nil
		}
		return ClickResult{Action: ActionMeasureOpen, Cursor: s.cursor}, nil

	case ModeAnnotate:
		clamped := geometry.ClampToPlane(px, size.W, size.H)
		pending, err := s.ann.StartPending(p, p.SliceIndex(s.cursor), clamped.X, clamped.Y)
		if err != nil {
			return ClickResult{}, err
		}
		return ClickResult{Action: ActionAnnotate, Cursor: s.cursor, Pending: &pending}, nil

	default:
		clamped := geometry.ClampToPlane(px, size.W, size.H)
		s.cursor = p.CursorFromPixel(clamped, size.W, size.H, s.dims, s.cursor)
		s.rev++
		return ClickResult{Action: ActionNavigate, Cursor: s.cursor}, nil
	}
}

// Wheel steps the z cursor (no modifier, whichever plane the pointer is
// over) or zooms the plane (ctrl/cmd). up is the scroll direction.
func (s *Session) Wheel(p geometry.Plane, up, ctrl bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if ctrl {
		step := geometry.ZoomOutStep
		if up {
			step = geometry.ZoomInStep
		}
		s.transforms[p] = s.transforms[p].ZoomBy(step)
	} else {
		delta := -1
		if up {
			delta = 1
		}
		s.cursor = s.cursor.StepZ(delta, s.dims)
	}
	s.rev++
}

// Drag pans plane p by the raw pointer delta. The delta is screen-space
// and is not divided by zoom.
func (s *Session) Drag(p geometry.Plane, dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.transforms[p] = s.transforms[p].PanBy(dx, dy)
	s.rev++
}

// ResetTransform restores plane p to identity pan/zoom.
func (s *Session) ResetTransform(p geometry.Plane) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.transforms[p] = geometry.IdentityTransform()
	s.rev++
}

// SetMode switches the interaction mode. Leaving measure mode discards
// all measurement points and lines on every plane.
func (s *Session) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.mode == ModeMeasure && m != ModeMeasure {
		s.measures.Clear()
	}
	s.mode = m
	s.rev++
}

// GoToAnnotation moves the cursor to an annotation's anchor: the
// annotation's plane gets its saved slice, and the in-plane position maps
// back to the two axes that plane controls.
func (s *Session) GoToAnnotation(a annotation.Annotation) geometry.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	size := s.sizes[a.View]
	cur := a.View.WithSliceIndex(s.cursor, a.Slice, s.dims)
	s.cursor = a.View.CursorFromPixel(r2.Vec{X: a.X, Y: a.Y}, size.W, size.H, s.dims, cur)
	s.rev++
	return s.cursor
}

// Snapshot is the restorable camera state of a session.
type Snapshot struct {
	Cursor     geometry.Cursor
	Transforms map[geometry.Plane]geometry.Transform
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{Cursor: s.cursor, Transforms: make(map[geometry.Plane]geometry.Transform, 3)}
	for p, t := range s.transforms {
		snap.Transforms[p] = t
	}
	return snap
}

// Restore applies a snapshot, clamping the cursor to the volume and each
// zoom to its valid range.
func (s *Session) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.cursor = snap.Cursor.Clamp(s.dims)
	for _, p := range geometry.Planes() {
		t, ok := snap.Transforms[p]
		if !ok {
			t = geometry.IdentityTransform()
		}
		// ZoomBy(1) reapplies the clamp without changing a valid zoom.
		s.transforms[p] = t.ZoomBy(1)
	}
	s.rev++
}

// Rev is the session's state revision. It increments on every mutation
// that can change a rendered frame, so cache keys built from it never
// serve a stale composite.
func (s *Session) Rev() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev
}

func (s *Session) Cursor() geometry.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *Session) Transform(p geometry.Plane) geometry.Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transforms[p]
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) Measures() *measure.Set {
	return s.measures
}

func (s *Session) Annotations() *annotation.Manager {
	return s.ann
}

func (s *Session) Dims() geometry.VolumeDims {
	return s.dims
}

func (s *Session) Size(p geometry.Plane) PlaneSize {
	return s.sizes[p]
}

func (s *Session) LastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *Session) touch() {
	s.touched = time.Now()
}
