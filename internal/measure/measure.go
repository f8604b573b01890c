// Package measure implements interactive distance measurement on the three
// viewer planes. State is entirely transient: nothing here is persisted.
package measure

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/lokeshvelayudham/cryoVizWeb-sub000/pkg/geometry"
)

// Line is a completed measurement between two plane-pixel points.
// Dist is in microns.
type Line struct {
	P1   r2.Vec  `json:"p1"`
	P2   r2.Vec  `json:"p2"`
	Dist float64 `json:"dist"`
}

// Set accumulates measurement points per plane. Every even-indexed point
// closes a line against the point before it. Safe for concurrent use: the
// render path reads overlays while interaction events append points.
type Set struct {
	micronsPerPixel float64

	mu     sync.Mutex
	points map[geometry.Plane][]r2.Vec
	lines  map[geometry.Plane][]Line
}

// NewSet creates a measurement set calibrated to the dataset's physical
// resolution.
func NewSet(micronsPerPixel float64) *Set {
	return &Set{
		micronsPerPixel: micronsPerPixel,
		points:          make(map[geometry.Plane][]r2.Vec),
		lines:           make(map[geometry.Plane][]Line),
	}
}

// AddPoint records a plane-pixel point. If it completes a pair, the closed
// line is returned.
func (s *Set) AddPoint(p geometry.Plane, pt r2.Vec) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.points[p] = append(s.points[p], pt)
	n := len(s.points[p])
	if n%2 != 0 {
		return Line{}, false
	}

	line := Line{
		P1:   s.points[p][n-2],
		P2:   pt,
		Dist: s.Distance(s.points[p][n-2], pt),
	}
	s.lines[p] = append(s.lines[p], line)
	return line, true
}

// Distance converts a plane-pixel span to microns.
func (s *Set) Distance(a, b r2.Vec) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y) * s.micronsPerPixel
}

// Points returns a copy of the accumulated points for a plane, including a
// trailing unpaired point if one exists.
func (s *Set) Points(p geometry.Plane) []r2.Vec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]r2.Vec(nil), s.points[p]...)
}

// Lines returns a copy of the completed lines for a plane.
func (s *Set) Lines(p geometry.Plane) []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Line(nil), s.lines[p]...)
}

// Clear drops all points and lines on every plane. Called when measurement
// mode is toggled off.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = make(map[geometry.Plane][]r2.Vec)
	s.lines = make(map[geometry.Plane][]Line)
}

// Empty reports whether no plane holds any point or line.
func (s *Set) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pts := range s.points {
		if len(pts) > 0 {
			return false
		}
	}
	for _, ls := range s.lines {
		if len(ls) > 0 {
			return false
		}
	}
	return true
}
