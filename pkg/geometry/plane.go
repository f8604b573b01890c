// Package geometry implements the triplanar coordinate model: the three
// orthographic planes of a volume, the integer volume cursor, per-plane
// pan/zoom transforms, and the pure mappings between volume-index space,
// plane-pixel space and screen space.
package geometry

import (
	"fmt"
	"strings"
)

// Plane identifies one of the three orthographic projections of the volume.
// Each plane exposes two volume axes and fixes the third: XY fixes z,
// XZ fixes y, YZ fixes x.
type Plane int

const (
	PlaneXY Plane = iota
	PlaneXZ
	PlaneYZ
)

// Planes returns the three planes in canonical order.
func Planes() [3]Plane {
	return [3]Plane{PlaneXY, PlaneXZ, PlaneYZ}
}

func (p Plane) String() string {
	switch p {
	case PlaneXY:
		return "xy"
	case PlaneXZ:
		return "xz"
	case PlaneYZ:
		return "yz"
	}
	return fmt.Sprintf("plane(%d)", int(p))
}

// MarshalText encodes the plane as its string identifier. Text marshaling
// also covers JSON map keys.
func (p Plane) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a plane from its string identifier.
func (p *Plane) UnmarshalText(data []byte) error {
	parsed, err := ParsePlane(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePlane parses a plane identifier ("xy", "xz", "yz", any case).
func ParsePlane(s string) (Plane, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xy":
		return PlaneXY, nil
	case "xz":
		return PlaneXZ, nil
	case "yz":
		return PlaneYZ, nil
	}
	return 0, fmt.Errorf("unknown plane: %q", s)
}

// VolumeDims holds the voxel extents of the volume along each axis.
type VolumeDims struct {
	NX int `json:"nx"`
	NY int `json:"ny"`
	NZ int `json:"nz"`
}

// SliceCount returns the number of slices stacked along the plane's fixed axis.
func (d VolumeDims) SliceCount(p Plane) int {
	switch p {
	case PlaneXY:
		return d.NZ
	case PlaneXZ:
		return d.NY
	default:
		return d.NX
	}
}

// AxisSizes returns the volume extents along the plane's horizontal and
// vertical axes, in that order.
func (p Plane) AxisSizes(d VolumeDims) (h, v int) {
	switch p {
	case PlaneXY:
		return d.NX, d.NY
	case PlaneXZ:
		return d.NX, d.NZ
	default:
		return d.NY, d.NZ
	}
}

// Cursor is the shared 3D volume-index cursor. Components are voxel indices,
// each in [0, N-1] for its axis.
type Cursor struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Clamp returns the cursor with every component clamped into the volume.
func (c Cursor) Clamp(d VolumeDims) Cursor {
	c.X = clampInt(c.X, 0, d.NX-1)
	c.Y = clampInt(c.Y, 0, d.NY-1)
	c.Z = clampInt(c.Z, 0, d.NZ-1)
	return c
}

// StepZ moves the z component by delta, clamped to the volume.
func (c Cursor) StepZ(delta int, d VolumeDims) Cursor {
	c.Z = clampInt(c.Z+delta, 0, d.NZ-1)
	return c
}

// SliceIndex returns the cursor's value along the plane's fixed axis, i.e.
// which slice of that plane's stack is currently displayed.
func (p Plane) SliceIndex(c Cursor) int {
	switch p {
	case PlaneXY:
		return c.Z
	case PlaneXZ:
		return c.Y
	default:
		return c.X
	}
}

// AxisValues returns the cursor components shown on the plane's horizontal
// and vertical axes.
func (p Plane) AxisValues(c Cursor) (h, v int) {
	switch p {
	case PlaneXY:
		return c.X, c.Y
	case PlaneXZ:
		return c.X, c.Z
	default:
		return c.Y, c.Z
	}
}

// WithAxisValues returns c with the plane's two exposed axes replaced by
// h and v. The fixed axis is left unchanged.
func (p Plane) WithAxisValues(c Cursor, h, v int) Cursor {
	switch p {
	case PlaneXY:
		c.X, c.Y = h, v
	case PlaneXZ:
		c.X, c.Z = h, v
	default:
		c.Y, c.Z = h, v
	}
	return c
}

// WithSliceIndex returns c with the plane's fixed axis set to idx, clamped
// to the plane's slice count.
func (p Plane) WithSliceIndex(c Cursor, idx int, d VolumeDims) Cursor {
	idx = clampInt(idx, 0, d.SliceCount(p)-1)
	switch p {
	case PlaneXY:
		c.Z = idx
	case PlaneXZ:
		c.Y = idx
	default:
		c.X = idx
	}
	return c
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
