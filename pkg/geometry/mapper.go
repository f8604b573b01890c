package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// CursorFromPixel maps a plane-pixel coordinate to a volume cursor. The
// plane's two exposed axes are updated by scaling the pixel position from
// plane-pixel space into volume-index space (volumeAxisSize/planePixelSize)
// and flooring; the fixed axis keeps its value from cur. The result is
// clamped into the volume.
func (p Plane) CursorFromPixel(px r2.Vec, planeW, planeH int, d VolumeDims, cur Cursor) Cursor {
	hSize, vSize := p.AxisSizes(d)
	h := int(math.Floor(px.X * float64(hSize) / float64(planeW)))
	v := int(math.Floor(px.Y * float64(vSize) / float64(planeH)))
	return p.WithAxisValues(cur, h, v).Clamp(d)
}

// PixelFromCursor maps the cursor's two exposed axis values back into
// plane-pixel space, centered on the voxel.
func (p Plane) PixelFromCursor(cur Cursor, planeW, planeH int, d VolumeDims) r2.Vec {
	hSize, vSize := p.AxisSizes(d)
	h, v := p.AxisValues(cur)
	return r2.Vec{
		X: (float64(h) + 0.5) * float64(planeW) / float64(hSize),
		Y: (float64(v) + 0.5) * float64(planeH) / float64(vSize),
	}
}
