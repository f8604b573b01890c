package geometry

import "gonum.org/v1/gonum/spatial/r2"

// Zoom bounds and the fixed multiplicative wheel steps. The steps are not
// exact inverses of each other, so a zoom-in/zoom-out pair drifts by a small
// factor (1.05*0.95 = 0.9975); callers comparing zoom levels should allow
// for that.
const (
	MinZoom = 0.1
	MaxZoom = 5.0

	ZoomInStep  = 1.05
	ZoomOutStep = 0.95
)

// Transform is one plane's independent view transform: a screen-space pan
// offset and a zoom factor. The zero value is not valid; use
// IdentityTransform.
type Transform struct {
	Pan  r2.Vec  `json:"pan"`
	Zoom float64 `json:"zoom"`
}

// IdentityTransform returns the reset state: no pan, zoom 1.
func IdentityTransform() Transform {
	return Transform{Zoom: 1}
}

// ZoomBy multiplies the zoom by factor, clamped to [MinZoom, MaxZoom].
func (t Transform) ZoomBy(factor float64) Transform {
	z := t.Zoom * factor
	if z < MinZoom {
		z = MinZoom
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	t.Zoom = z
	return t
}

// PanBy shifts the pan offset by a raw screen-space delta. The delta is not
// scaled by zoom: dragging the pointer ten pixels moves the image ten screen
// pixels at any zoom level.
func (t Transform) PanBy(dx, dy float64) Transform {
	t.Pan = r2.Add(t.Pan, r2.Vec{X: dx, Y: dy})
	return t
}

// PixelToScreen maps a plane-pixel coordinate to screen space:
// screen = pixel*zoom + pan + canvasOffset.
func (t Transform) PixelToScreen(px, canvasOffset r2.Vec) r2.Vec {
	return r2.Add(r2.Add(r2.Scale(t.Zoom, px), t.Pan), canvasOffset)
}

// ScreenToPixel is the inverse of PixelToScreen. It does not clamp; use
// ClampToPlane when the result must land inside the plane raster.
func (t Transform) ScreenToPixel(sc, canvasOffset r2.Vec) r2.Vec {
	return r2.Scale(1/t.Zoom, r2.Sub(r2.Sub(sc, t.Pan), canvasOffset))
}

// ClampToPlane clamps a plane-pixel coordinate to [0,w-1] x [0,h-1].
func ClampToPlane(pt r2.Vec, w, h int) r2.Vec {
	pt.X = clampFloat(pt.X, 0, float64(w-1))
	pt.Y = clampFloat(pt.Y, 0, float64(h-1))
	return pt
}

func clampFloat(v, lo, hi float64) float64 {
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
