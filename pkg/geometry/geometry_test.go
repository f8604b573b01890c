package geometry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

const tol = 1e-9

func TestPixelScreenRoundTrip(t *testing.T) {
	transforms := []Transform{
		IdentityTransform(),
		{Pan: r2.Vec{X: 120, Y: -45}, Zoom: 2.5},
		{Pan: r2.Vec{X: -300.25, Y: 17.5}, Zoom: 0.1},
		{Pan: r2.Vec{X: 0, Y: 0}, Zoom: 5.0},
	}
	points := []r2.Vec{
		{X: 0, Y: 0},
		{X: 10.25, Y: 20.75},
		{X: 511, Y: 511},
		{X: 0.001, Y: 509.999},
	}
	offset := r2.Vec{X: 8, Y: 12}

	for _, tr := range transforms {
		for _, pt := range points {
			back := tr.ScreenToPixel(tr.PixelToScreen(pt, offset), offset)
			if math.Abs(back.X-pt.X) > tol || math.Abs(back.Y-pt.Y) > tol {
				t.Errorf("round trip at zoom=%v pan=%v: got %v, want %v", tr.Zoom, tr.Pan, back, pt)
			}
		}
	}
}

func TestZoomClamped(t *testing.T) {
	tr := IdentityTransform()
	for i := 0; i < 200; i++ {
		tr = tr.ZoomBy(ZoomInStep)
	}
	if tr.Zoom != MaxZoom {
		t.Errorf("zoom not clamped high: got %v", tr.Zoom)
	}
	for i := 0; i < 200; i++ {
		tr = tr.ZoomBy(ZoomOutStep)
	}
	if tr.Zoom != MinZoom {
		t.Errorf("zoom not clamped low: got %v", tr.Zoom)
	}
}

// The wheel steps are fixed multiplicative factors, not true inverses, so an
// equal number of in/out steps only returns near the start value.
func TestZoomStepNearInverse(t *testing.T) {
	tr := IdentityTransform()
	const steps = 5
	for i := 0; i < steps; i++ {
		tr = tr.ZoomBy(ZoomInStep)
	}
	for i := 0; i < steps; i++ {
		tr = tr.ZoomBy(ZoomOutStep)
	}
	drift := math.Pow(ZoomInStep*ZoomOutStep, steps)
	if math.Abs(tr.Zoom-drift) > 1e-12 {
		t.Errorf("expected zoom %v after %d in/out steps, got %v", drift, steps, tr.Zoom)
	}
	if math.Abs(tr.Zoom-1) > 0.02 {
		t.Errorf("zoom drifted too far from 1: %v", tr.Zoom)
	}
}

func TestCursorZClamp(t *testing.T) {
	d := VolumeDims{NX: 64, NY: 64, NZ: 40}

	c := Cursor{Z: 0}
	for i := 0; i < d.NZ; i++ {
		c = c.StepZ(-1, d)
	}
	if c.Z != 0 {
		t.Errorf("z underflow: got %d", c.Z)
	}

	c = Cursor{Z: d.NZ - 1}
	for i := 0; i < d.NZ; i++ {
		c = c.StepZ(1, d)
	}
	if c.Z != d.NZ-1 {
		t.Errorf("z overflow: got %d", c.Z)
	}
}

func TestPlaneAxisMapping(t *testing.T) {
	cur := Cursor{X: 1, Y: 2, Z: 3}

	tests := []struct {
		plane      Plane
		wantSlice  int
		wantCursor Cursor
	}{
		{PlaneXY, 3, Cursor{X: 10, Y: 20, Z: 3}},
		{PlaneXZ, 2, Cursor{X: 10, Y: 2, Z: 20}},
		{PlaneYZ, 1, Cursor{X: 1, Y: 10, Z: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.plane.String(), func(t *testing.T) {
			if got := tt.plane.SliceIndex(cur); got != tt.wantSlice {
				t.Errorf("SliceIndex = %d, want %d", got, tt.wantSlice)
			}
			got := tt.plane.WithAxisValues(cur, 10, 20)
			if got != tt.wantCursor {
				t.Errorf("WithAxisValues = %+v, want %+v", got, tt.wantCursor)
			}
		})
	}
}

func TestCursorFromPixelScalesAndFloors(t *testing.T) {
	d := VolumeDims{NX: 100, NY: 200, NZ: 50}
	// Plane raster twice the volume resolution on both axes.
	cur := PlaneXY.CursorFromPixel(r2.Vec{X: 21, Y: 57}, 200, 400, d, Cursor{Z: 7})
	want := Cursor{X: 10, Y: 28, Z: 7}
	if cur != want {
		t.Errorf("got %+v, want %+v", cur, want)
	}

	// Out-of-range pixels clamp into the volume.
	cur = PlaneXY.CursorFromPixel(r2.Vec{X: 1e6, Y: -5}, 200, 400, d, Cursor{})
	if cur.X != d.NX-1 || cur.Y != 0 {
		t.Errorf("expected clamped cursor, got %+v", cur)
	}
}

func TestParsePlane(t *testing.T) {
	for _, s := range []string{"xy", "XY", " Xz ", "yz"} {
		if _, err := ParsePlane(s); err != nil {
			t.Errorf("ParsePlane(%q) failed: %v", s, err)
		}
	}
	if _, err := ParsePlane("ab"); err == nil {
		t.Error("expected error for unknown plane")
	}
}

func TestSliceCount(t *testing.T) {
	d := VolumeDims{NX: 3, NY: 4, NZ: 5}
	if d.SliceCount(PlaneXY) != 5 || d.SliceCount(PlaneXZ) != 4 || d.SliceCount(PlaneYZ) != 3 {
		t.Errorf("unexpected slice counts: %d/%d/%d",
			d.SliceCount(PlaneXY), d.SliceCount(PlaneXZ), d.SliceCount(PlaneYZ))
	}
}
