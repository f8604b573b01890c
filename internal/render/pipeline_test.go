package render

import (
	"bytes"
	"image"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/measure"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/pkg/geometry"
)

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func testSlice(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 100
		img.Pix[i+3] = 255
	}
	return img
}

func TestDrawPlaneProducesPNG(t *testing.T) {
	r := NewRenderer(Config{Background: "#000000"})
	tr := geometry.IdentityTransform()
	tr = tr.PanBy(10, -5).ZoomBy(geometry.ZoomInStep)

	data, err := r.DrawPlane(Frame{
		Plane:         geometry.PlaneXY,
		Slice:         testSlice(64, 48),
		Transform:     tr,
		Crosshair:     r2.Vec{X: 20, Y: 30},
		ShowCrosshair: true,
		Lines:         []measure.Line{{P1: r2.Vec{X: 5, Y: 5}, P2: r2.Vec{X: 25, Y: 5}, Dist: 10}},
	})
	if err != nil {
		t.Fatalf("DrawPlane: %v", err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Fatal("output is not a PNG")
	}
}

// Repeated draws of the same frame must yield identical bytes: pooled
// contexts may not leak state between draws.
func TestDrawPlaneIdempotent(t *testing.T) {
	r := NewRenderer(Config{Background: "#101010"})
	frame := Frame{
		Plane:         geometry.PlaneXZ,
		Slice:         testSlice(32, 32),
		Transform:     geometry.IdentityTransform(),
		Crosshair:     r2.Vec{X: 16, Y: 16},
		ShowCrosshair: true,
	}

	first, err := r.DrawPlane(frame)
	if err != nil {
		t.Fatalf("DrawPlane: %v", err)
	}
	// An intervening draw with overlays must not bleed into later frames.
	pt := r2.Vec{X: 3, Y: 3}
	if _, err := r.DrawPlane(Frame{
		Plane:         geometry.PlaneXZ,
		Slice:         testSlice(32, 32),
		Transform:     geometry.IdentityTransform().ZoomBy(2),
		Lines:         []measure.Line{{P1: r2.Vec{}, P2: r2.Vec{X: 10}, Dist: 10}},
		TrailingPoint: &pt,
	}); err != nil {
		t.Fatalf("DrawPlane with overlays: %v", err)
	}
	second, err := r.DrawPlane(frame)
	if err != nil {
		t.Fatalf("DrawPlane: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("same frame rendered different bytes")
	}
}

func TestDrawPlaneNilSlice(t *testing.T) {
	r := NewRenderer(Config{})
	if _, err := r.DrawPlane(Frame{Plane: geometry.PlaneYZ}); err == nil {
		t.Fatal("expected error for missing slice")
	}
}

func TestDrawBase(t *testing.T) {
	r := NewRenderer(Config{})
	data, err := r.DrawBase(testSlice(16, 16))
	if err != nil {
		t.Fatalf("DrawBase: %v", err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Fatal("output is not a PNG")
	}
}
