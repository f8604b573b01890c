// Package render composites viewer plane frames using fogleman/gg.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/measure"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/pkg/geometry"
)

// Config contains renderer configuration.
type Config struct {
	// Background is a hex color ("#000000") the canvas is cleared to before
	// every draw.
	Background string
}

// Frame is everything needed to composite one plane.
type Frame struct {
	Plane     geometry.Plane
	Slice     image.Image
	Transform geometry.Transform
	// Crosshair is the cursor position in screen space. The crosshair is
	// drawn after the pan/zoom transform is restored, so it lands on canvas
	// pixels, not image pixels.
	Crosshair     r2.Vec
	ShowCrosshair bool
	Lines         []measure.Line
	// TrailingPoint is an unpaired measurement point awaiting its partner.
	TrailingPoint *r2.Vec
}

// Renderer composites plane frames. Draws are idempotent: the same frame
// always encodes to the same bytes, and repeated draws accumulate no state.
type Renderer struct {
	config     Config
	bufferPool sync.Pool

	mu    sync.Mutex
	pools map[image.Point]*sync.Pool
}

// NewRenderer creates a new plane renderer.
func NewRenderer(cfg Config) *Renderer {
	if cfg.Background == "" {
		cfg.Background = "#000000"
	}
	return &Renderer{
		config: cfg,
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 64*1024))
			},
		},
		pools: make(map[image.Point]*sync.Pool),
	}
}

// crosshairColor returns each plane's fixed crosshair color.
func crosshairColor(p geometry.Plane) (r, g, b float64) {
	switch p {
	case geometry.PlaneXY:
		return 1, 0, 0
	case geometry.PlaneXZ:
		return 0, 1, 0
	default:
		return 0, 0, 1
	}
}

func (r *Renderer) contextPool(w, h int) *sync.Pool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := image.Point{X: w, Y: h}
	pool, ok := r.pools[key]
	if !ok {
		pool = &sync.Pool{
			New: func() interface{} {
				return gg.NewContext(w, h)
			},
		}
		r.pools[key] = pool
	}
	return pool
}

// DrawPlane composites one plane: background, transformed slice image,
// measurement overlays, then the crosshair in canvas space.
func (r *Renderer) DrawPlane(f Frame) ([]byte, error) {
	if f.Slice == nil {
		return nil, fmt.Errorf("plane %s: no slice image", f.Plane)
	}
	b := f.Slice.Bounds()
	pool := r.contextPool(b.Dx(), b.Dy())
	dc := pool.Get().(*gg.Context)
	defer pool.Put(dc)

	dc.SetHexColor(r.config.Background)
	dc.Clear()

	zoom := f.Transform.Zoom
	if zoom <= 0 {
		zoom = 1
	}

	dc.Push()
	dc.Translate(f.Transform.Pan.X, f.Transform.Pan.Y)
	dc.Scale(zoom, zoom)
	dc.DrawImage(f.Slice, 0, 0)
	r.drawMeasurements(dc, f, zoom)
	dc.Pop()

	if f.ShowCrosshair {
		cr, cg, cb := crosshairColor(f.Plane)
		dc.SetRGB(cr, cg, cb)
		dc.SetLineWidth(1)
		dc.DrawLine(0, f.Crosshair.Y, float64(dc.Width()), f.Crosshair.Y)
		dc.Stroke()
		dc.DrawLine(f.Crosshair.X, 0, f.Crosshair.X, float64(dc.Height()))
		dc.Stroke()
	}

	return r.encodeContext(dc)
}

// drawMeasurements draws lines, endpoints and inline distance labels in
// plane-pixel space. Stroke widths are divided by zoom so they stay constant
// on screen.
func (r *Renderer) drawMeasurements(dc *gg.Context, f Frame, zoom float64) {
	if len(f.Lines) == 0 && f.TrailingPoint == nil {
		return
	}

	dc.SetRGB(1, 1, 0)
	dc.SetLineWidth(2 / zoom)

	for _, line := range f.Lines {
		dc.DrawLine(line.P1.X, line.P1.Y, line.P2.X, line.P2.Y)
		dc.Stroke()
		dc.DrawCircle(line.P1.X, line.P1.Y, 3/zoom)
		dc.Fill()
		dc.DrawCircle(line.P2.X, line.P2.Y, 3/zoom)
		dc.Fill()

		midX := (line.P1.X + line.P2.X) / 2
		midY := (line.P1.Y + line.P2.Y) / 2
		dc.DrawStringAnchored(fmt.Sprintf("%.2f um", line.Dist), midX, midY-6/zoom, 0.5, 0)
	}

	if f.TrailingPoint != nil {
		dc.DrawCircle(f.TrailingPoint.X, f.TrailingPoint.Y, 3/zoom)
		dc.Fill()
	}
}

// DrawBase renders a bare slice with no transform or overlays, used for the
// download-as-image path and the base-slice cache.
func (r *Renderer) DrawBase(slice image.Image) ([]byte, error) {
	if slice == nil {
		return nil, fmt.Errorf("no slice image")
	}
	b := slice.Bounds()
	pool := r.contextPool(b.Dx(), b.Dy())
	dc := pool.Get().(*gg.Context)
	defer pool.Put(dc)

	dc.SetHexColor(r.config.Background)
	dc.Clear()
	dc.DrawImage(slice, 0, 0)

	return r.encodeContext(dc)
}

func (r *Renderer) encodeContext(dc *gg.Context) ([]byte, error) {
	buf := r.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		r.bufferPool.Put(buf)
	}()

	// Use fast PNG encoder
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, dc.Image()); err != nil {
		return nil, err
	}

	// Copy buffer contents (buffer will be reused)
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}
