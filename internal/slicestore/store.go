// Package slicestore loads and holds the per-plane slice stacks of a
// volumetric dataset from a remote image source.
package slicestore

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/lokeshvelayudham/cryoVizWeb-sub000/pkg/geometry"
)

// Config contains slice store configuration.
type Config struct {
	// BaseURL is the image source root. Slices are fetched from
	// {BaseURL}/{plane}/{index:%03d}.png.
	BaseURL string
	Dims    geometry.VolumeDims
	Client  *http.Client
	// FetchConcurrency bounds in-flight fetches per plane (default 16).
	FetchConcurrency int
}

// LoadFailure reports the first slice that failed to fetch or decode.
// A single failure aborts the whole load: the store is either fully ready
// or not ready at all.
type LoadFailure struct {
	Plane geometry.Plane
	Index int
	Err   error
}

func (e *LoadFailure) Error() string {
	return fmt.Sprintf("slice load failed: plane %s index %d: %v", e.Plane, e.Index, e.Err)
}

func (e *LoadFailure) Unwrap() error {
	return e.Err
}

// Store holds the three decoded slice stacks. Stacks are immutable once
// loaded; the load runs at most once, detached from any caller's context,
// and its outcome is sticky — a failed load is surfaced to every caller
// and never retried automatically.
type Store struct {
	cfg    Config
	client *http.Client

	mu      sync.Mutex
	loading chan struct{}
	loaded  bool
	loadErr error
	stacks  map[geometry.Plane][]image.Image
	sizes   map[geometry.Plane]image.Point
}

// New creates a slice store. No I/O happens until Load.
func New(cfg Config) *Store {
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 16
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Store{cfg: cfg, client: client}
}

// Load bulk-fetches all NZ+NY+NX slices, every plane concurrently and every
// slice within a plane concurrently. The first decoded image of each plane
// establishes that plane's pixel dimensions; the rest are assumed identical.
// The fetch itself runs detached from the caller's context: ctx only bounds
// how long this caller waits, so a caller that gives up does not cancel the
// load for everyone else.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.loaded {
		err := s.loadErr
		s.mu.Unlock()
		return err
	}
	if s.loading == nil {
		s.loading = make(chan struct{})
		go s.runLoad(s.loading)
	}
	done := s.loading
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

func (s *Store) runLoad(done chan struct{}) {
	stacks, sizes, err := s.load(context.Background())
	s.mu.Lock()
	s.stacks, s.sizes, s.loadErr = stacks, sizes, err
	s.loaded = true
	s.mu.Unlock()
	close(done)
}

// Ready reports whether all three stacks loaded successfully.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded && s.loadErr == nil
}

// Dims returns the volume extents.
func (s *Store) Dims() geometry.VolumeDims {
	return s.cfg.Dims
}

// Slice returns the decoded raster for one slice of a plane.
func (s *Store) Slice(p geometry.Plane, index int) (image.Image, error) {
	s.mu.Lock()
	stack, ok := s.stacks[p]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("plane %s not loaded", p)
	}
	if index < 0 || index >= len(stack) {
		return nil, fmt.Errorf("slice index %d out of range for plane %s (have %d)", index, p, len(stack))
	}
	return stack[index], nil
}

// PlaneSize returns the pixel dimensions of a plane's raster, which also
// define that plane's canvas size.
func (s *Store) PlaneSize(p geometry.Plane) (w, h int, err error) {
	s.mu.Lock()
	size, ok := s.sizes[p]
	s.mu.Unlock()
	if !ok {
		return 0, 0, fmt.Errorf("plane %s not loaded", p)
	}
	return size.X, size.Y, nil
}

func (s *Store) load(ctx context.Context) (map[geometry.Plane][]image.Image, map[geometry.Plane]image.Point, error) {
	type planeResult struct {
		plane geometry.Plane
		stack []image.Image
	}

	results := make([]planeResult, 0, 3)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, plane := range geometry.Planes() {
		plane := plane
		g.Go(func() error {
			stack, err := s.loadPlane(ctx, plane)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, planeResult{plane: plane, stack: stack})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	stacks := make(map[geometry.Plane][]image.Image, 3)
	sizes := make(map[geometry.Plane]image.Point, 3)
	for _, r := range results {
		stacks[r.plane] = r.stack
		b := r.stack[0].Bounds()
		sizes[r.plane] = image.Point{X: b.Dx(), Y: b.Dy()}
	}
	return stacks, sizes, nil
}

func (s *Store) loadPlane(ctx context.Context, plane geometry.Plane) ([]image.Image, error) {
	count := s.cfg.Dims.SliceCount(plane)
	if count <= 0 {
		return nil, &LoadFailure{Plane: plane, Index: 0, Err: fmt.Errorf("empty stack (%d slices)", count)}
	}

	stack := make([]image.Image, count)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FetchConcurrency)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			img, err := s.fetchSlice(ctx, plane, i)
			if err != nil {
				return &LoadFailure{Plane: plane, Index: i, Err: err}
			}
			stack[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stack, nil
}

func (s *Store) fetchSlice(ctx context.Context, plane geometry.Plane, index int) (image.Image, error) {
	url := fmt.Sprintf("%s/%s/%03d.png", strings.TrimRight(s.cfg.BaseURL, "/"), plane, index)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Encoding", "zstd")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	var body io.Reader = resp.Body
	// Large cryo tiles are often served precompressed.
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "zstd") {
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		defer zr.Close()
		body = zr
	}

	img, err := png.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("png decode: %w", err)
	}
	return img, nil
}
