// Package cache provides caching for rendered plane frames and base slices.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lokeshvelayudham/cryoVizWeb-sub000/pkg/geometry"
)

// Config contains cache configuration.
type Config struct {
	FrameCacheSizeMB int
	FrameTTL         time.Duration
	BaseCacheSize    int
}

// Manager manages the frame and base-slice caches. Frames are fully
// composited plane renders keyed by session state; base slices are encoded
// renders of a bare slice with no overlays.
type Manager struct {
	frameCache *bigcache.BigCache
	baseCache  *lru.Cache[string, []byte]
}

// NewManager creates a new cache manager.
func NewManager(cfg Config) (*Manager, error) {
	frameCacheConfig := bigcache.Config{
		Shards:             1024,
		LifeWindow:         cfg.FrameTTL,
		CleanWindow:        cfg.FrameTTL / 2,
		MaxEntriesInWindow: 100000,
		MaxEntrySize:       512 * 1024, // full plane composites, not tiles
		HardMaxCacheSize:   cfg.FrameCacheSizeMB,
		Verbose:            false,
	}

	frameCache, err := bigcache.New(context.Background(), frameCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create frame cache: %w", err)
	}

	baseCache, err := lru.New[string, []byte](cfg.BaseCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create base-slice cache: %w", err)
	}

	return &Manager{
		frameCache: frameCache,
		baseCache:  baseCache,
	}, nil
}

// GetFrame retrieves a composited frame from cache.
func (m *Manager) GetFrame(key string) ([]byte, bool) {
	data, err := m.frameCache.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetFrame stores a composited frame in cache.
func (m *Manager) SetFrame(key string, data []byte) error {
	return m.frameCache.Set(key, data)
}

// GetBase retrieves an encoded base slice from cache.
func (m *Manager) GetBase(key string) ([]byte, bool) {
	return m.baseCache.Get(key)
}

// SetBase stores an encoded base slice in cache.
func (m *Manager) SetBase(key string, data []byte) {
	m.baseCache.Add(key, data)
}

// FrameKey generates a cache key for a composited plane frame. stateRev is
// the session's monotonically increasing revision: any cursor, transform,
// mode or measurement mutation bumps it, so stale frames are simply never
// requested again and age out of the cache.
func FrameKey(dataset, sessionID string, plane geometry.Plane, stateRev uint64) string {
	return fmt.Sprintf("frame:%s:%s:%s:%d", dataset, sessionID, plane, stateRev)
}

// BaseSliceKey generates a cache key for a bare slice render.
func BaseSliceKey(dataset string, plane geometry.Plane, slice int) string {
	return fmt.Sprintf("base:%s:%s:%d", dataset, plane, slice)
}

// Stats returns cache statistics.
func (m *Manager) Stats() map[string]interface{} {
	return map[string]interface{}{
		"frame_cache_len": m.frameCache.Len(),
		"frame_cache_cap": m.frameCache.Capacity(),
		"base_cache_len":  m.baseCache.Len(),
	}
}

// Close closes the cache manager.
func (m *Manager) Close() error {
	return m.frameCache.Close()
}
