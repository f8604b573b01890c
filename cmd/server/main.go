// Package main is the entry point for the cryoViz viewer server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/annotation"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/api"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/cache"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/config"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/render"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/savedview"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/session"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/server.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting cryoViz viewer server on port %d", cfg.Server.Port)

	// Initialize cache manager (shared across all datasets)
	cacheManager, err := cache.NewManager(cache.Config{
		FrameCacheSizeMB: cfg.Cache.FrameSizeMB,
		FrameTTL:         time.Duration(cfg.Cache.FrameTTLMinutes) * time.Minute,
		BaseCacheSize:    1000,
	})
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer cacheManager.Close()

	// Initialize plane renderer (shared across all datasets)
	renderer := render.NewRenderer(render.Config{
		Background: cfg.Render.Background,
	})

	// Initialize dataset registry. Slice stacks load lazily on the first
	// session against each dataset.
	registry := api.NewDatasetRegistry(cfg.Data, cfg.Server.Title)
	datasetIDs := cfg.Data.DatasetIDs()
	log.Printf("Configured %d dataset(s), default: %s", len(datasetIDs), cfg.Data.DefaultDataset)
	for _, id := range datasetIDs {
		ds := cfg.Data.Datasets[id]
		log.Printf("  [%s] %s (%dx%dx%d, %.3f um/px)",
			id, ds.BaseURL, ds.NX, ds.NY, ds.NZ, ds.MicronsPerPixel)
	}

	// Initialize session registry
	sessions, err := session.NewManager(cfg.Cache.MaxSessions)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	// Initialize persistence
	annStore, err := annotation.NewSQLiteStore(cfg.Store.AnnotationsPath)
	if err != nil {
		log.Fatalf("Failed to open annotation store: %v", err)
	}
	defer annStore.Close()
	log.Printf("Annotation store: %s", cfg.Store.AnnotationsPath)

	viewStore, err := savedview.NewSQLiteStore(cfg.Store.ViewsPath)
	if err != nil {
		log.Fatalf("Failed to open saved-view store: %v", err)
	}
	defer viewStore.Close()
	log.Printf("Saved-view store: %s", cfg.Store.ViewsPath)

	// Set up HTTP router
	router := api.NewRouter(api.RouterConfig{
		Registry:    registry,
		Sessions:    sessions,
		Annotations: annStore,
		Views:       viewStore,
		Cache:       cacheManager,
		Renderer:    renderer,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on http://localhost:%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
