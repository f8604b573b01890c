// Package config handles configuration loading for the cryoViz viewer server.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Data   DataConfig   `yaml:"data"`
	Cache  CacheConfig  `yaml:"cache"`
	Render RenderConfig `yaml:"render"`
	Store  StoreConfig  `yaml:"store"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	Title       string   `yaml:"title"`
}

// DatasetConfig describes one volumetric dataset: where its slice stacks are
// served from, its voxel extents, and its physical calibration.
type DatasetConfig struct {
	BaseURL         string  `yaml:"base_url"`
	NX              int     `yaml:"nx"`
	NY              int     `yaml:"ny"`
	NZ              int     `yaml:"nz"`
	MicronsPerPixel float64 `yaml:"microns_per_pixel"`
}

// DataConfig contains the dataset table. YAML map order is preserved so the
// first dataset listed becomes the default unless one is named explicitly.
type DataConfig struct {
	DefaultDataset string
	Datasets       map[string]DatasetConfig
	order          []string
}

// UnmarshalYAML parses the data section while keeping dataset declaration order.
func (d *DataConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("data section must be a mapping")
	}

	d.Datasets = make(map[string]DatasetConfig)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		if key == "default" {
			if err := value.Content[i+1].Decode(&d.DefaultDataset); err != nil {
				return err
			}
			continue
		}
		var ds DatasetConfig
		if err := value.Content[i+1].Decode(&ds); err != nil {
			return fmt.Errorf("dataset %q: %w", key, err)
		}
		d.Datasets[key] = ds
		d.order = append(d.order, key)
	}

	if d.DefaultDataset == "" && len(d.order) > 0 {
		d.DefaultDataset = d.order[0]
	}
	return nil
}

// DatasetIDs returns dataset IDs in config order.
func (d *DataConfig) DatasetIDs() []string {
	return d.order
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	FrameSizeMB     int `yaml:"frame_size_mb"`
	FrameTTLMinutes int `yaml:"frame_ttl_minutes"`
	MaxSessions     int `yaml:"max_sessions"`
}

// RenderConfig contains rendering settings.
type RenderConfig struct {
	Background string `yaml:"background"`
}

// StoreConfig contains persistence settings.
type StoreConfig struct {
	AnnotationsPath string `yaml:"annotations_path"`
	ViewsPath       string `yaml:"views_path"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Cache: CacheConfig{
			FrameSizeMB:     256,
			FrameTTLMinutes: 10,
			MaxSessions:     256,
		},
		Render: RenderConfig{
			Background: "#000000",
		},
		Store: StoreConfig{
			AnnotationsPath: "./data/annotations.sqlite",
			ViewsPath:       "./data/views.sqlite",
		},
	}
	cfg.Data.Datasets = map[string]DatasetConfig{}
	return cfg
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Cache.FrameSizeMB == 0 {
		cfg.Cache.FrameSizeMB = defaults.Cache.FrameSizeMB
	}
	if cfg.Cache.FrameTTLMinutes == 0 {
		cfg.Cache.FrameTTLMinutes = defaults.Cache.FrameTTLMinutes
	}
	if cfg.Cache.MaxSessions == 0 {
		cfg.Cache.MaxSessions = defaults.Cache.MaxSessions
	}
	if cfg.Render.Background == "" {
		cfg.Render.Background = defaults.Render.Background
	}
	if cfg.Store.AnnotationsPath == "" {
		cfg.Store.AnnotationsPath = defaults.Store.AnnotationsPath
	}
	if cfg.Store.ViewsPath == "" {
		cfg.Store.ViewsPath = defaults.Store.ViewsPath
	}
	if cfg.Data.Datasets == nil {
		cfg.Data.Datasets = map[string]DatasetConfig{}
	}
	for id, ds := range cfg.Data.Datasets {
		if ds.MicronsPerPixel == 0 {
			ds.MicronsPerPixel = 1.0
			cfg.Data.Datasets[id] = ds
		}
	}
}
