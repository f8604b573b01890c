package api

import (
	"context"

	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/config"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/session"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/internal/slicestore"
	"github.com/lokeshvelayudham/cryoVizWeb-sub000/pkg/geometry"
)

// DatasetInfo contains information about a dataset for the API response.
type DatasetInfo struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Dims            geometry.VolumeDims `json:"dims"`
	MicronsPerPixel float64             `json:"micronsPerPixel"`
	Loaded          bool                `json:"loaded"`
}

// Dataset bundles one dataset's configuration with its slice store. The
// store loads lazily on the first session against the dataset; a failed
// load stays failed until the server restarts.
type Dataset struct {
	ID     string
	Config config.DatasetConfig
	Store  *slicestore.Store
}

// Ensure loads the dataset's slices if they are not loaded yet.
func (d *Dataset) Ensure(ctx context.Context) error {
	return d.Store.Load(ctx)
}

// PlaneSizes returns the pixel dimensions of each plane's slices. Valid
// only after Ensure succeeded.
func (d *Dataset) PlaneSizes() (map[geometry.Plane]session.PlaneSize, error) {
	sizes := make(map[geometry.Plane]session.PlaneSize, 3)
	for _, p := range geometry.Planes() {
		w, h, err := d.Store.PlaneSize(p)
		if err != nil {
			return nil, err
		}
		sizes[p] = session.PlaneSize{W: w, H: h}
	}
	return sizes, nil
}

// DatasetRegistry holds all configured datasets.
type DatasetRegistry struct {
	datasets       map[string]*Dataset
	defaultDataset string
	datasetOrder   []string
	title          string
}

// NewDatasetRegistry builds the registry from the data config section.
func NewDatasetRegistry(data config.DataConfig, title string) *DatasetRegistry {
	r := &DatasetRegistry{
		datasets:       make(map[string]*Dataset),
		defaultDataset: data.DefaultDataset,
		datasetOrder:   data.DatasetIDs(),
		title:          title,
	}
	for id, ds := range data.Datasets {
		r.datasets[id] = &Dataset{
			ID:     id,
			Config: ds,
			Store: slicestore.New(slicestore.Config{
				BaseURL: ds.BaseURL,
				Dims:    geometry.VolumeDims{NX: ds.NX, NY: ds.NY, NZ: ds.NZ},
			}),
		}
	}
	return r
}

// Get returns the dataset, or nil if not found.
func (r *DatasetRegistry) Get(datasetID string) *Dataset {
	return r.datasets[datasetID]
}

// DefaultDatasetID returns the default dataset ID.
func (r *DatasetRegistry) DefaultDatasetID() string {
	return r.defaultDataset
}

// DatasetIDs returns all dataset IDs in config order.
func (r *DatasetRegistry) DatasetIDs() []string {
	return r.datasetOrder
}

// Title returns the configured site title.
func (r *DatasetRegistry) Title() string {
	if r.title != "" {
		return r.title
	}
	return "cryoViz"
}

// Datasets returns dataset info for all registered datasets.
func (r *DatasetRegistry) Datasets() []DatasetInfo {
	infos := make([]DatasetInfo, 0, len(r.datasetOrder))
	for _, id := range r.datasetOrder {
		ds := r.datasets[id]
		infos = append(infos, DatasetInfo{
			ID:              id,
			Name:            id,
			Dims:            ds.Store.Dims(),
			MicronsPerPixel: ds.Config.MicronsPerPixel,
			Loaded:          ds.Store.Ready(),
		})
	}
	return infos
}
