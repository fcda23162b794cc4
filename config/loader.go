package config

import (
	"fmt"
	"math"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"pricegrid/server/internal/models"
)

// GridProfile maps zoom levels to clustering grid cell sizes in degrees.
// Zoom levels absent from the profile fall back to the built-in formula.
type GridProfile struct {
	CellSizes map[int]float64 `yaml:"cell_sizes"`
}

var (
	gridProfile *GridProfile
	gridLock    sync.RWMutex
)

// LoadGridProfile reads a YAML zoom-to-cell-size profile. Passing an empty
// path clears any previously loaded profile.
func LoadGridProfile(path string) error {
	gridLock.Lock()
	defer gridLock.Unlock()

	if path == "" {
		gridProfile = nil
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read grid profile: %v", err)
	}

	var profile GridProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return fmt.Errorf("failed to parse grid profile: %v", err)
	}

	for zoom, size := range profile.CellSizes {
		if zoom < models.MinZoom || zoom > models.MaxZoom || size <= 0 {
			return fmt.Errorf("grid profile entry zoom=%d cell_size=%f: %w", zoom, size, models.ErrInvalidConfig)
		}
	}

	gridProfile = &profile
	return nil
}

// CellSizeForZoom returns the clustering grid cell size in degrees for a zoom
// level. The default halves the cell size per zoom step down to a floor of
// about 0.008 degrees (under a kilometre of latitude). Because every size is
// a power-of-two division of the same base, grids at consecutive zoom levels
// nest exactly: finer zoom can only refine a coarser partition, never coarsen
// it. Profiles that override the default must keep cell sizes non-increasing
// in zoom to preserve that property.
func CellSizeForZoom(zoom int) float64 {
	gridLock.RLock()
	if gridProfile != nil {
		if size, ok := gridProfile.CellSizes[zoom]; ok {
			gridLock.RUnlock()
			return size
		}
	}
	gridLock.RUnlock()

	if zoom > 11 {
		zoom = 11
	}
	return 0.5 / math.Pow(2, float64(zoom-5))
}
