// Package spatial provides a grid-bucket index over property record
// coordinates for sublinear bounding-box queries.
package spatial

import (
	"math"

	"pricegrid/server/internal/models"
)

// DefaultCellSize is used when the caller does not supply a cell size. At
// roughly 5.5km of latitude per cell it keeps bucket counts reasonable for
// country-scale datasets.
const DefaultCellSize = 0.05

type cellKey struct {
	Row int64
	Col int64
}

// Index buckets records into fixed-size grid cells keyed by floor-divided
// coordinates. Building is a pure function of the input snapshot; queries
// never mutate the index, so a built index is safe for concurrent readers.
type Index struct {
	cellSize float64
	cells    map[cellKey][]models.PropertyRecord
	size     int
}

// NewIndex builds an index over the given records. Records with identical
// coordinates are all retained. An empty input yields an empty index.
func NewIndex(records []models.PropertyRecord, cellSize float64) *Index {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}

	ix := &Index{
		cellSize: cellSize,
		cells:    make(map[cellKey][]models.PropertyRecord),
	}

	for _, r := range records {
		key := ix.keyFor(r.Latitude, r.Longitude)
		ix.cells[key] = append(ix.cells[key], r)
		ix.size++
	}

	return ix
}

// Size returns the number of indexed records.
func (ix *Index) Size() int {
	return ix.size
}

// CellSize returns the grid cell size in degrees.
func (ix *Index) CellSize() float64 {
	return ix.cellSize
}

// keyFor assigns a coordinate to its grid cell. Floor division puts records
// exactly on a cell boundary into the lower-indexed cell.
func (ix *Index) keyFor(lat, lon float64) cellKey {
	return cellKey{
		Row: int64(math.Floor(lat / ix.cellSize)),
		Col: int64(math.Floor(lon / ix.cellSize)),
	}
}

// Query returns all records whose coordinates lie within the box, bounds
// inclusive. Only cells overlapping the box are visited, so the scan cost is
// proportional to the covered area rather than the full record count.
func (ix *Index) Query(bbox models.BoundingBox) []models.PropertyRecord {
	if ix.size == 0 || !bbox.Valid() {
		return nil
	}

	minKey := ix.keyFor(bbox.MinLat, bbox.MinLon)
	maxKey := ix.keyFor(bbox.MaxLat, bbox.MaxLon)

	var matched []models.PropertyRecord
	for row := minKey.Row; row <= maxKey.Row; row++ {
		for col := minKey.Col; col <= maxKey.Col; col++ {
			for _, r := range ix.cells[cellKey{Row: row, Col: col}] {
				if bbox.Contains(r.Latitude, r.Longitude) {
					matched = append(matched, r)
				}
			}
		}
	}

	return matched
}
