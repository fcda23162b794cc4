package clustering

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"pricegrid/server/internal/models"
)

const (
	// DefaultHeatmapCells is the grid resolution per axis when the caller
	// does not request one.
	DefaultHeatmapCells = 40

	// MaxHeatmapCells caps the per-axis resolution; beyond it payloads grow
	// quadratically while cells shrink below marker size.
	MaxHeatmapCells = 200
)

// Heatmap aggregates records into a gridCells x gridCells lattice over the
// bounding box and returns one cell per non-empty rectangle, ordered south to
// north then west to east. Records outside the box are ignored; records on
// the northern or eastern edge land in the outermost cell. Intensity is the
// cell's count (sales mode) or average price (price mode) divided by the grid
// maximum, so it always lies in (0, 1].
func Heatmap(records []models.PropertyRecord, bbox models.BoundingBox, gridCells int, mode models.HeatmapMode) ([]models.HeatmapCell, error) {
	if !bbox.Valid() || bbox.MinLat == bbox.MaxLat || bbox.MinLon == bbox.MaxLon {
		return nil, models.ErrInvalidViewport
	}
	if gridCells < 1 || gridCells > MaxHeatmapCells {
		return nil, models.ErrInvalidConfig
	}
	if mode != models.HeatmapPrice {
		mode = models.HeatmapSales
	}

	latStep := (bbox.MaxLat - bbox.MinLat) / float64(gridCells)
	lonStep := (bbox.MaxLon - bbox.MinLon) / float64(gridCells)

	type bucket struct {
		count    int
		priceSum float64
	}
	buckets := make(map[gridCell]*bucket)

	for _, r := range records {
		if !bbox.Contains(r.Latitude, r.Longitude) {
			continue
		}
		row := int64((r.Latitude - bbox.MinLat) / latStep)
		col := int64((r.Longitude - bbox.MinLon) / lonStep)
		if row >= int64(gridCells) {
			row = int64(gridCells) - 1
		}
		if col >= int64(gridCells) {
			col = int64(gridCells) - 1
		}

		key := gridCell{row: row, col: col}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.count++
		b.priceSum += float64(r.Price)
	}

	if len(buckets) == 0 {
		return []models.HeatmapCell{}, nil
	}

	var maxCount, maxAvgPrice float64
	for _, b := range buckets {
		avg := b.priceSum / float64(b.count)
		if float64(b.count) > maxCount {
			maxCount = float64(b.count)
		}
		if avg > maxAvgPrice {
			maxAvgPrice = avg
		}
	}

	keys := make([]gridCell, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].row != keys[j].row {
			return keys[i].row < keys[j].row
		}
		return keys[i].col < keys[j].col
	})

	cells := make([]models.HeatmapCell, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		avg := b.priceSum / float64(b.count)

		intensity := float64(b.count) / maxCount
		if mode == models.HeatmapPrice && maxAvgPrice > 0 {
			intensity = avg / maxAvgPrice
		}
		if intensity > 1 {
			intensity = 1
		}

		cells = append(cells, models.HeatmapCell{
			Bounds: models.BoundingBox{
				MinLat: bbox.MinLat + float64(key.row)*latStep,
				MaxLat: bbox.MinLat + float64(key.row+1)*latStep,
				MinLon: bbox.MinLon + float64(key.col)*lonStep,
				MaxLon: bbox.MinLon + float64(key.col+1)*lonStep,
			},
			Count:        b.count,
			AveragePrice: avg,
			Intensity:    intensity,
		})
	}

	return cells, nil
}

// HeatmapToGeoJSON renders heatmap cells as a FeatureCollection of rectangle
// polygons with intensity, count and price carried in properties.
func HeatmapToGeoJSON(cells []models.HeatmapCell) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, cell := range cells {
		b := cell.Bounds
		ring := orb.Ring{
			{b.MinLon, b.MinLat},
			{b.MaxLon, b.MinLat},
			{b.MaxLon, b.MaxLat},
			{b.MinLon, b.MaxLat},
			{b.MinLon, b.MinLat},
		}
		feature := geojson.NewFeature(orb.Polygon{ring})
		feature.Properties = geojson.Properties{
			"intensity":   cell.Intensity,
			"sales_count": cell.Count,
			"avg_price":   cell.AveragePrice,
		}
		fc.Append(feature)
	}

	return fc
}
