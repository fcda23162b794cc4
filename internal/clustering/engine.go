// Package clustering groups viewport records into zoom-appropriate map
// features: aggregated clusters where the map is dense, individual points
// where it is not.
package clustering

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"pricegrid/server/internal/models"
	"pricegrid/server/internal/spatial"
)

// PriceAggregate selects the statistic applied to member prices of a cluster.
type PriceAggregate string

const (
	AggregateMean   PriceAggregate = "mean"
	AggregateMedian PriceAggregate = "median"
)

// Engine turns spatial index queries into renderable map features.
type Engine struct {
	logger    *logrus.Logger
	aggregate PriceAggregate

	// cellSizeForZoom derives the clustering grid resolution from the zoom
	// level; higher zoom must yield smaller (or equal) cells
	cellSizeForZoom func(zoom int) float64
}

// NewEngine creates a cluster engine. The aggregate policy is fixed for the
// lifetime of the engine so repeated queries stay consistent.
func NewEngine(cellSizeForZoom func(int) float64, aggregate PriceAggregate, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	if aggregate != AggregateMedian {
		aggregate = AggregateMean
	}
	return &Engine{
		logger:          logger,
		aggregate:       aggregate,
		cellSizeForZoom: cellSizeForZoom,
	}
}

type gridCell struct {
	row, col int64
}

// Cluster queries the index for the viewport and either returns every record
// as an individual MapPoint (when fewer than targetClusterCount records are
// visible) or partitions the viewport into a zoom-derived grid and emits one
// MapCluster per non-empty cell. Cells with a single member are always
// demoted to MapPoint. A degenerate zero-area viewport acts as a point query.
func (e *Engine) Cluster(ix *spatial.Index, viewport models.Viewport, targetClusterCount int) ([]models.MapFeature, error) {
	if err := viewport.Validate(); err != nil {
		return nil, err
	}
	if targetClusterCount < 1 {
		return nil, models.ErrInvalidConfig
	}

	records := ix.Query(viewport.BoundingBox)
	if len(records) == 0 {
		return []models.MapFeature{}, nil
	}

	if viewport.Degenerate() || len(records) < targetClusterCount {
		return pointFeatures(records), nil
	}

	cellSize := e.cellSizeForZoom(viewport.Zoom)
	features := e.partition(records, cellSize)

	e.logger.WithFields(logrus.Fields{
		"zoom":      viewport.Zoom,
		"records":   len(records),
		"features":  len(features),
		"cell_size": cellSize,
	}).Debug("Clustered viewport")

	return features, nil
}

// priceBandEdges are the lower bounds of the fixed price bands used by the
// price cluster mode, in euro cents. Band i covers [edges[i], edges[i+1]);
// the last band is unbounded above.
var priceBandEdges = []int64{
	0,
	10_000_000,  // 100k euro
	20_000_000,  // 200k
	30_000_000,  // 300k
	40_000_000,  // 400k
	50_000_000,  // 500k
	75_000_000,  // 750k
	100_000_000, // 1M
}

func priceBandIndex(price int64) int {
	for i := len(priceBandEdges) - 1; i > 0; i-- {
		if price >= priceBandEdges[i] {
			return i
		}
	}
	return 0
}

// ClusterByPriceBand groups viewport records into fixed price bands and grid
// clusters each band independently, so a marker never mixes price ranges.
// Validation, the below-target shortcut and the degenerate point query match
// Cluster; bands are emitted cheapest first, each internally ordered the same
// way as the geographic mode.
func (e *Engine) ClusterByPriceBand(ix *spatial.Index, viewport models.Viewport, targetClusterCount int) ([]models.MapFeature, error) {
	if err := viewport.Validate(); err != nil {
		return nil, err
	}
	if targetClusterCount < 1 {
		return nil, models.ErrInvalidConfig
	}

	records := ix.Query(viewport.BoundingBox)
	if len(records) == 0 {
		return []models.MapFeature{}, nil
	}

	if viewport.Degenerate() || len(records) < targetClusterCount {
		return pointFeatures(records), nil
	}

	bands := make([][]models.PropertyRecord, len(priceBandEdges))
	for _, r := range records {
		i := priceBandIndex(r.Price)
		bands[i] = append(bands[i], r)
	}

	cellSize := e.cellSizeForZoom(viewport.Zoom)
	features := make([]models.MapFeature, 0, len(records))
	for _, band := range bands {
		if len(band) == 0 {
			continue
		}
		features = append(features, e.partition(band, cellSize)...)
	}

	e.logger.WithFields(logrus.Fields{
		"zoom":      viewport.Zoom,
		"records":   len(records),
		"features":  len(features),
		"cell_size": cellSize,
	}).Debug("Clustered viewport by price band")

	return features, nil
}

// partition grid-clusters a record set at the given cell size, emitting one
// feature per non-empty cell in deterministic (row, col) order.
func (e *Engine) partition(records []models.PropertyRecord, cellSize float64) []models.MapFeature {
	cells := make(map[gridCell][]models.PropertyRecord)
	for _, r := range records {
		// Floor division: boundary records land in the lower-indexed cell
		key := gridCell{
			row: int64(math.Floor(r.Latitude / cellSize)),
			col: int64(math.Floor(r.Longitude / cellSize)),
		}
		cells[key] = append(cells[key], r)
	}

	keys := make([]gridCell, 0, len(cells))
	for key := range cells {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].row != keys[j].row {
			return keys[i].row < keys[j].row
		}
		return keys[i].col < keys[j].col
	})

	features := make([]models.MapFeature, 0, len(keys))
	for _, key := range keys {
		members := cells[key]
		if len(members) == 1 {
			features = append(features, pointFeature(members[0]))
			continue
		}
		features = append(features, models.ClusterFeature(e.buildCluster(members)))
	}

	return features
}

// buildCluster aggregates a non-empty member set into a single cluster. The
// centroid is the arithmetic mean of member coordinates, which always lies
// within the members' convex hull.
func (e *Engine) buildCluster(members []models.PropertyRecord) models.MapCluster {
	var sumLat, sumLon float64
	bounds := models.BoundingBox{
		MinLat: members[0].Latitude,
		MaxLat: members[0].Latitude,
		MinLon: members[0].Longitude,
		MaxLon: members[0].Longitude,
	}

	prices := make([]float64, len(members))
	for i, m := range members {
		sumLat += m.Latitude
		sumLon += m.Longitude
		prices[i] = float64(m.Price)

		bounds.MinLat = math.Min(bounds.MinLat, m.Latitude)
		bounds.MaxLat = math.Max(bounds.MaxLat, m.Latitude)
		bounds.MinLon = math.Min(bounds.MinLon, m.Longitude)
		bounds.MaxLon = math.Max(bounds.MaxLon, m.Longitude)
	}

	n := float64(len(members))
	return models.MapCluster{
		Latitude:  sumLat / n,
		Longitude: sumLon / n,
		Count:     len(members),
		Price:     e.aggregatePrice(prices),
		Bounds:    bounds,
	}
}

func (e *Engine) aggregatePrice(prices []float64) float64 {
	if e.aggregate == AggregateMedian {
		sorted := make([]float64, len(prices))
		copy(sorted, prices)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			return (sorted[mid-1] + sorted[mid]) / 2
		}
		return sorted[mid]
	}

	var sum float64
	for _, p := range prices {
		sum += p
	}
	return sum / float64(len(prices))
}

func pointFeature(r models.PropertyRecord) models.MapFeature {
	return models.PointFeature(models.MapPoint{
		ID:        r.ID,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Price:     r.Price,
	})
}

func pointFeatures(records []models.PropertyRecord) []models.MapFeature {
	features := make([]models.MapFeature, len(records))
	for i, r := range records {
		features[i] = pointFeature(r)
	}
	return features
}
