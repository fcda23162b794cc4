package clustering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricegrid/server/config"
	"pricegrid/server/internal/models"
	"pricegrid/server/internal/spatial"
)

func dublinViewport(zoom int) models.Viewport {
	return models.Viewport{
		BoundingBox: models.BoundingBox{MinLat: 53.30, MaxLat: 53.35, MinLon: -6.30, MaxLon: -6.25},
		Zoom:        zoom,
	}
}

func record(id int64, lat, lon float64, price int64) models.PropertyRecord {
	return models.PropertyRecord{ID: id, Latitude: lat, Longitude: lon, Price: price}
}

// uniformRecords spreads n records evenly over the Dublin viewport.
func uniformRecords(n int) []models.PropertyRecord {
	records := make([]models.PropertyRecord, 0, n)
	side := 1
	for side*side < n {
		side++
	}
	for i := 0; i < n; i++ {
		row := i / side
		col := i % side
		records = append(records, record(
			int64(i+1),
			53.30+0.05*float64(row)/float64(side),
			-6.30+0.05*float64(col)/float64(side),
			200000+int64(i)*1000,
		))
	}
	return records
}

func newTestEngine() *Engine {
	return NewEngine(config.CellSizeForZoom, AggregateMean, nil)
}

func TestClusterBelowDensityThresholdReturnsPoints(t *testing.T) {
	records := []models.PropertyRecord{
		record(1, 53.31, -6.29, 250000),
		record(2, 53.32, -6.27, 300000),
		record(3, 53.34, -6.26, 410000),
	}
	ix := spatial.NewIndex(records, 0.05)

	features, err := newTestEngine().Cluster(ix, dublinViewport(14), 10)
	require.NoError(t, err)

	require.Len(t, features, 3)
	for _, f := range features {
		assert.Equal(t, models.FeatureKindPoint, f.Kind)
		assert.Nil(t, f.Cluster)
		assert.NotNil(t, f.Point)
	}
}

func TestClusterDenseViewportEmitsClusters(t *testing.T) {
	records := uniformRecords(500)
	ix := spatial.NewIndex(records, 0.05)

	features, err := newTestEngine().Cluster(ix, dublinViewport(14), 10)
	require.NoError(t, err)
	require.NotEmpty(t, features)

	total := 0
	sawCluster := false
	for _, f := range features {
		total += f.MemberCount()
		if f.Kind == models.FeatureKindCluster {
			sawCluster = true
			assert.GreaterOrEqual(t, f.Cluster.Count, 2, "single-member cells must be demoted to points")
			assert.True(t, f.Cluster.Bounds.Contains(f.Cluster.Latitude, f.Cluster.Longitude),
				"centroid must lie within the member bounds")
		}
	}
	assert.True(t, sawCluster, "500 uniform records above threshold should form clusters")
	assert.Equal(t, 500, total, "member counts must sum to the record count")
}

// Partition property: every record in the viewport appears in exactly one
// feature, none lost, none duplicated.
func TestClusterPartitionsViewportRecords(t *testing.T) {
	records := uniformRecords(137)
	ix := spatial.NewIndex(records, 0.05)
	viewport := dublinViewport(11)

	features, err := newTestEngine().Cluster(ix, viewport, 10)
	require.NoError(t, err)

	inViewport := 0
	for _, r := range records {
		if viewport.Contains(r.Latitude, r.Longitude) {
			inViewport++
		}
	}

	total := 0
	for _, f := range features {
		total += f.MemberCount()
	}
	assert.Equal(t, inViewport, total)
}

func TestClusterZoomMonotonicity(t *testing.T) {
	records := uniformRecords(400)
	ix := spatial.NewIndex(records, 0.05)
	engine := newTestEngine()

	previous := 0
	for zoom := models.MinZoom; zoom <= models.MaxZoom; zoom++ {
		features, err := engine.Cluster(ix, dublinViewport(zoom), 10)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(features), previous,
			"increasing zoom must not decrease the feature count (zoom %d)", zoom)
		previous = len(features)
	}
}

func TestClusterMalformedViewport(t *testing.T) {
	ix := spatial.NewIndex(uniformRecords(20), 0.05)

	tests := []struct {
		name     string
		viewport models.Viewport
	}{
		{
			name: "min latitude above max",
			viewport: models.Viewport{
				BoundingBox: models.BoundingBox{MinLat: 53.35, MaxLat: 53.30, MinLon: -6.30, MaxLon: -6.25},
				Zoom:        12,
			},
		},
		{
			name: "min longitude above max",
			viewport: models.Viewport{
				BoundingBox: models.BoundingBox{MinLat: 53.30, MaxLat: 53.35, MinLon: -6.25, MaxLon: -6.30},
				Zoom:        12,
			},
		},
		{
			name:     "zoom out of range",
			viewport: models.Viewport{BoundingBox: models.BoundingBox{MinLat: 53.30, MaxLat: 53.35, MinLon: -6.30, MaxLon: -6.25}, Zoom: 21},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features, err := newTestEngine().Cluster(ix, tt.viewport, 10)
			assert.ErrorIs(t, err, models.ErrInvalidViewport)
			assert.Empty(t, features)
		})
	}
}

func TestClusterDegenerateViewportIsPointQuery(t *testing.T) {
	records := []models.PropertyRecord{
		record(1, 53.33, -6.27, 100000),
		record(2, 53.33, -6.27, 200000),
		record(3, 53.34, -6.28, 300000),
	}
	ix := spatial.NewIndex(records, 0.05)

	viewport := models.Viewport{
		BoundingBox: models.BoundingBox{MinLat: 53.33, MaxLat: 53.33, MinLon: -6.27, MaxLon: -6.27},
		Zoom:        14,
	}

	features, err := newTestEngine().Cluster(ix, viewport, 1)
	require.NoError(t, err)

	require.Len(t, features, 2, "only records at the exact location are returned")
	for _, f := range features {
		assert.Equal(t, models.FeatureKindPoint, f.Kind)
	}
}

func TestClusterEmptyViewport(t *testing.T) {
	ix := spatial.NewIndex(uniformRecords(50), 0.05)

	viewport := models.Viewport{
		BoundingBox: models.BoundingBox{MinLat: 10, MaxLat: 11, MinLon: 10, MaxLon: 11},
		Zoom:        10,
	}

	features, err := newTestEngine().Cluster(ix, viewport, 10)
	require.NoError(t, err)
	assert.Empty(t, features)
}

func TestClusterPriceAggregates(t *testing.T) {
	// Four records in one grid cell at low zoom
	records := []models.PropertyRecord{
		record(1, 53.310, -6.290, 100000),
		record(2, 53.311, -6.291, 200000),
		record(3, 53.312, -6.292, 300000),
		record(4, 53.313, -6.293, 800000),
	}
	ix := spatial.NewIndex(records, 0.05)
	viewport := dublinViewport(5)

	t.Run("mean", func(t *testing.T) {
		engine := NewEngine(config.CellSizeForZoom, AggregateMean, nil)
		features, err := engine.Cluster(ix, viewport, 2)
		require.NoError(t, err)
		require.Len(t, features, 1)
		require.Equal(t, models.FeatureKindCluster, features[0].Kind)
		assert.InDelta(t, 350000, features[0].Cluster.Price, 0.001)
	})

	t.Run("median", func(t *testing.T) {
		engine := NewEngine(config.CellSizeForZoom, AggregateMedian, nil)
		features, err := engine.Cluster(ix, viewport, 2)
		require.NoError(t, err)
		require.Len(t, features, 1)
		require.Equal(t, models.FeatureKindCluster, features[0].Kind)
		assert.InDelta(t, 250000, features[0].Cluster.Price, 0.001)
	})
}

func TestClusterDeterministicOrdering(t *testing.T) {
	records := uniformRecords(200)
	ix := spatial.NewIndex(records, 0.05)
	engine := newTestEngine()

	first, err := engine.Cluster(ix, dublinViewport(13), 10)
	require.NoError(t, err)
	second, err := engine.Cluster(ix, dublinViewport(13), 10)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Kind, second[i].Kind)
		assert.Equal(t, first[i].MemberCount(), second[i].MemberCount())
	}
}

func TestPriceBandIndex(t *testing.T) {
	tests := []struct {
		price    int64
		expected int
	}{
		{0, 0},
		{9_999_999, 0},   // just under 100k euro
		{10_000_000, 1},  // exactly 100k
		{49_999_999, 4},  // just under 500k
		{50_000_000, 5},  // exactly 500k
		{75_000_000, 6},  // 750k
		{100_000_000, 7}, // 1M
		{2_000_000_000, 7},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, priceBandIndex(tt.price), "price %d", tt.price)
	}
}

func TestClusterByPriceBandSeparatesBands(t *testing.T) {
	// Two price groups at identical locations: geographic mode merges them,
	// price mode must keep them apart
	records := []models.PropertyRecord{
		record(1, 53.320, -6.270, 5_000_000),
		record(2, 53.321, -6.271, 6_000_000),
		record(3, 53.320, -6.270, 200_000_000),
		record(4, 53.321, -6.271, 210_000_000),
	}
	ix := spatial.NewIndex(records, 0.05)
	viewport := dublinViewport(5)
	engine := newTestEngine()

	geographic, err := engine.Cluster(ix, viewport, 2)
	require.NoError(t, err)
	require.Len(t, geographic, 1)
	assert.Equal(t, 4, geographic[0].MemberCount())

	byBand, err := engine.ClusterByPriceBand(ix, viewport, 2)
	require.NoError(t, err)
	require.Len(t, byBand, 2, "one cluster per occupied price band")
	for _, f := range byBand {
		require.Equal(t, models.FeatureKindCluster, f.Kind)
		assert.Equal(t, 2, f.Cluster.Count)
	}
	// Bands are emitted cheapest first
	assert.InDelta(t, 5_500_000, byBand[0].Cluster.Price, 0.001)
	assert.InDelta(t, 205_000_000, byBand[1].Cluster.Price, 0.001)
}

func TestClusterByPriceBandPartitionsRecords(t *testing.T) {
	records := uniformRecords(300)
	ix := spatial.NewIndex(records, 0.05)

	features, err := newTestEngine().ClusterByPriceBand(ix, dublinViewport(12), 10)
	require.NoError(t, err)

	total := 0
	for _, f := range features {
		total += f.MemberCount()
	}
	assert.Equal(t, 300, total, "price bands must not lose or duplicate records")
}

func TestClusterByPriceBandBelowThresholdReturnsPoints(t *testing.T) {
	records := []models.PropertyRecord{
		record(1, 53.31, -6.29, 5_000_000),
		record(2, 53.32, -6.27, 150_000_000),
	}
	ix := spatial.NewIndex(records, 0.05)

	features, err := newTestEngine().ClusterByPriceBand(ix, dublinViewport(12), 10)
	require.NoError(t, err)

	require.Len(t, features, 2)
	for _, f := range features {
		assert.Equal(t, models.FeatureKindPoint, f.Kind)
	}
}

func TestClusterByPriceBandMalformedViewport(t *testing.T) {
	ix := spatial.NewIndex(uniformRecords(20), 0.05)
	viewport := models.Viewport{
		BoundingBox: models.BoundingBox{MinLat: 53.35, MaxLat: 53.30, MinLon: -6.30, MaxLon: -6.25},
		Zoom:        12,
	}

	features, err := newTestEngine().ClusterByPriceBand(ix, viewport, 10)
	assert.ErrorIs(t, err, models.ErrInvalidViewport)
	assert.Empty(t, features)
}

func TestToGeoJSON(t *testing.T) {
	features := []models.MapFeature{
		models.ClusterFeature(models.MapCluster{
			Latitude:  53.33,
			Longitude: -6.27,
			Count:     12,
			Price:     325000,
			Bounds:    models.BoundingBox{MinLat: 53.32, MaxLat: 53.34, MinLon: -6.28, MaxLon: -6.26},
		}),
		models.PointFeature(models.MapPoint{ID: 7, Latitude: 53.35, Longitude: -6.25, Price: 410000}),
	}

	fc := ToGeoJSON(features)
	require.Len(t, fc.Features, 2)

	assert.Equal(t, true, fc.Features[0].Properties["cluster"])
	assert.Equal(t, 12, fc.Features[0].Properties["point_count"])
	assert.Equal(t, false, fc.Features[1].Properties["cluster"])
	assert.Equal(t, int64(7), fc.Features[1].Properties["id"])
}
