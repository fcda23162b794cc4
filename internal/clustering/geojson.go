package clustering

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"pricegrid/server/internal/models"
)

// ToGeoJSON renders a feature list as a GeoJSON FeatureCollection of points,
// with cluster bounds carried in properties for map renderers.
func ToGeoJSON(features []models.MapFeature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, f := range features {
		switch f.Kind {
		case models.FeatureKindCluster:
			c := f.Cluster
			feature := geojson.NewFeature(orb.Point{c.Longitude, c.Latitude})
			feature.Properties = geojson.Properties{
				"cluster":     true,
				"point_count": c.Count,
				"price":       c.Price,
				"bounds": map[string]float64{
					"min_lat": c.Bounds.MinLat,
					"min_lon": c.Bounds.MinLon,
					"max_lat": c.Bounds.MaxLat,
					"max_lon": c.Bounds.MaxLon,
				},
			}
			fc.Append(feature)
		case models.FeatureKindPoint:
			p := f.Point
			feature := geojson.NewFeature(orb.Point{p.Longitude, p.Latitude})
			feature.Properties = geojson.Properties{
				"cluster": false,
				"id":      p.ID,
				"price":   p.Price,
			}
			fc.Append(feature)
		}
	}

	return fc
}
