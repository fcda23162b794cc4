package models

import "encoding/json"

// FeatureKind discriminates the two map feature variants.
type FeatureKind string

const (
	FeatureKindCluster FeatureKind = "cluster"
	FeatureKindPoint   FeatureKind = "point"
)

// MapPoint is a single record rendered as an individual pin.
type MapPoint struct {
	ID        int64   `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Price     int64   `json:"price"`
}

// MapCluster is a group of nearby records rendered as one aggregated marker.
// Count is always >= 2; single-member cells are emitted as MapPoints instead.
type MapCluster struct {
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Count     int         `json:"count"`
	Price     float64     `json:"price"` // aggregate of member prices, euro cents
	Bounds    BoundingBox `json:"bounds"`
}

// MapFeature is the tagged union of MapCluster and MapPoint. Exactly one of
// Cluster and Point is set, matching Kind.
type MapFeature struct {
	Kind    FeatureKind
	Cluster *MapCluster
	Point   *MapPoint
}

// ClusterFeature wraps a cluster as a MapFeature.
func ClusterFeature(c MapCluster) MapFeature {
	return MapFeature{Kind: FeatureKindCluster, Cluster: &c}
}

// PointFeature wraps a point as a MapFeature.
func PointFeature(p MapPoint) MapFeature {
	return MapFeature{Kind: FeatureKindPoint, Point: &p}
}

// MemberCount returns the number of records the feature represents.
func (f MapFeature) MemberCount() int {
	if f.Kind == FeatureKindCluster {
		return f.Cluster.Count
	}
	return 1
}

// MarshalJSON flattens the active variant and adds the kind discriminator.
func (f MapFeature) MarshalJSON() ([]byte, error) {
	switch f.Kind {
	case FeatureKindCluster:
		return json.Marshal(struct {
			Kind FeatureKind `json:"kind"`
			*MapCluster
		}{f.Kind, f.Cluster})
	default:
		return json.Marshal(struct {
			Kind FeatureKind `json:"kind"`
			*MapPoint
		}{FeatureKindPoint, f.Point})
	}
}
