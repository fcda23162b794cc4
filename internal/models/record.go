package models

import (
	"math"
	"time"
)

// PropertyRecord is a single registered property sale. Records are owned by
// the store adapter; the analysis packages never mutate them.
type PropertyRecord struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Latitude  float64   `json:"latitude" gorm:"index:idx_records_coordinates"`
	Longitude float64   `json:"longitude" gorm:"index:idx_records_coordinates"`
	Price     int64     `json:"price"` // euro cents
	FloorArea *float64  `json:"floor_area"`
	SaleDate  time.Time `json:"sale_date" gorm:"index"`
	County    string    `json:"county" gorm:"index"`
}

// HasFloorArea reports whether the record carries a known floor area.
func (r PropertyRecord) HasFloorArea() bool {
	return r.FloorArea != nil && !math.IsNaN(*r.FloorArea) && *r.FloorArea > 0
}

// RecordFilter holds the attribute predicates a caller may push down to the
// record store. Zero values mean "no constraint".
type RecordFilter struct {
	County   string
	MinPrice int64
	MaxPrice int64
	Start    time.Time
	End      time.Time
}

// BoundingBox is a rectangle in geographic coordinates, inclusive on all sides.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Valid reports whether the box is well-formed (min <= max on both axes and
// all bounds finite).
func (b BoundingBox) Valid() bool {
	for _, v := range []float64{b.MinLat, b.MinLon, b.MaxLat, b.MaxLon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.MinLat <= b.MaxLat && b.MinLon <= b.MaxLon
}

// Contains reports whether the coordinate lies within the box, bounds inclusive.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Degenerate reports whether the box has zero area.
func (b BoundingBox) Degenerate() bool {
	return b.MinLat == b.MaxLat && b.MinLon == b.MaxLon
}

const (
	MinZoom = 0
	MaxZoom = 20
)

// Viewport is the visible map region for a cluster query.
type Viewport struct {
	BoundingBox
	Zoom int `json:"zoom"`
}

// Validate rejects malformed viewports before any computation is attempted.
func (v Viewport) Validate() error {
	if !v.BoundingBox.Valid() {
		return ErrInvalidViewport
	}
	if v.Zoom < MinZoom || v.Zoom > MaxZoom {
		return ErrInvalidViewport
	}
	return nil
}
