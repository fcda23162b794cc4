package models

// HeatmapMode selects the quantity a heatmap cell's intensity is scaled by.
type HeatmapMode string

const (
	// HeatmapSales scales intensity by sale count per cell.
	HeatmapSales HeatmapMode = "sales"
	// HeatmapPrice scales intensity by average price per cell.
	HeatmapPrice HeatmapMode = "price"
)

// HeatmapCell is one non-empty rectangle of the heatmap grid. Intensity is
// normalized across the grid so the densest (or priciest) cell reads 1.
type HeatmapCell struct {
	Bounds       BoundingBox `json:"bounds"`
	Count        int         `json:"count"`
	AveragePrice float64     `json:"average_price"`
	Intensity    float64     `json:"intensity"`
}
