package models

// TrendPoint is one time bucket of the price trend series. Buckets with no
// sales are omitted from the series rather than emitted with null aggregates.
type TrendPoint struct {
	Period       string  `json:"period"` // e.g. "2024-03", granularity-dependent
	AveragePrice float64 `json:"average_price"`
	MedianPrice  float64 `json:"median_price"`
	Count        int     `json:"count"`
}

// TrendSeries is ordered ascending by period with no duplicate keys.
type TrendSeries struct {
	Granularity string       `json:"granularity"`
	Points      []TrendPoint `json:"points"`
}

// CorrelationResult reports Pearson's r between price and floor area.
// Coefficient is nil when the correlation is undefined (fewer than two valid
// samples, or zero variance in either variable).
type CorrelationResult struct {
	Coefficient    *float64 `json:"coefficient"`
	SampleCount    int      `json:"sample_count"`
	ExcludedCount  int      `json:"excluded_count"` // records without a known floor area
	ConfidenceLow  *float64 `json:"confidence_low"`
	ConfidenceHigh *float64 `json:"confidence_high"`
}

// CountyStats are the per-county aggregates of the county comparison.
type CountyStats struct {
	Count      int     `json:"count"`
	Mean       float64 `json:"mean"`
	Median     float64 `json:"median"`
	Dispersion float64 `json:"dispersion"`
}

// CountyComparison maps each county with at least one record to its stats.
// Counties with zero matching records never appear.
type CountyComparison struct {
	Dispersion string                 `json:"dispersion"` // "stddev" or "iqr"
	Counties   map[string]CountyStats `json:"counties"`
}

// PriceBracket is one equal-frequency price bin.
type PriceBracket struct {
	Label        string  `json:"label"`
	Count        int     `json:"count"`
	MinPrice     int64   `json:"min_price"`
	MaxPrice     int64   `json:"max_price"`
	AveragePrice float64 `json:"average_price"`
}

// PriceClusters is the result of price-based (non-spatial) clustering.
type PriceClusters struct {
	Brackets []PriceBracket `json:"brackets"`
}
