package stats

import (
	"math"

	"pricegrid/server/internal/models"
)

// PriceSizeCorrelation computes Pearson's r between price and floor area over
// records with a known floor area. Records without one are excluded and
// counted. The coefficient is left nil (undefined) when fewer than two valid
// samples exist or either variable has zero variance; NaN never escapes.
func PriceSizeCorrelation(records []models.PropertyRecord) models.CorrelationResult {
	result := models.CorrelationResult{}

	// Single pass covariance via the Welford-style update
	var priceAcc, areaAcc accumulator
	var coMoment float64

	for _, r := range records {
		if !r.HasFloorArea() {
			result.ExcludedCount++
			continue
		}

		price := float64(r.Price)
		area := *r.FloorArea

		deltaPrice := price - priceAcc.mean
		priceAcc.add(price)
		areaAcc.add(area)
		coMoment += deltaPrice * (area - areaAcc.mean)
	}

	result.SampleCount = priceAcc.count()
	if result.SampleCount < 2 {
		return result
	}

	denominator := math.Sqrt(priceAcc.m2 * areaAcc.m2)
	if denominator == 0 {
		// Zero variance in price or area: correlation undefined
		return result
	}

	r := coMoment / denominator
	// Clamp rounding drift so the coefficient stays in [-1, 1]
	r = math.Max(-1, math.Min(1, r))
	result.Coefficient = &r

	if low, high, ok := fisherInterval(r, result.SampleCount); ok {
		result.ConfidenceLow = &low
		result.ConfidenceHigh = &high
	}

	return result
}

// fisherInterval returns the 95% confidence interval of r via the Fisher z
// transform. It needs n >= 4 and |r| < 1 to be defined.
func fisherInterval(r float64, n int) (low, high float64, ok bool) {
	if n < 4 || math.Abs(r) >= 1 {
		return 0, 0, false
	}

	z := 0.5 * math.Log((1+r)/(1-r))
	se := 1 / math.Sqrt(float64(n-3))
	const z95 = 1.959964

	low = math.Tanh(z - z95*se)
	high = math.Tanh(z + z95*se)
	return low, high, true
}
