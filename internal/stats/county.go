package stats

import (
	"pricegrid/server/internal/models"
)

// DispersionMeasure selects how county price spread is reported.
type DispersionMeasure string

const (
	DispersionStdDev DispersionMeasure = "stddev"
	DispersionIQR    DispersionMeasure = "iqr"
)

// CountyComparison groups records by county and reports count, mean, median
// and price dispersion per county. Records without a known county are
// skipped; counties with zero matching records are omitted entirely.
func CountyComparison(records []models.PropertyRecord, dispersion DispersionMeasure) models.CountyComparison {
	if dispersion != DispersionIQR {
		dispersion = DispersionStdDev
	}

	type group struct {
		acc    accumulator
		prices []float64
	}
	groups := make(map[string]*group)

	for _, r := range records {
		if r.County == "" {
			continue
		}
		g, ok := groups[r.County]
		if !ok {
			g = &group{}
			groups[r.County] = g
		}
		price := float64(r.Price)
		g.acc.add(price)
		g.prices = append(g.prices, price)
	}

	comparison := models.CountyComparison{
		Dispersion: string(dispersion),
		Counties:   make(map[string]models.CountyStats, len(groups)),
	}

	for county, g := range groups {
		spread := g.acc.stddev()
		if dispersion == DispersionIQR {
			spread = interquartileRange(g.prices)
		}
		comparison.Counties[county] = models.CountyStats{
			Count:      g.acc.count(),
			Mean:       g.acc.average(),
			Median:     median(g.prices),
			Dispersion: spread,
		}
	}

	return comparison
}
