package stats

import (
	"sort"

	"pricegrid/server/internal/models"
)

// Granularity selects the time bucket width of a trend series.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// bucketKey formats a sale date into its period label. Labels are chosen so
// lexicographic order matches chronological order within a granularity.
func (g Granularity) bucketKey(r models.PropertyRecord) string {
	switch g {
	case GranularityDay:
		return r.SaleDate.Format("2006-01-02")
	case GranularityYear:
		return r.SaleDate.Format("2006")
	default:
		return r.SaleDate.Format("2006-01")
	}
}

// PriceTrends buckets records by sale period and reports mean price, median
// price and sample count per bucket, ordered ascending by period. Periods
// with no sales are omitted. An empty input yields an empty series.
func PriceTrends(records []models.PropertyRecord, granularity Granularity) models.TrendSeries {
	switch granularity {
	case GranularityDay, GranularityMonth, GranularityYear:
	default:
		granularity = GranularityMonth
	}

	series := models.TrendSeries{
		Granularity: string(granularity),
		Points:      []models.TrendPoint{},
	}
	if len(records) == 0 {
		return series
	}

	type bucket struct {
		acc    accumulator
		prices []float64
	}
	buckets := make(map[string]*bucket)

	for _, r := range records {
		key := granularity.bucketKey(r)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		price := float64(r.Price)
		b.acc.add(price)
		b.prices = append(b.prices, price)
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		b := buckets[key]
		series.Points = append(series.Points, models.TrendPoint{
			Period:       key,
			AveragePrice: b.acc.average(),
			MedianPrice:  median(b.prices),
			Count:        b.acc.count(),
		})
	}

	return series
}
