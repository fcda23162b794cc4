package stats

import (
	"fmt"
	"sort"

	"pricegrid/server/internal/models"
)

// PriceBrackets partitions records into equal-frequency price bins: prices
// are sorted and split into bracketCount contiguous runs, the last bracket
// absorbing the remainder. The split depends only on the sorted input, so
// identical data and configuration always produce identical brackets.
func PriceBrackets(records []models.PropertyRecord, bracketCount int) models.PriceClusters {
	result := models.PriceClusters{Brackets: []models.PriceBracket{}}
	if len(records) == 0 || bracketCount < 1 {
		return result
	}

	prices := make([]int64, len(records))
	for i, r := range records {
		prices[i] = r.Price
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })

	if bracketCount > len(prices) {
		bracketCount = len(prices)
	}
	bracketSize := len(prices) / bracketCount

	for i := 0; i < bracketCount; i++ {
		start := i * bracketSize
		end := start + bracketSize
		if i == bracketCount-1 {
			end = len(prices)
		}

		run := prices[start:end]
		var acc accumulator
		for _, p := range run {
			acc.add(float64(p))
		}

		result.Brackets = append(result.Brackets, models.PriceBracket{
			Label:        fmt.Sprintf("bracket_%d", i+1),
			Count:        len(run),
			MinPrice:     run[0],
			MaxPrice:     run[len(run)-1],
			AveragePrice: acc.average(),
		})
	}

	return result
}
