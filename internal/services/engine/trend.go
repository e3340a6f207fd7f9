package engine

import "SmartSignal/internal/domain/models"

// Trend classifies direction from price and pivot only; there is no state
// carried between calls, so no flip hysteresis either.
func Trend(price, pivot float64, p Params) models.TrendVerdict {
	factor := p.TrendBandBelow
	if price > pivot {
		factor = p.TrendBandAbove
	}
	band := price * factor
	return models.TrendVerdict{IsBullish: price > band, Band: band}
}
