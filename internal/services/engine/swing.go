package engine

import (
	"fmt"

	"SmartSignal/internal/domain/models"
	"SmartSignal/internal/services/features"
)

// SwingLevels returns the highest high and lowest low of the last window
// candles. Shorter histories use what is there; only an empty one fails.
func SwingLevels(candles []models.Candle, window int) (high, low float64, err error) {
	if len(candles) == 0 {
		return 0, 0, fmt.Errorf("%w: swing levels need at least one candle", ErrInsufficientData)
	}
	recent := features.Tail(candles, window)
	return features.MaxHigh(recent), features.MinLow(recent), nil
}
