package engine

import (
	"fmt"

	"SmartSignal/internal/domain/models"
	"SmartSignal/internal/services/features"
)

// ATR returns the mean true range of the last period candles.
//
// The previous close of the very first candle of the whole series does not
// exist; its own high stands in for it, which makes its true range H-L.
func ATR(candles []models.Candle, period int) (float64, error) {
	if period < 1 || len(candles) < period {
		return 0, fmt.Errorf("%w: atr needs %d candles, got %d", ErrInsufficientData, period, len(candles))
	}
	sum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		prevClose := candles[i].High
		if i > 0 {
			prevClose = candles[i-1].Close
		}
		sum += features.TrueRange(candles[i], prevClose)
	}
	return sum / float64(period), nil
}
