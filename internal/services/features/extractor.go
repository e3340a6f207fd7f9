package features

import (
	"math"

	"SmartSignal/internal/domain/models"
)

// Tail returns the last n candles, or all of them when fewer exist.
func Tail(candles []models.Candle, n int) []models.Candle {
	if n <= 0 {
		return nil
	}
	if len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}

// MaxHigh returns the highest high, or 0 for an empty window.
func MaxHigh(candles []models.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	out := candles[0].High
	for _, c := range candles[1:] {
		out = math.Max(out, c.High)
	}
	return out
}

// MinLow returns the lowest low, or 0 for an empty window.
func MinLow(candles []models.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	out := candles[0].Low
	for _, c := range candles[1:] {
		out = math.Min(out, c.Low)
	}
	return out
}

// SumVolume adds up the volume of the window.
func SumVolume(candles []models.Candle) float64 {
	sum := 0.0
	for _, c := range candles {
		sum += c.Volume
	}
	return sum
}

// TrueRange is max(H-L, |H-prevClose|, |L-prevClose|).
func TrueRange(c models.Candle, prevClose float64) float64 {
	return math.Max(c.High-c.Low, math.Max(math.Abs(c.High-prevClose), math.Abs(c.Low-prevClose)))
}
