package engine

import "SmartSignal/internal/domain/models"

// Pivots computes the classic floor pivot and its first two bands. A flat
// range (high == low) collapses every band onto the pivot.
func Pivots(swingHigh, swingLow, lastClose float64) models.PriceLevels {
	pivot := (swingHigh + swingLow + lastClose) / 3
	span := swingHigh - swingLow
	return models.PriceLevels{
		SwingHigh: swingHigh,
		SwingLow:  swingLow,
		Pivot:     pivot,
		R1:        2*pivot - swingLow,
		S1:        2*pivot - swingHigh,
		R2:        pivot + span,
		S2:        pivot - span,
	}
}

func validateLevels(l models.PriceLevels) error {
	if l.SwingHigh < l.SwingLow {
		return invariantf("swing high %v below swing low %v", l.SwingHigh, l.SwingLow)
	}
	return nil
}
