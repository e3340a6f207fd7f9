package engine

import (
	"fmt"

	"SmartSignal/internal/domain/models"
)

// Zones derives the demand, supply and fair value gap bands for a direction.
// Each band is ordered low/high and checked before it is returned.
func Zones(price float64, bullish bool, p Params) (models.Zones, error) {
	zs := models.Zones{
		Demand: bandZone(price, p.DemandZone.For(bullish)),
		Supply: bandZone(price, p.SupplyZone.For(bullish)),
		FVG:    bandZone(price, p.FVGZone.For(bullish)),
	}
	if err := ValidateZones(zs); err != nil {
		return models.Zones{}, err
	}
	return zs, nil
}

// ValidateZones checks low < high for every band.
func ValidateZones(zs models.Zones) error {
	named := []struct {
		name string
		zone models.Zone
	}{{"demand", zs.Demand}, {"supply", zs.Supply}, {"fvg", zs.FVG}}
	for _, n := range named {
		if !n.zone.Valid() {
			return invariantf("%s zone [%v, %v] is empty", n.name, n.zone.Low, n.zone.High)
		}
	}
	return nil
}

func bandZone(price float64, b Band) models.Zone {
	return models.NewZone(price*b.Low, price*b.High)
}

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvariantViolation}, args...)...)
}
