package engine

import "SmartSignal/internal/domain/models"

// ConfluenceInput is everything the scorer looks at.
type ConfluenceInput struct {
	Price   float64
	Trend   models.TrendVerdict
	Levels  models.PriceLevels
	Volume  models.VolumeSplit
	Pattern string
	Zones   models.Zones
}

// Confluence evaluates the eight checks in their fixed order and keeps the
// label of each one that holds.
func Confluence(in ConfluenceInput, p Params) models.ConfluenceResult {
	l := p.Labels
	checks := []struct {
		ok    bool
		label string
	}{
		{in.Trend.IsBullish, l.TrendConfirmed},
		{in.Price > in.Levels.SwingLow, l.AboveSwingLow},
		{in.Price < in.Levels.SwingHigh, l.BelowSwingHigh},
		{in.Volume.BuyerDominant(), l.BuyerDominance},
		{in.Pattern != "", l.PatternPrefix + in.Pattern},
		{in.Zones.FVG.Valid(), l.FVGPresent},
		{in.Zones.Demand.Valid(), l.DemandZone},
		{in.Zones.Supply.Valid(), l.SupplyZoneAhead},
	}

	factors := make([]string, 0, len(checks))
	seen := make(map[string]struct{}, len(checks))
	for _, c := range checks {
		if !c.ok {
			continue
		}
		if _, dup := seen[c.label]; dup {
			continue
		}
		seen[c.label] = struct{}{}
		factors = append(factors, c.label)
	}
	return models.ConfluenceResult{
		Factors: factors,
		Count:   len(factors),
		Tier:    Tier(len(factors), p),
	}
}

// Tier maps a confluence count to a confidence tier.
func Tier(count int, p Params) models.ConfidenceTier {
	switch {
	case count >= p.VeryHighThreshold:
		return models.ConfidenceVeryHigh
	case count >= p.HighThreshold:
		return models.ConfidenceHigh
	case count >= p.MediumThreshold:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// PickPattern draws one name from the catalog, or "" when it is empty.
func PickPattern(src Source, catalog []string) string {
	if len(catalog) == 0 {
		return ""
	}
	return catalog[src.Intn(len(catalog))]
}
