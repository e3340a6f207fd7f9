package engine

import (
	"SmartSignal/internal/domain/models"
	"SmartSignal/internal/services/features"
)

// VolumeImbalance splits the volume of the last window candles with the fixed
// buy/sell shares. It does not look at the order book. A non-positive total never
// counts as buying pressure.
func VolumeImbalance(candles []models.Candle, p Params) models.VolumeSplit {
	total := features.SumVolume(features.Tail(candles, p.VolumeWindow))
	split := models.VolumeSplit{
		BuyVolume:  total * p.BuyShare,
		SellVolume: total * p.SellShare,
	}
	if split.BuyerDominant() {
		split.ImbalanceLabel = p.BuyingLabel
	} else {
		split.ImbalanceLabel = p.SellingLabel
	}
	return split
}
