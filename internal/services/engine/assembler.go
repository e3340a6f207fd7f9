package engine

import (
	"math"
	"strings"
	"time"

	"SmartSignal/internal/domain/models"
)

// TradeSetup is the entry, stop and targets of a direction.
type TradeSetup struct {
	Action     models.Action
	Entry      float64
	StopLoss   float64
	TakeProfit models.TakeProfit
}

// Setup derives the trade parameters as fixed offsets from price.
func Setup(price float64, bullish bool, p Params) TradeSetup {
	lv, action := p.Short, models.ActionSellOnRally
	if bullish {
		lv, action = p.Long, models.ActionBuyOnPullback
	}
	return TradeSetup{
		Action:   action,
		Entry:    price * lv.Entry,
		StopLoss: price * lv.StopLoss,
		TakeProfit: models.TakeProfit{
			TP1: price * lv.TP1,
			TP2: price * lv.TP2,
			TP3: price * lv.TP3,
		},
	}
}

// TimeframeAlignment builds one label per timeframe, e.g. "1H: Bullish | FVG Present".
// Three draws per timeframe: direction, FVG tag, order block tag.
func TimeframeAlignment(src Source, p Params) []string {
	out := make([]string, 0, len(p.Timeframes))
	for _, tf := range p.Timeframes {
		direction := "Bearish"
		if src.Float64() > p.TimeframeBullish {
			direction = "Bullish"
		}
		fvg := src.Float64() > p.TimeframeTagOdds
		ob := src.Float64() > p.TimeframeTagOdds

		var b strings.Builder
		b.WriteString(tf)
		b.WriteString(": ")
		b.WriteString(direction)
		if fvg {
			b.WriteString(" | FVG Present")
		}
		if ob {
			b.WriteString(" | OB Detected")
		}
		out = append(out, b.String())
	}
	return out
}

// AssemblyInput carries the stage outputs into the final record.
type AssemblyInput struct {
	Symbol     string
	Price      float64
	Trend      models.TrendVerdict
	Levels     models.PriceLevels
	ATR        float64
	Zones      models.Zones
	Volume     models.VolumeSplit
	Setup      TradeSetup
	Confluence models.ConfluenceResult
	Pattern    string
	Alignment  []string
	Timestamp  time.Time
}

// Assemble composes the final signal. Slices are copied so the result shares
// nothing with its inputs.
func Assemble(in AssemblyInput, p Params) models.TradingSignal {
	price := in.Price
	bullish := in.Trend.IsBullish

	liquidity, structure := price*p.LiquidityBearish, p.BearishStructure
	if bullish {
		liquidity, structure = price*p.LiquidityBullish, p.BullishStructure
	}

	volume := in.Volume
	if p.RoundVolumes {
		volume.BuyVolume = math.Round(volume.BuyVolume)
		volume.SellVolume = math.Round(volume.SellVolume)
	}

	return models.TradingSignal{
		Symbol:            in.Symbol,
		Price:             price,
		Action:            in.Setup.Action,
		Entry:             in.Setup.Entry,
		StopLoss:          in.Setup.StopLoss,
		TakeProfit:        in.Setup.TakeProfit,
		Confidence:        in.Confluence.Tier,
		ConfluenceFactors: append([]string(nil), in.Confluence.Factors...),
		Levels:            in.Levels,
		Volume:            volume,
		Zones:             in.Zones,
		VolumeProfile: models.VolumeProfile{
			VAH: price * p.ValueAreaHigh,
			VAL: price * p.ValueAreaLow,
			POC: price,
		},
		LiquidityPool:           liquidity,
		MarketStructure:         structure,
		MultiTimeframeAlignment: append([]string(nil), in.Alignment...),
		ATR:                     in.ATR,
		Pattern:                 in.Pattern,
		Timestamp:               in.Timestamp,
	}
}
