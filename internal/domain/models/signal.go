package models

import "time"

// Action is the trade direction suggested by a signal.
type Action string

const (
	ActionBuyOnPullback Action = "BuyOnPullback"
	ActionSellOnRally   Action = "SellOnRally"
)

// Label returns the human readable action.
func (a Action) Label() string {
	switch a {
	case ActionBuyOnPullback:
		return "Buy on Pullback"
	case ActionSellOnRally:
		return "Sell on Rally"
	default:
		return string(a)
	}
}

// IsBuy reports whether the action opens a long position.
func (a Action) IsBuy() bool { return a == ActionBuyOnPullback }

// SignalType maps the action to the persisted bullish/bearish type.
func (a Action) SignalType() string {
	if a.IsBuy() {
		return "bullish"
	}
	return "bearish"
}

// ConfidenceTier is derived from the confluence count.
type ConfidenceTier string

const (
	ConfidenceLow      ConfidenceTier = "Low"
	ConfidenceMedium   ConfidenceTier = "Medium"
	ConfidenceHigh     ConfidenceTier = "High"
	ConfidenceVeryHigh ConfidenceTier = "Very High"
)

// Level returns the snake_case storage form (low, medium, high, very_high).
func (t ConfidenceTier) Level() string {
	switch t {
	case ConfidenceVeryHigh:
		return "very_high"
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	default:
		return "low"
	}
}

// Zone is a price band with Low < High.
type Zone struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// NewZone orders the two bounds so that Low is the smaller one.
func NewZone(a, b float64) Zone {
	if a > b {
		a, b = b, a
	}
	return Zone{Low: a, High: b}
}

// Valid reports whether the band is non-empty.
func (z Zone) Valid() bool { return z.Low < z.High }

// PriceLevels holds swing extremes and classic pivot bands.
type PriceLevels struct {
	SwingHigh float64 `json:"swing_high"`
	SwingLow  float64 `json:"swing_low"`
	Pivot     float64 `json:"pivot"`
	R1        float64 `json:"r1"`
	R2        float64 `json:"r2"`
	S1        float64 `json:"s1"`
	S2        float64 `json:"s2"`
}

// TrendVerdict is the memoryless trend classification.
type TrendVerdict struct {
	IsBullish bool    `json:"is_bullish"`
	Band      float64 `json:"band"`
}

// TakeProfit holds the three profit targets.
type TakeProfit struct {
	TP1 float64 `json:"tp1"`
	TP2 float64 `json:"tp2"`
	TP3 float64 `json:"tp3"`
}

// VolumeSplit is the estimated buy/sell split of recent volume.
type VolumeSplit struct {
	BuyVolume      float64 `json:"buy_volume"`
	SellVolume     float64 `json:"sell_volume"`
	ImbalanceLabel string  `json:"imbalance"`
}

// BuyerDominant reports whether buy volume exceeds sell volume.
func (v VolumeSplit) BuyerDominant() bool { return v.BuyVolume > v.SellVolume }

// Zones groups the three price bands of a signal.
type Zones struct {
	Demand Zone `json:"demand_zone"`
	Supply Zone `json:"supply_zone"`
	FVG    Zone `json:"fvg_zone"`
}

// VolumeProfile is the value-area summary around the current price.
type VolumeProfile struct {
	VAH float64 `json:"vah"`
	VAL float64 `json:"val"`
	POC float64 `json:"poc"`
}

// ConfluenceResult lists the confirmations that held, in evaluation order.
type ConfluenceResult struct {
	Factors []string       `json:"factors"`
	Count   int            `json:"count"`
	Tier    ConfidenceTier `json:"tier"`
}

// TradingSignal is the assembled output of the engine. It is never mutated
// after assembly.
type TradingSignal struct {
	Symbol                  string         `json:"symbol"`
	Price                   float64        `json:"price"`
	Action                  Action         `json:"action"`
	Entry                   float64        `json:"entry"`
	StopLoss                float64        `json:"stop_loss"`
	TakeProfit              TakeProfit     `json:"take_profit"`
	Confidence              ConfidenceTier `json:"confidence"`
	ConfluenceFactors       []string       `json:"confluence_factors"`
	Levels                  PriceLevels    `json:"levels"`
	Volume                  VolumeSplit    `json:"volume"`
	Zones                   Zones          `json:"zones"`
	VolumeProfile           VolumeProfile  `json:"volume_profile"`
	LiquidityPool           float64        `json:"liquidity_pool"`
	MarketStructure         string         `json:"market_structure"`
	MultiTimeframeAlignment []string       `json:"mtfa"`
	ATR                     float64        `json:"atr"`
	Pattern                 string         `json:"pattern,omitempty"`
	Timestamp               time.Time      `json:"timestamp"`
}

// IsBullish reports the trend direction the signal was built for.
func (s TradingSignal) IsBullish() bool { return s.Action.IsBuy() }
