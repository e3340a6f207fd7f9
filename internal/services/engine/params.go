package engine

import "fmt"

// Band is a pair of multipliers applied to the current price.
type Band struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// DirectionalBand picks a Band by trend direction.
type DirectionalBand struct {
	Bullish Band `yaml:"bullish"`
	Bearish Band `yaml:"bearish"`
}

// For returns the band for the given direction.
func (d DirectionalBand) For(bullish bool) Band {
	if bullish {
		return d.Bullish
	}
	return d.Bearish
}

// TradeLevels are the price multipliers of one trade direction.
type TradeLevels struct {
	Entry    float64 `yaml:"entry"`
	StopLoss float64 `yaml:"stop_loss"`
	TP1      float64 `yaml:"tp1"`
	TP2      float64 `yaml:"tp2"`
	TP3      float64 `yaml:"tp3"`
}

// ConfluenceLabels are the display strings of the eight checks, in order.
type ConfluenceLabels struct {
	TrendConfirmed  string `yaml:"trend_confirmed"`
	AboveSwingLow   string `yaml:"above_swing_low"`
	BelowSwingHigh  string `yaml:"below_swing_high"`
	BuyerDominance  string `yaml:"buyer_dominance"`
	PatternPrefix   string `yaml:"pattern_prefix"`
	FVGPresent      string `yaml:"fvg_present"`
	DemandZone      string `yaml:"demand_zone"`
	SupplyZoneAhead string `yaml:"supply_zone_ahead"`
}

// Params holds every scoring constant of the pipeline. The values are policy,
// not derived indicators, so they live here instead of inside the stages.
type Params struct {
	SwingWindow  int     `yaml:"swing_window"`
	ATRPeriod    int     `yaml:"atr_period"`
	VolumeWindow int     `yaml:"volume_window"`
	BuyShare     float64 `yaml:"buy_share"`
	SellShare    float64 `yaml:"sell_share"`

	TrendBandAbove float64 `yaml:"trend_band_above"`
	TrendBandBelow float64 `yaml:"trend_band_below"`

	DemandZone DirectionalBand `yaml:"demand_zone"`
	SupplyZone DirectionalBand `yaml:"supply_zone"`
	FVGZone    DirectionalBand `yaml:"fvg_zone"`

	Long  TradeLevels `yaml:"long"`
	Short TradeLevels `yaml:"short"`

	ValueAreaHigh     float64 `yaml:"value_area_high"`
	ValueAreaLow      float64 `yaml:"value_area_low"`
	LiquidityBullish  float64 `yaml:"liquidity_bullish"`
	LiquidityBearish  float64 `yaml:"liquidity_bearish"`
	VeryHighThreshold int     `yaml:"very_high_threshold"`
	HighThreshold     int     `yaml:"high_threshold"`
	MediumThreshold   int     `yaml:"medium_threshold"`

	Timeframes       []string `yaml:"timeframes"`
	TimeframeBullish float64  `yaml:"timeframe_bullish"`
	TimeframeTagOdds float64  `yaml:"timeframe_tag_odds"`
	Patterns         []string `yaml:"patterns"`
	RoundVolumes     bool     `yaml:"round_volumes"`
	BuyingLabel      string   `yaml:"buying_label"`
	SellingLabel     string   `yaml:"selling_label"`
	BullishStructure string   `yaml:"bullish_structure"`
	BearishStructure string   `yaml:"bearish_structure"`

	Labels ConfluenceLabels `yaml:"labels"`
}

// DefaultParams returns the documented scoring policy.
func DefaultParams() Params {
	return Params{
		SwingWindow:    20,
		ATRPeriod:      10,
		VolumeWindow:   10,
		BuyShare:       0.55,
		SellShare:      0.45,
		TrendBandAbove: 0.98,
		TrendBandBelow: 1.02,
		DemandZone: DirectionalBand{
			Bullish: Band{Low: 0.98, High: 0.988},
			Bearish: Band{Low: 1.01, High: 1.018},
		},
		SupplyZone: DirectionalBand{
			Bullish: Band{Low: 1.015, High: 1.025},
			Bearish: Band{Low: 0.97, High: 0.98},
		},
		FVGZone: DirectionalBand{
			Bullish: Band{Low: 0.975, High: 0.98},
			Bearish: Band{Low: 1.02, High: 1.025},
		},
		Long:              TradeLevels{Entry: 0.99, StopLoss: 0.97, TP1: 1.03, TP2: 1.06, TP3: 1.10},
		Short:             TradeLevels{Entry: 1.01, StopLoss: 1.03, TP1: 0.97, TP2: 0.94, TP3: 0.90},
		ValueAreaHigh:     1.03,
		ValueAreaLow:      0.97,
		LiquidityBullish:  0.96,
		LiquidityBearish:  1.04,
		VeryHighThreshold: 6,
		HighThreshold:     4,
		MediumThreshold:   2,
		Timeframes:        []string{"5M", "15M", "30M", "1H", "4H", "1D"},
		TimeframeBullish:  0.5,
		TimeframeTagOdds:  0.7,
		Patterns:          []string{"Horseshoe", "Bullish Engulfing Variant", "Multi-Reversal", "4-Candle Reversal"},
		RoundVolumes:      true,
		BuyingLabel:       "Net Buying Pressure",
		SellingLabel:      "Net Selling Pressure",
		BullishStructure:  "Bullish (Higher Low Confirmed)",
		BearishStructure:  "Bearish (Lower High Confirmed)",
		Labels: ConfluenceLabels{
			TrendConfirmed:  "Supertrend Confirmed (Bullish Structure)",
			AboveSwingLow:   "Price Above Swing Low (Support Holding)",
			BelowSwingHigh:  "Price Below Swing High (Resistance Test)",
			BuyerDominance:  "Buyer Dominance Detected",
			PatternPrefix:   "Pattern: ",
			FVGPresent:      "Fair Value Gap (FVG) Present",
			DemandZone:      "Strong Demand Zone Active",
			SupplyZoneAhead: "Major Supply Zone Ahead",
		},
	}
}

// Validate rejects parameter sets the pipeline cannot run with.
func (p Params) Validate() error {
	if p.SwingWindow < 1 {
		return fmt.Errorf("swing_window must be >= 1, got %d", p.SwingWindow)
	}
	if p.ATRPeriod < 1 {
		return fmt.Errorf("atr_period must be >= 1, got %d", p.ATRPeriod)
	}
	if p.VolumeWindow < 1 {
		return fmt.Errorf("volume_window must be >= 1, got %d", p.VolumeWindow)
	}
	if p.BuyShare < 0 || p.SellShare < 0 || p.BuyShare+p.SellShare > 1+1e-9 {
		return fmt.Errorf("buy_share/sell_share must be non-negative and sum to at most 1, got %v/%v", p.BuyShare, p.SellShare)
	}
	if !(p.VeryHighThreshold >= p.HighThreshold && p.HighThreshold >= p.MediumThreshold && p.MediumThreshold >= 0) {
		return fmt.Errorf("confidence thresholds must be descending, got %d/%d/%d",
			p.VeryHighThreshold, p.HighThreshold, p.MediumThreshold)
	}
	bands := []struct {
		name string
		band DirectionalBand
	}{{"demand_zone", p.DemandZone}, {"supply_zone", p.SupplyZone}, {"fvg_zone", p.FVGZone}}
	for _, b := range bands {
		if b.band.Bullish.Low == b.band.Bullish.High || b.band.Bearish.Low == b.band.Bearish.High {
			return fmt.Errorf("%s multipliers must differ", b.name)
		}
	}
	if len(p.Timeframes) == 0 {
		return fmt.Errorf("timeframes cannot be empty")
	}
	return nil
}
