package engine

import (
	"testing"

	"SmartSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwingLevels(t *testing.T) {
	_, _, err := SwingLevels(nil, 20)
	assert.ErrorIs(t, err, ErrInsufficientData)

	short := []models.Candle{{High: 12, Low: 9}, {High: 15, Low: 11}}
	high, low, err := SwingLevels(short, 20)
	require.NoError(t, err)
	assert.Equal(t, 15.0, high)
	assert.Equal(t, 9.0, low)

	flat := []models.Candle{{High: 10, Low: 10}, {High: 10, Low: 10}}
	high, low, err = SwingLevels(flat, 20)
	require.NoError(t, err)
	assert.Equal(t, high, low)
}

func TestATR(t *testing.T) {
	candles := make([]models.Candle, 10)
	candles[0] = models.Candle{High: 15, Low: 10, Close: 11}
	for i := 1; i < len(candles); i++ {
		candles[i] = models.Candle{High: 12, Low: 10, Close: 11}
	}

	// The first candle of the series has no predecessor and uses its own high.
	atr, err := ATR(candles, 10)
	require.NoError(t, err)
	assert.InDelta(t, 2.3, atr, 1e-9)

	longer := append([]models.Candle{{High: 20, Low: 20, Close: 20}}, candles...)
	atr, err = ATR(longer, 10)
	require.NoError(t, err)
	assert.InDelta(t, 2.8, atr, 1e-9)

	_, err = ATR(candles[:9], 10)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestPivots(t *testing.T) {
	l := Pivots(105, 95, 100)
	assert.Equal(t, 100.0, l.Pivot)
	assert.Equal(t, 105.0, l.R1)
	assert.Equal(t, 95.0, l.S1)
	assert.Equal(t, 110.0, l.R2)
	assert.Equal(t, 90.0, l.S2)

	flat := Pivots(50, 50, 50)
	assert.Equal(t, models.PriceLevels{SwingHigh: 50, SwingLow: 50, Pivot: 50, R1: 50, S1: 50, R2: 50, S2: 50}, flat)

	assert.ErrorIs(t, validateLevels(models.PriceLevels{SwingHigh: 1, SwingLow: 2}), ErrInvariantViolation)
}

func TestTrend(t *testing.T) {
	p := DefaultParams()

	up := Trend(30000, 29000, p)
	assert.True(t, up.IsBullish)
	assert.InDelta(t, 30000*0.98, up.Band, 1e-9)

	down := Trend(28000, 29000, p)
	assert.False(t, down.IsBullish)
	assert.InDelta(t, 28000*1.02, down.Band, 1e-9)

	// The band scales with price, not the pivot. price == pivot takes the
	// upper factor and is never bullish.
	eq := Trend(100, 100, p)
	assert.False(t, eq.IsBullish)
	assert.InDelta(t, 102.0, eq.Band, 1e-9)
}

func TestZonesAndSetupAt30000(t *testing.T) {
	p := DefaultParams()

	zs, err := Zones(30000, true, p)
	require.NoError(t, err)
	assert.InDelta(t, 29400, zs.Demand.Low, 1e-6)
	assert.InDelta(t, 29640, zs.Demand.High, 1e-6)
	assert.InDelta(t, 30450, zs.Supply.Low, 1e-6)
	assert.InDelta(t, 30750, zs.Supply.High, 1e-6)
	assert.InDelta(t, 29250, zs.FVG.Low, 1e-6)
	assert.InDelta(t, 29400, zs.FVG.High, 1e-6)

	s := Setup(30000, true, p)
	assert.Equal(t, models.ActionBuyOnPullback, s.Action)
	assert.InDelta(t, 29700, s.Entry, 1e-6)
	assert.InDelta(t, 29100, s.StopLoss, 1e-6)
	assert.InDelta(t, 30900, s.TakeProfit.TP1, 1e-6)
	assert.InDelta(t, 31800, s.TakeProfit.TP2, 1e-6)
	assert.InDelta(t, 33000, s.TakeProfit.TP3, 1e-6)

	short := Setup(100, false, p)
	assert.Equal(t, models.ActionSellOnRally, short.Action)
	assert.InDelta(t, 101, short.Entry, 1e-9)
	assert.InDelta(t, 103, short.StopLoss, 1e-9)
	assert.InDelta(t, 90, short.TakeProfit.TP3, 1e-9)
}

func TestZonesBearishAreOrdered(t *testing.T) {
	zs, err := Zones(200, false, DefaultParams())
	require.NoError(t, err)
	for _, z := range []models.Zone{zs.Demand, zs.Supply, zs.FVG} {
		assert.Less(t, z.Low, z.High)
	}
	assert.InDelta(t, 194, zs.Supply.Low, 1e-9)
}

func TestZonesInvariantViolation(t *testing.T) {
	p := DefaultParams()
	p.FVGZone.Bullish = Band{Low: 1, High: 1}

	_, err := Zones(100, true, p)
	assert.ErrorIs(t, err, ErrInvariantViolation)

	err = ValidateZones(models.Zones{
		Demand: models.Zone{Low: 1, High: 2},
		Supply: models.Zone{Low: 3, High: 2},
		FVG:    models.Zone{Low: 1, High: 2},
	})
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.Contains(t, err.Error(), "supply")
}

func TestVolumeImbalance(t *testing.T) {
	p := DefaultParams()

	candles := make([]models.Candle, 15)
	for i := range candles {
		candles[i].Volume = 100
	}
	v := VolumeImbalance(candles, p)
	assert.InDelta(t, 550, v.BuyVolume, 1e-9)
	assert.InDelta(t, 450, v.SellVolume, 1e-9)
	assert.Equal(t, "Net Buying Pressure", v.ImbalanceLabel)

	zero := VolumeImbalance(make([]models.Candle, 10), p)
	assert.Zero(t, zero.BuyVolume)
	assert.Equal(t, "Net Selling Pressure", zero.ImbalanceLabel)
}

func TestConfluence(t *testing.T) {
	p := DefaultParams()
	zs, err := Zones(100, true, p)
	require.NoError(t, err)

	all := Confluence(ConfluenceInput{
		Price:   100,
		Trend:   models.TrendVerdict{IsBullish: true},
		Levels:  models.PriceLevels{SwingHigh: 110, SwingLow: 90},
		Volume:  models.VolumeSplit{BuyVolume: 2, SellVolume: 1},
		Pattern: "Horseshoe",
		Zones:   zs,
	}, p)
	assert.Equal(t, 8, all.Count)
	assert.Equal(t, models.ConfidenceVeryHigh, all.Tier)
	assert.Equal(t, p.Labels.TrendConfirmed, all.Factors[0])
	assert.Equal(t, "Pattern: Horseshoe", all.Factors[4])
	assert.Equal(t, p.Labels.SupplyZoneAhead, all.Factors[7])

	none := Confluence(ConfluenceInput{
		Price:  100,
		Levels: models.PriceLevels{SwingHigh: 100, SwingLow: 100},
	}, p)
	assert.Zero(t, none.Count)
	assert.Empty(t, none.Factors)
	assert.Equal(t, models.ConfidenceLow, none.Tier)
}

func TestConfluenceDropsDuplicateLabels(t *testing.T) {
	p := DefaultParams()
	p.Labels.AboveSwingLow = p.Labels.TrendConfirmed

	res := Confluence(ConfluenceInput{
		Price:  100,
		Trend:  models.TrendVerdict{IsBullish: true},
		Levels: models.PriceLevels{SwingHigh: 90, SwingLow: 90},
	}, p)
	assert.Equal(t, 1, res.Count)
}

func TestTier(t *testing.T) {
	p := DefaultParams()
	want := []models.ConfidenceTier{
		models.ConfidenceLow, models.ConfidenceLow,
		models.ConfidenceMedium, models.ConfidenceMedium,
		models.ConfidenceHigh, models.ConfidenceHigh,
		models.ConfidenceVeryHigh, models.ConfidenceVeryHigh, models.ConfidenceVeryHigh,
	}
	for count, tier := range want {
		assert.Equal(t, tier, Tier(count, p), "count %d", count)
	}
}

func TestPickPattern(t *testing.T) {
	src := &seqSource{ints: []int{2}}
	assert.Equal(t, "Multi-Reversal", PickPattern(src, DefaultParams().Patterns))
	assert.Equal(t, "", PickPattern(src, nil))
}

func TestTimeframeAlignment(t *testing.T) {
	p := DefaultParams()
	p.Timeframes = []string{"1H", "4H"}
	src := &seqSource{floats: []float64{0.5, 0.7, 0.71, 0.51, 0.1, 0.1}}

	got := TimeframeAlignment(src, p)
	assert.Equal(t, []string{"1H: Bearish | OB Detected", "4H: Bullish"}, got)
}

func TestRiskReward(t *testing.T) {
	rr, err := RiskReward(models.ActionSellOnRally, 101, 103, 97)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, rr, 1e-9)

	rr, err = RiskReward(models.ActionBuyOnPullback, 29700, 29100, 30900)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, rr, 1e-9)

	_, err = RiskReward(models.ActionBuyOnPullback, 100, 100, 110)
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = RiskReward(models.Action("Hold"), 100, 90, 110)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSignalRiskRewardUsesFirstTarget(t *testing.T) {
	e := newTestEngine(t)
	sig, err := e.Generate(models.MarketSnapshot{Symbol: "BTC", Price: 125, Candles: risingCandles(30)}, NewSource(5))
	require.NoError(t, err)

	rr, err := e.RiskReward(sig)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, rr, 1e-9)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	p := DefaultParams()
	p.BuyShare, p.SellShare = 0.7, 0.5
	assert.Error(t, p.Validate())

	p = DefaultParams()
	p.Timeframes = nil
	assert.Error(t, p.Validate())

	p = DefaultParams()
	p.DemandZone.Bearish = Band{Low: 1, High: 1}
	assert.Error(t, p.Validate())
}
