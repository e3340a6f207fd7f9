package insight

import (
	"fmt"
	"strings"

	"SmartSignal/internal/domain/models"

	"github.com/shopspring/decimal"
)

// insightConfidence is the fixed confidence attached to every insight.
const insightConfidence = 95

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func direction(s models.TradingSignal) (sentiment, trend string) {
	if s.Action.IsBuy() {
		return "bullish", "Bullish"
	}
	return "bearish", "Bearish"
}

// Prompt renders the model prompt for a signal.
func Prompt(s models.TradingSignal) string {
	sentiment, trend := direction(s)
	var b strings.Builder
	fmt.Fprintf(&b, "You are ELITE-AI, a world-class trading strategist with 20 years of institutional experience.\n")
	fmt.Fprintf(&b, "Analyze this %s setup and deliver a single, powerful paragraph that sounds like a professional terminal alert.\n\n", s.Symbol)
	b.WriteString("Structure:\n")
	fmt.Fprintf(&b, "- Start with: \"Strong %s setup presents itself...\"\n", sentiment)
	b.WriteString("- Mention price, entry, SL, TP, confluence count\n")
	b.WriteString("- Highlight demand/supply zones and FVG\n")
	b.WriteString("- Note volume bias\n")
	b.WriteString("- End with a sharp, confident conclusion\n\n")
	b.WriteString("Tone: Professional, urgent, elite. No markdown. Max 180 tokens.\n\n")
	b.WriteString("Data:\n")
	fmt.Fprintf(&b, "Price: $%s\n", money(s.Price))
	fmt.Fprintf(&b, "Trend: %s\n", trend)
	fmt.Fprintf(&b, "Action: %s\n", s.Action.Label())
	fmt.Fprintf(&b, "Entry: $%s, SL: $%s, TP1: $%s\n", money(s.Entry), money(s.StopLoss), money(s.TakeProfit.TP1))
	fmt.Fprintf(&b, "Confluence: %d factors\n", len(s.ConfluenceFactors))
	fmt.Fprintf(&b, "Demand Zone: $%s-%s\n", money(s.Zones.Demand.Low), money(s.Zones.Demand.High))
	fmt.Fprintf(&b, "FVG: $%s-%s\n", money(s.Zones.FVG.Low), money(s.Zones.FVG.High))
	fmt.Fprintf(&b, "Volume: %s\n", s.Volume.ImbalanceLabel)
	return b.String()
}

func confidenceWords(factors int) string {
	switch {
	case factors >= 6:
		return "very high"
	case factors >= 4:
		return "high"
	case factors >= 2:
		return "moderate"
	default:
		return "low"
	}
}

func riskRewardWords(rr float64) string {
	switch {
	case rr > 2:
		return "Offering an exceptional risk-reward profile"
	case rr > 1.5:
		return "Providing a solid risk-reward opportunity"
	default:
		return "Presenting a marginal risk-reward setup that requires tight risk management"
	}
}

// Fallback writes the deterministic paragraph used when no model answer is
// available.
func Fallback(s models.TradingSignal, riskReward float64) models.Insight {
	sentiment, _ := direction(s)
	n := len(s.ConfluenceFactors)

	var zone, exposure string
	if s.Action.IsBuy() {
		zone = fmt.Sprintf("Price is approaching a strong demand zone between $%s and $%s, where institutional buyers have historically entered the market",
			money(s.Zones.Demand.Low), money(s.Zones.Demand.High))
		exposure = "long"
	} else {
		zone = fmt.Sprintf("Price is approaching a significant supply zone between $%s and $%s, where institutional sellers have historically entered the market",
			money(s.Zones.Supply.Low), money(s.Zones.Supply.High))
		exposure = "short"
	}
	fvg := fmt.Sprintf("The Fair Value Gap at $%s-%s represents an unfilled liquidity zone that price is likely to revisit, creating a high-probability entry opportunity",
		money(s.Zones.FVG.Low), money(s.Zones.FVG.High))

	volume := "distribution by large market participants"
	if strings.Contains(s.Volume.ImbalanceLabel, "Buying") {
		volume = "significant institutional accumulation"
	}

	conclusion := fmt.Sprintf("This %s setup presents a high-conviction opportunity for institutional-grade %s exposure with defined risk parameters. Monitor price action as it approaches the entry zone for confirmation.",
		s.Symbol, exposure)

	analysis := fmt.Sprintf("Strong %s setup presents itself in %s at $%s. The market structure shows %s confidence with %d confluence factors aligning. %s. %s. Volume analysis reveals %s, confirming the directional bias. %s. %s",
		sentiment, s.Symbol, money(s.Price), confidenceWords(n), n, zone, fvg, volume, riskRewardWords(riskReward), conclusion)

	return models.Insight{Analysis: analysis, Confidence: insightConfidence, Source: SourceFallback}
}
