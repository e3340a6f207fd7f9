package engine

import (
	"fmt"

	"SmartSignal/internal/domain/models"
)

// RiskReward returns reward distance to tp1 over risk distance to the stop.
func RiskReward(action models.Action, entry, stopLoss, tp1 float64) (float64, error) {
	var reward, risk float64
	switch action {
	case models.ActionBuyOnPullback:
		reward, risk = tp1-entry, entry-stopLoss
	case models.ActionSellOnRally:
		reward, risk = entry-tp1, stopLoss-entry
	default:
		return 0, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}
	if risk == 0 {
		return 0, fmt.Errorf("%w: entry equals stop loss (%v)", ErrDivisionByZero, entry)
	}
	return reward / risk, nil
}

// SignalRiskReward applies RiskReward to an assembled signal.
func SignalRiskReward(s models.TradingSignal) (float64, error) {
	return RiskReward(s.Action, s.Entry, s.StopLoss, s.TakeProfit.TP1)
}
