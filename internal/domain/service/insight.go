package service

import (
	"context"

	"SmartSignal/internal/domain/models"
)

// InsightGenerator writes the prose commentary for an assembled signal.
type InsightGenerator interface {
	Generate(ctx context.Context, signal models.TradingSignal, riskReward float64) (models.Insight, error)
}
