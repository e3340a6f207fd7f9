package insight

import (
	"context"
	"time"

	"SmartSignal/internal/domain/models"
	domsvc "SmartSignal/internal/domain/service"
	"SmartSignal/pkg/logger"
)

const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// completer is the part of *OpenRouter the generator needs.
type completer interface {
	Enabled() bool
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator asks the model for an insight and falls back to the
// deterministic paragraph when the model is unavailable.
type Generator struct {
	llm completer
	log *logger.Logger
}

var _ domsvc.InsightGenerator = (*Generator)(nil)

// NewGenerator returns a generator. A nil or key-less client always yields
// the fallback text.
func NewGenerator(llm *OpenRouter, log *logger.Logger) *Generator {
	g := &Generator{log: log.With(logger.String("component", "insight"))}
	if llm != nil {
		g.llm = llm
	}
	return g
}

// Generate never fails on model errors; those are logged and the fallback is
// returned. Only a cancelled context is reported.
func (g *Generator) Generate(ctx context.Context, s models.TradingSignal, riskReward float64) (models.Insight, error) {
	if g.llm == nil || !g.llm.Enabled() {
		return Fallback(s, riskReward), nil
	}

	start := time.Now()
	text, err := g.llm.Complete(ctx, Prompt(s))
	if err != nil {
		if ctx.Err() != nil {
			return models.Insight{}, ctx.Err()
		}
		g.log.Warn("insight model failed, using fallback",
			logger.String("symbol", s.Symbol),
			logger.Duration("took", time.Since(start)),
			logger.Error(err),
		)
		return Fallback(s, riskReward), nil
	}
	return models.Insight{Analysis: text, Confidence: insightConfidence, Source: SourceLLM}, nil
}
