package insight

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SmartSignal/internal/domain/models"
	"SmartSignal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bullishSignal() models.TradingSignal {
	return models.TradingSignal{
		Symbol:            "BTC",
		Price:             30000,
		Action:            models.ActionBuyOnPullback,
		Entry:             29700,
		StopLoss:          29100,
		TakeProfit:        models.TakeProfit{TP1: 30900, TP2: 31800, TP3: 33000},
		Confidence:        models.ConfidenceHigh,
		ConfluenceFactors: []string{"a", "b", "c", "d", "e"},
		Volume:            models.VolumeSplit{BuyVolume: 550, SellVolume: 450, ImbalanceLabel: "Net Buying Pressure"},
		Zones: models.Zones{
			Demand: models.Zone{Low: 29400, High: 29640},
			Supply: models.Zone{Low: 30450, High: 30750},
			FVG:    models.Zone{Low: 29250, High: 29400},
		},
	}
}

func TestFallbackBullish(t *testing.T) {
	in := Fallback(bullishSignal(), 2.0)

	assert.Equal(t, SourceFallback, in.Source)
	assert.Equal(t, 95, in.Confidence)
	assert.True(t, strings.HasPrefix(in.Analysis, "Strong bullish setup presents itself in BTC at $30000.00."))
	assert.Contains(t, in.Analysis, "high confidence with 5 confluence factors aligning")
	assert.Contains(t, in.Analysis, "strong demand zone between $29400.00 and $29640.00")
	assert.Contains(t, in.Analysis, "Fair Value Gap at $29250.00-29400.00")
	assert.Contains(t, in.Analysis, "significant institutional accumulation")
	assert.Contains(t, in.Analysis, "Providing a solid risk-reward opportunity")
	assert.Contains(t, in.Analysis, "institutional-grade long exposure")
}

func TestFallbackBearish(t *testing.T) {
	s := bullishSignal()
	s.Action = models.ActionSellOnRally
	s.ConfluenceFactors = s.ConfluenceFactors[:1]
	s.Volume.ImbalanceLabel = "Net Selling Pressure"

	in := Fallback(s, 2.5)

	assert.Contains(t, in.Analysis, "Strong bearish setup")
	assert.Contains(t, in.Analysis, "low confidence with 1 confluence factors")
	assert.Contains(t, in.Analysis, "supply zone between $30450.00 and $30750.00")
	assert.Contains(t, in.Analysis, "distribution by large market participants")
	assert.Contains(t, in.Analysis, "Offering an exceptional risk-reward profile")
	assert.Contains(t, in.Analysis, "short exposure")
}

func TestRiskRewardWords(t *testing.T) {
	assert.Contains(t, riskRewardWords(1.5), "marginal")
	assert.Contains(t, riskRewardWords(1.51), "solid")
	assert.Contains(t, riskRewardWords(2), "solid")
	assert.Contains(t, riskRewardWords(2.01), "exceptional")
}

func TestConfidenceWords(t *testing.T) {
	assert.Equal(t, "very high", confidenceWords(6))
	assert.Equal(t, "high", confidenceWords(4))
	assert.Equal(t, "moderate", confidenceWords(2))
	assert.Equal(t, "low", confidenceWords(0))
}

func TestPromptListsSignalData(t *testing.T) {
	p := Prompt(bullishSignal())
	assert.Contains(t, p, "Price: $30000.00")
	assert.Contains(t, p, "Trend: Bullish")
	assert.Contains(t, p, "Entry: $29700.00, SL: $29100.00, TP1: $30900.00")
	assert.Contains(t, p, "Confluence: 5 factors")
	assert.Contains(t, p, "Demand Zone: $29400.00-29640.00")
	assert.Contains(t, p, "Volume: Net Buying Pressure")
}

func TestOpenRouterComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "SmartSignal Pro AI", r.Header.Get("X-Title"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, 200, req.MaxTokens)
		assert.Equal(t, 0.6, req.Temperature)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Strong bullish setup.  "}}]}`))
	}))
	defer srv.Close()

	or := NewOpenRouter(OpenRouterConfig{URL: srv.URL, APIKey: "sk-test", Model: "test-model", Title: "SmartSignal Pro AI", Temperature: 0.6})
	text, err := or.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Strong bullish setup.", text)
}

func TestOpenRouterEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	or := NewOpenRouter(OpenRouterConfig{URL: srv.URL, APIKey: "k"})
	_, err := or.Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

type fakeCompleter struct {
	enabled bool
	text    string
	err     error
	prompts []string
}

func (f *fakeCompleter) Enabled() bool { return f.enabled }

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func TestGenerator(t *testing.T) {
	ctx := context.Background()
	s := bullishSignal()

	g := NewGenerator(nil, logger.Nop())
	in, err := g.Generate(ctx, s, 2)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, in.Source)

	llm := &fakeCompleter{enabled: true, text: "Model says buy."}
	g.llm = llm
	in, err = g.Generate(ctx, s, 2)
	require.NoError(t, err)
	assert.Equal(t, models.Insight{Analysis: "Model says buy.", Confidence: 95, Source: SourceLLM}, in)
	require.Len(t, llm.prompts, 1)

	llm.err = errors.New("429")
	in, err = g.Generate(ctx, s, 2)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, in.Source)

	llm.enabled = false
	llm.err = nil
	_, _ = g.Generate(ctx, s, 2)
	assert.Len(t, llm.prompts, 2, "disabled client is not called")
}

func TestGeneratorCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	g := NewGenerator(nil, logger.Nop())
	g.llm = &fakeCompleter{enabled: true, err: context.DeadlineExceeded}
	_, err := g.Generate(ctx, bullishSignal(), 2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
