package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"SmartSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func archived(symbol string, ts time.Time) models.ArchivedSignal {
	return models.ArchivedSignal{
		Timestamp:       ts,
		Symbol:          symbol,
		Action:          models.ActionBuyOnPullback,
		Price:           100,
		Entry:           99,
		StopLoss:        97,
		TakeProfit1:     103,
		Confidence:      "high",
		ConfluenceCount: 5,
		ATR:             1.5,
		RiskReward:      2,
		Mode:            "3",
	}
}

func TestMemorySignalArchive(t *testing.T) {
	ctx := context.Background()
	a := NewMemorySignalArchive(3)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, a.Append(ctx,
		archived("BTC", base),
		archived("ETH", base.Add(time.Minute)),
		archived("BTC", base.Add(2*time.Minute)),
		archived("BTC", base.Add(3*time.Minute)),
	))

	btc, err := a.Recent(ctx, "BTC", 10)
	require.NoError(t, err)
	require.Len(t, btc, 2, "oldest row dropped at capacity")
	assert.Equal(t, base.Add(3*time.Minute), btc[0].Timestamp)

	all, err := a.Recent(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestBuildArchiveInsert(t *testing.T) {
	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	q, args := buildArchiveInsert("smartsignal.signal_history", []models.ArchivedSignal{
		archived("BTC", ts),
		{Symbol: "", Timestamp: ts},
		archived("ETH", ts),
	})

	assert.Contains(t, q, "INSERT INTO smartsignal.signal_history (ts, symbol")
	assert.Equal(t, 2, strings.Count(q, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"))
	require.Len(t, args, 24)
	assert.Equal(t, "BTC", args[1])
	assert.Equal(t, "BuyOnPullback", args[2])
	assert.Equal(t, uint8(5), args[8])

	q, args = buildArchiveInsert("t", nil)
	assert.Empty(t, q)
	assert.Nil(t, args)
}

func TestArchiveSchema(t *testing.T) {
	stmts := archiveSchema("smartsignal", "smartsignal.signal_history")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[1], "ORDER BY (symbol, ts)")
	assert.Contains(t, stmts[1], "ENGINE = MergeTree")
}
