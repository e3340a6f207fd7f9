package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("signal not found")
	ErrInvalidStatus = errors.New("invalid signal status")
)

// SignalStatus is the lifecycle state of a persisted signal.
type SignalStatus string

const (
	StatusActive  SignalStatus = "active"
	StatusClosed  SignalStatus = "closed"
	StatusStopped SignalStatus = "stopped"
)

// ParseStatus validates a raw status string.
func ParseStatus(s string) (SignalStatus, error) {
	switch SignalStatus(s) {
	case StatusActive, StatusClosed, StatusStopped:
		return SignalStatus(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// TechnicalData is the structural part of a signal kept as json.
type TechnicalData struct {
	SwingHigh       float64       `json:"swingHigh"`
	SwingLow        float64       `json:"swingLow"`
	Pivot           float64       `json:"pivot"`
	Supports        []float64     `json:"supports"`
	Resistances     []float64     `json:"resistances"`
	DemandZone      Zone          `json:"demandZone"`
	SupplyZone      Zone          `json:"supplyZone"`
	FVGZone         Zone          `json:"fvgZone"`
	VolumeProfile   VolumeProfile `json:"volumeProfile"`
	LiquidityPool   float64       `json:"liquidityPool"`
	MarketStructure string        `json:"marketStructure"`
	MTFA            []string      `json:"mtfa"`
	ATR             float64       `json:"atr"`
}

// MarketData is the price/volume part of a signal kept as json.
type MarketData struct {
	Price           float64 `json:"price"`
	BuyVolume       float64 `json:"buyVolume"`
	SellVolume      float64 `json:"sellVolume"`
	VolumeImbalance string  `json:"volumeImbalance"`
}

// SignalRecord is a row of the trading_signals table.
type SignalRecord struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	Symbol          string        `json:"symbol"`
	SignalType      string        `json:"signal_type"`
	EntryPrice      float64       `json:"entry_price"`
	StopLoss        float64       `json:"stop_loss"`
	TakeProfit1     float64       `json:"take_profit_1"`
	TakeProfit2     float64       `json:"take_profit_2"`
	TakeProfit3     float64       `json:"take_profit_3"`
	ConfidenceLevel string        `json:"confidence_level"`
	ConfluenceCount int           `json:"confluence_count"`
	AIInsight       string        `json:"ai_insight,omitempty"`
	TechnicalData   TechnicalData `json:"technical_data"`
	MarketData      MarketData    `json:"market_data"`
	Status          SignalStatus  `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// NewSignalRecord flattens a signal into an active record owned by userID.
func NewSignalRecord(userID string, s TradingSignal, insight string, now time.Time) SignalRecord {
	return SignalRecord{
		ID:              uuid.NewString(),
		UserID:          userID,
		Symbol:          s.Symbol,
		SignalType:      s.Action.SignalType(),
		EntryPrice:      s.Entry,
		StopLoss:        s.StopLoss,
		TakeProfit1:     s.TakeProfit.TP1,
		TakeProfit2:     s.TakeProfit.TP2,
		TakeProfit3:     s.TakeProfit.TP3,
		ConfidenceLevel: s.Confidence.Level(),
		ConfluenceCount: len(s.ConfluenceFactors),
		AIInsight:       insight,
		TechnicalData: TechnicalData{
			SwingHigh:       s.Levels.SwingHigh,
			SwingLow:        s.Levels.SwingLow,
			Pivot:           s.Levels.Pivot,
			Supports:        []float64{s.Levels.S1, s.Levels.S2},
			Resistances:     []float64{s.Levels.R1, s.Levels.R2},
			DemandZone:      s.Zones.Demand,
			SupplyZone:      s.Zones.Supply,
			FVGZone:         s.Zones.FVG,
			VolumeProfile:   s.VolumeProfile,
			LiquidityPool:   s.LiquidityPool,
			MarketStructure: s.MarketStructure,
			MTFA:            s.MultiTimeframeAlignment,
			ATR:             s.ATR,
		},
		MarketData: MarketData{
			Price:           s.Price,
			BuyVolume:       s.Volume.BuyVolume,
			SellVolume:      s.Volume.SellVolume,
			VolumeImbalance: s.Volume.ImbalanceLabel,
		},
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SignalFilter narrows list queries. Zero values mean "any".
type SignalFilter struct {
	UserID string
	Symbol string
	Status SignalStatus
	Since  time.Time
	Limit  int
	Offset int
}

// ArchivedSignal is a compact history row kept for analytics.
type ArchivedSignal struct {
	Timestamp       time.Time `json:"ts"`
	Symbol          string    `json:"symbol"`
	Action          Action    `json:"action"`
	Price           float64   `json:"price"`
	Entry           float64   `json:"entry"`
	StopLoss        float64   `json:"stop_loss"`
	TakeProfit1     float64   `json:"tp1"`
	Confidence      string    `json:"confidence"`
	ConfluenceCount int       `json:"confluence_count"`
	ATR             float64   `json:"atr"`
	RiskReward      float64   `json:"risk_reward"`
	Mode            string    `json:"mode"`
}
