package models

import "time"

// Candle represents one OHLCV interval, oldest first when held in a slice.
type Candle struct {
	Bucket time.Time `json:"timestamp"`
	Symbol string    `json:"symbol,omitempty"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// BookLevel is a single (price, size) pair of an order book side.
type BookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook is a depth snapshot. Scoring accepts it but does not consume it yet.
type OrderBook struct {
	Bids []BookLevel `json:"bids"`
	Asks []BookLevel `json:"asks"`
}

// MarketSnapshot is the immutable input of one signal generation.
type MarketSnapshot struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Candles   []Candle  `json:"candles"`
	OrderBook OrderBook `json:"order_book"`
	Source    string    `json:"source,omitempty"`
}

// LastClose returns the close of the newest candle, or 0 when there are none.
func (s MarketSnapshot) LastClose() float64 {
	if len(s.Candles) == 0 {
		return 0
	}
	return s.Candles[len(s.Candles)-1].Close
}

// PriceTick is a last-price update from the live stream.
type PriceTick struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Time   time.Time `json:"time"`
}
