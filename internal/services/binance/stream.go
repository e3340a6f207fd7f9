package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"SmartSignal/internal/domain/models"
	drepo "SmartSignal/internal/domain/repository"
	"SmartSignal/pkg/logger"
	"SmartSignal/pkg/util"

	"github.com/gorilla/websocket"
)

// DefaultStreamURL is the public combined-stream endpoint.
const DefaultStreamURL = "wss://stream.binance.com:9443"

// Stream implements MarketStream over the Binance combined miniTicker
// websocket.
type Stream struct {
	url            string
	quote          string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	mu        sync.Mutex // guards conn and serialises writes
	conn      *websocket.Conn
	connected atomic.Bool
	reqID     atomic.Int64
}

var _ drepo.MarketStream = (*Stream)(nil)

// NewStream creates a stream for symbols (asset names such as BTC).
func NewStream(url, quote string, symbols []string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) *Stream {
	if url == "" {
		url = DefaultStreamURL
	}
	if quote == "" {
		quote = DefaultQuote
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	syms := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = util.NormalizeSymbol(s); s != "" {
			syms = append(syms, s)
		}
	}
	return &Stream{
		url:            strings.TrimRight(url, "/"),
		quote:          strings.ToUpper(quote),
		symbols:        syms,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log.With(logger.String("component", "binance_stream")),
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url+"/stream", nil)
	if err != nil {
		return fmt.Errorf("binance stream connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.connected.Store(true)
	s.log.Info("connected", logger.String("url", s.url))
	return nil
}

// StreamNames returns the miniTicker stream names, e.g. btcusdt@miniTicker.
func (s *Stream) StreamNames() []string {
	names := make([]string, 0, len(s.symbols))
	for _, sym := range s.symbols {
		names = append(names, strings.ToLower(pairFor(sym, s.quote))+"@miniTicker")
	}
	return names
}

type subscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

// Subscribe subscribes to the configured symbols.
func (s *Stream) Subscribe(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || !s.connected.Load() {
		return fmt.Errorf("binance stream not connected")
	}
	req := subscribeRequest{Method: "SUBSCRIBE", Params: s.StreamNames(), ID: s.reqID.Add(1)}
	if err := s.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	s.log.Info("subscribed", logger.Strings("streams", req.Params))
	return nil
}

type combinedMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type miniTicker struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"` // ms
	Symbol    string `json:"s"`
	Close     string `json:"c"`
}

// parseTick decodes one frame. ok is false for frames that are not ticker
// updates (subscription acks and the like).
func parseTick(b []byte, quote string) (*models.PriceTick, bool) {
	var m combinedMessage
	if err := json.Unmarshal(b, &m); err != nil || len(m.Data) == 0 {
		return nil, false
	}
	var t miniTicker
	if err := json.Unmarshal(m.Data, &t); err != nil || t.Event != "24hrMiniTicker" {
		return nil, false
	}
	price, err := strconv.ParseFloat(t.Close, 64)
	if err != nil || price <= 0 {
		return nil, false
	}
	return &models.PriceTick{
		Symbol: strings.TrimSuffix(t.Symbol, quote),
		Price:  price,
		Time:   time.UnixMilli(t.EventTime).UTC(),
	}, true
}

// Read streams ticks and errors until ctx ends or the connection fails. A
// new Read is needed after Reconnect.
func (s *Stream) Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error) {
	ticks := make(chan *models.PriceTick, 1024)
	errs := make(chan error, 1)

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	readCtx, stop := context.WithCancel(ctx)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-readCtx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				if s.conn == conn && conn != nil {
					_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
				}
				s.mu.Unlock()
			}
		}
	}()

	// read loop
	go func() {
		defer close(ticks)
		defer close(errs)
		defer stop()
		if conn == nil {
			errs <- fmt.Errorf("binance stream conn nil")
			return
		}
		for {
			if readCtx.Err() != nil {
				return
			}
			_, b, err := conn.ReadMessage()
			if err != nil {
				if readCtx.Err() == nil {
					errs <- fmt.Errorf("binance stream read: %w", err)
				}
				return
			}
			tick, ok := parseTick(b, s.quote)
			if !ok {
				continue
			}
			select {
			case ticks <- tick:
			default:
				// drop on backpressure
			}
		}
	}()

	return ticks, errs
}

// Reconnect closes, waits the reconnect delay and connects again.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.reconnectDelay):
	}
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.connected.Store(false)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool { return s.connected.Load() }
