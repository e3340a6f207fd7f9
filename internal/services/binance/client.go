package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"SmartSignal/internal/domain/models"
	drepo "SmartSignal/internal/domain/repository"
	pkghttp "SmartSignal/pkg/http"
	"SmartSignal/pkg/logger"
	"SmartSignal/pkg/util"
)

const (
	// SpotBaseURL is the public spot REST root.
	SpotBaseURL = "https://api.binance.com/api/v3"
	// DefaultQuote is appended to bare asset symbols.
	DefaultQuote = "USDT"
)

// Client implements MarketDataProvider over the Binance spot REST API.
type Client struct {
	http    *pkghttp.Client
	baseURL string
	quote   string
	log     *logger.Logger
}

var _ drepo.MarketDataProvider = (*Client)(nil)

// NewClient creates a REST provider. Empty baseURL and quote fall back to the
// public spot API and USDT.
func NewClient(baseURL, quote string, log *logger.Logger, opts ...pkghttp.ClientOption) *Client {
	if baseURL == "" {
		baseURL = SpotBaseURL
	}
	if quote == "" {
		quote = DefaultQuote
	}
	return &Client{
		http:    pkghttp.NewClient(opts...),
		baseURL: strings.TrimRight(baseURL, "/"),
		quote:   strings.ToUpper(quote),
		log:     log.With(logger.String("component", "binance_rest")),
	}
}

func (c *Client) Name() string { return "binance" }

// Pair maps an asset symbol to the traded pair, e.g. btc -> BTCUSDT.
func (c *Client) Pair(symbol string) string {
	return pairFor(symbol, c.quote)
}

func pairFor(symbol, quote string) string {
	s := util.NormalizeSymbol(symbol)
	if len(s) > len(quote) && strings.HasSuffix(s, quote) {
		return s
	}
	return s + quote
}

type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func (c *Client) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var tp tickerPrice
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         c.baseURL + "/ticker/price",
		QueryParams: map[string][]string{"symbol": {c.Pair(symbol)}},
	}, &tp)
	if err != nil {
		return 0, fmt.Errorf("binance price %s: %w", symbol, err)
	}
	price, err := strconv.ParseFloat(tp.Price, 64)
	if err != nil || price <= 0 {
		return 0, fmt.Errorf("binance price %s: bad value %q", symbol, tp.Price)
	}
	return price, nil
}

// Klines returns candles oldest first. Rows are
// [openTime, open, high, low, close, volume, ...] with prices as strings.
func (c *Client) Klines(ctx context.Context, symbol string, interval drepo.Interval, limit int) ([]models.Candle, error) {
	if !drepo.IsValidInterval(interval) {
		interval = drepo.DefaultInterval()
	}
	if limit <= 0 {
		limit = 50
	}
	var rows [][]interface{}
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.baseURL + "/klines",
		QueryParams: map[string][]string{
			"symbol":   {c.Pair(symbol)},
			"interval": {string(interval)},
			"limit":    {strconv.Itoa(limit)},
		},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
	}

	sym := util.NormalizeSymbol(symbol)
	candles := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		cd, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("binance klines %s row %d: %w", symbol, i, err)
		}
		cd.Symbol = sym
		candles = append(candles, cd)
	}
	c.log.Debug("klines fetched",
		logger.String("symbol", sym),
		logger.String("interval", string(interval)),
		logger.Int("count", len(candles)),
	)
	return candles, nil
}

func parseKline(row []interface{}) (models.Candle, error) {
	if len(row) < 6 {
		return models.Candle{}, fmt.Errorf("short row (%d fields)", len(row))
	}
	var vals [6]float64
	for i := 0; i < 6; i++ {
		v, err := toFloat(row[i])
		if err != nil {
			return models.Candle{}, fmt.Errorf("field %d: %w", i, err)
		}
		vals[i] = v
	}
	return models.Candle{
		Bucket: time.UnixMilli(int64(vals[0])).UTC(),
		Open:   vals[1],
		High:   vals[2],
		Low:    vals[3],
		Close:  vals[4],
		Volume: vals[5],
	}, nil
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		return strconv.ParseFloat(t, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

type depthResponse struct {
	Bids [][2]string `json:"bids"`
	Asks [][2]string `json:"asks"`
}

func (c *Client) OrderBook(ctx context.Context, symbol string, limit int) (models.OrderBook, error) {
	if limit <= 0 {
		limit = 100
	}
	var d depthResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.baseURL + "/depth",
		QueryParams: map[string][]string{
			"symbol": {c.Pair(symbol)},
			"limit":  {strconv.Itoa(limit)},
		},
	}, &d)
	if err != nil {
		return models.OrderBook{}, fmt.Errorf("binance depth %s: %w", symbol, err)
	}

	bids, err := parseLevels(d.Bids)
	if err != nil {
		return models.OrderBook{}, fmt.Errorf("binance depth %s bids: %w", symbol, err)
	}
	asks, err := parseLevels(d.Asks)
	if err != nil {
		return models.OrderBook{}, fmt.Errorf("binance depth %s asks: %w", symbol, err)
	}
	return models.OrderBook{Bids: bids, Asks: asks}, nil
}

func parseLevels(raw [][2]string) ([]models.BookLevel, error) {
	out := make([]models.BookLevel, 0, len(raw))
	for _, lv := range raw {
		p, err := strconv.ParseFloat(lv[0], 64)
		if err != nil {
			return nil, err
		}
		q, err := strconv.ParseFloat(lv[1], 64)
		if err != nil {
			return nil, err
		}
		out = append(out, models.BookLevel{Price: p, Size: q})
	}
	return out, nil
}
