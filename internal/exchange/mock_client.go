package exchange

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// MockClient implements Client with synthetic but shaped market data. It is
// used by dry-run mode and by tests. Prices per symbol follow a slow drift
// with noise so indicator math sees plausible series.
type MockClient struct {
	mu        sync.RWMutex
	balance   float64
	leverage  map[string]int
	positions map[string]*ExchangePosition
	prices    map[string]float64
	drifts    map[string]float64
	nextID    int64
	rng       *rand.Rand
}

// NewMockClient creates a mock client with the given starting balance.
func NewMockClient(initialBalance float64) *MockClient {
	return &MockClient{
		balance:   initialBalance,
		leverage:  make(map[string]int),
		positions: make(map[string]*ExchangePosition),
		prices:    make(map[string]float64),
		drifts:    make(map[string]float64),
		nextID:    1000,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetPrice pins the current price for a symbol. Tests use this to drive
// deterministic scenarios.
func (c *MockClient) SetPrice(symbol string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[symbol] = price
}

func (c *MockClient) priceLocked(symbol string) float64 {
	p, ok := c.prices[symbol]
	if !ok {
		p = 100.0 + c.rng.Float64()*900.0
		c.prices[symbol] = p
		c.drifts[symbol] = (c.rng.Float64() - 0.5) * 0.002
	}
	return p
}

// ==================== MARKET DATA ====================

func (c *MockClient) GetTicker(ctx context.Context, symbol string) (*Ticker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.priceLocked(symbol)
	spread := p * 0.0002
	return &Ticker{
		Symbol:      symbol,
		Last:        p,
		Bid:         p - spread/2,
		Ask:         p + spread/2,
		QuoteVolume: 2_000_000 + c.rng.Float64()*50_000_000,
	}, nil
}

func (c *MockClient) GetOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]Candle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	base := c.priceLocked(symbol)
	drift := c.drifts[symbol]
	step, err := timeframeDuration(timeframe)
	if err != nil {
		return nil, err
	}

	candles := make([]Candle, limit)
	now := time.Now().Truncate(step)
	// Walk backwards from the current price so the last candle closes at it.
	price := base
	for i := limit - 1; i >= 0; i-- {
		close := price
		open := close / (1 + drift + (c.rng.Float64()-0.5)*0.004)
		high := open
		if close > high {
			high = close
		}
		high *= 1 + c.rng.Float64()*0.002
		low := open
		if close < low {
			low = close
		}
		low *= 1 - c.rng.Float64()*0.002

		candles[i] = Candle{
			OpenTime: now.Add(-time.Duration(limit-i) * step).UnixMilli(),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    close,
			Volume:   100 + c.rng.Float64()*500,
		}
		price = open
	}
	return candles, nil
}

func (c *MockClient) GetOrderBook(ctx context.Context, symbol string, depth int) (*OrderBookSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.priceLocked(symbol)
	bids := make([]BookLevel, depth)
	asks := make([]BookLevel, depth)
	for i := 0; i < depth; i++ {
		bids[i] = BookLevel{
			Price: p * (1 - float64(i+1)*0.0001),
			Size:  0.5 + c.rng.Float64()*2.0,
		}
		asks[i] = BookLevel{
			Price: p * (1 + float64(i+1)*0.0001),
			Size:  0.5 + c.rng.Float64()*2.0,
		}
	}
	return &OrderBookSnapshot{
		Bids:      bids,
		Asks:      asks,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

func (c *MockClient) GetTopSymbolsByVolume(ctx context.Context, limit int) ([]Ticker, error) {
	symbols := []string{"BTC-USDT", "ETH-USDT", "SOL-USDT", "ZEC-USDT", "WIF-USDT", "XRP-USDT", "DOGE-USDT", "LINK-USDT"}
	if limit > len(symbols) {
		limit = len(symbols)
	}
	out := make([]Ticker, 0, limit)
	for _, s := range symbols[:limit] {
		t, err := c.GetTicker(ctx, s)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

// ==================== ACCOUNT ====================

func (c *MockClient) GetBalance(ctx context.Context) (*Balance, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Balance{Total: c.balance, Free: c.balance}, nil
}

func (c *MockClient) GetPositions(ctx context.Context) ([]ExchangePosition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ExchangePosition, 0, len(c.positions))
	for _, p := range c.positions {
		out = append(out, *p)
	}
	return out, nil
}

// ==================== TRADING ====================

func (c *MockClient) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	if leverage < 1 || leverage > 125 {
		return fmt.Errorf("invalid leverage %d: must be between 1 and 125", leverage)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leverage[symbol] = leverage
	return nil
}

func (c *MockClient) PlaceMarketOrder(ctx context.Context, symbol, side string, size float64) (*OrderResult, error) {
	if side != SideBuy && side != SideSell {
		return nil, fmt.Errorf("invalid order side %q", side)
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid order size %f", size)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	fill := c.priceLocked(symbol)
	c.nextID++

	if pos, ok := c.positions[symbol]; ok {
		// Opposite side reduces or closes the existing position.
		closing := (pos.Side == "LONG" && side == SideSell) || (pos.Side == "SHORT" && side == SideBuy)
		if closing {
			if size >= pos.Size {
				delete(c.positions, symbol)
			} else {
				pos.Size -= size
			}
		} else {
			pos.Size += size
		}
	} else {
		posSide := "LONG"
		if side == SideSell {
			posSide = "SHORT"
		}
		c.positions[symbol] = &ExchangePosition{
			Symbol:     symbol,
			Side:       posSide,
			Size:       size,
			EntryPrice: fill,
		}
	}

	return &OrderResult{
		OrderID:   fmt.Sprintf("mock-%d", c.nextID),
		Symbol:    symbol,
		Side:      side,
		FillPrice: fill,
		Size:      size,
	}, nil
}

func timeframeDuration(tf string) (time.Duration, error) {
	switch tf {
	case "1m":
		return time.Minute, nil
	case "5m":
		return 5 * time.Minute, nil
	case "15m":
		return 15 * time.Minute, nil
	case "1h":
		return time.Hour, nil
	case "4h":
		return 4 * time.Hour, nil
	case "1d":
		return 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown timeframe %q", tf)
	}
}
