package exchange

import "context"

// Client defines the narrow interface the trading core consumes.
// Implementations own authentication, request signing and transport-level
// retries; callers only react to success or failure. Every call is safe to
// retry on transient network failure.
type Client interface {
	// ==================== MARKET DATA ====================

	// GetTicker retrieves last price, top of book and 24h quote volume.
	GetTicker(ctx context.Context, symbol string) (*Ticker, error)

	// GetOHLCV retrieves up to limit candles for the given timeframe,
	// ordered by increasing open time, the last candle being current.
	GetOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]Candle, error)

	// GetOrderBook retrieves a depth snapshot with up to depth levels per side.
	GetOrderBook(ctx context.Context, symbol string, depth int) (*OrderBookSnapshot, error)

	// GetTopSymbolsByVolume retrieves up to limit symbols ranked by 24h
	// quote volume, used to backfill the tradable pair list.
	GetTopSymbolsByVolume(ctx context.Context, limit int) ([]Ticker, error)

	// ==================== ACCOUNT ====================

	// GetBalance retrieves quote-currency equity.
	GetBalance(ctx context.Context) (*Balance, error)

	// GetPositions retrieves exchange-side open positions.
	GetPositions(ctx context.Context) ([]ExchangePosition, error)

	// ==================== TRADING ====================

	// SetLeverage sets the leverage for a symbol before entry.
	SetLeverage(ctx context.Context, symbol string, leverage int) error

	// PlaceMarketOrder places a market order and returns the fill.
	PlaceMarketOrder(ctx context.Context, symbol, side string, size float64) (*OrderResult, error)
}
