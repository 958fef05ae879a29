package exchange

// Candle represents a single OHLCV candle. Sequences returned by the
// adapter are ordered by strictly increasing OpenTime.
type Candle struct {
	OpenTime int64   `json:"openTime"`
	Open     float64 `json:"open,string"`
	High     float64 `json:"high,string"`
	Low      float64 `json:"low,string"`
	Close    float64 `json:"close,string"`
	Volume   float64 `json:"volume,string"`
}

// IsBullish reports whether the candle closed above its open.
func (c Candle) IsBullish() bool {
	return c.Close > c.Open
}

// Body returns the absolute body size of the candle.
func (c Candle) Body() float64 {
	b := c.Close - c.Open
	if b < 0 {
		return -b
	}
	return b
}

// UpperWick returns the distance from the body top to the high.
func (c Candle) UpperWick() float64 {
	top := c.Open
	if c.Close > top {
		top = c.Close
	}
	return c.High - top
}

// LowerWick returns the distance from the body bottom to the low.
func (c Candle) LowerWick() float64 {
	bottom := c.Open
	if c.Close < bottom {
		bottom = c.Close
	}
	return bottom - c.Low
}

// BookLevel is a single resting order book level.
type BookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBookSnapshot is a point-in-time depth snapshot. Bids are ordered by
// descending price, asks by ascending price.
type OrderBookSnapshot struct {
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
	Timestamp int64       `json:"timestamp"`
}

// Ticker represents last-trade and top-of-book prices plus 24h volume.
type Ticker struct {
	Symbol      string  `json:"symbol"`
	Last        float64 `json:"last,string"`
	Bid         float64 `json:"bid,string"`
	Ask         float64 `json:"ask,string"`
	QuoteVolume float64 `json:"quoteVolume,string"`
}

// Balance represents account equity in the quote currency.
type Balance struct {
	Total float64 `json:"total,string"`
	Free  float64 `json:"free,string"`
}

// ExchangePosition is a position as reported by the exchange itself, used
// only for conflict checks before opening.
type ExchangePosition struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"` // LONG or SHORT
	Size       float64 `json:"size,string"`
	EntryPrice float64 `json:"entryPrice,string"`
}

// OrderResult is the adapter's response to a market order.
type OrderResult struct {
	OrderID   string  `json:"orderId"`
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"`
	FillPrice float64 `json:"fillPrice,string"`
	Size      float64 `json:"size,string"`
}

// Order sides accepted by PlaceMarketOrder.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)
