package analysis

import (
	"math"

	"bingx-scalping-bot/internal/exchange"
)

// bookDepthLevels is how many levels per side contribute to the bid/ask
// ratio and delta.
const bookDepthLevels = 50

// OrderFlow is the net buy/sell pressure estimate from candle volume split
// and order book depth.
type OrderFlow struct {
	Direction     string  `json:"direction"` // bullish, bearish, neutral
	Strength      float64 `json:"strength"`
	BullishVolume float64 `json:"bullish_volume"`
	BearishVolume float64 `json:"bearish_volume"`
	Delta         float64 `json:"delta"`
	DeltaPercent  float64 `json:"delta_percent"`
	BidsAsksRatio float64 `json:"bids_asks_ratio"`
	RecentTrend   string  `json:"recent_trend"` // up or down over last 3 candles
	Signal        string  `json:"signal"`       // long/short only when flow and recent trend agree
}

// AnalyzeOrderFlow splits candle volume into bullish and bearish buckets and
// combines the skew with the order book's bid/ask ratio. Direction requires
// either a 20% volume skew or a book ratio beyond 1.2 (0.83 on the short
// side); strength is boosted when both agree and when delta confirms.
func AnalyzeOrderFlow(candles []exchange.Candle, book *exchange.OrderBookSnapshot) *OrderFlow {
	if len(candles) < 10 {
		return nil
	}

	var bullVol, bearVol float64
	for _, c := range candles {
		if c.Close > c.Open {
			bullVol += c.Volume
		} else if c.Close < c.Open {
			bearVol += c.Volume
		}
	}

	of := &OrderFlow{
		BullishVolume: bullVol,
		BearishVolume: bearVol,
		BidsAsksRatio: 1.0,
	}

	if book != nil {
		bidVol := sumLevels(book.Bids, bookDepthLevels)
		askVol := sumLevels(book.Asks, bookDepthLevels)
		of.Delta = bidVol - askVol
		if bidVol+askVol > 0 {
			of.DeltaPercent = of.Delta / (bidVol + askVol) * 100
		}
		if askVol > 0 {
			of.BidsAsksRatio = bidVol / askVol
		}
	}

	switch {
	case bullVol > bearVol*1.2 || of.BidsAsksRatio > 1.2:
		of.Direction = "bullish"
		base := 5.0
		if bearVol > 0 {
			base = math.Min(bullVol/bearVol, 5.0)
		}
		of.Strength = base
		if of.BidsAsksRatio > 1.2 {
			of.Strength = base * (1 + (of.BidsAsksRatio-1.2)*0.5)
		}
	case bearVol > bullVol*1.2 || of.BidsAsksRatio < 0.83:
		of.Direction = "bearish"
		base := 5.0
		if bullVol > 0 {
			base = math.Min(bearVol/bullVol, 5.0)
		}
		of.Strength = base
		if of.BidsAsksRatio < 0.83 {
			of.Strength = base * (1 + (0.83-of.BidsAsksRatio)*0.5)
		}
	default:
		of.Direction = "neutral"
		of.Strength = 1.0
	}

	if of.Delta > 0 && of.Direction == "bullish" {
		of.Strength *= 1.2
	} else if of.Delta < 0 && of.Direction == "bearish" {
		of.Strength *= 1.2
	}

	last3 := candles[len(candles)-3:]
	if last3[2].Close > last3[0].Close {
		of.RecentTrend = "up"
	} else {
		of.RecentTrend = "down"
	}

	switch {
	case of.Direction == "bullish" && of.RecentTrend == "up":
		of.Signal = DirectionLong
	case of.Direction == "bearish" && of.RecentTrend == "down":
		of.Signal = DirectionShort
	default:
		of.Signal = DirectionNeutral
	}
	return of
}

func sumLevels(levels []exchange.BookLevel, limit int) float64 {
	if len(levels) < limit {
		limit = len(levels)
	}
	var sum float64
	for _, l := range levels[:limit] {
		sum += l.Size
	}
	return sum
}
