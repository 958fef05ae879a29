package analysis

import (
	"math"

	"bingx-scalping-bot/internal/exchange"
)

// BookSummary is a condensed read of one depth snapshot.
type BookSummary struct {
	BidVolume        float64 `json:"bid_volume"`
	AskVolume        float64 `json:"ask_volume"`
	ImbalancePercent float64 `json:"imbalance_percent"`
	BidsAsksRatio    float64 `json:"bids_asks_ratio"`
	Signal           string  `json:"signal"` // strong_bullish, bullish, neutral, bearish, strong_bearish
	LargeBidLevels   int     `json:"large_bid_levels"`
	LargeAskLevels   int     `json:"large_ask_levels"`
}

// SummarizeOrderBook computes bid/ask volume imbalance over the top 50
// levels per side and counts unusually large resting levels (at least 2x
// the average size) within 1% of the current price.
func SummarizeOrderBook(book *exchange.OrderBookSnapshot, currentPrice float64) *BookSummary {
	if book == nil || len(book.Bids) == 0 || len(book.Asks) == 0 {
		return nil
	}

	bidVol := sumLevels(book.Bids, bookDepthLevels)
	askVol := sumLevels(book.Asks, bookDepthLevels)

	s := &BookSummary{
		BidVolume:     bidVol,
		AskVolume:     askVol,
		BidsAsksRatio: 1.0,
	}
	if total := bidVol + askVol; total > 0 {
		s.ImbalancePercent = (bidVol - askVol) / total * 100
	}
	if askVol > 0 {
		s.BidsAsksRatio = bidVol / askVol
	}

	switch {
	case s.ImbalancePercent > 30 || s.BidsAsksRatio > 1.5:
		s.Signal = "strong_bullish"
	case s.ImbalancePercent > 10 || s.BidsAsksRatio > 1.2:
		s.Signal = "bullish"
	case s.ImbalancePercent < -30 || s.BidsAsksRatio < 0.67:
		s.Signal = "strong_bearish"
	case s.ImbalancePercent < -10 || s.BidsAsksRatio < 0.83:
		s.Signal = "bearish"
	default:
		s.Signal = "neutral"
	}

	s.LargeBidLevels = countLargeLevels(book.Bids, currentPrice)
	s.LargeAskLevels = countLargeLevels(book.Asks, currentPrice)
	return s
}

// RestingVolumeNear sums book volume on both sides within tolerancePercent
// of the given level, counting only levels whose size exceeds minSize. The
// pool-swept cancellation uses this to see whether a liquidity pool still
// has supporting orders behind it.
func RestingVolumeNear(book *exchange.OrderBookSnapshot, level, tolerancePercent, minSize float64) float64 {
	if book == nil || level <= 0 {
		return 0
	}
	tolerance := level * tolerancePercent / 100

	var sum float64
	scan := func(levels []exchange.BookLevel) {
		limit := 20
		if len(levels) < limit {
			limit = len(levels)
		}
		for _, l := range levels[:limit] {
			if math.Abs(l.Price-level) <= tolerance && l.Size > minSize {
				sum += l.Size
			}
		}
	}
	scan(book.Bids)
	scan(book.Asks)
	return sum
}

func countLargeLevels(levels []exchange.BookLevel, currentPrice float64) int {
	if len(levels) == 0 || currentPrice <= 0 {
		return 0
	}
	limit := 10
	if len(levels) < limit {
		limit = len(levels)
	}

	var total float64
	for _, l := range levels {
		total += l.Size
	}
	avg := total / float64(len(levels))

	count := 0
	for _, l := range levels[:limit] {
		distance := math.Abs(l.Price-currentPrice) / currentPrice * 100
		if distance < 1.0 && l.Size > avg*2 {
			count++
		}
	}
	return count
}
