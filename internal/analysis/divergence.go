package analysis

import "bingx-scalping-bot/internal/exchange"

// divergenceWindow is how many recent closes are scanned for local extrema.
const divergenceWindow = 20

// Divergence reports a price/oscillator disagreement at the two most recent
// local extrema.
type Divergence struct {
	Bullish bool   `json:"bullish"`
	Bearish bool   `json:"bearish"`
	Signal  string `json:"signal"` // long, short or neutral
}

// HasDivergence reports whether either side diverges.
func (d *Divergence) HasDivergence() bool {
	return d != nil && (d.Bullish || d.Bearish)
}

// DetectDivergence compares the last two local price lows (and highs) of the
// recent window against the oscillator values at the same indices. A lower
// price low with a higher oscillator value is bullish divergence; the
// mirror is bearish.
func DetectDivergence(candles []exchange.Candle, oscillator []float64) *Divergence {
	if len(candles) < divergenceWindow || len(oscillator) < divergenceWindow {
		return &Divergence{Signal: DirectionNeutral}
	}

	prices := make([]float64, divergenceWindow)
	for i, c := range candles[len(candles)-divergenceWindow:] {
		prices[i] = c.Close
	}
	osc := oscillator[len(oscillator)-divergenceWindow:]

	type extremum struct {
		idx   int
		price float64
	}
	var lows, highs []extremum
	for i := 1; i < len(prices)-1; i++ {
		if prices[i] < prices[i-1] && prices[i] < prices[i+1] {
			lows = append(lows, extremum{i, prices[i]})
		}
		if prices[i] > prices[i-1] && prices[i] > prices[i+1] {
			highs = append(highs, extremum{i, prices[i]})
		}
	}

	d := &Divergence{Signal: DirectionNeutral}
	if len(lows) >= 2 {
		last, prev := lows[len(lows)-1], lows[len(lows)-2]
		if last.price < prev.price && osc[last.idx] > osc[prev.idx] {
			d.Bullish = true
			d.Signal = DirectionLong
		}
	}
	if len(highs) >= 2 {
		last, prev := highs[len(highs)-1], highs[len(highs)-2]
		if last.price > prev.price && osc[last.idx] < osc[prev.idx] {
			d.Bearish = true
			if !d.Bullish {
				d.Signal = DirectionShort
			}
		}
	}
	return d
}
