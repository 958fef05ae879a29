package fusion

import (
	talib "github.com/markcheno/go-talib"

	"bingx-scalping-bot/internal/exchange"
)

// Higher-timeframe trend labels.
const (
	TrendBullish = "bullish"
	TrendBearish = "bearish"
	TrendNone    = ""
)

// DetermineTrend classifies the higher-timeframe trend from the last 20
// closes: a move beyond 2% with price clearing EMA9 by more than 1% on the
// matching side. Anything else is no trend.
func DetermineTrend(candles []exchange.Candle) string {
	if len(candles) < 20 {
		return TrendNone
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	recent := closes[len(closes)-20:]
	first, last := recent[0], recent[len(recent)-1]
	if first <= 0 {
		return TrendNone
	}
	change := (last - first) / first * 100

	ema9 := talib.Ema(closes, 9)
	ema := ema9[len(ema9)-1]

	switch {
	case change > 2 && last > ema*1.01:
		return TrendBullish
	case change < -2 && last < ema*0.99:
		return TrendBearish
	default:
		return TrendNone
	}
}

// ApplyTrendFilter penalizes decisions that oppose the higher-timeframe
// trend and neutralizes them when the remaining probability is too low.
func (s *Scorer) ApplyTrendFilter(d *FusedDecision, htfTrend string) {
	if d.Direction == DirectionNeutral || htfTrend == TrendNone {
		return
	}
	opposed := (d.Direction == DirectionLong && htfTrend == TrendBearish) ||
		(d.Direction == DirectionShort && htfTrend == TrendBullish)
	if !opposed {
		return
	}

	d.Probability -= s.weights.TrendConflictPenalty
	if d.Probability < s.weights.TrendNeutralFloor {
		d.Neutralize("signal opposes " + htfTrend + " higher-timeframe trend")
	}
}
