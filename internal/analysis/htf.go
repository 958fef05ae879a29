package analysis

import (
	"math"

	"bingx-scalping-bot/internal/exchange"
)

const htfZoneProximityPercent = 0.5

// HigherTimeframeSignals detects imbalance and fair-value-gap zones on a
// slower candle series and returns signals for zones the current price is
// trading inside or just off. Higher-timeframe zones carry more weight than
// intra-candle structure, so their strength is raised.
func (a *Analyzer) HigherTimeframeSignals(htfCandles []exchange.Candle, price float64) []ZoneSignal {
	if len(htfCandles) < 3 || price <= 0 {
		return nil
	}

	var signals []ZoneSignal

	for _, imb := range tail(DetectImbalances(htfCandles), 10) {
		if !nearZone(price, imb.ZoneStart, imb.ZoneEnd) {
			continue
		}
		strength := 3.0
		if imb.Strong {
			strength = 4.0
		}
		signals = append(signals, ZoneSignal{Source: "htf_imbalance", Direction: imb.Direction, Strength: strength})
	}

	fvgs := a.fvgDetector.DetectFVGs(htfCandles)
	for _, fvg := range tail(fvgs, 10) {
		if fvg.Filled || !nearZone(price, fvg.ZoneStart, fvg.ZoneEnd) {
			continue
		}
		direction := DirectionLong
		if fvg.Type == BearishFVG {
			direction = DirectionShort
		}
		signals = append(signals, ZoneSignal{Source: "htf_fvg", Direction: direction, Strength: 3})
	}

	return signals
}

// nearZone reports whether price sits inside the zone or within the
// proximity margin of either edge.
func nearZone(price, zoneStart, zoneEnd float64) bool {
	lo := math.Min(zoneStart, zoneEnd)
	hi := math.Max(zoneStart, zoneEnd)
	margin := price * htfZoneProximityPercent / 100
	return price >= lo-margin && price <= hi+margin
}
