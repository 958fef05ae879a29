package fusion

import (
	"fmt"
	"math"

	"bingx-scalping-bot/internal/analysis"
	"bingx-scalping-bot/internal/exchange"
)

const (
	// poolProximityPercent is how close a liquidity pool must be to count
	// as the signal's target.
	poolProximityPercent = 0.5
	// poolRestingTolerance and poolRestingMinSize define what still counts
	// as supporting volume behind a pool.
	poolRestingTolerance = 0.2
	poolRestingMinSize   = 0.1
)

// CheckCancellation runs the two zone-invalidation rules after scoring and
// neutralizes the decision when either fires: a nearby target pool whose
// resting volume has vanished, or a broken FVG boundary without a rejection
// wick in the last 3 candles.
func (s *Scorer) CheckCancellation(d *FusedDecision, report *analysis.Report, book *exchange.OrderBookSnapshot, candles []exchange.Candle) {
	if d.Direction == DirectionNeutral || report == nil {
		return
	}

	if pool, swept := sweptTargetPool(report, book); swept {
		d.Neutralize(fmt.Sprintf("liquidity pool at %.4f lost its resting volume", pool))
		return
	}

	if brokenFVGWithoutReaction(d.Direction, report, candles) {
		d.Neutralize("price broke the signal's FVG boundary without a rejection wick")
	}
}

// sweptTargetPool finds the nearest pool within 0.5% of price and reports
// whether its supporting book volume is gone.
func sweptTargetPool(report *analysis.Report, book *exchange.OrderBookSnapshot) (float64, bool) {
	if report.Pools == nil || book == nil {
		return 0, false
	}
	price := report.CurrentPrice
	if price <= 0 {
		return 0, false
	}

	var target float64
	for _, pool := range []float64{report.Pools.NearestPoolAbove, report.Pools.NearestPoolBelow} {
		if pool <= 0 {
			continue
		}
		if math.Abs(pool-price)/price*100 > poolProximityPercent {
			continue
		}
		if target == 0 || math.Abs(pool-price) < math.Abs(target-price) {
			target = pool
		}
	}
	if target == 0 {
		return 0, false
	}

	resting := analysis.RestingVolumeNear(book, target, poolRestingTolerance, poolRestingMinSize)
	return target, resting == 0
}

// brokenFVGWithoutReaction checks the last 3 candles against the most
// recent FVGs on the signal's side. A close beyond the zone boundary with
// no proportional rejection wick (wick at least twice the body) means the
// market did not react to the zone.
func brokenFVGWithoutReaction(direction string, report *analysis.Report, candles []exchange.Candle) bool {
	if len(candles) < 3 {
		return false
	}
	recent := candles[len(candles)-3:]

	fvgs := report.FVGs
	if len(fvgs) > 2 {
		fvgs = fvgs[len(fvgs)-2:]
	}

	for _, fvg := range fvgs {
		switch {
		case direction == DirectionLong && fvg.Type == analysis.BullishFVG:
			for _, c := range recent {
				if c.Close < fvg.ZoneStart && c.LowerWick() < c.Body()*2 {
					return true
				}
			}
		case direction == DirectionShort && fvg.Type == analysis.BearishFVG:
			for _, c := range recent {
				if c.Close > fvg.ZoneEnd && c.UpperWick() < c.Body()*2 {
					return true
				}
			}
		}
	}
	return false
}
