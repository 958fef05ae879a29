package analysis

import "bingx-scalping-bot/internal/exchange"

// FVGType represents the side of a Fair Value Gap.
type FVGType string

const (
	BullishFVG FVGType = "bullish"
	BearishFVG FVGType = "bearish"
)

// FVG is a 3-candle imbalance pattern whose zone is a likely pullback
// target. MidPoint is the usual entry reference inside the zone.
type FVG struct {
	Type        FVGType `json:"type"`
	ZoneStart   float64 `json:"zone_start"` // lower bound for bullish, upper handled by ZoneEnd
	ZoneEnd     float64 `json:"zone_end"`
	MidPoint    float64 `json:"mid_point"`
	CandleIndex int     `json:"candle_index"`
	Timestamp   int64   `json:"timestamp"`
	Filled      bool    `json:"filled"`
	FilledPrice float64 `json:"filled_price,omitempty"`
}

// FVGDetector detects Fair Value Gaps in candle data.
type FVGDetector struct {
	minGapPercent float64
}

// NewFVGDetector creates a detector requiring at least minGapPercent gap
// size relative to the reference price.
func NewFVGDetector(minGapPercent float64) *FVGDetector {
	if minGapPercent < 0 {
		minGapPercent = 0
	}
	return &FVGDetector{minGapPercent: minGapPercent}
}

// DetectFVGs identifies all Fair Value Gaps in the candle series. A bullish
// FVG forms when both the middle and the following candle hold above the
// first candle's high; the zone runs from that high to the lower of the two
// subsequent lows.
func (fd *FVGDetector) DetectFVGs(candles []exchange.Candle) []FVG {
	if len(candles) < 3 {
		return nil
	}

	var fvgs []FVG
	for i := 1; i < len(candles)-1; i++ {
		prev, curr, next := candles[i-1], candles[i], candles[i+1]

		if curr.Low > prev.High && next.Low > prev.High {
			zoneEnd := curr.Low
			if next.Low < zoneEnd {
				zoneEnd = next.Low
			}
			if gapPercent(prev.High, zoneEnd-prev.High) < fd.minGapPercent {
				continue
			}
			fvgs = append(fvgs, FVG{
				Type:        BullishFVG,
				ZoneStart:   prev.High,
				ZoneEnd:     zoneEnd,
				MidPoint:    (prev.High + zoneEnd) / 2,
				CandleIndex: i,
				Timestamp:   curr.OpenTime,
			})
		} else if curr.High < prev.Low && next.High < prev.Low {
			zoneStart := curr.High
			if next.High > zoneStart {
				zoneStart = next.High
			}
			if gapPercent(zoneStart, prev.Low-zoneStart) < fd.minGapPercent {
				continue
			}
			fvgs = append(fvgs, FVG{
				Type:        BearishFVG,
				ZoneStart:   zoneStart,
				ZoneEnd:     prev.Low,
				MidPoint:    (zoneStart + prev.Low) / 2,
				CandleIndex: i,
				Timestamp:   curr.OpenTime,
			})
		}
	}
	return fvgs
}

// IsPriceInFVG checks whether price sits inside the FVG zone.
func (fd *FVGDetector) IsPriceInFVG(price float64, fvg FVG) bool {
	return price >= fvg.ZoneStart && price <= fvg.ZoneEnd
}

// IsPriceNearFVG checks whether price is inside the zone or within
// proximityPercent of either boundary.
func (fd *FVGDetector) IsPriceNearFVG(price float64, fvg FVG, proximityPercent float64) bool {
	if fd.IsPriceInFVG(price, fvg) {
		return true
	}
	tolerance := proximityPercent / 100
	return price >= fvg.ZoneStart*(1-tolerance) && price <= fvg.ZoneEnd*(1+tolerance)
}

// UpdateFVGStatus marks the FVG filled once later price action wicks back
// into the zone.
func (fd *FVGDetector) UpdateFVGStatus(fvg *FVG, candles []exchange.Candle) {
	if fvg.Filled {
		return
	}
	for _, c := range candles {
		switch fvg.Type {
		case BullishFVG:
			if c.Low <= fvg.ZoneEnd && c.Low >= fvg.ZoneStart {
				fvg.Filled = true
				fvg.FilledPrice = c.Low
				return
			}
		case BearishFVG:
			if c.High >= fvg.ZoneStart && c.High <= fvg.ZoneEnd {
				fvg.Filled = true
				fvg.FilledPrice = c.High
				return
			}
		}
	}
}

// GetUnfilledFVGs filters out FVGs already filled by price action.
func (fd *FVGDetector) GetUnfilledFVGs(fvgs []FVG) []FVG {
	var unfilled []FVG
	for _, fvg := range fvgs {
		if !fvg.Filled {
			unfilled = append(unfilled, fvg)
		}
	}
	return unfilled
}

func gapPercent(ref, gap float64) float64 {
	if ref <= 0 {
		return 0
	}
	return gap / ref * 100
}
