// Package analysis detects market-microstructure features from candle
// series and order book snapshots: imbalance zones, fair value gaps,
// liquidity pools and sweeps, order flow, structural breaks, divergence and
// candlestick patterns. All detections are pure functions of their inputs
// and are recomputed on every analysis pass.
package analysis

import "bingx-scalping-bot/internal/exchange"

// Signal directions used across detections.
const (
	DirectionLong    = "long"
	DirectionShort   = "short"
	DirectionNeutral = "neutral"
)

// Imbalance is a gap between consecutive candles marking one-sided pressure.
type Imbalance struct {
	Direction  string  `json:"direction"` // long or short
	ZoneStart  float64 `json:"zone_start"`
	ZoneEnd    float64 `json:"zone_end"`
	GapPercent float64 `json:"gap_percent"`
	Strong     bool    `json:"strong"`
	Timestamp  int64   `json:"timestamp"`
}

// strongImbalanceGap is the gap fraction of the reference price above which
// an imbalance counts as strong.
const strongImbalanceGap = 0.002

// DetectImbalances finds gaps between consecutive candles. A bullish
// imbalance exists when a candle's low clears the previous candle's high, a
// bearish one when its high stays under the previous low.
func DetectImbalances(candles []exchange.Candle) []Imbalance {
	if len(candles) < 3 {
		return nil
	}

	var out []Imbalance
	for i := 1; i < len(candles); i++ {
		prev, curr := candles[i-1], candles[i]

		if curr.Low > prev.High {
			gap := curr.Low - prev.High
			out = append(out, Imbalance{
				Direction:  DirectionLong,
				ZoneStart:  prev.High,
				ZoneEnd:    curr.Low,
				GapPercent: gap / prev.High * 100,
				Strong:     gap > prev.High*strongImbalanceGap,
				Timestamp:  curr.OpenTime,
			})
		} else if curr.High < prev.Low {
			gap := prev.Low - curr.High
			out = append(out, Imbalance{
				Direction:  DirectionShort,
				ZoneStart:  curr.High,
				ZoneEnd:    prev.Low,
				GapPercent: gap / prev.Low * 100,
				Strong:     gap > prev.Low*strongImbalanceGap,
				Timestamp:  curr.OpenTime,
			})
		}
	}
	return out
}

// STBZone marks an imbalance zone retested on above-average volume, a
// stronger-to-break level.
type STBZone struct {
	Imbalance   Imbalance `json:"imbalance"`
	TestPrice   float64   `json:"test_price"`
	VolumeRatio float64   `json:"volume_ratio"`
	Direction   string    `json:"direction"`
	Timestamp   int64     `json:"timestamp"`
}

// DetectSTBZones finds imbalance zones that were retested by a candle whose
// volume exceeded 1.5x the trailing 20-candle average.
func DetectSTBZones(candles []exchange.Candle, imbalances []Imbalance) []STBZone {
	if len(candles) < 5 {
		return nil
	}

	avgVolume := trailingAverageVolume(candles, 20)
	var out []STBZone
	for _, imb := range imbalances {
		lo, hi := imb.ZoneStart, imb.ZoneEnd
		if lo > hi {
			lo, hi = hi, lo
		}
		for _, c := range candles {
			inZone := (c.Close >= lo && c.Close <= hi) || (c.Open >= lo && c.Open <= hi)
			if !inZone {
				continue
			}
			ratio := 1.0
			if avgVolume > 0 {
				ratio = c.Volume / avgVolume
			}
			if ratio > 1.5 {
				out = append(out, STBZone{
					Imbalance:   imb,
					TestPrice:   c.Close,
					VolumeRatio: ratio,
					Direction:   imb.Direction,
					Timestamp:   c.OpenTime,
				})
				break
			}
		}
	}
	return out
}

func trailingAverageVolume(candles []exchange.Candle, span int) float64 {
	if len(candles) == 0 {
		return 0
	}
	start := len(candles) - span
	if start < 0 {
		start = 0
	}
	var sum float64
	for _, c := range candles[start:] {
		sum += c.Volume
	}
	return sum / float64(len(candles)-start)
}
