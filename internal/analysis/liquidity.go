package analysis

import (
	"math"
	"sort"

	"bingx-scalping-bot/internal/exchange"
)

// volumeProfileBuckets is the fixed bucket count of the volume profile.
const volumeProfileBuckets = 20

// LiquidityPools summarizes the volume profile of the visible candle range:
// the point of control plus high and low volume nodes, and the nearest pool
// on each side of the current price.
type LiquidityPools struct {
	POC              float64            `json:"poc"`
	POCVolume        float64            `json:"poc_volume"`
	HVNLevels        []float64          `json:"hvn_levels"`
	LVNLevels        []float64          `json:"lvn_levels"`
	Profile          map[float64]float64 `json:"-"`
	CurrentPrice     float64            `json:"current_price"`
	NearestPoolAbove float64            `json:"nearest_pool_above"` // 0 when none
	NearestPoolBelow float64            `json:"nearest_pool_below"` // 0 when none
	DistanceToPOC    float64            `json:"distance_to_poc_percent"`
}

// AnalyzeLiquidityPools builds a 20-bucket volume profile over the candle
// range. HVN buckets hold at least 1.5x the mean bucket volume, LVN buckets
// less than half of it.
func AnalyzeLiquidityPools(candles []exchange.Candle) *LiquidityPools {
	if len(candles) < 10 {
		return nil
	}

	lowest, highest := candles[0].Low, candles[0].High
	for _, c := range candles {
		if c.Low < lowest {
			lowest = c.Low
		}
		if c.High > highest {
			highest = c.High
		}
	}
	priceRange := highest - lowest
	if priceRange <= 0 {
		return nil
	}
	bucketSize := priceRange / volumeProfileBuckets

	profile := make(map[float64]float64)
	for _, c := range candles {
		bucket := lowest + math.Floor((c.Low-lowest)/bucketSize)*bucketSize
		profile[bucket] += c.Volume
	}

	var poc, pocVolume, total float64
	for level, vol := range profile {
		total += vol
		if vol > pocVolume {
			poc, pocVolume = level, vol
		}
	}
	mean := total / float64(len(profile))

	var hvn, lvn []float64
	for level, vol := range profile {
		switch {
		case vol >= mean*1.5:
			hvn = append(hvn, level)
		case vol < mean*0.5:
			lvn = append(lvn, level)
		}
	}
	sort.Float64s(hvn)
	sort.Float64s(lvn)

	price := candles[len(candles)-1].Close
	pools := &LiquidityPools{
		POC:          poc,
		POCVolume:    pocVolume,
		HVNLevels:    hvn,
		LVNLevels:    lvn,
		Profile:      profile,
		CurrentPrice: price,
	}
	if poc > 0 {
		pools.DistanceToPOC = math.Abs(price-poc) / poc * 100
	}

	levels := append(append([]float64{poc}, hvn...), lvn...)
	for _, level := range levels {
		if level < price && level > pools.NearestPoolBelow {
			pools.NearestPoolBelow = level
		}
		if level > price && (pools.NearestPoolAbove == 0 || level < pools.NearestPoolAbove) {
			pools.NearestPoolAbove = level
		}
	}
	return pools
}

// LiquiditySweep is a stop hunt: price pierces a prior extreme and closes
// back the other way, signaling a reversal against the sweep.
type LiquiditySweep struct {
	Direction     string  `json:"direction"` // long after swept lows, short after swept highs
	SweepPrice    float64 `json:"sweep_price"`
	ReactionPrice float64 `json:"reaction_price"`
	Timestamp     int64   `json:"timestamp"`
}

// DetectLiquiditySweeps scans the last 10 candles for sweeps of lows and
// highs.
func DetectLiquiditySweeps(candles []exchange.Candle) []LiquiditySweep {
	if len(candles) < 5 {
		return nil
	}

	recent := candles
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}

	var sweeps []LiquiditySweep
	for i := 1; i < len(recent); i++ {
		prev, curr := recent[i-1], recent[i]

		if curr.Low < prev.Low && curr.Close > prev.Close && curr.IsBullish() {
			sweeps = append(sweeps, LiquiditySweep{
				Direction:     DirectionLong,
				SweepPrice:    curr.Low,
				ReactionPrice: curr.Close,
				Timestamp:     curr.OpenTime,
			})
		} else if curr.High > prev.High && curr.Close < prev.Close && !curr.IsBullish() && curr.Close != curr.Open {
			sweeps = append(sweeps, LiquiditySweep{
				Direction:     DirectionShort,
				SweepPrice:    curr.High,
				ReactionPrice: curr.Close,
				Timestamp:     curr.OpenTime,
			})
		}
	}
	return sweeps
}
