package analysis

import "bingx-scalping-bot/internal/exchange"

// ZoneSignal is one actionable reading emitted by a detection, consumed by
// the fusion scorer with weight strength*5.
type ZoneSignal struct {
	Source    string  `json:"source"` // order_flow, fvg, liquidity_sweep, structure
	Direction string  `json:"direction"`
	Strength  float64 `json:"strength"`
}

// Report is the full microstructure read of one candle series plus an
// optional depth snapshot. Zone slices keep only the most recent entries.
type Report struct {
	CurrentPrice float64          `json:"current_price"`
	Imbalances   []Imbalance      `json:"imbalances"`
	FVGs         []FVG            `json:"fvgs"`
	STBZones     []STBZone        `json:"stb_zones"`
	Pools        *LiquidityPools  `json:"liquidity_pools,omitempty"`
	Sweeps       []LiquiditySweep `json:"liquidity_sweeps"`
	OrderFlow    *OrderFlow       `json:"order_flow,omitempty"`
	Structure    *Structure       `json:"structure,omitempty"`
	Candles      *CandlePatterns  `json:"candle_patterns,omitempty"`
	Book         *BookSummary     `json:"orderbook,omitempty"`
	Signals      []ZoneSignal     `json:"signals"`
}

// Analyzer runs all microstructure detections over one input set.
type Analyzer struct {
	fvgDetector *FVGDetector
}

// NewAnalyzer creates an analyzer with the given minimum FVG gap percent.
func NewAnalyzer(minFVGGapPercent float64) *Analyzer {
	return &Analyzer{fvgDetector: NewFVGDetector(minFVGGapPercent)}
}

// FVGDetector exposes the detector for proximity tests by callers.
func (a *Analyzer) FVGDetector() *FVGDetector {
	return a.fvgDetector
}

// Analyze runs every detection and assembles the zone signals. The book
// snapshot may be nil; book-dependent readings then fall back to
// candle-only estimates.
func (a *Analyzer) Analyze(candles []exchange.Candle, book *exchange.OrderBookSnapshot) *Report {
	if len(candles) == 0 {
		return &Report{}
	}
	price := candles[len(candles)-1].Close

	imbalances := DetectImbalances(candles)
	r := &Report{
		CurrentPrice: price,
		Imbalances:   tail(imbalances, 5),
		FVGs:         tail(a.fvgDetector.DetectFVGs(candles), 5),
		STBZones:     DetectSTBZones(candles, imbalances),
		Pools:        AnalyzeLiquidityPools(candles),
		Sweeps:       tail(DetectLiquiditySweeps(candles), 3),
		OrderFlow:    AnalyzeOrderFlow(candles, book),
		Structure:    DetectStructure(candles),
		Candles:      AnalyzeCandlePatterns(candles),
		Book:         SummarizeOrderBook(book, price),
	}
	r.Signals = a.generateSignals(r, price)
	return r
}

func (a *Analyzer) generateSignals(r *Report, price float64) []ZoneSignal {
	var signals []ZoneSignal

	if r.OrderFlow != nil && r.OrderFlow.Signal != DirectionNeutral {
		signals = append(signals, ZoneSignal{
			Source:    "order_flow",
			Direction: r.OrderFlow.Signal,
			Strength:  r.OrderFlow.Strength,
		})
	}

	// A price retest of a recent FVG zone (with 0.5% tolerance) is a
	// pullback-entry signal in the gap's direction.
	fvgs := r.FVGs
	if len(fvgs) > 3 {
		fvgs = fvgs[len(fvgs)-3:]
	}
	for _, fvg := range fvgs {
		switch fvg.Type {
		case BullishFVG:
			if price <= fvg.ZoneEnd*1.005 && price >= fvg.ZoneStart*0.995 {
				signals = append(signals, ZoneSignal{Source: "fvg", Direction: DirectionLong, Strength: 2})
			}
		case BearishFVG:
			if price >= fvg.ZoneStart*0.995 && price <= fvg.ZoneEnd*1.005 {
				signals = append(signals, ZoneSignal{Source: "fvg", Direction: DirectionShort, Strength: 2})
			}
		}
	}

	sweeps := r.Sweeps
	if len(sweeps) > 2 {
		sweeps = sweeps[len(sweeps)-2:]
	}
	for _, sweep := range sweeps {
		signals = append(signals, ZoneSignal{
			Source:    "liquidity_sweep",
			Direction: sweep.Direction,
			Strength:  3,
		})
	}

	if r.Structure != nil {
		if r.Structure.BOS != nil {
			signals = append(signals, ZoneSignal{
				Source:    "structure",
				Direction: r.Structure.BOS.Direction,
				Strength:  3,
			})
		}
		if r.Structure.CHOCH != nil {
			signals = append(signals, ZoneSignal{
				Source:    "structure",
				Direction: r.Structure.CHOCH.Direction,
				Strength:  2,
			})
		}
	}
	return signals
}

func tail[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
