package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bingx-scalping-bot/internal/analysis"
	"bingx-scalping-bot/internal/exchange"
)

func TestCheckCancellationSweptPool(t *testing.T) {
	s := NewScorer(DefaultScoreWeights(), 3)

	d := &FusedDecision{Band: BandLong, Direction: DirectionLong, Probability: 60}
	report := &analysis.Report{
		CurrentPrice: 100,
		Pools:        &analysis.LiquidityPools{NearestPoolAbove: 100.3},
	}
	// Nothing resting anywhere near the pool.
	book := &exchange.OrderBookSnapshot{
		Bids: []exchange.BookLevel{{Price: 95, Size: 5}},
		Asks: []exchange.BookLevel{{Price: 105, Size: 5}},
	}

	s.CheckCancellation(d, report, book, nil)

	assert.Equal(t, DirectionNeutral, d.Direction)
	assert.Contains(t, d.CancellationReason, "resting volume")
}

func TestCheckCancellationPoolStillBacked(t *testing.T) {
	s := NewScorer(DefaultScoreWeights(), 3)

	d := &FusedDecision{Band: BandLong, Direction: DirectionLong, Probability: 60}
	report := &analysis.Report{
		CurrentPrice: 100,
		Pools:        &analysis.LiquidityPools{NearestPoolAbove: 100.3},
	}
	book := &exchange.OrderBookSnapshot{
		Asks: []exchange.BookLevel{{Price: 100.25, Size: 3}},
	}

	s.CheckCancellation(d, report, book, nil)

	assert.Equal(t, DirectionLong, d.Direction)
	assert.Empty(t, d.CancellationReason)
}

func TestCheckCancellationBrokenFVG(t *testing.T) {
	s := NewScorer(DefaultScoreWeights(), 3)

	d := &FusedDecision{Band: BandLong, Direction: DirectionLong, Probability: 60}
	report := &analysis.Report{
		CurrentPrice: 98,
		FVGs:         []analysis.FVG{{Type: analysis.BullishFVG, ZoneStart: 99, ZoneEnd: 100}},
	}
	// Close below the zone floor with a tiny lower wick: no rejection.
	candles := []exchange.Candle{
		{Open: 100, High: 100.5, Low: 99.5, Close: 100},
		{Open: 100, High: 100.2, Low: 99, Close: 99.2},
		{Open: 99.2, High: 99.3, Low: 97.9, Close: 98},
	}

	s.CheckCancellation(d, report, nil, candles)

	assert.Equal(t, DirectionNeutral, d.Direction)
	assert.Contains(t, d.CancellationReason, "rejection wick")
}

func TestCheckCancellationRejectionWickHolds(t *testing.T) {
	s := NewScorer(DefaultScoreWeights(), 3)

	d := &FusedDecision{Band: BandLong, Direction: DirectionLong, Probability: 60}
	report := &analysis.Report{
		CurrentPrice: 98.9,
		FVGs:         []analysis.FVG{{Type: analysis.BullishFVG, ZoneStart: 99, ZoneEnd: 100}},
	}
	// The break candle carries a long lower wick: buyers reacted.
	candles := []exchange.Candle{
		{Open: 100, High: 100.5, Low: 99.5, Close: 100},
		{Open: 100, High: 100.2, Low: 99.4, Close: 99.6},
		{Open: 99, High: 99.1, Low: 96, Close: 98.9},
	}

	s.CheckCancellation(d, report, nil, candles)

	assert.Equal(t, DirectionLong, d.Direction)
}
