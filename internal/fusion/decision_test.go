package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bingx-scalping-bot/internal/indicators"
)

func TestDecideSkipsNeutralSignal(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())

	d := &FusedDecision{Band: BandNeutral, Direction: DirectionNeutral}
	out := e.Decide(d, nil)

	assert.Equal(t, ActionSkip, out.Action)
	assert.Equal(t, "no directional signal", out.Reason)
}

func TestDecideSkipReasonCarriesCancellation(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())

	d := &FusedDecision{Band: BandNeutral, Direction: DirectionNeutral}
	d.CancellationReason = "target liquidity pool already swept"
	out := e.Decide(d, nil)

	assert.Equal(t, ActionSkip, out.Action)
	assert.Equal(t, d.CancellationReason, out.Reason)
}

func TestDecideOpensConfirmedStrongSignal(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())

	d := &FusedDecision{
		Band:          BandStrongLong,
		Direction:     DirectionLong,
		Probability:   87,
		Confirmations: Confirmations{Count: 3, Required: 3},
	}
	out := e.Decide(d, nil)

	assert.Equal(t, ActionOpenLong, out.Action)
	assert.InDelta(t, 55, out.Threshold, 1e-9)
}

func TestDecideSkipsUnconfirmedWeakSignal(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())

	d := &FusedDecision{
		Band:          BandLong,
		Direction:     DirectionLong,
		Probability:   30,
		Confirmations: Confirmations{Count: 1, Required: 3},
	}
	out := e.Decide(d, nil)

	assert.Equal(t, ActionSkip, out.Action)
	assert.Contains(t, out.Reason, "confirmations")
}

func TestDecideOrderFlowEscapeHatch(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())

	d := &FusedDecision{
		Band:          BandLong,
		Direction:     DirectionLong,
		Probability:   45,
		Confirmations: Confirmations{Count: 1, Required: 3},
		Quality:       Quality{OrderFlowStrength: 2.6},
	}
	out := e.Decide(d, nil)

	assert.Equal(t, ActionOpenLong, out.Action)
	assert.NotEmpty(t, out.EscapeHatch)
}

func TestDecideReversalEscapeHatch(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())

	d := &FusedDecision{
		Band:          BandShort,
		Direction:     DirectionShort,
		Probability:   50,
		Confirmations: Confirmations{Count: 2, Required: 3},
		Quality:       Quality{HasDivergence: true, HasSweep: true},
	}
	out := e.Decide(d, nil)

	assert.Equal(t, ActionOpenShort, out.Action)
	assert.Equal(t, "divergence with liquidity sweep", out.EscapeHatch)
}

func TestDecideIndicatorConflictScalesProbability(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())

	rsi := 80.0
	snap := &indicators.Snapshot{RSI: &rsi}
	d := &FusedDecision{
		Band:          BandStrongLong,
		Direction:     DirectionLong,
		Probability:   80,
		Confirmations: Confirmations{Count: 3, Required: 3},
	}
	out := e.Decide(d, snap)

	// 80 scaled by the conflict factor, still above the strong threshold.
	assert.InDelta(t, 56, out.Probability, 1e-9)
	assert.Equal(t, ActionOpenLong, out.Action)
}

func TestDecideLowVolumePenalty(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())

	d := &FusedDecision{
		Band:          BandStrongLong,
		Direction:     DirectionLong,
		Probability:   70,
		Confirmations: Confirmations{Count: 3, Required: 3},
		Quality:       Quality{VolumeRatio: 0.5},
	}
	out := e.Decide(d, nil)

	assert.InDelta(t, 59.5, out.Probability, 1e-9)
	assert.Equal(t, ActionOpenLong, out.Action)
}

func TestThresholdQualityBonusesLowerTheBar(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())

	plain := &FusedDecision{
		Band:          BandLong,
		Direction:     DirectionLong,
		Probability:   50,
		Confirmations: Confirmations{Count: 3, Required: 3},
	}
	rich := &FusedDecision{
		Band:          BandLong,
		Direction:     DirectionLong,
		Probability:   50,
		Confirmations: Confirmations{Count: 3, Required: 3},
		Quality:       Quality{HasSweep: true, HasDivergence: true, HasBOS: true},
	}

	plainOut := e.Decide(plain, nil)
	richOut := e.Decide(rich, nil)

	assert.Equal(t, ActionSkip, plainOut.Action)
	assert.Equal(t, ActionOpenLong, richOut.Action)
	assert.Less(t, richOut.Threshold, plainOut.Threshold)
}
