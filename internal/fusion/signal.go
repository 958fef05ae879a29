// Package fusion combines indicator and microstructure readings into one
// scored directional decision: weighted votes produce a signed strength,
// independent confirmation sources gate the probability, and the decision
// engine maps the result to an open/skip action with adaptive thresholds.
package fusion

import (
	"bingx-scalping-bot/internal/analysis"
	"bingx-scalping-bot/internal/indicators"
)

// Trade directions.
const (
	DirectionLong    = analysis.DirectionLong
	DirectionShort   = analysis.DirectionShort
	DirectionNeutral = analysis.DirectionNeutral
)

// Signal bands ordered by conviction.
const (
	BandStrongLong  = "strong_long"
	BandLong        = "long"
	BandNeutral     = "neutral"
	BandShort       = "short"
	BandStrongShort = "strong_short"
)

// Confirmation source names.
const (
	ConfirmCandle    = "candle"
	ConfirmLevel     = "level"
	ConfirmOrderFlow = "order_flow"
	ConfirmIndicator = "indicator"
)

// Confirmations counts the independent sources agreeing with a signal.
// Sources may repeat (RSI extreme and MACD direction both count as
// indicator confirmations), so Count can exceed the number of distinct
// bucket names.
type Confirmations struct {
	Count    int      `json:"count"`
	Sources  []string `json:"sources"`
	Required int      `json:"required"`
}

// Quality carries the decision-engine inputs extracted during scoring.
type Quality struct {
	HasDivergence     bool    `json:"has_divergence"`
	HasSweep          bool    `json:"has_sweep"`
	HasBOS            bool    `json:"has_bos"`
	HasCHOCH          bool    `json:"has_choch"`
	OrderFlowStrength float64 `json:"order_flow_strength"`
	ZoneSignalCount   int     `json:"zone_signal_count"`
	VolumeRatio       float64 `json:"volume_ratio"` // 0 when unavailable
}

// FusedDecision is the scored outcome of one analysis pass.
// Probability is always 0 when Direction is neutral; a non-empty
// CancellationReason means the direction was forced to neutral after
// initial scoring.
type FusedDecision struct {
	Symbol             string        `json:"symbol"`
	Band               string        `json:"band"`
	Direction          string        `json:"direction"`
	SignalStrength     float64       `json:"signal_strength"`
	Probability        float64       `json:"probability"`
	Confirmations      Confirmations `json:"confirmations"`
	Votes              []string      `json:"votes"`
	Quality            Quality       `json:"quality"`
	CancellationReason string        `json:"cancellation_reason,omitempty"`
}

// Confirmed reports whether the minimum confirmation bar was met.
func (d *FusedDecision) Confirmed() bool {
	return d.Confirmations.Count >= d.Confirmations.Required
}

// Neutralize forces the decision to neutral, recording why.
func (d *FusedDecision) Neutralize(reason string) {
	d.Band = BandNeutral
	d.Direction = DirectionNeutral
	d.Probability = 0
	d.CancellationReason = reason
}

func bandDirection(band string) string {
	switch band {
	case BandStrongLong, BandLong:
		return DirectionLong
	case BandStrongShort, BandShort:
		return DirectionShort
	default:
		return DirectionNeutral
	}
}

// oscillatorExtreme reports whether the snapshot has RSI or MFI in an
// extreme zone, used for the indicator confirmation bucket.
func oscillatorExtreme(snap *indicators.Snapshot) bool {
	return snap != nil && snap.HasOscillatorExtreme()
}
