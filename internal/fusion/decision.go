package fusion

import (
	"fmt"
	"math"

	"bingx-scalping-bot/internal/indicators"
)

// Action is a terminal decision for one instrument this cycle.
type Action string

const (
	ActionOpenLong  Action = "open_long"
	ActionOpenShort Action = "open_short"
	ActionSkip      Action = "skip"
)

// EngineConfig holds the adaptive threshold constants. Like the score
// weights these are empirical; override via config.
type EngineConfig struct {
	StrongThreshold float64 `json:"strong_threshold"`
	NormalThreshold float64 `json:"normal_threshold"`
	StrongFloor     float64 `json:"strong_floor"`
	NormalFloor     float64 `json:"normal_floor"`

	SweepBonus        float64 `json:"sweep_bonus"`
	DivergenceBonus   float64 `json:"divergence_bonus"`
	BOSBonus          float64 `json:"bos_bonus"`
	CHOCHBonus        float64 `json:"choch_bonus"`
	OrderFlowBonus    float64 `json:"order_flow_bonus"`
	MultiSignalBonus3 float64 `json:"multi_signal_bonus_3"`
	MultiSignalBonus2 float64 `json:"multi_signal_bonus_2"`
	ShortfallPenalty  float64 `json:"shortfall_penalty"`

	ConflictScale    float64 `json:"conflict_scale"`
	ConflictFloor    float64 `json:"conflict_floor"`
	LowVolumeCutoff  float64 `json:"low_volume_cutoff"`
	LowVolumeScale   float64 `json:"low_volume_scale"`
	LowVolumeFloor   float64 `json:"low_volume_floor"`

	// Escape hatches: exceptional readings that open below threshold.
	OrderFlowHatchStrength    float64 `json:"order_flow_hatch_strength"`
	OrderFlowHatchProbability float64 `json:"order_flow_hatch_probability"`
	ReversalHatchProbability  float64 `json:"reversal_hatch_probability"`
}

// DefaultEngineConfig returns the tuned decision constants.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		StrongThreshold: 55,
		NormalThreshold: 60,
		StrongFloor:     35,
		NormalFloor:     40,

		SweepBonus:        8,
		DivergenceBonus:   10,
		BOSBonus:          6,
		CHOCHBonus:        5,
		OrderFlowBonus:    5,
		MultiSignalBonus3: 7,
		MultiSignalBonus2: 4,
		ShortfallPenalty:  8,

		ConflictScale:   0.7,
		ConflictFloor:   30,
		LowVolumeCutoff: 0.7,
		LowVolumeScale:  0.85,
		LowVolumeFloor:  25,

		OrderFlowHatchStrength:    2.5,
		OrderFlowHatchProbability: 40,
		ReversalHatchProbability:  45,
	}
}

// Decision is the engine's verdict for one fused signal.
type Decision struct {
	Action      Action         `json:"action"`
	Reason      string         `json:"reason"`
	Probability float64        `json:"probability"` // effective, after adjustments
	Threshold   float64        `json:"threshold"`
	EscapeHatch string         `json:"escape_hatch,omitempty"`
	Fused       *FusedDecision `json:"fused"`
}

// Engine maps fused decisions to open/skip actions with thresholds adapted
// to signal quality and confirmation shortfall.
type Engine struct {
	cfg EngineConfig
}

// NewEngine creates a decision engine.
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Decide evaluates a fused decision. The indicator snapshot backs the
// conflicting-oscillator check.
func (e *Engine) Decide(d *FusedDecision, snap *indicators.Snapshot) *Decision {
	out := &Decision{Action: ActionSkip, Fused: d}

	if d.Direction == DirectionNeutral {
		out.Reason = d.CancellationReason
		if out.Reason == "" {
			out.Reason = "no directional signal"
		}
		return out
	}

	probability := d.Probability

	// Conflicting oscillator or MACD reading against the trade side.
	if conflict := e.indicatorConflict(d.Direction, snap); conflict != "" {
		probability = math.Max(probability*e.cfg.ConflictScale, e.cfg.ConflictFloor)
		out.Reason = conflict
	}

	// Thin recent volume makes every setup less reliable.
	if d.Quality.VolumeRatio > 0 && d.Quality.VolumeRatio < e.cfg.LowVolumeCutoff {
		probability = math.Max(probability*e.cfg.LowVolumeScale, e.cfg.LowVolumeFloor)
	}

	threshold := e.threshold(d)
	out.Probability = probability
	out.Threshold = threshold

	strongBand := d.Band == BandStrongLong || d.Band == BandStrongShort

	// Below-threshold setups still open on exceptional readings.
	if hatch := e.escapeHatch(d, probability); hatch != "" {
		out.EscapeHatch = hatch
		out.Action = openAction(d.Direction)
		out.Reason = hatch
		return out
	}

	if !d.Confirmed() && probability < e.cfg.NormalThreshold && !strongBand {
		out.Reason = fmt.Sprintf("only %d of %d confirmations at %.0f%% probability",
			d.Confirmations.Count, d.Confirmations.Required, probability)
		return out
	}

	if probability >= threshold {
		out.Action = openAction(d.Direction)
		out.Reason = fmt.Sprintf("%s at %.0f%% probability (threshold %.0f%%)", d.Band, probability, threshold)
		return out
	}

	out.Reason = fmt.Sprintf("probability %.0f%% below threshold %.0f%%", probability, threshold)
	return out
}

// threshold lowers the base threshold by the quality bonus and raises it by
// the confirmation shortfall, clamped at the band floor.
func (e *Engine) threshold(d *FusedDecision) float64 {
	base := e.cfg.NormalThreshold
	floor := e.cfg.NormalFloor
	if d.Band == BandStrongLong || d.Band == BandStrongShort {
		base = e.cfg.StrongThreshold
		floor = e.cfg.StrongFloor
	}

	var bonus float64
	if d.Quality.HasSweep {
		bonus += e.cfg.SweepBonus
	}
	if d.Quality.HasDivergence {
		bonus += e.cfg.DivergenceBonus
	}
	if d.Quality.HasBOS {
		bonus += e.cfg.BOSBonus
	}
	if d.Quality.HasCHOCH {
		bonus += e.cfg.CHOCHBonus
	}
	if d.Quality.OrderFlowStrength > 2.0 {
		bonus += e.cfg.OrderFlowBonus
	}
	switch {
	case d.Quality.ZoneSignalCount >= 3:
		bonus += e.cfg.MultiSignalBonus3
	case d.Quality.ZoneSignalCount >= 2:
		bonus += e.cfg.MultiSignalBonus2
	}

	shortfall := float64(d.Confirmations.Required - d.Confirmations.Count)
	penalty := math.Max(0, shortfall*e.cfg.ShortfallPenalty)

	return math.Max(floor, base-bonus+penalty)
}

func (e *Engine) indicatorConflict(direction string, snap *indicators.Snapshot) string {
	if snap == nil {
		return ""
	}
	rsi := snap.RSISignal()
	macd := snap.MACDSignal()
	switch direction {
	case DirectionLong:
		if rsi == indicators.SignalOverbought {
			return "long against overbought oscillator"
		}
		if macd == indicators.SignalBearish {
			return "long against bearish MACD"
		}
	case DirectionShort:
		if rsi == indicators.SignalOversold {
			return "short against oversold oscillator"
		}
		if macd == indicators.SignalBullish {
			return "short against bullish MACD"
		}
	}
	return ""
}

func (e *Engine) escapeHatch(d *FusedDecision, probability float64) string {
	if d.Quality.OrderFlowStrength >= e.cfg.OrderFlowHatchStrength &&
		probability >= e.cfg.OrderFlowHatchProbability {
		return fmt.Sprintf("exceptional order flow %.1f", d.Quality.OrderFlowStrength)
	}
	if d.Quality.HasDivergence && d.Quality.HasSweep &&
		probability >= e.cfg.ReversalHatchProbability {
		return "divergence with liquidity sweep"
	}
	return ""
}

func openAction(direction string) Action {
	if direction == DirectionShort {
		return ActionOpenShort
	}
	return ActionOpenLong
}
