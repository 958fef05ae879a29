package fusion

import (
	"math"

	"bingx-scalping-bot/internal/analysis"
	"bingx-scalping-bot/internal/exchange"
	"bingx-scalping-bot/internal/indicators"
)

// Scorer turns an indicator snapshot plus a microstructure report into a
// FusedDecision. Missing indicators simply cast no vote.
type Scorer struct {
	weights          ScoreWeights
	minConfirmations int
}

// NewScorer creates a scorer. minConfirmations below 1 falls back to 3.
func NewScorer(weights ScoreWeights, minConfirmations int) *Scorer {
	if minConfirmations < 1 {
		minConfirmations = 3
	}
	return &Scorer{weights: weights, minConfirmations: minConfirmations}
}

// Score aggregates weighted votes into a signed strength, counts
// confirmation sources, and maps the pair through the probability bands.
// The candle series is needed on top of the report for divergence, which
// pairs price extrema with the indicator snapshot's RSI series.
func (s *Scorer) Score(symbol string, candles []exchange.Candle, snap *indicators.Snapshot, report *analysis.Report) *FusedDecision {
	d := &FusedDecision{
		Symbol: symbol,
		Confirmations: Confirmations{
			Required: s.minConfirmations,
		},
	}

	var strength float64
	vote := func(label string, delta float64) {
		d.Votes = append(d.Votes, label)
		strength += delta
	}

	// Candle pattern vote.
	var candleSignal string
	if report != nil && report.Candles != nil {
		candleSignal = report.Candles.Signal
	}
	switch candleSignal {
	case "bullish":
		vote("bullish_candle", s.weights.CandleVote)
	case "bearish":
		vote("bearish_candle", -s.weights.CandleVote)
	}

	// Indicator votes.
	if snap != nil {
		switch snap.RSISignal() {
		case indicators.SignalOversold:
			vote("rsi_oversold", s.weights.RSIVote)
		case indicators.SignalOverbought:
			vote("rsi_overbought", -s.weights.RSIVote)
		}
		switch snap.MACDSignal() {
		case indicators.SignalBullish:
			vote("macd_bullish", s.weights.MACDVote)
		case indicators.SignalBearish:
			vote("macd_bearish", -s.weights.MACDVote)
		}
		switch snap.VWAPPosition() {
		case "above":
			vote("vwap_above", s.weights.VWAPVote)
		case "below":
			vote("vwap_below", -s.weights.VWAPVote)
		}
		switch snap.MFISignal() {
		case indicators.SignalOversold:
			vote("mfi_oversold", s.weights.MFIVote)
		case indicators.SignalOverbought:
			vote("mfi_overbought", -s.weights.MFIVote)
		}
		if snap.Ichimoku != nil {
			switch snap.Ichimoku.Position {
			case "above_cloud":
				vote("ichimoku_above_cloud", s.weights.IchimokuVote)
			case "below_cloud":
				vote("ichimoku_below_cloud", -s.weights.IchimokuVote)
			}
		}
		if snap.EMA != nil {
			switch snap.EMA.Trend {
			case "bullish", "strong_bullish":
				vote("ema_bullish", s.weights.EMAVote)
			case "bearish", "strong_bearish":
				vote("ema_bearish", -s.weights.EMAVote)
			}
		}
		if snap.VolumeRatio != nil {
			d.Quality.VolumeRatio = *snap.VolumeRatio
		}
	}

	// Zone signal votes plus order flow, sweeps and divergence.
	if report != nil {
		for _, zs := range report.Signals {
			switch zs.Direction {
			case DirectionLong:
				vote(zs.Source+"_long", zs.Strength*s.weights.ZoneVoteScale)
			case DirectionShort:
				vote(zs.Source+"_short", -zs.Strength*s.weights.ZoneVoteScale)
			}
			if zs.Direction != DirectionNeutral {
				d.Quality.ZoneSignalCount++
			}
		}

		if report.OrderFlow != nil {
			d.Quality.OrderFlowStrength = report.OrderFlow.Strength
			switch report.OrderFlow.Direction {
			case "bullish":
				vote("order_flow_bullish", s.weights.OrderFlowVote)
			case "bearish":
				vote("order_flow_bearish", -s.weights.OrderFlowVote)
			}
		}

		if len(report.Sweeps) > 0 {
			d.Quality.HasSweep = true
			last := report.Sweeps[len(report.Sweeps)-1]
			switch last.Direction {
			case DirectionLong:
				vote("liquidity_sweep_long", s.weights.SweepVote)
			case DirectionShort:
				vote("liquidity_sweep_short", -s.weights.SweepVote)
			}
		}

		if report.Structure != nil {
			d.Quality.HasBOS = report.Structure.BOS != nil
			d.Quality.HasCHOCH = report.Structure.CHOCH != nil
		}
	}

	// Divergence is the strongest single vote.
	if snap != nil && len(snap.RSISeries) > 0 {
		div := analysis.DetectDivergence(candles, snap.RSISeries)
		if div.HasDivergence() {
			d.Quality.HasDivergence = true
			switch div.Signal {
			case DirectionLong:
				vote("divergence_bullish", s.weights.DivergenceVote)
			case DirectionShort:
				vote("divergence_bearish", -s.weights.DivergenceVote)
			}
		}
	}

	d.SignalStrength = strength
	s.countConfirmations(d, candleSignal, snap, report)
	s.applyProbability(d)
	return d
}

// countConfirmations fills the four confirmation buckets: candle pattern,
// price near a zone, order flow, and indicator extremes (RSI extreme and
// MACD direction each count).
func (s *Scorer) countConfirmations(d *FusedDecision, candleSignal string, snap *indicators.Snapshot, report *analysis.Report) {
	if candleSignal == "bullish" || candleSignal == "bearish" {
		d.Confirmations.Sources = append(d.Confirmations.Sources, ConfirmCandle)
	}

	if report != nil && priceNearZone(report) {
		d.Confirmations.Sources = append(d.Confirmations.Sources, ConfirmLevel)
	}

	if report != nil && report.OrderFlow != nil && report.OrderFlow.Signal != DirectionNeutral {
		d.Confirmations.Sources = append(d.Confirmations.Sources, ConfirmOrderFlow)
	}

	if oscillatorExtreme(snap) {
		d.Confirmations.Sources = append(d.Confirmations.Sources, ConfirmIndicator)
	}
	if snap != nil {
		if ms := snap.MACDSignal(); ms == indicators.SignalBullish || ms == indicators.SignalBearish {
			d.Confirmations.Sources = append(d.Confirmations.Sources, ConfirmIndicator)
		}
	}

	d.Confirmations.Count = len(d.Confirmations.Sources)
}

// priceNearZone tests the last two FVGs for a zone containing the current
// price with 1% tolerance.
func priceNearZone(report *analysis.Report) bool {
	price := report.CurrentPrice
	if price <= 0 {
		return false
	}
	fvgs := report.FVGs
	if len(fvgs) > 2 {
		fvgs = fvgs[len(fvgs)-2:]
	}
	for _, fvg := range fvgs {
		if price >= fvg.ZoneStart*0.99 && price <= fvg.ZoneEnd*1.01 {
			return true
		}
	}
	return false
}

// applyProbability maps (strength, confirmations) through the banded
// probability model. Bands with enough confirmations get higher ceilings;
// shortfall both penalizes the raw score and scales the result down.
func (s *Scorer) applyProbability(d *FusedDecision) {
	w := s.weights
	strength := d.SignalStrength
	count := float64(d.Confirmations.Count)
	required := float64(d.Confirmations.Required)

	base := math.Min(math.Abs(strength)*w.BaseProbabilityScale, w.BaseProbabilityCap)
	confBonus := math.Min(count*w.ConfirmationBonus, w.ConfirmationBonusCap)
	var qualityBonus float64
	if d.Quality.HasDivergence {
		qualityBonus += w.DivergenceBonus
	}
	if d.Quality.HasSweep {
		qualityBonus += w.SweepBonus
	}
	penalty := math.Max(0, (required-count)*w.ShortfallPenalty)
	raw := base + confBonus + qualityBonus - penalty

	confirmed := d.Confirmed()
	var probability float64

	switch {
	case strength > w.StrongBandCutoff:
		d.Band = BandStrongLong
		probability = strongBandProbability(raw, confirmed)
	case strength > w.BandCutoff:
		d.Band = BandLong
		probability = normalBandProbability(raw, confirmed)
	case strength < -w.StrongBandCutoff:
		d.Band = BandStrongShort
		probability = strongBandProbability(raw, confirmed)
	case strength < -w.BandCutoff:
		d.Band = BandShort
		probability = normalBandProbability(raw, confirmed)
	case math.Abs(strength) > w.WeakBandCutoff:
		if strength > 0 {
			d.Band = BandLong
		} else {
			d.Band = BandShort
		}
		if confirmed {
			probability = math.Max(30, math.Min(30+raw*0.3, 55))
		} else {
			ratio := math.Max(0.3, count/required)
			probability = math.Max(20, math.Min(25+raw*0.2*ratio, 45))
		}
	default:
		d.Band = BandNeutral
	}

	if !confirmed && probability > 0 {
		ratio := math.Max(0.4, count/required)
		probability = math.Max(probability*ratio, 20)
	}

	d.Direction = bandDirection(d.Band)
	if d.Direction == DirectionNeutral {
		probability = 0
	}
	d.Probability = probability
}

func strongBandProbability(raw float64, confirmed bool) float64 {
	if confirmed {
		return math.Min(60+raw*0.4, 92)
	}
	return math.Max(35, math.Min(45+raw*0.3, 75))
}

func normalBandProbability(raw float64, confirmed bool) float64 {
	if confirmed {
		return math.Min(45+raw*0.35, 75)
	}
	return math.Max(30, math.Min(35+raw*0.25, 60))
}
