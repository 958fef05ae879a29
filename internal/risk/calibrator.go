// Package risk computes volatility-adaptive stop-loss and take-profit
// levels for scalping entries from a blended true-range estimate.
package risk

import (
	"errors"
	"fmt"
	"math"

	"bingx-scalping-bot/internal/exchange"
)

// ErrInsufficientData is returned when the candle window cannot support the
// true-range math.
var ErrInsufficientData = errors.New("insufficient candle history for risk calibration")

// Directions accepted by Calibrate.
const (
	Long  = "long"
	Short = "short"
)

// Config holds the calibration constants.
type Config struct {
	MinStopPercent   float64 `json:"min_stop_percent"`
	MinTargetPercent float64 `json:"min_target_percent"`
	TargetRewardRisk float64 `json:"target_reward_risk"`
	ATRPeriod        int     `json:"atr_period"`
	ShortATRPeriod   int     `json:"short_atr_period"`
	MinCandles       int     `json:"min_candles"`
	MinTRSamples     int     `json:"min_tr_samples"`
}

// DefaultConfig returns the scalping defaults.
func DefaultConfig() Config {
	return Config{
		MinStopPercent:   0.30,
		MinTargetPercent: 0.55,
		TargetRewardRisk: 3.0,
		ATRPeriod:        14,
		ShortATRPeriod:   7,
		MinCandles:       50,
		MinTRSamples:     15,
	}
}

// Levels is a validated stop/target pair for one entry.
type Levels struct {
	Entry           float64 `json:"entry"`
	StopLoss        float64 `json:"stop_loss"`
	TakeProfit      float64 `json:"take_profit"`
	StopPercent     float64 `json:"stop_percent"`
	TargetPercent   float64 `json:"target_percent"`
	RewardRisk      float64 `json:"reward_risk"`
	ATRPercent      float64 `json:"atr_percent"`
	VolatilityRatio float64 `json:"volatility_ratio"`
	TargetHitRate   float64 `json:"target_hit_rate"` // share of the last 20 candles reaching the target
}

// Calibrator derives stop/target levels from candle history.
type Calibrator struct {
	cfg Config
}

// NewCalibrator creates a calibrator with the given config. Zero-valued
// fields fall back to defaults.
func NewCalibrator(cfg Config) *Calibrator {
	def := DefaultConfig()
	if cfg.MinStopPercent <= 0 {
		cfg.MinStopPercent = def.MinStopPercent
	}
	if cfg.MinTargetPercent <= 0 {
		cfg.MinTargetPercent = def.MinTargetPercent
	}
	if cfg.TargetRewardRisk <= 0 {
		cfg.TargetRewardRisk = def.TargetRewardRisk
	}
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = def.ATRPeriod
	}
	if cfg.ShortATRPeriod <= 0 {
		cfg.ShortATRPeriod = def.ShortATRPeriod
	}
	if cfg.MinCandles <= 0 {
		cfg.MinCandles = def.MinCandles
	}
	if cfg.MinTRSamples <= 0 {
		cfg.MinTRSamples = def.MinTRSamples
	}
	return &Calibrator{cfg: cfg}
}

// Calibrate computes a stop/target pair for the given entry and direction.
// The stop distance scales with a blended EMA/SMA true range and a
// short-vs-full volatility ratio; the target is stretched to the minimum
// reward:risk and both legs are capped harder for calm instruments.
func (c *Calibrator) Calibrate(direction string, entry float64, candles []exchange.Candle) (*Levels, error) {
	if direction != Long && direction != Short {
		return nil, fmt.Errorf("unknown trade direction %q", direction)
	}
	if entry <= 0 {
		return nil, fmt.Errorf("entry price must be positive, got %f", entry)
	}
	if len(candles) < c.cfg.MinCandles {
		return nil, fmt.Errorf("%w: %d candles, need %d", ErrInsufficientData, len(candles), c.cfg.MinCandles)
	}

	trs := trueRanges(candles)
	if len(trs) < c.cfg.MinTRSamples {
		return nil, fmt.Errorf("%w: %d true-range samples, need %d", ErrInsufficientData, len(trs), c.cfg.MinTRSamples)
	}

	// Equal-weight blend of an exponential and a simple ATR smooths
	// whipsaw on the short scalping window.
	atr := (emaLast(trs, c.cfg.ATRPeriod) + smaTail(trs, c.cfg.ATRPeriod)) / 2
	atrPct := atr / entry * 100

	volatilityRatio := clamp(smaTail(trs, c.cfg.ShortATRPeriod)/smaTail(trs, c.cfg.ATRPeriod), 0.8, 1.5)

	minStop, minTarget := c.cfg.MinStopPercent, c.cfg.MinTargetPercent
	switch {
	case atrPct > 1.5:
		minStop *= 1.3
		minTarget *= 1.3
	case atrPct < 0.5:
		minStop *= 0.9
		minTarget *= 0.9
	}

	stopPct := math.Max(minStop, atrPct*1.2*volatilityRatio)
	targetPct := math.Max(minTarget, atrPct*1.5*volatilityRatio)

	if targetPct/stopPct < c.cfg.TargetRewardRisk {
		targetPct = stopPct * c.cfg.TargetRewardRisk
	}

	highVolatility := atrPct > 1.0
	if highVolatility {
		// Volatile instruments get room to run, but the stop widens when
		// the implied ratio turns unrealistic.
		stretched := math.Min(atrPct*2, 5.0)
		if stretched > targetPct {
			targetPct = stretched
		}
		if targetPct/stopPct > 3.6 {
			stopPct = targetPct / 3
		}
	}

	maxStop, maxTarget := 2.0, 4.0
	if highVolatility {
		maxStop, maxTarget = 2.5, 5.0
	}
	stopPct = math.Min(stopPct, maxStop)
	targetPct = math.Min(targetPct, maxTarget)

	levels := &Levels{
		Entry:           entry,
		StopPercent:     stopPct,
		TargetPercent:   targetPct,
		RewardRisk:      targetPct / stopPct,
		ATRPercent:      atrPct,
		VolatilityRatio: volatilityRatio,
	}
	if direction == Long {
		levels.StopLoss = entry * (1 - stopPct/100)
		levels.TakeProfit = entry * (1 + targetPct/100)
	} else {
		levels.StopLoss = entry * (1 + stopPct/100)
		levels.TakeProfit = entry * (1 - targetPct/100)
	}

	if err := levels.validate(direction); err != nil {
		return nil, err
	}
	levels.TargetHitRate = targetHitRate(direction, levels.TakeProfit, candles)
	return levels, nil
}

func (l *Levels) validate(direction string) error {
	switch direction {
	case Long:
		if !(l.StopLoss < l.Entry && l.Entry < l.TakeProfit) {
			return fmt.Errorf("invalid long levels: stop %.6f entry %.6f target %.6f", l.StopLoss, l.Entry, l.TakeProfit)
		}
	case Short:
		if !(l.TakeProfit < l.Entry && l.Entry < l.StopLoss) {
			return fmt.Errorf("invalid short levels: target %.6f entry %.6f stop %.6f", l.TakeProfit, l.Entry, l.StopLoss)
		}
	}
	return nil
}

// VolatilityLevel buckets the ATR percent for logging and filters.
func VolatilityLevel(atrPercent float64) string {
	switch {
	case atrPercent < 0.5:
		return "low"
	case atrPercent < 1.0:
		return "normal"
	case atrPercent < 2.0:
		return "high"
	default:
		return "extreme"
	}
}

// targetHitRate replays the last 20 candles against the computed target and
// reports how often price would have reached it.
func targetHitRate(direction string, target float64, candles []exchange.Candle) float64 {
	window := candles
	if len(window) > 20 {
		window = window[len(window)-20:]
	}
	if len(window) == 0 {
		return 0
	}
	hits := 0
	for _, c := range window {
		if direction == Long && c.High >= target {
			hits++
		}
		if direction == Short && c.Low <= target {
			hits++
		}
	}
	return float64(hits) / float64(len(window))
}

func trueRanges(candles []exchange.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		c, prev := candles[i], candles[i-1]
		tr := math.Max(c.High-c.Low, math.Max(math.Abs(c.High-prev.Close), math.Abs(c.Low-prev.Close)))
		trs = append(trs, tr)
	}
	return trs
}

func emaLast(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	alpha := 2.0 / float64(period+1)
	ema := values[0]
	for _, v := range values[1:] {
		ema = alpha*v + (1-alpha)*ema
	}
	return ema
}

func smaTail(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	start := len(values) - period
	if start < 0 {
		start = 0
	}
	tail := values[start:]
	var sum float64
	for _, v := range tail {
		sum += v
	}
	return sum / float64(len(tail))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
