package risk

import (
	"errors"
	"math"
	"testing"

	"bingx-scalping-bot/internal/exchange"
)

// steadyCandles builds a gently oscillating series around the base price.
func steadyCandles(n int, base, amplitude float64) []exchange.Candle {
	out := make([]exchange.Candle, n)
	for i := range out {
		offset := amplitude * math.Sin(float64(i)/3)
		open := base + offset
		close := base + amplitude*math.Sin(float64(i+1)/3)
		high := math.Max(open, close) + amplitude*0.3
		low := math.Min(open, close) - amplitude*0.3
		out[i] = exchange.Candle{Open: open, High: high, Low: low, Close: close, Volume: 100}
	}
	return out
}

func TestCalibrateLongLevelOrdering(t *testing.T) {
	c := NewCalibrator(DefaultConfig())
	candles := steadyCandles(100, 100, 0.5)

	levels, err := c.Calibrate(Long, 100, candles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !(levels.StopLoss < levels.Entry && levels.Entry < levels.TakeProfit) {
		t.Errorf("long levels out of order: stop %f entry %f target %f",
			levels.StopLoss, levels.Entry, levels.TakeProfit)
	}
}

func TestCalibrateShortLevelOrdering(t *testing.T) {
	c := NewCalibrator(DefaultConfig())
	candles := steadyCandles(100, 100, 0.5)

	levels, err := c.Calibrate(Short, 100, candles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !(levels.TakeProfit < levels.Entry && levels.Entry < levels.StopLoss) {
		t.Errorf("short levels out of order: target %f entry %f stop %f",
			levels.TakeProfit, levels.Entry, levels.StopLoss)
	}
}

func TestCalibrateMinimumRewardRisk(t *testing.T) {
	c := NewCalibrator(DefaultConfig())

	for _, amplitude := range []float64{0.1, 0.5, 1.0} {
		candles := steadyCandles(100, 100, amplitude)
		levels, err := c.Calibrate(Long, 100, candles)
		if err != nil {
			t.Fatalf("amplitude %f: %v", amplitude, err)
		}
		// High-volatility stretching may relax the ratio, but calm series
		// must honor the 3:1 floor.
		if levels.ATRPercent <= 1.0 && levels.RewardRisk < 3.0-1e-9 {
			t.Errorf("amplitude %f: reward:risk %f below floor", amplitude, levels.RewardRisk)
		}
	}
}

func TestCalibrateEnforcesMinimumDistances(t *testing.T) {
	c := NewCalibrator(DefaultConfig())
	// Nearly flat series: ATR approaches zero, floors must kick in.
	candles := steadyCandles(100, 100, 0.01)

	levels, err := c.Calibrate(Long, 100, candles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if levels.StopPercent < 0.25 {
		t.Errorf("stop distance %f collapsed below the floor", levels.StopPercent)
	}
	if levels.TargetPercent < 0.45 {
		t.Errorf("target distance %f collapsed below the floor", levels.TargetPercent)
	}
}

func TestCalibrateInsufficientData(t *testing.T) {
	c := NewCalibrator(DefaultConfig())

	_, err := c.Calibrate(Long, 100, steadyCandles(10, 100, 0.5))
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCalibrateRejectsBadInputs(t *testing.T) {
	c := NewCalibrator(DefaultConfig())
	candles := steadyCandles(100, 100, 0.5)

	if _, err := c.Calibrate("sideways", 100, candles); err == nil {
		t.Error("expected error for unknown direction")
	}
	if _, err := c.Calibrate(Long, 0, candles); err == nil {
		t.Error("expected error for zero entry price")
	}
}

func TestVolatilityLevelBuckets(t *testing.T) {
	tests := []struct {
		atrPercent float64
		expected   string
	}{
		{0.2, "low"},
		{0.7, "normal"},
		{1.5, "high"},
		{3.0, "extreme"},
	}
	for _, tt := range tests {
		if got := VolatilityLevel(tt.atrPercent); got != tt.expected {
			t.Errorf("VolatilityLevel(%f) = %s, expected %s", tt.atrPercent, got, tt.expected)
		}
	}
}

func TestTargetHitRateReplay(t *testing.T) {
	candles := steadyCandles(100, 100, 0.5)
	// A target below every recent high must always hit; one far above never.
	if rate := targetHitRate(Long, 10, candles); rate != 1 {
		t.Errorf("expected hit rate 1 for trivial target, got %f", rate)
	}
	if rate := targetHitRate(Long, 1000, candles); rate != 0 {
		t.Errorf("expected hit rate 0 for unreachable target, got %f", rate)
	}
}
