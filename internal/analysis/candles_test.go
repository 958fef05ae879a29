package analysis

import (
	"testing"

	"bingx-scalping-bot/internal/exchange"
)

// pad returns filler candles so the pattern check sees enough history.
func pad(last ...exchange.Candle) []exchange.Candle {
	out := []exchange.Candle{
		{Open: 100, High: 100.5, Low: 99.5, Close: 100.2},
		{Open: 100.2, High: 100.7, Low: 99.8, Close: 100.4},
	}
	return append(out, last...)
}

func TestAnalyzeCandlePatternsHammer(t *testing.T) {
	candles := pad(exchange.Candle{Open: 100, High: 100.6, Low: 98, Close: 100.5})

	result := AnalyzeCandlePatterns(candles)
	if result == nil {
		t.Fatal("expected a pattern result")
	}
	if result.Signal != "bullish" {
		t.Errorf("expected bullish signal, got %s", result.Signal)
	}
	if !containsPattern(result.Patterns, "hammer") {
		t.Errorf("expected hammer in %v", result.Patterns)
	}
	// The long lower wick also reads as a bullish pin bar.
	if result.Strength != 50 {
		t.Errorf("expected strength 50, got %f", result.Strength)
	}
}

func TestAnalyzeCandlePatternsBullishEngulfing(t *testing.T) {
	candles := pad(
		exchange.Candle{Open: 101, High: 101.2, Low: 99.9, Close: 100},
		exchange.Candle{Open: 99.8, High: 101.3, Low: 99.7, Close: 101.2},
	)

	result := AnalyzeCandlePatterns(candles)
	if result == nil {
		t.Fatal("expected a pattern result")
	}
	if !containsPattern(result.Patterns, "bullish_engulfing") {
		t.Errorf("expected bullish_engulfing in %v", result.Patterns)
	}
	if result.Signal != "bullish" || result.Strength != 25 {
		t.Errorf("expected bullish/25, got %s/%f", result.Signal, result.Strength)
	}
}

func TestAnalyzeCandlePatternsShootingStar(t *testing.T) {
	candles := pad(exchange.Candle{Open: 100.5, High: 102, Low: 100.25, Close: 100.3})

	result := AnalyzeCandlePatterns(candles)
	if result == nil {
		t.Fatal("expected a pattern result")
	}
	if !containsPattern(result.Patterns, "shooting_star") {
		t.Errorf("expected shooting_star in %v", result.Patterns)
	}
	if result.Signal != "bearish" {
		t.Errorf("expected bearish signal, got %s", result.Signal)
	}
}

func TestAnalyzeCandlePatternsDojiIsNeutral(t *testing.T) {
	candles := pad(exchange.Candle{Open: 100, High: 101, Low: 99, Close: 100.05})

	result := AnalyzeCandlePatterns(candles)
	if result == nil {
		t.Fatal("expected a pattern result")
	}
	if !containsPattern(result.Patterns, "doji") {
		t.Errorf("expected doji in %v", result.Patterns)
	}
	if result.Signal != DirectionNeutral {
		t.Errorf("doji alone should stay neutral, got %s", result.Signal)
	}
}

func TestAnalyzeCandlePatternsShortHistory(t *testing.T) {
	if got := AnalyzeCandlePatterns([]exchange.Candle{{Open: 1, High: 2, Low: 0.5, Close: 1.5}}); got != nil {
		t.Errorf("expected nil for short history, got %+v", got)
	}
}

func containsPattern(patterns []string, name string) bool {
	for _, p := range patterns {
		if p == name {
			return true
		}
	}
	return false
}
