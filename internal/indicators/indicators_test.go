package indicators

import (
	"math"
	"testing"

	"bingx-scalping-bot/internal/exchange"
)

func series(n int, base, amplitude float64) []exchange.Candle {
	out := make([]exchange.Candle, n)
	for i := range out {
		close := base + amplitude*math.Sin(float64(i)/4)
		out[i] = exchange.Candle{
			Open:   close - amplitude*0.1,
			High:   close + amplitude*0.3,
			Low:    close - amplitude*0.3,
			Close:  close,
			Volume: 100,
		}
	}
	return out
}

func TestComputeFullHistory(t *testing.T) {
	candles := series(300, 100, 2)
	snap := Compute(candles)

	if snap.RSI == nil || snap.MACD == nil || snap.VWAP == nil || snap.MFI == nil {
		t.Fatalf("expected all oscillators on 300 candles: %+v", snap)
	}
	if snap.EMA == nil || snap.Ichimoku == nil || snap.ATR == nil || snap.VolumeRatio == nil {
		t.Fatalf("expected trend indicators on 300 candles: %+v", snap)
	}
	if snap.Bollinger == nil {
		t.Fatal("expected Bollinger bands on 300 candles")
	}
	if !(snap.Bollinger.Lower < snap.Bollinger.Middle && snap.Bollinger.Middle < snap.Bollinger.Upper) {
		t.Errorf("band ordering broken: %+v", snap.Bollinger)
	}
	if snap.Bollinger.Position == "" {
		t.Error("Bollinger position not labeled")
	}
	if snap.OBVTrend == "" {
		t.Error("OBV trend should be derived on long history")
	}
	if snap.LastClose != candles[len(candles)-1].Close {
		t.Errorf("last close %f does not match series", snap.LastClose)
	}
	if *snap.RSI < 0 || *snap.RSI > 100 {
		t.Errorf("RSI out of range: %f", *snap.RSI)
	}
	if *snap.ATR <= 0 {
		t.Errorf("ATR must be positive on an oscillating series: %f", *snap.ATR)
	}
}

func TestComputeShortHistoryLeavesFieldsNil(t *testing.T) {
	snap := Compute(series(10, 100, 1))

	if snap.RSI != nil || snap.MACD != nil || snap.MFI != nil || snap.ATR != nil {
		t.Errorf("oscillators must be nil on 10 candles: %+v", snap)
	}
	if snap.EMA != nil || snap.Ichimoku != nil || snap.Bollinger != nil {
		t.Errorf("trend indicators must be nil on 10 candles: %+v", snap)
	}
	// VWAP only needs volume.
	if snap.VWAP == nil {
		t.Error("VWAP should still compute on short history")
	}
}

func TestComputeEmptyInput(t *testing.T) {
	snap := Compute(nil)
	if snap == nil {
		t.Fatal("Compute must never return nil")
	}
	if snap.RSI != nil || snap.VWAP != nil || snap.EMA != nil {
		t.Errorf("empty input must produce an empty snapshot: %+v", snap)
	}
}

func TestRSISignalBands(t *testing.T) {
	tests := []struct {
		rsi      float64
		expected string
	}{
		{25, SignalOversold},
		{50, SignalNeutral},
		{75, SignalOverbought},
	}
	for _, tt := range tests {
		v := tt.rsi
		s := &Snapshot{RSI: &v}
		if got := s.RSISignal(); got != tt.expected {
			t.Errorf("RSISignal(%f) = %s, expected %s", tt.rsi, got, tt.expected)
		}
	}
	if got := (&Snapshot{}).RSISignal(); got != SignalNeutral {
		t.Errorf("nil RSI must read neutral, got %s", got)
	}
}

func TestMFISignalBands(t *testing.T) {
	tests := []struct {
		mfi      float64
		expected string
	}{
		{15, SignalOversold},
		{50, SignalNeutral},
		{85, SignalOverbought},
	}
	for _, tt := range tests {
		v := tt.mfi
		s := &Snapshot{MFI: &v}
		if got := s.MFISignal(); got != tt.expected {
			t.Errorf("MFISignal(%f) = %s, expected %s", tt.mfi, got, tt.expected)
		}
	}
}

func TestMACDSignalFollowsHistogram(t *testing.T) {
	bull := &Snapshot{MACD: &MACDValue{Histogram: 0.4}}
	if got := bull.MACDSignal(); got != SignalBullish {
		t.Errorf("positive histogram = %s, expected bullish", got)
	}
	bear := &Snapshot{MACD: &MACDValue{Histogram: -0.4}}
	if got := bear.MACDSignal(); got != SignalBearish {
		t.Errorf("negative histogram = %s, expected bearish", got)
	}
	if got := (&Snapshot{}).MACDSignal(); got != SignalNeutral {
		t.Errorf("missing MACD = %s, expected neutral", got)
	}
}

func TestVWAPPosition(t *testing.T) {
	v := 100.0
	above := &Snapshot{VWAP: &v, LastClose: 101}
	if got := above.VWAPPosition(); got != "above" {
		t.Errorf("expected above, got %s", got)
	}
	below := &Snapshot{VWAP: &v, LastClose: 99}
	if got := below.VWAPPosition(); got != "below" {
		t.Errorf("expected below, got %s", got)
	}
	if got := (&Snapshot{}).VWAPPosition(); got != "" {
		t.Errorf("missing VWAP should report empty, got %q", got)
	}
}

func TestHasOscillatorExtreme(t *testing.T) {
	rsi, mfi := 25.0, 50.0
	s := &Snapshot{RSI: &rsi, MFI: &mfi}
	if !s.HasOscillatorExtreme() {
		t.Error("oversold RSI must count as an extreme")
	}
	rsi = 50
	if s.HasOscillatorExtreme() {
		t.Error("mid-range readings must not count as extremes")
	}
}

func TestEMATrendLadder(t *testing.T) {
	// Strictly rising closes put price above EMA9 above EMA21 above EMA50.
	closes := make([]exchange.Candle, 100)
	for i := range closes {
		p := 100 + float64(i)
		closes[i] = exchange.Candle{Open: p - 0.5, High: p + 0.5, Low: p - 1, Close: p, Volume: 100}
	}
	snap := Compute(closes)
	if snap.EMA == nil {
		t.Fatal("EMA set missing")
	}
	if snap.EMA.Trend != "strong_bullish" {
		t.Errorf("rising series trend = %s, expected strong_bullish", snap.EMA.Trend)
	}

	for i := range closes {
		p := 200 - float64(i)
		closes[i] = exchange.Candle{Open: p + 0.5, High: p + 1, Low: p - 0.5, Close: p, Volume: 100}
	}
	snap = Compute(closes)
	if snap.EMA.Trend != "strong_bearish" {
		t.Errorf("falling series trend = %s, expected strong_bearish", snap.EMA.Trend)
	}
}
