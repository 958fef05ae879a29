package analysis

import (
	"testing"

	"bingx-scalping-bot/internal/exchange"
)

func TestDetectImbalancesBullishZone(t *testing.T) {
	candles := []exchange.Candle{
		{Open: 98, High: 100, Low: 97, Close: 99, Volume: 10, OpenTime: 1},
		{Open: 104, High: 106, Low: 103, Close: 105, Volume: 12, OpenTime: 2},
		{Open: 105, High: 107, Low: 104, Close: 106, Volume: 11, OpenTime: 3},
	}

	imbalances := DetectImbalances(candles)
	if len(imbalances) == 0 {
		t.Fatal("expected a bullish imbalance")
	}

	imb := imbalances[0]
	if imb.Direction != DirectionLong {
		t.Errorf("expected long imbalance, got %s", imb.Direction)
	}
	if imb.ZoneStart != 100 || imb.ZoneEnd != 103 {
		t.Errorf("expected zone [100, 103], got [%f, %f]", imb.ZoneStart, imb.ZoneEnd)
	}
	if !imb.Strong {
		t.Error("a 3% gap should count as strong")
	}
}

func TestDetectImbalancesBearishZone(t *testing.T) {
	candles := []exchange.Candle{
		{Open: 99, High: 100, Low: 98, Close: 98.5, Volume: 10, OpenTime: 1},
		{Open: 96.5, High: 97, Low: 95, Close: 95.5, Volume: 12, OpenTime: 2},
		{Open: 95.5, High: 96, Low: 94, Close: 94.5, Volume: 11, OpenTime: 3},
	}

	imbalances := DetectImbalances(candles)
	if len(imbalances) == 0 {
		t.Fatal("expected a bearish imbalance")
	}

	imb := imbalances[0]
	if imb.Direction != DirectionShort {
		t.Errorf("expected short imbalance, got %s", imb.Direction)
	}
	if imb.ZoneStart != 97 || imb.ZoneEnd != 98 {
		t.Errorf("expected zone [97, 98], got [%f, %f]", imb.ZoneStart, imb.ZoneEnd)
	}
}

func TestDetectImbalancesNoGap(t *testing.T) {
	candles := []exchange.Candle{
		{Open: 98, High: 100, Low: 97, Close: 99, OpenTime: 1},
		{Open: 99, High: 101, Low: 98, Close: 100, OpenTime: 2},
		{Open: 100, High: 102, Low: 99, Close: 101, OpenTime: 3},
	}
	if got := DetectImbalances(candles); len(got) != 0 {
		t.Errorf("expected no imbalances for overlapping candles, got %d", len(got))
	}
}

func TestDetectSTBZonesRequiresVolumeSpike(t *testing.T) {
	// One bullish gap, then a retest of the zone.
	base := []exchange.Candle{
		{Open: 98, High: 100, Low: 97, Close: 99, Volume: 10, OpenTime: 1},
		{Open: 104, High: 106, Low: 103, Close: 105, Volume: 10, OpenTime: 2},
		{Open: 105, High: 107, Low: 104, Close: 106, Volume: 10, OpenTime: 3},
		{Open: 103, High: 104, Low: 100, Close: 101, Volume: 10, OpenTime: 4},
	}

	quiet := append([]exchange.Candle(nil), base...)
	quiet = append(quiet, exchange.Candle{Open: 101, High: 103, Low: 100.5, Close: 102, Volume: 11, OpenTime: 5})
	imbalances := DetectImbalances(quiet)
	if zones := DetectSTBZones(quiet, imbalances); len(zones) != 0 {
		// The retest at average volume must not qualify.
		t.Fatalf("expected no zones without a volume spike, got %d", len(zones))
	}

	loud := append([]exchange.Candle(nil), base...)
	loud = append(loud, exchange.Candle{Open: 101, High: 103, Low: 100.5, Close: 102, Volume: 40, OpenTime: 5})
	imbalances = DetectImbalances(loud)
	zones := DetectSTBZones(loud, imbalances)
	if len(zones) == 0 {
		t.Fatal("expected a zone on a high-volume retest")
	}
	if zones[0].Direction != DirectionLong {
		t.Errorf("expected long zone, got %s", zones[0].Direction)
	}
	if zones[0].VolumeRatio <= 1.5 {
		t.Errorf("expected volume ratio above 1.5, got %f", zones[0].VolumeRatio)
	}
}
