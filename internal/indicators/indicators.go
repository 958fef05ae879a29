// Package indicators computes the classical technical indicator set over a
// candle series and derives qualitative signals from the latest values.
// Indicators that cannot be computed from the available history are left nil
// so downstream scoring treats them as non-votes.
package indicators

import (
	talib "github.com/markcheno/go-talib"

	"bingx-scalping-bot/internal/exchange"
)

// Qualitative signal values shared across indicators.
const (
	SignalOversold   = "oversold"
	SignalOverbought = "overbought"
	SignalNeutral    = "neutral"
	SignalBullish    = "bullish"
	SignalBearish    = "bearish"
)

// MACDValue holds the latest MACD line, signal line and histogram.
type MACDValue struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// EMASet holds the EMA ladder and the derived trend label.
type EMASet struct {
	EMA9   float64 `json:"ema_9"`
	EMA21  float64 `json:"ema_21"`
	EMA50  float64 `json:"ema_50"`
	EMA200 float64 `json:"ema_200"`
	Trend  string  `json:"trend"` // strong_bullish, bullish, bearish, strong_bearish, neutral
}

// BollingerValue holds the band levels and where price sits against them.
type BollingerValue struct {
	Upper    float64 `json:"upper"`
	Middle   float64 `json:"middle"`
	Lower    float64 `json:"lower"`
	Position string  `json:"position"` // above_upper, below_lower, inside
}

// IchimokuValue holds the cloud components and the price position.
type IchimokuValue struct {
	Tenkan   float64 `json:"tenkan"`
	Kijun    float64 `json:"kijun"`
	SpanA    float64 `json:"span_a"`
	SpanB    float64 `json:"span_b"`
	Position string  `json:"position"` // above_cloud, below_cloud, in_cloud
}

// Snapshot is the aggregated indicator output for one candle series.
// Nil pointer fields mean the indicator could not be computed.
type Snapshot struct {
	RSI         *float64        `json:"rsi,omitempty"`
	RSISeries   []float64       `json:"-"` // retained for divergence detection
	MACD        *MACDValue      `json:"macd,omitempty"`
	VWAP        *float64        `json:"vwap,omitempty"`
	MFI         *float64        `json:"mfi,omitempty"`
	OBVTrend    string          `json:"obv_trend,omitempty"` // up or down, empty when unavailable
	Bollinger   *BollingerValue `json:"bollinger,omitempty"`
	EMA         *EMASet         `json:"ema,omitempty"`
	Ichimoku    *IchimokuValue  `json:"ichimoku,omitempty"`
	ATR         *float64        `json:"atr,omitempty"`
	VolumeRatio *float64        `json:"volume_ratio,omitempty"` // last volume vs 20-period average
	LastClose   float64         `json:"last_close"`
}

const (
	rsiPeriod      = 14
	mfiPeriod      = 14
	atrPeriod      = 14
	macdFast       = 12
	macdSlow       = 26
	macdSignal     = 9
	obvLookback    = 10
	volumeAvgSpan  = 20
	bbPeriod       = 20
	bbDeviation    = 2.0
	ichimokuTenkan = 9
	ichimokuKijun  = 26
	ichimokuSpanB  = 52
)

// Compute builds a Snapshot from the candle series. It never fails; missing
// history simply leaves the affected fields nil.
func Compute(candles []exchange.Candle) *Snapshot {
	snap := &Snapshot{}
	if len(candles) == 0 {
		return snap
	}

	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
		volumes[i] = c.Volume
	}
	snap.LastClose = closes[len(closes)-1]

	if len(closes) > rsiPeriod {
		series := talib.Rsi(closes, rsiPeriod)
		v := series[len(series)-1]
		snap.RSI = &v
		snap.RSISeries = series
	}

	if len(closes) > macdSlow+macdSignal {
		macd, signal, hist := talib.Macd(closes, macdFast, macdSlow, macdSignal)
		snap.MACD = &MACDValue{
			MACD:      macd[len(macd)-1],
			Signal:    signal[len(signal)-1],
			Histogram: hist[len(hist)-1],
		}
	}

	if v, ok := vwap(candles); ok {
		snap.VWAP = &v
	}

	if len(closes) > mfiPeriod {
		series := talib.Mfi(highs, lows, closes, volumes, mfiPeriod)
		v := series[len(series)-1]
		snap.MFI = &v
	}

	if len(closes) > obvLookback {
		obv := talib.Obv(closes, volumes)
		if obv[len(obv)-1] > obv[len(obv)-1-obvLookback] {
			snap.OBVTrend = "up"
		} else {
			snap.OBVTrend = "down"
		}
	}

	if len(closes) > bbPeriod {
		upper, middle, lower := talib.BBands(closes, bbPeriod, bbDeviation, bbDeviation, talib.SMA)
		bb := &BollingerValue{
			Upper:  upper[len(upper)-1],
			Middle: middle[len(middle)-1],
			Lower:  lower[len(lower)-1],
		}
		switch {
		case snap.LastClose > bb.Upper:
			bb.Position = "above_upper"
		case snap.LastClose < bb.Lower:
			bb.Position = "below_lower"
		default:
			bb.Position = "inside"
		}
		snap.Bollinger = bb
	}

	snap.EMA = emaSet(closes)

	if ichi, ok := ichimoku(highs, lows, closes[len(closes)-1]); ok {
		snap.Ichimoku = ichi
	}

	if len(closes) > atrPeriod {
		series := talib.Atr(highs, lows, closes, atrPeriod)
		v := series[len(series)-1]
		snap.ATR = &v
	}

	if len(volumes) > volumeAvgSpan {
		avg := talib.Sma(volumes, volumeAvgSpan)
		if a := avg[len(avg)-1]; a > 0 {
			v := volumes[len(volumes)-1] / a
			snap.VolumeRatio = &v
		}
	}

	return snap
}

// RSISignal maps the latest RSI to oversold/overbought/neutral at 30/70.
func (s *Snapshot) RSISignal() string {
	if s.RSI == nil {
		return SignalNeutral
	}
	switch {
	case *s.RSI < 30:
		return SignalOversold
	case *s.RSI > 70:
		return SignalOverbought
	default:
		return SignalNeutral
	}
}

// MACDSignal maps the histogram sign to bullish/bearish/neutral.
func (s *Snapshot) MACDSignal() string {
	if s.MACD == nil {
		return SignalNeutral
	}
	switch {
	case s.MACD.Histogram > 0:
		return SignalBullish
	case s.MACD.Histogram < 0:
		return SignalBearish
	default:
		return SignalNeutral
	}
}

// VWAPPosition reports above/below/at relative to the session VWAP.
func (s *Snapshot) VWAPPosition() string {
	if s.VWAP == nil {
		return ""
	}
	switch {
	case s.LastClose > *s.VWAP:
		return "above"
	case s.LastClose < *s.VWAP:
		return "below"
	default:
		return "at"
	}
}

// MFISignal maps the latest MFI to oversold/overbought/neutral at 20/80.
func (s *Snapshot) MFISignal() string {
	if s.MFI == nil {
		return SignalNeutral
	}
	switch {
	case *s.MFI < 20:
		return SignalOversold
	case *s.MFI > 80:
		return SignalOverbought
	default:
		return SignalNeutral
	}
}

// HasOscillatorExtreme reports whether RSI or MFI sits in an extreme zone.
func (s *Snapshot) HasOscillatorExtreme() bool {
	rsi := s.RSISignal()
	mfi := s.MFISignal()
	return rsi == SignalOversold || rsi == SignalOverbought ||
		mfi == SignalOversold || mfi == SignalOverbought
}

func vwap(candles []exchange.Candle) (float64, bool) {
	var pv, vol float64
	for _, c := range candles {
		typical := (c.High + c.Low + c.Close) / 3
		pv += typical * c.Volume
		vol += c.Volume
	}
	if vol == 0 {
		return 0, false
	}
	return pv / vol, true
}

func emaSet(closes []float64) *EMASet {
	if len(closes) < 21 {
		return nil
	}
	set := &EMASet{Trend: SignalNeutral}
	ema9 := talib.Ema(closes, 9)
	ema21 := talib.Ema(closes, 21)
	set.EMA9 = ema9[len(ema9)-1]
	set.EMA21 = ema21[len(ema21)-1]
	if len(closes) >= 50 {
		ema50 := talib.Ema(closes, 50)
		set.EMA50 = ema50[len(ema50)-1]
	}
	if len(closes) >= 200 {
		ema200 := talib.Ema(closes, 200)
		set.EMA200 = ema200[len(ema200)-1]
	}

	price := closes[len(closes)-1]
	switch {
	case price > set.EMA9 && set.EMA9 > set.EMA21 && set.EMA50 > 0 && set.EMA21 > set.EMA50:
		set.Trend = "strong_bullish"
	case price > set.EMA9 && set.EMA9 > set.EMA21:
		set.Trend = SignalBullish
	case price < set.EMA9 && set.EMA9 < set.EMA21 && set.EMA50 > 0 && set.EMA21 < set.EMA50:
		set.Trend = "strong_bearish"
	case price < set.EMA9 && set.EMA9 < set.EMA21:
		set.Trend = SignalBearish
	}
	return set
}

func ichimoku(highs, lows []float64, price float64) (*IchimokuValue, bool) {
	if len(highs) < ichimokuSpanB+ichimokuKijun {
		return nil, false
	}

	midpoint := func(period, shift int) float64 {
		end := len(highs) - shift
		start := end - period
		hi, lo := highs[start], lows[start]
		for i := start + 1; i < end; i++ {
			if highs[i] > hi {
				hi = highs[i]
			}
			if lows[i] < lo {
				lo = lows[i]
			}
		}
		return (hi + lo) / 2
	}

	v := &IchimokuValue{
		Tenkan: midpoint(ichimokuTenkan, 0),
		Kijun:  midpoint(ichimokuKijun, 0),
		// The cloud under the current candle was projected 26 periods ago.
		SpanA: (midpoint(ichimokuTenkan, ichimokuKijun) + midpoint(ichimokuKijun, ichimokuKijun)) / 2,
		SpanB: midpoint(ichimokuSpanB, ichimokuKijun),
	}

	top, bottom := v.SpanA, v.SpanB
	if bottom > top {
		top, bottom = bottom, top
	}
	switch {
	case price > top:
		v.Position = "above_cloud"
	case price < bottom:
		v.Position = "below_cloud"
	default:
		v.Position = "in_cloud"
	}
	return v, true
}
