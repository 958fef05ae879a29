package analysis

import "bingx-scalping-bot/internal/exchange"

// CandlePatterns is the candlestick-pattern read of the latest candle
// against its predecessors.
type CandlePatterns struct {
	Patterns []string `json:"patterns"`
	Signal   string   `json:"signal"`   // bullish, bearish, neutral
	Strength float64  `json:"strength"` // 25 per agreeing pattern, capped at 100
}

// AnalyzeCandlePatterns detects reversal and indecision patterns on the
// last candle: hammer, hanging man, engulfing, doji, shooting star and pin
// bars. The overall signal is the majority side of the detected patterns.
func AnalyzeCandlePatterns(candles []exchange.Candle) *CandlePatterns {
	if len(candles) < 3 {
		return nil
	}

	last := candles[len(candles)-1]
	prev := candles[len(candles)-2]

	result := &CandlePatterns{Signal: DirectionNeutral}
	var bullish, bearish int

	if isHammer(last) {
		result.Patterns = append(result.Patterns, "hammer")
		bullish++
	}
	if isHangingMan(last) && !isHammer(last) {
		result.Patterns = append(result.Patterns, "hanging_man")
		bearish++
	}
	if isEngulfing(prev, last) {
		if last.IsBullish() && !prev.IsBullish() {
			result.Patterns = append(result.Patterns, "bullish_engulfing")
			bullish++
		} else if !last.IsBullish() && prev.IsBullish() {
			result.Patterns = append(result.Patterns, "bearish_engulfing")
			bearish++
		}
	}
	if isDoji(last) {
		result.Patterns = append(result.Patterns, "doji")
	}
	if isShootingStar(last) {
		result.Patterns = append(result.Patterns, "shooting_star")
		bearish++
	}
	switch pinBar(last) {
	case DirectionLong:
		result.Patterns = append(result.Patterns, "bullish_pin_bar")
		bullish++
	case DirectionShort:
		result.Patterns = append(result.Patterns, "bearish_pin_bar")
		bearish++
	}

	switch {
	case bullish > bearish:
		result.Signal = "bullish"
		result.Strength = capStrength(float64(bullish) * 25)
	case bearish > bullish:
		result.Signal = "bearish"
		result.Strength = capStrength(float64(bearish) * 25)
	}
	return result
}

func capStrength(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}

func isHammer(c exchange.Candle) bool {
	return c.LowerWick() > c.Body()*2 &&
		c.UpperWick() < c.Body()*0.3 &&
		c.Close > c.Open*0.99
}

func isHangingMan(c exchange.Candle) bool {
	return c.LowerWick() > c.Body()*2 && c.UpperWick() < c.Body()*0.3
}

func isEngulfing(prev, curr exchange.Candle) bool {
	return curr.Body() > prev.Body()*1.1 &&
		curr.Open < prev.Close &&
		curr.Close > prev.Open
}

func isDoji(c exchange.Candle) bool {
	totalRange := c.High - c.Low
	return totalRange > 0 && c.Body() < totalRange*0.1
}

func isShootingStar(c exchange.Candle) bool {
	return c.UpperWick() > c.Body()*2 && c.LowerWick() < c.Body()*0.3
}

func pinBar(c exchange.Candle) string {
	totalRange := c.High - c.Low
	if totalRange <= 0 {
		return DirectionNeutral
	}
	if c.UpperWick() > totalRange*0.6 && c.LowerWick() < totalRange*0.2 {
		return DirectionShort
	}
	if c.LowerWick() > totalRange*0.6 && c.UpperWick() < totalRange*0.2 {
		return DirectionLong
	}
	return DirectionNeutral
}
