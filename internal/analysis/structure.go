package analysis

import "bingx-scalping-bot/internal/exchange"

// StructureBreak marks a break of structure: the latest candle printing at
// or beyond the prior extreme of the window.
type StructureBreak struct {
	Direction string  `json:"direction"` // long for a breakout up, short for a breakdown
	Level     float64 `json:"level"`
}

// CharacterChange marks a CHOCH: an established run of higher highs
// answered by lower lows, or the mirror.
type CharacterChange struct {
	Direction string `json:"direction"` // long or short, the expected reversal side
}

// Structure is the BOS/CHOCH state of the series.
type Structure struct {
	BOS       *StructureBreak  `json:"bos,omitempty"`
	CHOCH     *CharacterChange `json:"choch,omitempty"`
	Character string           `json:"character"` // uptrend, downtrend, range
}

// DetectStructure evaluates BOS against the full-window extremes (with a 1%
// tolerance) and CHOCH over the last 10 candles: at least 3 higher highs
// followed by at least 2 lower lows flags a bearish character change, and
// the mirror a bullish one.
func DetectStructure(candles []exchange.Candle) *Structure {
	if len(candles) < 20 {
		return nil
	}

	highest, lowest := candles[0].High, candles[0].Low
	for _, c := range candles {
		if c.High > highest {
			highest = c.High
		}
		if c.Low < lowest {
			lowest = c.Low
		}
	}

	s := &Structure{}
	last := candles[len(candles)-1]
	if last.High > highest*0.99 {
		s.BOS = &StructureBreak{Direction: DirectionLong, Level: highest}
	} else if last.Low < lowest*1.01 {
		s.BOS = &StructureBreak{Direction: DirectionShort, Level: lowest}
	}

	recent := candles[len(candles)-10:]
	var higherHighs, lowerLows int
	for i := 1; i < len(recent); i++ {
		if recent[i].High > recent[i-1].High {
			higherHighs++
		}
		if recent[i].Low < recent[i-1].Low {
			lowerLows++
		}
	}

	if higherHighs >= 3 && lowerLows >= 2 {
		s.CHOCH = &CharacterChange{Direction: DirectionShort}
	} else if lowerLows >= 3 && higherHighs >= 2 {
		s.CHOCH = &CharacterChange{Direction: DirectionLong}
	}

	switch {
	case higherHighs > lowerLows:
		s.Character = "uptrend"
	case lowerLows > higherHighs:
		s.Character = "downtrend"
	default:
		s.Character = "range"
	}
	return s
}
