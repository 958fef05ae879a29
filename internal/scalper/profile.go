package scalper

import "time"

// Profile bundles the tunable strategy parameters for one account. All
// empirical defaults come from live tuning; override per account via
// configuration.
type Profile struct {
	Timeframe      string `json:"timeframe"`       // scan candles
	ZoneTimeframe  string `json:"zone_timeframe"`  // higher-timeframe zones
	TrendTimeframe string `json:"trend_timeframe"` // trend filter

	CandleLimit      int `json:"candle_limit"`
	ZoneCandleLimit  int `json:"zone_candle_limit"`
	TrendCandleLimit int `json:"trend_candle_limit"`
	BookDepth        int `json:"book_depth"`

	MinConfirmations int     `json:"min_confirmations"`
	ATRMinPercent    float64 `json:"atr_min_percent"`
	MinFVGGapPercent float64 `json:"min_fvg_gap_percent"`

	NotionalUSDT     float64 `json:"notional_usdt"`
	MinOrderSize     float64 `json:"min_order_size"`
	Leverage         int     `json:"leverage"`
	MaxOpenPositions int     `json:"max_open_positions"`

	StopLossCooldown   time.Duration `json:"stop_loss_cooldown"`
	MaxDrawdownPercent float64       `json:"max_drawdown_percent"`

	SoftMaxHolding time.Duration `json:"soft_max_holding"`
	HardMaxHolding time.Duration `json:"hard_max_holding"`

	PairInterval    time.Duration `json:"pair_interval"`
	CycleInterval   time.Duration `json:"cycle_interval"`
	MonitorInterval time.Duration `json:"monitor_interval"`

	ScanPairsLimit    int      `json:"scan_pairs_limit"`
	PairRefreshCycles int      `json:"pair_refresh_cycles"`
	MinQuoteVolume    float64  `json:"min_quote_volume"`
	DenylistPairs     []string `json:"denylist_pairs"`

	// Trading pauses. Hours are UTC; a hit delays the cycle by
	// BlackoutWait instead of scanning.
	BlackoutHours    []int          `json:"blackout_hours"`
	BlackoutWeekdays []time.Weekday `json:"blackout_weekdays"`
	BlackoutWait     time.Duration  `json:"blackout_wait"`

	// ErrorPauseAfter consecutive symbol errors, pause ErrorPause before
	// continuing the cycle.
	ErrorPauseAfter int           `json:"error_pause_after"`
	ErrorPause      time.Duration `json:"error_pause"`
}

// DefaultProfile returns the tuned scalping defaults.
func DefaultProfile() Profile {
	return Profile{
		Timeframe:      "5m",
		ZoneTimeframe:  "1h",
		TrendTimeframe: "4h",

		CandleLimit:      300,
		ZoneCandleLimit:  200,
		TrendCandleLimit: 100,
		BookDepth:        50,

		MinConfirmations: 3,
		ATRMinPercent:    0.25,
		MinFVGGapPercent: 0.1,

		NotionalUSDT:     100,
		MinOrderSize:     0.001,
		Leverage:         5,
		MaxOpenPositions: 5,

		StopLossCooldown:   15 * time.Minute,
		MaxDrawdownPercent: 20,

		SoftMaxHolding: 7 * time.Minute,
		HardMaxHolding: 10 * time.Minute,

		PairInterval:    2 * time.Second,
		CycleInterval:   180 * time.Second,
		MonitorInterval: 30 * time.Second,

		ScanPairsLimit:    30,
		PairRefreshCycles: 5,
		MinQuoteVolume:    1_000_000,
		DenylistPairs:     []string{"USDCUSDT", "FDUSDUSDT", "TUSDUSDT", "BUSDUSDT"},

		BlackoutHours:    []int{6, 11},
		BlackoutWeekdays: []time.Weekday{time.Monday},
		BlackoutWait:     15 * time.Minute,

		ErrorPauseAfter: 5,
		ErrorPause:      15 * time.Second,
	}
}

// normalize fills zero-valued fields from the defaults so a partial config
// never produces a stalled loop.
func (p Profile) normalize() Profile {
	def := DefaultProfile()
	if p.Timeframe == "" {
		p.Timeframe = def.Timeframe
	}
	if p.ZoneTimeframe == "" {
		p.ZoneTimeframe = def.ZoneTimeframe
	}
	if p.TrendTimeframe == "" {
		p.TrendTimeframe = def.TrendTimeframe
	}
	if p.CandleLimit <= 0 {
		p.CandleLimit = def.CandleLimit
	}
	if p.ZoneCandleLimit <= 0 {
		p.ZoneCandleLimit = def.ZoneCandleLimit
	}
	if p.TrendCandleLimit <= 0 {
		p.TrendCandleLimit = def.TrendCandleLimit
	}
	if p.BookDepth <= 0 {
		p.BookDepth = def.BookDepth
	}
	if p.MinConfirmations <= 0 {
		p.MinConfirmations = def.MinConfirmations
	}
	if p.ATRMinPercent <= 0 {
		p.ATRMinPercent = def.ATRMinPercent
	}
	if p.MinFVGGapPercent <= 0 {
		p.MinFVGGapPercent = def.MinFVGGapPercent
	}
	if p.NotionalUSDT <= 0 {
		p.NotionalUSDT = def.NotionalUSDT
	}
	if p.MinOrderSize <= 0 {
		p.MinOrderSize = def.MinOrderSize
	}
	if p.Leverage <= 0 {
		p.Leverage = def.Leverage
	}
	if p.MaxOpenPositions <= 0 {
		p.MaxOpenPositions = def.MaxOpenPositions
	}
	if p.StopLossCooldown <= 0 {
		p.StopLossCooldown = def.StopLossCooldown
	}
	if p.MaxDrawdownPercent <= 0 {
		p.MaxDrawdownPercent = def.MaxDrawdownPercent
	}
	if p.SoftMaxHolding <= 0 {
		p.SoftMaxHolding = def.SoftMaxHolding
	}
	if p.HardMaxHolding <= 0 {
		p.HardMaxHolding = def.HardMaxHolding
	}
	if p.PairInterval <= 0 {
		p.PairInterval = def.PairInterval
	}
	if p.CycleInterval <= 0 {
		p.CycleInterval = def.CycleInterval
	}
	if p.MonitorInterval <= 0 {
		p.MonitorInterval = def.MonitorInterval
	}
	if p.ScanPairsLimit <= 0 {
		p.ScanPairsLimit = def.ScanPairsLimit
	}
	if p.PairRefreshCycles <= 0 {
		p.PairRefreshCycles = def.PairRefreshCycles
	}
	if p.MinQuoteVolume <= 0 {
		p.MinQuoteVolume = def.MinQuoteVolume
	}
	if p.BlackoutWait <= 0 {
		p.BlackoutWait = def.BlackoutWait
	}
	if p.ErrorPauseAfter <= 0 {
		p.ErrorPauseAfter = def.ErrorPauseAfter
	}
	if p.ErrorPause <= 0 {
		p.ErrorPause = def.ErrorPause
	}
	return p
}

// InBlackout reports whether trading is paused at the given time.
func (p Profile) InBlackout(t time.Time) bool {
	utc := t.UTC()
	for _, h := range p.BlackoutHours {
		if utc.Hour() == h {
			return true
		}
	}
	for _, wd := range p.BlackoutWeekdays {
		if utc.Weekday() == wd {
			return true
		}
	}
	return false
}

// DrawdownPercent measures the equity decline from the session baseline.
// Zero or negative baselines report no drawdown.
func DrawdownPercent(baseline, current float64) float64 {
	if baseline <= 0 {
		return 0
	}
	dd := (baseline - current) / baseline * 100
	if dd < 0 {
		return 0
	}
	return dd
}
