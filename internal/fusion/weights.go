package fusion

// ScoreWeights is the versioned vote and probability constant table. The
// values are empirical, tuned on live scalping results rather than derived
// from a model; override via config instead of editing code.
type ScoreWeights struct {
	Version string `json:"version"`

	// Vote weights (added to or subtracted from signal strength).
	CandleVote     float64 `json:"candle_vote"`
	RSIVote        float64 `json:"rsi_vote"`
	MACDVote       float64 `json:"macd_vote"`
	VWAPVote       float64 `json:"vwap_vote"`
	MFIVote        float64 `json:"mfi_vote"`
	IchimokuVote   float64 `json:"ichimoku_vote"`
	EMAVote        float64 `json:"ema_vote"`
	ZoneVoteScale  float64 `json:"zone_vote_scale"` // zone signal strength multiplier
	OrderFlowVote  float64 `json:"order_flow_vote"`
	SweepVote      float64 `json:"sweep_vote"`
	DivergenceVote float64 `json:"divergence_vote"`

	// Band cutoffs on the signed strength.
	StrongBandCutoff float64 `json:"strong_band_cutoff"`
	BandCutoff       float64 `json:"band_cutoff"`
	WeakBandCutoff   float64 `json:"weak_band_cutoff"`

	// Probability shaping.
	BaseProbabilityScale float64 `json:"base_probability_scale"`
	BaseProbabilityCap   float64 `json:"base_probability_cap"`
	ConfirmationBonus    float64 `json:"confirmation_bonus"`
	ConfirmationBonusCap float64 `json:"confirmation_bonus_cap"`
	DivergenceBonus      float64 `json:"divergence_bonus"`
	SweepBonus           float64 `json:"sweep_bonus"`
	ShortfallPenalty     float64 `json:"shortfall_penalty"`

	// Higher-timeframe trend filter.
	TrendConflictPenalty float64 `json:"trend_conflict_penalty"`
	TrendNeutralFloor    float64 `json:"trend_neutral_floor"`
}

// DefaultScoreWeights returns the tuned constant set.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Version: "2024-11",

		CandleVote:     20,
		RSIVote:        15,
		MACDVote:       15,
		VWAPVote:       10,
		MFIVote:        10,
		IchimokuVote:   12,
		EMAVote:        10,
		ZoneVoteScale:  5,
		OrderFlowVote:  15,
		SweepVote:      20,
		DivergenceVote: 25,

		StrongBandCutoff: 30,
		BandCutoff:       15,
		WeakBandCutoff:   5,

		BaseProbabilityScale: 1.5,
		BaseProbabilityCap:   70,
		ConfirmationBonus:    5,
		ConfirmationBonusCap: 20,
		DivergenceBonus:      10,
		SweepBonus:           8,
		ShortfallPenalty:     10,

		TrendConflictPenalty: 15,
		TrendNeutralFloor:    50,
	}
}
