package scalper

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bingx-scalping-bot/internal/exchange"
	"bingx-scalping-bot/internal/fusion"
	"bingx-scalping-bot/internal/indicators"
	"bingx-scalping-bot/internal/notify"
	"bingx-scalping-bot/internal/risk"
	"bingx-scalping-bot/internal/store"
)

// minScanCandles is the least history the pipeline accepts for a symbol.
const minScanCandles = 50

// scanLoop drives trading cycles until cancellation.
func (in *Instance) scanLoop(ctx context.Context) {
	for {
		delay := in.runCycle(ctx)
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// runCycle executes one full pass over the pair list and returns the delay
// before the next cycle.
func (in *Instance) runCycle(ctx context.Context) time.Duration {
	now := time.Now()
	if in.profile.InBlackout(now) {
		in.log.Info().Time("at", now).Dur("wait", in.profile.BlackoutWait).Msg("blackout window, pausing cycle")
		return in.profile.BlackoutWait
	}

	if tripped := in.checkDrawdown(ctx); tripped {
		return in.profile.CycleInterval
	}

	in.mu.Lock()
	in.cycle++
	cycle := in.cycle
	in.mu.Unlock()

	if cycle == 1 || cycle%in.profile.PairRefreshCycles == 0 {
		in.refreshPairs(ctx)
	}

	in.mu.RLock()
	pairs := append([]string(nil), in.pairs...)
	in.mu.RUnlock()

	in.log.Debug().Int("cycle", cycle).Int("pairs", len(pairs)).Msg("scan cycle started")

	for i, symbol := range pairs {
		if ctx.Err() != nil {
			return 0
		}
		if err := in.scanSymbol(ctx, symbol); err != nil {
			kind := in.recordError(symbol, err)
			if kind == ErrorInvariant {
				// Invariant failures point at a bug, not market conditions.
				in.notifier.Notify(ctx, notify.Event{
					AccountID: in.cfg.ID,
					Kind:      notify.KindError,
					Symbol:    symbol,
					Message:   err.Error(),
				})
			}
			if in.errorCount() >= in.profile.ErrorPauseAfter {
				in.log.Warn().Int("consecutive", in.errorCount()).Dur("pause", in.profile.ErrorPause).Msg("error streak, backing off")
				select {
				case <-ctx.Done():
					return 0
				case <-time.After(in.profile.ErrorPause):
				}
				in.recordSuccess()
			}
		} else {
			in.recordSuccess()
		}

		if i < len(pairs)-1 {
			select {
			case <-ctx.Done():
				return 0
			case <-time.After(in.profile.PairInterval):
			}
		}
	}
	return in.profile.CycleInterval
}

// checkDrawdown refreshes equity and disables the account past the session
// drawdown limit. Open positions are left as they are; flattening them is
// the operator's call.
func (in *Instance) checkDrawdown(ctx context.Context) bool {
	bal, err := in.client.GetBalance(ctx)
	if err != nil {
		in.log.Warn().Err(err).Msg("balance read failed, drawdown guard skipped this cycle")
		return false
	}

	in.mu.Lock()
	if in.baselineEquity <= 0 {
		in.baselineEquity = bal.Total
	}
	in.currentEquity = bal.Total
	baseline := in.baselineEquity
	in.mu.Unlock()

	dd := DrawdownPercent(baseline, bal.Total)
	if dd < in.profile.MaxDrawdownPercent {
		return false
	}

	in.log.Warn().Float64("drawdown_pct", dd).Float64("baseline", baseline).Float64("equity", bal.Total).Msg("drawdown limit hit")
	in.disable(ctx, fmt.Sprintf("drawdown %.1f%% exceeded limit %.1f%%", dd, in.profile.MaxDrawdownPercent))
	return true
}

// refreshPairs rebuilds the scan list from exchange volume rankings,
// dropping thin or denylisted instruments. The ranked snapshot is shared
// through the cache so parallel accounts skip the exchange call.
func (in *Instance) refreshPairs(ctx context.Context) {
	if in.pairCache != nil {
		if cached, ok, err := in.pairCache.RankedPairs(ctx); err == nil && ok {
			in.mu.Lock()
			in.pairs = cached
			in.mu.Unlock()
			in.log.Debug().Int("count", len(cached)).Msg("pair list loaded from cache")
			return
		}
	}

	tickers, err := in.client.GetTopSymbolsByVolume(ctx, in.profile.ScanPairsLimit*3)
	if err != nil {
		in.log.Warn().Err(err).Msg("volume ranking unavailable, keeping current pair list")
		return
	}

	denied := make(map[string]bool, len(in.profile.DenylistPairs))
	for _, s := range in.profile.DenylistPairs {
		denied[s] = true
	}

	var pairs []string
	for _, t := range tickers {
		if denied[t.Symbol] || t.QuoteVolume < in.profile.MinQuoteVolume {
			continue
		}
		pairs = append(pairs, t.Symbol)
		if len(pairs) >= in.profile.ScanPairsLimit {
			break
		}
	}
	if len(pairs) == 0 {
		in.log.Warn().Msg("no pairs met volume floor, keeping current pair list")
		return
	}

	in.mu.Lock()
	in.pairs = pairs
	in.mu.Unlock()

	if in.pairCache != nil {
		if err := in.pairCache.SetRankedPairs(ctx, pairs, 0); err != nil {
			in.log.Warn().Err(err).Msg("pair snapshot cache write failed")
		}
	}

	in.log.Info().Int("count", len(pairs)).Msg("pair list refreshed")
	in.notifier.Notify(ctx, notify.Event{
		AccountID: in.cfg.ID,
		Kind:      notify.KindPairsRefreshed,
		Message:   fmt.Sprintf("scanning %d pairs", len(pairs)),
		Data:      map[string]any{"pairs": pairs},
	})
}

// scanSymbol runs the full pipeline for one instrument and opens a position
// when every gate passes.
func (in *Instance) scanSymbol(ctx context.Context, symbol string) error {
	now := time.Now()

	if until, active, err := in.cooldowns.CooldownUntil(ctx, in.cfg.ID, symbol); err != nil {
		in.log.Warn().Err(err).Str("symbol", symbol).Msg("cooldown read failed, treating as active")
		return nil
	} else if active {
		in.log.Debug().Str("symbol", symbol).Time("until", until).Msg("cooldown active, skipping")
		return nil
	}

	// Duplicate guard. The read and the later order are not atomic, so a
	// fill between them can still double up; the monitor reconciles that
	// on its next pass.
	openHere, err := in.trades.GetOpenPositions(ctx, in.cfg.ID, symbol)
	if err != nil {
		return fmt.Errorf("open position lookup: %w", err)
	}
	if len(openHere) > 0 {
		return nil
	}

	openAll, err := in.trades.GetOpenPositions(ctx, in.cfg.ID, "")
	if err != nil {
		return fmt.Errorf("open position lookup: %w", err)
	}
	if len(openAll) >= in.profile.MaxOpenPositions {
		in.log.Debug().Int("open", len(openAll)).Msg("max open positions reached")
		return nil
	}

	candles, err := in.client.GetOHLCV(ctx, symbol, in.profile.Timeframe, in.profile.CandleLimit)
	if err != nil {
		return fmt.Errorf("fetch candles: %w", err)
	}
	if len(candles) < minScanCandles {
		return fmt.Errorf("%w: %d candles for %s", ErrDataUnavailable, len(candles), symbol)
	}
	book, err := in.client.GetOrderBook(ctx, symbol, in.profile.BookDepth)
	if err != nil {
		return fmt.Errorf("fetch order book: %w", err)
	}

	// Slow-timeframe context is additive; a fetch failure only costs the
	// zone and trend inputs.
	zoneCandles, err := in.client.GetOHLCV(ctx, symbol, in.profile.ZoneTimeframe, in.profile.ZoneCandleLimit)
	if err != nil {
		in.log.Debug().Err(err).Str("symbol", symbol).Msg("zone candles unavailable")
		zoneCandles = nil
	}
	trendCandles, err := in.client.GetOHLCV(ctx, symbol, in.profile.TrendTimeframe, in.profile.TrendCandleLimit)
	if err != nil {
		in.log.Debug().Err(err).Str("symbol", symbol).Msg("trend candles unavailable")
		trendCandles = nil
	}

	snap := indicators.Compute(candles)
	report := in.analyzer.Analyze(candles, book)
	if len(zoneCandles) > 0 {
		report.Signals = append(report.Signals, in.analyzer.HigherTimeframeSignals(zoneCandles, report.CurrentPrice)...)
	}

	fused := in.scorer.Score(symbol, candles, snap, report)
	if len(trendCandles) > 0 {
		in.scorer.ApplyTrendFilter(fused, fusion.DetermineTrend(trendCandles))
	}
	in.scorer.CheckCancellation(fused, report, book, candles)

	decision := in.engine.Decide(fused, snap)
	if decision.Action == fusion.ActionSkip {
		in.log.Debug().Str("symbol", symbol).Str("reason", decision.Reason).Msg("skip")
		return nil
	}

	lastClose := candles[len(candles)-1].Close
	if snap.ATR == nil || lastClose <= 0 {
		return fmt.Errorf("%w: ATR unavailable for %s", ErrDataUnavailable, symbol)
	}
	atrPct := *snap.ATR / lastClose * 100
	if atrPct < in.profile.ATRMinPercent {
		in.log.Debug().Str("symbol", symbol).Float64("atr_pct", atrPct).Msg("volatility below floor, skipping")
		return nil
	}

	direction := risk.Long
	if decision.Action == fusion.ActionOpenShort {
		direction = risk.Short
	}

	if conflict, err := in.hasConflictingExchangePosition(ctx, symbol, direction); err != nil {
		return err
	} else if conflict {
		in.log.Debug().Str("symbol", symbol).Msg("opposing exchange position, skipping")
		return nil
	}

	in.notifier.Notify(ctx, notify.Event{
		AccountID: in.cfg.ID,
		Kind:      notify.KindSignal,
		Symbol:    symbol,
		Message:   fmt.Sprintf("%s signal at %.0f%% probability", decision.Action, decision.Probability),
		Data: map[string]any{
			"band":          fused.Band,
			"probability":   decision.Probability,
			"threshold":     decision.Threshold,
			"confirmations": fused.Confirmations.Count,
			"escape_hatch":  decision.EscapeHatch,
		},
		Timestamp: now,
	})

	return in.openPosition(ctx, symbol, direction, candles)
}

// hasConflictingExchangePosition checks live exchange positions for the
// opposite side. Signature failures degrade to "no conflict" so a key
// misconfiguration on the read path cannot freeze the whole account.
func (in *Instance) hasConflictingExchangePosition(ctx context.Context, symbol, direction string) (bool, error) {
	positions, err := in.client.GetPositions(ctx)
	if err != nil {
		if ClassifyError(err) == ErrorSignature {
			in.log.Warn().Err(err).Str("symbol", symbol).Msg("position read rejected, assuming no conflicting position")
			return false, nil
		}
		return false, fmt.Errorf("fetch exchange positions: %w", err)
	}
	for _, p := range positions {
		if p.Symbol != symbol || p.Size == 0 {
			continue
		}
		if (direction == risk.Long && p.Side == "SHORT") || (direction == risk.Short && p.Side == "LONG") {
			return true, nil
		}
	}
	return false, nil
}

// openPosition sizes, places and persists a new market entry.
func (in *Instance) openPosition(ctx context.Context, symbol, direction string, candles []exchange.Candle) error {
	entry := candles[len(candles)-1].Close
	if entry <= 0 {
		return fmt.Errorf("%w: zero entry price for %s", ErrInvariant, symbol)
	}

	levels, err := in.calibrator.Calibrate(direction, entry, candles)
	if err != nil {
		if ClassifyError(err) == ErrorDataUnavailable {
			return err
		}
		return fmt.Errorf("%w: %v", ErrRiskBreach, err)
	}

	amount, _ := decimal.NewFromFloat(in.profile.NotionalUSDT).
		Div(decimal.NewFromFloat(entry)).
		Round(6).
		Float64()
	if amount < in.profile.MinOrderSize {
		in.log.Debug().Str("symbol", symbol).Float64("amount", amount).Msg("order below minimum size, skipping")
		return nil
	}

	if err := in.client.SetLeverage(ctx, symbol, in.profile.Leverage); err != nil {
		in.log.Warn().Err(err).Str("symbol", symbol).Msg("leverage update failed, using account default")
	}

	side := exchange.SideBuy
	if direction == risk.Short {
		side = exchange.SideSell
	}
	order, err := in.client.PlaceMarketOrder(ctx, symbol, side, amount)
	if err != nil {
		return fmt.Errorf("place entry order: %w", err)
	}

	fill := order.FillPrice
	if fill <= 0 {
		fill = entry
	}
	// Re-anchor the calibrated distances to the actual fill.
	stop := fill * (1 - levels.StopPercent/100)
	target := fill * (1 + levels.TargetPercent/100)
	if direction == risk.Short {
		stop = fill * (1 + levels.StopPercent/100)
		target = fill * (1 - levels.TargetPercent/100)
	}

	pos := &store.Position{
		ID:         uuid.NewString(),
		AccountID:  in.cfg.ID,
		Symbol:     symbol,
		Direction:  direction,
		Size:       amount,
		EntryPrice: fill,
		StopLoss:   stop,
		TakeProfit: target,
		Leverage:   in.profile.Leverage,
		OpenedAt:   time.Now(),
		Status:     store.StatusOpen,
	}
	if err := in.trades.CreatePosition(ctx, pos); err != nil {
		return fmt.Errorf("persist position: %w", err)
	}

	in.log.Info().
		Str("symbol", symbol).
		Str("direction", direction).
		Float64("entry", fill).
		Float64("stop", stop).
		Float64("target", target).
		Float64("size", amount).
		Float64("atr_pct", levels.ATRPercent).
		Str("volatility", risk.VolatilityLevel(levels.ATRPercent)).
		Msg("position opened")

	in.notifier.Notify(ctx, notify.Event{
		AccountID: in.cfg.ID,
		Kind:      notify.KindTradeOpened,
		Symbol:    symbol,
		Message:   fmt.Sprintf("%s %s %.6f @ %.6f", direction, symbol, amount, fill),
		Data: map[string]any{
			"position_id": pos.ID,
			"entry":       fill,
			"stop_loss":   stop,
			"take_profit": target,
			"reward_risk": levels.RewardRisk,
			"order_id":    order.OrderID,
		},
	})
	return nil
}
