package scalper

import (
	"context"
	"fmt"
	"time"

	"bingx-scalping-bot/internal/exchange"
	"bingx-scalping-bot/internal/notify"
	"bingx-scalping-bot/internal/store"
)

// monitorLoop watches open positions and closes them on stop, target or
// holding-time limits. It runs on its own ticker so exits never wait on a
// slow scan cycle.
func (in *Instance) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(in.profile.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			in.monitorPass(ctx)
		}
	}
}

// monitorPass evaluates every open position once.
func (in *Instance) monitorPass(ctx context.Context) {
	positions, err := in.trades.GetOpenPositions(ctx, in.cfg.ID, "")
	if err != nil {
		in.log.Warn().Err(err).Msg("open position listing failed, retrying next tick")
		return
	}
	now := time.Now()
	for i := range positions {
		pos := positions[i]
		ticker, err := in.client.GetTicker(ctx, pos.Symbol)
		if err != nil || ticker.Last <= 0 {
			in.log.Warn().Err(err).Str("symbol", pos.Symbol).Msg("price unavailable, position held")
			continue
		}

		reason, shouldClose := EvaluateExit(&pos, ticker.Last, now, in.profile)
		if !shouldClose {
			continue
		}
		if err := in.closePosition(ctx, &pos, ticker.Last, reason); err != nil {
			in.log.Error().Err(err).Str("symbol", pos.Symbol).Str("reason", reason).Msg("position close failed")
		}
	}
}

// EvaluateExit applies the exit rules to one open position at the given
// price and time. Stop and target take precedence; past the soft holding
// limit the position is closed regardless of PnL, and the hard limit is the
// backstop when evaluation was delayed.
func EvaluateExit(pos *store.Position, price float64, now time.Time, profile Profile) (string, bool) {
	switch pos.Direction {
	case "long":
		if price <= pos.StopLoss {
			return store.CloseReasonStopLoss, true
		}
		if price >= pos.TakeProfit {
			return store.CloseReasonTakeProfit, true
		}
	case "short":
		if price >= pos.StopLoss {
			return store.CloseReasonStopLoss, true
		}
		if price <= pos.TakeProfit {
			return store.CloseReasonTakeProfit, true
		}
	}

	held := pos.HoldingTime(now)
	if held >= profile.HardMaxHolding {
		return store.CloseReasonForceClose, true
	}
	if held >= profile.SoftMaxHolding {
		return store.CloseReasonMaxHolding, true
	}
	return "", false
}

// closePosition flattens the position on the exchange, records the exit and
// arms the stop-loss cooldown where applicable.
func (in *Instance) closePosition(ctx context.Context, pos *store.Position, price float64, reason string) error {
	side := exchange.SideSell
	if pos.Direction == "short" {
		side = exchange.SideBuy
	}
	order, err := in.client.PlaceMarketOrder(ctx, pos.Symbol, side, pos.Size)
	if err != nil {
		return fmt.Errorf("place exit order: %w", err)
	}
	if order.FillPrice > 0 {
		price = order.FillPrice
	}

	pnl := pos.PnL(price)
	if err := in.trades.ClosePosition(ctx, pos.ID, price, reason, pnl); err != nil {
		return fmt.Errorf("persist close: %w", err)
	}

	if reason == store.CloseReasonStopLoss {
		until := time.Now().Add(in.profile.StopLossCooldown)
		if err := in.cooldowns.SetCooldown(ctx, in.cfg.ID, pos.Symbol, until); err != nil {
			in.log.Warn().Err(err).Str("symbol", pos.Symbol).Msg("cooldown write failed")
		}
	}

	in.log.Info().
		Str("symbol", pos.Symbol).
		Str("direction", pos.Direction).
		Str("reason", reason).
		Float64("entry", pos.EntryPrice).
		Float64("exit", price).
		Float64("pnl", pnl).
		Dur("held", pos.HoldingTime(time.Now())).
		Msg("position closed")

	in.notifier.Notify(ctx, notify.Event{
		AccountID: in.cfg.ID,
		Kind:      notify.KindTradeClosed,
		Symbol:    pos.Symbol,
		Message:   fmt.Sprintf("closed %s %s: %s, pnl %.4f", pos.Direction, pos.Symbol, reason, pnl),
		Data: map[string]any{
			"position_id": pos.ID,
			"exit":        price,
			"reason":      reason,
			"pnl":         pnl,
		},
	})
	return nil
}
