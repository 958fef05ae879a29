package scalper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"bingx-scalping-bot/internal/risk"
	"bingx-scalping-bot/internal/store"
)

func TestProfileInBlackout(t *testing.T) {
	p := DefaultProfile()

	// 2025-03-04 is a Tuesday, 2025-03-03 a Monday.
	tests := []struct {
		name     string
		at       time.Time
		expected bool
	}{
		{"hour six", time.Date(2025, 3, 4, 6, 30, 0, 0, time.UTC), true},
		{"hour eleven", time.Date(2025, 3, 4, 11, 0, 0, 0, time.UTC), true},
		{"monday", time.Date(2025, 3, 3, 14, 0, 0, 0, time.UTC), true},
		{"tuesday afternoon", time.Date(2025, 3, 4, 14, 0, 0, 0, time.UTC), false},
		{"tuesday midnight", time.Date(2025, 3, 4, 0, 5, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		if got := p.InBlackout(tt.at); got != tt.expected {
			t.Errorf("%s: InBlackout = %v, expected %v", tt.name, got, tt.expected)
		}
	}
}

func TestProfileNormalizeFillsZeroFields(t *testing.T) {
	p := Profile{NotionalUSDT: 250}.normalize()
	def := DefaultProfile()

	if p.NotionalUSDT != 250 {
		t.Errorf("explicit notional overwritten: %f", p.NotionalUSDT)
	}
	if p.Timeframe != def.Timeframe || p.CandleLimit != def.CandleLimit {
		t.Errorf("scan defaults not applied: %+v", p)
	}
	if p.HardMaxHolding != def.HardMaxHolding || p.StopLossCooldown != def.StopLossCooldown {
		t.Errorf("holding defaults not applied: %+v", p)
	}
}

func TestDrawdownPercent(t *testing.T) {
	p := DefaultProfile()

	if dd := DrawdownPercent(1000, 790); dd < p.MaxDrawdownPercent {
		t.Errorf("21%% decline must trip the %f limit, got %f", p.MaxDrawdownPercent, dd)
	}
	if dd := DrawdownPercent(1000, 810); dd >= p.MaxDrawdownPercent {
		t.Errorf("19%% decline must not trip the limit, got %f", dd)
	}
	if dd := DrawdownPercent(0, 500); dd != 0 {
		t.Errorf("zero baseline should report no drawdown, got %f", dd)
	}
	if dd := DrawdownPercent(1000, 1100); dd != 0 {
		t.Errorf("equity gain should report no drawdown, got %f", dd)
	}
}

func TestEvaluateExit(t *testing.T) {
	profile := DefaultProfile()
	now := time.Now()

	position := func(direction string, held time.Duration) *store.Position {
		pos := &store.Position{
			Direction:  direction,
			Size:       1,
			EntryPrice: 100,
			OpenedAt:   now.Add(-held),
		}
		if direction == "long" {
			pos.StopLoss, pos.TakeProfit = 99, 102
		} else {
			pos.StopLoss, pos.TakeProfit = 101, 98
		}
		return pos
	}

	tests := []struct {
		name      string
		pos       *store.Position
		price     float64
		reason    string
		shouldAct bool
	}{
		{"long stop hit", position("long", time.Minute), 98.9, store.CloseReasonStopLoss, true},
		{"long target hit", position("long", time.Minute), 102.1, store.CloseReasonTakeProfit, true},
		{"short stop hit", position("short", time.Minute), 101.2, store.CloseReasonStopLoss, true},
		{"short target hit", position("short", time.Minute), 97.5, store.CloseReasonTakeProfit, true},
		{"in range, fresh", position("long", 2 * time.Minute), 100.5, "", false},
		{"soft limit in profit", position("long", 8 * time.Minute), 100.5, store.CloseReasonMaxHolding, true},
		{"soft limit at a loss closes", position("long", 8 * time.Minute), 99.5, store.CloseReasonMaxHolding, true},
		{"hard limit at a loss closes", position("long", 11 * time.Minute), 99.5, store.CloseReasonForceClose, true},
		{"hard limit in profit closes", position("short", 11 * time.Minute), 99.5, store.CloseReasonForceClose, true},
	}
	for _, tt := range tests {
		reason, shouldAct := EvaluateExit(tt.pos, tt.price, now, profile)
		if shouldAct != tt.shouldAct || reason != tt.reason {
			t.Errorf("%s: got (%q, %v), expected (%q, %v)",
				tt.name, reason, shouldAct, tt.reason, tt.shouldAct)
		}
	}
}

func TestClassifyError(t *testing.T) {
	var dnsErr net.Error = &net.DNSError{Err: "lookup failed", IsTimeout: true}

	tests := []struct {
		name     string
		err      error
		expected ErrorKind
	}{
		{"wrapped signature sentinel", fmt.Errorf("fetch positions: %w", ErrSignature), ErrorSignature},
		{"wrapped data sentinel", fmt.Errorf("scan: %w", ErrDataUnavailable), ErrorDataUnavailable},
		{"insufficient history", fmt.Errorf("calibrate: %w", risk.ErrInsufficientData), ErrorDataUnavailable},
		{"risk breach sentinel", ErrRiskBreach, ErrorRiskBreach},
		{"invariant sentinel", ErrInvariant, ErrorInvariant},
		{"deadline", context.DeadlineExceeded, ErrorTransient},
		{"net error", dnsErr, ErrorTransient},
		{"signature message", errors.New("Signature for this request is not valid"), ErrorSignature},
		{"api key message", errors.New("Invalid API-key, IP, or permissions"), ErrorSignature},
		{"connection reset", errors.New("read tcp: connection reset by peer"), ErrorTransient},
		{"rate limit", errors.New("429 too many requests"), ErrorTransient},
		{"unknown defaults to transient", errors.New("borked"), ErrorTransient},
	}
	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.expected {
			t.Errorf("%s: ClassifyError = %s, expected %s", tt.name, got, tt.expected)
		}
	}
}

func TestStopLossCooldownTimeline(t *testing.T) {
	ctx := context.Background()
	cooldowns := store.NewMemoryCooldownStore()
	profile := DefaultProfile()

	until := time.Now().Add(profile.StopLossCooldown)
	if err := cooldowns.SetCooldown(ctx, "acct", "BTCUSDT", until); err != nil {
		t.Fatalf("set: %v", err)
	}

	deadline, active, err := cooldowns.CooldownUntil(ctx, "acct", "BTCUSDT")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !active {
		t.Fatal("cooldown should still be active well before the deadline")
	}
	if !deadline.Equal(until) && deadline.Sub(until).Abs() > time.Second {
		t.Errorf("deadline drifted: set %v, read %v", until, deadline)
	}

	// Past the deadline the symbol is actionable again.
	_ = cooldowns.SetCooldown(ctx, "acct", "BTCUSDT", time.Now().Add(-time.Minute))
	if _, active, _ := cooldowns.CooldownUntil(ctx, "acct", "BTCUSDT"); active {
		t.Error("expired cooldown should read as inactive")
	}
}
