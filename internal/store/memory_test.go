package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	pos := &Position{
		ID:         "p1",
		AccountID:  "acct",
		Symbol:     "BTCUSDT",
		Direction:  "long",
		Size:       0.01,
		EntryPrice: 50000,
		StopLoss:   49750,
		TakeProfit: 50750,
		OpenedAt:   time.Now(),
		Status:     StatusOpen,
	}
	if err := s.CreatePosition(ctx, pos); err != nil {
		t.Fatalf("create: %v", err)
	}

	open, err := s.GetOpenPositions(ctx, "acct", "BTCUSDT")
	if err != nil {
		t.Fatalf("get open: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected 1 open position, got %d", len(open))
	}

	// Symbol filter excludes other instruments.
	other, err := s.GetOpenPositions(ctx, "acct", "ETHUSDT")
	if err != nil {
		t.Fatalf("get open: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no ETHUSDT positions, got %d", len(other))
	}

	if err := s.ClosePosition(ctx, "p1", 50750, CloseReasonTakeProfit, 7.5); err != nil {
		t.Fatalf("close: %v", err)
	}

	open, _ = s.GetOpenPositions(ctx, "acct", "")
	if len(open) != 0 {
		t.Errorf("expected no open positions after close, got %d", len(open))
	}

	closed := s.ClosedPositions("acct")
	if len(closed) != 1 {
		t.Fatalf("expected 1 closed position, got %d", len(closed))
	}
	if closed[0].CloseReason != CloseReasonTakeProfit || closed[0].RealizedPnL != 7.5 {
		t.Errorf("close fields not recorded: %+v", closed[0])
	}
}

func TestMemoryStoreCloseTwice(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	pos := &Position{ID: "p1", AccountID: "acct", Symbol: "BTCUSDT", Status: StatusOpen}
	if err := s.CreatePosition(ctx, pos); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.ClosePosition(ctx, "p1", 100, CloseReasonManual, 0); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := s.ClosePosition(ctx, "p1", 100, CloseReasonManual, 0); !errors.Is(err, ErrPositionNotFound) {
		t.Errorf("second close should report not found, got %v", err)
	}
}

func TestPositionPnL(t *testing.T) {
	long := &Position{Direction: "long", EntryPrice: 100, Size: 2}
	if pnl := long.PnL(103); pnl != 6 {
		t.Errorf("long pnl = %f, expected 6", pnl)
	}
	short := &Position{Direction: "short", EntryPrice: 100, Size: 2}
	if pnl := short.PnL(103); pnl != -6 {
		t.Errorf("short pnl = %f, expected -6", pnl)
	}
}

func TestMemoryCooldownStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCooldownStore()

	if err := s.SetCooldown(ctx, "acct", "BTCUSDT", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, active, _ := s.CooldownUntil(ctx, "acct", "BTCUSDT"); !active {
		t.Error("cooldown should be active")
	}
	if _, active, _ := s.CooldownUntil(ctx, "acct", "ETHUSDT"); active {
		t.Error("other symbol should not be cooling down")
	}

	// Expired deadlines read as inactive.
	_ = s.SetCooldown(ctx, "acct", "SOLUSDT", time.Now().Add(-time.Minute))
	if _, active, _ := s.CooldownUntil(ctx, "acct", "SOLUSDT"); active {
		t.Error("expired cooldown should be inactive")
	}

	_ = s.ClearCooldown(ctx, "acct", "BTCUSDT")
	if _, active, _ := s.CooldownUntil(ctx, "acct", "BTCUSDT"); active {
		t.Error("cleared cooldown should be inactive")
	}
}
