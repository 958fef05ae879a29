package scalper

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"bingx-scalping-bot/internal/exchange"
	"bingx-scalping-bot/internal/fusion"
	"bingx-scalping-bot/internal/notify"
	"bingx-scalping-bot/internal/risk"
	"bingx-scalping-bot/internal/store"
)

func newTestInstance(t *testing.T, trades store.TradeStore) *Instance {
	t.Helper()
	deps := Deps{
		Trades:    trades,
		Cooldowns: store.NewMemoryCooldownStore(),
		Notifier:  notify.NewFanout(notify.NewLogSink(zerolog.Nop())),
		Weights:   fusion.DefaultScoreWeights(),
		Engine:    fusion.DefaultEngineConfig(),
		Risk:      risk.DefaultConfig(),
		Logger:    zerolog.Nop(),
	}
	return NewInstance(AccountConfig{ID: "acct", Name: "Test"}, exchange.NewMockClient(10_000), deps)
}

func openTestPosition(t *testing.T, trades store.TradeStore, id, symbol string) {
	t.Helper()
	err := trades.CreatePosition(context.Background(), &store.Position{
		ID:         id,
		AccountID:  "acct",
		Symbol:     symbol,
		Direction:  "long",
		Size:       0.01,
		EntryPrice: 100,
		StopLoss:   99,
		TakeProfit: 102,
		OpenedAt:   time.Now(),
		Status:     store.StatusOpen,
	})
	if err != nil {
		t.Fatalf("seed position: %v", err)
	}
}

func TestScanSymbolSkipsWhenPositionAlreadyOpen(t *testing.T) {
	ctx := context.Background()
	trades := store.NewMemoryStore()
	in := newTestInstance(t, trades)

	openTestPosition(t, trades, "p1", "BTC-USDT")

	if err := in.scanSymbol(ctx, "BTC-USDT"); err != nil {
		t.Fatalf("scan: %v", err)
	}

	open, err := trades.GetOpenPositions(ctx, "acct", "BTC-USDT")
	if err != nil {
		t.Fatalf("get open: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected the single seeded position, got %d", len(open))
	}
	if open[0].ID != "p1" {
		t.Errorf("seeded position replaced: %+v", open[0])
	}
}

func TestScanSymbolRespectsMaxOpenPositions(t *testing.T) {
	ctx := context.Background()
	trades := store.NewMemoryStore()
	in := newTestInstance(t, trades)

	symbols := []string{"ETH-USDT", "SOL-USDT", "XRP-USDT", "DOGE-USDT", "LINK-USDT"}
	for _, s := range symbols {
		openTestPosition(t, trades, s, s)
	}

	if err := in.scanSymbol(ctx, "BTC-USDT"); err != nil {
		t.Fatalf("scan: %v", err)
	}

	open, _ := trades.GetOpenPositions(ctx, "acct", "BTC-USDT")
	if len(open) != 0 {
		t.Errorf("position opened past the cap: %+v", open)
	}
	all, _ := trades.GetOpenPositions(ctx, "acct", "")
	if len(all) != len(symbols) {
		t.Errorf("open count changed from %d to %d", len(symbols), len(all))
	}
}

func TestCheckDrawdownDisablesWithoutClosingPositions(t *testing.T) {
	ctx := context.Background()
	trades := store.NewMemoryStore()
	in := newTestInstance(t, trades)
	in.cancel = func() {}

	openTestPosition(t, trades, "p1", "BTC-USDT")

	// Mock equity is 10000; a 13000 baseline is a 23% decline.
	in.baselineEquity = 13_000

	if tripped := in.checkDrawdown(ctx); !tripped {
		t.Fatal("23% drawdown must trip the breaker")
	}

	status := in.Status()
	if !status.Disabled || status.DisabledReason == "" {
		t.Errorf("instance should be disabled with a reason: %+v", status)
	}

	open, _ := trades.GetOpenPositions(ctx, "acct", "")
	if len(open) != 1 || open[0].Status != store.StatusOpen {
		t.Errorf("open position must survive the breaker: %+v", open)
	}
}
