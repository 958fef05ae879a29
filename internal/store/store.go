// Package store persists positions and per-instrument cooldowns. The
// Postgres-backed TradeStore is the production implementation; the memory
// variants back tests and dry runs.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrPositionNotFound is returned when the referenced position does not
// exist or is already closed.
var ErrPositionNotFound = errors.New("position not found")

// Position status values.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Close reasons recorded on position exit.
const (
	CloseReasonStopLoss   = "stop_loss"
	CloseReasonTakeProfit = "take_profit"
	CloseReasonMaxHolding = "max_holding_time"
	CloseReasonForceClose = "force_close"
	CloseReasonManual     = "manual"
)

// Position is one opened trade, created by the orchestrator and mutated
// only on close by the monitor.
type Position struct {
	ID          string     `json:"id"`
	AccountID   string     `json:"account_id"`
	Symbol      string     `json:"symbol"`
	Direction   string     `json:"direction"` // long or short
	Size        float64    `json:"size"`
	EntryPrice  float64    `json:"entry_price"`
	StopLoss    float64    `json:"stop_loss"`
	TakeProfit  float64    `json:"take_profit"`
	Leverage    int        `json:"leverage"`
	OpenedAt    time.Time  `json:"opened_at"`
	Status      string     `json:"status"`
	ClosePrice  float64    `json:"close_price,omitempty"`
	CloseReason string     `json:"close_reason,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	RealizedPnL float64    `json:"realized_pnl"`
}

// PnL computes the realized profit for a given close price.
func (p *Position) PnL(closePrice float64) float64 {
	if p.Direction == "short" {
		return (p.EntryPrice - closePrice) * p.Size
	}
	return (closePrice - p.EntryPrice) * p.Size
}

// HoldingTime reports how long the position has been open.
func (p *Position) HoldingTime(now time.Time) time.Duration {
	return now.Sub(p.OpenedAt)
}

// TradeStore is the persistence contract consumed by the trading core.
type TradeStore interface {
	// CreatePosition persists a newly opened position.
	CreatePosition(ctx context.Context, p *Position) error

	// ClosePosition marks the position closed with exit price, reason and
	// realized PnL.
	ClosePosition(ctx context.Context, id string, closePrice float64, reason string, pnl float64) error

	// GetOpenPositions lists open positions for an account, optionally
	// filtered by symbol (empty string for all).
	GetOpenPositions(ctx context.Context, accountID, symbol string) ([]Position, error)

	// UpdatePosition rewrites mutable fields (stop, target) of an open
	// position.
	UpdatePosition(ctx context.Context, p *Position) error
}

// CooldownStore tracks per-(account, symbol) cooldown deadlines set after
// stop-loss exits.
type CooldownStore interface {
	// SetCooldown records a cooldown running until the given time.
	SetCooldown(ctx context.Context, accountID, symbol string, until time.Time) error

	// CooldownUntil returns the active deadline, or ok=false when none.
	CooldownUntil(ctx context.Context, accountID, symbol string) (time.Time, bool, error)

	// ClearCooldown removes any active cooldown.
	ClearCooldown(ctx context.Context, accountID, symbol string) error
}
