package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory TradeStore for tests and dry-run mode.
type MemoryStore struct {
	mu        sync.RWMutex
	positions map[string]*Position
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{positions: make(map[string]*Position)}
}

func (s *MemoryStore) CreatePosition(ctx context.Context, p *Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.positions[p.ID] = &cp
	return nil
}

func (s *MemoryStore) ClosePosition(ctx context.Context, id string, closePrice float64, reason string, pnl float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	if !ok || p.Status != StatusOpen {
		return ErrPositionNotFound
	}
	now := time.Now()
	p.Status = StatusClosed
	p.ClosePrice = closePrice
	p.CloseReason = reason
	p.ClosedAt = &now
	p.RealizedPnL = pnl
	return nil
}

func (s *MemoryStore) GetOpenPositions(ctx context.Context, accountID, symbol string) ([]Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Position
	for _, p := range s.positions {
		if p.Status != StatusOpen || p.AccountID != accountID {
			continue
		}
		if symbol != "" && p.Symbol != symbol {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *MemoryStore) UpdatePosition(ctx context.Context, p *Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.positions[p.ID]
	if !ok {
		return ErrPositionNotFound
	}
	existing.StopLoss = p.StopLoss
	existing.TakeProfit = p.TakeProfit
	existing.Size = p.Size
	return nil
}

// ClosedPositions returns all closed positions, newest last. Test helper.
func (s *MemoryStore) ClosedPositions(accountID string) []Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Position
	for _, p := range s.positions {
		if p.Status == StatusClosed && p.AccountID == accountID {
			out = append(out, *p)
		}
	}
	return out
}

// MemoryCooldownStore is an in-memory CooldownStore.
type MemoryCooldownStore struct {
	mu        sync.RWMutex
	deadlines map[string]time.Time
}

// NewMemoryCooldownStore creates an empty cooldown store.
func NewMemoryCooldownStore() *MemoryCooldownStore {
	return &MemoryCooldownStore{deadlines: make(map[string]time.Time)}
}

func cooldownKey(accountID, symbol string) string {
	return accountID + ":" + symbol
}

func (s *MemoryCooldownStore) SetCooldown(ctx context.Context, accountID, symbol string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadlines[cooldownKey(accountID, symbol)] = until
	return nil
}

func (s *MemoryCooldownStore) CooldownUntil(ctx context.Context, accountID, symbol string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	until, ok := s.deadlines[cooldownKey(accountID, symbol)]
	if !ok || time.Now().After(until) {
		return time.Time{}, false, nil
	}
	return until, true, nil
}

func (s *MemoryCooldownStore) ClearCooldown(ctx context.Context, accountID, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deadlines, cooldownKey(accountID, symbol))
	return nil
}
