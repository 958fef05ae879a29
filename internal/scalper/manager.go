// Package scalper runs the per-account trading loops: scanning ranked
// pairs, fusing signals into entries and monitoring open positions.
package scalper

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"bingx-scalping-bot/internal/exchange"
)

// ClientFactory builds an exchange client for one account. Live and mock
// clients both plug in here.
type ClientFactory func(cfg AccountConfig) (exchange.Client, error)

// Manager owns the registry of per-account instances. Each account gets an
// isolated instance with its own client, loops and equity baseline; stores
// and notification sinks are shared.
type Manager struct {
	instances sync.Map // account ID -> *Instance
	factory   ClientFactory
	deps      Deps
	log       zerolog.Logger
}

// NewManager creates an empty registry.
func NewManager(factory ClientFactory, deps Deps) *Manager {
	return &Manager{
		factory: factory,
		deps:    deps,
		log:     deps.Logger.With().Str("component", "scalper_manager").Logger(),
	}
}

// StartAccount creates the instance on first use and starts its loops.
func (m *Manager) StartAccount(ctx context.Context, cfg AccountConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("account id is required")
	}

	if existing, ok := m.instances.Load(cfg.ID); ok {
		return existing.(*Instance).Start(ctx)
	}

	client, err := m.factory(cfg)
	if err != nil {
		return fmt.Errorf("build exchange client for %s: %w", cfg.ID, err)
	}
	instance := NewInstance(cfg, client, m.deps)

	// LoadOrStore settles concurrent starts for the same account on one
	// winner; the loser's instance is discarded before it ever runs.
	actual, _ := m.instances.LoadOrStore(cfg.ID, instance)
	return actual.(*Instance).Start(ctx)
}

// StopAccount stops the account's loops. Unknown accounts are a no-op.
func (m *Manager) StopAccount(accountID string) {
	if v, ok := m.instances.Load(accountID); ok {
		v.(*Instance).Stop()
	}
}

// Get returns the instance for an account.
func (m *Manager) Get(accountID string) (*Instance, bool) {
	v, ok := m.instances.Load(accountID)
	if !ok {
		return nil, false
	}
	return v.(*Instance), true
}

// Statuses snapshots every registered account, sorted by account ID.
func (m *Manager) Statuses() []Status {
	var out []Status
	m.instances.Range(func(_, v any) bool {
		out = append(out, v.(*Instance).Status())
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}

// RunningCount returns how many accounts are actively trading.
func (m *Manager) RunningCount() int {
	count := 0
	m.instances.Range(func(_, v any) bool {
		if v.(*Instance).IsRunning() {
			count++
		}
		return true
	})
	return count
}

// Shutdown stops every instance and blocks until the loops drain.
func (m *Manager) Shutdown() {
	var wg sync.WaitGroup
	m.instances.Range(func(_, v any) bool {
		instance := v.(*Instance)
		wg.Add(1)
		go func() {
			defer wg.Done()
			instance.Stop()
		}()
		return true
	})
	wg.Wait()
	m.log.Info().Msg("all instances stopped")
}
