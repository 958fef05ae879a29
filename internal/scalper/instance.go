package scalper

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bingx-scalping-bot/internal/analysis"
	"bingx-scalping-bot/internal/exchange"
	"bingx-scalping-bot/internal/fusion"
	"bingx-scalping-bot/internal/notify"
	"bingx-scalping-bot/internal/risk"
	"bingx-scalping-bot/internal/store"
)

// AccountConfig describes one trading account managed by the scalper.
type AccountConfig struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Profile Profile `json:"profile"`
}

// Status is a read-only snapshot of an instance for the HTTP API.
type Status struct {
	AccountID         string    `json:"account_id"`
	Name              string    `json:"name"`
	Running           bool      `json:"running"`
	Disabled          bool      `json:"disabled"`
	DisabledReason    string    `json:"disabled_reason,omitempty"`
	Cycle             int       `json:"cycle"`
	Pairs             []string  `json:"pairs"`
	BaselineEquity    float64   `json:"baseline_equity"`
	CurrentEquity     float64   `json:"current_equity"`
	DrawdownPercent   float64   `json:"drawdown_percent"`
	ConsecutiveErrors int       `json:"consecutive_errors"`
	LastError         string    `json:"last_error,omitempty"`
	StartedAt         time.Time `json:"started_at"`
}

// Instance runs the scan and monitor loops for one account. All market and
// order calls go through the account's own exchange client; persistence and
// notification sinks are shared.
type Instance struct {
	cfg       AccountConfig
	profile   Profile
	client    exchange.Client
	trades    store.TradeStore
	cooldowns store.CooldownStore
	notifier  notify.Notifier
	pairCache PairCache
	log       zerolog.Logger

	analyzer   *analysis.Analyzer
	scorer     *fusion.Scorer
	engine     *fusion.Engine
	calibrator *risk.Calibrator

	mu                sync.RWMutex
	running           bool
	cancel            context.CancelFunc
	wg                sync.WaitGroup
	pairs             []string
	cycle             int
	baselineEquity    float64
	currentEquity     float64
	disabled          bool
	disabledReason    string
	consecutiveErrors int
	lastError         string
	startedAt         time.Time
}

// PairCache shares the volume-ranked pair snapshot between accounts so
// parallel instances skip redundant exchange calls.
type PairCache interface {
	SetRankedPairs(ctx context.Context, pairs []string, ttl time.Duration) error
	RankedPairs(ctx context.Context) ([]string, bool, error)
}

// Deps are the shared collaborators an instance needs besides its client.
// PairCache may be nil; pair lists are then rebuilt per account.
type Deps struct {
	Trades    store.TradeStore
	Cooldowns store.CooldownStore
	Notifier  notify.Notifier
	PairCache PairCache
	Weights   fusion.ScoreWeights
	Engine    fusion.EngineConfig
	Risk      risk.Config
	Logger    zerolog.Logger
}

// NewInstance wires an instance for one account.
func NewInstance(cfg AccountConfig, client exchange.Client, deps Deps) *Instance {
	profile := cfg.Profile.normalize()
	return &Instance{
		cfg:        cfg,
		profile:    profile,
		client:     client,
		trades:     deps.Trades,
		cooldowns:  deps.Cooldowns,
		notifier:   deps.Notifier,
		pairCache:  deps.PairCache,
		log:        deps.Logger.With().Str("component", "scalper").Str("account_id", cfg.ID).Logger(),
		analyzer:   analysis.NewAnalyzer(profile.MinFVGGapPercent),
		scorer:     fusion.NewScorer(deps.Weights, profile.MinConfirmations),
		engine:     fusion.NewEngine(deps.Engine),
		calibrator: risk.NewCalibrator(deps.Risk),
	}
}

// Start launches the scan and monitor loops. Idempotent while running.
func (in *Instance) Start(ctx context.Context) error {
	in.mu.Lock()
	if in.running {
		in.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	in.running = true
	in.disabled = false
	in.disabledReason = ""
	in.cancel = cancel
	in.cycle = 0
	in.consecutiveErrors = 0
	in.startedAt = time.Now()
	in.mu.Unlock()

	if err := in.captureBaseline(runCtx); err != nil {
		in.log.Warn().Err(err).Msg("baseline equity unavailable, drawdown guard starts on first balance read")
	}

	in.wg.Add(2)
	go in.supervise(runCtx, "scan", in.scanLoop)
	go in.supervise(runCtx, "monitor", in.monitorLoop)

	in.notifier.Notify(runCtx, notify.Event{
		AccountID: in.cfg.ID,
		Kind:      notify.KindAccountStarted,
		Message:   "scalper started",
	})
	in.log.Info().Msg("instance started")
	return nil
}

// Stop cancels the loops and waits for them to drain.
func (in *Instance) Stop() {
	in.mu.Lock()
	if !in.running {
		in.mu.Unlock()
		return
	}
	in.running = false
	cancel := in.cancel
	in.mu.Unlock()

	cancel()
	in.wg.Wait()

	in.notifier.Notify(context.Background(), notify.Event{
		AccountID: in.cfg.ID,
		Kind:      notify.KindAccountStopped,
		Message:   "scalper stopped",
	})
	in.log.Info().Msg("instance stopped")
}

// IsRunning reports whether the loops are live.
func (in *Instance) IsRunning() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.running
}

// Status returns a snapshot for the API.
func (in *Instance) Status() Status {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return Status{
		AccountID:         in.cfg.ID,
		Name:              in.cfg.Name,
		Running:           in.running,
		Disabled:          in.disabled,
		DisabledReason:    in.disabledReason,
		Cycle:             in.cycle,
		Pairs:             append([]string(nil), in.pairs...),
		BaselineEquity:    in.baselineEquity,
		CurrentEquity:     in.currentEquity,
		DrawdownPercent:   DrawdownPercent(in.baselineEquity, in.currentEquity),
		ConsecutiveErrors: in.consecutiveErrors,
		LastError:         in.lastError,
		StartedAt:         in.startedAt,
	}
}

// supervise runs a loop and restarts it after a panic. The scan and monitor
// loops recover independently so a crash in one never silently kills the
// other.
func (in *Instance) supervise(ctx context.Context, name string, loop func(context.Context)) {
	defer in.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					in.log.Error().Str("loop", name).Interface("panic", r).Msg("loop panicked, restarting")
				}
			}()
			loop(ctx)
		}()
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

// captureBaseline records the session's starting equity for the drawdown
// guard.
func (in *Instance) captureBaseline(ctx context.Context) error {
	bal, err := in.client.GetBalance(ctx)
	if err != nil {
		return err
	}
	in.mu.Lock()
	in.baselineEquity = bal.Total
	in.currentEquity = bal.Total
	in.mu.Unlock()
	return nil
}

// disable parks the instance after a hard limit trip. Loops observe the
// flag and exit.
func (in *Instance) disable(ctx context.Context, reason string) {
	in.mu.Lock()
	alreadyDisabled := in.disabled
	in.disabled = true
	in.disabledReason = reason
	cancel := in.cancel
	in.running = false
	in.mu.Unlock()

	if alreadyDisabled {
		return
	}
	in.notifier.Notify(ctx, notify.Event{
		AccountID: in.cfg.ID,
		Kind:      notify.KindAccountDisabled,
		Message:   reason,
	})
	in.log.Warn().Str("reason", reason).Msg("instance disabled")
	cancel()
}

func (in *Instance) recordError(symbol string, err error) ErrorKind {
	kind := ClassifyError(err)
	in.mu.Lock()
	in.consecutiveErrors++
	in.lastError = err.Error()
	count := in.consecutiveErrors
	in.mu.Unlock()

	logger := in.log.Warn()
	if kind == ErrorInvariant {
		logger = in.log.Error()
	}
	logger.Err(err).Str("symbol", symbol).Str("kind", string(kind)).Int("consecutive", count).Msg("symbol scan failed")
	return kind
}

func (in *Instance) recordSuccess() {
	in.mu.Lock()
	in.consecutiveErrors = 0
	in.lastError = ""
	in.mu.Unlock()
}

func (in *Instance) errorCount() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.consecutiveErrors
}
