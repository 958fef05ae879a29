// Package notify fans trading lifecycle events out to sinks: the structured
// log, and a websocket hub feeding dashboard clients.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// EventKind classifies a lifecycle event.
type EventKind string

const (
	KindSignal          EventKind = "signal"
	KindTradeOpened     EventKind = "trade_opened"
	KindTradeClosed     EventKind = "trade_closed"
	KindAccountStarted  EventKind = "account_started"
	KindAccountStopped  EventKind = "account_stopped"
	KindAccountDisabled EventKind = "account_disabled"
	KindPairsRefreshed  EventKind = "pairs_refreshed"
	KindError           EventKind = "error"
)

// Event is one notification payload.
type Event struct {
	AccountID string         `json:"account_id"`
	Kind      EventKind      `json:"kind"`
	Symbol    string         `json:"symbol,omitempty"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Notifier receives lifecycle events. Implementations must not block the
// trading loops.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Fanout delivers each event to every registered sink.
type Fanout struct {
	sinks []Notifier
}

// NewFanout creates a fan-out over the given sinks.
func NewFanout(sinks ...Notifier) *Fanout {
	return &Fanout{sinks: sinks}
}

// Add registers another sink.
func (f *Fanout) Add(n Notifier) {
	f.sinks = append(f.sinks, n)
}

func (f *Fanout) Notify(ctx context.Context, ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	for _, s := range f.sinks {
		s.Notify(ctx, ev)
	}
}

// LogSink writes events to the structured log.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink creates a log-backed sink.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "notify").Logger()}
}

func (s *LogSink) Notify(_ context.Context, ev Event) {
	logger := s.log.Info()
	if ev.Kind == KindError || ev.Kind == KindAccountDisabled {
		logger = s.log.Warn()
	}
	logger.
		Str("account_id", ev.AccountID).
		Str("kind", string(ev.Kind)).
		Str("symbol", ev.Symbol).
		Fields(ev.Data).
		Msg(ev.Message)
}
