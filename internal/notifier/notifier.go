// Package notifier defines the fire-and-forget event surface other layers
// (push notifications, history UI) consume. The queue/sync core never
// depends on delivery succeeding.
package notifier

import (
	"context"

	"github.com/rs/zerolog"
)

// Kind identifies a notification event. Failure and confirmation are
// distinct kinds; one is never reused to signal the other.
type Kind string

const (
	KindPaymentSent      Kind = "payment_sent"
	KindPaymentFailed    Kind = "payment_failed"
	KindPaymentAbandoned Kind = "payment_abandoned"
	KindSyncComplete     Kind = "sync_complete"
)

// Event is the payload delivered to collaborators.
type Event struct {
	Kind      Kind           `json:"kind"`
	RecordID  string         `json:"record_id,omitempty"`
	LedgerRef string         `json:"ledger_ref,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Count     int            `json:"count,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Notifier delivers events. Implementations must not block the caller on
// delivery problems; no return value is consumed by the core.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// LogNotifier writes events to the log. Used when no event transport is
// configured, and in tests.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) Notify(ctx context.Context, ev Event) {
	n.logger.Info().
		Str("kind", string(ev.Kind)).
		Str("record_id", ev.RecordID).
		Str("ledger_ref", ev.LedgerRef).
		Str("reason", ev.Reason).
		Int("count", ev.Count).
		Msg("Notification")
}
