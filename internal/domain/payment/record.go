package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paypulse/walletsync/internal/domain/errors"
)

// Status represents the record status in the state machine
type Status string

const (
	StatusPending    Status = "pending"
	StatusSubmitting Status = "submitting"
	StatusConfirmed  Status = "confirmed"
	StatusFailed     Status = "failed"
	StatusAbandoned  Status = "abandoned"
)

// Record is a signed payment held in the durable queue until the ledger
// accepts or permanently rejects it.
type Record struct {
	ID            uuid.UUID
	Sender        string
	Recipient     string
	Amount        decimal.Decimal
	Asset         string
	Nonce         string
	Signature     []byte
	Status        Status
	AttemptCount  int
	MaxAttempts   int
	LastError     *string
	LedgerRef     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastAttemptAt *time.Time
}

// CanTransitionTo checks if the record can transition to the given status
func (r *Record) CanTransitionTo(newStatus Status) bool {
	transitions := map[Status][]Status{
		StatusPending: {
			StatusSubmitting,
		},
		StatusSubmitting: {
			StatusConfirmed,
			StatusFailed,
			StatusAbandoned,
		},
		StatusFailed: {
			StatusSubmitting, // Retry
			StatusAbandoned,
		},
		StatusConfirmed: {}, // Terminal state
		StatusAbandoned: {}, // Terminal state
	}

	allowed, exists := transitions[r.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo transitions the record to a new status
func (r *Record) TransitionTo(newStatus Status) error {
	if !r.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(r.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}

	r.Status = newStatus
	r.UpdatedAt = time.Now()
	return nil
}

// MarkSubmitting transitions the record to submitting status. A record with
// no signature is never eligible for submission.
func (r *Record) MarkSubmitting() error {
	if len(r.Signature) == 0 {
		return errors.ErrMissingSignature
	}
	if err := r.TransitionTo(StatusSubmitting); err != nil {
		return err
	}
	r.AttemptCount++
	now := time.Now()
	r.LastAttemptAt = &now
	return nil
}

// MarkConfirmed transitions the record to confirmed status with the
// ledger-assigned reference.
func (r *Record) MarkConfirmed(ledgerRef string) error {
	if err := r.TransitionTo(StatusConfirmed); err != nil {
		return err
	}
	r.LedgerRef = &ledgerRef
	return nil
}

// MarkFailed transitions the record back to failed status after a
// retryable submission error.
func (r *Record) MarkFailed(errorMsg string) error {
	if err := r.TransitionTo(StatusFailed); err != nil {
		return err
	}
	r.LastError = &errorMsg
	return nil
}

// MarkAbandoned transitions the record to abandoned status. No further
// retries will occur.
func (r *Record) MarkAbandoned(reason string) error {
	if err := r.TransitionTo(StatusAbandoned); err != nil {
		return err
	}
	r.LastError = &reason
	return nil
}

// IsTerminal checks if the record is in a terminal state
func (r *Record) IsTerminal() bool {
	return r.Status == StatusConfirmed || r.Status == StatusAbandoned
}

// TimestampLayout is the fixed-precision form timestamps take in signed
// payloads and wire envelopes. The durable store keeps microseconds;
// anything finer would change the bytes after a round trip.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// SigningPayload returns the canonical byte representation covered by the
// record signature. Retries reuse the same nonce, so the payload is stable
// across attempts and across storage round trips.
func (r *Record) SigningPayload() []byte {
	payload := r.Sender + "|" + r.Recipient + "|" + r.Amount.String() + "|" +
		r.Asset + "|" + r.Nonce + "|" +
		r.CreatedAt.UTC().Truncate(time.Microsecond).Format(TimestampLayout)
	return []byte(payload)
}
