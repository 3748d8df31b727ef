package payment

import (
	"time"
)

// RetryPolicy decides when a failed record becomes eligible for another
// submission attempt and when it should be given up on. It is a pure
// function of record fields, which is what makes retries crash-safe: after
// a restart, AttemptCount and LastAttemptAt read back from durable storage
// reproduce the same schedule.
type RetryPolicy struct {
	BaseDelay   time.Duration
	MaxAttempts int
}

// DefaultRetryPolicy mirrors the delay and ceiling used by the mobile app.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay:   5 * time.Second,
		MaxAttempts: 3,
	}
}

// NextEligibleAt returns the earliest time the record may be submitted
// again. The delay grows linearly with the attempt count, so it is
// monotonically non-decreasing across attempts.
func (p RetryPolicy) NextEligibleAt(rec *Record) time.Time {
	if rec.LastAttemptAt == nil {
		return rec.CreatedAt
	}
	return rec.LastAttemptAt.Add(p.BaseDelay * time.Duration(rec.AttemptCount))
}

// Eligible reports whether the record may be attempted at the given time.
// Records still inside their backoff window are skipped, left untouched.
func (p RetryPolicy) Eligible(rec *Record, now time.Time) bool {
	switch rec.Status {
	case StatusPending:
		return true
	case StatusFailed:
		return !p.ShouldAbandon(rec) && !now.Before(p.NextEligibleAt(rec))
	default:
		return false
	}
}

// ShouldAbandon returns true once the attempt ceiling is reached. It stays
// true for any later attempt count.
func (p RetryPolicy) ShouldAbandon(rec *Record) bool {
	return rec.AttemptCount >= p.MaxAttempts
}
