package ledger

import (
	stderrors "errors"
	"fmt"

	"github.com/paypulse/walletsync/internal/domain/errors"
)

// Class is the three-way submission error taxonomy. Blindly retrying every
// error risks double-spends masked as new attempts; never retrying defeats
// offline queuing. The class tells the orchestrator which way to go.
type Class int

const (
	// Retryable covers network, timeout and congestion errors. The record
	// stays queued and is rescheduled with backoff.
	Retryable Class = iota
	// Permanent covers errors no retry can fix: insufficient balance,
	// invalid destination, malformed record. The record is abandoned.
	Permanent
	// AlreadyApplied means the ledger reports this nonce/signature already
	// succeeded. Treated as success with the reported reference.
	AlreadyApplied
)

func (c Class) String() string {
	switch c {
	case Retryable:
		return "retryable"
	case Permanent:
		return "permanent"
	case AlreadyApplied:
		return "already_applied"
	default:
		return "unknown"
	}
}

// SubmitError is a classified submission failure.
type SubmitError struct {
	Class  Class
	Reason string
	// Ref is set for AlreadyApplied, carrying the ledger's reported
	// reference for the earlier success.
	Ref string
	Err error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submit failed (%s): %s: %v", e.Class, e.Reason, e.Err)
	}
	return fmt.Sprintf("submit failed (%s): %s", e.Class, e.Reason)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// NewSubmitError creates a classified submission error.
func NewSubmitError(class Class, reason string, err error) *SubmitError {
	return &SubmitError{Class: class, Reason: reason, Err: err}
}

// ClassOf extracts the class from an error returned by a Client or the
// Submitter. Unclassified errors default to Retryable: an ambiguous failure
// may already have been applied, and only a retry against the ledger's
// nonce check can tell.
func ClassOf(err error) Class {
	var se *SubmitError
	if stderrors.As(err, &se) {
		return se.Class
	}
	switch {
	case stderrors.Is(err, errors.ErrInsufficientBalance),
		stderrors.Is(err, errors.ErrInvalidDestination),
		stderrors.Is(err, errors.ErrMissingSignature),
		stderrors.Is(err, errors.ErrInvalidSignature):
		return Permanent
	default:
		return Retryable
	}
}
