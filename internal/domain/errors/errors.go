package errors

import (
	"errors"
	"fmt"
)

var (
	// Intent / signing errors
	ErrInvalidIntent  = errors.New("invalid payment intent")
	ErrSigningFailure = errors.New("signing failure")

	// Queue errors
	ErrDuplicateID    = errors.New("record id already exists")
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateNonce = errors.New("nonce already used for sender")

	// Record state errors
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrMissingSignature       = errors.New("record has no signature")
	ErrMaxRetriesExceeded     = errors.New("max retries exceeded")
	ErrInvalidSignature       = errors.New("record signature verification failed")

	// Ledger errors
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidDestination  = errors.New("invalid destination account")
	ErrLedgerTimeout       = errors.New("ledger request timeout")
	ErrLedgerUnavailable   = errors.New("ledger service unavailable")
	ErrConfirmationTimeout = errors.New("transaction confirmation timeout")

	// Sync errors
	ErrLockAcquisitionFailed = errors.New("failed to acquire lock")
	ErrSyncInProgress        = errors.New("sync already in progress")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
