package payment

import (
	"context"

	"github.com/google/uuid"
)

// Queue is the durable store of non-terminal payment records. All mutations
// are durable before the call returns; a restart rediscovers exactly the
// pending set that existed before it.
type Queue interface {
	// Append persists a new pending record. Returns ErrDuplicateID if the
	// id already exists.
	Append(ctx context.Context, rec *Record) error

	// GetByID retrieves a record by id. Returns ErrRecordNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)

	// ListPending returns all non-terminal records in ascending CreatedAt
	// order. Each call produces a fresh consistent snapshot.
	ListPending(ctx context.Context) ([]*Record, error)

	// Update persists the record's mutable fields. Returns ErrRecordNotFound
	// if the id is absent.
	Update(ctx context.Context, rec *Record) error

	// ClaimForSubmission atomically transitions a pending or failed record
	// to submitting and increments its attempt counter. Returns the claimed
	// record, or ErrRecordNotFound when the record is absent or already
	// claimed by another submission.
	ClaimForSubmission(ctx context.Context, id uuid.UUID) (*Record, error)

	// Remove deletes a record. Removing an absent id is a no-op.
	Remove(ctx context.Context, id uuid.UUID) error

	// PendingCount returns the number of non-terminal records.
	PendingCount(ctx context.Context) (int, error)
}
