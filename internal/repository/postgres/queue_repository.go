package postgres

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	domainErrors "github.com/paypulse/walletsync/internal/domain/errors"
	"github.com/paypulse/walletsync/internal/domain/payment"
)

const recordColumns = `id, sender, recipient, amount, asset, nonce, signature,
	        status, attempt_count, max_attempts, last_error, ledger_ref,
	        created_at, updated_at, last_attempt_at`

// QueueRepository implements payment.Queue using PostgreSQL. Every mutation
// is a single autocommitted statement, so a restart rediscovers exactly the
// pending set that existed before it.
type QueueRepository struct {
	db DBTX
}

// NewQueueRepository creates a new QueueRepository.
func NewQueueRepository(db DBTX) *QueueRepository {
	return &QueueRepository{db: db}
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Append inserts a new pending record.
func (r *QueueRepository) Append(ctx context.Context, rec *payment.Record) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO payment_queue
		 (id, sender, recipient, amount, asset, nonce, signature,
		  status, attempt_count, max_attempts, last_error, ledger_ref,
		  created_at, updated_at, last_attempt_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		rec.ID, rec.Sender, rec.Recipient, rec.Amount.String(), rec.Asset, rec.Nonce, rec.Signature,
		string(rec.Status), rec.AttemptCount, rec.MaxAttempts, rec.LastError, rec.LedgerRef,
		rec.CreatedAt, rec.UpdatedAt, rec.LastAttemptAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "payment_queue_sender_nonce_key" {
				return domainErrors.ErrDuplicateNonce
			}
			return domainErrors.ErrDuplicateID
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// GetByID retrieves a record by its ID.
func (r *QueueRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Record, error) {
	return r.scanRecord(r.db.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM payment_queue WHERE id = $1`, id))
}

// ListPending returns all non-terminal records, oldest first.
func (r *QueueRepository) ListPending(ctx context.Context) ([]*payment.Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+recordColumns+`
		 FROM payment_queue
		 WHERE status IN ('pending', 'submitting', 'failed')
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending records: %w", err)
	}
	defer rows.Close()

	var records []*payment.Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Update persists the record's mutable fields.
func (r *QueueRepository) Update(ctx context.Context, rec *payment.Record) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE payment_queue SET
		  status=$1, attempt_count=$2, last_error=$3, ledger_ref=$4,
		  updated_at=$5, last_attempt_at=$6
		 WHERE id=$7`,
		string(rec.Status), rec.AttemptCount, rec.LastError, rec.LedgerRef,
		rec.UpdatedAt, rec.LastAttemptAt, rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrRecordNotFound
	}
	return nil
}

// ClaimForSubmission transitions a pending or failed record to submitting
// and increments its attempt counter in a single statement. The WHERE on
// status is the at-most-one-attempt-in-flight guard: a record already
// claimed by a concurrent submission is not matched.
func (r *QueueRepository) ClaimForSubmission(ctx context.Context, id uuid.UUID) (*payment.Record, error) {
	return r.scanRecord(r.db.QueryRow(ctx,
		`UPDATE payment_queue SET
		  status='submitting',
		  attempt_count=attempt_count+1,
		  last_attempt_at=now(),
		  updated_at=now()
		 WHERE id=$1 AND status IN ('pending', 'failed')
		 RETURNING `+recordColumns, id))
}

// Remove deletes a record. Removing an absent id is a no-op.
func (r *QueueRepository) Remove(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM payment_queue WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("remove record: %w", err)
	}
	return nil
}

// PendingCount returns the number of non-terminal records.
func (r *QueueRepository) PendingCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM payment_queue WHERE status IN ('pending', 'submitting', 'failed')`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending records: %w", err)
	}
	return count, nil
}

// ResetStuckSubmissions moves records left in submitting by a crash back to
// failed, keeping their attempt count so the backoff schedule resumes.
func (r *QueueRepository) ResetStuckSubmissions(ctx context.Context) (int, error) {
	reason := "reset after restart: outcome of interrupted submission unknown"
	tag, err := r.db.Exec(ctx,
		`UPDATE payment_queue SET status='failed', last_error=$1, updated_at=now()
		 WHERE status='submitting'`, reason,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck submissions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *QueueRepository) scanRecord(row scanner) (*payment.Record, error) {
	rec := &payment.Record{}
	var amountStr, status string
	err := row.Scan(
		&rec.ID, &rec.Sender, &rec.Recipient, &amountStr, &rec.Asset, &rec.Nonce, &rec.Signature,
		&status, &rec.AttemptCount, &rec.MaxAttempts, &rec.LastError, &rec.LedgerRef,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.LastAttemptAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("scan record: %w", err)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amountStr, err)
	}
	rec.Amount = amount
	rec.Status = payment.Status(status)
	return rec, nil
}
