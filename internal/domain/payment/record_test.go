package payment_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paypulse/walletsync/internal/domain/errors"
	"github.com/paypulse/walletsync/internal/domain/payment"
)

func newPendingRecord(t *testing.T) *payment.Record {
	t.Helper()
	now := time.Now()
	return &payment.Record{
		ID:          uuid.New(),
		Sender:      "GSENDER",
		Recipient:   "GRECIPIENT",
		Amount:      decimal.RequireFromString("10.5"),
		Asset:       "XLM",
		Nonce:       uuid.New().String(),
		Signature:   []byte("sig"),
		Status:      payment.StatusPending,
		MaxAttempts: 3,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestRecord_MarkSubmitting(t *testing.T) {
	rec := newPendingRecord(t)
	require.NoError(t, rec.MarkSubmitting())
	assert.Equal(t, payment.StatusSubmitting, rec.Status)
	assert.Equal(t, 1, rec.AttemptCount)
	require.NotNil(t, rec.LastAttemptAt)
}

func TestRecord_MarkSubmitting_MissingSignature(t *testing.T) {
	rec := newPendingRecord(t)
	rec.Signature = nil
	err := rec.MarkSubmitting()
	assert.ErrorIs(t, err, errors.ErrMissingSignature)
	assert.Equal(t, payment.StatusPending, rec.Status)
	assert.Equal(t, 0, rec.AttemptCount)
}

func TestRecord_ConfirmedIsTerminal(t *testing.T) {
	rec := newPendingRecord(t)
	require.NoError(t, rec.MarkSubmitting())
	require.NoError(t, rec.MarkConfirmed("tx-abc"))

	assert.True(t, rec.IsTerminal())
	require.NotNil(t, rec.LedgerRef)
	assert.Equal(t, "tx-abc", *rec.LedgerRef)

	err := rec.MarkFailed("nope")
	assert.ErrorIs(t, err, errors.ErrInvalidStateTransition)
	err = rec.MarkSubmitting()
	assert.ErrorIs(t, err, errors.ErrInvalidStateTransition)
}

func TestRecord_FailedCanRetry(t *testing.T) {
	rec := newPendingRecord(t)
	require.NoError(t, rec.MarkSubmitting())
	require.NoError(t, rec.MarkFailed("ledger timeout"))
	assert.Equal(t, payment.StatusFailed, rec.Status)
	require.NotNil(t, rec.LastError)
	assert.Equal(t, "ledger timeout", *rec.LastError)

	// Retry by re-submitting.
	require.NoError(t, rec.MarkSubmitting())
	assert.Equal(t, 2, rec.AttemptCount)
}

func TestRecord_AbandonedIsTerminal(t *testing.T) {
	rec := newPendingRecord(t)
	require.NoError(t, rec.MarkSubmitting())
	require.NoError(t, rec.MarkFailed("err"))
	require.NoError(t, rec.MarkAbandoned("retries exhausted"))

	assert.True(t, rec.IsTerminal())
	assert.ErrorIs(t, rec.MarkSubmitting(), errors.ErrInvalidStateTransition)
}

func TestRecord_PendingCannotConfirmDirectly(t *testing.T) {
	rec := newPendingRecord(t)
	assert.ErrorIs(t, rec.MarkConfirmed("tx"), errors.ErrInvalidStateTransition)
	assert.ErrorIs(t, rec.MarkFailed("err"), errors.ErrInvalidStateTransition)
}

func TestRecord_SigningPayloadStableAcrossAttempts(t *testing.T) {
	rec := newPendingRecord(t)
	before := rec.SigningPayload()
	require.NoError(t, rec.MarkSubmitting())
	require.NoError(t, rec.MarkFailed("err"))
	require.NoError(t, rec.MarkSubmitting())
	assert.Equal(t, before, rec.SigningPayload())
}

func TestRecord_SigningPayloadIgnoresSubMicrosecondTime(t *testing.T) {
	rec := newPendingRecord(t)
	rec.CreatedAt = time.Date(2026, 8, 31, 12, 0, 0, 123456789, time.UTC)
	before := rec.SigningPayload()

	rec.CreatedAt = rec.CreatedAt.Truncate(time.Microsecond).In(time.FixedZone("east", 7200))
	assert.Equal(t, before, rec.SigningPayload())
	assert.Contains(t, string(before), "12:00:00.123456Z")
}
