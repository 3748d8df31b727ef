package ledger_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paypulse/walletsync/internal/domain/errors"
	"github.com/paypulse/walletsync/internal/domain/payment"
	"github.com/paypulse/walletsync/internal/ledger"
	"github.com/paypulse/walletsync/internal/testutil"
)

// stubClient gives tests full control over every client call.
type stubClient struct {
	mu       sync.Mutex
	submits  int
	confirms int

	submitFn  func(rec *payment.Record) (string, error)
	confirmFn func(ref string) (bool, error)
}

func (c *stubClient) SubmitTransaction(ctx context.Context, rec *payment.Record) (string, error) {
	c.mu.Lock()
	c.submits++
	c.mu.Unlock()
	return c.submitFn(rec)
}

func (c *stubClient) ConfirmTransaction(ctx context.Context, ref string) (bool, error) {
	c.mu.Lock()
	c.confirms++
	c.mu.Unlock()
	if c.confirmFn != nil {
		return c.confirmFn(ref)
	}
	return true, nil
}

func (c *stubClient) ProbeConnectivity(ctx context.Context) error { return nil }

func (c *stubClient) GetBalance(ctx context.Context, account string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func fastConfig() ledger.SubmitterConfig {
	return ledger.SubmitterConfig{
		ConfirmAttempts: 3,
		ConfirmDelay:    time.Millisecond,
	}
}

func TestSubmit_SuccessReturnsRef(t *testing.T) {
	client := &stubClient{
		submitFn: func(rec *payment.Record) (string, error) { return "tx-1", nil },
	}
	s := ledger.NewSubmitter(client, fastConfig(), zerolog.Nop())

	rec := testutil.NewTestRecord("GSENDER", "GRECIPIENT", "10")
	ref, err := s.Submit(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "tx-1", ref)
}

func TestSubmit_RejectsUnsignedRecord(t *testing.T) {
	client := &stubClient{
		submitFn: func(rec *payment.Record) (string, error) { return "tx-1", nil },
	}
	s := ledger.NewSubmitter(client, fastConfig(), zerolog.Nop())

	rec := testutil.NewTestRecord("GSENDER", "GRECIPIENT", "10")
	rec.Signature = nil
	_, err := s.Submit(context.Background(), rec)
	assert.Equal(t, ledger.Permanent, ledger.ClassOf(err))
	assert.ErrorIs(t, err, errors.ErrMissingSignature)
	assert.Equal(t, 0, client.submits)
}

func TestSubmit_AlreadyAppliedIsSuccess(t *testing.T) {
	client := &stubClient{
		submitFn: func(rec *payment.Record) (string, error) {
			se := ledger.NewSubmitError(ledger.AlreadyApplied, "nonce already applied", nil)
			se.Ref = "tx-original"
			return "", se
		},
	}
	s := ledger.NewSubmitter(client, fastConfig(), zerolog.Nop())

	rec := testutil.NewTestRecord("GSENDER", "GRECIPIENT", "10")
	ref, err := s.Submit(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "tx-original", ref)
}

func TestSubmit_PermanentErrorPropagates(t *testing.T) {
	client := &stubClient{
		submitFn: func(rec *payment.Record) (string, error) {
			return "", ledger.NewSubmitError(ledger.Permanent, "insufficient balance", errors.ErrInsufficientBalance)
		},
	}
	s := ledger.NewSubmitter(client, fastConfig(), zerolog.Nop())

	rec := testutil.NewTestRecord("GSENDER", "GRECIPIENT", "10")
	_, err := s.Submit(context.Background(), rec)
	assert.Equal(t, ledger.Permanent, ledger.ClassOf(err))
}

func TestSubmit_ConfirmationEventuallySeen(t *testing.T) {
	client := &stubClient{
		submitFn: func(rec *payment.Record) (string, error) { return "tx-slow", nil },
	}
	client.confirmFn = func(ref string) (bool, error) {
		client.mu.Lock()
		defer client.mu.Unlock()
		return client.confirms >= 2, nil
	}
	s := ledger.NewSubmitter(client, fastConfig(), zerolog.Nop())

	rec := testutil.NewTestRecord("GSENDER", "GRECIPIENT", "10")
	ref, err := s.Submit(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "tx-slow", ref)
	assert.GreaterOrEqual(t, client.confirms, 2)
}

func TestSubmit_ConfirmationNeverSeenIsRetryable(t *testing.T) {
	client := &stubClient{
		submitFn:  func(rec *payment.Record) (string, error) { return "tx-lost", nil },
		confirmFn: func(ref string) (bool, error) { return false, nil },
	}
	s := ledger.NewSubmitter(client, fastConfig(), zerolog.Nop())

	rec := testutil.NewTestRecord("GSENDER", "GRECIPIENT", "10")
	_, err := s.Submit(context.Background(), rec)
	assert.Equal(t, ledger.Retryable, ledger.ClassOf(err))
	assert.Equal(t, 3, client.confirms)
}

func TestSubmit_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	client := &stubClient{
		submitFn: func(rec *payment.Record) (string, error) {
			return "", ledger.NewSubmitError(ledger.Retryable, "unavailable", errors.ErrLedgerUnavailable)
		},
	}
	cfg := fastConfig()
	cfg.BreakerThreshold = 2
	cfg.BreakerTimeout = time.Minute
	s := ledger.NewSubmitter(client, cfg, zerolog.Nop())

	for i := 0; i < 2; i++ {
		rec := testutil.NewTestRecord("GSENDER", "GRECIPIENT", "10")
		_, err := s.Submit(context.Background(), rec)
		require.Error(t, err)
	}

	// Circuit is now open: the client is no longer reached.
	before := client.submits
	rec := testutil.NewTestRecord("GSENDER", "GRECIPIENT", "10")
	_, err := s.Submit(context.Background(), rec)
	assert.Equal(t, ledger.Retryable, ledger.ClassOf(err))
	assert.Equal(t, before, client.submits)
}

func TestSubmit_BreakerIgnoresPermanentRejections(t *testing.T) {
	client := &stubClient{
		submitFn: func(rec *payment.Record) (string, error) {
			return "", ledger.NewSubmitError(ledger.Permanent, "no destination", errors.ErrInvalidDestination)
		},
	}
	cfg := fastConfig()
	cfg.BreakerThreshold = 2
	cfg.BreakerTimeout = time.Minute
	s := ledger.NewSubmitter(client, cfg, zerolog.Nop())

	for i := 0; i < 5; i++ {
		rec := testutil.NewTestRecord("GSENDER", "GRECIPIENT", "10")
		_, err := s.Submit(context.Background(), rec)
		require.Error(t, err)
	}
	// Permanent answers never tripped the breaker.
	assert.Equal(t, 5, client.submits)
}

func TestSubmit_UnclassifiedClientErrorBecomesRetryable(t *testing.T) {
	client := &stubClient{
		submitFn: func(rec *payment.Record) (string, error) {
			return "", stderrors.New("connection reset by peer")
		},
	}
	s := ledger.NewSubmitter(client, fastConfig(), zerolog.Nop())

	rec := testutil.NewTestRecord("GSENDER", "GRECIPIENT", "10")
	_, err := s.Submit(context.Background(), rec)
	assert.Equal(t, ledger.Retryable, ledger.ClassOf(err))
}
