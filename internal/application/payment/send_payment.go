package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/paypulse/walletsync/internal/domain/payment"
	"github.com/paypulse/walletsync/internal/infrastructure/observability"
	"github.com/paypulse/walletsync/internal/ledger"
	"github.com/paypulse/walletsync/internal/notifier"
	"github.com/paypulse/walletsync/internal/signer"
)

// SendResult reports how a payment request was routed.
type SendResult struct {
	// Immediate is true when the payment was submitted and confirmed on the
	// spot. False means the record sits in the durable queue.
	Immediate bool
	RecordID  uuid.UUID
	LedgerRef string
}

// SendPaymentUseCase routes a payment request: sign, then either submit
// immediately (online) or append to the durable queue (offline, or the
// immediate attempt failed retryably).
type SendPaymentUseCase struct {
	queue     payment.Queue
	signer    *signer.Signer
	cred      Credential
	sender    string
	oracle    ConnectivityOracle
	submitter Submitter
	notifier  notifier.Notifier
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// NewSendPaymentUseCase creates a new SendPaymentUseCase. The sender address
// identifies the local wallet; cred is its signing capability.
func NewSendPaymentUseCase(
	queue payment.Queue,
	sgn *signer.Signer,
	cred Credential,
	sender string,
	oracle ConnectivityOracle,
	submitter Submitter,
	ntf notifier.Notifier,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *SendPaymentUseCase {
	return &SendPaymentUseCase{
		queue:     queue,
		signer:    sgn,
		cred:      cred,
		sender:    sender,
		oracle:    oracle,
		submitter: submitter,
		notifier:  ntf,
		metrics:   metrics,
		logger:    logger.With().Str("component", "send_payment").Logger(),
	}
}

// Execute signs and routes the payment. Validation and signing errors
// propagate to the caller and are never persisted. A Permanent submission
// error on the immediate path also propagates without persisting; a
// Retryable one enqueues the record for background retry.
func (uc *SendPaymentUseCase) Execute(ctx context.Context, recipient string, amount decimal.Decimal, asset string) (*SendResult, error) {
	intent := payment.Intent{
		Sender:    uc.sender,
		Recipient: recipient,
		Amount:    amount,
		Asset:     asset,
	}

	rec, err := uc.signer.Sign(intent, uc.cred)
	if err != nil {
		return nil, err
	}

	if !uc.oracle.Online(ctx) {
		return uc.enqueue(ctx, rec, "offline")
	}
	return uc.sendNow(ctx, rec)
}

func (uc *SendPaymentUseCase) sendNow(ctx context.Context, rec *payment.Record) (*SendResult, error) {
	if err := rec.MarkSubmitting(); err != nil {
		return nil, err
	}

	ref, err := uc.submitter.Submit(ctx, rec)
	if err == nil {
		uc.notifier.Notify(ctx, notifier.Event{
			Kind:      notifier.KindPaymentSent,
			RecordID:  rec.ID.String(),
			LedgerRef: ref,
		})
		return &SendResult{Immediate: true, RecordID: rec.ID, LedgerRef: ref}, nil
	}

	if ledger.ClassOf(err) == ledger.Permanent {
		uc.logger.Warn().Err(err).Str("record_id", rec.ID.String()).Msg("Immediate send permanently rejected")
		return nil, err
	}

	// The attempt already counted; the record enters the queue as failed so
	// the orchestrator retries it on the backoff schedule.
	if ferr := rec.MarkFailed(err.Error()); ferr != nil {
		return nil, ferr
	}
	uc.logger.Info().Err(err).Str("record_id", rec.ID.String()).Msg("Immediate send failed, queueing for retry")
	return uc.enqueue(ctx, rec, "failed_send")
}

func (uc *SendPaymentUseCase) enqueue(ctx context.Context, rec *payment.Record, path string) (*SendResult, error) {
	if err := uc.queue.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append record: %w", err)
	}
	uc.metrics.RecordsEnqueued.WithLabelValues(path).Inc()
	uc.logger.Info().
		Str("record_id", rec.ID.String()).
		Str("path", path).
		Str("status", string(rec.Status)).
		Msg("Payment queued")
	return &SendResult{Immediate: false, RecordID: rec.ID}, nil
}
