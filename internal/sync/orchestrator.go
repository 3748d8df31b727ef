// Package sync drives the background drain of the durable payment queue.
package sync

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	domainErrors "github.com/paypulse/walletsync/internal/domain/errors"
	"github.com/paypulse/walletsync/internal/domain/payment"
	"github.com/paypulse/walletsync/internal/infrastructure/observability"
	"github.com/paypulse/walletsync/internal/ledger"
	"github.com/paypulse/walletsync/internal/notifier"
)

// Submitter performs one bounded submit+confirm cycle.
type Submitter interface {
	Submit(ctx context.Context, rec *payment.Record) (string, error)
}

// Oracle reports the momentary connectivity state.
type Oracle interface {
	Online(ctx context.Context) bool
}

// DrainLock serializes drain passes across daemon instances. Optional.
type DrainLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Verifier checks a queued record's signature before submission. Optional.
type Verifier func(rec *payment.Record) bool

// stuckResetter is implemented by queue stores that can recover records a
// crash left in submitting state.
type stuckResetter interface {
	ResetStuckSubmissions(ctx context.Context) (int, error)
}

type Config struct {
	Interval      time.Duration
	MaxConcurrent int64
}

// Orchestrator owns the drain loop: a periodic timer plus explicit
// triggers, one pass at a time, records processed concurrently within a
// pass under a small worker bound.
type Orchestrator struct {
	queue     payment.Queue
	oracle    Oracle
	submitter Submitter
	policy    payment.RetryPolicy
	notifier  notifier.Notifier
	lock      DrainLock
	verify    Verifier
	metrics   *observability.Metrics
	logger    zerolog.Logger
	cfg       Config

	trigger  chan struct{}
	draining atomic.Bool
}

type Option func(*Orchestrator)

// WithDrainLock guards drain passes with a cross-instance lock.
func WithDrainLock(lock DrainLock) Option {
	return func(o *Orchestrator) { o.lock = lock }
}

// WithVerifier re-verifies record signatures before each submission.
func WithVerifier(v Verifier) Option {
	return func(o *Orchestrator) { o.verify = v }
}

func NewOrchestrator(
	queue payment.Queue,
	oracle Oracle,
	submitter Submitter,
	policy payment.RetryPolicy,
	ntf notifier.Notifier,
	metrics *observability.Metrics,
	logger zerolog.Logger,
	cfg Config,
	opts ...Option,
) *Orchestrator {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	o := &Orchestrator{
		queue:     queue,
		oracle:    oracle,
		submitter: submitter,
		policy:    policy,
		notifier:  ntf,
		metrics:   metrics,
		logger:    logger.With().Str("component", "sync").Logger(),
		cfg:       cfg,
		trigger:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Trigger requests an immediate drain pass (pull-to-refresh, connectivity
// restored, app foregrounded). Coalesces with an already-requested pass.
func (o *Orchestrator) Trigger() {
	select {
	case o.trigger <- struct{}{}:
	default:
	}
}

// Run recovers crash leftovers and then drains on every tick or trigger
// until the context is cancelled. In-flight submissions are allowed to
// finish; only new work is stopped.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.recover(ctx)

	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-o.trigger:
		}

		if err := o.DrainPass(ctx); err != nil && !stderrors.Is(err, domainErrors.ErrSyncInProgress) {
			o.logger.Error().Err(err).Msg("Drain pass error")
		}
		o.observeQueueDepth(ctx)
	}
}

// recover resets records a previous process left in submitting state. The
// interrupted attempt may have succeeded on the ledger; the next submission
// relies on the nonce check answering AlreadyApplied.
func (o *Orchestrator) recover(ctx context.Context) {
	resetter, ok := o.queue.(stuckResetter)
	if !ok {
		return
	}
	n, err := resetter.ResetStuckSubmissions(ctx)
	if err != nil {
		o.logger.Error().Err(err).Msg("Failed to reset stuck submissions")
		return
	}
	if n > 0 {
		o.logger.Warn().Int("count", n).Msg("Reset records stuck in submitting after restart")
	}
}

// DrainPass runs a single pass. Only one pass runs at a time; a concurrent
// call returns ErrSyncInProgress.
func (o *Orchestrator) DrainPass(ctx context.Context) error {
	if !o.draining.CompareAndSwap(false, true) {
		return domainErrors.ErrSyncInProgress
	}
	defer o.draining.Store(false)

	if o.lock != nil {
		acquired, err := o.lock.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", domainErrors.ErrLockAcquisitionFailed, err)
		}
		if !acquired {
			o.metrics.DrainPassesTotal.WithLabelValues("skipped").Inc()
			return nil
		}
		defer o.lock.Release(context.WithoutCancel(ctx))
	}

	if !o.oracle.Online(ctx) {
		o.metrics.ConnectivityUp.Set(0)
		o.metrics.DrainPassesTotal.WithLabelValues("offline").Inc()
		o.logger.Debug().Msg("Offline, skipping drain pass")
		return nil
	}
	o.metrics.ConnectivityUp.Set(1)

	start := time.Now()
	records, err := o.queue.ListPending(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	var synced atomic.Int64

	sem := semaphore.NewWeighted(o.cfg.MaxConcurrent)
	g, gCtx := errgroup.WithContext(ctx)

	for _, rec := range records {
		if gCtx.Err() != nil {
			break
		}
		if !o.policy.Eligible(rec, now) {
			o.abandonIfExhausted(ctx, rec)
			continue
		}
		if err := sem.Acquire(gCtx, 1); err != nil {
			break
		}
		rec := rec
		g.Go(func() error {
			defer sem.Release(1)
			if o.processRecord(gCtx, rec) {
				synced.Add(1)
			}
			return nil
		})
	}

	g.Wait()

	o.metrics.DrainPassesTotal.WithLabelValues("completed").Inc()
	o.metrics.DrainDuration.Observe(time.Since(start).Seconds())

	if n := synced.Load(); n > 0 {
		o.notifier.Notify(ctx, notifier.Event{Kind: notifier.KindSyncComplete, Count: int(n)})
		o.logger.Info().Int64("synced", n).Msg("Sync complete")
	}
	return nil
}

// processRecord claims the record, submits it and applies the outcome.
// Returns true when the record reached the ledger. The submission itself
// runs detached from pass cancellation: aborting an in-flight submission
// whose outcome is unknown is unsafe.
func (o *Orchestrator) processRecord(ctx context.Context, rec *payment.Record) bool {
	claimed, err := o.queue.ClaimForSubmission(ctx, rec.ID)
	if err != nil {
		if stderrors.Is(err, domainErrors.ErrRecordNotFound) {
			// Claimed or removed elsewhere.
			return false
		}
		o.logger.Error().Err(err).Str("record_id", rec.ID.String()).Msg("Failed to claim record")
		return false
	}

	logger := o.logger.With().Str("record_id", claimed.ID.String()).Int("attempt", claimed.AttemptCount).Logger()

	if o.verify != nil && !o.verify(claimed) {
		logger.Error().Msg("Record signature verification failed, abandoning")
		o.abandon(ctx, claimed, domainErrors.ErrInvalidSignature.Error(), "bad_signature")
		return false
	}

	submitCtx := context.WithoutCancel(ctx)
	start := time.Now()
	ref, err := o.submitter.Submit(submitCtx, claimed)
	elapsed := time.Since(start).Seconds()

	if err == nil {
		o.metrics.SubmissionsTotal.WithLabelValues("confirmed").Inc()
		o.metrics.SubmissionDuration.WithLabelValues("confirmed").Observe(elapsed)
		logger.Info().Str("ledger_ref", ref).Msg("Record confirmed")

		if rmErr := o.queue.Remove(submitCtx, claimed.ID); rmErr != nil {
			logger.Error().Err(rmErr).Msg("Failed to remove confirmed record")
		}
		o.notifier.Notify(ctx, notifier.Event{
			Kind:      notifier.KindPaymentSent,
			RecordID:  claimed.ID.String(),
			LedgerRef: ref,
		})
		return true
	}

	switch ledger.ClassOf(err) {
	case ledger.Permanent:
		o.metrics.SubmissionsTotal.WithLabelValues("permanent").Inc()
		o.metrics.SubmissionDuration.WithLabelValues("permanent").Observe(elapsed)
		logger.Warn().Err(err).Msg("Record permanently rejected")
		o.abandon(ctx, claimed, err.Error(), "permanent")
	default:
		o.metrics.SubmissionsTotal.WithLabelValues("retryable").Inc()
		o.metrics.SubmissionDuration.WithLabelValues("retryable").Observe(elapsed)

		if o.policy.ShouldAbandon(claimed) {
			logger.Warn().Err(err).Msg("Attempt ceiling reached, abandoning")
			o.abandon(ctx, claimed, domainErrors.ErrMaxRetriesExceeded.Error()+": "+err.Error(), "exhausted")
			return false
		}

		if ferr := claimed.MarkFailed(err.Error()); ferr != nil {
			logger.Error().Err(ferr).Msg("Failed to mark record failed")
			return false
		}
		if uerr := o.queue.Update(submitCtx, claimed); uerr != nil {
			logger.Error().Err(uerr).Msg("Failed to persist failed record")
			return false
		}
		o.metrics.SubmissionRetries.Inc()
		logger.Info().Err(err).Time("next_eligible", o.policy.NextEligibleAt(claimed)).
			Msg("Submission failed, rescheduled")
		o.notifier.Notify(ctx, notifier.Event{
			Kind:     notifier.KindPaymentFailed,
			RecordID: claimed.ID.String(),
			Reason:   err.Error(),
		})
	}
	return false
}

// abandonIfExhausted handles failed records that sit past the attempt
// ceiling without being eligible for another attempt.
func (o *Orchestrator) abandonIfExhausted(ctx context.Context, rec *payment.Record) {
	if rec.Status != payment.StatusFailed || !o.policy.ShouldAbandon(rec) {
		return
	}
	reason := domainErrors.ErrMaxRetriesExceeded.Error()
	if rec.LastError != nil {
		reason = domainErrors.ErrMaxRetriesExceeded.Error() + ": " + *rec.LastError
	}
	o.logger.Warn().Str("record_id", rec.ID.String()).Msg("Abandoning exhausted record")
	o.abandon(ctx, rec, reason, "exhausted")
}

// abandon moves the record to its terminal failure state, surfaces the
// reason and removes it from the store. Terminal records are not retained
// by this subsystem.
func (o *Orchestrator) abandon(ctx context.Context, rec *payment.Record, reason, cause string) {
	if err := rec.MarkAbandoned(reason); err != nil {
		o.logger.Error().Err(err).Str("record_id", rec.ID.String()).Msg("Failed to mark record abandoned")
	}
	removeCtx := context.WithoutCancel(ctx)
	if err := o.queue.Remove(removeCtx, rec.ID); err != nil {
		o.logger.Error().Err(err).Str("record_id", rec.ID.String()).Msg("Failed to remove abandoned record")
	}
	o.metrics.RecordsAbandoned.WithLabelValues(cause).Inc()
	o.notifier.Notify(ctx, notifier.Event{
		Kind:     notifier.KindPaymentAbandoned,
		RecordID: rec.ID.String(),
		Reason:   reason,
	})
}

func (o *Orchestrator) observeQueueDepth(ctx context.Context) {
	count, err := o.queue.PendingCount(ctx)
	if err != nil {
		return
	}
	o.metrics.QueueDepth.Set(float64(count))
}
