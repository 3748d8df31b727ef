package ledger

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/paypulse/walletsync/internal/domain/errors"
	"github.com/paypulse/walletsync/internal/domain/payment"
	"github.com/paypulse/walletsync/pkg/retry"
)

// SubmitterConfig bounds a single submit+confirm cycle.
type SubmitterConfig struct {
	// ConfirmAttempts is the number of confirmation polls before giving up.
	ConfirmAttempts uint
	// ConfirmDelay is the fixed wait between confirmation polls.
	ConfirmDelay time.Duration
	// RatePerSecond limits submissions towards the ledger service. Zero
	// disables limiting.
	RatePerSecond float64
	// BreakerThreshold is the consecutive-failure count that opens the
	// circuit. Zero uses the gobreaker default.
	BreakerThreshold uint32
	// BreakerTimeout is how long the circuit stays open.
	BreakerTimeout time.Duration
	// OnBreakerStateChange, when set, observes breaker transitions.
	OnBreakerStateChange func(name string, state gobreaker.State)
}

func DefaultSubmitterConfig() SubmitterConfig {
	return SubmitterConfig{
		ConfirmAttempts:  30,
		ConfirmDelay:     2 * time.Second,
		RatePerSecond:    5,
		BreakerThreshold: 10,
		BreakerTimeout:   30 * time.Second,
	}
}

// Submitter wraps the ledger client's submit and confirm cycle into a single
// bounded call and maps client errors into the retry taxonomy.
type Submitter struct {
	client  Client
	cfg     SubmitterConfig
	breaker *gobreaker.CircuitBreaker[string]
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewSubmitter creates a submitter over the given client.
func NewSubmitter(client Client, cfg SubmitterConfig, logger zerolog.Logger) *Submitter {
	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 10
	}
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "ledger-submit",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// Permanent rejections are the ledger answering, not failing.
			return err == nil || ClassOf(err) == Permanent || ClassOf(err) == AlreadyApplied
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if cfg.OnBreakerStateChange != nil {
				cfg.OnBreakerStateChange(name, to)
			}
		},
	})

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	return &Submitter{
		client:  client,
		cfg:     cfg,
		breaker: breaker,
		limiter: limiter,
		logger:  logger.With().Str("component", "submitter").Logger(),
	}
}

// Submit submits a signed record and waits for confirmation. On success the
// ledger reference is returned. On failure the error carries a Class; an
// AlreadyApplied outcome is returned as (ref, nil) since it is an idempotent
// success.
func (s *Submitter) Submit(ctx context.Context, rec *payment.Record) (string, error) {
	if len(rec.Signature) == 0 {
		return "", NewSubmitError(Permanent, "record has no signature", errors.ErrMissingSignature)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", NewSubmitError(Retryable, "rate limiter interrupted", err)
		}
	}

	ref, err := s.breaker.Execute(func() (string, error) {
		return s.client.SubmitTransaction(ctx, rec)
	})
	if err != nil {
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", NewSubmitError(Retryable, "circuit breaker open", err)
		}
		var se *SubmitError
		if stderrors.As(err, &se) && se.Class == AlreadyApplied {
			s.logger.Info().Str("record_id", rec.ID.String()).Str("ledger_ref", se.Ref).
				Msg("Nonce already applied, treating as success")
			return se.Ref, nil
		}
		return "", s.classify(err)
	}

	if err := s.awaitConfirmation(ctx, ref); err != nil {
		return "", err
	}
	return ref, nil
}

// awaitConfirmation polls the ledger a bounded number of times with a fixed
// delay. An unconfirmed submission whose outcome is unknown stays Retryable;
// the nonce check on the next attempt makes the retry safe.
func (s *Submitter) awaitConfirmation(ctx context.Context, ref string) error {
	err := retry.DoFixed(ctx, s.cfg.ConfirmAttempts, s.cfg.ConfirmDelay, func() error {
		ok, err := s.client.ConfirmTransaction(ctx, ref)
		if err != nil {
			return err
		}
		if !ok {
			return errors.ErrConfirmationTimeout
		}
		return nil
	})
	if err != nil {
		if cls := ClassOf(err); cls == Permanent {
			return NewSubmitError(Permanent, "transaction rejected by ledger", err)
		}
		return NewSubmitError(Retryable, "confirmation not observed in time", err)
	}
	return nil
}

func (s *Submitter) classify(err error) error {
	var se *SubmitError
	if stderrors.As(err, &se) {
		return se
	}
	return NewSubmitError(ClassOf(err), "ledger client error", err)
}
