package sync

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/paypulse/walletsync/internal/infrastructure/observability"
	"github.com/paypulse/walletsync/internal/ledger"
)

// BalancePoller periodically reads the wallet's ledger balance and exposes
// it as a gauge. An explicit periodic task with cancellation, not an
// open-ended callback registration.
type BalancePoller struct {
	client   ledger.Client
	account  string
	interval time.Duration
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

func NewBalancePoller(client ledger.Client, account string, interval time.Duration, metrics *observability.Metrics, logger zerolog.Logger) *BalancePoller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &BalancePoller{
		client:   client,
		account:  account,
		interval: interval,
		metrics:  metrics,
		logger:   logger.With().Str("component", "balance_poller").Logger(),
	}
}

// Run polls until the context is cancelled. Read failures are logged at
// debug level only; offline periods would otherwise flood the log.
func (p *BalancePoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *BalancePoller) poll(ctx context.Context) {
	balance, err := p.client.GetBalance(ctx, p.account)
	if err != nil {
		p.logger.Debug().Err(err).Msg("Balance read failed")
		return
	}
	f, _ := balance.Float64()
	p.metrics.WalletBalance.WithLabelValues(p.account).Set(f)
}
