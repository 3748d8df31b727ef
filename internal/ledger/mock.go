package ledger

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paypulse/walletsync/internal/domain/errors"
	"github.com/paypulse/walletsync/internal/domain/payment"
)

// MockClient simulates a ledger service. It remembers every nonce it has
// applied, so a re-submitted record is answered with AlreadyApplied instead
// of a second independent success.
type MockClient struct {
	mu          sync.Mutex
	applied     map[string]string // sender|nonce -> ref
	online      bool
	failureRate float64
	timeoutRate float64
	latency     time.Duration
	balances    map[string]decimal.Decimal
}

type MockClientOption func(*MockClient)

func WithFailureRate(rate float64) MockClientOption {
	return func(c *MockClient) { c.failureRate = rate }
}

func WithTimeoutRate(rate float64) MockClientOption {
	return func(c *MockClient) { c.timeoutRate = rate }
}

func WithLatency(d time.Duration) MockClientOption {
	return func(c *MockClient) { c.latency = d }
}

func WithOnline(online bool) MockClientOption {
	return func(c *MockClient) { c.online = online }
}

func WithBalance(account string, balance decimal.Decimal) MockClientOption {
	return func(c *MockClient) { c.balances[account] = balance }
}

func NewMockClient(opts ...MockClientOption) *MockClient {
	c := &MockClient{
		applied:  make(map[string]string),
		online:   true,
		balances: make(map[string]decimal.Decimal),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetOnline flips the simulated connectivity state.
func (c *MockClient) SetOnline(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.online = online
}

func (c *MockClient) SubmitTransaction(ctx context.Context, rec *payment.Record) (string, error) {
	select {
	case <-time.After(c.latency):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.online {
		return "", NewSubmitError(Retryable, "network unreachable", errors.ErrLedgerUnavailable)
	}

	nonceKey := rec.Sender + "|" + rec.Nonce
	if ref, ok := c.applied[nonceKey]; ok {
		se := NewSubmitError(AlreadyApplied, "nonce already applied", nil)
		se.Ref = ref
		return "", se
	}

	if rand.Float64() < c.timeoutRate {
		return "", NewSubmitError(Retryable, "simulated timeout", errors.ErrLedgerTimeout)
	}
	if rand.Float64() < c.failureRate {
		return "", NewSubmitError(Retryable, "simulated congestion", errors.ErrLedgerUnavailable)
	}

	if bal, ok := c.balances[rec.Sender]; ok && bal.LessThan(rec.Amount) {
		return "", NewSubmitError(Permanent, "insufficient balance", errors.ErrInsufficientBalance)
	}

	ref := fmt.Sprintf("tx_%s", uuid.New().String()[:8])
	c.applied[nonceKey] = ref
	return ref, nil
}

func (c *MockClient) ConfirmTransaction(ctx context.Context, ref string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, applied := range c.applied {
		if applied == ref {
			return true, nil
		}
	}
	return false, nil
}

func (c *MockClient) ProbeConnectivity(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.online {
		return errors.ErrLedgerUnavailable
	}
	return nil
}

func (c *MockClient) GetBalance(ctx context.Context, account string) (decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.online {
		return decimal.Zero, errors.ErrLedgerUnavailable
	}
	if bal, ok := c.balances[account]; ok {
		return bal, nil
	}
	return decimal.Zero, nil
}
