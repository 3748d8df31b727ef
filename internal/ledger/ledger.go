package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/paypulse/walletsync/internal/domain/payment"
)

// Client is the external ledger service. Implementations wrap a concrete
// network API (Horizon in production, a scripted mock in tests).
type Client interface {
	// SubmitTransaction submits a signed record and returns the ledger
	// reference (transaction hash). Errors carry a Class; see SubmitError.
	SubmitTransaction(ctx context.Context, rec *payment.Record) (string, error)
	// ConfirmTransaction reports whether the referenced transaction has been
	// applied. A false return with nil error means "not yet".
	ConfirmTransaction(ctx context.Context, ref string) (bool, error)
	// ProbeConnectivity performs a cheap read against the ledger service.
	ProbeConnectivity(ctx context.Context) error
	// GetBalance returns the account's native balance.
	GetBalance(ctx context.Context, account string) (decimal.Decimal, error)
}
