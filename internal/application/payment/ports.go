package payment

import (
	"context"

	"github.com/paypulse/walletsync/internal/domain/payment"
)

// Submitter performs one bounded submit+confirm cycle against the ledger.
type Submitter interface {
	Submit(ctx context.Context, rec *payment.Record) (string, error)
}

// ConnectivityOracle reports the momentary online/offline state.
type ConnectivityOracle interface {
	Online(ctx context.Context) bool
}

// Credential produces a signature over a payload.
type Credential interface {
	Sign(payload []byte) ([]byte, error)
	PublicKey() []byte
}
