package testutil

import (
	"crypto/ed25519"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paypulse/walletsync/internal/domain/payment"
)

// NewTestRecord builds a pending record with a fresh nonce and a dummy
// signature. Callers that need verifiable signatures should use SignRecord.
func NewTestRecord(sender, recipient string, amount string) *payment.Record {
	now := time.Now()
	return &payment.Record{
		ID:           uuid.New(),
		Sender:       sender,
		Recipient:    recipient,
		Amount:       decimal.RequireFromString(amount),
		Asset:        "XLM",
		Nonce:        uuid.New().String(),
		Signature:    []byte("test-signature"),
		Status:       payment.StatusPending,
		AttemptCount: 0,
		MaxAttempts:  3,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewFailedRecord builds a record that already burned some attempts.
func NewFailedRecord(sender, recipient string, amount string, attempts int, lastAttemptAt time.Time) *payment.Record {
	rec := NewTestRecord(sender, recipient, amount)
	rec.Status = payment.StatusFailed
	rec.AttemptCount = attempts
	rec.LastAttemptAt = &lastAttemptAt
	msg := "ledger timeout"
	rec.LastError = &msg
	return rec
}

// NewTestKeypair returns a deterministic Ed25519 keypair for tests.
func NewTestKeypair() (ed25519.PublicKey, ed25519.PrivateKey) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return priv.Public().(ed25519.PublicKey), priv
}

// SignRecord replaces the record's signature with a real one over its
// signing payload.
func SignRecord(rec *payment.Record, priv ed25519.PrivateKey) {
	rec.Signature = ed25519.Sign(priv, rec.SigningPayload())
}

func StrPtr(s string) *string {
	return &s
}
