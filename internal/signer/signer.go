package signer

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paypulse/walletsync/internal/domain/errors"
	"github.com/paypulse/walletsync/internal/domain/payment"
)

// Credential produces signatures over arbitrary payloads. Key storage and
// retrieval belong to the wallet layer; the signer only needs the signing
// capability.
type Credential interface {
	Sign(payload []byte) ([]byte, error)
	PublicKey() []byte
}

// Ed25519Credential signs with a raw ed25519 private key.
type Ed25519Credential struct {
	priv ed25519.PrivateKey
}

// NewEd25519Credential wraps the given private key. Returns
// ErrSigningFailure when the key material has the wrong length.
func NewEd25519Credential(priv ed25519.PrivateKey) (*Ed25519Credential, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, errors.NewDomainError("bad_key", "ed25519 private key has wrong size", errors.ErrSigningFailure)
	}
	return &Ed25519Credential{priv: priv}, nil
}

func (c *Ed25519Credential) Sign(payload []byte) ([]byte, error) {
	return ed25519.Sign(c.priv, payload), nil
}

func (c *Ed25519Credential) PublicKey() []byte {
	return c.priv.Public().(ed25519.PublicKey)
}

// Signer turns validated intents into signed, queueable payment records.
// Purely local: no network access, deterministic given the nonce source.
type Signer struct {
	newNonce func() string
	now      func() time.Time
}

type Option func(*Signer)

// WithNonceSource overrides nonce generation, used by tests.
func WithNonceSource(fn func() string) Option {
	return func(s *Signer) { s.newNonce = fn }
}

// WithClock overrides the signing timestamp source, used by tests.
func WithClock(fn func() time.Time) Option {
	return func(s *Signer) { s.now = fn }
}

func New(opts ...Option) *Signer {
	s := &Signer{
		newNonce: func() string { return uuid.New().String() },
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Sign validates the intent, mints a fresh nonce and produces a fully
// populated pending record with an immutable signature. Retries of the
// resulting record reuse its nonce; a new nonce is only ever minted here.
func (s *Signer) Sign(intent payment.Intent, cred Credential) (*payment.Record, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, errors.NewDomainError("no_credential", "no signing credential", errors.ErrSigningFailure)
	}

	// Truncated to what timestamptz retains, so the signed payload and the
	// wire envelope stay identical after a storage round trip.
	now := s.now().UTC().Truncate(time.Microsecond)
	rec := &payment.Record{
		ID:          uuid.New(),
		Sender:      intent.Sender,
		Recipient:   intent.Recipient,
		Amount:      intent.Amount,
		Asset:       intent.Asset,
		Nonce:       s.newNonce(),
		Status:      payment.StatusPending,
		MaxAttempts: payment.DefaultRetryPolicy().MaxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	sig, err := cred.Sign(rec.SigningPayload())
	if err != nil {
		return nil, errors.NewDomainError("sign", fmt.Sprintf("credential failed to sign: %v", err), errors.ErrSigningFailure)
	}
	if len(sig) == 0 {
		return nil, errors.NewDomainError("sign", "credential produced empty signature", errors.ErrSigningFailure)
	}
	rec.Signature = sig
	return rec, nil
}

// Verify checks the record signature against the sender's public key.
// Queued records are re-verified before every sync attempt.
func Verify(rec *payment.Record, pub ed25519.PublicKey) bool {
	if len(rec.Signature) == 0 || len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pub, rec.SigningPayload(), rec.Signature)
}
