package payment_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/paypulse/walletsync/internal/domain/errors"
	"github.com/paypulse/walletsync/internal/domain/payment"
)

func validIntent() payment.Intent {
	return payment.Intent{
		Sender:    "GSENDERADDRESS",
		Recipient: "GRECIPIENTADDRESS",
		Amount:    decimal.RequireFromString("25.5"),
		Asset:     "XLM",
	}
}

func TestIntent_Valid(t *testing.T) {
	assert.NoError(t, validIntent().Validate())
}

func TestIntent_ZeroAmount(t *testing.T) {
	in := validIntent()
	in.Amount = decimal.Zero
	assert.ErrorIs(t, in.Validate(), errors.ErrInvalidIntent)
}

func TestIntent_NegativeAmount(t *testing.T) {
	in := validIntent()
	in.Amount = decimal.RequireFromString("-1")
	assert.ErrorIs(t, in.Validate(), errors.ErrInvalidIntent)
}

func TestIntent_EmptyRecipient(t *testing.T) {
	in := validIntent()
	in.Recipient = ""
	assert.ErrorIs(t, in.Validate(), errors.ErrInvalidIntent)
}

func TestIntent_SelfPayment(t *testing.T) {
	in := validIntent()
	in.Recipient = in.Sender
	assert.ErrorIs(t, in.Validate(), errors.ErrInvalidIntent)
}

func TestIntent_EmptyAsset(t *testing.T) {
	in := validIntent()
	in.Asset = ""
	assert.ErrorIs(t, in.Validate(), errors.ErrInvalidIntent)
}
