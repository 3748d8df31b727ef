package payment

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/paypulse/walletsync/internal/domain/errors"
)

var validate = validator.New()

// Intent is an unsigned payment request. It carries everything the signer
// needs except the nonce, which is minted at signing time.
type Intent struct {
	Sender    string `validate:"required,min=3,max=128"`
	Recipient string `validate:"required,min=3,max=128"`
	Amount    decimal.Decimal
	Asset     string `validate:"required,min=3,max=12"`
}

// Validate checks the intent against the basic format rules. Amount must be
// strictly positive; address checks are syntactic only.
func (i Intent) Validate() error {
	if err := validate.Struct(i); err != nil {
		return errors.NewDomainError("invalid_intent", err.Error(), errors.ErrInvalidIntent)
	}
	if !i.Amount.IsPositive() {
		return errors.NewDomainError("invalid_intent", "amount must be greater than 0", errors.ErrInvalidIntent)
	}
	if i.Sender == i.Recipient {
		return errors.NewDomainError("invalid_intent", "recipient must differ from sender", errors.ErrInvalidIntent)
	}
	return nil
}
