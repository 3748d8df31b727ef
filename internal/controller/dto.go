package controller

import (
	"time"

	"github.com/paypulse/walletsync/internal/domain/payment"
)

// SendPaymentRequest is the body of POST /api/v1/payments.
type SendPaymentRequest struct {
	Recipient string `json:"recipient" validate:"required,min=3,max=128"`
	Amount    string `json:"amount" validate:"required"`
	Asset     string `json:"asset" validate:"omitempty,min=3,max=12"`
}

// SendPaymentResponse reports how the payment was routed.
type SendPaymentResponse struct {
	Immediate bool   `json:"immediate"`
	RecordID  string `json:"record_id"`
	LedgerRef string `json:"ledger_ref,omitempty"`
}

// PendingCountResponse is the body of GET /api/v1/payments/pending/count.
type PendingCountResponse struct {
	Count int `json:"count"`
}

// QueueRecordResponse is one entry of the queue snapshot. A failed record
// renders as pending/retrying for the user; an abandoned one will no
// longer appear here at all.
type QueueRecordResponse struct {
	ID            string     `json:"id"`
	Recipient     string     `json:"recipient"`
	Amount        string     `json:"amount"`
	Asset         string     `json:"asset"`
	Status        string     `json:"status"`
	AttemptCount  int        `json:"attempt_count"`
	LastError     *string    `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
}

// BalanceResponse is the body of GET /api/v1/wallet/balance.
type BalanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

// ErrorResponse is the common error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func toQueueRecordResponse(rec *payment.Record) QueueRecordResponse {
	return QueueRecordResponse{
		ID:            rec.ID.String(),
		Recipient:     rec.Recipient,
		Amount:        rec.Amount.String(),
		Asset:         rec.Asset,
		Status:        string(rec.Status),
		AttemptCount:  rec.AttemptCount,
		LastError:     rec.LastError,
		CreatedAt:     rec.CreatedAt,
		LastAttemptAt: rec.LastAttemptAt,
	}
}
