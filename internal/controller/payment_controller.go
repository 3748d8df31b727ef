package controller

import (
	"net/http"

	"github.com/shopspring/decimal"

	paymentApp "github.com/paypulse/walletsync/internal/application/payment"
	domainErrors "github.com/paypulse/walletsync/internal/domain/errors"
)

// Syncer triggers background drain passes.
type Syncer interface {
	Trigger()
}

// PaymentController handles payment-related HTTP requests.
type PaymentController struct {
	sendUC  *paymentApp.SendPaymentUseCase
	queries *paymentApp.QueueQueries
	syncer  Syncer
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(
	sendUC *paymentApp.SendPaymentUseCase,
	queries *paymentApp.QueueQueries,
	syncer Syncer,
) *PaymentController {
	return &PaymentController{
		sendUC:  sendUC,
		queries: queries,
		syncer:  syncer,
	}
}

// SendPayment handles POST /api/v1/payments
func (h *PaymentController) SendPayment(w http.ResponseWriter, r *http.Request) {
	var req SendPaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, domainErrors.NewValidationError("amount", "must be a decimal number"))
		return
	}
	asset := req.Asset
	if asset == "" {
		asset = "XLM"
	}

	result, err := h.sendUC.Execute(r.Context(), req.Recipient, amount, asset)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if !result.Immediate {
		status = http.StatusAccepted
	}
	writeJSON(w, status, SendPaymentResponse{
		Immediate: result.Immediate,
		RecordID:  result.RecordID.String(),
		LedgerRef: result.LedgerRef,
	})
}

// PendingCount handles GET /api/v1/payments/pending/count
func (h *PaymentController) PendingCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.queries.PendingCount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PendingCountResponse{Count: count})
}

// QueueSnapshot handles GET /api/v1/payments/queue
func (h *PaymentController) QueueSnapshot(w http.ResponseWriter, r *http.Request) {
	records, err := h.queries.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]QueueRecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toQueueRecordResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ForceSync handles POST /api/v1/sync
func (h *PaymentController) ForceSync(w http.ResponseWriter, r *http.Request) {
	h.syncer.Trigger()
	w.WriteHeader(http.StatusAccepted)
}
