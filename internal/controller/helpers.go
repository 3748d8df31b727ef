package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	domainErrors "github.com/paypulse/walletsync/internal/domain/errors"
)

var validate = validator.New()

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domainErrors.ErrInvalidIntent, http.StatusBadRequest, "invalid_intent"},
	{domainErrors.ErrSigningFailure, http.StatusUnprocessableEntity, "signing_failure"},
	{domainErrors.ErrRecordNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrDuplicateID, http.StatusConflict, "duplicate_record"},
	{domainErrors.ErrDuplicateNonce, http.StatusConflict, "duplicate_nonce"},
	{domainErrors.ErrInsufficientBalance, http.StatusUnprocessableEntity, "insufficient_balance"},
	{domainErrors.ErrInvalidDestination, http.StatusUnprocessableEntity, "invalid_destination"},
	{domainErrors.ErrInvalidStateTransition, http.StatusConflict, "invalid_state_transition"},
	{domainErrors.ErrSyncInProgress, http.StatusConflict, "sync_in_progress"},
	{domainErrors.ErrLedgerUnavailable, http.StatusServiceUnavailable, "ledger_unavailable"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		resp.Code = "validation_error"
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			resp.Code = m.code
			writeJSON(w, m.status, resp)
			return
		}
	}

	log.Error().Err(err).Msg("Unhandled error in HTTP handler")
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "internal"})
}

func decodeAndValidate(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domainErrors.NewValidationError("body", "invalid JSON")
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domainErrors.NewValidationError(verrs[0].Field(), verrs[0].Tag())
		}
		return domainErrors.NewValidationError("body", err.Error())
	}
	return nil
}
