package api

import (
	"encoding/json"
	"net/http"

	"github.com/dao-vault/internal/chain"
	apperrors "github.com/dao-vault/internal/errors"
	"github.com/dao-vault/internal/logging"
	"github.com/dao-vault/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	writeError(w, statusCode, &types.ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

func writeError(w http.ResponseWriter, statusCode int, svcErr *types.ServiceError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: *svcErr})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// Common error codes
const (
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeInvalidAddress = "INVALID_ADDRESS"
	ErrCodeInvalidAmount  = "INVALID_AMOUNT"
	ErrCodeCallerRequired = "CALLER_REQUIRED"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeInternalError  = "INTERNAL_ERROR"
	ErrCodeUnavailable    = "SERVICE_UNAVAILABLE"
	ErrCodeRateLimited    = "RATE_LIMIT_EXCEEDED"
)

// respondServiceError maps a service or contract error onto the categorized
// status code. A reverted call's transaction id travels in the details so
// callers can look the receipt up.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, receipt *chain.Receipt) {
	catErr := apperrors.Categorize(err)
	svcErr := catErr.ToServiceError()

	details := make(map[string]interface{}, len(catErr.Details)+1)
	for k, v := range catErr.Details {
		details[k] = v
	}
	if receipt != nil {
		details["txId"] = receipt.TxID
	}
	svcErr.Details = details
	if len(details) == 0 {
		svcErr.Details = nil
	}

	if catErr.StatusCode >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).WithError(err).Error("Request failed")
		svcErr.Message = "An internal error occurred"
	}
	writeError(w, catErr.StatusCode, svcErr)
}
