package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeOwnerRequired      = "owner_required"
	codeOperatorRequired   = "operator_required"
	codeInvalidAmount      = "invalid_amount"
	codeInvalidKind        = "invalid_kind"
	codeInvalidAction      = "invalid_action"
	codeInvalidID          = "invalid_id"
	codeInsufficientFunds  = "insufficient_funds"
	codeRequestNotFound    = "request_not_found"
	codeHoldNotFound       = "hold_not_found"
	codeHoldResolved       = "hold_already_resolved"
	codeLockedByOther      = "locked_by_other"
	codeNotClaimed         = "not_claimed"
	codeStoreConflict      = "store_conflict"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}
