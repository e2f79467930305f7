package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/houssin11/houssin9098/internal/app"
	"github.com/houssin11/houssin9098/internal/domain"
)

// ActionExecutor is the minimal interface needed to run operator actions.
type ActionExecutor interface {
	OperatorAction(ctx context.Context, in app.OperatorActionInput) (domain.Request, error)
}

// HandleOperatorAction returns an HTTP handler for
// POST /requests/{id}/actions.
func HandleOperatorAction(svc ActionExecutor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		requestID, ok := parseActionPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		var body operatorActionBody
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		action, err := app.ParseAction(body.Action)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidAction, err.Error())
			return
		}

		result, err := svc.OperatorAction(r.Context(), app.OperatorActionInput{
			RequestID:     requestID,
			OperatorID:    body.OperatorID,
			OperatorLabel: body.OperatorLabel,
			Action:        action,
		})
		if err != nil {
			writeActionError(w, err)
			return
		}

		resp := operatorActionResponse{
			ID:      result.ID,
			Status:  string(result.Status),
			Claimed: result.Claimed,
			Action:  string(action),
			Outcome: actionOutcome(action),
		}
		if result.Lock != nil {
			resp.LockedBy = result.Lock.OperatorLabel
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func writeActionError(w http.ResponseWriter, err error) {
	var lockErr *domain.LockedByOtherError
	switch {
	case errors.As(err, &lockErr):
		writeError(w, http.StatusConflict, codeLockedByOther, lockErr.Error())
	case errors.Is(err, domain.ErrLockedByOther):
		writeError(w, http.StatusConflict, codeLockedByOther, err.Error())
	case errors.Is(err, domain.ErrNotClaimed):
		writeError(w, http.StatusConflict, codeNotClaimed, err.Error())
	case errors.Is(err, domain.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, codeRequestNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrOperatorRequired):
		writeError(w, http.StatusBadRequest, codeOperatorRequired, err.Error())
	case errors.Is(err, domain.ErrHoldNotFound):
		writeError(w, http.StatusConflict, codeHoldNotFound, err.Error())
	case errors.Is(err, domain.ErrHoldAlreadyResolved):
		writeError(w, http.StatusConflict, codeHoldResolved, err.Error())
	case errors.Is(err, domain.ErrStoreConflict):
		writeError(w, http.StatusConflict, codeStoreConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func actionOutcome(action app.Action) string {
	switch action {
	case app.ActionClaim:
		return "claimed"
	case app.ActionAccept:
		return "accepted"
	case app.ActionCancel:
		return "cancelled"
	case app.ActionPostpone:
		return "postponed"
	}
	return ""
}

func parseActionPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", false
	}
	if parts[0] != "requests" || parts[2] != "actions" {
		return "", false
	}
	if parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type operatorActionBody struct {
	OperatorID    int64  `json:"operator_id"`
	OperatorLabel string `json:"operator_label"`
	Action        string `json:"action"`
}

type operatorActionResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Claimed  bool   `json:"claimed"`
	Action   string `json:"action"`
	Outcome  string `json:"outcome"`
	LockedBy string `json:"locked_by,omitempty"`
}
