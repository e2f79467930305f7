package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/houssin11/houssin9098/internal/app"
	"github.com/houssin11/houssin9098/internal/domain"
)

// RequestSubmitter is the minimal interface needed to submit a request.
type RequestSubmitter interface {
	Submit(ctx context.Context, in app.SubmitRequestInput) (domain.Request, error)
}

// HandleSubmitRequest returns an HTTP handler for the customer-facing
// submission entry point.
func HandleSubmitRequest(svc RequestSubmitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req submitRequestBody
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		result, err := svc.Submit(r.Context(), app.SubmitRequestInput{
			OwnerID: req.OwnerID,
			Kind:    domain.RequestKind(req.Kind),
			Amount:  req.Amount,
			Fields:  req.Fields,
		})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrOwnerRequired):
				writeError(w, http.StatusBadRequest, codeOwnerRequired, err.Error())
			case errors.Is(err, domain.ErrInvalidKind):
				writeError(w, http.StatusBadRequest, codeInvalidKind, err.Error())
			case errors.Is(err, domain.ErrInvalidAmount):
				writeError(w, http.StatusBadRequest, codeInvalidAmount, err.Error())
			case errors.Is(err, domain.ErrInsufficientFunds):
				writeError(w, http.StatusConflict, codeInsufficientFunds, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		resp := submitRequestResponse{
			ID:        result.ID,
			Kind:      string(result.Kind),
			Amount:    result.Amount,
			Status:    string(result.Status),
			HoldID:    result.HoldID,
			CreatedAt: result.CreatedAt,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type submitRequestBody struct {
	OwnerID int64          `json:"owner_id"`
	Kind    string         `json:"kind"`
	Amount  int64          `json:"amount"`
	Fields  map[string]any `json:"fields"`
}

type submitRequestResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	HoldID    string    `json:"hold_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
