package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/houssin11/houssin9098/internal/domain"
)

// BalanceReader is the minimal interface needed to show a balance.
type BalanceReader interface {
	AvailableBalance(ctx context.Context, ownerID int64) (int64, error)
}

// HandleOwnerBalance returns an HTTP handler for
// GET /owners/{id}/balance.
func HandleOwnerBalance(svc BalanceReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		ownerID, ok := parseBalancePath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		available, err := svc.AvailableBalance(r.Context(), ownerID)
		if err != nil {
			if errors.Is(err, domain.ErrOwnerRequired) {
				writeError(w, http.StatusBadRequest, codeOwnerRequired, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(balanceResponse{
			OwnerID:   ownerID,
			Available: available,
		})
	}
}

func parseBalancePath(path string) (int64, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return 0, false
	}
	if parts[0] != "owners" || parts[2] != "balance" {
		return 0, false
	}
	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || ownerID <= 0 {
		return 0, false
	}
	return ownerID, true
}

type balanceResponse struct {
	OwnerID   int64 `json:"owner_id"`
	Available int64 `json:"available"`
}
