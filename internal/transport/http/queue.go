package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/houssin11/houssin9098/internal/app"
)

// QueueReader is the minimal interface needed for the queue dashboard.
type QueueReader interface {
	Status(ctx context.Context, headLimit int) (app.QueueStatus, error)
}

// HandleQueueStatus returns an HTTP handler for GET /queue: the queued
// count and the head of the FIFO order.
func HandleQueueStatus(svc QueueReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		status, err := svc.Status(r.Context(), 10)
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		head := make([]queueEntry, 0, len(status.Head))
		for _, req := range status.Head {
			entry := queueEntry{
				ID:        req.ID,
				OwnerID:   req.OwnerID,
				Kind:      string(req.Kind),
				Amount:    req.Amount,
				Status:    string(req.Status),
				Claimed:   req.Claimed,
				CreatedAt: req.CreatedAt,
			}
			if req.Lock != nil {
				entry.LockedBy = req.Lock.OperatorLabel
			}
			head = append(head, entry)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(queueStatusResponse{
			Queued: status.Queued,
			Head:   head,
		})
	}
}

type queueEntry struct {
	ID        string    `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Kind      string    `json:"kind"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	Claimed   bool      `json:"claimed"`
	LockedBy  string    `json:"locked_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type queueStatusResponse struct {
	Queued int          `json:"queued"`
	Head   []queueEntry `json:"head"`
}
