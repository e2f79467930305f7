package app

import (
	"context"
	"fmt"
	"log"

	"github.com/houssin11/houssin9098/internal/clock"
	"github.com/houssin11/houssin9098/internal/domain"
)

// QueueService is the submission side of the coordinator: it reserves funds
// and enqueues the request, as one logical operation from the customer's
// point of view.
type QueueService struct {
	ledger *LedgerService
	store  RequestStore
	clock  clock.Clock
	logger *log.Logger
}

func NewQueueService(ledger *LedgerService, store RequestStore, clk clock.Clock, logger *log.Logger) *QueueService {
	if logger == nil {
		logger = log.Default()
	}
	return &QueueService{
		ledger: ledger,
		store:  store,
		clock:  clk,
		logger: logger,
	}
}

type SubmitRequestInput struct {
	OwnerID int64
	Kind    domain.RequestKind
	Amount  int64
	Fields  map[string]any
}

// Submit reserves the request amount and enqueues the request. If the hold
// fails nothing is enqueued; if the enqueue fails the hold is released so
// no reservation outlives a request that never existed. Deposit kinds bring
// money in from outside and reserve nothing.
func (s *QueueService) Submit(ctx context.Context, in SubmitRequestInput) (domain.Request, error) {
	if in.OwnerID == 0 {
		return domain.Request{}, domain.ErrOwnerRequired
	}
	if !in.Kind.Valid() {
		return domain.Request{}, domain.ErrInvalidKind
	}
	if in.Amount < 0 {
		return domain.Request{}, domain.ErrInvalidAmount
	}

	holdID := ""
	if !in.Kind.IsDeposit() && in.Amount > 0 {
		hold, err := s.ledger.CreateHold(ctx, CreateHoldInput{
			OwnerID:     in.OwnerID,
			Amount:      in.Amount,
			Description: fmt.Sprintf("reserve for %s request", in.Kind),
		})
		if err != nil {
			return domain.Request{}, err
		}
		holdID = hold.ID
	}

	req := domain.Request{
		ID:        newID(),
		OwnerID:   in.OwnerID,
		Kind:      in.Kind,
		Amount:    in.Amount,
		Fields:    in.Fields,
		Status:    domain.RequestStatusQueued,
		HoldID:    holdID,
		Version:   1,
		CreatedAt: s.clock.Now(),
	}

	if err := s.store.Enqueue(ctx, req); err != nil {
		if holdID != "" {
			if relErr := s.ledger.ReleaseHold(ctx, holdID); relErr != nil {
				s.logger.Printf("release hold %s after failed enqueue: %v", holdID, relErr)
			}
		}
		return domain.Request{}, err
	}
	return req, nil
}

// QueueStatus reports the queued count and the head of the FIFO order, for
// operator dashboards.
type QueueStatus struct {
	Queued int
	Head   []domain.Request
}

func (s *QueueService) Status(ctx context.Context, headLimit int) (QueueStatus, error) {
	if headLimit <= 0 {
		headLimit = 10
	}
	count, err := s.store.CountQueued(ctx)
	if err != nil {
		return QueueStatus{}, err
	}
	head, err := s.store.ListQueued(ctx, headLimit)
	if err != nil {
		return QueueStatus{}, err
	}
	return QueueStatus{Queued: count, Head: head}, nil
}
