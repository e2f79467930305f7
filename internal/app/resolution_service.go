package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/houssin11/houssin9098/internal/clock"
	"github.com/houssin11/houssin9098/internal/domain"
)

type Action string

const (
	ActionClaim    Action = "claim"
	ActionAccept   Action = "accept"
	ActionCancel   Action = "cancel"
	ActionPostpone Action = "postpone"
)

// ParseAction maps the wire form of an operator action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionClaim, ActionAccept, ActionCancel, ActionPostpone:
		return Action(s), nil
	}
	return "", domain.ErrInvalidAction
}

const fanOutTimeout = 5 * time.Second

// ResolutionService drives the request state machine:
// Queued -> (claim) -> Claimed -> (accept|cancel) -> removed, with a
// postpone self-loop back to the end of the queue. Every operator action
// first arbitrates the lock through the store's compare-and-swap.
type ResolutionService struct {
	store            RequestStore
	ledger           *LedgerService
	gateway          OperatorGateway
	notifier         CustomerNotifier
	settlements      *SettlementTable
	cooldown         CooldownStarter
	clock            clock.Clock
	logger           *log.Logger
	onDepositSettled DepositSettledFunc
}

func NewResolutionService(
	store RequestStore,
	ledger *LedgerService,
	gateway OperatorGateway,
	notifier CustomerNotifier,
	settlements *SettlementTable,
	cooldown CooldownStarter,
	clk clock.Clock,
	logger *log.Logger,
	opts ...ResolutionOption,
) *ResolutionService {
	if logger == nil {
		logger = log.Default()
	}
	svc := &ResolutionService{
		store:       store,
		ledger:      ledger,
		gateway:     gateway,
		notifier:    notifier,
		settlements: settlements,
		cooldown:    cooldown,
		clock:       clk,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ResolutionOption func(*ResolutionService)

// WithDepositSettledHook installs the collaborator callback fired after a
// deposit-type request is accepted or cancelled.
func WithDepositSettledHook(fn DepositSettledFunc) ResolutionOption {
	return func(s *ResolutionService) {
		s.onDepositSettled = fn
	}
}

type OperatorActionInput struct {
	RequestID     string
	OperatorID    int64
	OperatorLabel string
	Action        Action
}

// OperatorAction executes one operator action against a request. Lock and
// claim violations are terminal for the invocation; a capture failure on
// Accept leaves the request claimed so the operator can retry.
func (s *ResolutionService) OperatorAction(ctx context.Context, in OperatorActionInput) (domain.Request, error) {
	if in.RequestID == "" {
		return domain.Request{}, domain.ErrInvalidID
	}
	if in.OperatorID == 0 {
		return domain.Request{}, domain.ErrOperatorRequired
	}

	req, err := s.store.Get(ctx, in.RequestID)
	if err != nil {
		return domain.Request{}, err
	}

	req, err = s.acquireLock(ctx, req, in.OperatorID, in.OperatorLabel)
	if err != nil {
		return domain.Request{}, err
	}

	switch in.Action {
	case ActionClaim:
		return s.claim(ctx, req, in.OperatorID)
	case ActionPostpone:
		if !req.Claimed {
			return req, domain.ErrNotClaimed
		}
		return s.postpone(ctx, req, in.OperatorID)
	case ActionCancel:
		if !req.Claimed {
			return req, domain.ErrNotClaimed
		}
		return s.cancel(ctx, req)
	case ActionAccept:
		if !req.Claimed {
			return req, domain.ErrNotClaimed
		}
		return s.accept(ctx, req)
	default:
		return req, domain.ErrInvalidAction
	}
}

// acquireLock makes the acting operator the owner of the request, or
// rejects when another operator got there first. The compare-and-swap can
// lose at most one race, so a single retry is enough.
func (s *ResolutionService) acquireLock(ctx context.Context, req domain.Request, operatorID int64, label string) (domain.Request, error) {
	if req.LockedByOther(operatorID) {
		return domain.Request{}, lockedByOther(req.Lock)
	}
	if req.LockedBy(operatorID) {
		return req, nil
	}

	mutate := func(r *domain.Request) error {
		if r.LockedByOther(operatorID) {
			return lockedByOther(r.Lock)
		}
		if r.Lock == nil {
			r.Lock = &domain.Lock{OperatorID: operatorID, OperatorLabel: label}
		}
		return nil
	}

	updated, err := s.store.Update(ctx, req.ID, mutate)
	if errors.Is(err, domain.ErrStoreConflict) {
		updated, err = s.store.Update(ctx, req.ID, mutate)
	}
	if err != nil {
		return domain.Request{}, err
	}

	s.fanOutLockViews(updated, operatorID, label)
	return updated, nil
}

// fanOutLockViews retracts every other operator's view of a freshly locked
// request and annotates the acting operator's own. Fire-and-forget: a view
// that cannot be reached is logged and skipped, never blocking the
// transition.
func (s *ResolutionService) fanOutLockViews(req domain.Request, actorID int64, label string) {
	for _, ref := range req.DeliveryRefs {
		ref := ref
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), fanOutTimeout)
			defer cancel()

			var err error
			if ref.OperatorChannel == actorID {
				err = s.gateway.MarkLocked(ctx, ref, label)
			} else {
				err = s.gateway.DisableView(ctx, ref)
			}
			if err != nil {
				s.logger.Printf("lock fan-out request=%s channel=%d: %v", req.ID, ref.OperatorChannel, err)
			}
		}()
	}
}

func (s *ResolutionService) claim(ctx context.Context, req domain.Request, operatorID int64) (domain.Request, error) {
	mutate := func(r *domain.Request) error {
		if r.LockedByOther(operatorID) {
			return lockedByOther(r.Lock)
		}
		r.Claimed = true
		r.Status = domain.RequestStatusClaimed
		return nil
	}

	updated, err := s.store.Update(ctx, req.ID, mutate)
	if errors.Is(err, domain.ErrStoreConflict) {
		updated, err = s.store.Update(ctx, req.ID, mutate)
	}
	if err != nil {
		return domain.Request{}, err
	}
	return updated, nil
}

func (s *ResolutionService) postpone(ctx context.Context, req domain.Request, operatorID int64) (domain.Request, error) {
	// Strip the acting operator's own controls before moving the request,
	// so a double tap cannot race the requeue.
	for _, ref := range req.DeliveryRefs {
		if ref.OperatorChannel != operatorID {
			continue
		}
		if err := s.gateway.DisableView(ctx, ref); err != nil {
			s.logger.Printf("disable own view request=%s: %v", req.ID, err)
		}
	}

	if err := s.store.Postpone(ctx, req.ID, s.clock.Now()); err != nil {
		return domain.Request{}, err
	}

	s.notify(ctx, req.OwnerID, "Your request was moved back in the queue due to load. We are sorry for the delay; it will be handled shortly.")
	s.cooldown.StartCooldown(ctx)

	req.Claimed = false
	req.Lock = nil
	req.Status = domain.RequestStatusQueued
	return req, nil
}

func (s *ResolutionService) cancel(ctx context.Context, req domain.Request) (domain.Request, error) {
	// Releasing the hold is best-effort: customer-visible correctness
	// favors completing the cancel; a failed release is logged for manual
	// reconciliation.
	if req.HoldID != "" {
		if err := s.ledger.ReleaseHold(ctx, req.HoldID); err != nil {
			s.logger.Printf("cancel request=%s: release hold %s: %v", req.ID, req.HoldID, err)
		}
	} else if req.Amount > 0 && !req.Kind.IsDeposit() {
		// Requests that predate holds reserved by debiting directly.
		if err := s.ledger.Credit(ctx, req.OwnerID, req.Amount, "reservation refund"); err != nil {
			s.logger.Printf("cancel request=%s: legacy refund: %v", req.ID, err)
		}
	}

	if err := s.store.Remove(ctx, req.ID); err != nil {
		return domain.Request{}, err
	}

	if req.Amount > 0 && !req.Kind.IsDeposit() {
		s.notify(ctx, req.OwnerID, fmt.Sprintf("Your request was cancelled. The reserved %d was returned to your wallet.", req.Amount))
	} else {
		s.notify(ctx, req.OwnerID, "Your request was cancelled.")
	}
	s.cooldown.StartCooldown(ctx)
	s.settleDeposit(ctx, req)
	return req, nil
}

func (s *ResolutionService) accept(ctx context.Context, req domain.Request) (domain.Request, error) {
	// The one transition where a ledger failure must block progress:
	// accepting without a successful capture would under-charge the
	// customer. The request stays claimed so the operator can retry.
	if req.HoldID != "" {
		if err := s.ledger.CaptureHold(ctx, req.HoldID); err != nil {
			return req, err
		}
	}

	if err := s.settlements.For(req.Kind)(ctx, req); err != nil {
		// The capture already happened; the money movement is the source
		// of truth. Log the discrepancy instead of rolling back.
		s.logger.Printf("settle request=%s kind=%s: %v", req.ID, req.Kind, err)
	}

	if err := s.store.Remove(ctx, req.ID); err != nil {
		return domain.Request{}, err
	}

	s.notify(ctx, req.OwnerID, acceptMessage(req))
	s.cooldown.StartCooldown(ctx)
	s.settleDeposit(ctx, req)
	return req, nil
}

func (s *ResolutionService) settleDeposit(ctx context.Context, req domain.Request) {
	if req.Kind.IsDeposit() && s.onDepositSettled != nil {
		s.onDepositSettled(ctx, req.OwnerID)
	}
}

func (s *ResolutionService) notify(ctx context.Context, ownerID int64, message string) {
	if err := s.notifier.Notify(ctx, ownerID, message); err != nil {
		s.logger.Printf("notify owner=%d: %v", ownerID, err)
	}
}

func acceptMessage(req domain.Request) string {
	switch req.Kind {
	case domain.KindTopUp:
		return fmt.Sprintf("Your wallet was topped up with %d. Enjoy!", req.Amount)
	case domain.KindWalletTransfer:
		return fmt.Sprintf("Your transfer of %d was completed.", req.Amount)
	default:
		return fmt.Sprintf("Your %s request was completed. Thank you!", req.Kind)
	}
}

func lockedByOther(lock *domain.Lock) error {
	if lock == nil {
		return domain.ErrLockedByOther
	}
	return &domain.LockedByOtherError{
		OperatorID:    lock.OperatorID,
		OperatorLabel: lock.OperatorLabel,
	}
}
