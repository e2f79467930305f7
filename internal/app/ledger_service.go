package app

import (
	"context"

	"github.com/houssin11/houssin9098/internal/clock"
	"github.com/houssin11/houssin9098/internal/domain"
)

type LedgerRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	EnsureAccount(ctx context.Context, ownerID int64) error
	GetAccountForUpdate(ctx context.Context, ownerID int64) (domain.Account, error)
	FindAccount(ctx context.Context, ownerID int64) (*domain.Account, error)
	SumOpenHolds(ctx context.Context, ownerID int64) (int64, error)
	InsertHold(ctx context.Context, hold domain.Hold) error
	GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error)
	TransitionHold(ctx context.Context, holdID string, from, to domain.HoldStatus) error
	AddToBalance(ctx context.Context, ownerID, delta int64) error
}

// LedgerService is the single source of truth for money. Every mutating
// call runs in one transaction serialized on the owner's account row.
type LedgerService struct {
	repo  LedgerRepository
	clock clock.Clock
}

func NewLedgerService(repo LedgerRepository, clk clock.Clock) *LedgerService {
	return &LedgerService{
		repo:  repo,
		clock: clk,
	}
}

type CreateHoldInput struct {
	OwnerID     int64
	Amount      int64
	Description string
}

// CreateHold reserves funds against the owner's available balance. It fails
// with domain.ErrInsufficientFunds, without side effects, when
// balance minus open holds is less than the amount.
func (s *LedgerService) CreateHold(ctx context.Context, in CreateHoldInput) (domain.Hold, error) {
	if in.OwnerID == 0 {
		return domain.Hold{}, domain.ErrOwnerRequired
	}
	if in.Amount <= 0 {
		return domain.Hold{}, domain.ErrInvalidAmount
	}

	now := s.clock.Now()
	var result domain.Hold

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.EnsureAccount(txCtx, in.OwnerID); err != nil {
			return err
		}
		acct, err := s.repo.GetAccountForUpdate(txCtx, in.OwnerID)
		if err != nil {
			return err
		}
		open, err := s.repo.SumOpenHolds(txCtx, in.OwnerID)
		if err != nil {
			return err
		}

		if acct.Balance-open < in.Amount {
			return domain.ErrInsufficientFunds
		}

		hold := domain.Hold{
			ID:          newID(),
			OwnerID:     in.OwnerID,
			Amount:      in.Amount,
			Description: in.Description,
			Status:      domain.HoldStatusOpen,
			CreatedAt:   now,
		}
		if err := s.repo.InsertHold(txCtx, hold); err != nil {
			return err
		}

		result = hold
		return nil
	})
	if err != nil {
		return domain.Hold{}, err
	}
	return result, nil
}

// CaptureHold converts an open hold into a permanent debit. A second call
// on the same hold observes domain.ErrHoldAlreadyResolved and leaves the
// ledger unchanged.
func (s *LedgerService) CaptureHold(ctx context.Context, holdID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.repo.GetHoldForUpdate(txCtx, holdID)
		if err != nil {
			return err
		}
		if hold.Status != domain.HoldStatusOpen {
			return domain.ErrHoldAlreadyResolved
		}
		if _, err := s.repo.GetAccountForUpdate(txCtx, hold.OwnerID); err != nil {
			return err
		}
		if err := s.repo.TransitionHold(txCtx, holdID, domain.HoldStatusOpen, domain.HoldStatusCaptured); err != nil {
			return err
		}
		return s.repo.AddToBalance(txCtx, hold.OwnerID, -hold.Amount)
	})
}

// ReleaseHold cancels an open hold; the reserved amount becomes available
// again. The realized balance is untouched.
func (s *LedgerService) ReleaseHold(ctx context.Context, holdID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.repo.GetHoldForUpdate(txCtx, holdID)
		if err != nil {
			return err
		}
		if hold.Status != domain.HoldStatusOpen {
			return domain.ErrHoldAlreadyResolved
		}
		if _, err := s.repo.GetAccountForUpdate(txCtx, hold.OwnerID); err != nil {
			return err
		}
		return s.repo.TransitionHold(txCtx, holdID, domain.HoldStatusOpen, domain.HoldStatusReleased)
	})
}

// AvailableBalance is balance minus the sum of open hold amounts, read
// under the same account row lock every mutation takes, so the balance and
// the hold sum come from one ledger state. Owners without an account read
// as zero.
func (s *LedgerService) AvailableBalance(ctx context.Context, ownerID int64) (int64, error) {
	if ownerID == 0 {
		return 0, domain.ErrOwnerRequired
	}

	var available int64
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		acct, err := s.repo.FindAccount(txCtx, ownerID)
		if err != nil {
			return err
		}
		if acct == nil {
			available = 0
			return nil
		}
		// Accounts are never deleted, so the locked re-read cannot miss.
		locked, err := s.repo.GetAccountForUpdate(txCtx, ownerID)
		if err != nil {
			return err
		}
		open, err := s.repo.SumOpenHolds(txCtx, ownerID)
		if err != nil {
			return err
		}
		available = locked.Balance - open
		return nil
	})
	if err != nil {
		return 0, err
	}
	return available, nil
}

// Credit adds directly to the owner's realized balance. Used for top-up
// settlement, wallet-transfer recipients, and the legacy refund path for
// requests that predate holds.
func (s *LedgerService) Credit(ctx context.Context, ownerID, amount int64, description string) error {
	if ownerID == 0 {
		return domain.ErrOwnerRequired
	}
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.EnsureAccount(txCtx, ownerID); err != nil {
			return err
		}
		if _, err := s.repo.GetAccountForUpdate(txCtx, ownerID); err != nil {
			return err
		}
		return s.repo.AddToBalance(txCtx, ownerID, amount)
	})
}
