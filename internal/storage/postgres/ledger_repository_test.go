package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/houssin11/houssin9098/internal/domain"
	"github.com/houssin11/houssin9098/internal/testutil"
)

func TestLedgerRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewLedgerRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("EnsureAccount is idempotent", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		if err := repo.EnsureAccount(ctx, 7); err != nil {
			t.Fatalf("first ensure: %v", err)
		}
		if err := repo.EnsureAccount(ctx, 7); err != nil {
			t.Fatalf("second ensure: %v", err)
		}

		acct, err := repo.FindAccount(ctx, 7)
		if err != nil {
			t.Fatalf("find account: %v", err)
		}
		if acct == nil || acct.OwnerID != 7 || acct.Balance != 0 {
			t.Fatalf("unexpected account: %+v", acct)
		}
	})

	t.Run("FindAccount returns nil for unknown owner", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		acct, err := repo.FindAccount(ctx, 99)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if acct != nil {
			t.Fatalf("expected nil, got %+v", acct)
		}
	})

	t.Run("SumOpenHolds counts only open holds for the owner", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertAccount(t, ctx, pool, 7, 10_000)
		testutil.InsertAccount(t, ctx, pool, 8, 10_000)

		testutil.InsertHold(t, ctx, pool, domain.Hold{
			ID: uuid.NewString(), OwnerID: 7, Amount: 4_000, Status: domain.HoldStatusOpen,
		})
		testutil.InsertHold(t, ctx, pool, domain.Hold{
			ID: uuid.NewString(), OwnerID: 7, Amount: 1_000, Status: domain.HoldStatusOpen,
		})
		testutil.InsertHold(t, ctx, pool, domain.Hold{
			ID: uuid.NewString(), OwnerID: 7, Amount: 2_000, Status: domain.HoldStatusCaptured,
		})
		testutil.InsertHold(t, ctx, pool, domain.Hold{
			ID: uuid.NewString(), OwnerID: 8, Amount: 3_000, Status: domain.HoldStatusOpen,
		})

		total, err := repo.SumOpenHolds(ctx, 7)
		if err != nil {
			t.Fatalf("sum open holds: %v", err)
		}
		if total != 5_000 {
			t.Fatalf("expected 5000, got %d", total)
		}
	})

	t.Run("TransitionHold happens exactly once", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertAccount(t, ctx, pool, 7, 10_000)

		holdID := uuid.NewString()
		testutil.InsertHold(t, ctx, pool, domain.Hold{
			ID: holdID, OwnerID: 7, Amount: 4_000, Status: domain.HoldStatusOpen,
		})

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			return repo.TransitionHold(txCtx, holdID, domain.HoldStatusOpen, domain.HoldStatusCaptured)
		})
		if err != nil {
			t.Fatalf("first transition: %v", err)
		}

		err = repo.WithTx(ctx, func(txCtx context.Context) error {
			return repo.TransitionHold(txCtx, holdID, domain.HoldStatusOpen, domain.HoldStatusCaptured)
		})
		if !errors.Is(err, domain.ErrHoldAlreadyResolved) {
			t.Fatalf("expected ErrHoldAlreadyResolved, got %v", err)
		}

		hold, err := repo.GetHoldForUpdate(ctx, holdID)
		if err != nil {
			t.Fatalf("get hold: %v", err)
		}
		if hold.Status != domain.HoldStatusCaptured {
			t.Fatalf("expected captured, got %s", hold.Status)
		}
	})

	t.Run("GetHoldForUpdate maps not found and invalid IDs", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		_, err := repo.GetHoldForUpdate(ctx, uuid.NewString())
		if !errors.Is(err, domain.ErrHoldNotFound) {
			t.Fatalf("expected ErrHoldNotFound, got %v", err)
		}

		_, err = repo.GetHoldForUpdate(ctx, "not-a-uuid")
		if !errors.Is(err, domain.ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("AddToBalance moves the realized balance", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertAccount(t, ctx, pool, 7, 10_000)

		if err := repo.AddToBalance(ctx, 7, -4_000); err != nil {
			t.Fatalf("debit: %v", err)
		}
		if err := repo.AddToBalance(ctx, 7, 1_500); err != nil {
			t.Fatalf("credit: %v", err)
		}

		acct, err := repo.FindAccount(ctx, 7)
		if err != nil {
			t.Fatalf("find account: %v", err)
		}
		if acct.Balance != 7_500 {
			t.Fatalf("expected balance 7500, got %d", acct.Balance)
		}
	})

	t.Run("WithTx rolls back on error", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertAccount(t, ctx, pool, 7, 10_000)

		boom := errors.New("boom")
		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			if err := repo.AddToBalance(txCtx, 7, -4_000); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}

		acct, err := repo.FindAccount(ctx, 7)
		if err != nil {
			t.Fatalf("find account: %v", err)
		}
		if acct.Balance != 10_000 {
			t.Fatalf("expected rollback to 10000, got %d", acct.Balance)
		}
	})
}

func TestPurchaseRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewPurchaseRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)
	testutil.InsertAccount(t, ctx, pool, 7, 10_000)

	err := repo.RecordPurchase(ctx, domain.Purchase{
		ID:        uuid.NewString(),
		OwnerID:   7,
		Kind:      domain.KindUnitsBill,
		Reference: "0988777666",
		Amount:    1_500,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("record purchase: %v", err)
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases WHERE owner_id = 7`).Scan(&count); err != nil {
		t.Fatalf("count purchases: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 purchase, got %d", count)
	}
}
