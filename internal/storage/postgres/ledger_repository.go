package postgres

import (
	"context"
	"fmt"

	"github.com/houssin11/houssin9098/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// EnsureAccount creates the owner's account with a zero balance if it does
// not exist yet.
func (r *LedgerRepository) EnsureAccount(ctx context.Context, ownerID int64) error {
	const stmt = `INSERT INTO accounts (owner_id, balance) VALUES ($1, 0) ON CONFLICT (owner_id) DO NOTHING`

	if _, err := r.exec(ctx, stmt, ownerID); err != nil {
		return fmt.Errorf("ensure account: %w", err)
	}
	return nil
}

// GetAccountForUpdate locks the owner's account row for the duration of the
// surrounding transaction. All ledger mutations for one owner serialize on
// this lock.
func (r *LedgerRepository) GetAccountForUpdate(ctx context.Context, ownerID int64) (domain.Account, error) {
	const query = `SELECT owner_id, balance, created_at FROM accounts WHERE owner_id = $1 FOR UPDATE`

	var a domain.Account
	err := r.queryRow(ctx, query, ownerID).Scan(&a.OwnerID, &a.Balance, &a.CreatedAt)
	if err != nil {
		return domain.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// FindAccount returns nil when the owner has no account yet.
func (r *LedgerRepository) FindAccount(ctx context.Context, ownerID int64) (*domain.Account, error) {
	const query = `SELECT owner_id, balance, created_at FROM accounts WHERE owner_id = $1`

	var a domain.Account
	err := r.queryRow(ctx, query, ownerID).Scan(&a.OwnerID, &a.Balance, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &a, nil
}

func (r *LedgerRepository) SumOpenHolds(ctx context.Context, ownerID int64) (int64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM holds WHERE owner_id = $1 AND status = 'open'`

	var total int64
	if err := r.queryRow(ctx, query, ownerID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum open holds: %w", err)
	}
	return total, nil
}

func (r *LedgerRepository) InsertHold(ctx context.Context, hold domain.Hold) error {
	const stmt = `
INSERT INTO holds (id, owner_id, amount, description, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt,
		hold.ID,
		hold.OwnerID,
		hold.Amount,
		hold.Description,
		hold.Status,
		hold.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("insert hold: %w", err)
	}
	return nil
}

func (r *LedgerRepository) GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error) {
	const query = `
SELECT id, owner_id, amount, description, status, created_at
FROM holds
WHERE id = $1
FOR UPDATE`

	var h domain.Hold
	var status string
	err := r.queryRow(ctx, query, holdID).
		Scan(&h.ID, &h.OwnerID, &h.Amount, &h.Description, &status, &h.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Hold{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Hold{}, domain.ErrHoldNotFound
		}
		return domain.Hold{}, fmt.Errorf("get hold: %w", err)
	}
	h.Status = domain.HoldStatus(status)
	return h, nil
}

// TransitionHold moves a hold from one status to another, guarded so a hold
// transitions exactly once.
func (r *LedgerRepository) TransitionHold(ctx context.Context, holdID string, from, to domain.HoldStatus) error {
	const stmt = `UPDATE holds SET status = $3 WHERE id = $1 AND status = $2`

	tag, err := r.exec(ctx, stmt, holdID, from, to)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("transition hold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetHoldForUpdate(ctx, holdID); err != nil {
			return err
		}
		return domain.ErrHoldAlreadyResolved
	}
	return nil
}

func (r *LedgerRepository) AddToBalance(ctx context.Context, ownerID, delta int64) error {
	const stmt = `UPDATE accounts SET balance = balance + $2 WHERE owner_id = $1`

	tag, err := r.exec(ctx, stmt, ownerID, delta)
	if err != nil {
		return fmt.Errorf("add to balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("add to balance: account %d missing", ownerID)
	}
	return nil
}

func (r *LedgerRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *LedgerRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
