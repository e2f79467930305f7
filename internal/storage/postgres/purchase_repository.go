package postgres

import (
	"context"
	"fmt"

	"github.com/houssin11/houssin9098/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PurchaseRepository archives settled requests. Rows here are write-only
// from the coordinator's perspective; reporting reads them elsewhere.
type PurchaseRepository struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

func (r *PurchaseRepository) RecordPurchase(ctx context.Context, p domain.Purchase) error {
	const stmt = `
INSERT INTO purchases (id, owner_id, kind, reference, amount, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	if tx := txFromContext(ctx); tx != nil {
		if _, err := tx.Exec(ctx, stmt, p.ID, p.OwnerID, p.Kind, p.Reference, p.Amount, p.CreatedAt); err != nil {
			return fmt.Errorf("record purchase: %w", err)
		}
		return nil
	}
	if _, err := r.pool.Exec(ctx, stmt, p.ID, p.OwnerID, p.Kind, p.Reference, p.Amount, p.CreatedAt); err != nil {
		return fmt.Errorf("record purchase: %w", err)
	}
	return nil
}
