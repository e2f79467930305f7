package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/houssin11/houssin9098/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RequestRepository struct {
	pool *pgxpool.Pool
}

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

const requestColumns = `id, owner_id, kind, amount, fields, status, claimed, locked_by, locked_label, delivery_refs, hold_id, version, created_at`

func (r *RequestRepository) Enqueue(ctx context.Context, req domain.Request) error {
	const stmt = `
INSERT INTO requests (id, owner_id, kind, amount, fields, status, claimed, locked_by, locked_label, delivery_refs, hold_id, version, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	fields, refs, err := marshalRequestJSON(req)
	if err != nil {
		return err
	}

	_, err = r.exec(ctx, stmt,
		req.ID,
		req.OwnerID,
		req.Kind,
		req.Amount,
		fields,
		req.Status,
		req.Claimed,
		lockOperatorID(req.Lock),
		lockOperatorLabel(req.Lock),
		refs,
		nullableID(req.HoldID),
		req.Version,
		req.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("enqueue request: %w", err)
	}
	return nil
}

func (r *RequestRepository) Get(ctx context.Context, id string) (domain.Request, error) {
	const query = `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`
	return r.scanRequest(r.queryRow(ctx, query, id))
}

func (r *RequestRepository) ListQueued(ctx context.Context, limit int) ([]domain.Request, error) {
	const query = `
SELECT ` + requestColumns + `
FROM requests
WHERE status = 'queued'
ORDER BY created_at ASC
LIMIT $1`

	rows, err := r.query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list queued: %w", err)
	}
	defer rows.Close()

	var out []domain.Request
	for rows.Next() {
		req, err := r.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list queued: %w", err)
	}
	return out, nil
}

func (r *RequestRepository) CountQueued(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM requests WHERE status = 'queued'`

	var n int
	if err := r.queryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count queued: %w", err)
	}
	return n, nil
}

// Update applies mutate to the current row under compare-and-swap on the
// version column. It returns domain.ErrStoreConflict when a concurrent
// writer changed the row between read and write; callers retry or abort.
func (r *RequestRepository) Update(ctx context.Context, id string, mutate func(req *domain.Request) error) (domain.Request, error) {
	req, err := r.Get(ctx, id)
	if err != nil {
		return domain.Request{}, err
	}
	readVersion := req.Version

	if err := mutate(&req); err != nil {
		return domain.Request{}, err
	}

	const stmt = `
UPDATE requests
SET kind = $2, amount = $3, fields = $4, status = $5, claimed = $6,
    locked_by = $7, locked_label = $8, delivery_refs = $9, hold_id = $10,
    created_at = $11, version = version + 1
WHERE id = $1 AND version = $12`

	fields, refs, err := marshalRequestJSON(req)
	if err != nil {
		return domain.Request{}, err
	}

	tag, err := r.exec(ctx, stmt,
		req.ID,
		req.Kind,
		req.Amount,
		fields,
		req.Status,
		req.Claimed,
		lockOperatorID(req.Lock),
		lockOperatorLabel(req.Lock),
		refs,
		nullableID(req.HoldID),
		req.CreatedAt,
		readVersion,
	)
	if err != nil {
		return domain.Request{}, fmt.Errorf("update request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return domain.Request{}, err
		}
		return domain.Request{}, domain.ErrStoreConflict
	}

	req.Version = readVersion + 1
	return req, nil
}

// Postpone pushes the request to the back of the FIFO order: created_at is
// rewritten to now, lock and claim are cleared, and recorded delivery views
// are dropped so the dispatcher announces it again.
func (r *RequestRepository) Postpone(ctx context.Context, id string, now time.Time) error {
	const stmt = `
UPDATE requests
SET created_at = $2, status = 'queued', claimed = FALSE,
    locked_by = NULL, locked_label = NULL, delivery_refs = '[]',
    version = version + 1
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id, now)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("postpone request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepository) Remove(ctx context.Context, id string) error {
	const stmt = `DELETE FROM requests WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("remove request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepository) scanRequest(row pgx.Row) (domain.Request, error) {
	var (
		req         domain.Request
		kind        string
		status      string
		fieldsRaw   []byte
		refsRaw     []byte
		lockedBy    *int64
		lockedLabel *string
		holdID      *string
	)

	err := row.Scan(
		&req.ID,
		&req.OwnerID,
		&kind,
		&req.Amount,
		&fieldsRaw,
		&status,
		&req.Claimed,
		&lockedBy,
		&lockedLabel,
		&refsRaw,
		&holdID,
		&req.Version,
		&req.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Request{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Request{}, domain.ErrRequestNotFound
		}
		return domain.Request{}, fmt.Errorf("scan request: %w", err)
	}

	req.Kind = domain.RequestKind(kind)
	req.Status = domain.RequestStatus(status)
	if lockedBy != nil {
		lock := domain.Lock{OperatorID: *lockedBy}
		if lockedLabel != nil {
			lock.OperatorLabel = *lockedLabel
		}
		req.Lock = &lock
	}
	if holdID != nil {
		req.HoldID = *holdID
	}
	if len(fieldsRaw) > 0 {
		if err := json.Unmarshal(fieldsRaw, &req.Fields); err != nil {
			return domain.Request{}, fmt.Errorf("decode request fields: %w", err)
		}
	}
	if len(refsRaw) > 0 {
		if err := json.Unmarshal(refsRaw, &req.DeliveryRefs); err != nil {
			return domain.Request{}, fmt.Errorf("decode delivery refs: %w", err)
		}
	}
	return req, nil
}

func marshalRequestJSON(req domain.Request) (fields, refs []byte, err error) {
	f := req.Fields
	if f == nil {
		f = map[string]any{}
	}
	fields, err = json.Marshal(f)
	if err != nil {
		return nil, nil, fmt.Errorf("encode request fields: %w", err)
	}

	d := req.DeliveryRefs
	if d == nil {
		d = []domain.DeliveryRef{}
	}
	refs, err = json.Marshal(d)
	if err != nil {
		return nil, nil, fmt.Errorf("encode delivery refs: %w", err)
	}
	return fields, refs, nil
}

func lockOperatorID(lock *domain.Lock) *int64 {
	if lock == nil {
		return nil
	}
	return &lock.OperatorID
}

func lockOperatorLabel(lock *domain.Lock) *string {
	if lock == nil {
		return nil
	}
	return &lock.OperatorLabel
}

func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func (r *RequestRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *RequestRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *RequestRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
