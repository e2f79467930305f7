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

func TestRequestRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewRequestRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("Enqueue and Get round-trip", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		id := uuid.NewString()
		err := repo.Enqueue(ctx, domain.Request{
			ID:      id,
			OwnerID: 7,
			Kind:    domain.KindOrder,
			Amount:  4_000,
			Fields:  map[string]any{"number": "0933111222"},
			Status:  domain.RequestStatusQueued,
			Version: 1,
			CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("enqueue: %v", err)
		}

		req, err := repo.Get(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if req.OwnerID != 7 || req.Kind != domain.KindOrder || req.Amount != 4_000 {
			t.Fatalf("unexpected request: %+v", req)
		}
		if req.Fields["number"] != "0933111222" {
			t.Fatalf("unexpected fields: %+v", req.Fields)
		}
		if req.Lock != nil || req.Claimed || req.Version != 1 {
			t.Fatalf("expected fresh request, got %+v", req)
		}
	})

	t.Run("Get maps not found and invalid IDs", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		if _, err := repo.Get(ctx, uuid.NewString()); !errors.Is(err, domain.ErrRequestNotFound) {
			t.Fatalf("expected ErrRequestNotFound, got %v", err)
		}
		if _, err := repo.Get(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("ListQueued is FIFO and excludes claimed requests", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		first := uuid.NewString()
		second := uuid.NewString()
		claimed := uuid.NewString()

		testutil.InsertRequest(t, ctx, pool, domain.Request{
			ID: second, OwnerID: 8, Kind: domain.KindOrder, CreatedAt: base.Add(time.Minute),
		})
		testutil.InsertRequest(t, ctx, pool, domain.Request{
			ID: first, OwnerID: 7, Kind: domain.KindOrder, CreatedAt: base,
		})
		testutil.InsertRequest(t, ctx, pool, domain.Request{
			ID: claimed, OwnerID: 9, Kind: domain.KindOrder,
			Status: domain.RequestStatusClaimed, Claimed: true, CreatedAt: base.Add(-time.Minute),
		})

		queued, err := repo.ListQueued(ctx, 10)
		if err != nil {
			t.Fatalf("list queued: %v", err)
		}
		if len(queued) != 2 {
			t.Fatalf("expected 2 queued, got %d", len(queued))
		}
		if queued[0].ID != first || queued[1].ID != second {
			t.Fatalf("expected FIFO order [%s %s], got [%s %s]", first, second, queued[0].ID, queued[1].ID)
		}

		count, err := repo.CountQueued(ctx)
		if err != nil {
			t.Fatalf("count queued: %v", err)
		}
		if count != 2 {
			t.Fatalf("expected count 2, got %d", count)
		}
	})

	t.Run("Update applies the mutation under compare-and-swap", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		id := uuid.NewString()
		testutil.InsertRequest(t, ctx, pool, domain.Request{
			ID: id, OwnerID: 7, Kind: domain.KindOrder, Amount: 4_000,
		})

		updated, err := repo.Update(ctx, id, func(req *domain.Request) error {
			req.Lock = &domain.Lock{OperatorID: 100, OperatorLabel: "selma"}
			req.Claimed = true
			req.Status = domain.RequestStatusClaimed
			return nil
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Version != 2 {
			t.Fatalf("expected version 2, got %d", updated.Version)
		}

		stored, err := repo.Get(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !stored.LockedBy(100) || stored.Lock.OperatorLabel != "selma" {
			t.Fatalf("expected lock persisted, got %+v", stored.Lock)
		}
		if !stored.Claimed || stored.Status != domain.RequestStatusClaimed {
			t.Fatalf("expected claim persisted, got %+v", stored)
		}
	})

	t.Run("Update reports a conflict when the version moved", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		id := uuid.NewString()
		testutil.InsertRequest(t, ctx, pool, domain.Request{
			ID: id, OwnerID: 7, Kind: domain.KindOrder,
		})

		_, err := repo.Update(ctx, id, func(req *domain.Request) error {
			// A concurrent writer bumps the version between this read and
			// the guarded write.
			_, execErr := pool.Exec(ctx, `UPDATE requests SET version = version + 1 WHERE id = $1`, id)
			return execErr
		})
		if !errors.Is(err, domain.ErrStoreConflict) {
			t.Fatalf("expected ErrStoreConflict, got %v", err)
		}
	})

	t.Run("Update surfaces mutator errors without writing", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		id := uuid.NewString()
		testutil.InsertRequest(t, ctx, pool, domain.Request{
			ID: id, OwnerID: 7, Kind: domain.KindOrder,
		})

		boom := errors.New("boom")
		if _, err := repo.Update(ctx, id, func(*domain.Request) error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}

		stored, err := repo.Get(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if stored.Version != 1 {
			t.Fatalf("expected version unchanged, got %d", stored.Version)
		}
	})

	t.Run("Postpone moves the request to the back and clears delivery state", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		postponed := uuid.NewString()
		other := uuid.NewString()

		testutil.InsertRequest(t, ctx, pool, domain.Request{
			ID: postponed, OwnerID: 7, Kind: domain.KindOrder,
			Status: domain.RequestStatusClaimed, Claimed: true,
			Lock: &domain.Lock{OperatorID: 100, OperatorLabel: "selma"},
			DeliveryRefs: []domain.DeliveryRef{
				{OperatorChannel: 100, MessageRef: "m-100"},
			},
			CreatedAt: base,
		})
		testutil.InsertRequest(t, ctx, pool, domain.Request{
			ID: other, OwnerID: 8, Kind: domain.KindOrder, CreatedAt: base.Add(time.Minute),
		})

		if err := repo.Postpone(ctx, postponed, base.Add(2*time.Minute)); err != nil {
			t.Fatalf("postpone: %v", err)
		}

		req, err := repo.Get(ctx, postponed)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if req.Claimed || req.Lock != nil || req.Status != domain.RequestStatusQueued {
			t.Fatalf("expected claim and lock cleared, got %+v", req)
		}
		if len(req.DeliveryRefs) != 0 {
			t.Fatalf("expected delivery refs cleared, got %+v", req.DeliveryRefs)
		}
		if req.Version != 2 {
			t.Fatalf("expected version bumped, got %d", req.Version)
		}

		queued, err := repo.ListQueued(ctx, 10)
		if err != nil {
			t.Fatalf("list queued: %v", err)
		}
		if len(queued) != 2 || queued[0].ID != other || queued[1].ID != postponed {
			t.Fatalf("expected postponed request last, got %+v", queued)
		}

		if err := repo.Postpone(ctx, uuid.NewString(), base); !errors.Is(err, domain.ErrRequestNotFound) {
			t.Fatalf("expected ErrRequestNotFound, got %v", err)
		}
	})

	t.Run("Remove deletes exactly one request", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		id := uuid.NewString()
		testutil.InsertRequest(t, ctx, pool, domain.Request{
			ID: id, OwnerID: 7, Kind: domain.KindOrder,
		})

		if err := repo.Remove(ctx, id); err != nil {
			t.Fatalf("remove: %v", err)
		}
		if err := repo.Remove(ctx, id); !errors.Is(err, domain.ErrRequestNotFound) {
			t.Fatalf("expected ErrRequestNotFound, got %v", err)
		}
	})

	t.Run("hold reference round-trips", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertAccount(t, ctx, pool, 7, 10_000)

		holdID := uuid.NewString()
		testutil.InsertHold(t, ctx, pool, domain.Hold{
			ID: holdID, OwnerID: 7, Amount: 4_000, Status: domain.HoldStatusOpen,
		})

		id := uuid.NewString()
		testutil.InsertRequest(t, ctx, pool, domain.Request{
			ID: id, OwnerID: 7, Kind: domain.KindOrder, Amount: 4_000, HoldID: holdID,
		})

		req, err := repo.Get(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if req.HoldID != holdID {
			t.Fatalf("expected hold %s, got %q", holdID, req.HoldID)
		}
	})
}
