package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/houssin11/houssin9098/internal/clock"
	"github.com/houssin11/houssin9098/internal/domain"
)

// Settlement performs the kind-specific effect of accepting a request:
// record a purchase, credit a recipient, and so on. Implementations run
// after the hold is captured; the money movement is already final.
type Settlement func(ctx context.Context, req domain.Request) error

// SettlementTable maps request kinds to their settlement effect. Kinds
// without an explicit handler fall back to recording a plain purchase.
type SettlementTable struct {
	handlers map[domain.RequestKind]Settlement
	fallback Settlement
}

// NewSettlementTable builds the default table used by the resolution state
// machine.
func NewSettlementTable(ledger *LedgerService, recorder PurchaseRecorder, clk clock.Clock) *SettlementTable {
	record := func(ctx context.Context, req domain.Request) error {
		return recorder.RecordPurchase(ctx, domain.Purchase{
			ID:        newID(),
			OwnerID:   req.OwnerID,
			Kind:      req.Kind,
			Reference: requestReference(req.Fields),
			Amount:    req.Amount,
			CreatedAt: clk.Now(),
		})
	}

	t := &SettlementTable{
		handlers: map[domain.RequestKind]Settlement{},
		fallback: record,
	}

	t.Register(domain.KindTopUp, func(ctx context.Context, req domain.Request) error {
		return ledger.Credit(ctx, req.OwnerID, req.Amount, "wallet top-up")
	})
	t.Register(domain.KindWalletTransfer, func(ctx context.Context, req domain.Request) error {
		recipient, ok := fieldInt64(req.Fields, "to_owner_id")
		if !ok {
			return fmt.Errorf("wallet transfer %s: missing to_owner_id", req.ID)
		}
		if err := ledger.Credit(ctx, recipient, req.Amount, fmt.Sprintf("wallet transfer from %d", req.OwnerID)); err != nil {
			return err
		}
		return record(ctx, req)
	})
	for _, kind := range []domain.RequestKind{
		domain.KindOrder,
		domain.KindUnitsBill,
		domain.KindInternet,
		domain.KindUniversityFees,
		domain.KindCashTransfer,
		domain.KindCompanyTransfer,
		domain.KindAds,
		domain.KindMedia,
	} {
		t.Register(kind, record)
	}
	return t
}

// Register installs or replaces the handler for a kind.
func (t *SettlementTable) Register(kind domain.RequestKind, fn Settlement) {
	t.handlers[kind] = fn
}

// For returns the handler for a kind, or the fallback.
func (t *SettlementTable) For(kind domain.RequestKind) Settlement {
	if fn, ok := t.handlers[kind]; ok {
		return fn
	}
	return t.fallback
}

// referenceKeys is the preference order for pulling a destination
// identifier out of kind-specific fields.
var referenceKeys = []string{
	"number", "beneficiary_number", "msisdn", "phone", "player_id",
	"account", "account_id", "target_id", "username", "code", "serial", "to",
}

func requestReference(fields map[string]any) string {
	for _, key := range referenceKeys {
		v, ok := fields[key]
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case float64:
			return strconv.FormatInt(int64(s), 10)
		case int64:
			return strconv.FormatInt(s, 10)
		case int:
			return strconv.Itoa(s)
		}
	}
	return ""
}

func fieldInt64(fields map[string]any, key string) (int64, bool) {
	v, ok := fields[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}
