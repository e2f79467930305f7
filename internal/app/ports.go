package app

import (
	"context"
	"time"

	"github.com/houssin11/houssin9098/internal/domain"
)

// RequestStore is the durable queue of pending requests. All lock/claim
// mutation goes through Update's compare-and-swap; nothing else may touch
// those fields.
type RequestStore interface {
	Enqueue(ctx context.Context, req domain.Request) error
	Get(ctx context.Context, id string) (domain.Request, error)
	ListQueued(ctx context.Context, limit int) ([]domain.Request, error)
	CountQueued(ctx context.Context) (int, error)
	Update(ctx context.Context, id string, mutate func(req *domain.Request) error) (domain.Request, error)
	Postpone(ctx context.Context, id string, now time.Time) error
	Remove(ctx context.Context, id string) error
}

// OperatorGateway is the conversation layer's side of request delivery.
// PushRequest displays a request to one operator channel and returns a
// message ref for later retraction. DisableView and MarkLocked are
// best-effort; the coordinator logs failures and moves on.
type OperatorGateway interface {
	PushRequest(ctx context.Context, operatorChannel int64, req domain.Request) (messageRef string, err error)
	DisableView(ctx context.Context, ref domain.DeliveryRef) error
	MarkLocked(ctx context.Context, ref domain.DeliveryRef, operatorLabel string) error
}

// CustomerNotifier delivers customer-facing messages. Delivery failures are
// the collaborator's problem; the coordinator only logs them.
type CustomerNotifier interface {
	Notify(ctx context.Context, ownerID int64, message string) error
}

// PurchaseRecorder archives the settlement effect of an accepted request.
type PurchaseRecorder interface {
	RecordPurchase(ctx context.Context, p domain.Purchase) error
}

// CooldownGate is the quiet-window gate the dispatcher consults before
// pushing new requests.
type CooldownGate interface {
	Start(ctx context.Context, window time.Duration) error
	Active(ctx context.Context) (bool, error)
}

// CooldownStarter is what resolution transitions see of the dispatcher.
type CooldownStarter interface {
	StartCooldown(ctx context.Context)
}

// DepositSettledFunc clears a collaborator-owned local guard after a
// deposit-type request is accepted or cancelled.
type DepositSettledFunc func(ctx context.Context, ownerID int64)
