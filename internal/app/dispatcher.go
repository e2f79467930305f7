package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/houssin11/houssin9098/internal/domain"
)

const (
	defaultDispatchInterval = 5 * time.Second
	defaultCooldownWindow   = 90 * time.Second
	defaultDispatchBatch    = 10
)

// Dispatcher is the background loop that announces queued requests to
// operator channels. After any resolution it goes quiet for a cooldown
// window so operators are not flooded right after clearing a backlog;
// in-flight views stay interactive during the window.
type Dispatcher struct {
	store     RequestStore
	gateway   OperatorGateway
	gate      CooldownGate
	logger    *log.Logger
	operators []int64
	interval  time.Duration
	window    time.Duration
	batch     int
}

type DispatcherConfig struct {
	Operators      []int64
	Interval       time.Duration
	CooldownWindow time.Duration
	BatchSize      int
}

func NewDispatcher(store RequestStore, gateway OperatorGateway, gate CooldownGate, logger *log.Logger, cfg DispatcherConfig) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultDispatchInterval
	}
	if cfg.CooldownWindow <= 0 {
		cfg.CooldownWindow = defaultCooldownWindow
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultDispatchBatch
	}
	return &Dispatcher{
		store:     store,
		gateway:   gateway,
		gate:      gate,
		logger:    logger,
		operators: cfg.Operators,
		interval:  cfg.Interval,
		window:    cfg.CooldownWindow,
		batch:     cfg.BatchSize,
	}
}

// Run loops until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.tick(ctx); err != nil {
				d.logger.Printf("dispatch tick: %v", err)
			}
		}
	}
}

// StartCooldown opens the quiet window. Gate failures are logged, not
// fatal: a missed cooldown floods operators, it does not corrupt state.
func (d *Dispatcher) StartCooldown(ctx context.Context) {
	if err := d.gate.Start(ctx, d.window); err != nil {
		d.logger.Printf("start cooldown: %v", err)
	}
}

func (d *Dispatcher) tick(ctx context.Context) error {
	active, err := d.gate.Active(ctx)
	if err != nil {
		return err
	}
	if active {
		return nil
	}

	reqs, err := d.store.ListQueued(ctx, d.batch)
	if err != nil {
		return err
	}

	for _, req := range reqs {
		// A locked request is already on someone's screen; stale views
		// were retracted when the lock was set.
		if req.Lock != nil {
			continue
		}
		d.announce(ctx, req)
	}
	return nil
}

// announce pushes the request to every operator channel that has not seen
// it yet, recording each delivered view so it can be retracted later.
func (d *Dispatcher) announce(ctx context.Context, req domain.Request) {
	for _, channel := range d.operators {
		if req.DeliveredTo(channel) {
			continue
		}

		ref, err := d.gateway.PushRequest(ctx, channel, req)
		if err != nil {
			d.logger.Printf("push request=%s channel=%d: %v", req.ID, channel, err)
			continue
		}

		mutate := func(r *domain.Request) error {
			// A lock landing between ListQueued and here means the lock
			// fan-out already ran; it never saw this view, so we must not
			// record it.
			if r.Lock != nil {
				return errRequestLocked
			}
			if r.DeliveredTo(channel) {
				return nil
			}
			r.DeliveryRefs = append(r.DeliveryRefs, domain.DeliveryRef{
				OperatorChannel: channel,
				MessageRef:      ref,
			})
			return nil
		}

		updated, err := d.store.Update(ctx, req.ID, mutate)
		if errors.Is(err, domain.ErrStoreConflict) {
			updated, err = d.store.Update(ctx, req.ID, mutate)
		}
		if errors.Is(err, errRequestLocked) {
			if derr := d.gateway.DisableView(ctx, domain.DeliveryRef{OperatorChannel: channel, MessageRef: ref}); derr != nil {
				d.logger.Printf("retract view request=%s channel=%d: %v", req.ID, channel, derr)
			}
			return
		}
		if err != nil {
			d.logger.Printf("record delivery request=%s channel=%d: %v", req.ID, channel, err)
			continue
		}
		req = updated
	}
}

var errRequestLocked = errors.New("request locked")
