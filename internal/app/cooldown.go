package app

import (
	"context"
	"sync"
	"time"

	"github.com/houssin11/houssin9098/internal/clock"
)

// MemoryGate is a process-local cooldown gate for single-instance runs and
// tests. Deployments with more than one instance share the window through
// the Redis gate instead.
type MemoryGate struct {
	mu    sync.Mutex
	clock clock.Clock
	until time.Time
}

func NewMemoryGate(clk clock.Clock) *MemoryGate {
	return &MemoryGate{clock: clk}
}

func (g *MemoryGate) Start(_ context.Context, window time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.until = g.clock.Now().Add(window)
	return nil
}

func (g *MemoryGate) Active(_ context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clock.Now().Before(g.until), nil
}
