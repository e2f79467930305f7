package gateway

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/houssin11/houssin9098/internal/domain"
)

// Log is a gateway that only logs. It stands in for the conversation layer
// when no webhook URL is configured, so the coordinator can run on its own.
type Log struct {
	logger *log.Logger
	refs   atomic.Int64
}

func NewLog(logger *log.Logger) *Log {
	if logger == nil {
		logger = log.Default()
	}
	return &Log{logger: logger}
}

func (g *Log) PushRequest(_ context.Context, operatorChannel int64, req domain.Request) (string, error) {
	ref := fmt.Sprintf("log-%d", g.refs.Add(1))
	g.logger.Printf("push request=%s kind=%s amount=%d channel=%d ref=%s", req.ID, req.Kind, req.Amount, operatorChannel, ref)
	return ref, nil
}

func (g *Log) DisableView(_ context.Context, ref domain.DeliveryRef) error {
	g.logger.Printf("disable view channel=%d ref=%s", ref.OperatorChannel, ref.MessageRef)
	return nil
}

func (g *Log) MarkLocked(_ context.Context, ref domain.DeliveryRef, operatorLabel string) error {
	g.logger.Printf("mark locked channel=%d ref=%s by=%s", ref.OperatorChannel, ref.MessageRef, operatorLabel)
	return nil
}

func (g *Log) Notify(_ context.Context, ownerID int64, message string) error {
	g.logger.Printf("notify owner=%d: %s", ownerID, message)
	return nil
}

func (g *Log) DepositSettled(_ context.Context, ownerID int64) error {
	g.logger.Printf("deposit settled owner=%d", ownerID)
	return nil
}
