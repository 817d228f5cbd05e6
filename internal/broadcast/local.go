package broadcast

import (
	"context"
	"sync"

	"github.com/walltab/walltab/internal/domain"
	"go.uber.org/zap"
)

// LocalBus is an in-process Broadcaster. It serves single-context runs and
// tests; multi-context convergence needs the session-bus transport.
type LocalBus struct {
	logger *zap.Logger

	mu   sync.RWMutex
	subs []func(domain.Message)
}

// NewLocalBus creates an in-process bus
func NewLocalBus(logger *zap.Logger) *LocalBus {
	return &LocalBus{logger: logger}
}

// Broadcast delivers msg synchronously to every subscriber
func (b *LocalBus) Broadcast(ctx context.Context, msg domain.Message) error {
	b.mu.RLock()
	subs := make([]func(domain.Message), len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	b.logger.Debug("Broadcasting message", zap.String("action", msg.Action))
	for _, fn := range subs {
		fn(msg)
	}
	return nil
}

// Subscribe registers fn for every future broadcast
func (b *LocalBus) Subscribe(fn func(domain.Message)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}
