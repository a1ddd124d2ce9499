package broker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically reaps dead subscriptions: ones already closed by a
// delivery failure, and ones whose transport went silent without ever
// signaling closure (no successful delivery within the staleness window).
// Sweeping takes the broker lock only briefly and never blocks publishers.
type Sweeper struct {
	broker *Broker
	logger *zap.Logger
}

// NewSweeper creates a sweeper for the broker. Interval and staleness come
// from the broker's options.
func NewSweeper(b *Broker, logger *zap.Logger) *Sweeper {
	return &Sweeper{broker: b, logger: logger}
}

// Run sweeps on the configured interval until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.broker.opts.SweepInterval)
	defer ticker.Stop()

	s.logger.Info("liveness sweeper started",
		zap.Duration("interval", s.broker.opts.SweepInterval),
		zap.Duration("stale_after", s.broker.opts.StaleAfter))

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-ctx.Done():
			s.logger.Info("liveness sweeper stopped")
			return
		}
	}
}

// Sweep runs one reaping pass and returns the number of subscriptions
// removed.
func (s *Sweeper) Sweep() int {
	removed := s.broker.sweep(s.broker.opts.StaleAfter)
	if removed > 0 {
		s.logger.Info("swept dead subscriptions", zap.Int("removed", removed))
	}
	return removed
}
