// Package broker implements the in-process publish/subscribe hub that fans
// completed generation results out to live listeners. Delivery is decoupled
// from the broker lock by a bounded per-subscriber queue drained into the
// subscriber's sink by a dedicated goroutine, so a slow or stuck transport
// can never stall publication to other subscribers.
package broker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default timing and buffering. Intervals are configurable through Options
// so tests do not have to wait on wall-clock ticks.
const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultSweepInterval     = 30 * time.Second
	DefaultStaleAfter        = 120 * time.Second
	DefaultQueueSize         = 16
)

// Options tunes broker timing and per-subscriber queue depth
type Options struct {
	HeartbeatInterval time.Duration
	SweepInterval     time.Duration
	StaleAfter        time.Duration
	QueueSize         int
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{
		HeartbeatInterval: DefaultHeartbeatInterval,
		SweepInterval:     DefaultSweepInterval,
		StaleAfter:        DefaultStaleAfter,
		QueueSize:         DefaultQueueSize,
	}
}

// subscription is one registered listener. States: active, then closed
// (terminal). lastDelivery is only advanced on a successful sink write.
type subscription struct {
	id           string
	filter       Filter
	sink         Sink
	queue        chan Event
	closed       bool
	lastDelivery time.Time
}

// Broker owns the subscription set. All bookkeeping happens under one
// mutex; sink writes happen outside it in per-subscriber goroutines.
type Broker struct {
	mu     sync.Mutex
	subs   map[string]*subscription
	opts   Options
	logger *zap.Logger
}

// New creates a broker with production defaults.
func New(logger *zap.Logger) *Broker {
	return NewWithOptions(DefaultOptions(), logger)
}

// NewWithOptions creates a broker with explicit timing options.
func NewWithOptions(opts Options, logger *zap.Logger) *Broker {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	return &Broker{
		subs:   make(map[string]*subscription),
		opts:   opts,
		logger: logger,
	}
}

// Subscribe registers a new active subscription and immediately queues a
// connected event carrying the assigned id and the echoed filter. Returns
// the subscription id.
func (b *Broker) Subscribe(filter Filter, sink Sink) string {
	sub := &subscription{
		id:           uuid.New().String(),
		filter:       filter,
		sink:         sink,
		queue:        make(chan Event, b.opts.QueueSize),
		lastDelivery: time.Now(),
	}

	b.mu.Lock()
	b.subs[sub.id] = sub
	f := filter
	b.enqueueLocked(sub, Event{
		Type:      EventConnected,
		Timestamp: time.Now(),
		ClientID:  sub.id,
		Filter:    &f,
	})
	b.mu.Unlock()

	go b.drain(sub)

	b.logger.Debug("subscriber registered", zap.String("subscription_id", sub.id))
	return sub.id
}

// Publish delivers a response payload to every active subscription whose
// filter matches its matchkeys. A subscriber whose queue is full is closed;
// delivery to the rest continues.
func (b *Broker) Publish(payload *ResponsePayload) {
	event := Event{
		Type:      EventResponse,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if sub.closed || !sub.filter.Matches(payload) {
			continue
		}
		b.enqueueLocked(sub, event)
	}
}

// Unsubscribe removes a subscription. Idempotent.
func (b *Broker) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[id]
	if !ok {
		return
	}
	b.closeLocked(sub)
	delete(b.subs, id)
	b.logger.Debug("subscriber removed", zap.String("subscription_id", id))
}

// SubscriberCount reports the number of registered subscriptions, including
// closed ones not yet swept.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// StartHeartbeat delivers a ping to every active subscription on the
// configured interval until ctx is canceled. Keeps idle transports from
// timing out; a failed ping closes the subscription like any failed publish.
func (b *Broker) StartHeartbeat(ctx context.Context) {
	ticker := time.NewTicker(b.opts.HeartbeatInterval)
	defer ticker.Stop()

	b.logger.Info("broker heartbeat started",
		zap.Duration("interval", b.opts.HeartbeatInterval))

	for {
		select {
		case <-ticker.C:
			b.heartbeat()
		case <-ctx.Done():
			b.logger.Info("broker heartbeat stopped")
			return
		}
	}
}

// heartbeat queues a ping for every active subscription.
func (b *Broker) heartbeat() {
	event := Event{Type: EventPing, Timestamp: time.Now()}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if sub.closed {
			continue
		}
		b.enqueueLocked(sub, event)
	}
}

// sweep removes closed subscriptions and those with no successful delivery
// within staleAfter. Returns the number removed.
func (b *Broker) sweep(staleAfter time.Duration) int {
	cutoff := time.Now().Add(-staleAfter)

	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for id, sub := range b.subs {
		if !sub.closed && sub.lastDelivery.After(cutoff) {
			continue
		}
		b.closeLocked(sub)
		delete(b.subs, id)
		removed++
	}
	return removed
}

// enqueueLocked attempts a non-blocking write to the subscriber's queue.
// A full queue means the drain goroutine is stuck on its sink; the
// subscription is closed rather than blocking the publisher. Caller holds
// the broker lock.
func (b *Broker) enqueueLocked(sub *subscription, event Event) {
	if sub.closed {
		return
	}
	select {
	case sub.queue <- event:
	default:
		b.logger.Warn("subscriber queue full, closing subscription",
			zap.String("subscription_id", sub.id))
		b.closeLocked(sub)
	}
}

// closeLocked transitions a subscription to its terminal state and closes
// its queue so the drain goroutine exits. Caller holds the broker lock; the
// lock is what makes close safe against concurrent enqueues.
func (b *Broker) closeLocked(sub *subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.queue)
}

// drain is the per-subscriber delivery loop: it moves events from the
// bounded queue into the sink, preserving publish order for this
// subscriber. A sink error closes the subscription.
func (b *Broker) drain(sub *subscription) {
	for event := range sub.queue {
		if err := sub.sink.Send(event); err != nil {
			b.logger.Debug("sink delivery failed, closing subscription",
				zap.String("subscription_id", sub.id),
				zap.Error(err))
			b.mu.Lock()
			b.closeLocked(sub)
			b.mu.Unlock()
			return
		}
		b.mu.Lock()
		sub.lastDelivery = time.Now()
		b.mu.Unlock()
	}
}
