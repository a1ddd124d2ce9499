package broker

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestSweeper_Sweep(t *testing.T) {
	opts := DefaultOptions()
	opts.StaleAfter = 50 * time.Millisecond
	b := NewWithOptions(opts, zaptest.NewLogger(t))
	s := NewSweeper(b, zaptest.NewLogger(t))

	live := &collectingSink{}
	b.Subscribe(Filter{}, live)
	waitFor(t, func() bool { return len(live.snapshot()) == 1 })

	if removed := s.Sweep(); removed != 0 {
		t.Errorf("Sweep() removed %d fresh subscriptions, want 0", removed)
	}

	// no delivery happens within the staleness window
	time.Sleep(80 * time.Millisecond)

	if removed := s.Sweep(); removed != 1 {
		t.Errorf("Sweep() removed %d subscriptions, want 1", removed)
	}
	if n := b.SubscriberCount(); n != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", n)
	}
}

func TestSweeper_Run(t *testing.T) {
	opts := DefaultOptions()
	opts.SweepInterval = 10 * time.Millisecond
	opts.StaleAfter = 10 * time.Millisecond
	b := NewWithOptions(opts, zaptest.NewLogger(t))
	s := NewSweeper(b, zaptest.NewLogger(t))

	sink := &collectingSink{}
	b.Subscribe(Filter{}, sink)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	waitFor(t, func() bool { return b.SubscriberCount() == 0 })
	cancel()
}
