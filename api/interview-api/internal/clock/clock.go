// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package internal_clock

import (
	"sync"
	"time"

	"github.com/interviaai/pkg/commons"
)

// Kind discriminates the two countdown timers an interview session owns.
type Kind int

const (
	// KindPrep is the inter-question preparation countdown.
	KindPrep Kind = iota
	// KindAnswer is the per-question answer timer.
	KindAnswer
)

func (k Kind) String() string {
	if k == KindPrep {
		return "prep"
	}
	return "answer"
}

// Clock owns the session's countdown timers. Only one timer per kind may be
// active; starting a new one implicitly cancels the previous one of the same
// kind. Expiry fires exactly once per handle and cancellation is idempotent.
type Clock struct {
	logger commons.Logger
	tick   time.Duration

	mu     sync.Mutex
	active map[Kind]*Timer
}

// Option configures a Clock.
type Option func(*Clock)

// WithTick overrides the observable tick granularity (default one second).
func WithTick(d time.Duration) Option {
	return func(c *Clock) { c.tick = d }
}

func New(logger commons.Logger, opts ...Option) *Clock {
	c := &Clock{
		logger: logger,
		tick:   time.Second,
		active: make(map[Kind]*Timer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartPrepTimer starts the preparation countdown.
func (c *Clock) StartPrepTimer(d time.Duration, onTick func(remaining time.Duration), onExpire func()) *Timer {
	return c.start(KindPrep, d, onTick, onExpire)
}

// StartAnswerTimer starts the answer timer.
func (c *Clock) StartAnswerTimer(d time.Duration, onTick func(remaining time.Duration), onExpire func()) *Timer {
	return c.start(KindAnswer, d, onTick, onExpire)
}

func (c *Clock) start(kind Kind, d time.Duration, onTick func(time.Duration), onExpire func()) *Timer {
	c.mu.Lock()
	if prev := c.active[kind]; prev != nil {
		prev.Cancel()
	}

	t := &Timer{
		kind:     kind,
		deadline: time.Now().Add(d),
		done:     make(chan struct{}),
	}
	t.timer = time.AfterFunc(d, func() {
		t.resolve.Do(func() {
			t.expired = true
			close(t.done)
			onExpire()
		})
	})
	c.active[kind] = t
	c.mu.Unlock()

	if onTick != nil {
		go t.runTicks(c.tick, onTick)
	}

	c.logger.Debugf("%s timer started: duration=%s", kind, d)
	return t
}

// CancelAll cancels whatever timers are active. Used on session teardown.
func (c *Clock) CancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.active {
		t.Cancel()
	}
}

// Timer is a single-use countdown handle. Exactly one of expiry or
// cancellation resolves it; whichever comes second is a no-op.
type Timer struct {
	kind     Kind
	deadline time.Time
	timer    *time.Timer
	resolve  sync.Once
	done     chan struct{}
	expired  bool
}

// Cancel stops the timer without firing its expiry callback. Idempotent:
// cancelling an already-fired or already-cancelled timer is a no-op.
func (t *Timer) Cancel() {
	t.resolve.Do(func() {
		t.timer.Stop()
		close(t.done)
	})
}

// Done closes once the timer has resolved, by expiry or cancellation.
func (t *Timer) Done() <-chan struct{} {
	return t.done
}

// Expired reports whether the timer resolved by expiry.
func (t *Timer) Expired() bool {
	select {
	case <-t.done:
		return t.expired
	default:
		return false
	}
}

// Remaining is the countdown value for display. It is observational only;
// transitions are driven solely by the expiry callback.
func (t *Timer) Remaining() time.Duration {
	r := time.Until(t.deadline)
	if r < 0 {
		return 0
	}
	return r
}

func (t *Timer) runTicks(tick time.Duration, onTick func(time.Duration)) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			onTick(t.Remaining())
		}
	}
}
