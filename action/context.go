package action

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"oss.jalse.dev/jalse/bindings"
	"oss.jalse.dev/jalse/id"
)

var seqCounter atomic.Int64

// engineHandle is the unexported contract a concrete engine gives to
// every ActionContext it creates, letting the context drive its own
// scheduling without the context package needing to know which of the
// three engine backings (spec §4.4.a/b/c) it belongs to.
type engineHandle[T any] interface {
	enqueue(ctx *actionContext[T]) error
	dequeueWaiting(ctx *actionContext[T])
	stopped() bool
	engineBindings() *bindings.Bindings
}

// ActionContext is the per-schedule handle for one Action (spec §4.2).
type ActionContext[T any] interface {
	ID() id.Identifier
	Action() Action[T]
	Actor() (actor T, ok bool)
	SetActor(actor T)

	InitialDelay() time.Duration
	SetInitialDelay(d time.Duration) error
	Period() time.Duration
	SetPeriod(d time.Duration) error
	SetPeriodicOnException(v bool)
	PeriodicOnException() bool

	Schedule() error
	ScheduleAndAwait(ctx context.Context) error
	Await(ctx context.Context) error
	Cancel() bool

	IsDone() bool
	IsCancelled() bool
	IsPerforming() bool

	Bindings() *bindings.Bindings
	Put(key string, value any) error
	Get(key string) (any, bool)
	Remove(key string) (any, bool)
}

// actionContext is the concrete ActionContext implementation shared by
// all three engine backings.
type actionContext[T any] struct {
	id id.Identifier
	seq int64

	act  Action[T]
	home engineHandle[T]
	bnd  *bindings.Bindings

	mu                  sync.Mutex
	actor               T
	hasActor            bool
	initialDelay        time.Duration
	period              time.Duration
	periodicOnException bool
	estimated           time.Time
	scheduledOnce       bool

	done       atomic.Bool
	cancelled  atomic.Bool
	performing atomic.Bool

	doneOnce sync.Once
	doneCh   chan struct{}

	doneCallbacksMu sync.Mutex
	doneCallbacks   []func()
}

func newActionContext[T any](act Action[T], home engineHandle[T], sourceBindings *bindings.Bindings) *actionContext[T] {
	return &actionContext[T]{
		id:    id.New(),
		seq:    seqCounter.Add(1),
		act:    act,
		home:   home,
		bnd:    bindings.CopyOf(sourceBindings),
		doneCh: make(chan struct{}),
	}
}

func (c *actionContext[T]) ID() id.Identifier { return c.id }

func (c *actionContext[T]) Action() Action[T] { return c.act }

func (c *actionContext[T]) Actor() (actor T, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.actor, c.hasActor
}

func (c *actionContext[T]) SetActor(actor T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actor = actor
	c.hasActor = true
}

func (c *actionContext[T]) InitialDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialDelay
}

func (c *actionContext[T]) SetInitialDelay(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: initial delay must be >= 0, got %s", ErrInvalidArgument, d)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initialDelay = d
	return nil
}

func (c *actionContext[T]) Period() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.period
}

func (c *actionContext[T]) SetPeriod(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: period must be >= 0, got %s", ErrInvalidArgument, d)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.period = d
	return nil
}

func (c *actionContext[T]) SetPeriodicOnException(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.periodicOnException = v
}

func (c *actionContext[T]) PeriodicOnException() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.periodicOnException
}

func (c *actionContext[T]) isPeriodic() bool {
	return c.Period() > 0
}

// Schedule enqueues this context on its owning engine if it is not
// already done. Per spec it is safe to call more than once while
// waiting — it just re-adds (the queue itself de-duplicates by id).
func (c *actionContext[T]) Schedule() error {
	if c.home.stopped() {
		return ErrEngineStopped
	}
	if c.IsDone() {
		return ErrAlreadyDone
	}
	c.mu.Lock()
	if !c.scheduledOnce {
		c.estimated = time.Now().Add(c.initialDelay)
		c.scheduledOnce = true
	}
	c.mu.Unlock()
	return c.home.enqueue(c)
}

func (c *actionContext[T]) ScheduleAndAwait(ctx context.Context) error {
	if c.isPeriodic() {
		return ErrPeriodicAwaitUnsupported
	}
	if err := c.Schedule(); err != nil {
		return err
	}
	return c.Await(ctx)
}

func (c *actionContext[T]) Await(ctx context.Context) error {
	if c.isPeriodic() {
		return ErrPeriodicAwaitUnsupported
	}
	select {
	case <-c.doneCh:
		if c.IsCancelled() {
			return ErrCancellation
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrCancellation, ctx.Err())
	}
}

// Cancel marks the context done+cancelled, removes it from its
// engine's waiting queue if present, and wakes any Await callers. It
// is idempotent: it returns false if the context was already done.
func (c *actionContext[T]) Cancel() bool {
	if !c.done.CompareAndSwap(false, true) {
		return false
	}
	c.cancelled.Store(true)
	c.home.dequeueWaiting(c)
	c.finish()
	return true
}

// finish closes doneCh exactly once and runs completion callbacks
// (used by the per-actor scheduler's weak-retention pruning).
func (c *actionContext[T]) finish() {
	c.doneOnce.Do(func() {
		close(c.doneCh)
	})
	c.doneCallbacksMu.Lock()
	callbacks := c.doneCallbacks
	c.doneCallbacks = nil
	c.doneCallbacksMu.Unlock()
	for _, cb := range callbacks {
		cb()
	}
}

// onDone registers a callback invoked exactly once when the context
// reaches done. If the context is already done, it runs immediately.
func (c *actionContext[T]) onDone(cb func()) {
	if c.IsDone() {
		cb()
		return
	}
	c.doneCallbacksMu.Lock()
	if c.IsDone() {
		c.doneCallbacksMu.Unlock()
		cb()
		return
	}
	c.doneCallbacks = append(c.doneCallbacks, cb)
	c.doneCallbacksMu.Unlock()
}

func (c *actionContext[T]) IsDone() bool       { return c.done.Load() }
func (c *actionContext[T]) IsCancelled() bool  { return c.cancelled.Load() }
func (c *actionContext[T]) IsPerforming() bool { return c.performing.Load() }

func (c *actionContext[T]) Bindings() *bindings.Bindings { return c.bnd }

func (c *actionContext[T]) Put(key string, value any) error {
	return c.bnd.Put(key, value)
}

func (c *actionContext[T]) Get(key string) (any, bool) {
	return c.bnd.Get(key)
}

func (c *actionContext[T]) Remove(key string) (any, bool) {
	return c.bnd.Remove(key)
}

func (c *actionContext[T]) estimatedFireTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.estimated
}

func (c *actionContext[T]) setEstimatedFireTime(t time.Time) {
	c.mu.Lock()
	c.estimated = t
	c.mu.Unlock()
}

// beginPerform transitions waiting -> performing. Returns false if the
// context is already done (e.g. cancelled while queued).
func (c *actionContext[T]) beginPerform() bool {
	if c.IsDone() {
		return false
	}
	c.performing.Store(true)
	return true
}

// endPerformElapsed applies the post-perform transition described in spec
// §4.2's state machine and returns true if the context should be
// re-enqueued (elapsed-time periodicity: estimated = now + period).
// Fixed-rate engines (ThreadPool) do not call this; they manage their
// own re-arming.
func (c *actionContext[T]) endPerformElapsed(performErr error, isCancellation func(error) bool) (reschedule bool) {
	c.performing.Store(false)
	if isCancellation(performErr) {
		c.cancelled.Store(true)
		c.done.Store(true)
		c.finish()
		return false
	}
	period := c.Period()
	if performErr != nil {
		if period > 0 && c.PeriodicOnException() {
			c.setEstimatedFireTime(time.Now().Add(period))
			return true
		}
		c.done.Store(true)
		c.finish()
		return false
	}
	if period <= 0 {
		c.done.Store(true)
		c.finish()
		return false
	}
	if c.IsCancelled() {
		c.done.Store(true)
		c.finish()
		return false
	}
	c.setEstimatedFireTime(time.Now().Add(period))
	return true
}
