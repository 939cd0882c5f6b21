package action

import (
	"sync"
	"time"
)

// ThreadPoolEngine is the fixed-rate backing described in spec §4.4.c.
// Unlike ForkJoin's elapsed-time re-scheduling, a periodic context on
// ThreadPoolEngine is re-armed against its own previous fire time plus
// exactly one period, computed once up front rather than recomputed
// from "now" after each perform returns (Open Question #1) — so a slow
// perform call does not push later occurrences later than scheduled.
// It is grounded on the precise-timer idiom in chrono/impl.go, adapted
// from a single background poller into one time.AfterFunc per
// context, which is the natural fixed-rate primitive the standard
// library offers and the one chrono itself falls back to for one-shot
// fires (chrono.Once).
type ThreadPoolEngine[T any] struct {
	engineState[T]

	mu      sync.Mutex
	armed   map[string]armedEntry[T]
	running sync.WaitGroup
}

type armedEntry[T any] struct {
	timer *time.Timer
	ctx   *actionContext[T]
}

// NewThreadPoolEngine constructs a ThreadPoolEngine. Unlike ForkJoin it
// has no fixed worker count: each armed context gets its own
// runtime-managed timer goroutine, matching time.AfterFunc semantics.
func NewThreadPoolEngine[T any]() *ThreadPoolEngine[T] {
	return &ThreadPoolEngine[T]{
		engineState: newEngineState[T](),
		armed:       make(map[string]armedEntry[T]),
	}
}

func (e *ThreadPoolEngine[T]) enqueue(ctx *actionContext[T]) error {
	if e.IsStopped() {
		return ErrEngineStopped
	}
	e.arm(ctx, ctx.estimatedFireTime())
	return nil
}

func (e *ThreadPoolEngine[T]) NewContext(act Action[T]) (ActionContext[T], error) {
	return e.newContext(act, e)
}

func (e *ThreadPoolEngine[T]) Schedule(act Action[T], actor T) (ActionContext[T], error) {
	ctx, err := e.newContext(act, e)
	if err != nil {
		return nil, err
	}
	ctx.SetActor(actor)
	if err := ctx.Schedule(); err != nil {
		return nil, err
	}
	return ctx, nil
}

// Pause prevents any currently-armed timer from firing its dispatch;
// already-firing dispatches are not interrupted. Timers already in
// flight when Pause is called will still fire but will check
// IsPaused and reschedule themselves without performing.
func (e *ThreadPoolEngine[T]) Pause() { e.pausedFlag.Store(true) }

func (e *ThreadPoolEngine[T]) Resume() { e.pausedFlag.Store(false) }

// Stop cancels every armed timer and every still-waiting context, then
// waits for any dispatch already in flight to finish.
func (e *ThreadPoolEngine[T]) Stop() error {
	if !e.stoppedFlag.CompareAndSwap(false, true) {
		return nil
	}
	e.mu.Lock()
	pending := make([]*actionContext[T], 0, len(e.armed))
	for id, entry := range e.armed {
		entry.timer.Stop()
		pending = append(pending, entry.ctx)
		delete(e.armed, id)
	}
	e.mu.Unlock()
	for _, ctx := range pending {
		ctx.Cancel()
	}
	e.running.Wait()
	e.notifyStopped()
	return nil
}

// dequeueWaiting overrides the embedded engineState's queue-based
// version: ThreadPoolEngine never puts contexts in the shared heap, it
// arms a timer per context directly, so cancellation must stop that
// timer instead.
func (e *ThreadPoolEngine[T]) dequeueWaiting(ctx *actionContext[T]) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if entry, ok := e.armed[ctx.ID().String()]; ok {
		entry.timer.Stop()
		delete(e.armed, ctx.ID().String())
	}
}

func (e *ThreadPoolEngine[T]) arm(ctx *actionContext[T], at time.Time) {
	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	timer := time.AfterFunc(d, func() { e.fire(ctx) })
	e.mu.Lock()
	e.armed[ctx.ID().String()] = armedEntry[T]{timer: timer, ctx: ctx}
	depth := len(e.armed)
	e.mu.Unlock()
	e.recorder.SetWorkQueueDepth(depth)
}

func (e *ThreadPoolEngine[T]) fire(ctx *actionContext[T]) {
	e.mu.Lock()
	delete(e.armed, ctx.ID().String())
	e.mu.Unlock()

	if e.IsStopped() {
		return
	}
	if e.IsPaused() {
		// Re-check shortly rather than dropping the tick; the context's
		// own fire time has already elapsed so this just waits out the
		// pause instead of skipping an occurrence.
		e.arm(ctx, time.Now().Add(pausedPollInterval))
		return
	}

	e.running.Add(1)
	defer e.running.Done()

	if !ctx.beginPerform() {
		return
	}
	e.recorder.ActionDispatched()
	scheduledAt := ctx.estimatedFireTime()
	err := ctx.Action().Perform(ctx)
	ctx.performing.Store(false)
	if err != nil && !isCancellationErr(err) {
		e.recorder.ActionFailed()
	}

	if isCancellationErr(err) {
		ctx.cancelled.Store(true)
		ctx.done.Store(true)
		ctx.finish()
		e.reportArmed()
		return
	}
	period := ctx.Period()
	if err != nil {
		if period > 0 && ctx.PeriodicOnException() {
			e.armFixedRate(ctx, scheduledAt, period)
			return
		}
		ctx.done.Store(true)
		ctx.finish()
		e.reportArmed()
		return
	}
	if period <= 0 || ctx.IsCancelled() {
		ctx.done.Store(true)
		ctx.finish()
		e.reportArmed()
		return
	}
	e.armFixedRate(ctx, scheduledAt, period)
}

// reportArmed reports the number of currently-armed timers as this
// backing's work-queue-depth equivalent, since ThreadPoolEngine never
// puts contexts in the shared heap.
func (e *ThreadPoolEngine[T]) reportArmed() {
	e.mu.Lock()
	depth := len(e.armed)
	e.mu.Unlock()
	e.recorder.SetWorkQueueDepth(depth)
}

// armFixedRate schedules the next occurrence at scheduledAt+period
// exactly, skipping forward whole periods if the engine fell behind
// rather than bursty catch-up fires.
func (e *ThreadPoolEngine[T]) armFixedRate(ctx *actionContext[T], scheduledAt time.Time, period time.Duration) {
	next := scheduledAt.Add(period)
	now := time.Now()
	if next.Before(now) {
		behind := now.Sub(next)
		skips := behind/period + 1
		next = next.Add(skips * period)
	}
	ctx.setEstimatedFireTime(next)
	e.arm(ctx, next)
}
