package action

import (
	"time"
)

// ManualEngine is the single-goroutine backing described in spec
// §4.4.a: nothing is dispatched except on an explicit call to Resume,
// made by whatever code is driving the simulation's tick loop. It is
// grounded on the "drain on demand" shape of Manual scheduling in the
// original design, re-expressed here as a plain drain over workQueue
// rather than a background goroutine — there is no poller to pause,
// so Pause has no effect on dispatch and Resume is the only thing that
// ever moves time forward.
type ManualEngine[T any] struct {
	engineState[T]
}

// NewManualEngine constructs a ManualEngine ready for scheduling.
func NewManualEngine[T any]() *ManualEngine[T] {
	return &ManualEngine[T]{engineState: newEngineState[T]()}
}

func (e *ManualEngine[T]) enqueue(ctx *actionContext[T]) error {
	if e.IsStopped() {
		return ErrEngineStopped
	}
	e.queue.Add(ctx)
	return nil
}

// NewContext builds a fresh, unscheduled context bound to this engine.
func (e *ManualEngine[T]) NewContext(act Action[T]) (ActionContext[T], error) {
	return e.newContext(act, e)
}

// Schedule builds a context for act, assigns actor, and enqueues it
// for the next Resume.
func (e *ManualEngine[T]) Schedule(act Action[T], actor T) (ActionContext[T], error) {
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

// Pause only sets the flag IsPaused reports; it has no effect on
// dispatch, since a ManualEngine only ever dispatches inside Resume and
// Resume clears the flag before it drains the queue.
func (e *ManualEngine[T]) Pause() { e.pausedFlag.Store(true) }

// Resume performs every context that is currently ready, in
// non-decreasing estimated-fire-time order, on the calling goroutine.
// Contexts that re-arm themselves (periodic, still running) are left
// for the next Resume call rather than looped on immediately, so one
// Resume call always corresponds to one simulation tick.
func (e *ManualEngine[T]) Resume() {
	e.pausedFlag.Store(false)
	if e.IsStopped() {
		return
	}
	now := time.Now()
	for _, ctx := range e.queue.DrainReady(now) {
		dispatchOnce[T](ctx, e.queue.Add, e.recorder)
	}
	e.recorder.SetWorkQueueDepth(e.queue.Size())
}

// Stop cancels every waiting context and permanently disables further
// scheduling.
func (e *ManualEngine[T]) Stop() error {
	if !e.stoppedFlag.CompareAndSwap(false, true) {
		return nil
	}
	e.drainQueueOnStop()
	e.notifyStopped()
	return nil
}
