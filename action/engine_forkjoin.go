package action

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// ForkJoinEngine is the worker-pool backing described in spec §4.4.b:
// a fixed number of goroutines cooperatively block on the work queue
// and each dispatch whatever context becomes ready next, recomputing
// a periodic context's next fire time as now+period once its perform
// call returns (elapsed-time semantics, Open Question #1). It is
// grounded on chrono.defaultScheduler's timer+wake-channel blocking
// idiom (chrono/impl.go), generalized here across N workers instead of
// one, and on pool.Pool[T] (pool/object_pool.go) for the timers each
// worker uses while waiting.
type ForkJoinEngine[T any] struct {
	engineState[T]

	timers *timerPool

	workerCtx    context.Context
	workerCancel context.CancelFunc
	wg           sync.WaitGroup
}

// NewForkJoinEngine starts a ForkJoinEngine with parallelism worker
// goroutines. parallelism <= 0 defaults to runtime.GOMAXPROCS(0).
func NewForkJoinEngine[T any](parallelism int) (*ForkJoinEngine[T], error) {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	timers, err := newTimerPool(parallelism)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &ForkJoinEngine[T]{
		engineState:  newEngineState[T](),
		timers:       timers,
		workerCtx:    ctx,
		workerCancel: cancel,
	}
	e.wg.Add(parallelism)
	for i := 0; i < parallelism; i++ {
		go e.workerLoop()
	}
	return e, nil
}

func (e *ForkJoinEngine[T]) enqueue(ctx *actionContext[T]) error {
	if e.IsStopped() {
		return ErrEngineStopped
	}
	e.queue.Add(ctx)
	return nil
}

func (e *ForkJoinEngine[T]) NewContext(act Action[T]) (ActionContext[T], error) {
	return e.newContext(act, e)
}

func (e *ForkJoinEngine[T]) Schedule(act Action[T], actor T) (ActionContext[T], error) {
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

// Pause stops workers from picking up newly-ready contexts; contexts
// already performing run to completion.
func (e *ForkJoinEngine[T]) Pause() { e.pausedFlag.Store(true) }

// Resume lifts a Pause, letting workers resume dispatching.
func (e *ForkJoinEngine[T]) Resume() { e.pausedFlag.Store(false) }

// Stop cancels every waiting context, stops accepting new schedules,
// and waits for any in-flight performs to finish before returning.
func (e *ForkJoinEngine[T]) Stop() error {
	if !e.stoppedFlag.CompareAndSwap(false, true) {
		return nil
	}
	e.drainQueueOnStop()
	e.workerCancel()
	e.wg.Wait()
	e.notifyStopped()
	return nil
}

func (e *ForkJoinEngine[T]) workerLoop() {
	defer e.wg.Done()
	for {
		if e.workerCtx.Err() != nil {
			return
		}
		if e.IsPaused() {
			select {
			case <-e.workerCtx.Done():
				return
			case <-time.After(pausedPollInterval):
			}
			continue
		}
		ctx, ok := e.awaitNextReady()
		if !ok {
			return
		}
		dispatchOnce[T](ctx, e.queue.Add, e.recorder)
		e.recorder.SetWorkQueueDepth(e.queue.Size())
	}
}

// pausedPollInterval bounds how long a Paused ForkJoin worker sleeps
// before re-checking IsPaused/IsStopped.
const pausedPollInterval = 25 * time.Millisecond

// awaitNextReady blocks this worker until a context becomes ready or
// the engine stops, using a pooled timer rather than allocating one
// per wait (spec §5 "engines avoid needless per-iteration allocation").
func (e *ForkJoinEngine[T]) awaitNextReady() (*actionContext[T], bool) {
	for {
		if e.workerCtx.Err() != nil {
			return nil, false
		}
		now := time.Now()
		if ctx, ok := e.queue.PollReady(now); ok {
			return ctx, true
		}
		wait, hasWork := e.queue.nextWait(now)
		if !hasWork {
			wait = pausedPollInterval
		}
		timer, release, err := e.timers.armFor(wait)
		if err != nil {
			select {
			case <-e.workerCtx.Done():
				return nil, false
			case <-time.After(wait):
			}
			continue
		}
		select {
		case <-e.workerCtx.Done():
			release()
			return nil, false
		case <-e.queue.wake:
			release()
		case <-timer.C:
			release()
		}
	}
}
