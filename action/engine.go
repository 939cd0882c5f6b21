package action

import (
	"sync"
	"sync/atomic"

	"oss.jalse.dev/jalse/bindings"
	"oss.jalse.dev/jalse/id"
	"oss.jalse.dev/jalse/lifecycle"
	"oss.jalse.dev/jalse/metrics"
)

// Engine drives zero or more ActionContexts to completion (spec §4.4).
// JALSE ships three backings — Manual, ForkJoin and ThreadPool — that
// implement this same interface with different dispatch strategies;
// callers write actor code once against Engine[T] and choose a backing
// at construction time.
type Engine[T any] interface {
	// Bindings returns the engine-wide binding store, visible to every
	// ActionContext the engine creates unless overridden per-context.
	Bindings() *bindings.Bindings

	// NewContext builds a fresh, unscheduled ActionContext for act. The
	// returned context's bindings start as a copy of the engine's.
	NewContext(act Action[T]) (ActionContext[T], error)

	// Schedule is a convenience that builds a context for act, assigns
	// actor, and schedules it immediately with no delay and no period.
	Schedule(act Action[T], actor T) (ActionContext[T], error)

	// Pause requests the engine stop dispatching ready contexts until
	// Resume is called. Contexts already performing are not interrupted.
	Pause()

	// Resume lifts a Pause and, on backings that only dispatch when
	// asked (Manual), performs every currently-ready context once.
	Resume()

	// Stop permanently halts the engine: it cancels every waiting
	// context and rejects further scheduling with ErrEngineStopped.
	Stop() error

	IsPaused() bool
	IsStopped() bool
}

// engineState holds the fields and state machine shared by all three
// backings, grounded on the lifecycle bookkeeping in
// lifecycle/simple_component.go generalized from a single on/off flag
// to JALSE's three-way paused/running/stopped engine lifecycle.
type engineState[T any] struct {
	compID   id.Identifier
	bindings *bindings.Bindings
	queue    *workQueue[T]

	onChangeMu sync.Mutex
	onChange   []func(prev, next lifecycle.ComponentState)

	pausedFlag  atomic.Bool
	stoppedFlag atomic.Bool

	recorder *metrics.Recorder
}

func newEngineState[T any]() engineState[T] {
	return engineState[T]{
		compID:   id.New(),
		bindings: bindings.New(),
		queue:    newWorkQueue[T](),
	}
}

// SetRecorder attaches rec so this engine's dispatch/failure/queue-
// depth activity is observed. Passing nil disables observation again;
// every call site tolerates a nil recorder.
func (e *engineState[T]) SetRecorder(rec *metrics.Recorder) {
	e.recorder = rec
}

// Id satisfies lifecycle.Component so engines can be registered with a
// lifecycle.ComponentManager alongside the rest of a simulation's
// supervised resources.
func (e *engineState[T]) Id() string { return e.compID.String() }

// OnChange registers a state-change callback per lifecycle.Component.
// Engines only ever report Running -> Stopped, fired once from Stop();
// Pause/Resume are orthogonal to lifecycle state.
func (e *engineState[T]) OnChange(prevState, newState lifecycle.ComponentState) {
	e.onChangeMu.Lock()
	callbacks := append([]func(prev, next lifecycle.ComponentState){}, e.onChange...)
	e.onChangeMu.Unlock()
	for _, cb := range callbacks {
		cb(prevState, newState)
	}
}

// AddStateListener registers f to be invoked by a future OnChange call.
// This is JALSE's own registration point; it is distinct from
// lifecycle.Component's OnChange, which (per that interface) is the
// notification itself rather than a subscription.
func (e *engineState[T]) AddStateListener(f func(prev, next lifecycle.ComponentState)) {
	e.onChangeMu.Lock()
	defer e.onChangeMu.Unlock()
	e.onChange = append(e.onChange, f)
}

// State reports the engine's lifecycle.ComponentState derived from its
// paused/stopped flags.
func (e *engineState[T]) State() lifecycle.ComponentState {
	if e.IsStopped() {
		return lifecycle.Stopped
	}
	return lifecycle.Running
}

// Start satisfies lifecycle.Component. Every engine backing is ready
// to schedule work as soon as its constructor returns, so Start is a
// no-op that exists purely for ComponentManager registration.
func (e *engineState[T]) Start() error { return nil }

// notifyStopped fires OnChange(Running, Stopped) to any registered
// listeners; called once by each backing's Stop after it has actually
// finished tearing down.
func (e *engineState[T]) notifyStopped() {
	e.OnChange(lifecycle.Running, lifecycle.Stopped)
}

func (e *engineState[T]) Bindings() *bindings.Bindings { return e.bindings }

func (e *engineState[T]) IsPaused() bool  { return e.pausedFlag.Load() }
func (e *engineState[T]) IsStopped() bool { return e.stoppedFlag.Load() }

func (e *engineState[T]) stopped() bool { return e.IsStopped() }

func (e *engineState[T]) engineBindings() *bindings.Bindings { return e.bindings }

func (e *engineState[T]) newContext(act Action[T], home engineHandle[T]) (*actionContext[T], error) {
	if act == nil {
		return nil, ErrInvalidArgument
	}
	if e.IsStopped() {
		return nil, ErrEngineStopped
	}
	return newActionContext[T](act, home, e.bindings), nil
}

func (e *engineState[T]) dequeueWaiting(ctx *actionContext[T]) {
	e.queue.Remove(ctx)
}

// drainQueueOnStop cancels every still-waiting context; used by every
// backing's Stop so nothing is left silently orphaned in the heap.
func (e *engineState[T]) drainQueueOnStop() {
	for _, ctx := range e.queue.Snapshot() {
		ctx.Cancel()
	}
	e.queue.Clear()
}

var (
	_ Engine[int] = (*ManualEngine[int])(nil)
	_ Engine[int] = (*ForkJoinEngine[int])(nil)
	_ Engine[int] = (*ThreadPoolEngine[int])(nil)

	_ lifecycle.Component = (*ManualEngine[int])(nil)
	_ lifecycle.Component = (*ForkJoinEngine[int])(nil)
	_ lifecycle.Component = (*ThreadPoolEngine[int])(nil)
)
