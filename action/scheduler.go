package action

import (
	"sync"
	"time"
)

// ActionScheduler tracks every ActionContext scheduled for one actor
// so that all of them can be mass-cancelled together (spec §4.2
// "per-actor cancellation"), e.g. when an Entity dies and every action
// it had running or pending must stop. The tracked set only needs to
// hold a context until it finishes — once a context is done it no
// longer needs mass-cancelling, so this type prunes its membership via
// an onDone completion callback rather than a true weak reference,
// which Go does not have a first-class equivalent of.
type ActionScheduler[T any] struct {
	mu     sync.Mutex
	engine Engine[T]
	actor  T
	live   map[string]*actionContext[T]
}

// NewActionScheduler builds a scheduler that schedules work for actor
// against engine.
func NewActionScheduler[T any](engine Engine[T], actor T) *ActionScheduler[T] {
	return &ActionScheduler[T]{
		engine: engine,
		actor:  actor,
		live:   make(map[string]*actionContext[T]),
	}
}

// SetEngine redirects future scheduling to a different engine. Actions
// already scheduled against the previous engine are unaffected, but
// once the engine actually changes this scheduler drops every
// reference it was retaining to them: they keep running to completion
// on the abandoned engine, but CancelAllScheduledForActor can no
// longer reach them through this scheduler.
func (s *ActionScheduler[T]) SetEngine(engine Engine[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == engine {
		return
	}
	s.engine = engine
	s.live = make(map[string]*actionContext[T])
}

// Engine returns the engine actions are currently scheduled against.
func (s *ActionScheduler[T]) Engine() Engine[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// NewContextForActor builds a context for act bound to this
// scheduler's actor and engine, tracked for mass-cancellation, but
// does not schedule it yet.
func (s *ActionScheduler[T]) NewContextForActor(act Action[T]) (ActionContext[T], error) {
	s.mu.Lock()
	engine := s.engine
	s.mu.Unlock()
	if engine == nil {
		return nil, ErrNoEngine
	}

	public, err := engine.NewContext(act)
	if err != nil {
		return nil, err
	}
	public.SetActor(s.actor)
	s.track(public)
	return public, nil
}

// ScheduleForActor builds a context for act, applies initialDelay and
// period (either may be zero to leave that timing at its default), and
// schedules it immediately against this scheduler's engine, tracking
// it for mass-cancellation. A zero period schedules a one-shot action.
func (s *ActionScheduler[T]) ScheduleForActor(act Action[T], initialDelay, period time.Duration) (ActionContext[T], error) {
	ctx, err := s.NewContextForActor(act)
	if err != nil {
		return nil, err
	}
	if initialDelay != 0 {
		if err := ctx.SetInitialDelay(initialDelay); err != nil {
			return nil, err
		}
	}
	if period != 0 {
		if err := ctx.SetPeriod(period); err != nil {
			return nil, err
		}
	}
	if err := ctx.Schedule(); err != nil {
		return nil, err
	}
	return ctx, nil
}

func (s *ActionScheduler[T]) track(public ActionContext[T]) {
	concrete, ok := public.(*actionContext[T])
	if !ok {
		return
	}
	s.mu.Lock()
	s.live[concrete.ID().String()] = concrete
	s.mu.Unlock()
	concrete.onDone(func() {
		s.mu.Lock()
		delete(s.live, concrete.ID().String())
		s.mu.Unlock()
	})
}

// CancelAllScheduledForActor cancels every context this scheduler is
// still tracking (waiting or performing) and returns how many were
// cancelled. Safe to call more than once; already-finished contexts
// are silently skipped.
func (s *ActionScheduler[T]) CancelAllScheduledForActor() int {
	s.mu.Lock()
	tracked := make([]*actionContext[T], 0, len(s.live))
	for _, ctx := range s.live {
		tracked = append(tracked, ctx)
	}
	s.mu.Unlock()

	cancelled := 0
	for _, ctx := range tracked {
		if ctx.Cancel() {
			cancelled++
		}
	}
	return cancelled
}

// Size returns the number of contexts currently tracked (scheduled but
// not yet finished) for this actor.
func (s *ActionScheduler[T]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}
