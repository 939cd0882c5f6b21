package action

import (
	"reflect"
	"sync"

	"oss.jalse.dev/jalse/metrics"
)

// commonEngines memoizes one process-wide ForkJoinEngine per actor
// type T, the way a shared executor is reached through a typed
// accessor rather than global mutable state. Go generics cannot hold
// one package-level variable across distinct instantiations of
// Common[T], so the registry is keyed by T's reflect.Type instead.
var (
	commonMu  sync.Mutex
	commonSet = map[reflect.Type]any{}
)

// Common returns the shared ForkJoinEngine for actor type T, creating
// it on first use with engine parallelism equal to GOMAXPROCS. Its
// Pause and Stop are no-ops: the shared engine is not owned by any
// single caller, so callers that need exclusive pause/stop control
// should construct their own with NewForkJoinEngine instead.
func Common[T any]() Engine[T] {
	key := reflect.TypeOf((*T)(nil)).Elem()
	commonMu.Lock()
	defer commonMu.Unlock()
	if e, ok := commonSet[key]; ok {
		return e.(*commonEngine[T])
	}
	inner, err := NewForkJoinEngine[T](0)
	if err != nil {
		// Parallelism 0 defaults to GOMAXPROCS internally and the timer
		// pool construction that follows never rejects that default, so
		// this path is unreachable in practice.
		panic(err)
	}
	inner.SetRecorder(metrics.NewRecorder("common:" + key.String()))
	wrapped := &commonEngine[T]{ForkJoinEngine: inner}
	commonSet[key] = wrapped
	return wrapped
}

// commonEngine wraps a ForkJoinEngine to make Pause/Stop harmless
// no-ops for the shared singleton returned by Common.
type commonEngine[T any] struct {
	*ForkJoinEngine[T]
}

func (e *commonEngine[T]) Pause()      {}
func (e *commonEngine[T]) Stop() error { return nil }
