package action

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// workQueue is the time-ordered min-heap of scheduled contexts backing
// the Manual and ForkJoin engines (spec §4.3). It is grounded on the
// same "precise timer + wake channel" idiom chrono.defaultScheduler
// uses in chrono/impl.go, generalized from a single wake-on-mutation
// channel into a proper priority queue since JALSE needs true
// time-order dispatch rather than a flat job map.
type workQueue[T any] struct {
	mu      sync.Mutex
	heap    ctxHeap[T]
	members map[string]*actionContext[T] // id -> ctx, for no-duplicate Add and O(1) membership checks
	wake    chan struct{}
	closed  bool
}

func newWorkQueue[T any]() *workQueue[T] {
	return &workQueue[T]{
		members: make(map[string]*actionContext[T]),
		wake:    make(chan struct{}, 1),
	}
}

func (q *workQueue[T]) signalWake() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Add inserts ctx if it is not already present. It is a no-op if ctx
// is already queued.
func (q *workQueue[T]) Add(ctx *actionContext[T]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.members[ctx.id.String()]; exists {
		return
	}
	q.members[ctx.id.String()] = ctx
	heap.Push(&q.heap, ctx)
	q.signalWake()
}

// Remove removes ctx from the queue if it is currently waiting there.
// Returns true if it was present and removed.
func (q *workQueue[T]) Remove(ctx *actionContext[T]) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(ctx)
}

func (q *workQueue[T]) removeLocked(ctx *actionContext[T]) bool {
	if _, exists := q.members[ctx.id.String()]; !exists {
		return false
	}
	delete(q.members, ctx.id.String())
	for i, c := range q.heap {
		if c == ctx {
			heap.Remove(&q.heap, i)
			break
		}
	}
	return true
}

// Clear removes every queued context.
func (q *workQueue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.heap = nil
	q.members = make(map[string]*actionContext[T])
	q.signalWake()
}

// PollReady pops and returns the earliest context if its estimated
// fire time is <= now, otherwise returns nil, false.
func (q *workQueue[T]) PollReady(now time.Time) (*actionContext[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.heap) == 0 {
		return nil, false
	}
	if q.heap[0].estimatedFireTime().After(now) {
		return nil, false
	}
	ctx := heap.Pop(&q.heap).(*actionContext[T])
	delete(q.members, ctx.id.String())
	return ctx, true
}

// DrainReady pops and returns every context whose estimated fire time
// is <= now, in non-decreasing fire-time order. Used by the Manual
// engine's Resume, which dispatches everything currently ready in one
// pass (spec §4.4.a).
func (q *workQueue[T]) DrainReady(now time.Time) []*actionContext[T] {
	var ready []*actionContext[T]
	for {
		ctx, ok := q.PollReady(now)
		if !ok {
			break
		}
		ready = append(ready, ctx)
	}
	return ready
}

// Size returns the number of contexts currently queued.
func (q *workQueue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

// Snapshot returns a copy of the currently queued contexts, unordered.
func (q *workQueue[T]) Snapshot() []*actionContext[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*actionContext[T], len(q.heap))
	copy(out, q.heap)
	return out
}

// nextWait returns how long to sleep until the earliest queued context
// becomes ready, or ok=false if the queue is empty.
func (q *workQueue[T]) nextWait(now time.Time) (d time.Duration, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.heap) == 0 {
		return 0, false
	}
	d = q.heap[0].estimatedFireTime().Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

// AwaitNextReady blocks until PollReady would succeed or ctx is
// cancelled. It returns the popped context, or nil, false if ctx was
// cancelled first.
func (q *workQueue[T]) AwaitNextReady(ctx context.Context) (*actionContext[T], bool) {
	for {
		now := time.Now()
		if c, ok := q.PollReady(now); ok {
			return c, true
		}
		wait, hasWork := q.nextWait(now)
		var timer *time.Timer
		var timerC <-chan time.Time
		if hasWork {
			timer = time.NewTimer(wait)
			timerC = timer.C
		}
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil, false
		case <-q.wake:
			if timer != nil {
				timer.Stop()
			}
		case <-timerC:
		}
	}
}

// ctxHeap implements container/heap.Interface ordered by estimated
// fire time, with ties broken by insertion sequence number so repeated
// Peek-equivalent calls during single-writer windows are stable
// (spec §3 WorkQueue invariant).
type ctxHeap[T any] []*actionContext[T]

func (h ctxHeap[T]) Len() int { return len(h) }

func (h ctxHeap[T]) Less(i, j int) bool {
	ti, tj := h[i].estimatedFireTime(), h[j].estimatedFireTime()
	if ti.Equal(tj) {
		return h[i].seq < h[j].seq
	}
	return ti.Before(tj)
}

func (h ctxHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *ctxHeap[T]) Push(x any) {
	*h = append(*h, x.(*actionContext[T]))
}

func (h *ctxHeap[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
