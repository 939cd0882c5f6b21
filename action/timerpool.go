package action

import (
	"time"

	"oss.jalse.dev/jalse/pool"
)

// timerPool recycles *time.Timer instances for the ForkJoin engine's
// worker goroutines, grounded on pool.Pool[T] from pool/object_pool.go.
// Each worker checks a timer out while it is waiting for its next
// ready context and checks it back in once dispatch moves on, instead
// of allocating and garbage-collecting a fresh timer on every wait.
type timerPool struct {
	pool.Pool[*time.Timer]
}

func newTimerPool(maxWorkers int) (*timerPool, error) {
	p, err := pool.NewPool[*time.Timer](
		func() (*time.Timer, error) {
			t := time.NewTimer(time.Hour)
			if !t.Stop() {
				<-t.C
			}
			return t, nil
		},
		func(t *time.Timer) error {
			t.Stop()
			return nil
		},
		0, maxWorkers, 0,
	)
	if err != nil {
		return nil, err
	}
	if err := p.Start(); err != nil {
		return nil, err
	}
	return &timerPool{Pool: p}, nil
}

// armFor checks a timer out of the pool, resets it to fire after d,
// and returns it along with a release func that must be called once
// the caller is done waiting on it (whether or not it fired).
func (tp *timerPool) armFor(d time.Duration) (*time.Timer, func(), error) {
	t, err := tp.Checkout()
	if err != nil {
		return nil, nil, err
	}
	if d <= 0 {
		d = time.Nanosecond
	}
	t.Reset(d)
	release := func() {
		if !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
		tp.Checkin(t)
	}
	return t, release, nil
}
