package action

import (
	"errors"

	"oss.jalse.dev/jalse/metrics"
)

// isCancellationErr reports whether err represents the action having
// observed its own context's cancellation mid-perform, as opposed to
// an ordinary failure. Only this case skips the periodic-on-exception
// retry path (spec §4.4 "Failure semantics").
func isCancellationErr(err error) bool {
	return errors.Is(err, ErrCancellation)
}

// dispatchOnce performs ctx's action exactly once on the calling
// goroutine and, if the elapsed-time periodic state machine says the
// context should run again, invokes reenqueue with it. Shared by the
// Manual and ForkJoin backings (spec §4.4.a/b); ThreadPool manages its
// own fixed-rate re-arming instead of calling this. rec may be nil.
func dispatchOnce[T any](ctx *actionContext[T], reenqueue func(*actionContext[T]), rec *metrics.Recorder) {
	if !ctx.beginPerform() {
		return
	}
	rec.ActionDispatched()
	err := ctx.Action().Perform(ctx)
	if err != nil && !isCancellationErr(err) {
		rec.ActionFailed()
	}
	if ctx.endPerformElapsed(err, isCancellationErr) {
		reenqueue(ctx)
	}
}
