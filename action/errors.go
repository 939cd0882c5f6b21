package action

import "errors"

// Sentinel errors for the action engine (spec §7). Callers should use
// errors.Is against these, since call sites wrap them with fmt.Errorf
// for extra context.
var (
	// ErrEngineStopped is returned when scheduling or mutating state on
	// a stopped engine.
	ErrEngineStopped = errors.New("action: engine is stopped")

	// ErrInvalidArgument covers negative delay/period, nil actions, and
	// similar caller mistakes.
	ErrInvalidArgument = errors.New("action: invalid argument")

	// ErrPeriodicAwaitUnsupported is returned by Await/ScheduleAndAwait
	// when called on a periodic context.
	ErrPeriodicAwaitUnsupported = errors.New("action: await is not supported for periodic contexts")

	// ErrCancellation is surfaced from any blocked wait that ends in
	// cancellation (caller-driven or context cancel()).
	ErrCancellation = errors.New("action: cancelled")

	// ErrAlreadyDone is returned by operations that require a context
	// still in flight.
	ErrAlreadyDone = errors.New("action: context is already done")

	// ErrNoEngine is returned by scheduling calls made while no engine
	// is bound, e.g. an entity mid-transfer between trees.
	ErrNoEngine = errors.New("action: no engine bound")
)
