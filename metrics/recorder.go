package metrics

// Recorder observes engine and factory activity. A nil *Recorder is
// valid and every method on it is a no-op, so action/entity call
// sites can hold a *Recorder field that defaults to nil rather than
// branching on whether metrics are enabled (grounded on the pack's
// own "if r == nil { return }" recorder idiom).
type Recorder struct {
	engineLabel string
}

// NewRecorder builds a Recorder that labels every engine-scoped
// metric it records with engineLabel (e.g. "manual", "forkjoin",
// "threadpool").
func NewRecorder(engineLabel string) *Recorder {
	return &Recorder{engineLabel: engineLabel}
}

// ActionDispatched records one action perform having been dispatched.
func (r *Recorder) ActionDispatched() {
	if r == nil {
		return
	}
	actionsDispatched.WithLabelValues(r.engineLabel).Inc()
}

// ActionFailed records one action perform having returned a
// non-cancellation error.
func (r *Recorder) ActionFailed() {
	if r == nil {
		return
	}
	actionsFailed.WithLabelValues(r.engineLabel).Inc()
}

// SetWorkQueueDepth reports the current number of waiting contexts.
func (r *Recorder) SetWorkQueueDepth(depth int) {
	if r == nil {
		return
	}
	workQueueDepth.WithLabelValues(r.engineLabel).Set(float64(depth))
}

// SetEntitiesAlive reports the current process-wide live entity count.
func (r *Recorder) SetEntitiesAlive(count int) {
	if r == nil {
		return
	}
	entitiesAlive.Set(float64(count))
}
