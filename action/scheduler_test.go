package action

import (
	"testing"
	"time"
)

func TestActionSchedulerMassCancel(t *testing.T) {
	e := NewManualEngine[string]()
	s := NewActionScheduler[string](e, "actor-1")

	var scheduled []ActionContext[string]
	for i := 0; i < 3; i++ {
		ctx, err := s.ScheduleForActor(ActionFunc[string](func(ActionContext[string]) error { return nil }), 0, 0)
		if err != nil {
			t.Fatalf("ScheduleForActor: %v", err)
		}
		scheduled = append(scheduled, ctx)
	}

	if got := s.Size(); got != 3 {
		t.Fatalf("expected 3 tracked contexts, got %d", got)
	}

	cancelled := s.CancelAllScheduledForActor()
	if cancelled != 3 {
		t.Fatalf("expected 3 cancellations, got %d", cancelled)
	}
	for _, ctx := range scheduled {
		if !ctx.IsCancelled() {
			t.Fatal("every tracked context should be cancelled")
		}
	}
	if got := s.Size(); got != 0 {
		t.Fatalf("tracked set should be empty after mass cancel, got %d", got)
	}
}

func TestActionSchedulerPrunesOnNaturalCompletion(t *testing.T) {
	e := NewManualEngine[string]()
	s := NewActionScheduler[string](e, "actor-1")

	ctx, err := s.ScheduleForActor(ActionFunc[string](func(ActionContext[string]) error { return nil }), 0, 0)
	if err != nil {
		t.Fatalf("ScheduleForActor: %v", err)
	}
	e.Resume()
	if !ctx.IsDone() {
		t.Fatal("expected the scheduled action to have completed")
	}

	deadline := time.Now().Add(time.Second)
	for s.Size() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := s.Size(); got != 0 {
		t.Fatalf("scheduler should prune a naturally-completed context, still tracking %d", got)
	}
}

func TestActionSchedulerSetEngineRedirectsFutureWork(t *testing.T) {
	e1 := NewManualEngine[string]()
	e2 := NewManualEngine[string]()
	s := NewActionScheduler[string](e1, "actor-1")

	var ranOnE1, ranOnE2 bool
	ctx1, err := s.ScheduleForActor(ActionFunc[string](func(ActionContext[string]) error {
		ranOnE1 = true
		return nil
	}), 0, 0)
	if err != nil {
		t.Fatalf("ScheduleForActor: %v", err)
	}

	s.SetEngine(e2)
	ctx2, err := s.ScheduleForActor(ActionFunc[string](func(ActionContext[string]) error {
		ranOnE2 = true
		return nil
	}), 0, 0)
	if err != nil {
		t.Fatalf("ScheduleForActor: %v", err)
	}

	e2.Resume()
	if ranOnE2 != true || ranOnE1 {
		t.Fatal("resuming e2 should only dispatch work scheduled after SetEngine(e2)")
	}
	e1.Resume()
	if !ranOnE1 {
		t.Fatal("resuming e1 should dispatch the action scheduled before SetEngine")
	}
	_ = ctx1
	_ = ctx2
}

func TestActionSchedulerSetEngineDropsStaleTrackedContexts(t *testing.T) {
	e1 := NewManualEngine[string]()
	e2 := NewManualEngine[string]()
	s := NewActionScheduler[string](e1, "actor-1")

	ctx1, err := s.ScheduleForActor(ActionFunc[string](func(ActionContext[string]) error { return nil }), 0, 0)
	if err != nil {
		t.Fatalf("ScheduleForActor: %v", err)
	}

	s.SetEngine(e2)
	if got := s.Size(); got != 0 {
		t.Fatalf("SetEngine should drop contexts tracked against the old engine, still tracking %d", got)
	}
	if cancelled := s.CancelAllScheduledForActor(); cancelled != 0 {
		t.Fatalf("expected no cancellations through the new scheduler, got %d", cancelled)
	}
	if ctx1.IsCancelled() {
		t.Fatal("ctx1 should still be pending on the abandoned engine, not cancelled")
	}

	e1.Resume()
	if !ctx1.IsDone() {
		t.Fatal("ctx1 should still run to completion on the abandoned engine")
	}
}
