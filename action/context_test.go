package action

import (
	"errors"
	"testing"
	"time"
)

func TestSetInitialDelayAndPeriodRejectNegative(t *testing.T) {
	e := NewManualEngine[string]()
	ctx, err := e.NewContext(ActionFunc[string](func(ActionContext[string]) error { return nil }))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	if err := ctx.SetInitialDelay(-time.Second); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for negative initial delay, got %v", err)
	}
	if err := ctx.SetPeriod(-time.Second); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for negative period, got %v", err)
	}
	if err := ctx.SetInitialDelay(0); err != nil {
		t.Fatalf("zero initial delay should be accepted: %v", err)
	}
	if err := ctx.SetPeriod(0); err != nil {
		t.Fatalf("zero period should be accepted: %v", err)
	}
}

func TestContextBindingsAreIndependentPerInstance(t *testing.T) {
	e := NewManualEngine[string]()
	if err := e.Bindings().Put("shared", 1); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ctx1, err := e.NewContext(ActionFunc[string](func(ActionContext[string]) error { return nil }))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	if err := ctx1.Put("only-on-ctx1", true); err != nil {
		t.Fatalf("Put: %v", err)
	}

	ctx2, err := e.NewContext(ActionFunc[string](func(ActionContext[string]) error { return nil }))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	if _, ok := ctx2.Get("only-on-ctx1"); ok {
		t.Fatal("a key put on one context's bindings must not leak to a sibling context")
	}
	if v, ok := ctx2.Get("shared"); !ok || v != 1 {
		t.Fatal("a context's bindings should start as a copy of the engine's bindings")
	}
}

func TestActorAssignmentAndRetrieval(t *testing.T) {
	e := NewManualEngine[int]()
	ctx, err := e.NewContext(ActionFunc[int](func(ActionContext[int]) error { return nil }))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	if _, ok := ctx.Actor(); ok {
		t.Fatal("a fresh context should not have an actor assigned yet")
	}
	ctx.SetActor(42)
	actor, ok := ctx.Actor()
	if !ok || actor != 42 {
		t.Fatalf("expected actor 42, got %v (ok=%v)", actor, ok)
	}
}

func TestCancelReturnsFalseOnceAlreadyDone(t *testing.T) {
	e := NewManualEngine[string]()
	ctx, err := e.Schedule(ActionFunc[string](func(ActionContext[string]) error { return nil }), "a")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	e.Resume()
	if !ctx.IsDone() {
		t.Fatal("expected context to be done after Resume dispatches it")
	}
	if ctx.Cancel() {
		t.Fatal("Cancel on an already-completed context must return false")
	}
}

func TestScheduleOnDoneContextFails(t *testing.T) {
	e := NewManualEngine[string]()
	ctx, err := e.Schedule(ActionFunc[string](func(ActionContext[string]) error { return nil }), "a")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	e.Resume()
	if err := ctx.Schedule(); !errors.Is(err, ErrAlreadyDone) {
		t.Fatalf("expected ErrAlreadyDone, got %v", err)
	}
}
