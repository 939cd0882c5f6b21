package entity

import (
	"errors"
	"testing"
	"time"

	"oss.jalse.dev/jalse/action"
)

func TestFactoryEntityLimitReached(t *testing.T) {
	engine := action.NewManualEngine[Entity]()
	factory := NewEntityFactory(1, engine)
	root := NewEntitySet(factory)

	if _, err := root.NewEntity(); err != nil {
		t.Fatalf("first NewEntity should succeed: %v", err)
	}
	if _, err := root.NewEntity(); !errors.Is(err, ErrEntityLimitReached) {
		t.Fatalf("expected ErrEntityLimitReached, got %v", err)
	}
}

func TestFactorySizeTracksLiveEntities(t *testing.T) {
	engine := action.NewManualEngine[Entity]()
	factory := NewEntityFactory(0, engine)
	root := NewEntitySet(factory)

	e, _ := root.NewEntity()
	if factory.Size() != 1 {
		t.Fatalf("expected size 1, got %d", factory.Size())
	}
	if _, err := root.KillEntity(e.ID()); err != nil {
		t.Fatalf("KillEntity: %v", err)
	}
	if factory.Size() != 0 {
		t.Fatalf("expected size 0 after kill, got %d", factory.Size())
	}
}

func TestWithinSameTreeTrueForSameFactoryFalseAcross(t *testing.T) {
	engineA := action.NewManualEngine[Entity]()
	engineB := action.NewManualEngine[Entity]()
	factoryA := NewEntityFactory(0, engineA)
	factoryB := NewEntityFactory(0, engineB)
	rootA := NewEntitySet(factoryA)
	rootB := NewEntitySet(factoryB)

	a1, _ := rootA.NewEntity()
	a2, _ := rootA.NewEntity()
	if !factoryA.WithinSameTree(a1.(EntityContainer), a2.(EntityContainer)) {
		t.Fatal("two entities under the same root should be within the same tree")
	}

	b1, _ := rootB.NewEntity()
	if factoryA.WithinSameTree(a1.(EntityContainer), b1.(EntityContainer)) {
		t.Fatal("entities under different roots should not be within the same tree")
	}
}

func TestKillEntityOnDeadEntityIsNoOp(t *testing.T) {
	engine := action.NewManualEngine[Entity]()
	factory := NewEntityFactory(0, engine)
	root := NewEntitySet(factory)
	e, _ := root.NewEntity()

	if err := factory.TryKillEntity(e); err != nil {
		t.Fatalf("TryKillEntity: %v", err)
	}
	if err := factory.TryKillEntity(e); err != nil {
		t.Fatalf("killing an already-dead entity should be a no-op, got %v", err)
	}
}

func TestScheduleActionAgainstEntityActor(t *testing.T) {
	engine := action.NewManualEngine[Entity]()
	factory := NewEntityFactory(0, engine)
	root := NewEntitySet(factory)
	e, _ := root.NewEntity()

	performed := false
	var seenActor Entity
	ctx, err := e.ScheduleAction(action.ActionFunc[Entity](func(c action.ActionContext[Entity]) error {
		performed = true
		seenActor, _ = c.Actor()
		return nil
	}))
	if err != nil {
		t.Fatalf("ScheduleAction: %v", err)
	}
	engine.Resume()
	if !performed {
		t.Fatal("expected the action to have been performed after Resume")
	}
	if seenActor == nil || !seenActor.ID().Equal(e.ID()) {
		t.Fatalf("expected the actor to be the scheduling entity, got %v", seenActor)
	}
	if !ctx.IsDone() {
		t.Fatal("expected the one-shot context to be done")
	}
}

func TestExportEntityCascadesCancelAndUnbindToDescendants(t *testing.T) {
	engineA := action.NewManualEngine[Entity]()
	engineB := action.NewManualEngine[Entity]()
	factoryA := NewEntityFactory(0, engineA)
	factoryB := NewEntityFactory(0, engineB)
	rootA := NewEntitySet(factoryA)
	rootB := NewEntitySet(factoryB)

	parent, _ := rootA.NewEntity()
	child, _ := parent.NewEntity()

	ctx, err := child.NewActionContext(action.ActionFunc[Entity](func(action.ActionContext[Entity]) error { return nil }))
	if err != nil {
		t.Fatalf("NewActionContext: %v", err)
	}
	if err := ctx.SetPeriod(time.Hour); err != nil {
		t.Fatalf("SetPeriod: %v", err)
	}
	if err := ctx.Schedule(); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if err := parent.Transfer(rootB); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	if !ctx.IsCancelled() {
		t.Fatal("exporting a subtree should cancel its descendants' scheduled actions")
	}
	if factoryA.Size() != 0 {
		t.Fatalf("every id in the exported subtree should leave the source factory, got size %d", factoryA.Size())
	}
	if factoryB.Size() != 2 {
		t.Fatalf("parent and child should both be live in the destination factory, got size %d", factoryB.Size())
	}
	if !rootB.HasEntity(parent.ID()) {
		t.Fatal("destination root should hold the transferred parent")
	}
	if !parent.HasEntity(child.ID()) {
		t.Fatal("child should still be reachable under the transferred parent")
	}
}

func TestKillCancelsScheduledActions(t *testing.T) {
	engine := action.NewManualEngine[Entity]()
	factory := NewEntityFactory(0, engine)
	root := NewEntitySet(factory)
	e, _ := root.NewEntity()

	ctx, err := e.NewActionContext(action.ActionFunc[Entity](func(action.ActionContext[Entity]) error { return nil }))
	if err != nil {
		t.Fatalf("NewActionContext: %v", err)
	}
	if err := ctx.SetPeriod(0); err != nil {
		t.Fatalf("SetPeriod: %v", err)
	}
	if err := ctx.Schedule(); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if _, err := root.KillEntity(e.ID()); err != nil {
		t.Fatalf("KillEntity: %v", err)
	}
	if !ctx.IsCancelled() {
		t.Fatal("killing an entity should cancel its still-pending scheduled actions")
	}
}
