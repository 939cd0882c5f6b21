package entity

import (
	"testing"

	"oss.jalse.dev/jalse/id"
)

func TestTypeRegistryAncestorsIncludeSelfAndTransitive(t *testing.T) {
	RegisterType("testFlyingAnimal", "testAnimal")
	RegisterType("testAnimal", "testLivingThing")

	anc := globalTypeRegistry.ancestorsOf("testFlyingAnimal")
	for _, want := range []string{"testFlyingAnimal", "testAnimal", "testLivingThing"} {
		if _, ok := anc[want]; !ok {
			t.Fatalf("expected %q in ancestor closure, got %v", want, anc)
		}
	}
}

func TestTypeRegistryDescendantsTransitive(t *testing.T) {
	RegisterType("testDog", "testMammal")
	RegisterType("testMammal", "testAnimal2")

	desc := globalTypeRegistry.descendantsOf("testAnimal2")
	for _, want := range []string{"testAnimal2", "testMammal", "testDog"} {
		if _, ok := desc[want]; !ok {
			t.Fatalf("expected %q in descendant closure, got %v", want, desc)
		}
	}
}

func TestMarkAsTypeIdempotentAndEventOnce(t *testing.T) {
	m := newTypeMarks(id.New())
	var events []TypeMarkEvent
	m.AddTypeMarkListener(func(ev TypeMarkEvent) { events = append(events, ev) })

	if !m.MarkAsType("testCat") {
		t.Fatal("first MarkAsType should return true")
	}
	if m.MarkAsType("testCat") {
		t.Fatal("marking the same type twice should return false")
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 mark event, got %d", len(events))
	}
}

func TestIsMarkedAsTypeChecksAncestorClosure(t *testing.T) {
	RegisterType("testSiamese", "testCat3")
	RegisterType("testCat3", "testAnimal3")

	m := newTypeMarks(id.New())
	m.MarkAsType("testSiamese")

	if !m.IsMarkedAsType("testSiamese") {
		t.Fatal("should be marked as itself")
	}
	if !m.IsMarkedAsType("testCat3") {
		t.Fatal("should be marked as its direct ancestor")
	}
	if !m.IsMarkedAsType("testAnimal3") {
		t.Fatal("should be marked as its transitive ancestor")
	}
	if m.IsMarkedAsType("testUnrelated") {
		t.Fatal("should not be marked as an unrelated type")
	}
}

func TestUnmarkAsType(t *testing.T) {
	m := newTypeMarks(id.New())
	m.MarkAsType("testBird")
	if !m.UnmarkAsType("testBird") {
		t.Fatal("unmarking a present type should return true")
	}
	if m.UnmarkAsType("testBird") {
		t.Fatal("unmarking an absent type should return false")
	}
	if m.IsMarkedAsType("testBird") {
		t.Fatal("type should no longer be marked")
	}
}

func TestMarkAsTypeFoldsInAncestorClosure(t *testing.T) {
	RegisterType("testFlyingAnimal4", "testAnimal4")

	m := newTypeMarks(id.New())
	var events []TypeMarkEvent
	m.AddTypeMarkListener(func(ev TypeMarkEvent) { events = append(events, ev) })

	if !m.MarkAsType("testFlyingAnimal4") {
		t.Fatal("first MarkAsType should return true")
	}
	if !m.IsMarkedAsType("testAnimal4") {
		t.Fatal("marking a type should fold in its ancestor")
	}
	got := m.GetMarkedTypes()
	if len(got) != 2 || got[0] != "testAnimal4" || got[1] != "testFlyingAnimal4" {
		t.Fatalf("expected both the type and its ancestor in the mark set, got %v", got)
	}
	if len(events) != 1 || events[0].Change != "testFlyingAnimal4" || len(events[0].Dependants) != 1 || events[0].Dependants[0] != "testAnimal4" {
		t.Fatalf("expected one event with change=testFlyingAnimal4 dependants=[testAnimal4], got %v", events)
	}
}

func TestUnmarkAsTypeCascadesToDependentDescendants(t *testing.T) {
	RegisterType("testFlyingAnimal5", "testAnimal5")

	m := newTypeMarks(id.New())
	m.MarkAsType("testFlyingAnimal5")

	var events []TypeMarkEvent
	m.AddTypeMarkListener(func(ev TypeMarkEvent) { events = append(events, ev) })

	if !m.UnmarkAsType("testAnimal5") {
		t.Fatal("unmarking the ancestor should succeed since it was folded in")
	}
	if m.IsMarkedAsType("testAnimal5") || m.IsMarkedAsType("testFlyingAnimal5") {
		t.Fatal("unmarking an ancestor should remove the descendant mark that implied it too")
	}
	if len(events) != 1 || events[0].Change != "testAnimal5" || len(events[0].Dependants) != 1 || events[0].Dependants[0] != "testFlyingAnimal5" {
		t.Fatalf("expected one event with change=testAnimal5 dependants=[testFlyingAnimal5], got %v", events)
	}
}

func TestGetMarkedTypesSorted(t *testing.T) {
	m := newTypeMarks(id.New())
	m.MarkAsType("testZebra")
	m.MarkAsType("testAardvark")
	got := m.GetMarkedTypes()
	if len(got) != 2 || got[0] != "testAardvark" || got[1] != "testZebra" {
		t.Fatalf("expected sorted [testAardvark testZebra], got %v", got)
	}
}
