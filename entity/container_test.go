package entity

import (
	"testing"

	"oss.jalse.dev/jalse/action"
)

func newTestTree(t *testing.T) (*EntityFactory, *EntitySet) {
	t.Helper()
	engine := action.NewManualEngine[Entity]()
	factory := NewEntityFactory(0, engine)
	root := NewEntitySet(factory)
	return factory, root
}

func TestNewEntityAddsChildAndFiresCreated(t *testing.T) {
	_, root := newTestTree(t)
	var events []EntityContainerEvent
	root.AddEntityContainerListener(func(ev EntityContainerEvent) { events = append(events, ev) })

	e, err := root.NewEntity()
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	if !root.HasEntity(e.ID()) {
		t.Fatal("root should hold the newly created entity")
	}
	if len(events) != 1 || events[0].Type != EntityCreated {
		t.Fatalf("expected exactly one EntityCreated event, got %v", events)
	}
}

func TestEntityTagsReflectParentAndDepth(t *testing.T) {
	_, root := newTestTree(t)
	e, err := root.NewEntity()
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	tags := e.Tags()
	if !tags.HasParent || !tags.ParentID.Equal(root.ID()) {
		t.Fatalf("expected parent = root, got %+v", tags)
	}
	if tags.TreeDepth != 0 {
		t.Fatalf("direct child of the root should be at depth 0, got %d", tags.TreeDepth)
	}
	if !tags.RootContainerID.Equal(root.ID()) {
		t.Fatalf("expected root container id = root id, got %v", tags.RootContainerID)
	}

	child, err := e.NewEntity()
	if err != nil {
		t.Fatalf("NewEntity (grandchild): %v", err)
	}
	childTags := child.Tags()
	if childTags.TreeDepth != 1 {
		t.Fatalf("grandchild should be at depth 1, got %d", childTags.TreeDepth)
	}
	if !childTags.RootContainerID.Equal(root.ID()) {
		t.Fatal("grandchild should still report the same tree root")
	}
}

func TestKillEntityRemovesFromContainerAndMarksDead(t *testing.T) {
	_, root := newTestTree(t)
	e, _ := root.NewEntity()

	killed, err := root.KillEntity(e.ID())
	if err != nil || !killed {
		t.Fatalf("expected successful kill, got killed=%v err=%v", killed, err)
	}
	if root.HasEntity(e.ID()) {
		t.Fatal("killed entity should be removed from its container")
	}
	if e.IsAlive() {
		t.Fatal("killed entity should report not alive")
	}
	if _, ok := e.Container(); ok {
		t.Fatal("a dead entity should report no container")
	}
}

func TestKillCascadesToChildren(t *testing.T) {
	_, root := newTestTree(t)
	parent, _ := root.NewEntity()
	child, _ := parent.NewEntity()

	if _, err := root.KillEntity(parent.ID()); err != nil {
		t.Fatalf("KillEntity: %v", err)
	}
	if child.IsAlive() {
		t.Fatal("killing a parent should cascade-kill its children")
	}
}

func TestTransferWithinSameTreeFiresTransferredNotReceived(t *testing.T) {
	_, root := newTestTree(t)
	a, _ := root.NewEntity()
	b, _ := root.NewEntity()

	var aEvents, bEvents []EntityContainerEvent
	a.AddEntityContainerListener(func(ev EntityContainerEvent) { aEvents = append(aEvents, ev) })
	b.AddEntityContainerListener(func(ev EntityContainerEvent) { bEvents = append(bEvents, ev) })

	child, _ := a.NewEntity()
	if err := child.Transfer(b); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if !b.HasEntity(child.ID()) {
		t.Fatal("b should now hold the transferred child")
	}
	if a.HasEntity(child.ID()) {
		t.Fatal("a should no longer hold the transferred child")
	}

	foundTransferred := false
	for _, ev := range aEvents {
		if ev.Type == EntityTransferred {
			foundTransferred = true
		}
	}
	if !foundTransferred {
		t.Fatal("expected the source container to fire EntityTransferred for an intra-tree move")
	}
	for _, ev := range bEvents {
		if ev.Type == EntityReceived {
			t.Fatal("an intra-tree move must not fire EntityReceived")
		}
	}
}

func TestTransferAcrossTreesFiresReceived(t *testing.T) {
	_, rootA := newTestTree(t)
	_, rootB := newTestTree(t)

	e, _ := rootA.NewEntity()
	var bEvents []EntityContainerEvent
	rootB.AddEntityContainerListener(func(ev EntityContainerEvent) { bEvents = append(bEvents, ev) })

	if err := e.Transfer(rootB); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if !rootB.HasEntity(e.ID()) {
		t.Fatal("rootB should hold the imported entity")
	}
	if rootA.HasEntity(e.ID()) {
		t.Fatal("rootA should no longer hold the exported entity")
	}

	found := false
	for _, ev := range bEvents {
		if ev.Type == EntityReceived {
			found = true
		}
	}
	if !found {
		t.Fatal("a cross-tree move should fire EntityReceived on the destination")
	}
}

func TestSelfTransferRejected(t *testing.T) {
	_, root := newTestTree(t)
	e, _ := root.NewEntity()
	if err := e.Transfer(e); err != ErrCannotSelfTransfer {
		t.Fatalf("expected ErrCannotSelfTransfer, got %v", err)
	}
}

func TestStreamEntitiesReachesEveryDepth(t *testing.T) {
	_, root := newTestTree(t)
	b, _ := root.NewEntity()
	c, _ := b.NewEntity()

	all := root.StreamEntities()
	foundC := false
	for _, e := range all {
		if e.ID().Equal(c.ID()) {
			foundC = true
		}
	}
	if !foundC {
		t.Fatal("StreamEntities should reach entities at every depth")
	}
}

func TestStreamEntitiesExcludesKilledSiblings(t *testing.T) {
	_, root := newTestTree(t)
	dead, _ := root.NewEntity()
	alive, _ := root.NewEntity()

	if _, err := root.KillEntity(dead.ID()); err != nil {
		t.Fatalf("KillEntity: %v", err)
	}

	all := root.StreamEntities()
	for _, e := range all {
		if e.ID().Equal(dead.ID()) {
			t.Fatal("killed entity should not appear in StreamEntities")
		}
	}
	foundAlive := false
	for _, e := range all {
		if e.ID().Equal(alive.ID()) {
			foundAlive = true
		}
	}
	if !foundAlive {
		t.Fatal("the still-alive sibling should still appear")
	}
}
