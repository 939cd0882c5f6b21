package entity

import (
	"sync"

	"oss.jalse.dev/jalse/action"
	"oss.jalse.dev/jalse/errutils"
	"oss.jalse.dev/jalse/id"
	"oss.jalse.dev/jalse/metrics"
)

// EntityFactory is the allocator and custodian for one tree of
// entities: every entity it creates, imports, or moves within the
// tree is tracked in liveIDs until it is killed or exported, and every
// entity it creates is bound to the same action.Engine for scheduling
// (spec §4.9). One EntityFactory instance defines exactly one tree:
// two containers are in the same tree iff they share a factory.
type EntityFactory struct {
	mu          sync.RWMutex
	entityLimit int
	liveIDs     map[string]Entity
	engine      action.Engine[Entity]
	recorder    *metrics.Recorder
}

// NewEntityFactory builds a factory bound to engine, capping the tree
// at entityLimit live entities (0 or negative means unlimited).
func NewEntityFactory(entityLimit int, engine action.Engine[Entity]) *EntityFactory {
	return &EntityFactory{
		entityLimit: entityLimit,
		liveIDs:     make(map[string]Entity),
		engine:      engine,
	}
}

// Engine returns the engine this factory's entities schedule actions
// against.
func (f *EntityFactory) Engine() action.Engine[Entity] {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.engine
}

// SetEngine redirects future scheduling for every entity in this tree.
// Entities already holding contexts against the previous engine are
// unaffected, matching action.ActionScheduler.SetEngine's contract.
func (f *EntityFactory) SetEngine(engine action.Engine[Entity]) error {
	if engine == nil {
		return ErrInvalidArgument
	}
	if engine.IsStopped() {
		return action.ErrEngineStopped
	}
	f.mu.Lock()
	f.engine = engine
	entities := make([]Entity, 0, len(f.liveIDs))
	for _, e := range f.liveIDs {
		entities = append(entities, e)
	}
	f.mu.Unlock()

	for _, e := range entities {
		if de, ok := e.(*DefaultEntity); ok {
			de.scheduler.SetEngine(engine)
		}
	}
	return nil
}

// Size returns the number of entities currently live in this tree.
func (f *EntityFactory) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.liveIDs)
}

// SetRecorder attaches rec so this factory's live-entity count is
// observed every time it changes. Passing nil disables observation.
func (f *EntityFactory) SetRecorder(rec *metrics.Recorder) {
	f.mu.Lock()
	f.recorder = rec
	f.mu.Unlock()
	f.reportAlive()
}

func (f *EntityFactory) reportAlive() {
	f.mu.RLock()
	rec := f.recorder
	count := len(f.liveIDs)
	f.mu.RUnlock()
	rec.SetEntitiesAlive(count)
}

func (f *EntityFactory) create(eid id.Identifier, owner EntityContainer, tags Tags) (Entity, error) {
	f.mu.Lock()
	if f.entityLimit > 0 && len(f.liveIDs) >= f.entityLimit {
		f.mu.Unlock()
		return nil, ErrEntityLimitReached
	}
	if _, exists := f.liveIDs[eid.String()]; exists {
		f.mu.Unlock()
		return nil, ErrEntityAlreadyAssociated
	}
	e := newDefaultEntity(eid, owner, f, tags, f.engine)
	f.liveIDs[eid.String()] = e
	f.mu.Unlock()
	f.reportAlive()
	return e, nil
}

// TryKillEntity retires e: its children are killed first (depth
// first), its scheduled actions are cancelled, it is marked dead, and
// it is dropped from this tree's live set. Killing an already-dead
// entity is a no-op. Child-kill failures are aggregated but do not
// prevent e itself from being retired.
func (f *EntityFactory) TryKillEntity(e Entity) error {
	if !e.IsAlive() {
		return nil
	}
	childErr := e.KillEntities()
	e.CancelAllScheduledActions()
	e.markAsDead()

	f.mu.Lock()
	delete(f.liveIDs, e.ID().String())
	f.mu.Unlock()
	f.reportAlive()

	return childErr
}

// TryTakeFromTree reparents e to dest without crossing trees. Returns
// false without error if e does not belong to this tree, so the
// caller can fall back to TryImportEntity.
func (f *EntityFactory) TryTakeFromTree(e Entity, dest EntityContainer, tags Tags) (bool, error) {
	if e.ownerFactory() != f {
		return false, nil
	}
	if old, ok := e.Container(); ok {
		old.removeChild(e.ID())
	}
	e.setContainer(dest, tags, f)
	return true, nil
}

// ExportEntity detaches e from its current tree: e and every
// descendant of e are removed from this factory's live set, have every
// action they have scheduled cancelled, and are unbound from this
// factory's engine, since neither this tree's ids nor its engine are
// theirs to keep once e is no longer owned here (spec §4.9). e itself
// is additionally removed from its parent container and left with no
// container; its descendants keep their place in e's own subtree,
// which travels with it. e remains alive and unowned until imported
// elsewhere.
func (f *EntityFactory) ExportEntity(e Entity) error {
	if e == nil {
		return ErrInvalidArgument
	}
	if !e.IsAlive() {
		return ErrEntityNotAlive
	}
	if e.ownerFactory() != f {
		return ErrInvalidArgument
	}
	descendants := e.StreamEntities()

	if old, ok := e.Container(); ok {
		old.removeChild(e.ID())
	}

	f.mu.Lock()
	delete(f.liveIDs, e.ID().String())
	for _, d := range descendants {
		delete(f.liveIDs, d.ID().String())
	}
	f.mu.Unlock()
	f.reportAlive()

	e.CancelAllScheduledActions()
	e.bindEngine(nil)
	for _, d := range descendants {
		d.CancelAllScheduledActions()
		d.bindEngine(nil)
	}

	e.setContainer(nil, Tags{}, nil)
	return nil
}

// TryImportEntity moves e, which belongs to a different tree (or no
// tree, if already exported), into dest under this factory. e and
// every descendant of e are added to this factory's live set and bound
// to its engine, mirroring the cleanup ExportEntity performs on the
// way out. It fires no event itself; the caller
// (entityContainer.ReceiveEntity) fires EntityReceived once the move
// completes.
func (f *EntityFactory) TryImportEntity(e Entity, dest EntityContainer, tags Tags) error {
	descendants := e.StreamEntities()

	f.mu.RLock()
	atLimit := f.entityLimit > 0 && len(f.liveIDs)+len(descendants)+1 > f.entityLimit
	engine := f.engine
	f.mu.RUnlock()
	if atLimit {
		return ErrEntityLimitReached
	}

	if src := e.ownerFactory(); src != nil {
		if src == f {
			return ErrInvalidArgument
		}
		if err := src.ExportEntity(e); err != nil {
			return err
		}
	}

	f.mu.Lock()
	f.liveIDs[e.ID().String()] = e
	for _, d := range descendants {
		f.liveIDs[d.ID().String()] = d
	}
	f.mu.Unlock()
	f.reportAlive()

	for _, d := range descendants {
		d.bindEngine(engine)
	}
	e.setContainer(dest, tags, f)
	return nil
}

// WithinSameTree reports whether a and b are reachable from the same
// root container, walking each container's parent chain literally
// (spec §8) rather than comparing factory pointers directly.
func (f *EntityFactory) WithinSameTree(a, b EntityContainer) bool {
	return rootOf(a).Equal(rootOf(b))
}

func rootOf(c EntityContainer) id.Identifier {
	cur := c
	for {
		e, ok := cur.(Entity)
		if !ok {
			break
		}
		parent, hasParent := e.Container()
		if !hasParent {
			break
		}
		cur = parent
	}
	return cur.ID()
}

func newMultiKillError() *errutils.MultiError {
	return &errutils.MultiError{}
}
