package entity

import (
	"reflect"
	"sync"
	"sync/atomic"

	"oss.jalse.dev/jalse/action"
	"oss.jalse.dev/jalse/id"
)

// Entity is a live, uniquely-identified member of a container tree: it
// carries attributes, can itself hold child entities, can be marked
// with type names, and can have actions scheduled against it (spec
// §4.8). Its unexported methods are package-internal wiring used by
// EntityFactory and entityContainer to move and retire entities; they
// are not part of the contract external callers program against.
type Entity interface {
	ID() id.Identifier
	IsAlive() bool

	// Container returns the container currently holding this entity,
	// or (nil, false) if the entity has died.
	Container() (EntityContainer, bool)

	Tags() Tags

	SetAttribute(name string, typ reflect.Type, value any)
	GetAttribute(name string, typ reflect.Type) (any, bool)
	RemoveAttribute(name string, typ reflect.Type) (any, bool)
	FireAttributeChanged(name string, typ reflect.Type)
	AddAttributeListener(name string, typ reflect.Type, l AttributeListener) int64
	RemoveAttributeListener(name string, typ reflect.Type, subID int64)
	RemoveAllListeners(name string, typ reflect.Type)
	StreamAttributes() map[string]any
	GetAttributeTypes() []reflect.Type

	NewEntity() (Entity, error)
	NewEntityWithID(eid id.Identifier) (Entity, error)
	GetEntity(eid id.Identifier) (Entity, bool)
	HasEntity(eid id.Identifier) bool
	GetEntityIDs() []id.Identifier
	StreamEntities() []Entity
	KillEntity(eid id.Identifier) (bool, error)
	KillEntities() error
	ReceiveEntity(e Entity) error
	TransferEntity(e Entity, destination EntityContainer) error
	AddEntityContainerListener(l EntityContainerListener) int64
	RemoveEntityContainerListener(subID int64)

	MarkAsType(typeName string) bool
	UnmarkAsType(typeName string) bool
	IsMarkedAsType(typeName string) bool
	GetMarkedTypes() []string
	AddTypeMarkListener(l TypeMarkListener) int64
	RemoveTypeMarkListener(subID int64)

	// Transfer moves this entity to destination via its current
	// parent container's TransferEntity. Self-transfer is rejected.
	Transfer(destination EntityContainer) error

	// Kill retires this entity via its parent container's KillEntity.
	Kill() error

	// ScheduleAction schedules act against this entity on the
	// factory's engine, tracked for mass-cancellation via Kill.
	ScheduleAction(act action.Action[Entity]) (action.ActionContext[Entity], error)

	// NewActionContext builds but does not schedule a context for act,
	// still tracked for mass-cancellation via Kill.
	NewActionContext(act action.Action[Entity]) (action.ActionContext[Entity], error)

	// CancelAllScheduledActions cancels every action context this
	// entity currently has tracked and returns how many were stopped.
	CancelAllScheduledActions() int

	removeChild(eid id.Identifier)
	setContainer(c EntityContainer, tags Tags, f *EntityFactory)
	markAsDead()
	ownerFactory() *EntityFactory

	// bindEngine redirects this entity's own action scheduler without
	// touching its container, tags, or factory. A nil engine leaves the
	// entity with no engine to schedule against at all, used while it
	// is detached between trees (spec §4.9 export/import).
	bindEngine(engine action.Engine[Entity])
}

// DefaultEntity is the sole Entity implementation, grounded on the
// teacher's managers.ItemManager mutex+map idiom for its container
// surface and on action.ActionScheduler for per-entity action
// tracking. It embeds entityContainer so that it is, itself, an
// EntityContainer for whatever children it holds.
type DefaultEntity struct {
	*AttributeContainer
	entityContainer
	typeMarks

	scheduler *action.ActionScheduler[Entity]

	mu        sync.RWMutex
	alive     atomic.Bool
	container EntityContainer
	tags      Tags
	factory   *EntityFactory
}

func newDefaultEntity(eid id.Identifier, owner EntityContainer, factory *EntityFactory, tags Tags, engine action.Engine[Entity]) *DefaultEntity {
	e := &DefaultEntity{
		AttributeContainer: NewAttributeContainer(eid),
		entityContainer:    newEntityContainer(eid, factory, tags.TreeDepth+1, tags.RootContainerID),
		typeMarks:          newTypeMarks(eid),
		container:          owner,
		tags:               tags,
		factory:            factory,
	}
	e.scheduler = action.NewActionScheduler[Entity](engine, e)
	e.alive.Store(true)
	return e
}

func (e *DefaultEntity) ID() id.Identifier { return e.entityContainer.cid }

func (e *DefaultEntity) IsAlive() bool { return e.alive.Load() }

func (e *DefaultEntity) Container() (EntityContainer, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.alive.Load() || e.container == nil {
		return nil, false
	}
	return e.container, true
}

func (e *DefaultEntity) Tags() Tags {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tags
}

func (e *DefaultEntity) Transfer(destination EntityContainer) error {
	if destination == nil {
		return ErrInvalidArgument
	}
	if destination.ID().Equal(e.ID()) {
		return ErrCannotSelfTransfer
	}
	parent, ok := e.Container()
	if !ok {
		return ErrEntityNotAlive
	}
	return parent.TransferEntity(e, destination)
}

func (e *DefaultEntity) Kill() error {
	parent, ok := e.Container()
	if !ok {
		return nil
	}
	_, err := parent.KillEntity(e.ID())
	return err
}

func (e *DefaultEntity) ScheduleAction(act action.Action[Entity]) (action.ActionContext[Entity], error) {
	if !e.IsAlive() {
		return nil, ErrEntityNotAlive
	}
	return e.scheduler.ScheduleForActor(act, 0, 0)
}

func (e *DefaultEntity) NewActionContext(act action.Action[Entity]) (action.ActionContext[Entity], error) {
	if !e.IsAlive() {
		return nil, ErrEntityNotAlive
	}
	return e.scheduler.NewContextForActor(act)
}

func (e *DefaultEntity) CancelAllScheduledActions() int {
	return e.scheduler.CancelAllScheduledForActor()
}

func (e *DefaultEntity) removeChild(eid id.Identifier) {
	e.entityContainer.removeChild(eid)
}

func (e *DefaultEntity) setContainer(c EntityContainer, tags Tags, f *EntityFactory) {
	e.mu.Lock()
	e.container = c
	e.tags = tags
	e.factory = f
	e.mu.Unlock()

	e.entityContainer.mu.Lock()
	e.entityContainer.factory = f
	e.entityContainer.childDepth = tags.TreeDepth + 1
	e.entityContainer.rootID = tags.RootContainerID
	e.entityContainer.mu.Unlock()

	if f != nil {
		e.scheduler.SetEngine(f.Engine())
	}
}

func (e *DefaultEntity) markAsDead() {
	e.alive.Store(false)
	e.mu.Lock()
	e.container = nil
	e.mu.Unlock()
}

func (e *DefaultEntity) bindEngine(engine action.Engine[Entity]) {
	e.scheduler.SetEngine(engine)
}

func (e *DefaultEntity) ownerFactory() *EntityFactory {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.factory
}

var _ Entity = (*DefaultEntity)(nil)
var _ EntityContainer = (*DefaultEntity)(nil)
