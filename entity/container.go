package entity

import (
	"sync"
	"time"

	"oss.jalse.dev/jalse/collections"
	"oss.jalse.dev/jalse/id"
)

// EntityContainerEventType classifies an EntityContainerEvent.
type EntityContainerEventType int

const (
	EntityCreated EntityContainerEventType = iota
	EntityKilled
	EntityReceived
	EntityTransferred
)

// EntityContainerEvent is fired on every membership change a
// container makes to the entities it directly holds (spec §4.7).
type EntityContainerEvent struct {
	Type      EntityContainerEventType
	Container id.Identifier
	EntityID  id.Identifier
}

// EntityContainerListener observes EntityContainerEvents.
type EntityContainerListener func(event EntityContainerEvent)

// EntityContainer is anything that can hold entities directly: an
// EntitySet at the root of a tree, or an Entity acting as a container
// for its own children (spec §4.7).
type EntityContainer interface {
	ID() id.Identifier

	// NewEntity allocates a fresh Entity with a random id, adds it as a
	// direct child of this container, and fires EntityCreated.
	NewEntity() (Entity, error)

	// NewEntityWithID is NewEntity but with a caller-supplied id; it
	// fails with ErrEntityAlreadyAssociated if eid is already live
	// anywhere in this container's tree.
	NewEntityWithID(eid id.Identifier) (Entity, error)

	GetEntity(eid id.Identifier) (Entity, bool)
	HasEntity(eid id.Identifier) bool
	GetEntityIDs() []id.Identifier

	// StreamEntities walks every entity reachable from this container
	// breadth-first, lazily: the working list is populated as each
	// level is visited rather than all at once, and a killed entity
	// encountered mid-walk is simply skipped rather than aborting the
	// walk (spec §9, "StreamEntities must not throw mid-iteration").
	StreamEntities() []Entity

	KillEntity(eid id.Identifier) (bool, error)
	KillEntities() error

	// ReceiveEntity moves e into this container. If e is already
	// somewhere in this container's tree, the move is a plain
	// re-parent and no event fires here (the caller's TransferEntity
	// fires EntityTransferred). Otherwise e is imported across trees
	// and this method itself fires EntityReceived.
	ReceiveEntity(e Entity) error

	// TransferEntity moves e, currently a direct child of this
	// container, to destination. Self-transfer is rejected.
	TransferEntity(e Entity, destination EntityContainer) error

	AddEntityContainerListener(l EntityContainerListener) int64
	RemoveEntityContainerListener(subID int64)

	// removeChild is package-internal bookkeeping used when an entity
	// leaves this container other than through TransferEntity (e.g. a
	// cross-tree import pulls it out of its old container directly).
	removeChild(eid id.Identifier)
}

// entityContainer is the core membership bookkeeping shared by
// EntitySet and DefaultEntity, grounded on managers.ItemManager's
// mutex+map idiom generalized to entity membership plus the tree
// metadata (factory, depth, root) spec §4.8's Tags computation needs.
type entityContainer struct {
	cid id.Identifier

	mu       sync.RWMutex
	entities map[string]Entity

	listenersMu sync.Mutex
	listeners   map[int64]EntityContainerListener
	nextSubID   int64

	factory    *EntityFactory
	childDepth int
	rootID     id.Identifier
}

func newEntityContainer(cid id.Identifier, factory *EntityFactory, childDepth int, rootID id.Identifier) entityContainer {
	return entityContainer{
		cid:        cid,
		entities:   make(map[string]Entity),
		listeners:  make(map[int64]EntityContainerListener),
		factory:    factory,
		childDepth: childDepth,
		rootID:     rootID,
	}
}

func (c *entityContainer) ID() id.Identifier { return c.cid }

func (c *entityContainer) newChildTags(parent id.Identifier, hasParent bool) Tags {
	return Tags{
		ParentID:        parent,
		HasParent:       hasParent,
		CreatedAt:       entityNow(),
		TreeDepth:       c.childDepth,
		RootContainerID: c.rootID,
	}
}

func (c *entityContainer) NewEntity() (Entity, error) {
	return c.newEntityLocked(id.New())
}

func (c *entityContainer) NewEntityWithID(eid id.Identifier) (Entity, error) {
	return c.newEntityLocked(eid)
}

func (c *entityContainer) newEntityLocked(eid id.Identifier) (Entity, error) {
	if c.factory == nil {
		return nil, ErrInvalidArgument
	}
	tags := c.newChildTags(c.cid, true)
	e, err := c.factory.create(eid, c, tags)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entities[eid.String()] = e
	c.mu.Unlock()

	c.fire(EntityCreated, eid)
	return e, nil
}

func (c *entityContainer) GetEntity(eid id.Identifier) (Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entities[eid.String()]
	return e, ok
}

func (c *entityContainer) HasEntity(eid id.Identifier) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entities[eid.String()]
	return ok
}

func (c *entityContainer) GetEntityIDs() []id.Identifier {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]id.Identifier, 0, len(c.entities))
	for _, e := range c.entities {
		out = append(out, e.ID())
	}
	return out
}

// StreamEntities performs a lazy breadth-first walk: direct children
// first, then their children, and so on, skipping any entity that has
// since died rather than failing the whole walk.
func (c *entityContainer) StreamEntities() []Entity {
	working := collections.NewArrayQueue[Entity]()

	c.mu.RLock()
	for _, e := range c.entities {
		_ = working.Enqueue(e)
	}
	c.mu.RUnlock()

	out := make([]Entity, 0, working.Size())
	for !working.IsEmpty() {
		e, err := working.Dequeue()
		if err != nil {
			break
		}
		if !e.IsAlive() {
			continue
		}
		out = append(out, e)
		for _, cid := range e.GetEntityIDs() {
			if child, ok := e.GetEntity(cid); ok {
				_ = working.Enqueue(child)
			}
		}
	}
	return out
}

func (c *entityContainer) KillEntity(eid id.Identifier) (bool, error) {
	c.mu.RLock()
	e, ok := c.entities[eid.String()]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if c.factory == nil {
		return false, ErrInvalidArgument
	}
	if err := c.factory.TryKillEntity(e); err != nil {
		return false, err
	}

	c.mu.Lock()
	delete(c.entities, eid.String())
	c.mu.Unlock()
	c.fire(EntityKilled, eid)
	return true, nil
}

func (c *entityContainer) KillEntities() error {
	c.mu.RLock()
	ids := make([]id.Identifier, 0, len(c.entities))
	for _, e := range c.entities {
		ids = append(ids, e.ID())
	}
	c.mu.RUnlock()

	merr := newMultiKillError()
	for _, eid := range ids {
		if _, err := c.KillEntity(eid); err != nil {
			merr.Add(err)
		}
	}
	if merr.HasErrors() {
		return merr
	}
	return nil
}

func (c *entityContainer) ReceiveEntity(e Entity) error {
	if e == nil {
		return ErrInvalidArgument
	}
	if e.ID().Equal(c.cid) {
		return ErrSelfReceive
	}
	if c.factory == nil {
		return ErrInvalidArgument
	}

	tags := c.newChildTags(c.cid, true)

	took, err := c.factory.TryTakeFromTree(e, c, tags)
	if err != nil {
		return err
	}
	if took {
		c.mu.Lock()
		c.entities[e.ID().String()] = e
		c.mu.Unlock()
		return nil
	}

	if err := c.factory.TryImportEntity(e, c, tags); err != nil {
		return err
	}
	c.mu.Lock()
	c.entities[e.ID().String()] = e
	c.mu.Unlock()
	c.fire(EntityReceived, e.ID())
	return nil
}

func (c *entityContainer) TransferEntity(e Entity, destination EntityContainer) error {
	if e == nil || destination == nil {
		return ErrInvalidArgument
	}
	if destination.ID().Equal(c.cid) {
		return ErrCannotSelfTransfer
	}
	if !c.HasEntity(e.ID()) {
		return ErrNotFound
	}

	wasIntraTree := c.factory != nil && c.factory.WithinSameTree(c, destination)

	if err := destination.ReceiveEntity(e); err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.entities, e.ID().String())
	c.mu.Unlock()

	if wasIntraTree {
		c.fire(EntityTransferred, e.ID())
	}
	return nil
}

func (c *entityContainer) AddEntityContainerListener(l EntityContainerListener) int64 {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.nextSubID++
	subID := c.nextSubID
	c.listeners[subID] = l
	return subID
}

func (c *entityContainer) RemoveEntityContainerListener(subID int64) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	delete(c.listeners, subID)
}

func (c *entityContainer) removeChild(eid id.Identifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entities, eid.String())
}

func (c *entityContainer) fire(t EntityContainerEventType, eid id.Identifier) {
	c.listenersMu.Lock()
	fns := make([]EntityContainerListener, 0, len(c.listeners))
	for _, l := range c.listeners {
		fns = append(fns, l)
	}
	c.listenersMu.Unlock()

	ev := EntityContainerEvent{Type: t, Container: c.cid, EntityID: eid}
	for _, l := range fns {
		l(ev)
	}
}

// EntitySet is a standalone, top-level EntityContainer: it is not
// itself an Entity, so it never climbs further when a tree-root walk
// reaches it (spec §4.7, "the root of a tree is either an EntitySet or
// an Entity with no parent").
type EntitySet struct {
	entityContainer
}

// NewEntitySet builds an empty root container for a new tree, bound
// to factory for entity allocation.
func NewEntitySet(factory *EntityFactory) *EntitySet {
	cid := id.New()
	return &EntitySet{entityContainer: newEntityContainer(cid, factory, 0, cid)}
}

var entityNow = time.Now

var _ EntityContainer = (*EntitySet)(nil)
