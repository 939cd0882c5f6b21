// Package entity implements the container tree half of the framework:
// entities, their attributes, their type marks, and the factory that
// creates, kills, and moves them between containers.
package entity

import "errors"

// Sentinel errors for the entity package (spec §7).
var (
	ErrEntityAlreadyAssociated = errors.New("entity: id already associated")
	ErrEntityNotAlive          = errors.New("entity: mutation attempted on a dead entity")
	ErrEntityLimitReached      = errors.New("entity: factory entity limit reached")
	ErrCannotSelfTransfer      = errors.New("entity: cannot transfer an entity to itself")
	ErrInvalidArgument         = errors.New("entity: invalid argument")
	ErrNotFound                = errors.New("entity: not found")
	ErrSelfReceive             = errors.New("entity: a container cannot receive an entity from itself")
)
