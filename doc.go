// Package jalse is a tick-driven action scheduling and entity
// container-tree framework for Go.
//
// Actions are units of work scheduled against an actor on an
// action.Engine (Manual, ForkJoin, or ThreadPool), each dispatching
// ready ActionContexts under a different concurrency and timing
// strategy. Entities layer a live, attribute-bearing, type-markable
// container tree on top of that scheduling: every Entity can itself
// hold child Entities, schedule actions against itself, and move
// between containers within or across an EntityFactory's tree.
//
// Each sub-package is independently importable:
//
//	import "oss.jalse.dev/jalse/action"       // Actions, ActionContexts, Engines
//	import "oss.jalse.dev/jalse/entity"       // Entities, containers, the entity factory
//	import "oss.jalse.dev/jalse/bindings"     // Keyed value maps attached to engines/contexts
//	import "oss.jalse.dev/jalse/engineconfig" // Engine and factory tunables
//	import "oss.jalse.dev/jalse/metrics"      // Prometheus observability
//	import "oss.jalse.dev/jalse/l3"           // Logging
//	import "oss.jalse.dev/jalse/config"       // Application configuration
//
// For a complete list of packages and documentation, see:
// https://pkg.go.dev/oss.jalse.dev/jalse
package jalse
