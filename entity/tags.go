package entity

import (
	"time"

	"oss.jalse.dev/jalse/id"
)

// Tags is the fixed metadata record every Entity carries, replaced on
// every setContainer call (spec §4.8): a parent id (HasParent reports
// whether there is one), a creation time, a tree depth and a root
// container id. Unlike AttributeContainer this is intentionally not an
// open extensible map: spec.md's tag list is exactly these four tags.
type Tags struct {
	ParentID        id.Identifier
	HasParent       bool
	CreatedAt       time.Time
	TreeDepth       int
	RootContainerID id.Identifier
}
