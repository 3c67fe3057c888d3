package domain

import "time"

// Relation is the direction a dependency edge is read in. Blocks is BlockedBy
// read in reverse; both describe the same logical edge.
type Relation string

const (
	RelationBlockedBy Relation = "blocked_by"
	RelationBlocks    Relation = "blocks"
)

// DependencyEdge is a directed relationship between two tasks. Edges are stored
// canonically as BlockedBy: SourceID is the dependent task, TargetID the
// predecessor that must complete first.
type DependencyEdge struct {
	ID        string    `json:"id"`
	SourceID  string    `json:"source_id"`
	TargetID  string    `json:"target_id"`
	Relation  Relation  `json:"relation"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Canonical returns the edge in BlockedBy orientation. A Blocks edge is
// flipped; a BlockedBy edge is returned unchanged.
func (e DependencyEdge) Canonical() DependencyEdge {
	if e.Relation != RelationBlocks {
		return e
	}
	e.SourceID, e.TargetID = e.TargetID, e.SourceID
	e.Relation = RelationBlockedBy
	return e
}
