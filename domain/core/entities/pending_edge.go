package entities

import (
	"time"

	"agentmemory/domain/core/valueobjects"
)

// PendingEdge is a graph edge proposed by a pipeline stage but not yet
// materialized on the source memory. The graph-apply stage consumes and
// deletes these.
type PendingEdge struct {
	ID          string                 `bson:"_id,omitempty" json:"id"`
	AgentID     string                 `bson:"agentId" json:"agentId"`
	SourceID    string                 `bson:"sourceId" json:"sourceId"`
	Type        EdgeType               `bson:"type" json:"type"`
	TargetID    string                 `bson:"targetId" json:"targetId"`
	Weight      float64                `bson:"weight" json:"weight"`
	Probability float64                `bson:"probability" json:"probability"`
	CreatedAt   time.Time              `bson:"createdAt" json:"createdAt"`
	Metadata    map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// NewPendingEdge constructs a PendingEdge with a generated ID.
func NewPendingEdge(agentID, sourceID string, edgeType EdgeType, targetID string, weight, probability float64, now time.Time) *PendingEdge {
	return &PendingEdge{
		ID:          valueobjects.NewID(),
		AgentID:     agentID,
		SourceID:    sourceID,
		Type:        edgeType,
		TargetID:    targetID,
		Weight:      weight,
		Probability: probability,
		CreatedAt:   now,
	}
}

// AsGraphEdge converts the pending edge to the embedded edge shape applied
// onto a memory document.
func (p PendingEdge) AsGraphEdge() GraphEdge {
	return GraphEdge{
		Type:      p.Type,
		TargetID:  p.TargetID,
		Weight:    p.Weight,
		CreatedAt: p.CreatedAt,
		Metadata:  p.Metadata,
	}
}

// reverseEdgeTypes are the edge types for which graph-apply also materializes
// a reverse edge on the target memory.
var reverseEdgeTypes = map[EdgeType]bool{
	EdgeTypeCoOccurs:    true,
	EdgeTypeContradicts: true,
}

// NeedsReverseEdge reports whether applying this pending edge should also
// push a reverse edge onto the target memory (when it exists).
func (p PendingEdge) NeedsReverseEdge() bool {
	return reverseEdgeTypes[p.Type]
}
