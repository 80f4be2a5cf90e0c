package entities

import (
	"time"

	"agentmemory/domain/core/valueobjects"
)

// Episode is a narrative record of one session: what happened, who was
// involved, and what memories were derived from it.
type Episode struct {
	ID        string `bson:"_id,omitempty" json:"id"`
	AgentID   string `bson:"agentId" json:"agentId"`
	SessionID string `bson:"sessionId" json:"sessionId"`

	StartedAt time.Time `bson:"startedAt" json:"startedAt"`
	EndedAt   time.Time `bson:"endedAt" json:"endedAt"`

	Title     string `bson:"title,omitempty" json:"title,omitempty"`
	Narrative string `bson:"narrative" json:"narrative"`

	Participants []string `bson:"participants,omitempty" json:"participants,omitempty"`
	Topics       []string `bson:"topics,omitempty" json:"topics,omitempty"`

	DerivedMemoryIDs []string `bson:"derivedMemoryIds,omitempty" json:"derivedMemoryIds,omitempty"`

	Embedding valueobjects.Embedding `bson:"embedding" json:"-"`
	Strength  float64                `bson:"strength" json:"strength"`

	// Layer is always episodic for episodes; kept as a field for symmetry
	// with Memory and so stores keyed on a shared "layer" index work here too.
	Layer Layer `bson:"layer" json:"layer"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewEpisode constructs an Episode with a generated ID and episodic layer.
func NewEpisode(agentID, sessionID, narrative string, startedAt, endedAt time.Time, now time.Time) *Episode {
	return &Episode{
		ID:        valueobjects.NewID(),
		AgentID:   agentID,
		SessionID: sessionID,
		StartedAt: startedAt,
		EndedAt:   endedAt,
		Narrative: narrative,
		Strength:  DefaultStrength,
		Layer:     LayerEpisodic,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
