package entities

import (
	"time"

	"agentmemory/domain/core/valueobjects"
)

// Entity is a hub document for a person, project, system, or concept that
// memories can mention; (AgentID, Slug) is unique.
type Entity struct {
	ID          string                 `bson:"_id,omitempty" json:"id"`
	AgentID     string                 `bson:"agentId" json:"agentId"`
	Slug        string                 `bson:"slug" json:"slug"`
	DisplayName string                 `bson:"displayName" json:"displayName"`
	Aliases     []string               `bson:"aliases,omitempty" json:"aliases,omitempty"`
	Summary     string                 `bson:"summary,omitempty" json:"summary,omitempty"`
	Attributes  map[string]interface{} `bson:"attributes,omitempty" json:"attributes,omitempty"`
	MemoryCount int                    `bson:"memoryCount" json:"memoryCount"`
	LastSeenAt  time.Time              `bson:"lastSeenAt" json:"lastSeenAt"`
	CreatedAt   time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time              `bson:"updatedAt" json:"updatedAt"`
}

// NewEntity constructs an Entity hub document, validating the required slug.
func NewEntity(agentID, slug, displayName string, now time.Time) (*Entity, error) {
	if slug == "" {
		return nil, ErrEmptySlug
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return &Entity{
		ID:          valueobjects.NewID(),
		AgentID:     agentID,
		Slug:        slug,
		DisplayName: displayName,
		Attributes:  map[string]interface{}{},
		MemoryCount: 0,
		LastSeenAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
