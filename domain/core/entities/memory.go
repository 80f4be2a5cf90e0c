// Package entities holds the persisted record shapes of the memory graph:
// memories, entities, episodes, pending edges, and reflection jobs.
package entities

import (
	"time"

	"agentmemory/domain/core/valueobjects"

	"github.com/google/uuid"
)

// Layer is the memory tier determining decay rate and retention policy.
type Layer string

const (
	LayerWorking  Layer = "working"
	LayerEpisodic Layer = "episodic"
	LayerSemantic Layer = "semantic"
	LayerArchival Layer = "archival"
)

func (l Layer) Valid() bool {
	switch l {
	case LayerWorking, LayerEpisodic, LayerSemantic, LayerArchival:
		return true
	}
	return false
}

// MemoryType categorizes what kind of statement a memory captures.
type MemoryType string

const (
	MemoryTypeFact        MemoryType = "fact"
	MemoryTypePreference  MemoryType = "preference"
	MemoryTypeDecision    MemoryType = "decision"
	MemoryTypeObservation MemoryType = "observation"
	MemoryTypeEpisode     MemoryType = "episode"
	MemoryTypeOpinion     MemoryType = "opinion"
)

func (t MemoryType) Valid() bool {
	switch t {
	case MemoryTypeFact, MemoryTypePreference, MemoryTypeDecision, MemoryTypeObservation, MemoryTypeEpisode, MemoryTypeOpinion:
		return true
	}
	return false
}

// EdgeType enumerates the kinds of relation a graph edge can carry.
type EdgeType string

const (
	EdgeTypePrecedes        EdgeType = "PRECEDES"
	EdgeTypeCauses          EdgeType = "CAUSES"
	EdgeTypeSupports        EdgeType = "SUPPORTS"
	EdgeTypeContradicts     EdgeType = "CONTRADICTS"
	EdgeTypeDerivesFrom     EdgeType = "DERIVES_FROM"
	EdgeTypeSupersedes      EdgeType = "SUPERSEDES"
	EdgeTypeMentionsEntity  EdgeType = "MENTIONS_ENTITY"
	EdgeTypeCoOccurs        EdgeType = "CO_OCCURS"
	EdgeTypeContextOf       EdgeType = "CONTEXT_OF"
)

// GraphEdge is embedded in a memory record once applied by graph-apply.
type GraphEdge struct {
	Type      EdgeType               `bson:"type" json:"type"`
	TargetID  string                 `bson:"targetId" json:"targetId"`
	Weight    float64                `bson:"weight" json:"weight"`
	CreatedAt time.Time              `bson:"createdAt" json:"createdAt"`
	Metadata  map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// ContradictionType enumerates how two memories were found to disagree.
type ContradictionType string

const (
	ContradictionDirect            ContradictionType = "direct"
	ContradictionContextDependent  ContradictionType = "context-dependent"
	ContradictionTemporal          ContradictionType = "temporal"
	ContradictionPreference        ContradictionType = "preference"
)

// Severity ranks how serious a detected contradiction is.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Contradiction is embedded in a memory referencing another memory it
// disagrees with.
type Contradiction struct {
	TargetMemoryID     string            `bson:"targetMemoryId" json:"targetMemoryId"`
	DetectedAt         time.Time         `bson:"detectedAt" json:"detectedAt"`
	Type               ContradictionType `bson:"type" json:"type"`
	Explanation        string            `bson:"explanation,omitempty" json:"explanation,omitempty"`
	Probability        float64           `bson:"probability" json:"probability"`
	Severity           Severity          `bson:"severity" json:"severity"`
	ResolutionStatus   string            `bson:"resolutionStatus,omitempty" json:"resolutionStatus,omitempty"`
	ResolutionNote     string            `bson:"resolutionNote,omitempty" json:"resolutionNote,omitempty"`
}

// Memory is the primary entity: a piece of semantically-embedded text owned
// by an agent, tracked for reliability over time.
type Memory struct {
	ID        string `bson:"_id,omitempty" json:"id"`
	AgentID   string `bson:"agentId" json:"agentId"`
	ProjectID string `bson:"projectId,omitempty" json:"projectId,omitempty"`

	SourceSessionID string `bson:"sourceSessionId,omitempty" json:"sourceSessionId,omitempty"`
	SourceEpisodeID string `bson:"sourceEpisodeId,omitempty" json:"sourceEpisodeId,omitempty"`

	Text     string                 `bson:"text" json:"text"`
	Tags     []string               `bson:"tags,omitempty" json:"tags,omitempty"`
	Metadata map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`

	Embedding valueobjects.Embedding `bson:"embedding" json:"-"`

	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
	ExpiresAt *time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`

	Confidence         float64   `bson:"confidence" json:"confidence"`
	Strength           float64   `bson:"strength" json:"strength"`
	ReinforcementCount int       `bson:"reinforcementCount" json:"reinforcementCount"`
	LastReinforcedAt   time.Time `bson:"lastReinforcedAt" json:"lastReinforcedAt"`

	Layer      Layer      `bson:"layer" json:"layer"`
	MemoryType MemoryType `bson:"memoryType" json:"memoryType"`

	Edges          []GraphEdge     `bson:"edges,omitempty" json:"edges,omitempty"`
	Contradictions []Contradiction `bson:"contradictions,omitempty" json:"contradictions,omitempty"`
}

// Defaults applied when a caller leaves a field unset: confidence 0.6,
// strength 1.0, layer episodic, fact.
const (
	DefaultConfidence = 0.6
	DefaultStrength   = 1.0
)

// NewMemoryParams carries the overridable fields accepted by Remember and by
// the classify stage when it persists a new atom.
type NewMemoryParams struct {
	AgentID         string
	ProjectID       string
	SourceSessionID string
	SourceEpisodeID string
	Text            string
	Tags            []string
	Metadata        map[string]interface{}
	Embedding       valueobjects.Embedding
	TTL             time.Duration
	MemoryType      MemoryType
	Layer           Layer
	Confidence      *float64
	Now             time.Time

	// ExpectedDimension, when nonzero, is compared against len(Embedding);
	// a mismatch returns ErrEmbeddingDimension. Zero skips the check, for
	// callers that don't yet know the deployment's fixed dimension.
	ExpectedDimension int
}

// NewMemory validates and constructs a Memory with documented defaults
// applied. The store assigns the final ID on insert; a client-side UUID is
// set here so pipeline stages can reference the record before it is
// persisted (e.g. pending edges emitted in the same stage).
func NewMemory(p NewMemoryParams) (*Memory, error) {
	if p.Text == "" {
		return nil, ErrEmptyText
	}
	if p.AgentID == "" {
		return nil, ErrEmptyAgent
	}
	if p.ExpectedDimension > 0 && len(p.Embedding) != p.ExpectedDimension {
		return nil, ErrEmbeddingDimension
	}

	layer := p.Layer
	if layer == "" {
		layer = LayerEpisodic
	}
	if !layer.Valid() {
		return nil, ErrInvalidLayer
	}

	memType := p.MemoryType
	if memType == "" {
		memType = MemoryTypeFact
	}
	if !memType.Valid() {
		return nil, ErrInvalidMemoryType
	}

	confidence := DefaultConfidence
	if p.Confidence != nil {
		confidence = *p.Confidence
	}
	if err := valueobjects.ValidateUnit("confidence", confidence); err != nil {
		return nil, err
	}

	now := p.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var expiresAt *time.Time
	if p.TTL > 0 {
		t := now.Add(p.TTL)
		expiresAt = &t
	}

	m := &Memory{
		ID:                 uuid.New().String(),
		AgentID:            p.AgentID,
		ProjectID:          p.ProjectID,
		SourceSessionID:    p.SourceSessionID,
		SourceEpisodeID:    p.SourceEpisodeID,
		Text:               p.Text,
		Tags:               dedupeStrings(p.Tags),
		Metadata:           p.Metadata,
		Embedding:          p.Embedding,
		CreatedAt:          now,
		UpdatedAt:          now,
		ExpiresAt:          expiresAt,
		Confidence:         confidence,
		Strength:           DefaultStrength,
		ReinforcementCount: 0,
		LastReinforcedAt:   now,
		Layer:              layer,
		MemoryType:         memType,
	}

	return m, nil
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// MergeTags returns the union of a and b, deduplicated, used by global-dedup
// when folding a duplicate's tags into the surviving record.
func MergeTags(a, b []string) []string {
	return dedupeStrings(append(append([]string{}, a...), b...))
}
