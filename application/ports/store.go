// Package ports declares the abstract contracts the application layer
// depends on: the document store, the embedder, the LLM client, and the
// job queue. Infrastructure adapters implement these; pipeline stages and
// the facade depend only on the interfaces.
package ports

import (
	"context"
	"time"

	"agentmemory/domain/core/entities"
)

// MemoryFilter narrows a memory query. Zero-value fields are unconstrained.
type MemoryFilter struct {
	AgentID string
	Tags    []string
	Layer   entities.Layer
}

// ScoredMemory pairs a memory retrieved by similarity search with the
// cosine similarity score it was ranked by, so callers can report the real
// score documented in the recall contract instead of discarding it.
type ScoredMemory struct {
	Memory *entities.Memory
	Score  float64
}

// MemoryStore persists and retrieves Memory documents.
type MemoryStore interface {
	Insert(ctx context.Context, m *entities.Memory) (string, error)
	FindByID(ctx context.Context, id string) (*entities.Memory, error)
	Find(ctx context.Context, filter MemoryFilter, limit int) ([]*entities.Memory, error)

	// SimilaritySearch returns up to limit memories for the agent ranked by
	// cosine similarity against embedding, highest first. Returns
	// valueobjects.ErrDimensionMismatch if embedding's dimension does not
	// match a candidate's stored embedding.
	SimilaritySearch(ctx context.Context, agentID string, embedding []float64, limit int, tags []string) ([]ScoredMemory, error)

	Update(ctx context.Context, m *entities.Memory) error

	// ApplyContradiction sets confidence and updatedAt and appends a
	// Contradiction entry in one atomic update.
	ApplyContradiction(ctx context.Context, id string, newConfidence float64, c entities.Contradiction, now time.Time) error

	// ApplyReinforcement sets confidence, increments reinforcementCount, and
	// sets lastReinforcedAt/updatedAt in one atomic update.
	ApplyReinforcement(ctx context.Context, id string, newConfidence float64, now time.Time) error

	// PushEdge appends an edge to a memory's edges array and sets updatedAt.
	PushEdge(ctx context.Context, id string, edge entities.GraphEdge, now time.Time) error

	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)

	// CountByAgent counts memories belonging to an agent.
	CountByAgent(ctx context.Context, agentID string) (int64, error)

	// IterateByAgent streams all memories for an agent (or all agents when
	// agentID is empty) in batches of batchSize, invoking fn for each batch.
	// Used by the decay pass (C3 over C2) to avoid loading the whole
	// collection into memory.
	IterateByAgent(ctx context.Context, agentID string, batchSize int, fn func([]*entities.Memory) error) error

	// DuplicatesOf returns memories for the agent whose cosine similarity to
	// embedding is at or above threshold, used by the deduplicate stage.
	DuplicatesOf(ctx context.Context, agentID string, embedding []float64, threshold float64, excludeID string) ([]*entities.Memory, error)

	// GroupDuplicateTexts returns, for an agent, groups of memories that
	// share identical text, ordered oldest-first within each group. Used by
	// the global-deduplicate stage.
	GroupDuplicateTexts(ctx context.Context, agentID string) ([][]*entities.Memory, error)

	Export(ctx context.Context, agentID string) ([]*entities.Memory, error)

	// PurgeOlderThan deletes memories for the agent created before cutoff.
	PurgeOlderThan(ctx context.Context, agentID string, cutoff time.Time) (int64, error)

	// DeleteByAgent deletes every memory belonging to the agent.
	DeleteByAgent(ctx context.Context, agentID string) (int64, error)
}

// EntityStore persists Entity hub documents.
type EntityStore interface {
	// Upsert creates or updates the entity identified by (agentID, slug),
	// incrementing memoryCount and bumping lastSeenAt.
	Upsert(ctx context.Context, agentID, slug, displayName string, now time.Time) (*entities.Entity, error)
	FindBySlug(ctx context.Context, agentID, slug string) (*entities.Entity, error)
	Find(ctx context.Context, agentID string, limit int) ([]*entities.Entity, error)
	Search(ctx context.Context, agentID, query string, limit int) ([]*entities.Entity, error)
}

// EpisodeStore persists Episode narrative records.
type EpisodeStore interface {
	Insert(ctx context.Context, e *entities.Episode) (string, error)
	FindBySessionID(ctx context.Context, agentID, sessionID string) (*entities.Episode, error)
}

// PendingEdgeStore persists edges proposed by a pipeline stage but not yet
// materialized.
type PendingEdgeStore interface {
	Insert(ctx context.Context, e *entities.PendingEdge) error
	InsertMany(ctx context.Context, edges []*entities.PendingEdge) error

	// FindByProbability returns pending edges for the agent with probability
	// at or above floor, highest probability first.
	FindByProbability(ctx context.Context, agentID string, floor float64) ([]*entities.PendingEdge, error)

	Delete(ctx context.Context, id string) error
}
