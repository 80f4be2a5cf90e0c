// Package services implements the core facade (C11): the synchronous
// operations the HTTP layer calls directly, as opposed to the background
// reflection pipeline.
package services

import (
	"context"
	"errors"
	"time"

	"agentmemory/application/pipeline"
	"agentmemory/application/ports"
	"agentmemory/domain/core/entities"
	"agentmemory/domain/core/valueobjects"
	"agentmemory/domain/events"
	"agentmemory/infrastructure/observability"
	apperrors "agentmemory/pkg/errors"
	"agentmemory/pkg/extensions"

	"go.uber.org/zap"
)

// RememberParams carries the overridable fields accepted by Remember.
type RememberParams struct {
	AgentID         string
	Text            string
	Tags            []string
	Metadata        map[string]interface{}
	TTL             time.Duration
	MemoryType      string
	Layer           string
	Confidence      *float64
	SourceSessionID string
	SourceEpisodeID string
}

// RecallParams carries the query parameters accepted by Recall.
type RecallParams struct {
	AgentID string
	Query   string
	Limit   int
	Tags    []string
}

// RecallResult is one item in a Recall response.
type RecallResult struct {
	ID        string
	Text      string
	Score     float64
	Tags      []string
	Metadata  map[string]interface{}
	CreatedAt time.Time
}

// Facade implements C11, gluing the embedder, store, job queue, and
// scheduler together for the HTTP layer.
type Facade struct {
	memories ports.MemoryStore
	pending  ports.PendingEdgeStore
	jobs     ports.JobQueue
	embedder ports.Embedder
	decayRun func(ctx context.Context, agentID string) pipeline.DecayStats
	hooks    *extensions.HookManager
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// New constructs the facade. decayRun is injected so both the manual
// /decay endpoint and the scheduler's daily run share one implementation.
// hooks and metrics may be nil, in which case lifecycle notifications and
// metric recording are skipped.
func New(memories ports.MemoryStore, pending ports.PendingEdgeStore, jobs ports.JobQueue, embedder ports.Embedder, decayRun func(ctx context.Context, agentID string) pipeline.DecayStats, hooks *extensions.HookManager, metrics *observability.Metrics, logger *zap.Logger) *Facade {
	return &Facade{memories: memories, pending: pending, jobs: jobs, embedder: embedder, decayRun: decayRun, hooks: hooks, metrics: metrics, logger: logger}
}

// fireAsync notifies hook subscribers without letting a slow or failing
// hook affect the calling request; per the plugin contract, async hook
// errors are always dropped.
func (f *Facade) fireAsync(ctx context.Context, point extensions.HookPoint, data extensions.HookData) {
	if f.hooks == nil {
		return
	}
	f.hooks.ExecuteAsync(ctx, point, data)
}

// Remember embeds and persists a new memory, applying the documented
// defaults for any field left unset.
func (f *Facade) Remember(ctx context.Context, p RememberParams) (string, error) {
	if p.Text == "" {
		return "", apperrors.NewInvalidInput("text must not be empty")
	}
	if p.AgentID == "" {
		return "", apperrors.NewInvalidInput("agentId must not be empty")
	}

	embedding, err := f.embedder.Embed(ctx, p.Text, ports.RoleDocument)
	if err != nil {
		return "", apperrors.NewEmbedderFailed(err)
	}

	mem, err := entities.NewMemory(entities.NewMemoryParams{
		AgentID:           p.AgentID,
		SourceSessionID:   p.SourceSessionID,
		SourceEpisodeID:   p.SourceEpisodeID,
		Text:              p.Text,
		Tags:              p.Tags,
		Metadata:          p.Metadata,
		Embedding:         embedding,
		TTL:               p.TTL,
		MemoryType:        entities.MemoryType(p.MemoryType),
		Layer:             entities.Layer(p.Layer),
		Confidence:        p.Confidence,
		ExpectedDimension: f.embedder.Dimension(),
	})
	if err != nil {
		return "", apperrors.NewInvalidInput(err.Error())
	}

	id, err := f.memories.Insert(ctx, mem)
	if err != nil {
		return "", apperrors.NewStoreUnavailable("insert memory", err)
	}
	if f.metrics != nil {
		f.metrics.RememberTotal.Inc()
	}
	event := events.NewMemoryCreated(id, p.AgentID, string(mem.Layer), mem.CreatedAt)
	f.fireAsync(ctx, extensions.HookAfterRemember, extensions.HookData{
		AgentID: p.AgentID, MemoryID: id, Operation: "remember", After: mem,
		Metadata: map[string]interface{}{"event": event},
	})
	return id, nil
}

// Recall embeds the query and retrieves the top-ranked memories for the
// agent. When the embedder or store is unavailable it falls back to
// tag/keyword retrieval, reporting method="in_memory" rather than failing
// the request.
func (f *Facade) Recall(ctx context.Context, p RecallParams) ([]RecallResult, string, error) {
	if p.AgentID == "" || p.Query == "" {
		return nil, "", apperrors.NewInvalidInput("agentId and query are required")
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}

	embedding, err := f.embedder.Embed(ctx, p.Query, ports.RoleQuery)
	if err != nil {
		f.logger.Warn("recall: embedder unavailable, falling back to tag retrieval", zap.Error(err))
		return f.recallFallback(ctx, p.AgentID, limit, p.Tags)
	}

	matches, err := f.memories.SimilaritySearch(ctx, p.AgentID, embedding, limit, p.Tags)
	if err != nil {
		// A dimension mismatch means the query embedding (or a stored
		// candidate) is malformed, not that the store is unreachable — that
		// is a caller error, not grounds for a silent fallback.
		if errors.Is(err, valueobjects.ErrDimensionMismatch) {
			return nil, "", apperrors.NewInvalidInput("embedding dimension mismatch between query and stored memory")
		}
		f.logger.Warn("recall: store unavailable, falling back to tag retrieval", zap.Error(err))
		return f.recallFallback(ctx, p.AgentID, limit, p.Tags)
	}

	if f.metrics != nil {
		f.metrics.RecallTotal.WithLabelValues("vector").Inc()
	}
	f.fireAsync(ctx, extensions.HookAfterRecall, extensions.HookData{
		AgentID: p.AgentID, Operation: "recall", Metadata: map[string]interface{}{"method": "vector", "count": len(matches)},
	})
	return toScoredRecallResults(matches), "vector", nil
}

func (f *Facade) recallFallback(ctx context.Context, agentID string, limit int, tags []string) ([]RecallResult, string, error) {
	matches, err := f.memories.Find(ctx, ports.MemoryFilter{AgentID: agentID, Tags: tags}, limit)
	if err != nil {
		return nil, "", apperrors.NewStoreUnavailable("fallback recall", err)
	}
	if f.metrics != nil {
		f.metrics.RecallTotal.WithLabelValues("in_memory").Inc()
	}
	return toRecallResults(matches), "in_memory", nil
}

// toRecallResults builds results for tag/keyword retrieval, which has no
// similarity score to report; Score is left at its zero value.
func toRecallResults(matches []*entities.Memory) []RecallResult {
	out := make([]RecallResult, 0, len(matches))
	for _, m := range matches {
		out = append(out, RecallResult{
			ID:        m.ID,
			Text:      m.Text,
			Tags:      m.Tags,
			Metadata:  m.Metadata,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}

// toScoredRecallResults builds results for vector retrieval, carrying the
// real cosine score each memory was ranked by.
func toScoredRecallResults(matches []ports.ScoredMemory) []RecallResult {
	out := make([]RecallResult, 0, len(matches))
	for _, sm := range matches {
		m := sm.Memory
		out = append(out, RecallResult{
			ID:        m.ID,
			Text:      m.Text,
			Score:     sm.Score,
			Tags:      m.Tags,
			Metadata:  m.Metadata,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}

// Forget deletes a memory and any pending edges referencing it.
func (f *Facade) Forget(ctx context.Context, id string) error {
	mem, err := f.memories.FindByID(ctx, id)
	if err != nil {
		return apperrors.NewStoreUnavailable("find memory", err)
	}
	if mem == nil {
		return apperrors.NewNotFound("memory")
	}
	if err := f.memories.Delete(ctx, id); err != nil {
		return apperrors.NewStoreUnavailable("delete memory", err)
	}
	if f.pending != nil {
		edges, err := f.pending.FindByProbability(ctx, mem.AgentID, 0)
		if err != nil {
			return apperrors.NewStoreUnavailable("find pending edges", err)
		}
		for _, pe := range edges {
			if pe.SourceID != id && pe.TargetID != id {
				continue
			}
			if err := f.pending.Delete(ctx, pe.ID); err != nil {
				return apperrors.NewStoreUnavailable("delete pending edge", err)
			}
		}
	}
	event := events.NewMemoryForgotten(id, "explicit", time.Now().UTC())
	f.fireAsync(ctx, extensions.HookAfterForget, extensions.HookData{
		AgentID: mem.AgentID, MemoryID: id, Operation: "forget", Before: mem,
		Metadata: map[string]interface{}{"event": event},
	})
	return nil
}

// TriggerReflection creates a pending reflection job with the transcript
// stashed in its metadata for the dispatcher to pick up.
func (f *Facade) TriggerReflection(ctx context.Context, agentID, sessionID, transcript string, metadata map[string]interface{}) (string, error) {
	if agentID == "" || transcript == "" {
		return "", apperrors.NewInvalidInput("agentId and transcript are required")
	}
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metadata["transcript"] = transcript

	id, err := f.jobs.Create(ctx, agentID, sessionID, metadata)
	if err != nil {
		return "", apperrors.NewStoreUnavailable("create job", err)
	}
	return id, nil
}

// TriggerDecay invokes the decay pass synchronously for the given agent
// (or all agents, when agentID is empty) and returns summary stats.
func (f *Facade) TriggerDecay(ctx context.Context, agentID string) pipeline.DecayStats {
	return f.decayRun(ctx, agentID)
}
