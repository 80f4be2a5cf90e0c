package pipeline

import (
	"context"
	"time"

	"agentmemory/application/ports"
	"agentmemory/domain/core/entities"
)

// fakeMemoryStore implements ports.MemoryStore, backing only the methods
// stage tests in this package actually exercise; everything else panics via
// the embedded nil interface if called unexpectedly.
type fakeMemoryStore struct {
	ports.MemoryStore
	inserted   []*entities.Memory
	duplicate  *entities.Memory
	insertErr  error
	groups     [][]*entities.Memory
	updated    []*entities.Memory
	deletedIDs []string
	batch      []*entities.Memory

	byID                  map[string]*entities.Memory
	contradictionsApplied []appliedContradiction
	reinforcementsApplied []appliedReinforcement
	findResult            []*entities.Memory
	findErr               error
	pushedEdges           []pushedEdge
	pushEdgeErr           error
}

type pushedEdge struct {
	id   string
	edge entities.GraphEdge
}

type appliedContradiction struct {
	id            string
	newConfidence float64
	c             entities.Contradiction
}

type appliedReinforcement struct {
	id            string
	newConfidence float64
}

func (f *fakeMemoryStore) Insert(ctx context.Context, m *entities.Memory) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.inserted = append(f.inserted, m)
	return m.ID, nil
}

func (f *fakeMemoryStore) DuplicatesOf(ctx context.Context, agentID string, embedding []float64, threshold float64, excludeID string) ([]*entities.Memory, error) {
	if f.duplicate != nil {
		return []*entities.Memory{f.duplicate}, nil
	}
	return nil, nil
}

func (f *fakeMemoryStore) GroupDuplicateTexts(ctx context.Context, agentID string) ([][]*entities.Memory, error) {
	return f.groups, nil
}

func (f *fakeMemoryStore) Update(ctx context.Context, m *entities.Memory) error {
	f.updated = append(f.updated, m)
	return nil
}

func (f *fakeMemoryStore) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	f.deletedIDs = append(f.deletedIDs, ids...)
	return int64(len(ids)), nil
}

func (f *fakeMemoryStore) IterateByAgent(ctx context.Context, agentID string, batchSize int, fn func([]*entities.Memory) error) error {
	if len(f.batch) == 0 {
		return nil
	}
	return fn(f.batch)
}

func (f *fakeMemoryStore) PushEdge(ctx context.Context, id string, edge entities.GraphEdge, now time.Time) error {
	if f.pushEdgeErr != nil {
		return f.pushEdgeErr
	}
	f.pushedEdges = append(f.pushedEdges, pushedEdge{id: id, edge: edge})
	return nil
}

func (f *fakeMemoryStore) Find(ctx context.Context, filter ports.MemoryFilter, limit int) ([]*entities.Memory, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findResult, nil
}

func (f *fakeMemoryStore) FindByID(ctx context.Context, id string) (*entities.Memory, error) {
	if f.byID == nil {
		return nil, nil
	}
	return f.byID[id], nil
}

func (f *fakeMemoryStore) ApplyContradiction(ctx context.Context, id string, newConfidence float64, c entities.Contradiction, now time.Time) error {
	f.contradictionsApplied = append(f.contradictionsApplied, appliedContradiction{id: id, newConfidence: newConfidence, c: c})
	if f.byID != nil && f.byID[id] != nil {
		f.byID[id].Confidence = newConfidence
	}
	return nil
}

func (f *fakeMemoryStore) ApplyReinforcement(ctx context.Context, id string, newConfidence float64, now time.Time) error {
	f.reinforcementsApplied = append(f.reinforcementsApplied, appliedReinforcement{id: id, newConfidence: newConfidence})
	if f.byID != nil && f.byID[id] != nil {
		f.byID[id].Confidence = newConfidence
	}
	return nil
}

// fakeEmbedder implements ports.Embedder, returning a fixed vector (or an
// error) regardless of input text.
type fakeEmbedder struct {
	vector []float64
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, role ports.EmbeddingRole) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) Dimension() int { return len(f.vector) }
func (f *fakeEmbedder) Mode() string   { return "mock" }

// fakeLLM implements ports.LLMClient, returning a fixed set of candidate
// memories (or an error) regardless of the transcript passed in.
type fakeLLM struct {
	candidates []ports.CandidateMemory
	err        error
}

func (f *fakeLLM) ExtractMemories(ctx context.Context, transcript string) ([]ports.CandidateMemory, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

func (f *fakeLLM) ExplainContradiction(ctx context.Context, newText, targetText, cType string) (string, error) {
	return "", nil
}

// fakeEntityStore implements ports.EntityStore, upserting into an in-memory
// map keyed by slug.
type fakeEntityStore struct {
	ports.EntityStore
	bySlug    map[string]*entities.Entity
	upsertErr error
}

func (f *fakeEntityStore) Upsert(ctx context.Context, agentID, slug, displayName string, now time.Time) (*entities.Entity, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	if f.bySlug == nil {
		f.bySlug = map[string]*entities.Entity{}
	}
	if existing, ok := f.bySlug[slug]; ok {
		existing.MemoryCount++
		return existing, nil
	}
	ent := &entities.Entity{ID: "entity-" + slug, AgentID: agentID, Slug: slug, DisplayName: displayName, MemoryCount: 1, LastSeenAt: now}
	f.bySlug[slug] = ent
	return ent, nil
}

// fakePendingEdgeStore implements ports.PendingEdgeStore in memory.
type fakePendingEdgeStore struct {
	inserted     []*entities.PendingEdge
	insertErr    error
	byProb       []*entities.PendingEdge
	findProbErr  error
	deletedIDs   []string
}

func (f *fakePendingEdgeStore) Insert(ctx context.Context, e *entities.PendingEdge) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, e)
	return nil
}

func (f *fakePendingEdgeStore) InsertMany(ctx context.Context, edges []*entities.PendingEdge) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, edges...)
	return nil
}

func (f *fakePendingEdgeStore) FindByProbability(ctx context.Context, agentID string, floor float64) ([]*entities.PendingEdge, error) {
	if f.findProbErr != nil {
		return nil, f.findProbErr
	}
	return f.byProb, nil
}

func (f *fakePendingEdgeStore) Delete(ctx context.Context, id string) error {
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}
