package pipeline

import (
	"context"

	"agentmemory/application/ports"
)

// DeduplicateStage marks atoms that are near-duplicates of an existing
// memory for the same agent, so classify can skip persisting a new record
// and confidence-update can reinforce the existing one instead.
type DeduplicateStage struct {
	memories  ports.MemoryStore
	embedder  ports.Embedder
	threshold float64
}

// NewDeduplicateStage constructs stage 2.
func NewDeduplicateStage(deps Deps, cfg StageConfig) Stage {
	return &DeduplicateStage{
		memories:  deps.Memories,
		embedder:  deps.Embedder,
		threshold: cfg.DuplicateSimilarityThreshold,
	}
}

func (s *DeduplicateStage) Name() string { return "deduplicate" }

func (s *DeduplicateStage) Execute(ctx context.Context, pc *Context) error {
	out := make([]*Atom, 0, len(pc.ExtractedAtoms))
	for _, atom := range pc.ExtractedAtoms {
		embedding, err := s.embedder.Embed(ctx, atom.Text, ports.RoleDocument)
		if err != nil {
			return err
		}
		atom.Embedding = embedding

		dupes, err := s.memories.DuplicatesOf(ctx, pc.AgentID, embedding, s.threshold, "")
		if err != nil {
			return err
		}
		if len(dupes) > 0 {
			atom.LikelyDuplicateOf = dupes[0].ID
			pc.incr("deduplicate_duplicates", 1)
		}
		out = append(out, atom)
	}
	pc.DeduplicatedAtoms = out
	pc.incr("deduplicate_atoms", len(out))
	return nil
}
