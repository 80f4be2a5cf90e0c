package pipeline

import (
	"context"

	"agentmemory/application/contradiction"
	"agentmemory/application/ports"
	"agentmemory/domain/config"

	"go.uber.org/zap"
)

// ConflictCheckStage runs the contradiction detector (C4) against every
// deduplicated atom and attaches any contradictions found to the atom, for
// confidence-update to apply downstream.
type ConflictCheckStage struct {
	memories ports.MemoryStore
	embedder ports.Embedder
	detector *contradiction.Detector
}

// NewConflictCheckStage constructs stage 3.
func NewConflictCheckStage(deps Deps, cfg StageConfig) Stage {
	return &ConflictCheckStage{
		memories: deps.Memories,
		embedder: deps.Embedder,
		detector: contradiction.New(deps.Memories, domainConfigFromStageConfig(cfg), zap.NewNop()),
	}
}

// domainConfigFromStageConfig reconstructs the slice of DomainConfig the
// detector needs from the narrower StageConfig passed to pipeline stages.
func domainConfigFromStageConfig(cfg StageConfig) *config.DomainConfig {
	full := config.DefaultDomainConfig()
	full.ContradictionProbabilityFloor = cfg.ContradictionProbabilityFloor
	return full
}

func (s *ConflictCheckStage) Name() string { return "conflict-check" }

func (s *ConflictCheckStage) Execute(ctx context.Context, pc *Context) error {
	for _, atom := range pc.DeduplicatedAtoms {
		if len(atom.Embedding) == 0 {
			embedding, err := s.embedder.Embed(ctx, atom.Text, ports.RoleDocument)
			if err != nil {
				return err
			}
			atom.Embedding = embedding
		}

		candidates := s.detector.Detect(ctx, pc.AgentID, atom.Text, atom.Tags, atom.Embedding)
		if len(candidates) == 0 {
			continue
		}
		for _, c := range candidates {
			atom.Contradictions = append(atom.Contradictions, contradictionAttachment{
				TargetMemoryID: c.TargetMemoryID,
				Type:           c.Type,
				Probability:    c.Probability,
				Explanation:    c.Explanation,
			})
		}
		pc.incr("conflict_check_conflicts", len(candidates))
	}
	return nil
}
