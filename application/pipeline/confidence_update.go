package pipeline

import (
	"context"

	"agentmemory/application/ports"
	"agentmemory/domain/core/entities"
	"agentmemory/domain/services"
)

// ConfidenceUpdateStage applies the confidence arithmetic (C5) produced by
// earlier stages: contradictions pull a target memory's confidence down,
// likely-duplicates reinforce it upward.
type ConfidenceUpdateStage struct {
	memories ports.MemoryStore
}

// NewConfidenceUpdateStage constructs stage 5.
func NewConfidenceUpdateStage(deps Deps) Stage {
	return &ConfidenceUpdateStage{memories: deps.Memories}
}

func (s *ConfidenceUpdateStage) Name() string { return "confidence-update" }

func (s *ConfidenceUpdateStage) Execute(ctx context.Context, pc *Context) error {
	for _, atom := range pc.ClassifiedAtoms {
		for _, c := range atom.Contradictions {
			target, err := s.memories.FindByID(ctx, c.TargetMemoryID)
			if err != nil {
				return err
			}
			if target == nil {
				continue
			}

			atomConfidence := 0.6
			if atom.Confidence != nil {
				atomConfidence = *atom.Confidence
			}
			newConfidence := services.ApplyContradiction(target.Confidence, atomConfidence)

			severity := entities.SeverityMedium
			if services.IsStrongContradiction(atomConfidence) {
				severity = entities.SeverityHigh
			}

			err = s.memories.ApplyContradiction(ctx, target.ID, newConfidence, entities.Contradiction{
				TargetMemoryID: contradictingMemoryID(atom),
				DetectedAt:     pc.Now,
				Type:           c.Type,
				Explanation:    c.Explanation,
				Probability:    c.Probability,
				Severity:       severity,
			}, pc.Now)
			if err != nil {
				return err
			}
			pc.incr("confidence_update_contradictions_applied", 1)
		}

		if atom.LikelyDuplicateOf != "" {
			target, err := s.memories.FindByID(ctx, atom.LikelyDuplicateOf)
			if err != nil {
				return err
			}
			if target == nil {
				continue
			}
			newConfidence := services.Reinforce(target.Confidence)
			if err := s.memories.ApplyReinforcement(ctx, target.ID, newConfidence, pc.Now); err != nil {
				return err
			}
			pc.incr("confidence_update_reinforcements_applied", 1)
		}
	}
	return nil
}

// contradictingMemoryID returns the persisted atom's own ID when it exists
// so a contradiction entry on the target points back at the new memory;
// atoms that were themselves duplicates have no persisted record.
func contradictingMemoryID(atom *Atom) string {
	if atom.Persisted != nil {
		return atom.Persisted.ID
	}
	return ""
}
