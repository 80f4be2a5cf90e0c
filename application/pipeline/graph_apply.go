package pipeline

import (
	"context"
	"time"

	"agentmemory/application/ports"
	"agentmemory/domain/core/entities"

	"go.uber.org/zap"
)

// GraphApplyStage loads pending edges at or above the probability floor,
// highest first, and materializes each onto its source (and, for
// CO_OCCURS/CONTRADICTS, its target) memory. Individual edge failures are
// logged and counted as skipped and do not fail the stage; a failure to load
// the pending edges is returned as the stage's error.
type GraphApplyStage struct {
	memories     ports.MemoryStore
	pendingEdges ports.PendingEdgeStore
	floor        float64
	logger       *zap.Logger
}

// NewGraphApplyStage constructs stage 9.
func NewGraphApplyStage(deps Deps, cfg StageConfig) Stage {
	return &GraphApplyStage{
		memories:     deps.Memories,
		pendingEdges: deps.PendingEdges,
		floor:        cfg.ContradictionProbabilityFloor,
		logger:       zap.NewNop(),
	}
}

func (s *GraphApplyStage) Name() string { return "graph-apply" }

func (s *GraphApplyStage) Execute(ctx context.Context, pc *Context) error {
	pending, err := s.pendingEdges.FindByProbability(ctx, pc.AgentID, s.floor)
	if err != nil {
		return err
	}

	var applied, skipped int
	for _, pe := range pending {
		ok, err := s.applyOne(ctx, pe, pc.Now)
		if err != nil {
			s.logger.Warn("graph-apply: failed to apply pending edge", zap.String("id", pe.ID), zap.Error(err))
			skipped++
			continue
		}
		if ok {
			applied++
		} else {
			skipped++
		}
	}

	pc.incr("graph-apply_applied", applied)
	pc.incr("graph-apply_skipped", skipped)
	return nil
}

// applyOne materializes a single pending edge, returning (applied, error).
// A missing source memory is not an error: it deletes the pending edge and
// counts as skipped.
func (s *GraphApplyStage) applyOne(ctx context.Context, pe *entities.PendingEdge, now time.Time) (bool, error) {
	source, err := s.memories.FindByID(ctx, pe.SourceID)
	if err != nil {
		return false, err
	}
	if source == nil {
		return false, s.pendingEdges.Delete(ctx, pe.ID)
	}

	if err := s.memories.PushEdge(ctx, source.ID, pe.AsGraphEdge(), now); err != nil {
		return false, err
	}

	if pe.NeedsReverseEdge() {
		target, err := s.memories.FindByID(ctx, pe.TargetID)
		if err != nil {
			return false, err
		}
		if target != nil {
			reverse := entities.GraphEdge{
				Type:      pe.Type,
				TargetID:  pe.SourceID,
				Weight:    pe.Weight,
				CreatedAt: now,
			}
			if err := s.memories.PushEdge(ctx, target.ID, reverse, now); err != nil {
				return false, err
			}
		}
	}

	if err := s.pendingEdges.Delete(ctx, pe.ID); err != nil {
		return false, err
	}
	return true, nil
}
