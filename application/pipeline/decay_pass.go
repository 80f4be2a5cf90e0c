package pipeline

import (
	"context"
	"time"

	"agentmemory/application/ports"
	"agentmemory/domain/core/entities"
	"agentmemory/domain/services"
)

// DecayPassStage invokes the decay calculator (C3) over every memory for
// the job's agent, in batches, updating (one store call each) those whose
// strength actually changed and counting archival/expiration candidates.
type DecayPassStage struct {
	memories  ports.MemoryStore
	batchSize int
}

// NewDecayPassStage constructs stage 6.
func NewDecayPassStage(deps Deps, cfg StageConfig) Stage {
	return &DecayPassStage{memories: deps.Memories, batchSize: cfg.DecayBatchSize}
}

func (s *DecayPassStage) Name() string { return "decay-pass" }

func (s *DecayPassStage) Execute(ctx context.Context, pc *Context) error {
	stats, err := RunDecayPass(ctx, s.memories, pc.AgentID, s.batchSize, pc.Now)
	if err != nil {
		return err
	}
	pc.incr("decay_pass_decayed", stats.Decayed)
	pc.incr("decay_pass_archival_candidates", stats.ArchivalCandidates)
	pc.incr("decay_pass_expiration_candidates", stats.ExpirationCandidates)
	pc.incr("decay_pass_total_memories", stats.TotalMemories)
	return nil
}

// DecayStats summarizes one decay pass, matching the /decay response shape
// (minus duration, which the caller times).
type DecayStats struct {
	TotalMemories        int
	Decayed              int
	ArchivalCandidates   int
	ExpirationCandidates int
}

// RunDecayPass is the shared implementation behind the decay-pass stage, the
// scheduler's daily decay run, and the manual /decay trigger, so all three
// entry points apply identical semantics. agentID empty means all agents.
func RunDecayPass(ctx context.Context, store ports.MemoryStore, agentID string, batchSize int, now time.Time) (DecayStats, error) {
	var stats DecayStats

	err := store.IterateByAgent(ctx, agentID, batchSize, func(batch []*entities.Memory) error {
		var toUpdate []*entities.Memory
		for _, m := range batch {
			stats.TotalMemories++
			newStrength := services.Decay(m.Strength, m.LastReinforcedAt, m.Layer, now)
			if newStrength != m.Strength {
				m.Strength = newStrength
				m.UpdatedAt = now
				toUpdate = append(toUpdate, m)
				stats.Decayed++
			}
			if services.IsArchivalCandidate(newStrength) {
				stats.ArchivalCandidates++
			}
			if services.IsExpirationCandidate(newStrength) {
				stats.ExpirationCandidates++
			}
		}
		for _, m := range toUpdate {
			if err := store.Update(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})

	return stats, err
}
