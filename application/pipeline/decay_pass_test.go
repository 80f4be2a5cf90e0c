package pipeline

import (
	"context"
	"testing"
	"time"

	"agentmemory/domain/core/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDecayPassUpdatesOnlyChangedStrengths(t *testing.T) {
	now := time.Now().UTC()
	stale := &entities.Memory{
		ID: "m1", Strength: 0.8, Layer: entities.LayerEpisodic,
		LastReinforcedAt: now.AddDate(0, 0, -30),
	}
	fresh := &entities.Memory{
		ID: "m2", Strength: 0.8, Layer: entities.LayerEpisodic,
		LastReinforcedAt: now,
	}
	memories := &fakeMemoryStore{batch: []*entities.Memory{stale, fresh}}

	stats, err := RunDecayPass(context.Background(), memories, "agent-1", 100, now)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalMemories)
	assert.Equal(t, 1, stats.Decayed)
	require.Len(t, memories.updated, 1)
	assert.Equal(t, "m1", memories.updated[0].ID)
	assert.Less(t, stale.Strength, 0.8)
	assert.Equal(t, 0.8, fresh.Strength)
}

func TestRunDecayPassCountsArchivalAndExpirationCandidates(t *testing.T) {
	now := time.Now().UTC()
	archivalCandidate := &entities.Memory{
		ID: "archival", Strength: 1.0, Layer: entities.LayerWorking,
		LastReinforcedAt: now.AddDate(0, 0, -40),
	}
	memories := &fakeMemoryStore{batch: []*entities.Memory{archivalCandidate}}

	stats, err := RunDecayPass(context.Background(), memories, "agent-1", 100, now)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalMemories)
	if stats.ArchivalCandidates+stats.ExpirationCandidates != 1 {
		t.Fatalf("expected exactly one of archival/expiration candidate counts to be 1, got archival=%d expiration=%d",
			stats.ArchivalCandidates, stats.ExpirationCandidates)
	}
}

func TestDecayPassStageAccumulatesStats(t *testing.T) {
	now := time.Now().UTC()
	mem := &entities.Memory{
		ID: "m1", Strength: 0.8, Layer: entities.LayerEpisodic,
		LastReinforcedAt: now.AddDate(0, 0, -30),
	}
	memories := &fakeMemoryStore{batch: []*entities.Memory{mem}}

	stage := NewDecayPassStage(Deps{Memories: memories}, StageConfig{DecayBatchSize: 50})
	pc := NewContext("job-1", "agent-1", "", "", now)

	require.NoError(t, stage.Execute(context.Background(), pc))

	assert.Equal(t, 1, pc.Stats["decay_pass_total_memories"])
	assert.Equal(t, 1, pc.Stats["decay_pass_decayed"])
}
