package pipeline

import (
	"context"
	"testing"
	"time"

	"agentmemory/domain/core/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalDedupStageMergesAndRemoves(t *testing.T) {
	kept := &entities.Memory{ID: "keep", Text: "dup text", Tags: []string{"a"}}
	dup := &entities.Memory{ID: "drop", Text: "dup text", Tags: []string{"b"}}
	memories := &fakeMemoryStore{groups: [][]*entities.Memory{{kept, dup}}}

	stage := NewGlobalDedupStage(Deps{Memories: memories})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())

	require.NoError(t, stage.Execute(context.Background(), pc))

	require.Len(t, memories.updated, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, memories.updated[0].Tags)
	assert.Equal(t, []string{"drop"}, memories.deletedIDs)
	assert.Equal(t, 1, pc.Stats["global-deduplicate_groups_found"])
	assert.Equal(t, 1, pc.Stats["global-deduplicate_memories_removed"])
}

func TestGlobalDedupStageSkipsSingletonGroups(t *testing.T) {
	memories := &fakeMemoryStore{groups: [][]*entities.Memory{{{ID: "solo", Text: "unique"}}}}
	stage := NewGlobalDedupStage(Deps{Memories: memories})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())

	require.NoError(t, stage.Execute(context.Background(), pc))

	assert.Empty(t, memories.updated)
	assert.Empty(t, memories.deletedIDs)
	assert.Equal(t, 0, pc.Stats["global-deduplicate_groups_found"])
}

func TestRunGlobalDedupDryRunWritesNothing(t *testing.T) {
	kept := &entities.Memory{ID: "keep", Text: "dup text", Tags: []string{"a"}}
	dup := &entities.Memory{ID: "drop", Text: "dup text", Tags: []string{"b"}}
	memories := &fakeMemoryStore{groups: [][]*entities.Memory{{kept, dup}}}

	found, removed, details, err := RunGlobalDedup(context.Background(), memories, "agent-1", true, time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, 1, found)
	assert.Equal(t, 1, removed)
	require.Len(t, details, 1)
	assert.Equal(t, "keep", details[0].KeptID)
	assert.Empty(t, memories.updated)
	assert.Empty(t, memories.deletedIDs)
}

func TestRunGlobalDedupLiveRunPersists(t *testing.T) {
	kept := &entities.Memory{ID: "keep", Text: "dup text", Tags: []string{"a"}}
	dup := &entities.Memory{ID: "drop", Text: "dup text", Tags: []string{"b"}}
	memories := &fakeMemoryStore{groups: [][]*entities.Memory{{kept, dup}}}

	found, removed, _, err := RunGlobalDedup(context.Background(), memories, "agent-1", false, time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, 1, found)
	assert.Equal(t, 1, removed)
	require.Len(t, memories.updated, 1)
	assert.Equal(t, []string{"drop"}, memories.deletedIDs)
}
