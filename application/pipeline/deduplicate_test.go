package pipeline

import (
	"context"
	"testing"
	"time"

	"agentmemory/domain/core/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduplicateStageMarksDuplicate(t *testing.T) {
	memories := &fakeMemoryStore{duplicate: &entities.Memory{ID: "existing-1"}}
	embedder := &fakeEmbedder{vector: []float64{1, 0, 0}}

	stage := NewDeduplicateStage(Deps{Memories: memories, Embedder: embedder}, StageConfig{DuplicateSimilarityThreshold: 0.92})
	pc := NewContext("job-1", "agent-1", "session-1", "transcript", time.Now().UTC())
	pc.ExtractedAtoms = []*Atom{{Text: "I like tea"}}

	require.NoError(t, stage.Execute(context.Background(), pc))

	require.Len(t, pc.DeduplicatedAtoms, 1)
	assert.Equal(t, "existing-1", pc.DeduplicatedAtoms[0].LikelyDuplicateOf)
	assert.Equal(t, []float64{1, 0, 0}, []float64(pc.DeduplicatedAtoms[0].Embedding))
	assert.Equal(t, 1, pc.Stats["deduplicate_duplicates"])
	assert.Equal(t, 1, pc.Stats["deduplicate_atoms"])
}

func TestDeduplicateStageLeavesNonDuplicateUnmarked(t *testing.T) {
	memories := &fakeMemoryStore{}
	embedder := &fakeEmbedder{vector: []float64{0, 1, 0}}

	stage := NewDeduplicateStage(Deps{Memories: memories, Embedder: embedder}, StageConfig{DuplicateSimilarityThreshold: 0.92})
	pc := NewContext("job-1", "agent-1", "session-1", "transcript", time.Now().UTC())
	pc.ExtractedAtoms = []*Atom{{Text: "a novel fact"}}

	require.NoError(t, stage.Execute(context.Background(), pc))

	require.Len(t, pc.DeduplicatedAtoms, 1)
	assert.Empty(t, pc.DeduplicatedAtoms[0].LikelyDuplicateOf)
	assert.Equal(t, 0, pc.Stats["deduplicate_duplicates"])
}

func TestDeduplicateStagePropagatesEmbedderError(t *testing.T) {
	memories := &fakeMemoryStore{}
	embedder := &fakeEmbedder{err: assertErr}

	stage := NewDeduplicateStage(Deps{Memories: memories, Embedder: embedder}, StageConfig{DuplicateSimilarityThreshold: 0.92})
	pc := NewContext("job-1", "agent-1", "session-1", "transcript", time.Now().UTC())
	pc.ExtractedAtoms = []*Atom{{Text: "anything"}}

	err := stage.Execute(context.Background(), pc)
	assert.ErrorIs(t, err, assertErr)
}

var assertErr = errStub("embedder unavailable")

type errStub string

func (e errStub) Error() string { return string(e) }
