package pipeline

import (
	"context"
	"testing"
	"time"

	"agentmemory/application/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractStageConvertsCandidatesToAtoms(t *testing.T) {
	conf := 0.8
	llm := &fakeLLM{candidates: []ports.CandidateMemory{
		{Text: "I work at Acme Corp", Tags: []string{"work"}, MemoryType: "fact", Confidence: &conf},
	}}
	stage := NewExtractStage(Deps{LLM: llm})
	pc := NewContext("job-1", "agent-1", "session-1", "some transcript", time.Now().UTC())

	require.NoError(t, stage.Execute(context.Background(), pc))

	require.Len(t, pc.ExtractedAtoms, 1)
	atom := pc.ExtractedAtoms[0]
	assert.Equal(t, "I work at Acme Corp", atom.Text)
	assert.Equal(t, []string{"work"}, atom.Tags)
	assert.Equal(t, "fact", atom.MemoryType)
	require.NotNil(t, atom.Confidence)
	assert.Equal(t, 0.8, *atom.Confidence)
	assert.Equal(t, 1, pc.Stats["extract_atoms"])
}

func TestExtractStageHandlesNoCandidates(t *testing.T) {
	llm := &fakeLLM{candidates: nil}
	stage := NewExtractStage(Deps{LLM: llm})
	pc := NewContext("job-1", "agent-1", "session-1", "nothing memorable", time.Now().UTC())

	require.NoError(t, stage.Execute(context.Background(), pc))

	assert.Empty(t, pc.ExtractedAtoms)
	assert.Equal(t, 0, pc.Stats["extract_atoms"])
}

func TestExtractStagePropagatesLLMError(t *testing.T) {
	llm := &fakeLLM{err: assertErr}
	stage := NewExtractStage(Deps{LLM: llm})
	pc := NewContext("job-1", "agent-1", "session-1", "transcript", time.Now().UTC())

	err := stage.Execute(context.Background(), pc)
	assert.ErrorIs(t, err, assertErr)
}
