package pipeline

import (
	"context"
	"testing"
	"time"

	"agentmemory/domain/core/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphLinkStageEmitsCoOccursAndPrecedesForPlainPair(t *testing.T) {
	pendingEdges := &fakePendingEdgeStore{}
	stage := NewGraphLinkStage(Deps{PendingEdges: pendingEdges}, StageConfig{})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())
	pc.ClassifiedAtoms = []*Atom{
		{Persisted: &entities.Memory{ID: "a"}, Text: "likes tea"},
		{Persisted: &entities.Memory{ID: "b"}, Text: "enjoys reading"},
	}

	require.NoError(t, stage.Execute(context.Background(), pc))

	require.Len(t, pendingEdges.inserted, 2)
	var types []entities.EdgeType
	for _, e := range pendingEdges.inserted {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, entities.EdgeTypeCoOccurs)
	assert.Contains(t, types, entities.EdgeTypePrecedes)
	assert.Equal(t, 2, pc.Stats["graph-link_edges_proposed"])
}

func TestGraphLinkStageDetectsCausativeLanguage(t *testing.T) {
	pendingEdges := &fakePendingEdgeStore{}
	stage := NewGraphLinkStage(Deps{PendingEdges: pendingEdges}, StageConfig{})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())
	pc.ClassifiedAtoms = []*Atom{
		{Persisted: &entities.Memory{ID: "a"}, Text: "missed the bus"},
		{Persisted: &entities.Memory{ID: "b"}, Text: "which caused me to be late"},
	}

	require.NoError(t, stage.Execute(context.Background(), pc))

	var types []entities.EdgeType
	for _, e := range pendingEdges.inserted {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, entities.EdgeTypeCauses)
	assert.NotContains(t, types, entities.EdgeTypePrecedes)
}

func TestGraphLinkStageDetectsSupersedesLanguage(t *testing.T) {
	pendingEdges := &fakePendingEdgeStore{}
	stage := NewGraphLinkStage(Deps{PendingEdges: pendingEdges}, StageConfig{})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())
	pc.ClassifiedAtoms = []*Atom{
		{Persisted: &entities.Memory{ID: "a"}, Text: "used Python for the script"},
		{Persisted: &entities.Memory{ID: "b"}, Text: "switched to Go instead of Python"},
	}

	require.NoError(t, stage.Execute(context.Background(), pc))

	var supersedesEdge *entities.PendingEdge
	for _, e := range pendingEdges.inserted {
		if e.Type == entities.EdgeTypeSupersedes {
			supersedesEdge = e
		}
	}
	require.NotNil(t, supersedesEdge)
	assert.Equal(t, "b", supersedesEdge.SourceID)
	assert.Equal(t, "a", supersedesEdge.TargetID)
}

func TestGraphLinkStageSkipsUnpersistedAtoms(t *testing.T) {
	pendingEdges := &fakePendingEdgeStore{}
	stage := NewGraphLinkStage(Deps{PendingEdges: pendingEdges}, StageConfig{})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())
	pc.ClassifiedAtoms = []*Atom{
		{Persisted: nil, Text: "a duplicate, not newly persisted"},
		{Persisted: &entities.Memory{ID: "b"}, Text: "a fresh fact"},
	}

	require.NoError(t, stage.Execute(context.Background(), pc))

	assert.Empty(t, pendingEdges.inserted)
	assert.Equal(t, 0, pc.Stats["graph-link_edges_proposed"])
}
