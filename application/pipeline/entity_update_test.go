package pipeline

import (
	"context"
	"testing"
	"time"

	"agentmemory/domain/core/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityUpdateStageUpsertsMentionsAndEmitsEdges(t *testing.T) {
	entityStore := &fakeEntityStore{}
	pendingEdges := &fakePendingEdgeStore{}
	stage := NewEntityUpdateStage(Deps{Entities: entityStore, PendingEdges: pendingEdges})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())
	pc.ClassifiedAtoms = []*Atom{{
		Text:      "Sarah works with Docker now",
		Persisted: &entities.Memory{ID: "mem-1"},
	}}

	require.NoError(t, stage.Execute(context.Background(), pc))

	assert.Len(t, entityStore.bySlug, 2)
	assert.Contains(t, entityStore.bySlug, "sarah")
	assert.Contains(t, entityStore.bySlug, "docker")
	assert.Len(t, pendingEdges.inserted, 2)
	assert.Equal(t, 2, pc.Stats["entity_update_upserted"])
	assert.Equal(t, 2, pc.Stats["entity_update_pending_edges"])
	for _, edge := range pendingEdges.inserted {
		assert.Equal(t, "mem-1", edge.SourceID)
		assert.Equal(t, entities.EdgeTypeMentionsEntity, edge.Type)
	}
}

func TestEntityUpdateStageSkipsAtomsNotYetPersisted(t *testing.T) {
	entityStore := &fakeEntityStore{}
	pendingEdges := &fakePendingEdgeStore{}
	stage := NewEntityUpdateStage(Deps{Entities: entityStore, PendingEdges: pendingEdges})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())
	pc.ClassifiedAtoms = []*Atom{{Text: "Sarah works with Docker", Persisted: nil}}

	require.NoError(t, stage.Execute(context.Background(), pc))

	assert.Empty(t, entityStore.bySlug)
	assert.Empty(t, pendingEdges.inserted)
}

func TestEntityUpdateStageSkipsTextWithNoProperNouns(t *testing.T) {
	entityStore := &fakeEntityStore{}
	pendingEdges := &fakePendingEdgeStore{}
	stage := NewEntityUpdateStage(Deps{Entities: entityStore, PendingEdges: pendingEdges})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())
	pc.ClassifiedAtoms = []*Atom{{Text: "drinks coffee every morning", Persisted: &entities.Memory{ID: "mem-1"}}}

	require.NoError(t, stage.Execute(context.Background(), pc))

	assert.Empty(t, entityStore.bySlug)
	assert.Empty(t, pendingEdges.inserted)
}

func TestEntityUpdateStagePropagatesUpsertError(t *testing.T) {
	entityStore := &fakeEntityStore{upsertErr: assertErr}
	pendingEdges := &fakePendingEdgeStore{}
	stage := NewEntityUpdateStage(Deps{Entities: entityStore, PendingEdges: pendingEdges})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())
	pc.ClassifiedAtoms = []*Atom{{Text: "Sarah works here", Persisted: &entities.Memory{ID: "mem-1"}}}

	err := stage.Execute(context.Background(), pc)
	assert.ErrorIs(t, err, assertErr)
}
