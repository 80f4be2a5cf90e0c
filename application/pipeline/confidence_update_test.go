package pipeline

import (
	"context"
	"testing"
	"time"

	"agentmemory/domain/core/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidenceUpdateStageAppliesWeakContradiction(t *testing.T) {
	target := &entities.Memory{ID: "target-1", Confidence: 0.8}
	memories := &fakeMemoryStore{byID: map[string]*entities.Memory{"target-1": target}}

	stage := NewConfidenceUpdateStage(Deps{Memories: memories})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())
	weak := 0.5
	pc.ClassifiedAtoms = []*Atom{{
		Confidence: &weak,
		Contradictions: []contradictionAttachment{{
			TargetMemoryID: "target-1",
			Type:           entities.ContradictionPreference,
			Probability:    0.6,
			Explanation:    "opposite preference",
		}},
	}}

	require.NoError(t, stage.Execute(context.Background(), pc))

	require.Len(t, memories.contradictionsApplied, 1)
	applied := memories.contradictionsApplied[0]
	assert.Equal(t, "target-1", applied.id)
	assert.Equal(t, entities.SeverityMedium, applied.c.Severity)
	assert.Less(t, applied.newConfidence, 0.8)
	assert.Equal(t, 1, pc.Stats["confidence_update_contradictions_applied"])
}

func TestConfidenceUpdateStageAppliesStrongContradiction(t *testing.T) {
	target := &entities.Memory{ID: "target-1", Confidence: 0.8}
	memories := &fakeMemoryStore{byID: map[string]*entities.Memory{"target-1": target}}

	stage := NewConfidenceUpdateStage(Deps{Memories: memories})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())
	strong := 0.95
	pc.ClassifiedAtoms = []*Atom{{
		Confidence: &strong,
		Contradictions: []contradictionAttachment{{
			TargetMemoryID: "target-1",
			Type:           entities.ContradictionDirect,
			Probability:    0.9,
			Explanation:    "direct factual conflict",
		}},
	}}

	require.NoError(t, stage.Execute(context.Background(), pc))

	require.Len(t, memories.contradictionsApplied, 1)
	assert.Equal(t, entities.SeverityHigh, memories.contradictionsApplied[0].c.Severity)
}

func TestConfidenceUpdateStagePointsContradictionAtPersistedAtomID(t *testing.T) {
	target := &entities.Memory{ID: "target-1", Confidence: 0.8}
	memories := &fakeMemoryStore{byID: map[string]*entities.Memory{"target-1": target}}

	stage := NewConfidenceUpdateStage(Deps{Memories: memories})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())
	pc.ClassifiedAtoms = []*Atom{{
		Persisted: &entities.Memory{ID: "new-memory-1"},
		Contradictions: []contradictionAttachment{{
			TargetMemoryID: "target-1",
			Type:           entities.ContradictionDirect,
			Probability:    0.7,
		}},
	}}

	require.NoError(t, stage.Execute(context.Background(), pc))

	require.Len(t, memories.contradictionsApplied, 1)
	assert.Equal(t, "new-memory-1", memories.contradictionsApplied[0].c.TargetMemoryID)
}

func TestConfidenceUpdateStageLeavesContradictionUnresolvedWhenAtomWasItselfADuplicate(t *testing.T) {
	target := &entities.Memory{ID: "target-1", Confidence: 0.8}
	memories := &fakeMemoryStore{byID: map[string]*entities.Memory{"target-1": target}}

	stage := NewConfidenceUpdateStage(Deps{Memories: memories})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())
	pc.ClassifiedAtoms = []*Atom{{
		Contradictions: []contradictionAttachment{{TargetMemoryID: "target-1"}},
	}}

	require.NoError(t, stage.Execute(context.Background(), pc))

	require.Len(t, memories.contradictionsApplied, 1)
	assert.Empty(t, memories.contradictionsApplied[0].c.TargetMemoryID)
}

func TestConfidenceUpdateStageSkipsMissingContradictionTarget(t *testing.T) {
	memories := &fakeMemoryStore{byID: map[string]*entities.Memory{}}

	stage := NewConfidenceUpdateStage(Deps{Memories: memories})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())
	pc.ClassifiedAtoms = []*Atom{{
		Contradictions: []contradictionAttachment{{TargetMemoryID: "missing"}},
	}}

	require.NoError(t, stage.Execute(context.Background(), pc))

	assert.Empty(t, memories.contradictionsApplied)
	assert.Equal(t, 0, pc.Stats["confidence_update_contradictions_applied"])
}

func TestConfidenceUpdateStageAppliesReinforcement(t *testing.T) {
	target := &entities.Memory{ID: "existing-1", Confidence: 0.6}
	memories := &fakeMemoryStore{byID: map[string]*entities.Memory{"existing-1": target}}

	stage := NewConfidenceUpdateStage(Deps{Memories: memories})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())
	pc.ClassifiedAtoms = []*Atom{{LikelyDuplicateOf: "existing-1"}}

	require.NoError(t, stage.Execute(context.Background(), pc))

	require.Len(t, memories.reinforcementsApplied, 1)
	assert.Equal(t, "existing-1", memories.reinforcementsApplied[0].id)
	assert.Greater(t, memories.reinforcementsApplied[0].newConfidence, 0.6)
	assert.Equal(t, 1, pc.Stats["confidence_update_reinforcements_applied"])
}

func TestConfidenceUpdateStageSkipsMissingReinforcementTarget(t *testing.T) {
	memories := &fakeMemoryStore{byID: map[string]*entities.Memory{}}

	stage := NewConfidenceUpdateStage(Deps{Memories: memories})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())
	pc.ClassifiedAtoms = []*Atom{{LikelyDuplicateOf: "missing"}}

	require.NoError(t, stage.Execute(context.Background(), pc))

	assert.Empty(t, memories.reinforcementsApplied)
}

func TestConfidenceUpdateStageHandlesMultipleAtomsIndependently(t *testing.T) {
	contradicted := &entities.Memory{ID: "target-1", Confidence: 0.8}
	reinforced := &entities.Memory{ID: "target-2", Confidence: 0.6}
	memories := &fakeMemoryStore{byID: map[string]*entities.Memory{
		"target-1": contradicted,
		"target-2": reinforced,
	}}

	stage := NewConfidenceUpdateStage(Deps{Memories: memories})
	pc := NewContext("job-1", "agent-1", "", "", time.Now().UTC())
	pc.ClassifiedAtoms = []*Atom{
		{Contradictions: []contradictionAttachment{{TargetMemoryID: "target-1"}}},
		{LikelyDuplicateOf: "target-2"},
	}

	require.NoError(t, stage.Execute(context.Background(), pc))

	assert.Len(t, memories.contradictionsApplied, 1)
	assert.Len(t, memories.reinforcementsApplied, 1)
}
