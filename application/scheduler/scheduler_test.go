package scheduler

import (
	"context"
	"testing"
	"time"

	"agentmemory/application/ports"
	"agentmemory/domain/config"
	"agentmemory/domain/core/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMemoryStore struct {
	ports.MemoryStore
	batch   []*entities.Memory
	updated []*entities.Memory
	agentID string
}

func (f *fakeMemoryStore) IterateByAgent(ctx context.Context, agentID string, batchSize int, fn func([]*entities.Memory) error) error {
	f.agentID = agentID
	if len(f.batch) == 0 {
		return nil
	}
	return fn(f.batch)
}

func (f *fakeMemoryStore) Update(ctx context.Context, m *entities.Memory) error {
	f.updated = append(f.updated, m)
	return nil
}

type fakeJobQueue struct {
	ports.JobQueue
	pending       []*entities.ReflectionJob
	getPendingErr error
}

func (f *fakeJobQueue) GetPending(ctx context.Context, limit int) ([]*entities.ReflectionJob, error) {
	if f.getPendingErr != nil {
		return nil, f.getPendingErr
	}
	return f.pending, nil
}

func TestDispatchOnceReturnsErrorWhenGetPendingFails(t *testing.T) {
	jobs := &fakeJobQueue{getPendingErr: assertErr}
	cfg := config.DefaultDomainConfig()
	s := New(jobs, nil, nil, cfg, "", nil, nil, zap.NewNop())

	err := s.dispatchOnce(context.Background())

	require.Error(t, err)
}

func TestDispatchOnceSucceedsWithNoPendingJobs(t *testing.T) {
	jobs := &fakeJobQueue{}
	cfg := config.DefaultDomainConfig()
	s := New(jobs, nil, nil, cfg, "", nil, nil, zap.NewNop())

	err := s.dispatchOnce(context.Background())

	require.NoError(t, err)
}

func TestLoopBackoffDoublesUntilCappedThenResets(t *testing.T) {
	bo := newLoopBackoff()

	assert.Equal(t, time.Second, bo.fail())
	assert.Equal(t, 2*time.Second, bo.fail())
	assert.Equal(t, 4*time.Second, bo.fail())

	for i := 0; i < 10; i++ {
		bo.fail()
	}
	assert.Equal(t, maxBackoff, bo.fail())

	bo.reset()
	assert.Equal(t, time.Second, bo.fail())
}

var assertErr = context.DeadlineExceeded

func TestNextScheduledInstantRollsOverToNextDayWhenHourHasPassed(t *testing.T) {
	now := time.Date(2026, 7, 30, 3, 0, 0, 0, time.UTC)
	next := nextScheduledInstant(now, 2)

	assert.Equal(t, time.Date(2026, 7, 31, 2, 0, 0, 0, time.UTC), next)
}

func TestNextScheduledInstantStaysSameDayWhenHourHasNotPassed(t *testing.T) {
	now := time.Date(2026, 7, 30, 1, 0, 0, 0, time.UTC)
	next := nextScheduledInstant(now, 2)

	assert.Equal(t, time.Date(2026, 7, 30, 2, 0, 0, 0, time.UTC), next)
}

func TestRunDecayNowReturnsStatsFromThePipelineDecayPass(t *testing.T) {
	now := time.Now().UTC()
	mem := &entities.Memory{
		ID: "m1", Strength: 0.8, Layer: entities.LayerEpisodic,
		LastReinforcedAt: now.AddDate(0, 0, -30),
	}
	memories := &fakeMemoryStore{batch: []*entities.Memory{mem}}
	cfg := config.DefaultDomainConfig()

	s := New(nil, memories, nil, cfg, "agent-1", nil, nil, zap.NewNop())

	stats := s.RunDecayNow(context.Background())

	assert.Equal(t, 1, stats.TotalMemories)
	require.Len(t, memories.updated, 1)
}

func TestRunDecayNowScopesToConfiguredAgent(t *testing.T) {
	memories := &fakeMemoryStore{}
	cfg := config.DefaultDomainConfig()
	s := New(nil, memories, nil, cfg, "agent-42", nil, nil, zap.NewNop())

	stats := s.RunDecayNow(context.Background())

	assert.Equal(t, 0, stats.TotalMemories)
	assert.Equal(t, "agent-42", memories.agentID)
}
