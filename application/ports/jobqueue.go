package ports

import (
	"context"

	"agentmemory/domain/core/entities"
)

// JobQueue is the C9 contract: a persistent, restart-surviving queue of
// reflection jobs backed by the atomic upsert protocol documented for
// stage results.
type JobQueue interface {
	Create(ctx context.Context, agentID, sessionID string, metadata map[string]interface{}) (string, error)

	// Get returns nil, nil for a malformed or unknown ID rather than an
	// error, matching the documented "returns null" contract.
	Get(ctx context.Context, jobID string) (*entities.ReflectionJob, error)

	// UpdateStatus transitions status; on "running" it must set startedAt,
	// on "complete"/"failed" it must set completedAt.
	UpdateStatus(ctx context.Context, jobID string, status entities.JobStatus, errMsg string) error

	// UpdateStageResult performs the atomic upsert: first attempts a
	// positional $set against an existing entry for the stage name, falling
	// back to $push when no entry exists. Exactly one entry per stage name
	// survives regardless of call order or retries.
	UpdateStageResult(ctx context.Context, jobID string, result entities.StageResult) error

	// Claim performs the conditional {status:pending}->{status:running}
	// transition used by the dispatcher; returns false if another worker
	// already claimed the job.
	Claim(ctx context.Context, jobID string) (bool, error)

	ListJobs(ctx context.Context, agentID string, limit int) ([]*entities.ReflectionJob, error)
	GetPending(ctx context.Context, limit int) ([]*entities.ReflectionJob, error)

	CleanupOldJobs(ctx context.Context, olderThanDays int) (int64, error)
}
