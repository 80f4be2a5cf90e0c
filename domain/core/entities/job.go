package entities

import (
	"time"

	"agentmemory/domain/core/valueobjects"
)

// JobStatus is the lifecycle state of a reflection job.
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusComplete JobStatus = "complete"
	JobStatusFailed  JobStatus = "failed"
)

// StageStatus is the lifecycle state of a single stage result within a job.
type StageStatus string

const (
	StageStatusRunning  StageStatus = "running"
	StageStatusComplete StageStatus = "complete"
	StageStatusFailed   StageStatus = "failed"
)

// StageResult records one stage's execution within a job. Stage names are
// unique within a job; StageResult is appended or updated via
// the job queue's atomic upsert protocol, never read-modify-written by
// pipeline code directly.
type StageResult struct {
	Stage       string         `bson:"stage" json:"stage"`
	Status      StageStatus    `bson:"status" json:"status"`
	StartedAt   time.Time      `bson:"startedAt" json:"startedAt"`
	CompletedAt *time.Time     `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	Counts      map[string]int `bson:"counts,omitempty" json:"counts,omitempty"`
	Error       string         `bson:"error,omitempty" json:"error,omitempty"`
}

// ReflectionJob is the persisted record of one pipeline execution.
type ReflectionJob struct {
	ID        string `bson:"_id,omitempty" json:"id"`
	AgentID   string `bson:"agentId" json:"agentId"`
	SessionID string `bson:"sessionId,omitempty" json:"sessionId,omitempty"`

	Status JobStatus `bson:"status" json:"status"`

	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	StartedAt   *time.Time `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	Stages []StageResult `bson:"stages" json:"stages"`
	Error  string        `bson:"error,omitempty" json:"error,omitempty"`

	Metadata map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// NewReflectionJob creates a pending job with an empty stage list.
func NewReflectionJob(agentID, sessionID string, metadata map[string]interface{}, now time.Time) *ReflectionJob {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return &ReflectionJob{
		ID:        valueobjects.NewID(),
		AgentID:   agentID,
		SessionID: sessionID,
		Status:    JobStatusPending,
		CreatedAt: now,
		Stages:    []StageResult{},
		Metadata:  metadata,
	}
}

// StageByName returns the stage result with the given name, if recorded.
func (j *ReflectionJob) StageByName(name string) (StageResult, bool) {
	for _, s := range j.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return StageResult{}, false
}
