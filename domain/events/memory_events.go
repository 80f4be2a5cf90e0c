package events

import "time"

// MemoryCreated is raised when a new memory is written during remember or
// extraction.
type MemoryCreated struct {
	BaseEvent
	MemoryID string `json:"memory_id"`
	AgentID  string `json:"agent_id"`
	Layer    string `json:"layer"`
}

// NewMemoryCreated creates a MemoryCreated event.
func NewMemoryCreated(memoryID, agentID, layer string, timestamp time.Time) MemoryCreated {
	return MemoryCreated{
		BaseEvent: BaseEvent{
			AggregateID: memoryID,
			EventType:   "memory.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		MemoryID: memoryID,
		AgentID:  agentID,
		Layer:    layer,
	}
}

// MemoryReinforced is raised when a memory's confidence and strength are
// bumped by a corroborating observation.
type MemoryReinforced struct {
	BaseEvent
	MemoryID      string  `json:"memory_id"`
	OldConfidence float64 `json:"old_confidence"`
	NewConfidence float64 `json:"new_confidence"`
}

// NewMemoryReinforced creates a MemoryReinforced event.
func NewMemoryReinforced(memoryID string, oldConfidence, newConfidence float64, timestamp time.Time) MemoryReinforced {
	return MemoryReinforced{
		BaseEvent: BaseEvent{
			AggregateID: memoryID,
			EventType:   "memory.reinforced",
			Timestamp:   timestamp,
			Version:     1,
		},
		MemoryID:      memoryID,
		OldConfidence: oldConfidence,
		NewConfidence: newConfidence,
	}
}

// MemoryContradicted is raised when the conflict-check stage (or the
// /contradictions/enhance endpoint) records a contradiction against a memory.
type MemoryContradicted struct {
	BaseEvent
	MemoryID       string  `json:"memory_id"`
	TargetMemoryID string  `json:"target_memory_id"`
	Severity       string  `json:"severity"`
	Probability    float64 `json:"probability"`
}

// NewMemoryContradicted creates a MemoryContradicted event.
func NewMemoryContradicted(memoryID, targetMemoryID, severity string, probability float64, timestamp time.Time) MemoryContradicted {
	return MemoryContradicted{
		BaseEvent: BaseEvent{
			AggregateID: memoryID,
			EventType:   "memory.contradicted",
			Timestamp:   timestamp,
			Version:     1,
		},
		MemoryID:       memoryID,
		TargetMemoryID: targetMemoryID,
		Severity:       severity,
		Probability:    probability,
	}
}

// MemoryDecayed is raised when the daily decay pass lowers a memory's
// strength.
type MemoryDecayed struct {
	BaseEvent
	MemoryID    string  `json:"memory_id"`
	OldStrength float64 `json:"old_strength"`
	NewStrength float64 `json:"new_strength"`
}

// NewMemoryDecayed creates a MemoryDecayed event.
func NewMemoryDecayed(memoryID string, oldStrength, newStrength float64, timestamp time.Time) MemoryDecayed {
	return MemoryDecayed{
		BaseEvent: BaseEvent{
			AggregateID: memoryID,
			EventType:   "memory.decayed",
			Timestamp:   timestamp,
			Version:     1,
		},
		MemoryID:    memoryID,
		OldStrength: oldStrength,
		NewStrength: newStrength,
	}
}

// MemoryPromoted is raised when a memory crosses a layer boundary (e.g.
// episodic to semantic, semantic to archival).
type MemoryPromoted struct {
	BaseEvent
	MemoryID string `json:"memory_id"`
	OldLayer string `json:"old_layer"`
	NewLayer string `json:"new_layer"`
}

// NewMemoryPromoted creates a MemoryPromoted event.
func NewMemoryPromoted(memoryID, oldLayer, newLayer string, timestamp time.Time) MemoryPromoted {
	return MemoryPromoted{
		BaseEvent: BaseEvent{
			AggregateID: memoryID,
			EventType:   "memory.promoted",
			Timestamp:   timestamp,
			Version:     1,
		},
		MemoryID: memoryID,
		OldLayer: oldLayer,
		NewLayer: newLayer,
	}
}

// MemoryForgotten is raised when a memory is deleted via /forget or purged
// after expiration.
type MemoryForgotten struct {
	BaseEvent
	MemoryID string `json:"memory_id"`
	Reason   string `json:"reason"`
}

// NewMemoryForgotten creates a MemoryForgotten event.
func NewMemoryForgotten(memoryID, reason string, timestamp time.Time) MemoryForgotten {
	return MemoryForgotten{
		BaseEvent: BaseEvent{
			AggregateID: memoryID,
			EventType:   "memory.forgotten",
			Timestamp:   timestamp,
			Version:     1,
		},
		MemoryID: memoryID,
		Reason:   reason,
	}
}

// EdgeMaterialized is raised when graph-apply turns a pending edge into a
// real edge on a memory document.
type EdgeMaterialized struct {
	BaseEvent
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	EdgeType string `json:"edge_type"`
}

// NewEdgeMaterialized creates an EdgeMaterialized event.
func NewEdgeMaterialized(sourceID, targetID, edgeType string, timestamp time.Time) EdgeMaterialized {
	return EdgeMaterialized{
		BaseEvent: BaseEvent{
			AggregateID: sourceID,
			EventType:   "edge.materialized",
			Timestamp:   timestamp,
			Version:     1,
		},
		SourceID: sourceID,
		TargetID: targetID,
		EdgeType: edgeType,
	}
}

// JobStageCompleted is raised after a pipeline stage finishes successfully
// and its result has been persisted to the job record; a failed stage is
// reported through JobFailed instead.
type JobStageCompleted struct {
	BaseEvent
	JobID string `json:"job_id"`
	Stage string `json:"stage"`
	Ok    bool   `json:"ok"`
}

// NewJobStageCompleted creates a JobStageCompleted event.
func NewJobStageCompleted(jobID, stage string, ok bool, timestamp time.Time) JobStageCompleted {
	return JobStageCompleted{
		BaseEvent: BaseEvent{
			AggregateID: jobID,
			EventType:   "job.stage_completed",
			Timestamp:   timestamp,
			Version:     1,
		},
		JobID: jobID,
		Stage: stage,
		Ok:    ok,
	}
}

// JobCompleted is raised when a reflection job finishes all stages.
type JobCompleted struct {
	BaseEvent
	JobID   string `json:"job_id"`
	AgentID string `json:"agent_id"`
}

// NewJobCompleted creates a JobCompleted event.
func NewJobCompleted(jobID, agentID string, timestamp time.Time) JobCompleted {
	return JobCompleted{
		BaseEvent: BaseEvent{
			AggregateID: jobID,
			EventType:   "job.completed",
			Timestamp:   timestamp,
			Version:     1,
		},
		JobID:   jobID,
		AgentID: agentID,
	}
}

// JobFailed is raised when a reflection job's stage fails terminally (not
// just retried) and the job record is marked failed.
type JobFailed struct {
	BaseEvent
	JobID   string `json:"job_id"`
	AgentID string `json:"agent_id"`
	Stage   string `json:"stage"`
	Reason  string `json:"reason"`
}

// NewJobFailed creates a JobFailed event.
func NewJobFailed(jobID, agentID, stage, reason string, timestamp time.Time) JobFailed {
	return JobFailed{
		BaseEvent: BaseEvent{
			AggregateID: jobID,
			EventType:   "job.failed",
			Timestamp:   timestamp,
			Version:     1,
		},
		JobID:   jobID,
		AgentID: agentID,
		Stage:   stage,
		Reason:  reason,
	}
}
