// Package pipeline implements the ten ordered reflection stages (C7) and the
// executor that runs them against a single job (C8).
package pipeline

import (
	"time"

	"agentmemory/application/ports"
	"agentmemory/domain/core/entities"
	"agentmemory/domain/core/valueobjects"
)

// Atom is a candidate memory as it flows through the pipeline, accumulating
// fields stage by stage: extract attaches text/tags, deduplicate attaches
// likelyDuplicateOf, conflict-check attaches contradictions, classify
// attaches the persisted Memory.
type Atom struct {
	Text       string
	Tags       []string
	MemoryType string
	Confidence *float64

	Embedding valueobjects.Embedding

	LikelyDuplicateOf string
	Contradictions    []contradictionAttachment

	Layer            entities.Layer
	ResolvedType     entities.MemoryType
	Persisted        *entities.Memory // set by classify once the atom is written to the store
}

type contradictionAttachment struct {
	TargetMemoryID string
	Type           entities.ContradictionType
	Probability    float64
	Explanation    string
}

// Context is threaded through every stage's execute call and accumulates
// state as the pipeline progresses.
type Context struct {
	JobID     string
	AgentID   string
	SessionID string

	SessionTranscript string

	ExtractedAtoms     []*Atom
	DeduplicatedAtoms  []*Atom
	ClassifiedAtoms    []*Atom

	// Stats accumulates per-stage counters, keyed "<stage>_<counter>".
	// Each stage appends its own keys; the
	// executor reads them back to populate the job's StageResult.Counts.
	Stats map[string]int

	Now time.Time
}

// NewContext initializes an empty pipeline context for a job.
func NewContext(jobID, agentID, sessionID, transcript string, now time.Time) *Context {
	return &Context{
		JobID:             jobID,
		AgentID:           agentID,
		SessionID:         sessionID,
		SessionTranscript: transcript,
		Stats:             map[string]int{},
		Now:               now,
	}
}

func (c *Context) incr(key string, delta int) {
	c.Stats[key] += delta
}

// Deps bundles the external dependencies every stage may need. Not every
// stage uses every field.
type Deps struct {
	Memories      ports.MemoryStore
	Entities      ports.EntityStore
	PendingEdges  ports.PendingEdgeStore
	Embedder      ports.Embedder
	LLM           ports.LLMClient
}
