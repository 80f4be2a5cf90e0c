package ports

import "context"

// CandidateMemory is one atom extracted from a session transcript by the
// extract stage, before deduplication, conflict-checking, or classification.
type CandidateMemory struct {
	Text       string
	Tags       []string
	MemoryType string
	Confidence *float64
}

// LLMClient extracts candidate memories from a session transcript and
// explains detected contradictions. This interface only fixes the contract
// the extract stage and the contradiction enhancer depend on; internal
// prompting and model choice are left to the implementation.
type LLMClient interface {
	ExtractMemories(ctx context.Context, transcript string) ([]CandidateMemory, error)

	// ExplainContradiction returns a short, human-readable explanation of
	// why newText and targetText are believed to contradict, given the
	// heuristic classification cType already assigned.
	ExplainContradiction(ctx context.Context, newText, targetText string, cType string) (string, error)
}
