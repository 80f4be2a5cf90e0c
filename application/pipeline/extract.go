package pipeline

import (
	"context"

	"agentmemory/application/ports"
)

// ExtractStage consumes the session transcript and produces candidate
// memory atoms via the configured LLM client (or a rule-based fallback
// supplied by the same interface). Internal extraction heuristics are out
// of scope; this stage only fixes the contract.
type ExtractStage struct {
	llm ports.LLMClient
}

// NewExtractStage constructs stage 1.
func NewExtractStage(deps Deps) Stage {
	return &ExtractStage{llm: deps.LLM}
}

func (s *ExtractStage) Name() string { return "extract" }

func (s *ExtractStage) Execute(ctx context.Context, pc *Context) error {
	candidates, err := s.llm.ExtractMemories(ctx, pc.SessionTranscript)
	if err != nil {
		return err
	}

	atoms := make([]*Atom, 0, len(candidates))
	for _, c := range candidates {
		atoms = append(atoms, &Atom{
			Text:       c.Text,
			Tags:       c.Tags,
			MemoryType: c.MemoryType,
			Confidence: c.Confidence,
		})
	}
	pc.ExtractedAtoms = atoms
	pc.incr("extract_atoms", len(atoms))
	return nil
}
