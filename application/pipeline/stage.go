package pipeline

import "context"

// Stage is one of the ten ordered reflection steps. Every stage shares the
// same contract: read some Context fields, write others, optionally mutate
// the store. A stage returning an error propagates to the executor, which
// records a failed stage result and aborts the job — stages after it never
// run, and earlier side effects are not rolled back.
type Stage interface {
	Name() string
	Execute(ctx context.Context, pc *Context) error
}

// StageFunc adapts a plain function to the Stage interface for stages with
// no additional state.
type StageFunc struct {
	name string
	fn   func(ctx context.Context, pc *Context) error
}

// NewStageFunc builds a Stage from a name and function.
func NewStageFunc(name string, fn func(ctx context.Context, pc *Context) error) Stage {
	return &StageFunc{name: name, fn: fn}
}

func (s *StageFunc) Name() string { return s.name }

func (s *StageFunc) Execute(ctx context.Context, pc *Context) error { return s.fn(ctx, pc) }

// Stages returns the ten stages in the fixed declared order. disabled
// suppresses stages by name without permuting the order of the rest —
// disabled stages are skipped entirely and do not appear in the job's
// stage results.
func Stages(deps Deps, cfg StageConfig, disabled map[string]bool) []Stage {
	all := []Stage{
		NewExtractStage(deps),
		NewDeduplicateStage(deps, cfg),
		NewConflictCheckStage(deps, cfg),
		NewClassifyStage(deps),
		NewConfidenceUpdateStage(deps),
		NewDecayPassStage(deps, cfg),
		NewEntityUpdateStage(deps),
		NewGraphLinkStage(deps, cfg),
		NewGraphApplyStage(deps, cfg),
		NewGlobalDedupStage(deps),
	}
	if len(disabled) == 0 {
		return all
	}
	out := make([]Stage, 0, len(all))
	for _, s := range all {
		if disabled[s.Name()] {
			continue
		}
		out = append(out, s)
	}
	return out
}
