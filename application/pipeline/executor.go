package pipeline

import (
	"context"
	"strings"
	"time"

	"agentmemory/application/ports"
	"agentmemory/domain/core/entities"
	"agentmemory/domain/events"
	"agentmemory/infrastructure/observability"
	"agentmemory/pkg/extensions"

	"go.uber.org/zap"
)

// Executor runs a job's stages in fixed order against a PipelineContext,
// recording each stage's result through the job queue's atomic upsert
// protocol as it goes. A stage failure aborts the job: later stages never
// run, and earlier side effects are not rolled back — reflection is
// idempotent over its input, so re-running the same transcript converges
// to the same end state modulo timestamps.
type Executor struct {
	jobs     ports.JobQueue
	deps     Deps
	cfg      StageConfig
	disabled map[string]bool
	deadline time.Duration
	hooks    *extensions.HookManager
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewExecutor constructs C8. hooks and metrics may be nil.
func NewExecutor(jobs ports.JobQueue, deps Deps, cfg StageConfig, disabled map[string]bool, deadline time.Duration, hooks *extensions.HookManager, metrics *observability.Metrics, logger *zap.Logger) *Executor {
	return &Executor{jobs: jobs, deps: deps, cfg: cfg, disabled: disabled, deadline: deadline, hooks: hooks, metrics: metrics, logger: logger}
}

// Run executes every stage for a job already transitioned to "running" by
// the dispatcher.
func (e *Executor) Run(ctx context.Context, job *entities.ReflectionJob) error {
	if e.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.deadline)
		defer cancel()
	}

	transcript, _ := job.Metadata["transcript"].(string)
	pc := NewContext(job.ID, job.AgentID, job.SessionID, transcript, time.Now().UTC())

	stages := Stages(e.deps, e.cfg, e.disabled)

	for _, stage := range stages {
		started := time.Now().UTC()
		if err := e.jobs.UpdateStageResult(ctx, job.ID, entities.StageResult{
			Stage:     stage.Name(),
			Status:    entities.StageStatusRunning,
			StartedAt: started,
		}); err != nil {
			return err
		}

		execErr := stage.Execute(ctx, pc)
		completed := time.Now().UTC()

		if e.metrics != nil {
			e.metrics.StageDuration.WithLabelValues(stage.Name()).Observe(completed.Sub(started).Seconds())
		}

		if execErr != nil {
			e.logger.Error("pipeline stage failed", zap.String("job_id", job.ID), zap.String("stage", stage.Name()), zap.Error(execErr))
			if e.metrics != nil {
				e.metrics.StageFailures.WithLabelValues(stage.Name()).Inc()
			}
			if err := e.jobs.UpdateStageResult(ctx, job.ID, entities.StageResult{
				Stage:       stage.Name(),
				Status:      entities.StageStatusFailed,
				StartedAt:   started,
				CompletedAt: &completed,
				Error:       execErr.Error(),
			}); err != nil {
				return err
			}
			if e.metrics != nil {
				e.metrics.JobsFailed.Inc()
			}
			if err := e.jobs.UpdateStatus(ctx, job.ID, entities.JobStatusFailed, execErr.Error()); err != nil {
				return err
			}
			return execErr
		}

		counts := countsForStage(stage.Name(), pc.Stats)
		if err := e.jobs.UpdateStageResult(ctx, job.ID, entities.StageResult{
			Stage:       stage.Name(),
			Status:      entities.StageStatusComplete,
			StartedAt:   started,
			CompletedAt: &completed,
			Counts:      counts,
		}); err != nil {
			return err
		}
		if e.hooks != nil {
			stageEvent := events.NewJobStageCompleted(job.ID, stage.Name(), true, completed)
			e.hooks.ExecuteAsync(ctx, extensions.HookStageCompleted, extensions.HookData{
				AgentID: job.AgentID, JobID: job.ID, Operation: stage.Name(),
				Metadata: map[string]interface{}{"counts": counts, "event": stageEvent},
			})
		}
	}

	if e.metrics != nil {
		e.metrics.JobsCompleted.Inc()
	}
	return e.jobs.UpdateStatus(ctx, job.ID, entities.JobStatusComplete, "")
}

// countsForStage extracts the subset of the accumulated stats map whose
// keys are namespaced to this stage. Stage names are hyphenated
// ("decay-pass", "graph-apply") but some stat keys use the underscored
// spelling instead, matching the literal examples in the documented
// "<stage>_<counter>" convention — so both spellings are tried.
func countsForStage(stageName string, stats map[string]int) map[string]int {
	prefixes := []string{stageName + "_", strings.ReplaceAll(stageName, "-", "_") + "_"}
	out := map[string]int{}
	for k, v := range stats {
		for _, prefix := range prefixes {
			if len(k) > len(prefix) && k[:len(prefix)] == prefix {
				out[k[len(prefix):]] = v
				break
			}
		}
	}
	return out
}
