// Package scheduler runs the three background responsibilities of C10: the
// job dispatcher, the daily decay scheduler, and old-job cleanup.
package scheduler

import (
	"context"
	"sync"
	"time"

	"agentmemory/application/pipeline"
	"agentmemory/application/ports"
	"agentmemory/domain/config"
	"agentmemory/domain/events"
	"agentmemory/infrastructure/observability"
	"agentmemory/pkg/extensions"

	"go.uber.org/zap"
)

// maxBackoff caps the retry delay a loop falls back to after a failed tick.
const maxBackoff = 60 * time.Second

// loopBackoff tracks the retry delay for a background loop after an error:
// each failure doubles the delay up to maxBackoff, and a success resets it
// to 1s. Loops never propagate errors to their caller; they log and
// reschedule using this delay instead.
type loopBackoff struct {
	current time.Duration
}

func newLoopBackoff() *loopBackoff {
	return &loopBackoff{current: time.Second}
}

// fail returns the delay to wait before the next attempt and doubles it for
// next time, capped at maxBackoff.
func (b *loopBackoff) fail() time.Duration {
	d := b.current
	b.current *= 2
	if b.current > maxBackoff {
		b.current = maxBackoff
	}
	return d
}

// reset restores the delay to its starting value after a successful tick.
func (b *loopBackoff) reset() {
	b.current = time.Second
}

// Scheduler owns the three background loops and can be started and stopped
// as a unit from main.
type Scheduler struct {
	jobs     ports.JobQueue
	memories ports.MemoryStore
	executor *pipeline.Executor
	cfg      *config.DomainConfig
	hooks    *extensions.HookManager
	metrics  *observability.Metrics
	logger   *zap.Logger

	// agentID, when set, scopes the decay scheduler to a single agent
	// instead of sweeping every agent.
	agentID string

	wg     sync.WaitGroup
	cancel context.CancelFunc

	// now is overridable in tests; defaults to time.Now.
	now func() time.Time
}

// New constructs a Scheduler. hooks and metrics may be nil.
func New(jobs ports.JobQueue, memories ports.MemoryStore, executor *pipeline.Executor, cfg *config.DomainConfig, agentID string, hooks *extensions.HookManager, metrics *observability.Metrics, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		jobs:     jobs,
		memories: memories,
		executor: executor,
		cfg:      cfg,
		agentID:  agentID,
		hooks:    hooks,
		metrics:  metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start launches the dispatcher, decay, and cleanup loops in the
// background. Stop must be called to shut them down cleanly.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(3)
	go s.runDispatcher(ctx)
	go s.runDecayScheduler(ctx)
	go s.runCleanup(ctx)
}

// Stop cancels the context the loops run under and blocks until all three
// have returned; it applies no timeout of its own.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// runDispatcher polls the job queue at a fixed interval, claims up to the
// configured batch of pending jobs, and hands each to the executor. Claim
// failures (another worker already took the job) are skipped silently. A
// GetPending failure never propagates out of the loop: it logs and retries
// after a backoff that doubles up to maxBackoff, resetting to the
// configured interval on the next successful tick.
func (s *Scheduler) runDispatcher(ctx context.Context) {
	defer s.wg.Done()

	bo := newLoopBackoff()
	timer := time.NewTimer(s.cfg.DispatcherInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := s.dispatchOnce(ctx); err != nil {
				delay := bo.fail()
				s.logger.Warn("dispatcher: backing off after error", zap.Duration("delay", delay), zap.Error(err))
				timer.Reset(delay)
				continue
			}
			bo.reset()
			timer.Reset(s.cfg.DispatcherInterval)
		}
	}
}

func (s *Scheduler) dispatchOnce(ctx context.Context) error {
	pending, err := s.jobs.GetPending(ctx, s.cfg.DispatcherBatchSize)
	if err != nil {
		s.logger.Warn("dispatcher: failed to fetch pending jobs", zap.Error(err))
		return err
	}

	for _, job := range pending {
		claimed, err := s.jobs.Claim(ctx, job.ID)
		if err != nil {
			s.logger.Warn("dispatcher: failed to claim job", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		if !claimed {
			continue
		}

		refreshed, err := s.jobs.Get(ctx, job.ID)
		if err != nil || refreshed == nil {
			s.logger.Warn("dispatcher: failed to reload claimed job", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}

		if err := s.executor.Run(ctx, refreshed); err != nil {
			s.logger.Error("dispatcher: job execution returned an error", zap.String("job_id", job.ID), zap.Error(err))
			if s.hooks != nil {
				failedEvent := events.NewJobFailed(job.ID, refreshed.AgentID, "", err.Error(), s.now())
				s.hooks.ExecuteAsync(ctx, extensions.HookJobFailed, extensions.HookData{
					AgentID: refreshed.AgentID, JobID: job.ID, Operation: "reflect",
					Metadata: map[string]interface{}{"error": err.Error(), "event": failedEvent},
				})
			}
			continue
		}
		if s.hooks != nil {
			completedEvent := events.NewJobCompleted(job.ID, refreshed.AgentID, s.now())
			s.hooks.ExecuteAsync(ctx, extensions.HookJobCompleted, extensions.HookData{
				AgentID: refreshed.AgentID, JobID: job.ID, Operation: "reflect",
				Metadata: map[string]interface{}{"event": completedEvent},
			})
		}
	}
	return nil
}

// runDecayScheduler sleeps until the next local 02:00 instant, runs the
// decay pass, and reschedules — recomputing the target each iteration so
// clock jumps (DST, NTP step) don't cause a missed or doubled run.
func (s *Scheduler) runDecayScheduler(ctx context.Context) {
	defer s.wg.Done()

	for {
		next := nextScheduledInstant(s.now(), s.cfg.DecayScheduleHour)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.RunDecayNow(ctx)
		}
	}
}

// RunDecayNow invokes the decay pass directly, outside the dispatcher —
// used both by the scheduled trigger and the manual /decay endpoint so
// both entry points share identical semantics.
func (s *Scheduler) RunDecayNow(ctx context.Context) pipeline.DecayStats {
	start := s.now()
	stats, err := pipeline.RunDecayPass(ctx, s.memories, s.agentID, s.cfg.DecayBatchSize, start)
	if err != nil {
		s.logger.Error("decay scheduler: pass failed", zap.Error(err))
		return pipeline.DecayStats{}
	}
	s.logger.Info("decay pass complete",
		zap.Int("total_memories", stats.TotalMemories),
		zap.Int("decayed", stats.Decayed),
		zap.Duration("duration", s.now().Sub(start)),
	)
	if s.metrics != nil {
		s.metrics.MemoriesDecayed.Add(float64(stats.Decayed))
	}
	if s.hooks != nil {
		s.hooks.ExecuteAsync(ctx, extensions.HookDecayPassCompleted, extensions.HookData{
			AgentID:   s.agentID,
			Operation: "decay",
			Metadata: map[string]interface{}{
				"total_memories":       stats.TotalMemories,
				"decayed":              stats.Decayed,
				"archival_candidates":  stats.ArchivalCandidates,
				"expiration_candidates": stats.ExpirationCandidates,
			},
		})
	}
	return stats
}

// nextScheduledInstant returns the next local-time instant at hour:00,
// strictly after now.
func nextScheduledInstant(now time.Time, hour int) time.Time {
	loc := now.Location()
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// cleanupInterval is how often runCleanup ticks absent any error.
const cleanupInterval = 24 * time.Hour

// runCleanup invokes cleanupOldJobs once per day. A failure never
// propagates out of the loop: it logs and retries after a backoff that
// doubles up to maxBackoff, resetting to cleanupInterval on success.
func (s *Scheduler) runCleanup(ctx context.Context) {
	defer s.wg.Done()

	bo := newLoopBackoff()
	timer := time.NewTimer(cleanupInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			n, err := s.jobs.CleanupOldJobs(ctx, s.cfg.JobRetentionDays)
			if err != nil {
				delay := bo.fail()
				s.logger.Warn("cleanup: failed to delete old jobs, backing off", zap.Duration("delay", delay), zap.Error(err))
				timer.Reset(delay)
				continue
			}
			s.logger.Info("cleanup: deleted old jobs", zap.Int64("count", n))
			bo.reset()
			timer.Reset(cleanupInterval)
		}
	}
}
