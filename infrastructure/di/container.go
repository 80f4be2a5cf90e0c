// Package di hand-assembles the daemon's dependency graph. The teacher's
// di package generates this wiring with google/wire; this repo has no
// compile-time codegen step, so the graph is built directly in Go rather
// than introducing a build-tag-gated generator for a single binary.
package di

import (
	"context"
	"time"

	"agentmemory/application/pipeline"
	"agentmemory/application/scheduler"
	"agentmemory/application/services"
	domainconfig "agentmemory/domain/config"
	"agentmemory/infrastructure/config"
	"agentmemory/infrastructure/embedding"
	"agentmemory/infrastructure/llm"
	"agentmemory/infrastructure/observability"
	"agentmemory/infrastructure/persistence/mongostore"
	"agentmemory/interfaces/http/rest"
	"agentmemory/pkg/extensions"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Container holds every constructed dependency for the lifetime of the
// process, so main can start the scheduler, serve HTTP, and tear everything
// down in a well-defined order.
type Container struct {
	Config    *config.Config
	DomainCfg *domainconfig.DomainConfig
	Logger    *zap.Logger
	Mongo     *mongostore.Client
	Facade    *services.Facade
	Scheduler *scheduler.Scheduler
	Router    *rest.Router
	StartedAt time.Time
}

// Build constructs the full dependency graph. The caller owns the
// returned Container's lifetime and must call Close on shutdown.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	mongo, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, err
	}

	domainCfg := domainconfig.DefaultDomainConfig()
	if err := domainCfg.Validate(); err != nil {
		return nil, err
	}

	embedder := embedding.New(embedding.Config{
		APIKey:     cfg.VoyageAPIKey,
		Model:      cfg.VoyageModel,
		Mock:       cfg.VoyageMock,
		Timeout:    domainCfg.EmbedderTimeout,
		MaxRetries: domainCfg.MaxRetries,
		BaseDelay:  domainCfg.RetryBaseDelay,
	}, logger)

	llmClient := llm.New(llm.Config{
		Endpoint:   cfg.LLMEndpoint,
		Model:      cfg.LLMModel,
		Timeout:    domainCfg.LLMTimeout,
		MaxRetries: domainCfg.MaxRetries,
		BaseDelay:  domainCfg.RetryBaseDelay,
	}, logger)

	hooks := extensions.NewHookManager()

	deps := pipeline.Deps{
		Memories:     mongo.Memories(),
		Entities:     mongo.Entities(),
		PendingEdges: mongo.PendingEdges(),
		Embedder:     embedder,
		LLM:          llmClient,
	}
	var metrics *observability.Metrics
	if cfg.EnableMetrics {
		metrics = observability.New(prometheus.DefaultRegisterer)
	}

	stageCfg := pipeline.FromDomainConfig(domainCfg)
	executor := pipeline.NewExecutor(mongo.Jobs(), deps, stageCfg, nil, domainCfg.JobSoftDeadline, hooks, metrics, logger)

	sched := scheduler.New(mongo.Jobs(), mongo.Memories(), executor, domainCfg, "", hooks, metrics, logger)

	decayRun := func(ctx context.Context, agentID string) pipeline.DecayStats {
		if agentID == "" {
			return sched.RunDecayNow(ctx)
		}
		stats, err := pipeline.RunDecayPass(ctx, mongo.Memories(), agentID, domainCfg.DecayBatchSize, time.Now().UTC())
		if err != nil {
			logger.Error("decay pass failed", zap.String("agent_id", agentID), zap.Error(err))
			return pipeline.DecayStats{}
		}
		return stats
	}
	facade := services.New(mongo.Memories(), mongo.PendingEdges(), mongo.Jobs(), embedder, decayRun, hooks, metrics, logger)

	startedAt := time.Now().UTC()
	router := rest.NewRouter(
		facade,
		mongo.Memories(),
		mongo.Entities(),
		mongo.Jobs(),
		embedder,
		llmClient,
		sched,
		domainCfg,
		cfg.MemoryAPIKey,
		cfg.EnableCORS,
		startedAt,
		logger,
	)

	return &Container{
		Config:    cfg,
		DomainCfg: domainCfg,
		Logger:    logger,
		Mongo:     mongo,
		Facade:    facade,
		Scheduler: sched,
		Router:    router,
		StartedAt: startedAt,
	}, nil
}

// Close releases external resources in reverse-dependency order. The
// scheduler must already be stopped by the caller before Close runs.
func (c *Container) Close(ctx context.Context) error {
	return c.Mongo.Disconnect(ctx)
}
