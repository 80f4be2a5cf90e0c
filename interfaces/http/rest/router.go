package rest

import (
	"net/http"
	"time"

	"agentmemory/application/ports"
	"agentmemory/application/scheduler"
	"agentmemory/application/services"
	domainconfig "agentmemory/domain/config"
	"agentmemory/interfaces/http/rest/handlers"
	"agentmemory/interfaces/http/rest/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router wires the application layer to the HTTP transport: every route in
// the documented external interface is assembled here.
type Router struct {
	facade      *services.Facade
	memories    ports.MemoryStore
	entities    ports.EntityStore
	jobs        ports.JobQueue
	embedder    ports.Embedder
	llm         ports.LLMClient
	sched       *scheduler.Scheduler
	domainCfg   *domainconfig.DomainConfig
	apiKey      string
	enableCORS  bool
	startedAt   time.Time
	logger      *zap.Logger
}

// NewRouter constructs a Router.
func NewRouter(
	facade *services.Facade,
	memories ports.MemoryStore,
	entities ports.EntityStore,
	jobs ports.JobQueue,
	embedder ports.Embedder,
	llm ports.LLMClient,
	sched *scheduler.Scheduler,
	domainCfg *domainconfig.DomainConfig,
	apiKey string,
	enableCORS bool,
	startedAt time.Time,
	logger *zap.Logger,
) *Router {
	return &Router{
		facade: facade, memories: memories, entities: entities, jobs: jobs,
		embedder: embedder, llm: llm, sched: sched, domainCfg: domainCfg,
		apiKey: apiKey, enableCORS: enableCORS, startedAt: startedAt, logger: logger,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	statusHandler := handlers.NewStatusHandler(rt.memories, rt.embedder, rt.startedAt)
	router.Get("/health", statusHandler.Health)
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.apiKey, rt.logger))

		r.Get("/status", statusHandler.Status)

		memoryHandler := handlers.NewMemoryHandler(rt.facade, rt.memories, rt.logger)
		r.Post("/remember", memoryHandler.Remember)
		r.Get("/recall", memoryHandler.Recall)
		r.Delete("/forget/{id}", memoryHandler.Forget)
		r.Get("/export", memoryHandler.Export)
		r.Post("/purge", memoryHandler.Purge)
		r.Delete("/clear", memoryHandler.Clear)

		decayHandler := handlers.NewDecayHandler(rt.sched, rt.memories)
		r.Post("/decay", decayHandler.Decay)
		r.Get("/decay/expiration-candidates", decayHandler.ExpirationCandidates)
		r.Post("/decay/promote-archival/{id}", decayHandler.PromoteArchival)

		reflectHandler := handlers.NewReflectHandler(rt.facade, rt.jobs, rt.memories, rt.logger)
		r.Post("/reflect", reflectHandler.Reflect)
		r.Get("/reflect/jobs", reflectHandler.ListJobs)
		r.Get("/reflect/jobs/{id}", reflectHandler.GetJob)
		r.Post("/deduplicate", reflectHandler.Deduplicate)

		contradictionsHandler := handlers.NewContradictionsHandler(rt.memories, rt.llm, rt.domainCfg, rt.logger)
		r.Post("/contradictions/enhance", contradictionsHandler.Enhance)
		r.Get("/contradictions/{memoryId}", contradictionsHandler.GetEnriched)

		entitiesHandler := handlers.NewEntitiesHandler(rt.entities, rt.memories)
		r.Get("/entities", entitiesHandler.List)
		r.Get("/entities/search", entitiesHandler.Search)
		r.Get("/entities/{slug}", entitiesHandler.Get)
	})

	return router
}
