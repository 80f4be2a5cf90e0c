package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"agentmemory/application/pipeline"
	"agentmemory/application/ports"
	"agentmemory/application/services"
	apperrors "agentmemory/pkg/errors"
	"agentmemory/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReflectHandler serves /reflect, /reflect/jobs, /reflect/jobs/:id, and
// /deduplicate.
type ReflectHandler struct {
	facade   *services.Facade
	jobs     ports.JobQueue
	memories ports.MemoryStore
	logger   *zap.Logger
}

// NewReflectHandler constructs a ReflectHandler.
func NewReflectHandler(facade *services.Facade, jobs ports.JobQueue, memories ports.MemoryStore, logger *zap.Logger) *ReflectHandler {
	return &ReflectHandler{facade: facade, jobs: jobs, memories: memories, logger: logger}
}

type reflectRequest struct {
	AgentID    string                 `json:"agentId" validate:"required"`
	SessionID  string                 `json:"sessionId,omitempty"`
	Transcript string                 `json:"transcript" validate:"required"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Reflect handles POST /reflect, enqueuing a pipeline job for the dispatcher
// to pick up asynchronously.
func (h *ReflectHandler) Reflect(w http.ResponseWriter, r *http.Request) {
	var req reflectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewInvalidInput("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		writeError(w, apperrors.NewInvalidInput(err.Error()))
		return
	}

	jobID, err := h.facade.TriggerReflection(r.Context(), req.AgentID, req.SessionID, req.Transcript, req.Metadata)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"jobId": jobID})
}

// ListJobs handles GET /reflect/jobs.
func (h *ReflectHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	agentID := q.Get("agentId")
	if agentID == "" {
		writeError(w, apperrors.NewInvalidInput("agentId is required"))
		return
	}
	limit := 20
	if l := q.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	jobs, err := h.jobs.ListJobs(r.Context(), agentID, limit)
	if err != nil {
		writeError(w, apperrors.NewStoreUnavailable("list jobs", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs})
}

// GetJob handles GET /reflect/jobs/:id.
func (h *ReflectHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		writeError(w, apperrors.NewStoreUnavailable("get job", err))
		return
	}
	if job == nil {
		writeError(w, apperrors.NewNotFound("job"))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type deduplicateRequest struct {
	AgentID string `json:"agentId,omitempty"`
	DryRun  bool   `json:"dryRun,omitempty"`
}

// Deduplicate handles POST /deduplicate, running the global-dedup pass
// outside the reflection pipeline (e.g. an operator-triggered cleanup).
func (h *ReflectHandler) Deduplicate(w http.ResponseWriter, r *http.Request) {
	var req deduplicateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperrors.NewInvalidInput("invalid request body: "+err.Error()))
			return
		}
	}

	found, removed, details, err := pipeline.RunGlobalDedup(r.Context(), h.memories, req.AgentID, req.DryRun, time.Now().UTC())
	if err != nil {
		writeError(w, apperrors.NewStoreUnavailable("deduplicate", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"duplicatesFound":  found,
		"memoriesRemoved":  removed,
		"dryRun":           req.DryRun,
		"details":          details,
	})
}
