package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"agentmemory/application/ports"
	"agentmemory/application/scheduler"
	"agentmemory/domain/core/entities"
	"agentmemory/domain/services"
	apperrors "agentmemory/pkg/errors"

	"github.com/go-chi/chi/v5"
)

// DecayHandler serves /decay, /decay/expiration-candidates, and
// /decay/promote-archival/:id.
type DecayHandler struct {
	scheduler *scheduler.Scheduler
	memories  ports.MemoryStore
}

// NewDecayHandler constructs a DecayHandler.
func NewDecayHandler(sched *scheduler.Scheduler, memories ports.MemoryStore) *DecayHandler {
	return &DecayHandler{scheduler: sched, memories: memories}
}

type decayRequest struct {
	AgentID string `json:"agentId,omitempty"`
}

// Decay handles POST /decay, running the decay pass synchronously and
// returning its summary stats.
func (h *DecayHandler) Decay(w http.ResponseWriter, r *http.Request) {
	var req decayRequest
	if r.ContentLength > 0 {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	start := time.Now()
	stats := h.scheduler.RunDecayNow(r.Context())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats": map[string]interface{}{
			"totalMemories":        stats.TotalMemories,
			"decayed":              stats.Decayed,
			"archivalCandidates":   stats.ArchivalCandidates,
			"expirationCandidates": stats.ExpirationCandidates,
			"duration":             time.Since(start).String(),
		},
	})
}

// ExpirationCandidates handles GET /decay/expiration-candidates.
func (h *DecayHandler) ExpirationCandidates(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agentId")
	if agentID == "" {
		writeError(w, apperrors.NewInvalidInput("agentId is required"))
		return
	}

	var candidates []*entities.Memory
	err := h.memories.IterateByAgent(r.Context(), agentID, 100, func(batch []*entities.Memory) error {
		for _, m := range batch {
			if services.IsExpirationCandidate(m.Strength) {
				candidates = append(candidates, m)
			}
		}
		return nil
	})
	if err != nil {
		writeError(w, apperrors.NewStoreUnavailable("list expiration candidates", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"candidates": candidates})
}

// PromoteArchival handles POST /decay/promote-archival/:id, moving a memory
// into the archival layer regardless of its current strength — an explicit
// operator override of the automatic archival-candidate threshold.
func (h *DecayHandler) PromoteArchival(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	mem, err := h.memories.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, apperrors.NewStoreUnavailable("find memory", err))
		return
	}
	if mem == nil {
		writeError(w, apperrors.NewNotFound("memory"))
		return
	}

	mem.Layer = entities.LayerArchival
	mem.UpdatedAt = time.Now().UTC()
	if err := h.memories.Update(r.Context(), mem); err != nil {
		writeError(w, apperrors.NewStoreUnavailable("promote memory", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
