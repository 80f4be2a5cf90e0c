package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agentmemory/application/ports"
	"agentmemory/application/services"
	apperrors "agentmemory/pkg/errors"
	"agentmemory/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MemoryHandler serves /remember, /recall, /forget, /export, /purge, /clear.
type MemoryHandler struct {
	facade   *services.Facade
	memories ports.MemoryStore
	logger   *zap.Logger
}

// NewMemoryHandler constructs a MemoryHandler.
func NewMemoryHandler(facade *services.Facade, memories ports.MemoryStore, logger *zap.Logger) *MemoryHandler {
	return &MemoryHandler{facade: facade, memories: memories, logger: logger}
}

type rememberRequest struct {
	AgentID         string                 `json:"agentId" validate:"required"`
	Text            string                 `json:"text" validate:"required"`
	Tags            []string               `json:"tags,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	TTLSeconds      int64                  `json:"ttl,omitempty"`
	MemoryType      string                 `json:"memoryType,omitempty"`
	Layer           string                 `json:"layer,omitempty"`
	Confidence      *float64               `json:"confidence,omitempty"`
	SourceSessionID string                 `json:"sourceSessionId,omitempty"`
	SourceEpisodeID string                 `json:"sourceEpisodeId,omitempty"`
}

// Remember handles POST /remember.
func (h *MemoryHandler) Remember(w http.ResponseWriter, r *http.Request) {
	var req rememberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewInvalidInput("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		writeError(w, apperrors.NewInvalidInput(err.Error()))
		return
	}

	var ttl time.Duration
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	id, err := h.facade.Remember(r.Context(), services.RememberParams{
		AgentID:         req.AgentID,
		Text:            req.Text,
		Tags:            req.Tags,
		Metadata:        req.Metadata,
		TTL:             ttl,
		MemoryType:      req.MemoryType,
		Layer:           req.Layer,
		Confidence:      req.Confidence,
		SourceSessionID: req.SourceSessionID,
		SourceEpisodeID: req.SourceEpisodeID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "id": id})
}

// Recall handles GET /recall.
func (h *MemoryHandler) Recall(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	agentID := q.Get("agentId")
	query := q.Get("query")
	if agentID == "" || query == "" {
		writeError(w, apperrors.NewInvalidInput("agentId and query are required"))
		return
	}

	limit := 10
	if l := q.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	var tags []string
	if t := q.Get("tags"); t != "" {
		tags = strings.Split(t, ",")
	}

	results, method, err := h.facade.Recall(r.Context(), services.RecallParams{
		AgentID: agentID, Query: query, Limit: limit, Tags: tags,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": results,
		"count":   len(results),
		"method":  method,
	})
}

// Forget handles DELETE /forget/:id.
func (h *MemoryHandler) Forget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.facade.Forget(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Export handles GET /export.
func (h *MemoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agentId")
	if agentID == "" {
		writeError(w, apperrors.NewInvalidInput("agentId is required"))
		return
	}
	memories, err := h.memories.Export(r.Context(), agentID)
	if err != nil {
		writeError(w, apperrors.NewStoreUnavailable("export", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"count": len(memories), "memories": memories})
}

type purgeRequest struct {
	AgentID   string `json:"agentId" validate:"required"`
	OlderThan string `json:"olderThan" validate:"required"`
}

// Purge handles POST /purge.
func (h *MemoryHandler) Purge(w http.ResponseWriter, r *http.Request) {
	var req purgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewInvalidInput("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		writeError(w, apperrors.NewInvalidInput(err.Error()))
		return
	}
	cutoff, err := utils.ParseRFC3339(req.OlderThan)
	if err != nil {
		writeError(w, apperrors.NewInvalidInput("olderThan must be RFC3339"))
		return
	}

	deleted, err := h.memories.PurgeOlderThan(r.Context(), req.AgentID, cutoff)
	if err != nil {
		writeError(w, apperrors.NewStoreUnavailable("purge", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": deleted})
}

// Clear handles DELETE /clear.
func (h *MemoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agentId")
	if agentID == "" {
		writeError(w, apperrors.NewInvalidInput("agentId is required"))
		return
	}
	deleted, err := h.memories.DeleteByAgent(r.Context(), agentID)
	if err != nil {
		writeError(w, apperrors.NewStoreUnavailable("clear", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": deleted})
}
