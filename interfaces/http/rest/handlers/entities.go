package handlers

import (
	"net/http"
	"sort"
	"strconv"

	"agentmemory/application/ports"
	"agentmemory/domain/core/entities"
	apperrors "agentmemory/pkg/errors"

	"github.com/go-chi/chi/v5"
)

// EntitiesHandler serves /entities, /entities/:slug, and /entities/search.
type EntitiesHandler struct {
	entities ports.EntityStore
	memories ports.MemoryStore
}

// NewEntitiesHandler constructs an EntitiesHandler.
func NewEntitiesHandler(entityStore ports.EntityStore, memories ports.MemoryStore) *EntitiesHandler {
	return &EntitiesHandler{entities: entityStore, memories: memories}
}

// List handles GET /entities.
func (h *EntitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	agentID := q.Get("agentId")
	if agentID == "" {
		writeError(w, apperrors.NewInvalidInput("agentId is required"))
		return
	}
	limit := 50
	if l := q.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	list, err := h.entities.Find(r.Context(), agentID, limit)
	if err != nil {
		writeError(w, apperrors.NewStoreUnavailable("list entities", err))
		return
	}

	if sortBy := q.Get("sortBy"); sortBy == "memoryCount" {
		sort.Slice(list, func(i, j int) bool { return list[i].MemoryCount > list[j].MemoryCount })
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"entities": list, "total": len(list)})
}

// Get handles GET /entities/:slug.
func (h *EntitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agentId")
	if agentID == "" {
		writeError(w, apperrors.NewInvalidInput("agentId is required"))
		return
	}
	slug := chi.URLParam(r, "slug")

	ent, err := h.entities.FindBySlug(r.Context(), agentID, slug)
	if err != nil {
		writeError(w, apperrors.NewStoreUnavailable("find entity", err))
		return
	}
	if ent == nil {
		writeError(w, apperrors.NewNotFound("entity"))
		return
	}

	linked, err := h.memories.Find(r.Context(), ports.MemoryFilter{AgentID: agentID}, 0)
	if err != nil {
		writeError(w, apperrors.NewStoreUnavailable("find linked memories", err))
		return
	}
	var linkedMemories []*entities.Memory
	for _, m := range linked {
		for _, e := range m.Edges {
			if e.Type == entities.EdgeTypeMentionsEntity && e.TargetID == ent.ID {
				linkedMemories = append(linkedMemories, m)
				break
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entity":         ent,
		"linkedMemories": linkedMemories,
	})
}

// Search handles GET /entities/search.
func (h *EntitiesHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	agentID := q.Get("agentId")
	query := q.Get("q")
	if agentID == "" || query == "" {
		writeError(w, apperrors.NewInvalidInput("agentId and q are required"))
		return
	}
	limit := 20
	if l := q.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	list, err := h.entities.Search(r.Context(), agentID, query, limit)
	if err != nil {
		writeError(w, apperrors.NewStoreUnavailable("search entities", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"entities": list})
}
