package handlers

import (
	"net/http"
	"time"

	"agentmemory/application/ports"
	apperrors "agentmemory/pkg/errors"
)

// StatusHandler serves /health and /status.
type StatusHandler struct {
	memories    ports.MemoryStore
	embedder    ports.Embedder
	startedAt   time.Time
}

// NewStatusHandler constructs a StatusHandler.
func NewStatusHandler(memories ports.MemoryStore, embedder ports.Embedder, startedAt time.Time) *StatusHandler {
	return &StatusHandler{memories: memories, embedder: embedder, startedAt: startedAt}
}

// Health handles GET /health — always 200, no dependency checks, so a load
// balancer can use it as a liveness probe even if the store is degraded.
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

// Status handles GET /status, reporting uptime, total memory count, and
// the embedder's mode (mock vs live) as a readiness/diagnostic probe.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	total, err := h.memories.CountByAgent(r.Context(), "")
	storeConnected := err == nil
	if err != nil {
		total = 0
	}

	if !storeConnected {
		writeError(w, apperrors.NewStoreUnavailable("status count", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime":         time.Since(h.startedAt).String(),
		"totalMemories":  total,
		"storeConnected": storeConnected,
		"embedderMode":   h.embedder.Mode(),
	})
}
