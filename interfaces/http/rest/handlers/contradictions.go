package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"agentmemory/application/contradiction"
	"agentmemory/application/ports"
	domainconfig "agentmemory/domain/config"
	"agentmemory/domain/core/entities"
	"agentmemory/domain/services"
	apperrors "agentmemory/pkg/errors"
	"agentmemory/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ContradictionsHandler serves /contradictions/enhance and
// /contradictions/:memoryId.
type ContradictionsHandler struct {
	memories ports.MemoryStore
	detector *contradiction.Detector
	llm      ports.LLMClient
	cfg      *domainconfig.DomainConfig
	logger   *zap.Logger
}

// NewContradictionsHandler constructs a ContradictionsHandler. llm may be
// nil, in which case Enhance keeps the detector's heuristic explanation
// instead of asking an LLM to rewrite it.
func NewContradictionsHandler(memories ports.MemoryStore, llm ports.LLMClient, cfg *domainconfig.DomainConfig, logger *zap.Logger) *ContradictionsHandler {
	return &ContradictionsHandler{
		memories: memories,
		detector: contradiction.New(memories, cfg, logger),
		llm:      llm,
		cfg:      cfg,
		logger:   logger,
	}
}

type enhanceRequest struct {
	AgentID string `json:"agentId" validate:"required"`
	Limit   int    `json:"limit,omitempty"`
}

// Enhance handles POST /contradictions/enhance: it re-runs the contradiction
// detector retroactively over existing memories, attaching any new
// contradictions the original pipeline pass (which only checks new atoms
// against history) would have missed.
func (h *ContradictionsHandler) Enhance(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewInvalidInput("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		writeError(w, apperrors.NewInvalidInput(err.Error()))
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}

	candidates, err := h.memories.Find(r.Context(), ports.MemoryFilter{AgentID: req.AgentID}, limit)
	if err != nil {
		writeError(w, apperrors.NewStoreUnavailable("find memories", err))
		return
	}

	now := time.Now().UTC()
	enhanced := 0
	for _, mem := range candidates {
		if len(mem.Embedding) == 0 {
			continue
		}
		found := h.detector.Detect(r.Context(), req.AgentID, mem.Text, mem.Tags, mem.Embedding)
		for _, c := range found {
			if c.TargetMemoryID == mem.ID {
				continue
			}
			target, err := h.memories.FindByID(r.Context(), c.TargetMemoryID)
			if err != nil || target == nil || alreadyRecorded(target, mem.ID) {
				continue
			}

			severity := entities.SeverityMedium
			newConfidence := services.WeakContradiction(target.Confidence)
			if services.IsStrongContradiction(mem.Confidence) {
				severity = entities.SeverityHigh
				newConfidence = services.StrongContradiction(target.Confidence)
			}

			explanation := c.Explanation
			if h.llm != nil {
				if llmExplanation, err := h.llm.ExplainContradiction(r.Context(), mem.Text, target.Text, string(c.Type)); err != nil {
					h.logger.Warn("contradictions: LLM explanation failed, keeping heuristic explanation", zap.Error(err))
				} else if llmExplanation != "" {
					explanation = llmExplanation
				}
			}

			if err := h.memories.ApplyContradiction(r.Context(), target.ID, newConfidence, entities.Contradiction{
				TargetMemoryID: mem.ID,
				DetectedAt:     now,
				Type:           c.Type,
				Explanation:    explanation,
				Probability:    c.Probability,
				Severity:       severity,
			}, now); err != nil {
				continue
			}
			enhanced++
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"enhanced": enhanced})
}

func alreadyRecorded(mem *entities.Memory, targetID string) bool {
	for _, c := range mem.Contradictions {
		if c.TargetMemoryID == targetID {
			return true
		}
	}
	return false
}

// GetEnriched handles GET /contradictions/:memoryId, returning the memory
// with its contradiction entries resolved to the target's current text.
func (h *ContradictionsHandler) GetEnriched(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memoryId")

	mem, err := h.memories.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, apperrors.NewStoreUnavailable("find memory", err))
		return
	}
	if mem == nil {
		writeError(w, apperrors.NewNotFound("memory"))
		return
	}

	type enrichedContradiction struct {
		entities.Contradiction
		TargetText string `json:"targetText,omitempty"`
	}
	enriched := make([]enrichedContradiction, 0, len(mem.Contradictions))
	for _, c := range mem.Contradictions {
		entry := enrichedContradiction{Contradiction: c}
		if target, err := h.memories.FindByID(r.Context(), c.TargetMemoryID); err == nil && target != nil {
			entry.TargetText = target.Text
		}
		enriched = append(enriched, entry)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"memory":         mem,
		"contradictions": enriched,
	})
}
