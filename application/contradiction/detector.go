// Package contradiction implements the contradiction detector (C4): given a
// new memory's text and embedding, find existing memories for the same
// agent it plausibly disagrees with.
package contradiction

import (
	"context"
	"sort"
	"strings"

	"agentmemory/application/ports"
	"agentmemory/domain/config"
	"agentmemory/domain/core/entities"
	"agentmemory/domain/core/valueobjects"

	"go.uber.org/zap"
)

// Candidate is a detected contradiction against an existing memory, prior
// to being attached to an atom's metadata or persisted.
type Candidate struct {
	TargetMemoryID string
	Type           entities.ContradictionType
	Probability    float64
	Explanation    string
}

// Detector implements C4.
type Detector struct {
	store  ports.MemoryStore
	cfg    *config.DomainConfig
	logger *zap.Logger
}

// New constructs a Detector.
func New(store ports.MemoryStore, cfg *config.DomainConfig, logger *zap.Logger) *Detector {
	return &Detector{store: store, cfg: cfg, logger: logger}
}

var negationMarkers = []string{"not ", "no longer ", "never ", "isn't ", "doesn't ", "won't ", "stopped "}
var temporalMarkers = []string{"before", "after", "now", "used to", "currently", "previously"}
var positiveMarkers = []string{"like", "prefer", "love", "enjoy", "want"}
var negativeMarkers = []string{"dislike", "hate", "avoid", "don't like", "no longer want"}

// Detect retrieves the top-K most similar memories for the agent and
// classifies each as a contradiction candidate or not. A failure in the
// underlying retrieval must not block the pipeline, so it logs and returns
// an empty slice rather than an error.
func (d *Detector) Detect(ctx context.Context, agentID, text string, tags []string, embedding valueobjects.Embedding) []Candidate {
	all, err := d.store.Find(ctx, ports.MemoryFilter{AgentID: agentID}, 0)
	if err != nil {
		d.logger.Warn("contradiction detector: similarity retrieval failed, skipping", zap.Error(err))
		return nil
	}

	type scored struct {
		mem   *entities.Memory
		score float64
	}
	var ranked []scored
	for _, m := range all {
		if len(m.Embedding) == 0 || len(embedding) == 0 {
			continue
		}
		sim, err := valueobjects.Cosine(embedding, m.Embedding)
		if err != nil {
			continue
		}
		if sim < d.cfg.ContradictionSimilarityFloor {
			continue
		}
		ranked = append(ranked, scored{mem: m, score: sim})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].mem.CreatedAt.Before(ranked[j].mem.CreatedAt)
	})

	if len(ranked) > d.cfg.ContradictionTopK {
		ranked = ranked[:d.cfg.ContradictionTopK]
	}

	var out []Candidate
	for _, r := range ranked {
		cType, polarityWeight, explanation := classify(text, tags, r.mem, r.score, d.cfg.ContradictionDirectThreshold)
		probability := r.score * polarityWeight
		if probability < d.cfg.ContradictionProbabilityFloor {
			continue
		}
		out = append(out, Candidate{
			TargetMemoryID: r.mem.ID,
			Type:           cType,
			Probability:    probability,
			Explanation:    explanation,
		})
	}

	// Stable: out was built by iterating ranked in its similarity/createdAt
	// tie-break order, and a plain sort.Slice would be free to reorder equal-
	// probability candidates arbitrarily, losing that deterministic order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Probability > out[j].Probability
	})

	return out
}

// classify runs the heuristic classification and returns the contradiction
// type, a polarity weight in [0,1] used to scale the raw cosine similarity
// into a probability, and a short human-readable explanation.
func classify(text string, tags []string, target *entities.Memory, similarity, directThreshold float64) (entities.ContradictionType, float64, string) {
	lowerText := strings.ToLower(text)
	lowerTarget := strings.ToLower(target.Text)

	isPreferenceLike := hasTag(tags, "preference") || hasTag(tags, "opinion") ||
		target.MemoryType == entities.MemoryTypePreference || target.MemoryType == entities.MemoryTypeOpinion

	if isPreferenceLike && oppositePolarity(lowerText, lowerTarget) {
		return entities.ContradictionPreference, 0.9, "opposite preference polarity on a shared topic"
	}

	if sharesTemporalQualifier(lowerText) && sharesTemporalQualifier(lowerTarget) {
		return entities.ContradictionTemporal, 0.85, "conflicting time qualifiers on the same subject"
	}

	if similarity >= directThreshold && asymmetricNegation(lowerText, lowerTarget) {
		return entities.ContradictionDirect, 1.0, "high similarity with asymmetric negation"
	}

	return entities.ContradictionContextDependent, 0.7, "partial overlap, context-dependent"
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

func oppositePolarity(a, b string) bool {
	aPos, aNeg := containsAny(a, positiveMarkers), containsAny(a, negativeMarkers)
	bPos, bNeg := containsAny(b, positiveMarkers), containsAny(b, negativeMarkers)
	return (aPos && bNeg) || (aNeg && bPos)
}

func sharesTemporalQualifier(s string) bool {
	return containsAny(s, temporalMarkers)
}

func asymmetricNegation(a, b string) bool {
	return containsAny(a, negationMarkers) != containsAny(b, negationMarkers)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
