package pipeline

import (
	"context"
	"strings"

	"agentmemory/application/ports"
	"agentmemory/domain/core/entities"
)

// ClassifyStage assigns a final layer and memory type to each atom from
// text cues and tags, then persists every atom that is not a duplicate of
// an existing memory.
type ClassifyStage struct {
	memories ports.MemoryStore
}

// NewClassifyStage constructs stage 4.
func NewClassifyStage(deps Deps) Stage {
	return &ClassifyStage{memories: deps.Memories}
}

func (s *ClassifyStage) Name() string { return "classify" }

func (s *ClassifyStage) Execute(ctx context.Context, pc *Context) error {
	out := make([]*Atom, 0, len(pc.DeduplicatedAtoms))
	for _, atom := range pc.DeduplicatedAtoms {
		atom.Layer = classifyLayer(atom)
		atom.ResolvedType = classifyType(atom)

		if atom.LikelyDuplicateOf == "" {
			confidence := atom.Confidence
			mem, err := entities.NewMemory(entities.NewMemoryParams{
				AgentID:         pc.AgentID,
				SourceSessionID: pc.SessionID,
				Text:            atom.Text,
				Tags:            atom.Tags,
				Embedding:       atom.Embedding,
				MemoryType:      atom.ResolvedType,
				Layer:           atom.Layer,
				Confidence:      confidence,
				Now:             pc.Now,
			})
			if err != nil {
				return err
			}
			if _, err := s.memories.Insert(ctx, mem); err != nil {
				return err
			}
			atom.Persisted = mem
			pc.incr("classify_persisted", 1)
		}
		out = append(out, atom)
	}
	pc.ClassifiedAtoms = out
	pc.incr("classify_atoms", len(out))
	return nil
}

// classifyLayer assigns an atom's memory layer. New atoms from a single
// session start in the episodic layer; explicit "always"/"every time" cues or
// a semantic tag promote straight to semantic, since they describe durable
// knowledge rather than session-scoped events.
func classifyLayer(atom *Atom) entities.Layer {
	lower := strings.ToLower(atom.Text)
	if hasTag(atom.Tags, "semantic") || strings.Contains(lower, "always") || strings.Contains(lower, "every time") {
		return entities.LayerSemantic
	}
	return entities.LayerEpisodic
}

// classifyType uses an LLM-proposed type when it is a valid memory type;
// otherwise it maps text cues and tags to a memory type, falling back to fact.
func classifyType(atom *Atom) entities.MemoryType {
	if atom.MemoryType != "" {
		t := entities.MemoryType(atom.MemoryType)
		if t.Valid() {
			return t
		}
	}

	lower := strings.ToLower(atom.Text)
	switch {
	case hasTag(atom.Tags, "preference") || strings.Contains(lower, "prefer") || strings.Contains(lower, "like"):
		return entities.MemoryTypePreference
	case hasTag(atom.Tags, "opinion") || strings.Contains(lower, "think") || strings.Contains(lower, "believe"):
		return entities.MemoryTypeOpinion
	case strings.Contains(lower, "decided") || strings.Contains(lower, "will use") || strings.Contains(lower, "switched to"):
		return entities.MemoryTypeDecision
	case strings.Contains(lower, "noticed") || strings.Contains(lower, "observed"):
		return entities.MemoryTypeObservation
	default:
		return entities.MemoryTypeFact
	}
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}
