package pipeline

import (
	"context"
	"regexp"
	"strings"

	"agentmemory/application/ports"
	"agentmemory/domain/core/entities"
)

// EntityUpdateStage extracts mentioned entities from new atoms, upserts
// their hub documents, and emits MENTIONS_ENTITY pending edges.
type EntityUpdateStage struct {
	entities     ports.EntityStore
	pendingEdges ports.PendingEdgeStore
}

// NewEntityUpdateStage constructs stage 7.
func NewEntityUpdateStage(deps Deps) Stage {
	return &EntityUpdateStage{entities: deps.Entities, pendingEdges: deps.PendingEdges}
}

func (s *EntityUpdateStage) Name() string { return "entity-update" }

// capitalizedWord matches a run of capitalized tokens, a cheap proxy for a
// proper noun (person, project, system) in the absence of a full NER model.
var capitalizedWord = regexp.MustCompile(`\b([A-Z][a-zA-Z0-9]+(?:\s[A-Z][a-zA-Z0-9]+)*)\b`)

func (s *EntityUpdateStage) Execute(ctx context.Context, pc *Context) error {
	for _, atom := range pc.ClassifiedAtoms {
		if atom.Persisted == nil {
			continue
		}
		for _, mention := range extractMentions(atom.Text) {
			slug := slugify(mention)
			if slug == "" {
				continue
			}
			ent, err := s.entities.Upsert(ctx, pc.AgentID, slug, mention, pc.Now)
			if err != nil {
				return err
			}
			pc.incr("entity_update_upserted", 1)

			edge := entities.NewPendingEdge(pc.AgentID, atom.Persisted.ID, entities.EdgeTypeMentionsEntity, ent.ID, 1.0, 1.0, pc.Now)
			if err := s.pendingEdges.Insert(ctx, edge); err != nil {
				return err
			}
			pc.incr("entity_update_pending_edges", 1)
		}
	}
	return nil
}

func extractMentions(text string) []string {
	matches := capitalizedWord.FindAllString(text, -1)
	seen := map[string]bool{}
	var out []string
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	return s
}
