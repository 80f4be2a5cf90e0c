package pipeline

import (
	"context"
	"strings"

	"agentmemory/application/ports"
	"agentmemory/domain/core/entities"
)

// GraphLinkStage detects relations between atoms persisted in this job and
// emits pending edges for graph-apply to materialize.
type GraphLinkStage struct {
	pendingEdges ports.PendingEdgeStore
}

// NewGraphLinkStage constructs stage 8.
func NewGraphLinkStage(deps Deps, cfg StageConfig) Stage {
	return &GraphLinkStage{pendingEdges: deps.PendingEdges}
}

func (s *GraphLinkStage) Name() string { return "graph-link" }

var causativeMarkers = []string{"because", "so that", "which caused", "led to", "resulting in"}
var supersedesMarkers = []string{"instead of", "replacing", "update to", "no longer", "switched to"}

func (s *GraphLinkStage) Execute(ctx context.Context, pc *Context) error {
	persisted := make([]*Atom, 0, len(pc.ClassifiedAtoms))
	for _, atom := range pc.ClassifiedAtoms {
		if atom.Persisted != nil {
			persisted = append(persisted, atom)
		}
	}

	var edges []*entities.PendingEdge

	for i := 0; i < len(persisted); i++ {
		for j := i + 1; j < len(persisted); j++ {
			a, b := persisted[i], persisted[j]
			lowerB := strings.ToLower(b.Text)

			// Same session, sequential atoms: CO_OCCURS.
			edges = append(edges, entities.NewPendingEdge(pc.AgentID, a.Persisted.ID, entities.EdgeTypeCoOccurs, b.Persisted.ID, 0.5, 0.6, pc.Now))

			if containsAny(lowerB, causativeMarkers) {
				edges = append(edges, entities.NewPendingEdge(pc.AgentID, a.Persisted.ID, entities.EdgeTypeCauses, b.Persisted.ID, 0.7, 0.7, pc.Now))
			} else {
				edges = append(edges, entities.NewPendingEdge(pc.AgentID, a.Persisted.ID, entities.EdgeTypePrecedes, b.Persisted.ID, 0.4, 0.55, pc.Now))
			}

			if containsAny(lowerB, supersedesMarkers) {
				edges = append(edges, entities.NewPendingEdge(pc.AgentID, b.Persisted.ID, entities.EdgeTypeSupersedes, a.Persisted.ID, 0.8, 0.75, pc.Now))
			}
		}
	}

	if len(edges) > 0 {
		if err := s.pendingEdges.InsertMany(ctx, edges); err != nil {
			return err
		}
	}
	pc.incr("graph-link_edges_proposed", len(edges))
	return nil
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
