package pipeline

import (
	"context"
	"time"

	"agentmemory/application/ports"
	"agentmemory/domain/core/entities"
)

// GlobalDedupStage groups memories for the agent by identical text, keeps
// the oldest in each group, merges the rest's tags into it, and deletes
// the rest. This catches duplicates classify's per-atom check missed,
// e.g. two atoms from the same job with identical text.
type GlobalDedupStage struct {
	memories ports.MemoryStore
}

// NewGlobalDedupStage constructs stage 10.
func NewGlobalDedupStage(deps Deps) Stage {
	return &GlobalDedupStage{memories: deps.Memories}
}

func (s *GlobalDedupStage) Name() string { return "global-deduplicate" }

func (s *GlobalDedupStage) Execute(ctx context.Context, pc *Context) error {
	groups, err := s.memories.GroupDuplicateTexts(ctx, pc.AgentID)
	if err != nil {
		return err
	}

	var groupsFound, removed int
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		groupsFound++

		kept := group[0]
		var toRemove []string
		mergedTags := kept.Tags
		for _, dup := range group[1:] {
			mergedTags = entities.MergeTags(mergedTags, dup.Tags)
			toRemove = append(toRemove, dup.ID)
		}
		kept.Tags = mergedTags
		kept.UpdatedAt = pc.Now
		if err := s.memories.Update(ctx, kept); err != nil {
			return err
		}

		n, err := s.memories.DeleteMany(ctx, toRemove)
		if err != nil {
			return err
		}
		removed += int(n)
	}

	pc.incr("global-deduplicate_groups_found", groupsFound)
	pc.incr("global-deduplicate_memories_removed", removed)
	return nil
}

// DedupDetail describes one group of duplicate memories found by a manual
// /deduplicate call.
type DedupDetail struct {
	KeptID    string   `json:"keptId"`
	RemovedID []string `json:"removedIds"`
	Text      string   `json:"text"`
}

// RunGlobalDedup is the manual counterpart of GlobalDedupStage, usable
// outside a reflection job (the /deduplicate endpoint). When dryRun is
// true, groups are reported but nothing is written.
func RunGlobalDedup(ctx context.Context, store ports.MemoryStore, agentID string, dryRun bool, now time.Time) (found, removedCount int, details []DedupDetail, err error) {
	groups, err := store.GroupDuplicateTexts(ctx, agentID)
	if err != nil {
		return 0, 0, nil, err
	}

	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		found++

		kept := group[0]
		var toRemove []string
		mergedTags := kept.Tags
		for _, dup := range group[1:] {
			mergedTags = entities.MergeTags(mergedTags, dup.Tags)
			toRemove = append(toRemove, dup.ID)
		}
		details = append(details, DedupDetail{KeptID: kept.ID, RemovedID: toRemove, Text: kept.Text})

		if dryRun {
			removedCount += len(toRemove)
			continue
		}

		kept.Tags = mergedTags
		kept.UpdatedAt = now
		if err := store.Update(ctx, kept); err != nil {
			return found, removedCount, details, err
		}

		n, err := store.DeleteMany(ctx, toRemove)
		if err != nil {
			return found, removedCount, details, err
		}
		removedCount += int(n)
	}

	return found, removedCount, details, nil
}
