package mongostore

import (
	"context"
	"sort"
	"time"

	"agentmemory/application/ports"
	"agentmemory/domain/core/entities"
	"agentmemory/domain/core/valueobjects"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MemoryStore implements ports.MemoryStore against the "memories"
// collection.
type MemoryStore struct {
	coll *mongo.Collection
}

var _ ports.MemoryStore = (*MemoryStore)(nil)

// Insert performs an insertOne, returning the generated ID.
func (s *MemoryStore) Insert(ctx context.Context, m *entities.Memory) (string, error) {
	if _, err := s.coll.InsertOne(ctx, m); err != nil {
		return "", err
	}
	return m.ID, nil
}

// FindByID performs a findOne by _id, returning (nil, nil) when not found.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*entities.Memory, error) {
	var m entities.Memory
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Find performs a find with an agent/tag/layer filter.
func (s *MemoryStore) Find(ctx context.Context, filter ports.MemoryFilter, limit int) ([]*entities.Memory, error) {
	query := buildFilter(filter)

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*entities.Memory
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func buildFilter(filter ports.MemoryFilter) bson.M {
	query := bson.M{}
	if filter.AgentID != "" {
		query["agentId"] = filter.AgentID
	}
	if len(filter.Tags) > 0 {
		query["tags"] = bson.M{"$in": filter.Tags}
	}
	if filter.Layer != "" {
		query["layer"] = filter.Layer
	}
	return query
}

// SimilaritySearch retrieves candidates for the agent (optionally
// tag-filtered) and ranks them by cosine similarity in application code,
// since the document store assumes no native vector index — the same
// approach the contradiction detector uses against this store. Every
// stored memory's embedding is expected to share the deployment's fixed
// dimension, so a dimension mismatch against a candidate signals a real
// data problem and is surfaced as an error rather than silently skipped.
func (s *MemoryStore) SimilaritySearch(ctx context.Context, agentID string, embedding []float64, limit int, tags []string) ([]ports.ScoredMemory, error) {
	candidates, err := s.Find(ctx, ports.MemoryFilter{AgentID: agentID, Tags: tags}, 0)
	if err != nil {
		return nil, err
	}

	ranked := make([]ports.ScoredMemory, 0, len(candidates))
	for _, m := range candidates {
		if len(m.Embedding) == 0 {
			continue
		}
		sim, err := valueobjects.Cosine(valueobjects.Embedding(embedding), m.Embedding)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, ports.ScoredMemory{Memory: m, Score: sim})
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Update replaces a memory document wholesale; used by stages that mutate
// several fields at once (decay pass, global-dedup).
func (s *MemoryStore) Update(ctx context.Context, m *entities.Memory) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": m.ID}, bson.M{"$set": m})
	return err
}

// ApplyContradiction sets confidence/updatedAt and pushes a contradiction
// entry in one atomic update.
func (s *MemoryStore) ApplyContradiction(ctx context.Context, id string, newConfidence float64, c entities.Contradiction, now time.Time) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":  bson.M{"confidence": newConfidence, "updatedAt": now},
		"$push": bson.M{"contradictions": c},
	})
	return err
}

// ApplyReinforcement sets confidence/lastReinforcedAt/updatedAt and
// increments reinforcementCount in one atomic update.
func (s *MemoryStore) ApplyReinforcement(ctx context.Context, id string, newConfidence float64, now time.Time) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"confidence": newConfidence, "lastReinforcedAt": now, "updatedAt": now},
		"$inc": bson.M{"reinforcementCount": 1},
	})
	return err
}

// PushEdge appends an edge to a memory's edges array and sets updatedAt.
func (s *MemoryStore) PushEdge(ctx context.Context, id string, edge entities.GraphEdge, now time.Time) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"edges": edge},
		"$set":  bson.M{"updatedAt": now},
	})
	return err
}

// Delete removes a memory by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// DeleteMany removes memories by ID, returning the count deleted.
func (s *MemoryStore) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByAgent counts memories belonging to an agent via countDocuments,
// or every memory in the collection when agentID is empty.
func (s *MemoryStore) CountByAgent(ctx context.Context, agentID string) (int64, error) {
	filter := bson.M{}
	if agentID != "" {
		filter["agentId"] = agentID
	}
	return s.coll.CountDocuments(ctx, filter)
}

// IterateByAgent streams all memories for an agent (or all agents when
// agentID is empty) in fixed-size batches.
func (s *MemoryStore) IterateByAgent(ctx context.Context, agentID string, batchSize int, fn func([]*entities.Memory) error) error {
	query := bson.M{}
	if agentID != "" {
		query["agentId"] = agentID
	}

	opts := options.Find().SetBatchSize(int32(batchSize))
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	batch := make([]*entities.Memory, 0, batchSize)
	for cursor.Next(ctx) {
		var m entities.Memory
		if err := cursor.Decode(&m); err != nil {
			return err
		}
		batch = append(batch, &m)
		if len(batch) >= batchSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := cursor.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// DuplicatesOf returns memories for the agent at or above a similarity
// threshold against embedding, excluding excludeID.
func (s *MemoryStore) DuplicatesOf(ctx context.Context, agentID string, embedding []float64, threshold float64, excludeID string) ([]*entities.Memory, error) {
	candidates, err := s.Find(ctx, ports.MemoryFilter{AgentID: agentID}, 0)
	if err != nil {
		return nil, err
	}

	var out []*entities.Memory
	for _, m := range candidates {
		if m.ID == excludeID || len(m.Embedding) == 0 {
			continue
		}
		sim, err := valueobjects.Cosine(valueobjects.Embedding(embedding), m.Embedding)
		if err != nil {
			continue
		}
		if sim >= threshold {
			out = append(out, m)
		}
	}
	return out, nil
}

// dupGroupResult mirrors the shape of an aggregate() $group stage result
// for identical-text memories.
type dupGroupResult struct {
	ID    string   `bson:"_id"`
	IDs   []string `bson:"ids"`
	Count int      `bson:"count"`
}

// GroupDuplicateTexts aggregates memories by (agentId, text) via $match +
// $group, returning groups with more than one member, oldest-first within
// each group.
func (s *MemoryStore) GroupDuplicateTexts(ctx context.Context, agentID string) ([][]*entities.Memory, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"agentId": agentID}}},
		{{Key: "$sort", Value: bson.M{"createdAt": 1}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$text",
			"ids":   bson.M{"$push": "$_id"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$match", Value: bson.M{"count": bson.M{"$gt": 1}}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []dupGroupResult
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}

	var out [][]*entities.Memory
	for _, g := range groups {
		var members []*entities.Memory
		for _, id := range g.IDs {
			m, err := s.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if m != nil {
				members = append(members, m)
			}
		}
		if len(members) > 1 {
			out = append(out, members)
		}
	}
	return out, nil
}

// Export returns every memory for an agent.
func (s *MemoryStore) Export(ctx context.Context, agentID string) ([]*entities.Memory, error) {
	return s.Find(ctx, ports.MemoryFilter{AgentID: agentID}, 0)
}

// PurgeOlderThan deletes memories for the agent created before cutoff.
func (s *MemoryStore) PurgeOlderThan(ctx context.Context, agentID string, cutoff time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"agentId": agentID, "createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByAgent deletes every memory for the agent.
func (s *MemoryStore) DeleteByAgent(ctx context.Context, agentID string) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"agentId": agentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
