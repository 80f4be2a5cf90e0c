package mongostore

import (
	"context"

	"agentmemory/domain/core/entities"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PendingEdgeStore implements ports.PendingEdgeStore against the
// "pending_edges" collection.
type PendingEdgeStore struct {
	coll *mongo.Collection
}

// Insert performs an insertOne.
func (s *PendingEdgeStore) Insert(ctx context.Context, e *entities.PendingEdge) error {
	_, err := s.coll.InsertOne(ctx, e)
	return err
}

// InsertMany performs a bulkWrite of insert operations.
func (s *PendingEdgeStore) InsertMany(ctx context.Context, edges []*entities.PendingEdge) error {
	if len(edges) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(edges))
	for _, e := range edges {
		models = append(models, mongo.NewInsertOneModel().SetDocument(e))
	}
	_, err := s.coll.BulkWrite(ctx, models)
	return err
}

// FindByProbability returns pending edges for the agent at or above floor,
// highest probability first.
func (s *PendingEdgeStore) FindByProbability(ctx context.Context, agentID string, floor float64) ([]*entities.PendingEdge, error) {
	filter := bson.M{"agentId": agentID, "probability": bson.M{"$gte": floor}}
	opts := options.Find().SetSort(bson.M{"probability": -1})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*entities.PendingEdge
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a pending edge by ID.
func (s *PendingEdgeStore) Delete(ctx context.Context, id string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
