package mongostore

import (
	"context"

	"agentmemory/domain/core/entities"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// EpisodeStore implements ports.EpisodeStore against the "episodes"
// collection.
type EpisodeStore struct {
	coll *mongo.Collection
}

// Insert performs an insertOne.
func (s *EpisodeStore) Insert(ctx context.Context, e *entities.Episode) (string, error) {
	if _, err := s.coll.InsertOne(ctx, e); err != nil {
		return "", err
	}
	return e.ID, nil
}

// FindBySessionID performs a findOne by (agentID, sessionID), returning
// (nil, nil) when not found.
func (s *EpisodeStore) FindBySessionID(ctx context.Context, agentID, sessionID string) (*entities.Episode, error) {
	var ep entities.Episode
	err := s.coll.FindOne(ctx, bson.M{"agentId": agentID, "sessionId": sessionID}).Decode(&ep)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ep, nil
}
