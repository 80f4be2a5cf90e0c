package mongostore

import (
	"context"
	"strings"
	"time"

	"agentmemory/domain/core/entities"
	"agentmemory/domain/core/valueobjects"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EntityStore implements ports.EntityStore against the "entities"
// collection, unique on (agentId, slug).
type EntityStore struct {
	coll *mongo.Collection
}

// Upsert creates or updates the entity identified by (agentID, slug),
// incrementing memoryCount and bumping lastSeenAt via findOneAndUpdate with
// upsert set.
func (s *EntityStore) Upsert(ctx context.Context, agentID, slug, displayName string, now time.Time) (*entities.Entity, error) {
	filter := bson.M{"agentId": agentID, "slug": slug}
	update := bson.M{
		"$set": bson.M{
			"displayName": displayName,
			"lastSeenAt":  now,
			"updatedAt":   now,
		},
		"$inc": bson.M{"memoryCount": 1},
		"$setOnInsert": bson.M{
			"_id":       valueobjects.NewID(),
			"agentId":   agentID,
			"slug":      slug,
			"createdAt": now,
		},
	}

	after := options.After
	upsert := true
	opts := &options.FindOneAndUpdateOptions{ReturnDocument: &after, Upsert: &upsert}

	var ent entities.Entity
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ent); err != nil {
		return nil, err
	}
	return &ent, nil
}

// FindBySlug performs a findOne by (agentID, slug), returning (nil, nil)
// when not found.
func (s *EntityStore) FindBySlug(ctx context.Context, agentID, slug string) (*entities.Entity, error) {
	var ent entities.Entity
	err := s.coll.FindOne(ctx, bson.M{"agentId": agentID, "slug": slug}).Decode(&ent)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ent, nil
}

// Find lists entities for the agent, most-recently-seen first.
func (s *EntityStore) Find(ctx context.Context, agentID string, limit int) ([]*entities.Entity, error) {
	opts := options.Find().SetSort(bson.M{"lastSeenAt": -1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.coll.Find(ctx, bson.M{"agentId": agentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*entities.Entity
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search performs a case-insensitive substring match against slug,
// displayName, and aliases.
func (s *EntityStore) Search(ctx context.Context, agentID, query string, limit int) ([]*entities.Entity, error) {
	pattern := strings.TrimSpace(query)
	filter := bson.M{
		"agentId": agentID,
		"$or": []bson.M{
			{"slug": bson.M{"$regex": pattern, "$options": "i"}},
			{"displayName": bson.M{"$regex": pattern, "$options": "i"}},
			{"aliases": bson.M{"$regex": pattern, "$options": "i"}},
		},
	}

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*entities.Entity
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
