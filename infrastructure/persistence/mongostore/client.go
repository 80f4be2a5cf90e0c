// Package mongostore implements the application layer's store ports
// (MemoryStore, EntityStore, EpisodeStore, PendingEdgeStore, JobQueue)
// against go.mongodb.org/mongo-driver, using insertOne/findOne/find/
// updateOne with $set/$push/$inc/positional array match, bulkWrite,
// aggregate, and countDocuments.
package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	CollectionMemories      = "memories"
	CollectionEntities      = "entities"
	CollectionEpisodes      = "episodes"
	CollectionPendingEdges  = "pending_edges"
	CollectionReflectionJobs = "reflection_jobs"
)

// Client wraps a mongo database connection and exposes typed store
// adapters for each collection.
type Client struct {
	db *mongo.Database
}

// Connect dials MongoDB and pings it once to fail fast on misconfiguration.
func Connect(ctx context.Context, uri, dbName string) (*Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, err
	}

	return &Client{db: client.Database(dbName)}, nil
}

// Disconnect closes the underlying connection.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.db.Client().Disconnect(ctx)
}

// Memories returns the MemoryStore adapter.
func (c *Client) Memories() *MemoryStore {
	return &MemoryStore{coll: c.db.Collection(CollectionMemories)}
}

// Entities returns the EntityStore adapter.
func (c *Client) Entities() *EntityStore {
	return &EntityStore{coll: c.db.Collection(CollectionEntities)}
}

// Episodes returns the EpisodeStore adapter.
func (c *Client) Episodes() *EpisodeStore {
	return &EpisodeStore{coll: c.db.Collection(CollectionEpisodes)}
}

// PendingEdges returns the PendingEdgeStore adapter.
func (c *Client) PendingEdges() *PendingEdgeStore {
	return &PendingEdgeStore{coll: c.db.Collection(CollectionPendingEdges)}
}

// Jobs returns the JobQueue adapter.
func (c *Client) Jobs() *JobQueue {
	return &JobQueue{coll: c.db.Collection(CollectionReflectionJobs)}
}
