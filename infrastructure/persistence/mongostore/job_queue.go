package mongostore

import (
	"context"
	"time"

	"agentmemory/domain/core/entities"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// JobQueue implements ports.JobQueue against the "reflection_jobs"
// collection, including the atomic "update-if-matches-stage, otherwise
// push" protocol for per-stage results.
type JobQueue struct {
	coll *mongo.Collection
}

// Create inserts a pending job with an empty stage list.
func (q *JobQueue) Create(ctx context.Context, agentID, sessionID string, metadata map[string]interface{}) (string, error) {
	job := entities.NewReflectionJob(agentID, sessionID, metadata, time.Now().UTC())
	if _, err := q.coll.InsertOne(ctx, job); err != nil {
		return "", err
	}
	return job.ID, nil
}

// Get returns nil, nil for an unknown or malformed ID.
func (q *JobQueue) Get(ctx context.Context, jobID string) (*entities.ReflectionJob, error) {
	var job entities.ReflectionJob
	err := q.coll.FindOne(ctx, bson.M{"_id": jobID}).Decode(&job)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateStatus sets status, additionally setting startedAt on "running" and
// completedAt on "complete"/"failed".
func (q *JobQueue) UpdateStatus(ctx context.Context, jobID string, status entities.JobStatus, errMsg string) error {
	now := time.Now().UTC()
	set := bson.M{"status": status}
	if errMsg != "" {
		set["error"] = errMsg
	}

	switch status {
	case entities.JobStatusRunning:
		set["startedAt"] = now
	case entities.JobStatusComplete, entities.JobStatusFailed:
		set["completedAt"] = now
	}

	_, err := q.coll.UpdateOne(ctx, bson.M{"_id": jobID}, bson.M{"$set": set})
	return err
}

// UpdateStageResult performs an atomic upsert: first
// attempt a positional $set against an existing stage entry; if no
// document matched (the stage hasn't been recorded yet), fall back to
// $push. This guarantees exactly one entry per stage name survives
// regardless of call order or retries.
func (q *JobQueue) UpdateStageResult(ctx context.Context, jobID string, result entities.StageResult) error {
	res, err := q.coll.UpdateOne(ctx,
		bson.M{"_id": jobID, "stages.stage": result.Stage},
		bson.M{"$set": bson.M{"stages.$": result}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	_, err = q.coll.UpdateOne(ctx,
		bson.M{"_id": jobID},
		bson.M{"$push": bson.M{"stages": result}},
	)
	return err
}

// Claim performs the conditional {status:pending}->{status:running}
// transition; returns false if no document matched (another worker already
// claimed the job, or it no longer exists).
func (q *JobQueue) Claim(ctx context.Context, jobID string) (bool, error) {
	res, err := q.coll.UpdateOne(ctx,
		bson.M{"_id": jobID, "status": entities.JobStatusPending},
		bson.M{"$set": bson.M{"status": entities.JobStatusRunning, "startedAt": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// ListJobs lists jobs for an agent, most-recent-first.
func (q *JobQueue) ListJobs(ctx context.Context, agentID string, limit int) ([]*entities.ReflectionJob, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(int64(limit))

	cursor, err := q.coll.Find(ctx, bson.M{"agentId": agentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*entities.ReflectionJob
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPending lists pending jobs, oldest-first, up to limit.
func (q *JobQueue) GetPending(ctx context.Context, limit int) ([]*entities.ReflectionJob, error) {
	if limit <= 0 {
		limit = 10
	}
	opts := options.Find().SetSort(bson.M{"createdAt": 1}).SetLimit(int64(limit))

	cursor, err := q.coll.Find(ctx, bson.M{"status": entities.JobStatusPending}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*entities.ReflectionJob
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CleanupOldJobs deletes terminal jobs whose completedAt is older than the
// cutoff, returning the count deleted.
func (q *JobQueue) CleanupOldJobs(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	res, err := q.coll.DeleteMany(ctx, bson.M{
		"status":      bson.M{"$in": []entities.JobStatus{entities.JobStatusComplete, entities.JobStatusFailed}},
		"completedAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
