package persistence

import (
	"context"
	"fmt"

	"video-publisher/domain/model"
	"video-publisher/domain/repository"
	"video-publisher/infrastructure/logger"
	"video-publisher/infrastructure/utils"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const publishJobAuditCollection = "publish_job_audit"

// PublishJobAuditRepository keeps the status history of publish jobs in MongoDB.
// With a nil client it silently drops writes and reads back nothing.
type PublishJobAuditRepository struct {
	mongoDb *mongo.Client
	dbName  string
}

func NewPublishJobAuditRepository(client *mongo.Client, dbName string) *PublishJobAuditRepository {
	if dbName == "" {
		dbName = "video_publisher"
	}
	return &PublishJobAuditRepository{mongoDb: client, dbName: dbName}
}

func (r *PublishJobAuditRepository) collection() *mongo.Collection {
	return r.mongoDb.Database(r.dbName).Collection(publishJobAuditCollection)
}

func (r *PublishJobAuditRepository) Append(ctx context.Context, entry *model.PublishJobAudit) error {
	if r.mongoDb == nil {
		return nil
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = utils.GetCurrentTime()
	}
	if _, err := r.collection().InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("append publish job audit: %w", err)
	}
	return nil
}

func (r *PublishJobAuditRepository) ListByJob(ctx context.Context, jobID string) ([]*model.PublishJobAudit, error) {
	if r.mongoDb == nil {
		return []*model.PublishJobAudit{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection().Find(ctx, bson.D{{Key: "job_id", Value: jobID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list publish job audit: %w", err)
	}
	defer func(cursor *mongo.Cursor, ctx context.Context) {
		if err := cursor.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing audit cursor")
		}
	}(cursor, ctx)

	entries := []*model.PublishJobAudit{}
	for cursor.Next(ctx) {
		var entry model.PublishJobAudit
		if err := cursor.Decode(&entry); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while decoding audit entry")
			continue
		}
		entries = append(entries, &entry)
	}
	return entries, cursor.Err()
}

// EnsureIndexes creates the job_id/created_at index used by ListByJob.
func (r *PublishJobAuditRepository) EnsureIndexes(ctx context.Context) error {
	if r.mongoDb == nil {
		return nil
	}
	_, err := r.collection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "job_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}

var _ repository.IPublishJobAudit = (*PublishJobAuditRepository)(nil)
