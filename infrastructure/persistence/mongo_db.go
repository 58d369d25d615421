package persistence

import (
	"context"
	"time"

	"video-publisher/infrastructure/configuration"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NewMongoDb connects to MongoDB. It returns (nil, nil) when no host is configured.
func NewMongoDb(ctx context.Context) (*mongo.Client, error) {
	uri := configuration.C.Database.Mongo.MongoURI()
	if uri == "" {
		return nil, nil
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetConnectTimeout(5 * time.Second))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}
