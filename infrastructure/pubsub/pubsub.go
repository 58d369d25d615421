package pubsub

import (
	"context"

	"cloud.google.com/go/pubsub"
)

// NewPubSub returns (nil, nil) when no project is configured.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, nil
	}
	return pubsub.NewClient(ctx, projectID)
}
