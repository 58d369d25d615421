package pubsub_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"video-publisher/domain/model"
	vpubsub "video-publisher/infrastructure/pubsub"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestJobEventPublisher_CreatesTopicAndPublishes(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client, err := pubsub.NewClient(ctx, "test-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	defer client.Close()

	pub := vpubsub.NewJobEventPublisher(client, "publish-job-events")
	defer pub.Close()

	evt := model.JobEvent{Type: model.JobEventCompleted, JobID: "job-1", Platform: model.PlatformYouTube, OccurredAt: time.Now().UTC()}
	require.NoError(t, pub.PublishJobEvent(ctx, evt))
	require.NoError(t, pub.PublishJobEvent(ctx, evt))

	msgs := srv.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "job.completed", msgs[0].Attributes["type"])
	var got model.JobEvent
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, "job-1", got.JobID)
}

func TestJobEventPublisher_NilClient(t *testing.T) {
	pub := vpubsub.NewJobEventPublisher(nil, "topic")
	assert.NoError(t, pub.PublishJobEvent(context.Background(), model.JobEvent{}))
}
