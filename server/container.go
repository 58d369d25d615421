package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"video-publisher/domain/repository"
	"video-publisher/infrastructure/cache"
	"video-publisher/infrastructure/clients/platform"
	"video-publisher/infrastructure/clients/rumble"
	youtubeclient "video-publisher/infrastructure/clients/youtube"
	"video-publisher/infrastructure/configuration"
	"video-publisher/infrastructure/events"
	"video-publisher/infrastructure/logger"
	"video-publisher/infrastructure/metrics"
	"video-publisher/infrastructure/persistence"
	"video-publisher/infrastructure/pubsub"
	"video-publisher/infrastructure/rabbitmq"
	"video-publisher/infrastructure/realtime"
	"video-publisher/infrastructure/servicebus"
	"video-publisher/infrastructure/storage"
	httpHandler "video-publisher/interfaces/http"
	"video-publisher/usecase"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Container owns every long-lived client and the use cases built on top of them.
// Optional backends (Mongo, Redis, S3, brokers) are skipped with a warning when unconfigured.
type Container struct {
	Postgres *sql.DB
	Mongo    *mongo.Client
	Redis    *redis.Client

	Users       repository.IUser
	Hub         *realtime.Hub
	Metrics     *metrics.Metrics
	Events      *events.Fanout
	Publishers  *platform.Registry
	UserUC      usecase.IUserUsecase
	VideoUC     usecase.IVideoUsecase
	ConnUC      usecase.IConnectionUsecase
	PostUC      usecase.IPostUsecase
	PublishJobs usecase.IPublishJobUsecase

	closers []func()
}

// NewContainer connects to Postgres (required), applies the schema and wires the rest.
func NewContainer(ctx context.Context, cfg configuration.Config) (*Container, error) {
	db, err := persistence.OpenPostgres(cfg.Database.Psql.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	c := &Container{Postgres: db}
	c.closers = append(c.closers, func() { _ = db.Close() })

	if err := persistence.EnsureSchema(db); err != nil {
		c.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	c.Mongo, err = persistence.NewMongoDb(ctx)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB unavailable; job audit log disabled")
		c.Mongo = nil
	}
	if c.Mongo != nil {
		client := c.Mongo
		c.closers = append(c.closers, func() { _ = client.Disconnect(context.Background()) })
	}
	audit := persistence.NewPublishJobAuditRepository(c.Mongo, cfg.Database.Mongo.Name)
	if err := audit.EnsureIndexes(ctx); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Failed to create audit indexes")
	}

	if cfg.RedisClient.Host != "" {
		addr := fmt.Sprintf("%s:%s", cfg.RedisClient.Host, cfg.RedisClient.Port)
		c.Redis, err = cache.NewCache(ctx, addr, cfg.RedisClient.Username, cfg.RedisClient.Password, cfg.RedisClient.DB)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Redis unavailable; video cache disabled")
			c.Redis = nil
		} else {
			client := c.Redis
			c.closers = append(c.closers, func() { _ = client.Close() })
		}
	}

	var media repository.IMediaStorage
	if cfg.Storage.Bucket != "" {
		s3Storage, err := storage.NewS3Storage(ctx, cfg.Storage.Region, cfg.Storage.Bucket)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("S3 storage unavailable")
		} else {
			media = s3Storage
		}
	} else {
		logger.GetLogger().Warn("Storage.Bucket not set; video registration and uploads disabled")
	}

	c.Publishers = platform.NewRegistry()
	ytCfg := youtubeclient.Config{
		ClientID:     cfg.YouTube.ClientID,
		ClientSecret: cfg.YouTube.ClientSecret,
		RedirectURL:  cfg.YouTube.RedirectURI,
	}
	c.Publishers.Register(youtubeclient.NewPublisher(ytCfg, media), cfg.YouTube.RatePerSecond)
	c.Publishers.Register(rumble.NewClient(cfg.Rumble.BaseURL, &http.Client{Timeout: 30 * time.Minute}, media), cfg.Rumble.RatePerSecond)
	var authenticators []repository.IPlatformAuthenticator
	if cfg.YouTube.ClientID != "" {
		authenticators = append(authenticators, youtubeclient.NewAuthenticator(ytCfg))
	}

	c.Hub = realtime.NewJobHub()
	c.Events = events.NewFanout().Add("sse", c.Hub)
	c.wireBrokers(ctx, cfg)

	c.Metrics = metrics.New()

	c.Users = persistence.NewUserRepository(db)
	videos := persistence.NewVideoRepository(db)
	connections := persistence.NewPlatformConnectionRepository(db)

	c.UserUC = usecase.NewUserUsecase(c.Users)
	c.VideoUC = usecase.NewVideoUsecase(videos, cache.NewVideoCache(c.Redis, cfg.RedisClient.TTL), media, cfg.Storage.PresignTTL)
	c.ConnUC = usecase.NewConnectionUsecase(connections, cfg.App.SecretKey, authenticators...)
	c.PostUC = usecase.NewPostUsecase(persistence.NewPostRepository(db))
	c.PublishJobs = usecase.NewPublishJobUsecase(usecase.PublishJobDeps{
		Jobs:        persistence.NewPublishJobRepository(db),
		Audit:       audit,
		Videos:      videos,
		Connections: connections,
		Publishers:  c.Publishers,
		Events:      c.Events,
		Metrics:     c.Metrics,
	}, usecase.WorkerOptions{
		BatchSize:   cfg.Worker.BatchSize,
		Concurrency: cfg.Worker.Concurrency,
		MaxRetries:  cfg.Worker.MaxRetries,
		BaseBackoff: cfg.Worker.BaseBackoff,
		MaxBackoff:  cfg.Worker.MaxBackoff,
		StaleAfter:  cfg.Worker.StaleAfter,
		JobTimeout:  cfg.Worker.JobTimeout,
	})

	logger.GetLogger().WithField("sinks", c.Events.Sinks()).WithField("platforms", c.Publishers.Platforms()).Info("Container ready")
	return c, nil
}

// wireBrokers adds every configured message broker to the event fan-out.
func (c *Container) wireBrokers(ctx context.Context, cfg configuration.Config) {
	if ps, err := pubsub.NewPubSub(ctx, cfg.Pubsub.ProjectID); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Pub/Sub unavailable")
	} else if ps != nil {
		pub := pubsub.NewJobEventPublisher(ps, cfg.Pubsub.Topic)
		c.Events.Add("pubsub", pub)
		c.closers = append(c.closers, func() { pub.Close(); _ = ps.Close() })
	}

	if sb, err := servicebus.NewServiceBus(ctx, cfg.ServiceBus.Namespace); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Service Bus unavailable")
	} else if sb != nil {
		c.Events.Add("servicebus", servicebus.NewJobEventPublisher(sb, cfg.ServiceBus.Queue))
		c.closers = append(c.closers, func() { _ = sb.Close(context.Background()) })
	}

	if conn, err := rabbitmq.NewConnection(cfg.RabbitMQ.URL, 3, 2*time.Second); err != nil {
		logger.GetLogger().WithField("error", err).Warn("RabbitMQ unavailable")
	} else if conn != nil {
		pub := rabbitmq.NewJobEventPublisher(conn, cfg.RabbitMQ.Exchange)
		c.Events.Add("rabbitmq", pub)
		c.closers = append(c.closers, func() { pub.Close(); _ = conn.Close() })
	}
}

// HealthChecks returns the probes served at /healthz.
func (c *Container) HealthChecks() map[string]httpHandler.HealthCheck {
	raw := persistence.NewRaw(c.Postgres)
	checks := map[string]httpHandler.HealthCheck{
		"postgres": c.Postgres.PingContext,
		// fails until EnsureSchema has run
		"schema": func(ctx context.Context) error {
			_, err := raw.Query(ctx, `SELECT 1 FROM publish_jobs LIMIT 1`)
			return err
		},
	}
	if c.Mongo != nil {
		checks["mongo"] = func(ctx context.Context) error { return c.Mongo.Ping(ctx, nil) }
	}
	if c.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() }
	}
	return checks
}

// Router builds the HTTP API on top of the container.
func (c *Container) Router(cfg configuration.Config) http.Handler {
	return InitiateRouter(Handlers{
		Health:      httpHandler.NewHealthHandler(c.HealthChecks()),
		User:        httpHandler.NewUserHandler(c.UserUC),
		Video:       httpHandler.NewVideoHandler(c.VideoUC),
		Connection:  httpHandler.NewConnectionHandler(c.ConnUC),
		YouTubeAuth: httpHandler.NewYouTubeAuthHandler(c.ConnUC),
		Post:        httpHandler.NewPostHandler(c.PostUC),
		PublishJob:  httpHandler.NewPublishJobHandler(c.PublishJobs, c.Hub),
	}, c.Users, RouterOptions{
		SecretKey:      cfg.App.SecretKey,
		AllowedOrigins: cfg.App.AllowedOrigins,
		OperatorIDs:    cfg.App.OperatorIDs,
		Metrics:        c.Metrics.Handler(),
	})
}

// Close releases clients in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
