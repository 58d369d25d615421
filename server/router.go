package server

import (
	"net/http"
	"time"

	"video-publisher/domain/repository"
	httpHandler "video-publisher/interfaces/http"
	"video-publisher/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Health      httpHandler.IHealthHandler
	User        httpHandler.IUserHandler
	Video       httpHandler.IVideoHandler
	Connection  httpHandler.IConnectionHandler
	YouTubeAuth httpHandler.IYouTubeAuthHandler
	Post        httpHandler.IPostHandler
	PublishJob  httpHandler.IPublishJobHandler
}

type RouterOptions struct {
	SecretKey      string
	AllowedOrigins []string
	// OperatorIDs may run POST /api/publish-jobs/process. Empty disables it over HTTP.
	OperatorIDs []string
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

func InitiateRouter(h Handlers, userRepository repository.IUser, opts RouterOptions) *gin.Engine {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:4200"}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", h.Health.Healthz)
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	router.GET("/auth/youtube/callback", h.YouTubeAuth.HandleCallback)

	api := router.Group("api")
	api.Use(middleware.Auth(userRepository, opts.SecretKey))

	api.GET("/me", h.User.Me)

	videos := api.Group("/videos")
	{
		videos.POST("", h.Video.Create)
		videos.GET("", h.Video.List)
		videos.GET("/stats", h.Video.Stats)
		videos.GET("/:id", h.Video.Get)
		videos.PATCH("/:id", h.Video.Update)
		videos.DELETE("/:id", h.Video.Delete)
		videos.GET("/:id/download-url", h.Video.DownloadURL)
	}

	connections := api.Group("/connections")
	{
		connections.GET("", h.Connection.List)
		connections.GET("/youtube/auth-url", h.YouTubeAuth.GetAuthURL)
		connections.PUT("/:platform", h.Connection.Upsert)
		connections.POST("/:id/deactivate", h.Connection.Deactivate)
		connections.DELETE("/:id", h.Connection.Delete)
	}

	posts := api.Group("/posts")
	{
		posts.GET("", h.Post.List)
		posts.POST("", h.Post.Create)
		posts.GET("/latest", h.Post.Latest)
		posts.DELETE("/:id", h.Post.Delete)
	}

	jobs := api.Group("/publish-jobs")
	{
		jobs.POST("", h.PublishJob.Enqueue)
		jobs.GET("", h.PublishJob.List)
		jobs.GET("/stats", h.PublishJob.Stats)
		jobs.GET("/stream", h.PublishJob.Stream)
		jobs.POST("/process", middleware.RequireOperator(opts.OperatorIDs), h.PublishJob.Process)
		jobs.GET("/:id", h.PublishJob.Get)
		jobs.POST("/:id/cancel", h.PublishJob.Cancel)
		jobs.POST("/:id/retry", h.PublishJob.Retry)
		jobs.GET("/:id/history", h.PublishJob.History)
	}

	return router
}
