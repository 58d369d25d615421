package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"video-publisher/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RabbitMQ    RabbitMQ    `json:"rabbitMQ"`
	Storage     Storage     `json:"storage"`
	YouTube     YouTube     `json:"youtube"`
	Rumble      Rumble      `json:"rumble"`
	Worker      Worker      `json:"worker"`
	Logger      Logger      `json:"logger"`
}

type App struct {
	Port           int      `json:"port"`
	SecretKey      string   `json:"secretKey"`
	TLSEnabled     bool     `json:"tlsEnabled"`
	TLSCertFile    string   `json:"tlsCertFile"`
	TLSKeyFile     string   `json:"tlsKeyFile"`
	AllowedOrigins []string `json:"allowedOrigins"`
	// OperatorIDs may trigger queue-wide operations over HTTP.
	OperatorIDs []string `json:"operatorIds"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mongo Db `json:"mongo"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
}

type RedisClient struct {
	Host     string        `json:"host"`
	Port     string        `json:"port"`
	Password string        `json:"password"`
	Username string        `json:"username"`
	DB       int           `json:"db"`
	TTL      time.Duration `json:"ttl"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type RabbitMQ struct {
	URL      string `json:"url"`
	Exchange string `json:"exchange"`
}

type Storage struct {
	Region     string        `json:"region"`
	Bucket     string        `json:"bucket"`
	PresignTTL time.Duration `json:"presignTTL"`
}

type YouTube struct {
	ClientID      string  `json:"clientId"`
	ClientSecret  string  `json:"clientSecret"`
	RedirectURI   string  `json:"redirectURI"`
	RatePerSecond float64 `json:"ratePerSecond"`
}

type Rumble struct {
	BaseURL       string  `json:"baseURL"`
	RatePerSecond float64 `json:"ratePerSecond"`
}

// Worker drives the background publish loop.
type Worker struct {
	Enabled     bool          `json:"enabled"`
	Interval    time.Duration `json:"interval"`
	BatchSize   int           `json:"batchSize"`
	Concurrency int           `json:"concurrency"`
	MaxRetries  int           `json:"maxRetries"`
	BaseBackoff time.Duration `json:"baseBackoff"`
	MaxBackoff  time.Duration `json:"maxBackoff"`
	StaleAfter  time.Duration `json:"staleAfter"`
	JobTimeout  time.Duration `json:"jobTimeout"`
}

type Logger struct {
	Format string `json:"format"`
	Level  string `json:"level"`
}

var C Config

func init() {
	LoadEnvFromFile("config.env", ".env")
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initIntegrations(&C)
	initWorker(&C)
	logger.Configure(C.Logger.Format, C.Logger.Level)
	if C.App.TLSEnabled && C.YouTube.RedirectURI != "" && !hasHTTPS(C.YouTube.RedirectURI) {
		C.YouTube.RedirectURI = toHTTPSCallback(C.YouTube.RedirectURI)
	}
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	C.Database.Psql.Name = getConfigValue(C.Database.Psql.Name, "DB_NAME", "video_publisher")
	C.Database.Psql.Host = getConfigValue(C.Database.Psql.Host, "DB_HOST", "localhost")
	C.Database.Psql.Port = getConfigValue(C.Database.Psql.Port, "DB_PORT", "5432")
	C.Database.Psql.User = getConfigValue(C.Database.Psql.User, "DB_USER", "postgres")
	C.Database.Psql.Password = getConfigValue(C.Database.Psql.Password, "DB_PASSWORD", "")
	C.Database.Psql.SSLMode = getConfigValue(C.Database.Psql.SSLMode, "DB_SSLMODE", "disable")

	C.Database.Mongo.Name = getConfigValue(C.Database.Mongo.Name, "MONGO_DB_NAME", "video_publisher")
	C.Database.Mongo.Host = getConfigValue(C.Database.Mongo.Host, "MONGO_HOST", "")
	C.Database.Mongo.Port = getConfigValue(C.Database.Mongo.Port, "MONGO_PORT", "27017")
	C.Database.Mongo.User = getConfigValue(C.Database.Mongo.User, "MONGO_USER", "")
	C.Database.Mongo.Password = getConfigValue(C.Database.Mongo.Password, "MONGO_PASSWORD", "")

	logger.GetLogger().WithFields(map[string]interface{}{
		"host": C.Database.Psql.Host,
		"port": C.Database.Psql.Port,
		"name": C.Database.Psql.Name,
	}).Info("Database configuration")
}

func initApp(C *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// APP_PORT -> PORT -> config -> 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v, ok := parseBool(os.Getenv("TLS_ENABLED")); ok {
		C.App.TLSEnabled = v
	}
	C.App.TLSCertFile = getConfigValue(C.App.TLSCertFile, "TLS_CERT_FILE", "")
	C.App.TLSKeyFile = getConfigValue(C.App.TLSKeyFile, "TLS_KEY_FILE", "")
	if C.App.TLSEnabled {
		if C.App.TLSCertFile == "" {
			if _, err := os.Stat("certs/localhost.crt"); err == nil {
				C.App.TLSCertFile = "certs/localhost.crt"
			}
		}
		if C.App.TLSKeyFile == "" {
			if _, err := os.Stat("certs/localhost.key"); err == nil {
				C.App.TLSKeyFile = "certs/localhost.key"
			}
		}
		logger.GetLogger().WithFields(map[string]interface{}{"cert": C.App.TLSCertFile, "key": C.App.TLSKeyFile}).Info("TLS enabled via configuration")
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		C.App.AllowedOrigins = splitList(v)
	}
	if len(C.App.AllowedOrigins) == 0 {
		C.App.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:4200"}
	}
	if v := os.Getenv("OPERATOR_IDS"); v != "" {
		C.App.OperatorIDs = splitList(v)
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
	C.Logger.Level = getConfigValue(C.Logger.Level, "LOG_LEVEL", "info")
	C.Logger.Format = getConfigValue(C.Logger.Format, "LOG_FORMAT", "json")
}

func initIntegrations(C *Config) {
	C.RedisClient.Host = getConfigValue(C.RedisClient.Host, "REDIS_HOST", "")
	C.RedisClient.Port = getConfigValue(C.RedisClient.Port, "REDIS_PORT", "6379")
	C.RedisClient.Password = getConfigValue(C.RedisClient.Password, "REDIS_PASSWORD", "")
	if C.RedisClient.TTL <= 0 {
		C.RedisClient.TTL = 10 * time.Minute
	}

	C.Pubsub.ProjectID = getConfigValue(C.Pubsub.ProjectID, "PUBSUB_PROJECT_ID", "")
	C.Pubsub.Topic = getConfigValue(C.Pubsub.Topic, "PUBSUB_TOPIC", "publish-job-events")
	C.ServiceBus.Namespace = getConfigValue(C.ServiceBus.Namespace, "SERVICEBUS_NAMESPACE", "")
	C.ServiceBus.Queue = getConfigValue(C.ServiceBus.Queue, "SERVICEBUS_QUEUE", "publish-job-events")
	C.RabbitMQ.URL = getConfigValue(C.RabbitMQ.URL, "RABBITMQ_URL", "")
	C.RabbitMQ.Exchange = getConfigValue(C.RabbitMQ.Exchange, "RABBITMQ_EXCHANGE", "publish-jobs")

	C.Storage.Region = getConfigValue(C.Storage.Region, "AWS_REGION", "us-east-1")
	C.Storage.Bucket = getConfigValue(C.Storage.Bucket, "S3_BUCKET", "")
	if C.Storage.PresignTTL <= 0 {
		C.Storage.PresignTTL = time.Hour
	}

	scheme := "http"
	if C.App.TLSEnabled {
		scheme = "https"
	}
	defaultRedirect := fmt.Sprintf("%s://localhost:%d/auth/youtube/callback", scheme, C.App.Port)
	C.YouTube.ClientID = getConfigValue(C.YouTube.ClientID, "YOUTUBE_CLIENT_ID", "")
	C.YouTube.ClientSecret = getConfigValue(C.YouTube.ClientSecret, "YOUTUBE_CLIENT_SECRET", "")
	C.YouTube.RedirectURI = getConfigValue(C.YouTube.RedirectURI, "YOUTUBE_REDIRECT_URL", defaultRedirect)
	if C.YouTube.RatePerSecond <= 0 {
		C.YouTube.RatePerSecond = 1
	}
	C.Rumble.BaseURL = getConfigValue(C.Rumble.BaseURL, "RUMBLE_BASE_URL", "")
	if C.Rumble.RatePerSecond <= 0 {
		C.Rumble.RatePerSecond = 1
	}
}

// StaleAfterMargin is the minimum gap between worker.jobTimeout and worker.staleAfter.
const StaleAfterMargin = 5 * time.Minute

func initWorker(C *Config) {
	if v, ok := parseBool(os.Getenv("WORKER_ENABLED")); ok {
		C.Worker.Enabled = v
	} else if !viper.IsSet("worker.enabled") {
		C.Worker.Enabled = true
	}
	if C.Worker.Interval <= 0 {
		C.Worker.Interval = 15 * time.Second
	}
	if C.Worker.BatchSize <= 0 {
		C.Worker.BatchSize = 10
	}
	if C.Worker.Concurrency <= 0 {
		C.Worker.Concurrency = 4
	}
	if C.Worker.MaxRetries <= 0 {
		C.Worker.MaxRetries = 3
	}
	if C.Worker.BaseBackoff <= 0 {
		C.Worker.BaseBackoff = 30 * time.Second
	}
	if C.Worker.MaxBackoff <= 0 {
		C.Worker.MaxBackoff = 30 * time.Minute
	}
	if C.Worker.StaleAfter <= 0 {
		C.Worker.StaleAfter = 30 * time.Minute
	}
	if C.Worker.JobTimeout <= 0 {
		C.Worker.JobTimeout = 20 * time.Minute
	}
	// A job still inside its timeout must never look stale, or it is published twice.
	if floor := C.Worker.JobTimeout + StaleAfterMargin; C.Worker.StaleAfter < floor {
		logger.GetLogger().WithFields(map[string]interface{}{
			"staleAfter": C.Worker.StaleAfter.String(),
			"jobTimeout": C.Worker.JobTimeout.String(),
		}).Warn("worker.staleAfter must exceed worker.jobTimeout, raising it")
		C.Worker.StaleAfter = floor
	}
}

// getConfigValue prefers the environment, then a non-placeholder config value, then the default.
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

func parseBool(v string) (bool, bool) {
	switch v {
	case "1", "true", "TRUE", "True":
		return true, true
	case "0", "false", "FALSE", "False":
		return false, true
	}
	return false, false
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func hasHTTPS(u string) bool { return strings.HasPrefix(u, "https://") }

func toHTTPSCallback(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// PostgresDSN builds a lib/pq connection string from the psql section.
func (d Db) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// MongoURI returns an empty string when no host is configured.
func (d Db) MongoURI() string {
	if d.Host == "" {
		return ""
	}
	if d.User == "" {
		return fmt.Sprintf("mongodb://%s:%s", d.Host, d.Port)
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%s", d.User, d.Password, d.Host, d.Port)
}
