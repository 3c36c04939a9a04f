package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"nerdx-recommendations"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// Graph Database (Neo4j/Memgraph)
	GraphDBHost                  string        `env:"GRAPH_DB_HOST" env-default:"localhost"`
	GraphDBPort                  int           `env:"GRAPH_DB_PORT" env-default:"7687"`
	GraphDBUser                  string        `env:"GRAPH_DB_USER" env-default:""`
	GraphDBPassword              string        `env:"GRAPH_DB_PASSWORD" env-default:""`
	GraphDBMaxConnectionPoolSize int           `env:"GRAPH_DB_MAX_CONNECTION_POOL_SIZE" env-default:"50"`
	GraphDBConnectTimeout        time.Duration `env:"GRAPH_DB_CONNECT_TIMEOUT" env-default:"10s"`

	// Kafka Consumer (order-completed events from checkout)
	KafkaBrokers         []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaInputTopic      string   `env:"KAFKA_INPUT_TOPIC" env-default:"order-completed"`
	KafkaConsumerGroup   string   `env:"KAFKA_CONSUMER_GROUP" env-default:"purchase-graph-consumer"`
	KafkaConsumerEnabled bool     `env:"KAFKA_CONSUMER_ENABLED" env-default:"true"`

	// Kafka Producer (dead-letter topic for unprocessable events)
	KafkaDLQTopic     string `env:"KAFKA_DLQ_TOPIC" env-default:"order-completed-dlq"`
	KafkaBatchSize    int    `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int    `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int    `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Redis (optional recommendation cache)
	RedisEnabled  bool          `env:"REDIS_ENABLED" env-default:"false"`
	RedisHost     string        `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int           `env:"REDIS_DB" env-default:"0"`
	RecCacheTTL   time.Duration `env:"RECOMMENDATION_CACHE_TTL" env-default:"60s"`

	// Recommendations
	RecommendationDefaultLimit int `env:"RECOMMENDATION_DEFAULT_LIMIT" env-default:"5"`

	// Tracing
	TracingEnabled      bool   `env:"TRACING_ENABLED" env-default:"false"`
	TracingOTLPEndpoint string `env:"TRACING_OTLP_ENDPOINT" env-default:"localhost:4318"`
}

// Load reads configuration from the environment, honoring a local .env file
// when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
