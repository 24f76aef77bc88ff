package common

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	Database  DatabaseConfig
	Redis     RedisConfig
	Queue     QueueConfig
	RateLimit RateLimitConfig
	Retry     RetryConfig
	LLM       LLMConfig
	Events    EventsConfig
	Storage   StorageConfig
	Sweep     SweepConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string        `env:"DB_URL"`
	MaxConns         int32         `env:"DB_MAX_CONNS" envDefault:"20"`
	MinConns         int32         `env:"DB_MIN_CONNS" envDefault:"5"`
	MaxConnLifetime  time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	MaxConnIdleTime  time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DialTimeout      time.Duration `env:"DB_DIAL_TIMEOUT" envDefault:"3s"`
	StatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"0"`
}

// RedisConfig holds connection settings for the broker and rate limiter.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// QueueConfig holds enrichment queue settings.
type QueueConfig struct {
	Name         string        `env:"QUEUE_NAME" envDefault:"enrichment"`
	JobTimeout   time.Duration `env:"JOB_TIMEOUT" envDefault:"3m"`
	JobTTL       time.Duration `env:"JOB_TTL" envDefault:"24h"`
	PollInterval time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"5s"`
}

// RateLimitConfig bounds calls to the enrichment service across processes.
type RateLimitConfig struct {
	Limit  int           `env:"RATE_LIMIT_CALLS" envDefault:"60"`
	Window time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// RetryConfig holds attempt bounds and backoff tuning for enrichment calls.
type RetryConfig struct {
	MaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"3"`
	BaseDelay   time.Duration `env:"RETRY_BASE_DELAY" envDefault:"2s"`
	MaxDelay    time.Duration `env:"RETRY_MAX_DELAY" envDefault:"30s"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model       string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	APIKey      string        `env:"OPENAI_API_KEY"`
	BaseURL     string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Temperature float32       `env:"OPENAI_TEMPERATURE" envDefault:"0.0"`
	MaxTokens   int           `env:"OPENAI_MAX_TOKENS" envDefault:"1024"`
	Timeout     time.Duration `env:"OPENAI_TIMEOUT" envDefault:"45s"`
	Lenient     bool          `env:"OPENAI_LENIENT_OUTPUT" envDefault:"true"`
}

// EventsConfig holds Kafka settings. Leaving KAFKA_BROKERS empty disables
// event publishing.
type EventsConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"daybook.enrichment"`
}

// StorageConfig selects and configures the document storage backend.
type StorageConfig struct {
	Backend     string `env:"STORAGE_BACKEND" envDefault:"local"`
	LocalDir    string `env:"STORAGE_LOCAL_DIR" envDefault:"./data/documents"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3Bucket    string `env:"S3_BUCKET" envDefault:"daybook-documents"`
	S3UseSSL    bool   `env:"S3_USE_SSL" envDefault:"false"`
}

// SweepConfig tunes the reconciliation sweep for stuck PROCESSING records.
type SweepConfig struct {
	Interval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	Grace     time.Duration `env:"SWEEP_GRACE" envDefault:"30s"`
	Reenqueue bool          `env:"SWEEP_REENQUEUE" envDefault:"false"`
}

// LoadConfig parses configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, WrapError(err, "parse environment")
	}
	return cfg, nil
}

// Validate checks the settings every process needs before starting.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Redis.Addr == "" {
		return NewAppError("CONFIG_ERROR", "REDIS_ADDR is required", ErrInvalidInput)
	}
	if c.Queue.JobTimeout <= 0 {
		return NewAppError("CONFIG_ERROR", "JOB_TIMEOUT must be positive", ErrInvalidInput)
	}
	if c.Queue.JobTTL <= 0 {
		return NewAppError("CONFIG_ERROR", "JOB_TTL must be positive", ErrInvalidInput)
	}
	if c.RateLimit.Limit < 1 {
		return NewAppError("CONFIG_ERROR", "RATE_LIMIT_CALLS must be at least 1", ErrInvalidInput)
	}
	if c.RateLimit.Window <= 0 {
		return NewAppError("CONFIG_ERROR", "RATE_LIMIT_WINDOW must be positive", ErrInvalidInput)
	}
	if c.Retry.MaxAttempts < 1 {
		return NewAppError("CONFIG_ERROR", "RETRY_MAX_ATTEMPTS must be at least 1", ErrInvalidInput)
	}
	return nil
}
