package common

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// Config holds all application configuration
type Config struct {
	// Database
	DBURL              string        `envconfig:"DB_URL"`
	DBMaxConns         int32         `envconfig:"DB_MAX_CONNS" default:"20"`
	DBMinConns         int32         `envconfig:"DB_MIN_CONNS" default:"5"`
	DBMaxConnLifetime  time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	DBMaxConnIdleTime  time.Duration `envconfig:"DB_MAX_CONN_IDLE_TIME" default:"5m"`
	DBDialTimeout      time.Duration `envconfig:"DB_DIAL_TIMEOUT" default:"3s"`
	DBStatementTimeout time.Duration `envconfig:"DB_STATEMENT_TIMEOUT" default:"0s"`
	StoreDriver        string        `envconfig:"STORE_DRIVER" default:"postgres"`
	SQLitePath         string        `envconfig:"SQLITE_PATH" default:"file:resume-ingestor.db?_pragma=busy_timeout(5000)"`

	// Artifact store (S3 compatible, e.g. Supabase storage)
	S3Endpoint        string `envconfig:"S3_ENDPOINT"`
	S3Region          string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	ResumeBucket      string `envconfig:"RESUME_BUCKET" default:"resumes"`
	ArchiveBucket     string `envconfig:"ARCHIVE_BUCKET" default:"zip-archives"`
	SpreadsheetBucket string `envconfig:"SPREADSHEET_BUCKET" default:"project-spreadsheets"`

	// LLM
	OpenAIAPIKey      string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL     string        `envconfig:"OPENAI_BASE_URL"`
	OpenAIModel       string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAITimeout     time.Duration `envconfig:"OPENAI_TIMEOUT" default:"45s"`
	OpenAITemperature float64       `envconfig:"OPENAI_TEMPERATURE" default:"0"`
	SchemaStrict      bool          `envconfig:"SCHEMA_STRICT" default:"false"`

	// Concurrency
	JobConcurrency    int           `envconfig:"JOB_CONCURRENCY" default:"4"`
	FanoutConcurrency int           `envconfig:"FANOUT_CONCURRENCY" default:"0"` // 0 shares the job pool
	LimiterWaitWarn   time.Duration `envconfig:"LIMITER_WAIT_WARN" default:"10s"`
	LinkRetryAttempts int           `envconfig:"LINK_RETRY_ATTEMPTS" default:"3"`
	LinkRetryDelay    time.Duration `envconfig:"LINK_RETRY_DELAY" default:"500ms"`
	LinkRetryJitter   float64       `envconfig:"LINK_RETRY_JITTER" default:"0"`
	JobTimeout        time.Duration `envconfig:"JOB_TIMEOUT" default:"10m"` // 0 leaves jobs unbounded

	// Server
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":3000"`
	GRPCAddr        string        `envconfig:"GRPC_ADDR" default:":8080"`
	NSQLookupd      string        `envconfig:"NSQ_LOOKUPD"`
	NSQChannel      string        `envconfig:"NSQ_CHANNEL" default:"resume-ingestor"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	WatchDir        string        `envconfig:"WATCH_DIR"` // local inbox; empty disables it

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// LoadConfig loads configuration from an optional .env file and environment variables
func LoadConfig() (*Config, error) {
	// Ignore errors, the variables might be set in the shell
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, NewAppError(CodeConfig, "failed to read environment", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DBURL == "" {
			return NewAppError(CodeConfig, "DB_URL is required", ErrInvalidInput)
		}
	case StoreDriverSQLite:
		if c.SQLitePath == "" {
			return NewAppError(CodeConfig, "SQLITE_PATH is required", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown STORE_DRIVER %q", c.StoreDriver), ErrInvalidInput)
	}
	if c.OpenAIAPIKey == "" {
		return NewAppError(CodeConfig, "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.JobConcurrency < 1 {
		return NewAppError(CodeConfig, "JOB_CONCURRENCY must be at least 1", ErrInvalidInput)
	}
	if c.FanoutConcurrency < 0 {
		return NewAppError(CodeConfig, "FANOUT_CONCURRENCY must not be negative", ErrInvalidInput)
	}
	if c.LinkRetryAttempts < 1 {
		return NewAppError(CodeConfig, "LINK_RETRY_ATTEMPTS must be at least 1", ErrInvalidInput)
	}
	if c.LinkRetryJitter < 0 || c.LinkRetryJitter > 1 {
		return NewAppError(CodeConfig, "LINK_RETRY_JITTER must be between 0 and 1", ErrInvalidInput)
	}
	if c.JobTimeout < 0 {
		return NewAppError(CodeConfig, "JOB_TIMEOUT must not be negative", ErrInvalidInput)
	}
	if c.HTTPAddr == "" {
		return NewAppError(CodeConfig, "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
