package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DB_URL", "postgres://u:p@localhost:5432/app")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, int32(20), cfg.DBMaxConns)
	assert.Equal(t, 30*time.Minute, cfg.DBMaxConnLifetime)
	assert.Equal(t, "resumes", cfg.ResumeBucket)
	assert.Equal(t, "zip-archives", cfg.ArchiveBucket)
	assert.Equal(t, 4, cfg.JobConcurrency)
	assert.Equal(t, 0, cfg.FanoutConcurrency)
	assert.Equal(t, 3, cfg.LinkRetryAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.LinkRetryDelay)
	assert.Equal(t, 10*time.Minute, cfg.JobTimeout)
	assert.Equal(t, ":3000", cfg.HTTPAddr)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "file::memory:")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("JOB_CONCURRENCY", "1")
	t.Setenv("FANOUT_CONCURRENCY", "8")
	t.Setenv("LINK_RETRY_DELAY", "2s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverSQLite, cfg.StoreDriver)
	assert.Equal(t, 1, cfg.JobConcurrency)
	assert.Equal(t, 8, cfg.FanoutConcurrency)
	assert.Equal(t, 2*time.Second, cfg.LinkRetryDelay)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			StoreDriver:       StoreDriverPostgres,
			DBURL:             "postgres://localhost/app",
			OpenAIAPIKey:      "sk-test",
			JobConcurrency:    2,
			LinkRetryAttempts: 3,
			HTTPAddr:          ":3000",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing db url", func(c *Config) { c.DBURL = "" }, "DB_URL is required"},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mysql" }, "unknown STORE_DRIVER"},
		{"missing api key", func(c *Config) { c.OpenAIAPIKey = "" }, "OPENAI_API_KEY is required"},
		{"zero concurrency", func(c *Config) { c.JobConcurrency = 0 }, "JOB_CONCURRENCY"},
		{"negative fanout", func(c *Config) { c.FanoutConcurrency = -1 }, "FANOUT_CONCURRENCY"},
		{"zero attempts", func(c *Config) { c.LinkRetryAttempts = 0 }, "LINK_RETRY_ATTEMPTS"},
		{"jitter out of range", func(c *Config) { c.LinkRetryJitter = 1.5 }, "LINK_RETRY_JITTER"},
		{"negative job timeout", func(c *Config) { c.JobTimeout = -time.Second }, "JOB_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}
