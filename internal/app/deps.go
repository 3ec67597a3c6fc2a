// Package app assembles the service's dependencies from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/resume-ingestor/internal/common"
	"github.com/joseph-ayodele/resume-ingestor/internal/extract"
	"github.com/joseph-ayodele/resume-ingestor/internal/limiter"
	"github.com/joseph-ayodele/resume-ingestor/internal/llm"
	"github.com/joseph-ayodele/resume-ingestor/internal/llm/openai"
	"github.com/joseph-ayodele/resume-ingestor/internal/pipeline"
	"github.com/joseph-ayodele/resume-ingestor/internal/repository"
	"github.com/joseph-ayodele/resume-ingestor/internal/repository/sqlite"
	"github.com/joseph-ayodele/resume-ingestor/internal/retry"
	"github.com/joseph-ayodele/resume-ingestor/internal/server"
	"github.com/joseph-ayodele/resume-ingestor/internal/storage"
)

// Deps is built once at startup and passed by reference; nothing in it is
// reassigned afterwards.
type Deps struct {
	Config     *common.Config
	Logger     *slog.Logger
	Store      repository.Store
	Pinger     repository.Pinger
	Objects    storage.ArtifactStore
	Jobs       *limiter.Limiter
	Fanout     *limiter.Limiter // nil when archive uploads share Jobs
	Extractor  extract.TextExtractor
	Structurer llm.Structurer
}

// Build opens the store, the object store client and the LLM client. The
// returned cleanup closes whatever was opened.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*Deps, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Deps{Config: cfg, Logger: logger}
	cleanup := func() {}

	switch cfg.StoreDriver {
	case common.StoreDriverSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, cleanup, common.WrapError(err, "open sqlite store")
		}
		d.Store, d.Pinger = s, s
		cleanup = func() { _ = s.Close() }
	default:
		pool, err := repository.Open(ctx, repository.Config{
			DSN:              cfg.DBURL,
			MaxConns:         cfg.DBMaxConns,
			MinConns:         cfg.DBMinConns,
			MaxConnLifetime:  cfg.DBMaxConnLifetime,
			MaxConnIdleTime:  cfg.DBMaxConnIdleTime,
			DialTimeout:      cfg.DBDialTimeout,
			StatementTimeout: cfg.DBStatementTimeout,
		}, logger)
		if err != nil {
			return nil, cleanup, common.WrapError(err, "open postgres pool")
		}
		d.Store, d.Pinger = repository.NewPostgresStore(pool, logger), pool
		cleanup = func() { repository.Close(pool, logger) }
	}

	objects, err := storage.NewS3Store(ctx, storage.S3Config{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	}, logger)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("create object store client: %w", err)
	}
	d.Objects = objects

	d.Jobs = limiter.New(cfg.JobConcurrency,
		limiter.WithName("jobs"), limiter.WithLogger(logger), limiter.WithWaitWarn(cfg.LimiterWaitWarn))
	if cfg.FanoutConcurrency > 0 {
		d.Fanout = limiter.New(cfg.FanoutConcurrency,
			limiter.WithName("fanout"), limiter.WithLogger(logger), limiter.WithWaitWarn(cfg.LimiterWaitWarn))
	}

	d.Extractor = extract.NewPDFExtractor(logger)
	d.Structurer = openai.NewClient(openai.Config{
		APIKey:       cfg.OpenAIAPIKey,
		BaseURL:      cfg.OpenAIBaseURL,
		Model:        cfg.OpenAIModel,
		Temperature:  cfg.OpenAITemperature,
		Timeout:      cfg.OpenAITimeout,
		StrictSchema: cfg.SchemaStrict,
	}, logger)

	limiters := cleanup
	return d, func() {
		d.Jobs.Close()
		if d.Fanout != nil {
			d.Fanout.Close()
		}
		limiters()
	}, nil
}

// Pipelines builds the three job runners over d.
func (d *Deps) Pipelines() (*pipeline.ResumePipeline, *pipeline.ArchiveExpander, *pipeline.ProjectImporter) {
	status := repository.NewStatusTracker(d.Store, d.Logger)

	resumes := pipeline.NewResumePipeline(d.Jobs, d.Objects, d.Extractor, d.Structurer, d.Store, status, d.Logger,
		pipeline.WithResumeBucket(d.Config.ResumeBucket))

	archiveOpts := []pipeline.ArchiveOption{
		pipeline.WithBuckets(d.Config.ArchiveBucket, d.Config.ResumeBucket),
		pipeline.WithLinkRetry(retry.Policy{
			Attempts: d.Config.LinkRetryAttempts,
			Delay:    d.Config.LinkRetryDelay,
			Jitter:   d.Config.LinkRetryJitter,
		}),
	}
	if d.Fanout != nil {
		archiveOpts = append(archiveOpts, pipeline.WithFanoutLimiter(d.Fanout))
	}
	archives := pipeline.NewArchiveExpander(d.Jobs, d.Objects, d.Store, status, d.Logger, archiveOpts...)

	projects := pipeline.NewProjectImporter(d.Jobs, d.Objects, d.Store, status, d.Config.SpreadsheetBucket, d.Logger)

	resumes.Timeout = d.Config.JobTimeout
	archives.Timeout = d.Config.JobTimeout
	projects.Timeout = d.Config.JobTimeout
	return resumes, archives, projects
}

// Pools lists the limiters for the health endpoint.
func (d *Deps) Pools() map[string]server.PoolStats {
	pools := map[string]server.PoolStats{"jobs": d.Jobs}
	if d.Fanout != nil {
		pools["fanout"] = d.Fanout
	}
	return pools
}
