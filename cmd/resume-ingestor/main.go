package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/resume-ingestor/internal/app"
	"github.com/joseph-ayodele/resume-ingestor/internal/async"
	"github.com/joseph-ayodele/resume-ingestor/internal/common"
	"github.com/joseph-ayodele/resume-ingestor/internal/ingest"
	"github.com/joseph-ayodele/resume-ingestor/internal/logger"
	repo "github.com/joseph-ayodele/resume-ingestor/internal/repository"
	"github.com/joseph-ayodele/resume-ingestor/internal/server"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		logger.New(os.Stderr, "info", "text").Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	log.Info("starting resume-ingestor", "store", cfg.StoreDriver, "jobs", cfg.JobConcurrency, "fanout", cfg.FanoutConcurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to build dependencies", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := repo.HealthCheck(ctx, deps.Pinger, 5*time.Second, log); err != nil {
		log.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	resumes, archives, projects := deps.Pipelines()
	dispatcher := async.NewDispatcher(resumes, archives, projects, log)

	// HTTP webhooks
	router := server.NewRouter(server.NewWebhookHandler(dispatcher, deps.Pools(), log), log)
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http serve error", "error", err)
			stop()
		}
	}()

	// gRPC health
	grpcSrv, health := server.NewHealthServer()
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Error("failed to listen on address", "addr", cfg.GRPCAddr, "error", err)
			os.Exit(1)
		}
		go func() {
			log.Info("grpc health listening", "addr", cfg.GRPCAddr)
			if err := grpcSrv.Serve(lis); err != nil {
				log.Error("gRPC serve error", "error", err)
			}
		}()
	}

	// NSQ, optional
	var consumers *server.NSQConsumers
	if cfg.NSQLookupd != "" {
		consumers, err = server.StartNSQConsumers(cfg.NSQLookupd, cfg.NSQChannel, dispatcher, log)
		if err != nil {
			log.Error("failed to start nsq consumers", "error", err)
			os.Exit(1)
		}
	}

	// Local inbox, optional
	if cfg.WatchDir != "" {
		events, _, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{cfg.WatchDir},
			InitialScan: true,
			Debounce:    500 * time.Millisecond,
		}, log)
		if err != nil {
			log.Error("failed to watch inbox", "dir", cfg.WatchDir, "error", err)
			os.Exit(1)
		}
		inbox := ingest.NewInbox(deps.Objects, deps.Store, dispatcher, ingest.Buckets{
			Resumes:      cfg.ResumeBucket,
			Archives:     cfg.ArchiveBucket,
			Spreadsheets: cfg.SpreadsheetBucket,
		}, log)
		go inbox.Run(ctx, events)
		log.Info("watching inbox", "dir", cfg.WatchDir)
	}

	<-ctx.Done()
	log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	health.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if consumers != nil {
		consumers.Stop()
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	dispatcher.Shutdown(shutdownCtx)
	grpcSrv.GracefulStop()
	log.Info("stopped")
}
