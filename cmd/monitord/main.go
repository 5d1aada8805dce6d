package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smolin/antiplag/internal/api"
	"github.com/smolin/antiplag/internal/config"
	"github.com/smolin/antiplag/internal/detector"
	"github.com/smolin/antiplag/internal/imagesim"
	applog "github.com/smolin/antiplag/internal/logger"
	"github.com/smolin/antiplag/internal/repository"
	"github.com/smolin/antiplag/internal/service"
	"github.com/smolin/antiplag/internal/source/vk"
	"github.com/smolin/antiplag/internal/storage"
	"github.com/smolin/antiplag/internal/textsim"
)

// candidateCacheTTL bounds how long one run reuses another source's fetched
// wall. Well under the run interval, so each run sees fresh posts.
const candidateCacheTTL = 15 * time.Minute

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	applog.SetDefaultLogger(applog.NewDefault())
	defer applog.Sync()
	ctx := context.Background()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		applog.CtxFatal(ctx, "Failed to initialize database: %v", err)
	}

	// Initialize repositories
	sourceRepo := repository.NewSourceRepository(db)
	caseRepo := repository.NewCaseRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)

	// Initialize the evidence archive when configured
	var objectStorage storage.ObjectStorage
	var archiver *service.EvidenceArchiver
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3Storage(&storage.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			applog.CtxFatal(ctx, "Failed to initialize storage: %v", err)
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			applog.CtxFatal(ctx, "Failed to ensure storage bucket: %v", err)
		}
		objectStorage = s3Storage
		archiver = service.NewEvidenceArchiver(objectStorage, cfg.Detector.ImageFetchTimeout)
	}

	// Initialize the external data source
	vkClient := vk.NewClient(&cfg.VK)

	// Initialize the detection pipeline
	guard := detector.NewGuard(cfg.Detector.MinTextLength)
	engine := detector.NewEngine(
		guard,
		textsim.NewComparator(cfg.Detector.TextSimilarityThreshold, cfg.Detector.MinTextLength),
		imagesim.NewComparator(&imagesim.Config{
			HammingThreshold: cfg.Detector.ImageHammingThreshold,
			FetchTimeout:     cfg.Detector.ImageFetchTimeout,
		}),
	)
	feed := service.NewCandidateFeed(
		sourceRepo,
		vkClient,
		cfg.Monitoring.MaxCandidateSources,
		cfg.Monitoring.MaxPostsPerSource,
		candidateCacheTTL,
	)
	gate := service.NewNotificationGate(
		quotaRepo,
		caseRepo,
		vkClient,
		cfg.Notifications.MaxPerRecipientPerDay,
	)
	orchestrator := service.NewOrchestrator(
		cfg.Monitoring,
		sourceRepo,
		caseRepo,
		vkClient,
		feed,
		guard,
		engine,
		gate,
		archiver,
	)

	// Start monitoring
	orchestrator.Start(ctx)
	defer orchestrator.Stop()

	// Setup router
	router := api.SetupRouter(&cfg.Server, sourceRepo, caseRepo, orchestrator, objectStorage)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		applog.CtxInfo(ctx, "Starting API server: port=%d, mode=%s", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			applog.CtxFatal(ctx, "Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	applog.CtxInfo(ctx, "Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		applog.CtxFatal(ctx, "Server forced to shutdown: %v", err)
	}

	applog.CtxInfo(ctx, "Server exited")
}
