package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"gitlab.com/migralia/api/expediente-docs-service/internal/blob"
	"gitlab.com/migralia/api/expediente-docs-service/internal/config"
	"gitlab.com/migralia/api/expediente-docs-service/internal/observer"
	"gitlab.com/migralia/api/expediente-docs-service/internal/storage"
	"gitlab.com/migralia/api/expediente-docs-service/internal/syncer"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
)

// Batch entrypoint: replicates clients, conversations, documents and blobs
// from the legacy deployment into the current one. Item-level failures are
// collected in the run report and do not fail the process; only
// infrastructure errors produce a nonzero exit.
func main() {
	time.Local = time.UTC

	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	observer.InitMetrics(cfg.Metrics.Enabled)

	logger.Log.Info("Starting expediente synchronizer",
		zap.String("environment", cfg.Environment),
		zap.String("source_bucket", cfg.Sync.SourceBucket),
		zap.String("target_bucket", cfg.Sync.TargetBucket),
	)

	if cfg.Sync.SourceDSN == "" || cfg.Sync.TargetDSN == "" {
		logger.Log.Fatal("Both sync.sourceDSN and sync.targetDSN are required")
	}

	ctx := context.Background()
	if cfg.Sync.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Sync.Deadline)
		defer cancel()
	}

	// The source side is read-only, never migrated.
	sourceRepo, err := storage.NewPostgresRepo(cfg.Sync.SourceDSN, false)
	if err != nil {
		logger.Log.Fatal("Failed to connect to source database", zap.Error(err))
	}
	defer closeRepo(ctx, sourceRepo, "source")

	targetRepo, err := storage.NewPostgresRepo(cfg.Sync.TargetDSN, cfg.Database.PostgresAutoMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to connect to target database", zap.Error(err))
	}
	defer closeRepo(ctx, targetRepo, "target")

	sourceBlob, err := blob.NewS3ObjectStore(ctx, blob.S3Options{
		Bucket:         cfg.Sync.SourceBucket,
		Region:         cfg.Blob.Region,
		Endpoint:       cfg.Blob.Endpoint,
		ForcePathStyle: cfg.Blob.ForcePathStyle,
	})
	if err != nil {
		logger.Log.Fatal("Failed to initialize source object store", zap.Error(err))
	}

	targetBlob, err := blob.NewS3ObjectStore(ctx, blob.S3Options{
		Bucket:         cfg.Sync.TargetBucket,
		Region:         cfg.Blob.Region,
		Endpoint:       cfg.Blob.Endpoint,
		ForcePathStyle: cfg.Blob.ForcePathStyle,
	})
	if err != nil {
		logger.Log.Fatal("Failed to initialize target object store", zap.Error(err))
	}

	s := syncer.New(
		syncer.SourceStores{
			Clients:       storage.NewClientRepoAdapter(sourceRepo),
			Conversations: storage.NewConversationRepoAdapter(sourceRepo),
			Documents:     storage.NewDocumentRepoAdapter(sourceRepo),
			Blob:          sourceBlob,
		},
		syncer.TargetStores{
			Clients:       storage.NewClientRepoAdapter(targetRepo),
			Conversations: storage.NewConversationRepoAdapter(targetRepo),
			Documents:     storage.NewDocumentRepoAdapter(targetRepo),
			Mappings:      storage.NewSyncMappingRepoAdapter(targetRepo),
			Blob:          targetBlob,
		},
		syncer.Options{
			ReportPrefix: cfg.Sync.ReportPrefix,
			FileCopy:     cfg.Sync.FileCopy,
		},
	)

	report, err := s.Run(ctx)
	if err != nil {
		logger.Log.Fatal("Synchronizer run failed", zap.Error(err))
	}

	for entity, counts := range report.Entities {
		logger.Log.Info("Sync pass complete",
			zap.String("entity", entity),
			zap.Int("inserted", counts.Inserted),
			zap.Int("updated", counts.Updated),
			zap.Int("skipped", counts.Skipped),
			zap.Int("failed", counts.Failed),
		)
	}

	if report.Failed() {
		logger.Log.Warn("Synchronizer run finished with item errors",
			zap.Int("error_count", len(report.Errors)),
			zap.Int64("duration_ms", report.DurationMS),
		)
	} else {
		logger.Log.Info("Synchronizer run finished cleanly",
			zap.Int64("duration_ms", report.DurationMS),
		)
	}
}

func closeRepo(ctx context.Context, repo *storage.PostgresRepo, side string) {
	if err := repo.Close(ctx); err != nil {
		logger.Log.Error("Failed to close database connection",
			zap.String("side", side),
			zap.Error(err),
		)
	}
}
