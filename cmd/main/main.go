package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.com/migralia/api/expediente-docs-service/internal/blob"
	"gitlab.com/migralia/api/expediente-docs-service/internal/config"
	"gitlab.com/migralia/api/expediente-docs-service/internal/healthcheck"
	"gitlab.com/migralia/api/expediente-docs-service/internal/ingestion"
	"gitlab.com/migralia/api/expediente-docs-service/internal/jetstream"
	"gitlab.com/migralia/api/expediente-docs-service/internal/observer"
	"gitlab.com/migralia/api/expediente-docs-service/internal/storage"
	"gitlab.com/migralia/api/expediente-docs-service/internal/usecase"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/utils"
)

func main() {
	// Set timezone to UTC
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

	metricsEnabled := cfg.Metrics.Enabled
	observer.InitMetrics(metricsEnabled)

	logger.Log.Info("Starting Expediente Docs Service",
		zap.String("environment", cfg.Environment),
		zap.String("nats_url", cfg.NATS.URL),
	)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), time.Minute)
	defer bootCancel()

	postgresRepo, err := initPostgresRepo(cfg.Database.PostgresDSN, cfg.Database.PostgresAutoMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize Postgres repository", zap.Error(err))
	}

	objectStore, err := blob.NewS3ObjectStore(bootCtx, blob.S3Options{
		Bucket:         cfg.Blob.Bucket,
		Region:         cfg.Blob.Region,
		Endpoint:       cfg.Blob.Endpoint,
		ForcePathStyle: cfg.Blob.ForcePathStyle,
	})
	if err != nil {
		logger.Log.Fatal("Failed to initialize object store", zap.Error(err))
	}

	jsClient, err := initJetStreamClient(cfg.NATS.URL)
	if err != nil {
		logger.Log.Fatal("Failed to initialize JetStream client", zap.Error(err))
	}

	// Repository adapters
	clientRepo := storage.NewClientRepoAdapter(postgresRepo)
	conversationRepo := storage.NewConversationRepoAdapter(postgresRepo)
	documentRepo := storage.NewDocumentRepoAdapter(postgresRepo)
	auditRepo := storage.NewAuditEventRepoAdapter(postgresRepo)

	// Services. Export assembly is driven by the caseworker CLI, not the
	// event stream, so no ExportService lives in this binary.
	auditRecorder := usecase.NewAuditRecorder(auditRepo)
	clientService := usecase.NewClientService(clientRepo, auditRecorder)
	conversationService := usecase.NewConversationService(conversationRepo, clientService, nil)
	documentService := usecase.NewDocumentService(documentRepo, clientService, objectStore, auditRecorder)

	// Intake consumer
	router := ingestion.NewRouter()
	handlers := ingestion.NewHandlers(conversationService, clientService, documentService)
	handlers.RegisterAll(router)

	consumer := ingestion.NewIntakeConsumer(jsClient, router, cfg.NATS.Intake)
	if err := consumer.Setup(); err != nil {
		logger.Log.Fatal("Failed to set up intake consumer", zap.Error(err))
	}

	// Health check server
	healthServer := healthcheck.NewServer(strconv.Itoa(cfg.Server.Port), logger.Log)
	healthServer.RegisterReadinessCheck("database", func(ctx context.Context) error {
		sqlDB, err := postgresRepo.DB().DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	healthServer.RegisterReadinessCheck("nats", func(ctx context.Context) error {
		if !jsClient.NatsConn().IsConnected() {
			return fmt.Errorf("nats connection is not established")
		}
		return nil
	})

	if metricsEnabled {
		healthServer.RegisterMetricsHandler(promhttp.Handler())
		logger.Log.Info("Metrics endpoint enabled", zap.String("path", "/metrics"), zap.Int("port", cfg.Server.Port))
	} else {
		logger.Log.Info("Metrics endpoint disabled for environment", zap.String("environment", cfg.Environment))
	}

	healthServer.Start()

	logger.Log.Info("Health check endpoints available",
		zap.String("health", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)),
		zap.String("readiness", fmt.Sprintf("http://localhost:%d/ready", cfg.Server.Port)),
	)

	if err := consumer.Start(); err != nil {
		logger.Log.Fatal("Failed to start intake consumer", zap.Error(err))
	}

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Log.Info("Received termination signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Log.Info("Starting graceful shutdown", zap.Duration("timeout", 30*time.Second))

	var wg sync.WaitGroup
	wg.Add(3)

	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping intake consumer")
		start := time.Now()
		consumer.Stop()
		logger.Log.Info("[shutdown] Intake consumer stopped",
			zap.Duration("duration", time.Since(start)))
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping intake consumer",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping health check server")
		start := time.Now()
		if err := healthServer.Stop(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Error stopping health check server", zap.Error(err))
		} else {
			logger.Log.Info("[shutdown] Health check server stopped",
				zap.Duration("duration", time.Since(start)))
		}
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping health check server",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	utils.SafeGo(func() {
		defer wg.Done()

		logger.Log.Info("[shutdown] Closing PostgreSQL connection")
		pgStart := time.Now()
		if err := postgresRepo.Close(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Failed to close PostgreSQL connection", zap.Error(err))
		} else {
			logger.Log.Info("[shutdown] PostgreSQL connection closed",
				zap.Duration("duration", time.Since(pgStart)))
		}

		logger.Log.Info("[shutdown] Closing JetStream connection")
		jsStart := time.Now()
		jsClient.Close()
		logger.Log.Info("[shutdown] JetStream connection closed",
			zap.Duration("duration", time.Since(jsStart)))
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while closing connections",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Log.Info("[shutdown] All components stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Log.Warn("[shutdown] Graceful shutdown timed out, forcing exit")
	}

	logger.Log.Info("Expediente Docs Service shutdown complete")
}

// Initialize PostgreSQL repository
func initPostgresRepo(dsn string, autoMigrate bool) (*storage.PostgresRepo, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	repo, err := storage.NewPostgresRepo(dsn, autoMigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres repository: %w", err)
	}

	logger.Log.Info("Initialized PostgreSQL repository")
	return repo, nil
}

func initJetStreamClient(url string) (*jetstream.Client, error) {
	client, err := jetstream.NewClient(url)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream client: %w", err)
	}
	return client, nil
}
