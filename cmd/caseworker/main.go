package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	"gitlab.com/migralia/api/expediente-docs-service/internal/blob"
	"gitlab.com/migralia/api/expediente-docs-service/internal/config"
	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
	"gitlab.com/migralia/api/expediente-docs-service/internal/observer"
	"gitlab.com/migralia/api/expediente-docs-service/internal/storage"
	"gitlab.com/migralia/api/expediente-docs-service/internal/usecase"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/utils"
)

// Caseworker CLI: the operational surface for review decisions and export
// bundles. Intake is event-driven; these actions are human-driven.
func main() {
	time.Local = time.UTC

	action := flag.String("action", "", "one of: review, export, url")
	documentID := flag.String("document", "", "document id (review)")
	decision := flag.String("decision", "", "accepted or rejected (review)")
	note := flag.String("note", "", "review note, required for rejections (review)")
	clientID := flag.String("client", "", "client id (export)")
	acceptedOnly := flag.Bool("accepted-only", false, "require accepted documents (export)")
	exportID := flag.String("export", "", "export job id (url)")
	ttl := flag.Duration("ttl", 0, "signed URL lifetime, zero uses the configured default")
	actor := flag.String("actor", "caseworker", "actor recorded on the audit trail")
	flag.Parse()

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

	observer.InitMetrics(false)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	repo, err := storage.NewPostgresRepo(cfg.Database.PostgresDSN, false)
	if err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(ctx); err != nil {
			logger.Log.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	objectStore, err := blob.NewS3ObjectStore(ctx, blob.S3Options{
		Bucket:         cfg.Blob.Bucket,
		Region:         cfg.Blob.Region,
		Endpoint:       cfg.Blob.Endpoint,
		ForcePathStyle: cfg.Blob.ForcePathStyle,
	})
	if err != nil {
		logger.Log.Fatal("Failed to initialize object store", zap.Error(err))
	}

	auditRecorder := usecase.NewAuditRecorder(storage.NewAuditEventRepoAdapter(repo))
	clientService := usecase.NewClientService(storage.NewClientRepoAdapter(repo), auditRecorder)
	documentRepo := storage.NewDocumentRepoAdapter(repo)
	documentService := usecase.NewDocumentService(documentRepo, clientService, objectStore, auditRecorder)
	exportService := usecase.NewExportService(
		documentRepo,
		clientService,
		storage.NewExportJobRepoAdapter(repo),
		objectStore,
		auditRecorder,
		cfg.Export.DefaultTTL,
		cfg.Export.MaxTTL,
	)

	switch *action {
	case "review":
		runReview(ctx, documentService, *documentID, *decision, *note, *actor)
	case "export":
		runExport(ctx, exportService, *clientID, *acceptedOnly, *ttl, *actor)
	case "url":
		runSignedURL(ctx, exportService, *exportID, *ttl)
	default:
		fmt.Println("usage: caseworker -action review|export|url [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}
}

func runReview(ctx context.Context, documents *usecase.DocumentService, documentID, decision, note, actor string) {
	if documentID == "" || decision == "" {
		fmt.Println("review requires -document and -decision")
		os.Exit(2)
	}

	status, err := model.ParseReviewStatus(strings.ToLower(decision))
	if err != nil {
		fmt.Printf("invalid decision: %v\n", err)
		os.Exit(2)
	}

	document, err := documents.Review(ctx, documentID, status, note, actor)
	if err != nil {
		logger.Log.Fatal("Review failed", zap.Error(err))
	}

	fmt.Println(string(utils.MustMarshalJSON(document)))
}

func runExport(ctx context.Context, exports *usecase.ExportService, clientID string, acceptedOnly bool, ttl time.Duration, actor string) {
	if clientID == "" {
		fmt.Println("export requires -client")
		os.Exit(2)
	}

	job, err := exports.CreateExport(ctx, usecase.CreateExportInput{
		ClientID:     clientID,
		AcceptedOnly: acceptedOnly,
		TTL:          ttl,
		RequestedBy:  actor,
	})
	if err != nil {
		var missing *apperrors.MissingDocumentsError
		if errors.As(err, &missing) {
			fmt.Printf("export refused, missing documents: %s\n", strings.Join(missing.Missing, ", "))
			os.Exit(1)
		}
		logger.Log.Fatal("Export failed", zap.Error(err))
	}

	url, err := exports.SignedURL(ctx, job.ID, ttl)
	if err != nil {
		logger.Log.Fatal("Export created but signing failed", zap.String("export_id", job.ID), zap.Error(err))
	}

	fmt.Println(string(utils.MustMarshalJSON(map[string]interface{}{
		"job": job,
		"url": url,
	})))
}

func runSignedURL(ctx context.Context, exports *usecase.ExportService, exportID string, ttl time.Duration) {
	if exportID == "" {
		fmt.Println("url requires -export")
		os.Exit(2)
	}

	url, err := exports.SignedURL(ctx, exportID, ttl)
	if err != nil {
		if apperrors.IsExpiredError(err) {
			fmt.Println("export bundle has expired, create a new one")
			os.Exit(1)
		}
		logger.Log.Fatal("Signing failed", zap.Error(err))
	}

	fmt.Println(url)
}
