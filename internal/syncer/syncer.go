// Package syncer replicates expediente state from a source store pair
// (Postgres + bucket) into a target pair. Runs are idempotent: every pass
// matches on natural keys (phone number, dedupe fingerprint, storage path)
// and records source-to-target identifier mappings, so a rerun converges
// instead of duplicating. Item-level failures are collected into the run
// report and never abort the run.
package syncer

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	"gitlab.com/migralia/api/expediente-docs-service/internal/blob"
	"gitlab.com/migralia/api/expediente-docs-service/internal/config"
	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
	"gitlab.com/migralia/api/expediente-docs-service/internal/observer"
	"gitlab.com/migralia/api/expediente-docs-service/internal/storage"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/utils"
)

const defaultPageSize = 500

// SourceStores groups the read side of a run.
type SourceStores struct {
	Clients       storage.ClientRepo
	Conversations storage.ConversationRepo
	Documents     storage.DocumentRepo
	Blob          blob.ObjectStore
}

// TargetStores groups the write side of a run.
type TargetStores struct {
	Clients       storage.ClientRepo
	Conversations storage.ConversationRepo
	Documents     storage.DocumentRepo
	Mappings      storage.SyncMappingRepo
	Blob          blob.ObjectStore
}

// Options tunes a synchronizer run.
type Options struct {
	PageSize     int
	ReportPrefix string
	FileCopy     config.WorkerPoolConfig
}

// Syncer replicates clients, conversations, documents and file objects, in
// that order, so each pass can translate references established by the one
// before it.
type Syncer struct {
	source SourceStores
	target TargetStores
	opts   Options

	// sourceID -> targetID per entity type, preloaded from the target's
	// mapping table and extended as the run progresses.
	mappings map[string]map[string]string
}

// New creates a synchronizer.
func New(source SourceStores, target TargetStores, opts Options) *Syncer {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	return &Syncer{source: source, target: target, opts: opts}
}

// Run executes one full synchronization and uploads the run report to the
// target bucket. The returned report is non-nil whenever the run got far
// enough to count anything; the error covers infrastructure failures only,
// never per-item ones.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	startTime := utils.Now()
	report := newReport(startTime)
	log := logger.FromContext(ctx)

	if err := s.loadMappings(ctx); err != nil {
		return nil, fmt.Errorf("failed to preload sync mappings: %w", err)
	}

	passes := []struct {
		entity string
		run    func(context.Context, *Report) error
	}{
		{model.SyncEntityClient, s.syncClients},
		{model.SyncEntityConversation, s.syncConversations},
		{model.SyncEntityDocument, s.syncDocuments},
		{model.SyncEntityFile, s.syncFiles},
	}
	for _, pass := range passes {
		log.Info("Starting sync pass", zap.String("entity", pass.entity))
		if err := pass.run(ctx, report); err != nil {
			return report, fmt.Errorf("sync pass %s failed: %w", pass.entity, err)
		}
	}

	report.DurationMS = utils.Now().Sub(startTime).Milliseconds()
	observer.ObserveSyncRunDuration(utils.Now().Sub(startTime))

	if err := s.uploadReport(ctx, report); err != nil {
		log.Error("Failed to upload sync report", zap.Error(err))
		return report, err
	}

	log.Info("Sync run finished",
		zap.Int64("duration_ms", report.DurationMS),
		zap.Int("errors", len(report.Errors)))
	return report, nil
}

func (s *Syncer) loadMappings(ctx context.Context) error {
	s.mappings = map[string]map[string]string{}
	for _, entity := range []string{
		model.SyncEntityClient,
		model.SyncEntityConversation,
		model.SyncEntityDocument,
		model.SyncEntityFile,
	} {
		s.mappings[entity] = map[string]string{}
		existing, err := s.target.Mappings.FindByEntityType(ctx, entity)
		if err != nil {
			return err
		}
		for _, m := range existing {
			s.mappings[entity][m.SourceID] = m.TargetID
		}
	}
	return nil
}

func (s *Syncer) saveMapping(ctx context.Context, entity, sourceID, targetID string) error {
	s.mappings[entity][sourceID] = targetID
	return s.target.Mappings.Save(ctx, model.SyncMapping{
		SourceID:   sourceID,
		TargetID:   targetID,
		EntityType: entity,
	})
}

// syncClients replicates client rows, matching by phone number. Rows whose
// mutable fields already match the target are skipped, so a rerun with no
// source changes writes nothing.
func (s *Syncer) syncClients(ctx context.Context, report *Report) error {
	entity := model.SyncEntityClient

	for offset := 0; ; offset += s.opts.PageSize {
		page, err := s.source.Clients.List(ctx, s.opts.PageSize, offset)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		for _, client := range page {
			targetID, known := s.mappings[entity][client.ID]
			var existing *model.Client

			if known {
				found, findErr := s.target.Clients.FindByID(ctx, targetID)
				switch {
				case findErr == nil:
					existing = found
				case apperrors.IsNotFoundError(findErr):
					// Mapped row vanished from the target; re-insert it.
				default:
					report.recordFailure(entity, client.ID, findErr)
					observer.IncSyncItem(entity, actionFailed)
					continue
				}
			} else {
				found, findErr := s.target.Clients.FindByPhone(ctx, client.PhoneNumber)
				switch {
				case findErr == nil:
					existing = found
					targetID = found.ID
				case apperrors.IsNotFoundError(findErr):
					targetID = uuid.NewString()
				default:
					report.recordFailure(entity, client.ID, findErr)
					observer.IncSyncItem(entity, actionFailed)
					continue
				}
			}

			if existing != nil && !clientDiffers(client, *existing) {
				if !known {
					if err := s.saveMapping(ctx, entity, client.ID, targetID); err != nil {
						report.recordFailure(entity, client.ID, err)
						observer.IncSyncItem(entity, actionFailed)
						continue
					}
				}
				report.recordSkipped(entity)
				observer.IncSyncItem(entity, actionSkipped)
				continue
			}

			row := client
			row.ID = targetID
			if err := s.target.Clients.Upsert(ctx, row); err != nil {
				report.recordFailure(entity, client.ID, err)
				observer.IncSyncItem(entity, actionFailed)
				continue
			}
			if err := s.saveMapping(ctx, entity, client.ID, targetID); err != nil {
				report.recordFailure(entity, client.ID, err)
				observer.IncSyncItem(entity, actionFailed)
				continue
			}

			if existing != nil {
				report.recordUpdated(entity)
				observer.IncSyncItem(entity, actionUpdated)
			} else {
				report.recordInserted(entity)
				observer.IncSyncItem(entity, actionInserted)
			}
		}
	}
}

// clientDiffers reports whether the mutable client columns diverge between
// the source row and the target row.
func clientDiffers(source, target model.Client) bool {
	return source.Name != target.Name ||
		source.PassportOrNIE != target.PassportOrNIE ||
		source.ProfileType != target.ProfileType ||
		source.Status != target.Status ||
		!bytes.Equal(source.Metadata, target.Metadata)
}

// syncConversations replicates the conversation log, matching by dedupe
// fingerprint. Conversations are immutable, so an existing row is a skip.
func (s *Syncer) syncConversations(ctx context.Context, report *Report) error {
	entity := model.SyncEntityConversation

	for offset := 0; ; offset += s.opts.PageSize {
		page, err := s.source.Conversations.List(ctx, s.opts.PageSize, offset)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		for _, conversation := range page {
			if _, done := s.mappings[entity][conversation.ID]; done {
				report.recordSkipped(entity)
				observer.IncSyncItem(entity, actionSkipped)
				continue
			}

			targetClientID, ok := s.mappings[model.SyncEntityClient][conversation.ClientID]
			if !ok {
				report.recordFailure(entity, conversation.ID,
					fmt.Errorf("%w: no client mapping for %s", apperrors.ErrMissingMapping, conversation.ClientID))
				observer.IncSyncItem(entity, actionFailed)
				continue
			}

			row := conversation
			row.ID = uuid.NewString()
			row.ClientID = targetClientID

			inserted, err := s.target.Conversations.InsertIfAbsent(ctx, row)
			if err != nil {
				report.recordFailure(entity, conversation.ID, err)
				observer.IncSyncItem(entity, actionFailed)
				continue
			}

			targetID := row.ID
			if !inserted {
				existing, findErr := s.target.Conversations.FindByFingerprint(ctx, conversation.DedupeFingerprint)
				if findErr != nil {
					report.recordFailure(entity, conversation.ID, findErr)
					observer.IncSyncItem(entity, actionFailed)
					continue
				}
				targetID = existing.ID
			}
			if err := s.saveMapping(ctx, entity, conversation.ID, targetID); err != nil {
				report.recordFailure(entity, conversation.ID, err)
				observer.IncSyncItem(entity, actionFailed)
				continue
			}

			if inserted {
				report.recordInserted(entity)
				observer.IncSyncItem(entity, actionInserted)
			} else {
				report.recordSkipped(entity)
				observer.IncSyncItem(entity, actionSkipped)
			}
		}
	}
}

// syncDocuments replicates current-document rows, matching by storage path.
// Review state is mutable, so diverging rows are rewritten; rows already
// equal on the target are skipped and a rerun converges to zero writes.
func (s *Syncer) syncDocuments(ctx context.Context, report *Report) error {
	entity := model.SyncEntityDocument

	for offset := 0; ; offset += s.opts.PageSize {
		page, err := s.source.Documents.ListDocuments(ctx, s.opts.PageSize, offset)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		for _, document := range page {
			targetClientID, ok := s.mappings[model.SyncEntityClient][document.ClientID]
			if !ok {
				report.recordFailure(entity, document.ID,
					fmt.Errorf("%w: no client mapping for %s", apperrors.ErrMissingMapping, document.ClientID))
				observer.IncSyncItem(entity, actionFailed)
				continue
			}

			row := document
			row.ClientID = targetClientID
			row.ConversationID = s.translateConversation(document.ConversationID)

			targetID, known := s.mappings[entity][document.ID]
			var existing *model.Document

			if known {
				found, findErr := s.target.Documents.FindDocumentByID(ctx, targetID)
				switch {
				case findErr == nil:
					existing = found
				case apperrors.IsNotFoundError(findErr):
					// Mapped row vanished from the target; re-insert it.
				default:
					report.recordFailure(entity, document.ID, findErr)
					observer.IncSyncItem(entity, actionFailed)
					continue
				}
			} else {
				found, findErr := s.target.Documents.FindDocumentByStoragePath(ctx, document.StoragePath)
				switch {
				case findErr == nil:
					existing = found
					targetID = found.ID
				case apperrors.IsNotFoundError(findErr):
					targetID = uuid.NewString()
				default:
					report.recordFailure(entity, document.ID, findErr)
					observer.IncSyncItem(entity, actionFailed)
					continue
				}
			}
			row.ID = targetID

			if existing != nil && !documentDiffers(row, *existing) {
				if !known {
					if err := s.saveMapping(ctx, entity, document.ID, targetID); err != nil {
						report.recordFailure(entity, document.ID, err)
						observer.IncSyncItem(entity, actionFailed)
						continue
					}
				}
				report.recordSkipped(entity)
				observer.IncSyncItem(entity, actionSkipped)
				continue
			}

			var writeErr error
			if existing != nil {
				writeErr = s.target.Documents.UpdateDocument(ctx, row)
			} else {
				writeErr = s.target.Documents.CreateDocument(ctx, row)
			}
			if writeErr != nil {
				report.recordFailure(entity, document.ID, writeErr)
				observer.IncSyncItem(entity, actionFailed)
				continue
			}
			if err := s.saveMapping(ctx, entity, document.ID, targetID); err != nil {
				report.recordFailure(entity, document.ID, err)
				observer.IncSyncItem(entity, actionFailed)
				continue
			}

			if existing != nil {
				report.recordUpdated(entity)
				observer.IncSyncItem(entity, actionUpdated)
			} else {
				report.recordInserted(entity)
				observer.IncSyncItem(entity, actionInserted)
			}
		}
	}
}

// documentDiffers reports whether the translated source row and the target
// row diverge on any replicated column.
func documentDiffers(source, target model.Document) bool {
	return source.ClientID != target.ClientID ||
		!strPtrEqual(source.ConversationID, target.ConversationID) ||
		source.DocumentType != target.DocumentType ||
		source.StoragePath != target.StoragePath ||
		source.OriginalFilename != target.OriginalFilename ||
		source.MimeType != target.MimeType ||
		source.FileSize != target.FileSize ||
		source.ProfileType != target.ProfileType ||
		source.ReviewStatus != target.ReviewStatus ||
		!strPtrEqual(source.ReviewNote, target.ReviewNote) ||
		!bytes.Equal(source.Metadata, target.Metadata)
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *Syncer) translateConversation(sourceID *string) *string {
	if sourceID == nil {
		return nil
	}
	if targetID, ok := s.mappings[model.SyncEntityConversation][*sourceID]; ok {
		return &targetID
	}
	return nil
}

type fileCopyTask struct {
	ctx        context.Context
	report     *Report
	wg         *sync.WaitGroup
	storageKey string
}

// syncFiles copies document objects missing from the target bucket, fanned
// out over a bounded worker pool.
func (s *Syncer) syncFiles(ctx context.Context, report *Report) error {
	entity := model.SyncEntityFile

	// Snapshot the completed set before fanning out: pool workers extend the
	// live mapping table concurrently, so the producer loop must not read it.
	done := make(map[string]struct{}, len(s.mappings[entity]))
	for storageKey := range s.mappings[entity] {
		done[storageKey] = struct{}{}
	}

	var wg sync.WaitGroup
	var mappingMu sync.Mutex

	pool, err := ants.NewPoolWithFunc(s.opts.FileCopy.PoolSize, func(i interface{}) {
		task, ok := i.(fileCopyTask)
		if !ok {
			logger.Log.Error("Invalid file copy task type", zap.Any("data", i))
			return
		}
		defer task.wg.Done()
		s.copyFile(task, &mappingMu)
	},
		ants.WithExpiryDuration(s.opts.FileCopy.ExpiryTime),
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(s.opts.FileCopy.QueueSize),
		ants.WithPanicHandler(func(p interface{}) {
			logger.Log.Error("Panic recovered in file copy worker", zap.Any("panic_error", p), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create file copy pool: %w", err)
	}
	defer pool.Release()

	for offset := 0; ; offset += s.opts.PageSize {
		page, listErr := s.source.Documents.ListDocuments(ctx, s.opts.PageSize, offset)
		if listErr != nil {
			wg.Wait()
			return listErr
		}
		if len(page) == 0 {
			break
		}

		for _, document := range page {
			if _, copied := done[document.StoragePath]; copied {
				report.recordSkipped(entity)
				observer.IncSyncItem(entity, actionSkipped)
				continue
			}

			wg.Add(1)
			task := fileCopyTask{ctx: ctx, report: report, wg: &wg, storageKey: document.StoragePath}
			if invokeErr := pool.Invoke(task); invokeErr != nil {
				wg.Done()
				report.recordFailure(entity, document.StoragePath, invokeErr)
				observer.IncSyncItem(entity, actionFailed)
			}
		}
	}

	wg.Wait()
	return nil
}

func (s *Syncer) copyFile(task fileCopyTask, mappingMu *sync.Mutex) {
	entity := model.SyncEntityFile

	exists, err := s.target.Blob.Exists(task.ctx, task.storageKey)
	if err != nil {
		task.report.recordFailure(entity, task.storageKey, err)
		observer.IncSyncItem(entity, actionFailed)
		return
	}

	if !exists {
		if copyErr := s.target.Blob.CopyFrom(task.ctx, s.source.Blob.Bucket(), task.storageKey, task.storageKey); copyErr != nil {
			task.report.recordFailure(entity, task.storageKey, copyErr)
			observer.IncSyncItem(entity, actionFailed)
			return
		}
	}

	mappingMu.Lock()
	mappingErr := s.saveMapping(task.ctx, entity, task.storageKey, task.storageKey)
	mappingMu.Unlock()
	if mappingErr != nil {
		task.report.recordFailure(entity, task.storageKey, mappingErr)
		observer.IncSyncItem(entity, actionFailed)
		return
	}

	if exists {
		task.report.recordSkipped(entity)
		observer.IncSyncItem(entity, actionSkipped)
	} else {
		task.report.recordInserted(entity)
		observer.IncSyncItem(entity, actionInserted)
	}
}

func (s *Syncer) uploadReport(ctx context.Context, report *Report) error {
	key := blob.ReportKey(s.opts.ReportPrefix, report.RanAt)
	payload := utils.MustMarshalJSON(report)
	return s.target.Blob.Upload(ctx, key, payload, blob.ContentTypeJSON)
}
