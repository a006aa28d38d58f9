package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
)

func testVersionAndDocument() (model.DocumentVersion, model.Document) {
	version := model.DocumentVersion{
		ID:            "ver-test-1",
		ClientID:      "client-test-1",
		DocumentType:  model.DocumentTypePassportNIE,
		VersionNumber: 1,
		ContentDigest: "digest-abc",
		StoragePath:   "clients/other/maria_1234/uuid_passport.pdf",
	}
	document := model.Document{
		ID:           "doc-test-1",
		ClientID:     version.ClientID,
		DocumentType: version.DocumentType,
		StoragePath:  version.StoragePath,
		ReviewStatus: model.ReviewStatusPending,
	}
	return version, document
}

func TestPostgresRepo_CreateVersionAndSetCurrent_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	version, document := testVersionAndDocument()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "documents"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "documents" WHERE client_id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "document_type", "storage_path", "review_status"}).
			AddRow(document.ID, document.ClientID, string(document.DocumentType), document.StoragePath, string(document.ReviewStatus)))
	mock.ExpectExec(`UPDATE "document_versions" SET "document_id"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "document_versions"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateVersionAndSetCurrent(context.Background(), version, document)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_CreateVersionAndSetCurrent_VersionNumberTaken(t *testing.T) {
	repo, mock := newTestRepo(t)
	version, document := testVersionAndDocument()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "documents"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "documents" WHERE client_id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "document_type", "storage_path", "review_status"}).
			AddRow(document.ID, document.ClientID, string(document.DocumentType), document.StoragePath, string(document.ReviewStatus)))
	mock.ExpectExec(`UPDATE "document_versions" SET "document_id"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Concurrent writer claimed the same version number.
	mock.ExpectExec(`INSERT INTO "document_versions"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_versions_client_type_number"})
	mock.ExpectRollback()

	err := repo.CreateVersionAndSetCurrent(context.Background(), version, document)

	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_FindVersionByDigest_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM "document_versions" WHERE client_id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	found, err := repo.FindVersionByDigest(context.Background(), "client-test-1", model.DocumentTypeTasa, "digest-missing")

	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_MaxVersionNumber(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(version_number\), 0\) FROM "document_versions"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))

	maxNumber, err := repo.MaxVersionNumber(context.Background(), "client-test-1", model.DocumentTypeTasa)

	assert.NoError(t, err)
	assert.Equal(t, 3, maxNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_MaxVersionNumber_NoVersions(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(version_number\), 0\) FROM "document_versions"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	maxNumber, err := repo.MaxVersionNumber(context.Background(), "client-test-1", model.DocumentTypePassportNIE)

	assert.NoError(t, err)
	assert.Equal(t, 0, maxNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_UpdateReview_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	note := "sello ilegible"

	mock.ExpectExec(`UPDATE "documents" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateReview(context.Background(), "doc-test-1", model.ReviewStatusRejected, &note)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_UpdateReview_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`UPDATE "documents" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateReview(context.Background(), "doc-missing", model.ReviewStatusAccepted, nil)

	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_FindDocumentByClientAndType_Found(t *testing.T) {
	repo, mock := newTestRepo(t)

	rows := sqlmock.NewRows([]string{"id", "client_id", "document_type", "storage_path", "review_status", "uploaded_at"}).
		AddRow("doc-test-1", "client-test-1", string(model.DocumentTypeTasa), "clients/x/tasa.pdf", string(model.ReviewStatusPending), time.Now())

	mock.ExpectQuery(`SELECT (.+) FROM "documents" WHERE client_id =`).
		WillReturnRows(rows)

	found, err := repo.FindDocumentByClientAndType(context.Background(), "client-test-1", model.DocumentTypeTasa)

	assert.NoError(t, err)
	assert.NotNil(t, found)
	assert.Equal(t, "doc-test-1", found.ID)
	assert.Equal(t, model.DocumentTypeTasa, found.DocumentType)
	assert.NoError(t, mock.ExpectationsWereMet())
}
