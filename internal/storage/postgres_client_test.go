package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
)

func TestPostgresRepo_SaveClient(t *testing.T) {
	repo, mock := newTestRepo(t)

	client := model.Client{
		ID:          "client-test-1",
		PhoneNumber: "34600111222",
		Name:        "Maria Lopez",
		ProfileType: model.CaseProfileOther,
		Status:      model.ClientStatusActive,
	}

	mock.ExpectExec(`INSERT INTO "clients"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveClient(context.Background(), client)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_UpsertClient_OnConflictPhone(t *testing.T) {
	repo, mock := newTestRepo(t)

	client := model.Client{
		ID:          "client-test-2",
		PhoneNumber: "34600333444",
		Name:        "Ahmed K",
		ProfileType: model.CaseProfileAsylum,
		Status:      model.ClientStatusActive,
	}

	mock.ExpectExec(`INSERT INTO "clients" (.+) ON CONFLICT \("phone_number"\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertClient(context.Background(), client)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_FindClientByPhone_Found(t *testing.T) {
	repo, mock := newTestRepo(t)

	rows := sqlmock.NewRows([]string{"id", "phone_number", "name", "profile_type", "status", "created_at"}).
		AddRow("client-test-1", "34600111222", "Maria Lopez", string(model.CaseProfileOther), string(model.ClientStatusActive), time.Now())

	mock.ExpectQuery(`SELECT (.+) FROM "clients" WHERE phone_number =`).
		WithArgs("34600111222", 1).
		WillReturnRows(rows)

	found, err := repo.FindClientByPhone(context.Background(), "34600111222")

	assert.NoError(t, err)
	assert.NotNil(t, found)
	assert.Equal(t, "client-test-1", found.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_FindClientByPhone_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM "clients" WHERE phone_number =`).
		WithArgs("34600999999", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	found, err := repo.FindClientByPhone(context.Background(), "34600999999")

	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}
