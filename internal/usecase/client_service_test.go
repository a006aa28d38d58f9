package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
	storagemock "gitlab.com/migralia/api/expediente-docs-service/internal/storage/mock"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
)

func newClientServiceFixture(t *testing.T) (*storagemock.ClientRepoMock, *storagemock.AuditEventRepoMock, *ClientService) {
	t.Helper()
	logger.Log = zaptest.NewLogger(t).Named("test")

	clients := new(storagemock.ClientRepoMock)
	audits := new(storagemock.AuditEventRepoMock)
	service := NewClientService(clients, NewAuditRecorder(audits))
	return clients, audits, service
}

func TestClientService_GetOrCreateByPhone_Existing(t *testing.T) {
	clients, _, service := newClientServiceFixture(t)
	ctx := context.Background()

	existing := fixtureClient()
	clients.On("FindByPhone", ctx, existing.PhoneNumber).Return(existing, nil)

	client, err := service.GetOrCreateByPhone(ctx, existing.PhoneNumber, existing.Name)

	assert.NoError(t, err)
	assert.Equal(t, existing.ID, client.ID)
	clients.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestClientService_GetOrCreateByPhone_CreationRaceResolvesToWinner(t *testing.T) {
	clients, _, service := newClientServiceFixture(t)
	ctx := context.Background()

	winner := fixtureClient()
	clients.On("FindByPhone", ctx, winner.PhoneNumber).Return(nil, apperrors.ErrNotFound).Once()
	clients.On("Save", ctx, mock.AnythingOfType("model.Client")).Return(apperrors.ErrDuplicate)
	clients.On("FindByPhone", ctx, winner.PhoneNumber).Return(winner, nil).Once()

	client, err := service.GetOrCreateByPhone(ctx, winner.PhoneNumber, "")

	assert.NoError(t, err)
	assert.Equal(t, winner.ID, client.ID)
	clients.AssertExpectations(t)
}

func TestClientService_GetOrCreateByPhone_BackfillsName(t *testing.T) {
	clients, _, service := newClientServiceFixture(t)
	ctx := context.Background()

	nameless := fixtureClient()
	nameless.Name = ""
	clients.On("FindByPhone", ctx, nameless.PhoneNumber).Return(nameless, nil)
	clients.On("Update", ctx, mock.MatchedBy(func(c model.Client) bool {
		return c.Name == "Maria Lopez"
	})).Return(nil)

	client, err := service.GetOrCreateByPhone(ctx, nameless.PhoneNumber, "Maria Lopez")

	assert.NoError(t, err)
	assert.Equal(t, "Maria Lopez", client.Name)
	clients.AssertExpectations(t)
}

func TestClientService_GetOrCreateByPhone_RequiresPhone(t *testing.T) {
	_, _, service := newClientServiceFixture(t)

	client, err := service.GetOrCreateByPhone(context.Background(), "", "name")

	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Nil(t, client)
}

func TestClientService_UpdateIdentity(t *testing.T) {
	clients, _, service := newClientServiceFixture(t)
	ctx := context.Background()

	existing := fixtureClient()
	clients.On("FindByID", ctx, existing.ID).Return(existing, nil)
	clients.On("Update", ctx, mock.MatchedBy(func(c model.Client) bool {
		return c.PassportOrNIE == "Y9988776F"
	})).Return(nil)

	client, err := service.UpdateIdentity(ctx, existing.ID, "", "Y9988776F")

	assert.NoError(t, err)
	assert.Equal(t, "Y9988776F", client.PassportOrNIE)
	clients.AssertExpectations(t)
}
