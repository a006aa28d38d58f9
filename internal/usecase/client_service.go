package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/migralia/api/expediente-docs-service/internal/apperrors"
	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
	"gitlab.com/migralia/api/expediente-docs-service/internal/storage"
	"gitlab.com/migralia/api/expediente-docs-service/pkg/logger"
)

// ClientService manages client records keyed by phone number.
type ClientService struct {
	clients storage.ClientRepo
	audit   *AuditRecorder
}

// NewClientService creates a new client service.
func NewClientService(clients storage.ClientRepo, audit *AuditRecorder) *ClientService {
	return &ClientService{clients: clients, audit: audit}
}

// GetOrCreateByPhone returns the client registered under the phone number,
// creating it on first contact. A concurrent creation race resolves by
// re-reading the winner's row.
func (s *ClientService) GetOrCreateByPhone(ctx context.Context, phoneNumber, name string) (*model.Client, error) {
	if phoneNumber == "" {
		return nil, fmt.Errorf("%w: phone number is required", apperrors.ErrValidation)
	}

	client, err := s.clients.FindByPhone(ctx, phoneNumber)
	if err == nil {
		// Backfill the name if the record was created before we knew it.
		if name != "" && client.Name == "" {
			client.Name = name
			if updateErr := s.clients.Update(ctx, *client); updateErr != nil {
				logger.FromContext(ctx).Warn("Failed to backfill client name",
					zap.String("client_id", client.ID), zap.Error(updateErr))
			}
		}
		return client, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	created := model.Client{
		ID:          uuid.NewString(),
		PhoneNumber: phoneNumber,
		Name:        name,
		ProfileType: model.CaseProfileOther,
		Status:      model.ClientStatusActive,
	}
	if saveErr := s.clients.Save(ctx, created); saveErr != nil {
		if errors.Is(saveErr, apperrors.ErrDuplicate) {
			// Lost the race: another writer registered the phone first.
			return s.clients.FindByPhone(ctx, phoneNumber)
		}
		return nil, saveErr
	}

	s.audit.Record(ctx, created.ID, model.AuditClientCreated, "system", map[string]interface{}{
		"phone_number": phoneNumber,
	})
	logger.FromContext(ctx).Info("Created new client",
		zap.String("client_id", created.ID),
		zap.String("phone_number", phoneNumber))

	return &created, nil
}

// UpgradeProfile moves an unclassified client onto a concrete case profile.
// Already-classified clients are never reclassified automatically.
func (s *ClientService) UpgradeProfile(ctx context.Context, client *model.Client, profile model.CaseProfile) error {
	if client.ProfileType != model.CaseProfileOther || profile == model.CaseProfileOther {
		return nil
	}

	client.ProfileType = profile
	if err := s.clients.Update(ctx, *client); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("Upgraded client case profile",
		zap.String("client_id", client.ID),
		zap.String("profile", string(profile)))
	return nil
}

// UpdateIdentity records the client's legal name and passport or NIE number.
func (s *ClientService) UpdateIdentity(ctx context.Context, clientID, name, passportOrNIE string) (*model.Client, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if name != "" {
		client.Name = name
	}
	if passportOrNIE != "" {
		client.PassportOrNIE = passportOrNIE
	}
	if err := s.clients.Update(ctx, *client); err != nil {
		return nil, err
	}
	return client, nil
}

// GetByID returns a client by primary key.
func (s *ClientService) GetByID(ctx context.Context, clientID string) (*model.Client, error) {
	return s.clients.FindByID(ctx, clientID)
}
