package confirmations

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/integrity"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/invitations"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opCreate = "confirmations.create"
	opUpdate = "confirmations.update"
)

var (
	errMissingReferences = errors.New("confirmations: reference validator is required")
	errMissingResolver   = errors.New("confirmations: invitation resolver is required")
)

type ReferenceValidator interface {
	ValidateInvitationRef(ctx context.Context, invitationID string) error
}

type InvitationResolver interface {
	Resolve(ctx context.Context, ids []string) (map[string]invitations.Invitation, error)
}

type ServiceConfig struct {
	Database    *gorm.DB
	IDProvider  store.IDProvider
	References  ReferenceValidator
	Invitations InvitationResolver
	Logger      *zap.Logger
}

type Service struct {
	records     *store.Repository[Confirmation, *Confirmation]
	references  ReferenceValidator
	invitations InvitationResolver
	logger      *zap.Logger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.References == nil {
		return nil, errMissingReferences
	}
	if cfg.Invitations == nil {
		return nil, errMissingResolver
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	records, err := store.NewRepository[Confirmation](store.RepositoryConfig{
		Database:   cfg.Database,
		IDProvider: cfg.IDProvider,
		Logger:     logger,
		Collection: TableName,
	})
	if err != nil {
		return nil, fmt.Errorf("confirmations: %w", err)
	}
	return &Service{
		records:     records,
		references:  cfg.References,
		invitations: cfg.Invitations,
		logger:      logger,
	}, nil
}

func (s *Service) Create(ctx context.Context, fields Fields) (Confirmation, error) {
	var confirmation Confirmation
	fields.apply(&confirmation)
	if err := s.checkWrite(ctx, "create", opCreate, &confirmation); err != nil {
		return Confirmation{}, err
	}
	if err := s.records.Create(ctx, &confirmation); err != nil {
		return Confirmation{}, err
	}
	return confirmation, nil
}

func (s *Service) List(ctx context.Context, opts ListOptions) ([]Confirmation, error) {
	confirmations, err := s.records.Find(ctx, store.OldestFirst)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, confirmations, opts)
}

// ListByInvitation returns the confirmations that reference invitationID.
func (s *Service) ListByInvitation(ctx context.Context, invitationID string, opts ListOptions) ([]Confirmation, error) {
	confirmations, err := s.records.Find(ctx, store.Equal("invitation_id", invitationID), store.OldestFirst)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, confirmations, opts)
}

func (s *Service) Get(ctx context.Context, id string) (Confirmation, error) {
	return s.records.FindByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, fields Fields) (Confirmation, error) {
	confirmation, err := s.records.FindByID(ctx, id)
	if err != nil {
		return Confirmation{}, err
	}
	fields.apply(&confirmation)
	if err := s.checkWrite(ctx, "update", opUpdate, &confirmation); err != nil {
		return Confirmation{}, err
	}
	if err := s.records.Save(ctx, &confirmation); err != nil {
		return Confirmation{}, err
	}
	return confirmation, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.records.DeleteByID(ctx, id)
}

func (s *Service) checkWrite(ctx context.Context, action, operation string, confirmation *Confirmation) error {
	if err := s.records.Validate(action, confirmation); err != nil {
		return err
	}
	return integrity.CheckInvitationRef(ctx, s.references, s.logger, operation, confirmation.InvitationID)
}

func (s *Service) expand(ctx context.Context, confirmations []Confirmation, opts ListOptions) ([]Confirmation, error) {
	if !opts.ExpandInvitation {
		return confirmations, nil
	}
	if err := invitations.Expand(ctx, s.invitations, confirmations); err != nil {
		return nil, err
	}
	return confirmations, nil
}
