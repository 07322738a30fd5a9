package invitations

import (
	"context"
	"fmt"
	"strings"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/apperr"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opUpdateByTitle = "invitations.update_by_title"
	opDeleteByTitle = "invitations.delete_by_title"
)

type ServiceConfig struct {
	Database   *gorm.DB
	IDProvider store.IDProvider
	Logger     *zap.Logger
}

// Service manages invitations. Deleting an invitation never touches the
// confirmations, transports or songs that reference it.
type Service struct {
	records *store.Repository[Invitation, *Invitation]
}

func NewService(cfg ServiceConfig) (*Service, error) {
	records, err := store.NewRepository[Invitation](store.RepositoryConfig{
		Database:   cfg.Database,
		IDProvider: cfg.IDProvider,
		Logger:     cfg.Logger,
		Collection: TableName,
	})
	if err != nil {
		return nil, fmt.Errorf("invitations: %w", err)
	}
	return &Service{records: records}, nil
}

func (s *Service) Create(ctx context.Context, fields Fields) (Invitation, error) {
	invitation := fields.newInvitation()
	if err := s.records.Create(ctx, &invitation); err != nil {
		return Invitation{}, err
	}
	return invitation, nil
}

func (s *Service) List(ctx context.Context) ([]Invitation, error) {
	return s.records.Find(ctx, store.OldestFirst)
}

func (s *Service) Get(ctx context.Context, id string) (Invitation, error) {
	return s.records.FindByID(ctx, id)
}

// Resolve loads the invitations for the given identifiers, keyed by id.
// Unknown or malformed identifiers are simply absent from the result.
func (s *Service) Resolve(ctx context.Context, ids []string) (map[string]Invitation, error) {
	wanted := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || !store.ValidID(id) {
			continue
		}
		seen[id] = struct{}{}
		wanted = append(wanted, id)
	}
	resolved := make(map[string]Invitation, len(wanted))
	if len(wanted) == 0 {
		return resolved, nil
	}
	found, err := s.records.Find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN ?", wanted)
	})
	if err != nil {
		return nil, err
	}
	for _, invitation := range found {
		resolved[invitation.ID] = invitation
	}
	return resolved, nil
}

func (s *Service) UpdateByID(ctx context.Context, id string, fields Fields) (Invitation, error) {
	invitation, err := s.records.FindByID(ctx, id)
	if err != nil {
		return Invitation{}, err
	}
	return s.applyUpdate(ctx, invitation, fields)
}

// UpdateByTitle updates the oldest invitation carrying title. Titles are not
// unique, so later duplicates are left untouched.
func (s *Service) UpdateByTitle(ctx context.Context, title string, fields Fields) (Invitation, error) {
	invitation, err := s.findByTitle(ctx, opUpdateByTitle, title)
	if err != nil {
		return Invitation{}, err
	}
	return s.applyUpdate(ctx, invitation, fields)
}

func (s *Service) DeleteByID(ctx context.Context, id string) error {
	return s.records.DeleteByID(ctx, id)
}

// DeleteByTitle removes the oldest invitation carrying title and returns it.
func (s *Service) DeleteByTitle(ctx context.Context, title string) (Invitation, error) {
	invitation, err := s.findByTitle(ctx, opDeleteByTitle, title)
	if err != nil {
		return Invitation{}, err
	}
	if err := s.records.DeleteByID(ctx, invitation.ID); err != nil {
		return Invitation{}, err
	}
	return invitation, nil
}

func (s *Service) applyUpdate(ctx context.Context, invitation Invitation, fields Fields) (Invitation, error) {
	fields.apply(&invitation)
	if err := s.records.Save(ctx, &invitation); err != nil {
		return Invitation{}, err
	}
	return invitation, nil
}

func (s *Service) findByTitle(ctx context.Context, operation, title string) (Invitation, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return Invitation{}, apperr.NotFound(operation, "not_found", "invitation record not found")
	}
	return s.records.FindFirst(ctx, store.Equal("title", trimmed))
}
