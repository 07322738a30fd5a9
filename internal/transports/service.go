package transports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/apperr"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/integrity"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/invitations"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opCreate         = "transports.create"
	opUpdate         = "transports.update"
	opSearchByName   = "transports.search_by_name"
	opCapacityBySlot = "transports.capacity_by_slot"
)

var (
	errMissingReferences = errors.New("transports: reference validator is required")
	errMissingResolver   = errors.New("transports: invitation resolver is required")
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
	records     *store.Repository[Transport, *Transport]
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
	records, err := store.NewRepository[Transport](store.RepositoryConfig{
		Database:   cfg.Database,
		IDProvider: cfg.IDProvider,
		Logger:     logger,
		Collection: TableName,
	})
	if err != nil {
		return nil, fmt.Errorf("transports: %w", err)
	}
	return &Service{
		records:     records,
		references:  cfg.References,
		invitations: cfg.Invitations,
		logger:      logger,
	}, nil
}

func (s *Service) Create(ctx context.Context, fields Fields) (Transport, error) {
	var transport Transport
	fields.apply(&transport)
	if err := s.checkWrite(ctx, "create", opCreate, &transport); err != nil {
		return Transport{}, err
	}
	if err := s.records.Create(ctx, &transport); err != nil {
		return Transport{}, err
	}
	return transport, nil
}

func (s *Service) List(ctx context.Context, opts ListOptions) ([]Transport, error) {
	transports, err := s.records.Find(ctx, store.OldestFirst)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, transports, opts)
}

func (s *Service) ListByInvitation(ctx context.Context, invitationID string, opts ListOptions) ([]Transport, error) {
	transports, err := s.records.Find(ctx, store.Equal("invitation_id", strings.TrimSpace(invitationID)), store.OldestFirst)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, transports, opts)
}

// SearchByName matches transports whose full name contains name, ignoring case.
func (s *Service) SearchByName(ctx context.Context, name string, opts ListOptions) ([]Transport, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation(opSearchByName, "missing_name", "nombre is required", nil)
	}
	transports, err := s.records.Find(ctx, store.ContainsFold(name, "full_name"), store.OldestFirst)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, transports, opts)
}

// CapacityForTimeSlot sums the seats of every transport at timeSlot.
// A slot without transports yields zero totals rather than NotFound.
func (s *Service) CapacityForTimeSlot(ctx context.Context, timeSlot string) (Capacity, error) {
	trimmed := strings.TrimSpace(timeSlot)
	if trimmed == "" {
		return Capacity{}, apperr.Validation(opCapacityBySlot, "missing_time_slot", "hora is required", nil)
	}
	var totals struct {
		TotalSeats     int64
		TransportCount int64
	}
	err := s.records.Aggregate(ctx,
		"COALESCE(SUM(seats), 0) AS total_seats, COUNT(*) AS transport_count",
		&totals,
		store.Equal("time_slot", trimmed))
	if err != nil {
		return Capacity{}, err
	}
	return Capacity{
		TimeSlot:       trimmed,
		TotalSeats:     totals.TotalSeats,
		TransportCount: totals.TransportCount,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (Transport, error) {
	return s.records.FindByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, fields Fields) (Transport, error) {
	transport, err := s.records.FindByID(ctx, id)
	if err != nil {
		return Transport{}, err
	}
	fields.apply(&transport)
	if err := s.checkWrite(ctx, "update", opUpdate, &transport); err != nil {
		return Transport{}, err
	}
	if err := s.records.Save(ctx, &transport); err != nil {
		return Transport{}, err
	}
	return transport, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.records.DeleteByID(ctx, id)
}

func (s *Service) checkWrite(ctx context.Context, action, operation string, transport *Transport) error {
	if err := s.records.Validate(action, transport); err != nil {
		return err
	}
	return integrity.CheckInvitationRef(ctx, s.references, s.logger, operation, transport.InvitationID)
}

func (s *Service) expand(ctx context.Context, transports []Transport, opts ListOptions) ([]Transport, error) {
	if !opts.ExpandInvitation {
		return transports, nil
	}
	if err := invitations.Expand(ctx, s.invitations, transports); err != nil {
		return nil, err
	}
	return transports, nil
}
