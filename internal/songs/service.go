package songs

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
	opCreate = "songs.create"
	opUpdate = "songs.update"
	opSearch = "songs.search"
)

var (
	errMissingReferences = errors.New("songs: reference validator is required")
	errMissingLinks      = errors.New("songs: link validator is required")
	errMissingResolver   = errors.New("songs: invitation resolver is required")
)

type ReferenceValidator interface {
	ValidateInvitationRef(ctx context.Context, invitationID string) error
}

// LinkValidator reports integrity.ErrDuplicateValue when a link is taken by a
// song other than excludeID.
type LinkValidator interface {
	ValidateUnique(ctx context.Context, link, excludeID string) error
}

type InvitationResolver interface {
	Resolve(ctx context.Context, ids []string) (map[string]invitations.Invitation, error)
}

type ServiceConfig struct {
	Database    *gorm.DB
	IDProvider  store.IDProvider
	References  ReferenceValidator
	Links       LinkValidator
	Invitations InvitationResolver
	Logger      *zap.Logger
}

type Service struct {
	records     *store.Repository[Song, *Song]
	references  ReferenceValidator
	links       LinkValidator
	invitations InvitationResolver
	logger      *zap.Logger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.References == nil {
		return nil, errMissingReferences
	}
	if cfg.Links == nil {
		return nil, errMissingLinks
	}
	if cfg.Invitations == nil {
		return nil, errMissingResolver
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	records, err := store.NewRepository[Song](store.RepositoryConfig{
		Database:   cfg.Database,
		IDProvider: cfg.IDProvider,
		Logger:     logger,
		Collection: TableName,
	})
	if err != nil {
		return nil, fmt.Errorf("songs: %w", err)
	}
	return &Service{
		records:     records,
		references:  cfg.References,
		links:       cfg.Links,
		invitations: cfg.Invitations,
		logger:      logger,
	}, nil
}

func (s *Service) Create(ctx context.Context, fields Fields) (Song, error) {
	var song Song
	fields.apply(&song)
	if err := s.checkWrite(ctx, "create", opCreate, &song); err != nil {
		return Song{}, err
	}
	if err := s.records.Create(ctx, &song); err != nil {
		return Song{}, err
	}
	return song, nil
}

func (s *Service) List(ctx context.Context, opts ListOptions) ([]Song, error) {
	songs, err := s.records.Find(ctx, store.OldestFirst)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, songs, opts)
}

func (s *Service) ListByInvitation(ctx context.Context, invitationID string, opts ListOptions) ([]Song, error) {
	songs, err := s.records.Find(ctx, store.Equal("invitation_id", strings.TrimSpace(invitationID)), store.OldestFirst)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, songs, opts)
}

// Search matches songs whose name or artist contains query, ignoring case.
func (s *Service) Search(ctx context.Context, query string, opts ListOptions) ([]Song, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Validation(opSearch, "missing_query", "query is required", nil)
	}
	songs, err := s.records.Find(ctx, store.ContainsFold(query, "name", "artist"), store.OldestFirst)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, songs, opts)
}

func (s *Service) Get(ctx context.Context, id string) (Song, error) {
	return s.records.FindByID(ctx, id)
}

// Update merges fields into the stored song. A rejected update leaves every
// column unchanged.
func (s *Service) Update(ctx context.Context, id string, fields Fields) (Song, error) {
	song, err := s.records.FindByID(ctx, id)
	if err != nil {
		return Song{}, err
	}
	fields.apply(&song)
	if err := s.checkWrite(ctx, "update", opUpdate, &song); err != nil {
		return Song{}, err
	}
	if err := s.records.Save(ctx, &song); err != nil {
		return Song{}, err
	}
	return song, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.records.DeleteByID(ctx, id)
}

func (s *Service) checkWrite(ctx context.Context, action, operation string, song *Song) error {
	if err := s.records.Validate(action, song); err != nil {
		return err
	}
	if err := integrity.CheckInvitationRef(ctx, s.references, s.logger, operation, song.InvitationID); err != nil {
		return err
	}
	if err := integrity.UniquenessError(operation, LinkColumn, s.links.ValidateUnique(ctx, song.Link, song.ID)); err != nil {
		s.logStorageFailure(operation, "uniqueness_lookup_failed", err)
		return err
	}
	return nil
}

func (s *Service) logStorageFailure(operation, reason string, err error) {
	if !errors.Is(err, apperr.StorageKind) {
		return
	}
	s.logger.Error("songs service error",
		zap.String("operation", operation),
		zap.String("reason", reason),
		zap.Error(err))
}

func (s *Service) expand(ctx context.Context, songs []Song, opts ListOptions) ([]Song, error) {
	if !opts.ExpandInvitation {
		return songs, nil
	}
	if err := invitations.Expand(ctx, s.invitations, songs); err != nil {
		return nil, err
	}
	return songs, nil
}
