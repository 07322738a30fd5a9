package songs

import (
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/invitations"
)

const (
	TableName  = "songs"
	LinkColumn = "link"
)

// Song is a playlist suggestion. Links are unique across the whole playlist,
// which is checked before each write rather than enforced by an index.
type Song struct {
	ID           string    `gorm:"column:id;primaryKey;size:36" json:"_id"`
	Name         string    `gorm:"column:name;not null" json:"nombre" validate:"required"`
	Artist       string    `gorm:"column:artist;not null" json:"artista" validate:"required"`
	Link         string    `gorm:"column:link;not null;index" json:"link" validate:"required"`
	InvitationID string    `gorm:"column:invitation_id;size:36;not null;index" json:"invitacion" validate:"required"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`

	Invitation *invitations.Invitation `gorm:"-" json:"-" validate:"-"`
}

func (Song) TableName() string {
	return TableName
}

func (s *Song) RecordID() string {
	return s.ID
}

func (s *Song) AssignID(id string) {
	s.ID = id
}

func (s *Song) ReferencedInvitation() string {
	return s.InvitationID
}

func (s *Song) AttachInvitation(invitation *invitations.Invitation) {
	s.Invitation = invitation
}

type Fields struct {
	Name         *string
	Artist       *string
	Link         *string
	InvitationID *string
}

func (f Fields) apply(song *Song) {
	if f.Name != nil {
		song.Name = strings.TrimSpace(*f.Name)
	}
	if f.Artist != nil {
		song.Artist = strings.TrimSpace(*f.Artist)
	}
	if f.Link != nil {
		song.Link = strings.TrimSpace(*f.Link)
	}
	if f.InvitationID != nil {
		song.InvitationID = strings.TrimSpace(*f.InvitationID)
	}
}

type ListOptions struct {
	ExpandInvitation bool
}
