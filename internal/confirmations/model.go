package confirmations

import (
	"strings"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/invitations"
)

const TableName = "confirmations"

// Confirmation is an RSVP response tied to one invitation. The same invitation
// may collect any number of confirmations.
type Confirmation struct {
	ID           string `gorm:"column:id;primaryKey;size:36" json:"_id"`
	FullName     string `gorm:"column:full_name;not null" json:"nombreCompleto" validate:"required"`
	Attendance   string `gorm:"column:attendance;not null" json:"asistencia" validate:"required"`
	Message      string `gorm:"column:message;type:text;not null" json:"mensaje" validate:"required"`
	InvitationID string `gorm:"column:invitation_id;size:36;not null;index" json:"invitacion" validate:"required"`

	// Invitation is populated only when a listing asks for reference expansion.
	Invitation *invitations.Invitation `gorm:"-" json:"-" validate:"-"`
}

func (Confirmation) TableName() string {
	return TableName
}

func (c *Confirmation) RecordID() string {
	return c.ID
}

func (c *Confirmation) AssignID(id string) {
	c.ID = id
}

func (c *Confirmation) ReferencedInvitation() string {
	return c.InvitationID
}

func (c *Confirmation) AttachInvitation(invitation *invitations.Invitation) {
	c.Invitation = invitation
}

// Fields carries client input; nil pointers are left untouched on update.
type Fields struct {
	FullName     *string
	Attendance   *string
	Message      *string
	InvitationID *string
}

func (f Fields) apply(confirmation *Confirmation) {
	if f.FullName != nil {
		confirmation.FullName = strings.TrimSpace(*f.FullName)
	}
	if f.Attendance != nil {
		confirmation.Attendance = strings.TrimSpace(*f.Attendance)
	}
	if f.Message != nil {
		confirmation.Message = *f.Message
	}
	if f.InvitationID != nil {
		confirmation.InvitationID = strings.TrimSpace(*f.InvitationID)
	}
}

// ListOptions controls optional reference expansion on listings.
type ListOptions struct {
	ExpandInvitation bool
}
