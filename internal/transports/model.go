package transports

import (
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/invitations"
)

const TableName = "transports"

// Transport is a carpool or shuttle signup for one time slot.
type Transport struct {
	ID           string    `gorm:"column:id;primaryKey;size:36" json:"_id"`
	FullName     string    `gorm:"column:full_name;not null" json:"nombreCompleto" validate:"required"`
	Seats        int       `gorm:"column:seats;not null" json:"cantidadLugares" validate:"required,min=1"`
	TimeSlot     string    `gorm:"column:time_slot;not null;index" json:"hora" validate:"required"`
	InvitationID string    `gorm:"column:invitation_id;size:36;not null;index" json:"invitacion" validate:"required"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`

	Invitation *invitations.Invitation `gorm:"-" json:"-" validate:"-"`
}

func (Transport) TableName() string {
	return TableName
}

func (t *Transport) RecordID() string {
	return t.ID
}

func (t *Transport) AssignID(id string) {
	t.ID = id
}

func (t *Transport) ReferencedInvitation() string {
	return t.InvitationID
}

func (t *Transport) AttachInvitation(invitation *invitations.Invitation) {
	t.Invitation = invitation
}

type Fields struct {
	FullName     *string
	Seats        *int
	TimeSlot     *string
	InvitationID *string
}

func (f Fields) apply(transport *Transport) {
	if f.FullName != nil {
		transport.FullName = strings.TrimSpace(*f.FullName)
	}
	if f.Seats != nil {
		transport.Seats = *f.Seats
	}
	if f.TimeSlot != nil {
		transport.TimeSlot = strings.TrimSpace(*f.TimeSlot)
	}
	if f.InvitationID != nil {
		transport.InvitationID = strings.TrimSpace(*f.InvitationID)
	}
}

type ListOptions struct {
	ExpandInvitation bool
}

// Capacity summarises the seats offered for one time slot.
type Capacity struct {
	TimeSlot       string
	TotalSeats     int64
	TransportCount int64
}
