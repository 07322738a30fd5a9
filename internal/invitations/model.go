package invitations

import "strings"

const (
	// TableName is the collection other entities reference.
	TableName = "invitations"
	// DefaultStatus is applied when an invitation is created without a status.
	DefaultStatus = "Pendiente"
)

// Invitation is the root entity: one event's invite content, template and status.
type Invitation struct {
	ID       string `gorm:"column:id;primaryKey;size:36" json:"_id"`
	Title    string `gorm:"column:title;not null;index" json:"titulo" validate:"required"`
	Template string `gorm:"column:template;not null" json:"template" validate:"required"`
	Status   string `gorm:"column:status;not null" json:"estado"`
	Data     string `gorm:"column:data;type:text;not null" json:"data"`
}

// TableName provides the explicit table binding for GORM.
func (Invitation) TableName() string {
	return TableName
}

func (i *Invitation) RecordID() string {
	return i.ID
}

func (i *Invitation) AssignID(id string) {
	i.ID = id
}

// Fields carries client input. Nil pointers mean "not supplied", which lets the
// same type drive both creation and partial updates.
type Fields struct {
	Title    *string
	Template *string
	Status   *string
	Data     *string
}

func (f Fields) newInvitation() Invitation {
	invitation := Invitation{Status: DefaultStatus}
	f.apply(&invitation)
	if strings.TrimSpace(invitation.Status) == "" {
		invitation.Status = DefaultStatus
	}
	return invitation
}

func (f Fields) apply(invitation *Invitation) {
	if f.Title != nil {
		invitation.Title = strings.TrimSpace(*f.Title)
	}
	if f.Template != nil {
		invitation.Template = *f.Template
	}
	if f.Status != nil {
		invitation.Status = *f.Status
	}
	if f.Data != nil {
		invitation.Data = *f.Data
	}
}
