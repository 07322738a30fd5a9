// Package integrity holds the pre-write checks that the database does not enforce.
//
// Both checks run as separate statements ahead of the write they guard. Two
// concurrent writers can therefore both pass a check before either write lands
// (for example two songs with the same link). That window is accepted.
package integrity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrInvitationNotFound indicates that a referenced invitation does not exist.
	ErrInvitationNotFound = errors.New("integrity: referenced invitation not found")
	// ErrDuplicateValue indicates that a value already exists in a unique column.
	ErrDuplicateValue = errors.New("integrity: duplicate value")

	errMissingDatabase = errors.New("integrity: database handle is required")
	errMissingTarget   = errors.New("integrity: table and column are required")
)

// ReferenceValidator resolves invitation identifiers before dependent writes.
type ReferenceValidator struct {
	db    *gorm.DB
	table string
}

// NewReferenceValidator checks references against the given invitations table.
func NewReferenceValidator(db *gorm.DB, invitationsTable string) (*ReferenceValidator, error) {
	if db == nil {
		return nil, errMissingDatabase
	}
	if strings.TrimSpace(invitationsTable) == "" {
		return nil, errMissingTarget
	}
	return &ReferenceValidator{db: db, table: invitationsTable}, nil
}

// ValidateInvitationRef returns ErrInvitationNotFound when candidateID is blank,
// malformed or not present.
func (v *ReferenceValidator) ValidateInvitationRef(ctx context.Context, candidateID string) error {
	trimmed := strings.TrimSpace(candidateID)
	if trimmed == "" {
		return fmt.Errorf("%w: empty identifier", ErrInvitationNotFound)
	}
	if _, err := uuid.Parse(trimmed); err != nil {
		return fmt.Errorf("%w: malformed identifier %q", ErrInvitationNotFound, trimmed)
	}

	var matches int64
	if err := v.db.WithContext(ctx).Table(v.table).Where("id = ?", trimmed).Limit(1).Count(&matches).Error; err != nil {
		return err
	}
	if matches == 0 {
		return fmt.Errorf("%w: %s", ErrInvitationNotFound, trimmed)
	}
	return nil
}

// UniquenessValidator checks that a column value is not already taken.
type UniquenessValidator struct {
	db     *gorm.DB
	table  string
	column string
}

// NewUniquenessValidator checks values of table.column.
func NewUniquenessValidator(db *gorm.DB, table, column string) (*UniquenessValidator, error) {
	if db == nil {
		return nil, errMissingDatabase
	}
	if strings.TrimSpace(table) == "" || strings.TrimSpace(column) == "" {
		return nil, errMissingTarget
	}
	return &UniquenessValidator{db: db, table: table, column: column}, nil
}

// ValidateUnique returns ErrDuplicateValue when another row holds value.
// The row identified by excludeID is ignored so an update may keep its own value.
func (v *UniquenessValidator) ValidateUnique(ctx context.Context, value, excludeID string) error {
	query := v.db.WithContext(ctx).Table(v.table).Where(v.column+" = ?", value)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var matches int64
	if err := query.Limit(1).Count(&matches).Error; err != nil {
		return err
	}
	if matches > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateValue, v.column)
	}
	return nil
}
