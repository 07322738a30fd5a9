package integrity

import (
	"context"
	"errors"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/apperr"
	"go.uber.org/zap"
)

// InvitationRefChecker is satisfied by ReferenceValidator.
type InvitationRefChecker interface {
	ValidateInvitationRef(ctx context.Context, invitationID string) error
}

// CheckInvitationRef runs the reference check for one write and maps the
// result onto the error taxonomy. Lookup failures are logged.
func CheckInvitationRef(ctx context.Context, checker InvitationRefChecker, logger *zap.Logger, operation, invitationID string) error {
	err := ReferenceError(operation, checker.ValidateInvitationRef(ctx, invitationID))
	if errors.Is(err, apperr.StorageKind) && logger != nil {
		logger.Error("integrity check failed",
			zap.String("operation", operation),
			zap.String("reason", "reference_lookup_failed"),
			zap.Error(err))
	}
	return err
}

// ReferenceError maps a ValidateInvitationRef result onto the error taxonomy.
func ReferenceError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvitationNotFound) {
		return apperr.InvalidReference(operation, "invalid_invitation", "referenced invitation does not exist", err)
	}
	return apperr.Storage(operation, "reference_lookup_failed", err)
}

// UniquenessError maps a ValidateUnique result onto the error taxonomy.
func UniquenessError(operation, field string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDuplicateValue) {
		return apperr.DuplicateKey(operation, "duplicate_"+field, field+" is already in use", err)
	}
	return apperr.Storage(operation, "uniqueness_lookup_failed", err)
}
