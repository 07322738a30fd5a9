package confirmations

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/apperr"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/integrity"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/invitations"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/store"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "confirmations.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&invitations.Invitation{}, &Confirmation{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	ids := store.NewUUIDProvider()
	invitationService, err := invitations.NewService(invitations.ServiceConfig{Database: db, IDProvider: ids})
	if err != nil {
		t.Fatalf("failed to build invitations service: %v", err)
	}
	references, err := integrity.NewReferenceValidator(db, invitations.TableName)
	if err != nil {
		t.Fatalf("failed to build reference validator: %v", err)
	}
	service, err := NewService(ServiceConfig{
		Database:    db,
		IDProvider:  ids,
		References:  references,
		Invitations: invitationService,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to build confirmations service: %v", err)
	}

	title, template := "Boda", "clasica"
	invitation, err := invitationService.Create(context.Background(), invitations.Fields{Title: &title, Template: &template})
	if err != nil {
		t.Fatalf("failed to seed invitation: %v", err)
	}
	return service, invitation.ID
}

func confirmationFields(name, attendance, message, invitationID string) Fields {
	return Fields{FullName: &name, Attendance: &attendance, Message: &message, InvitationID: &invitationID}
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	if _, err := NewService(ServiceConfig{}); !errors.Is(err, errMissingReferences) {
		t.Fatalf("expected missing references error, got %v", err)
	}
}

func TestCreateAllowsRepeatedConfirmations(t *testing.T) {
	service, invitationID := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := service.Create(ctx, confirmationFields("Ana Pérez", "si", "Ahí estaremos", invitationID)); err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
	}

	byInvitation, err := service.ListByInvitation(ctx, invitationID, ListOptions{ExpandInvitation: true})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(byInvitation) != 2 {
		t.Fatalf("expected two confirmations, got %d", len(byInvitation))
	}
	if byInvitation[0].Invitation == nil || byInvitation[0].Invitation.ID != invitationID {
		t.Fatalf("expected invitation expansion")
	}
}

func TestCreateRejectsUnknownInvitation(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Create(context.Background(), confirmationFields("Ana", "no", "Lo siento", "0190a6d4-7b1e-7c3a-9a4e-ffffffffffff"))
	if !errors.Is(err, apperr.InvalidReferenceKind) {
		t.Fatalf("expected invalid reference, got %v", err)
	}
}

func TestCreateRequiresMessage(t *testing.T) {
	service, invitationID := newTestService(t)

	_, err := service.Create(context.Background(), confirmationFields("Ana", "si", "", invitationID))
	if !errors.Is(err, apperr.ValidationKind) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	service, invitationID := newTestService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, confirmationFields("Ana", "si", "Ahí estaremos", invitationID))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	attendance := "no"
	updated, err := service.Update(ctx, created.ID, Fields{Attendance: &attendance})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Attendance != "no" || updated.Message != "Ahí estaremos" {
		t.Fatalf("unexpected update result: %#v", updated)
	}

	if err := service.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := service.Delete(ctx, created.ID); !errors.Is(err, apperr.NotFoundKind) {
		t.Fatalf("expected not found on repeated delete, got %v", err)
	}
}
