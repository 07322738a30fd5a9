package songs

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

const missingInvitationID = "0190a6d4-7b1e-7c3a-9a4e-ffffffffffff"

type songsFixture struct {
	service      *Service
	invitations  *invitations.Service
	invitationID string
}

func newSongsFixture(t *testing.T) songsFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "songs.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&invitations.Invitation{}, &Song{}); err != nil {
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
	links, err := integrity.NewUniquenessValidator(db, TableName, LinkColumn)
	if err != nil {
		t.Fatalf("failed to build link validator: %v", err)
	}
	service, err := NewService(ServiceConfig{
		Database:    db,
		IDProvider:  ids,
		References:  references,
		Links:       links,
		Invitations: invitationService,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to build songs service: %v", err)
	}

	title, template := "Boda", "clasica"
	invitation, err := invitationService.Create(context.Background(), invitations.Fields{Title: &title, Template: &template})
	if err != nil {
		t.Fatalf("failed to seed invitation: %v", err)
	}
	return songsFixture{service: service, invitations: invitationService, invitationID: invitation.ID}
}

func songFields(name, artist, link, invitationID string) Fields {
	return Fields{Name: &name, Artist: &artist, Link: &link, InvitationID: &invitationID}
}

func TestCreateRejectsUnknownInvitation(t *testing.T) {
	fixture := newSongsFixture(t)
	ctx := context.Background()

	for _, invitationID := range []string{missingInvitationID, "not-an-id"} {
		_, err := fixture.service.Create(ctx, songFields("Perfect", "Ed Sheeran", "https://example.com/perfect", invitationID))
		if !errors.Is(err, apperr.InvalidReferenceKind) {
			t.Fatalf("expected invalid reference for %q, got %v", invitationID, err)
		}
	}

	all, err := fixture.service.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("rejected creates must not store songs, got %d", len(all))
	}
}

func TestCreateRejectsDuplicateLink(t *testing.T) {
	fixture := newSongsFixture(t)
	ctx := context.Background()

	if _, err := fixture.service.Create(ctx, songFields("Perfect", "Ed Sheeran", "https://example.com/perfect", fixture.invitationID)); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := fixture.service.Create(ctx, songFields("Otra", "Alguien", "https://example.com/perfect", fixture.invitationID))
	if !errors.Is(err, apperr.DuplicateKeyKind) {
		t.Fatalf("expected duplicate key, got %v", err)
	}
}

func TestUpdateKeepsOwnLinkButRejectsForeignLink(t *testing.T) {
	fixture := newSongsFixture(t)
	ctx := context.Background()

	first, err := fixture.service.Create(ctx, songFields("Perfect", "Ed Sheeran", "https://example.com/perfect", fixture.invitationID))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := fixture.service.Create(ctx, songFields("Vivir mi vida", "Marc Anthony", "https://example.com/vivir", fixture.invitationID))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	sameLink := first.Link
	renamed := "Perfect (live)"
	updated, err := fixture.service.Update(ctx, first.ID, Fields{Name: &renamed, Link: &sameLink})
	if err != nil {
		t.Fatalf("update with own link failed: %v", err)
	}
	if updated.Name != renamed {
		t.Fatalf("expected renamed song, got %q", updated.Name)
	}

	stolenLink := first.Link
	otherName := "Cambio"
	_, err = fixture.service.Update(ctx, second.ID, Fields{Name: &otherName, Link: &stolenLink})
	if !errors.Is(err, apperr.DuplicateKeyKind) {
		t.Fatalf("expected duplicate key, got %v", err)
	}

	stored, err := fixture.service.Get(ctx, second.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Name != "Vivir mi vida" || stored.Link != "https://example.com/vivir" {
		t.Fatalf("rejected update must not apply any field, got %#v", stored)
	}
}

func TestUpdateRejectsUnknownInvitation(t *testing.T) {
	fixture := newSongsFixture(t)
	ctx := context.Background()

	created, err := fixture.service.Create(ctx, songFields("Perfect", "Ed Sheeran", "https://example.com/perfect", fixture.invitationID))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for _, invitationID := range []string{missingInvitationID, "not-an-id"} {
		target := invitationID
		renamed := "Perfect (acoustic)"
		_, err := fixture.service.Update(ctx, created.ID, Fields{Name: &renamed, InvitationID: &target})
		if !errors.Is(err, apperr.InvalidReferenceKind) {
			t.Fatalf("expected invalid reference for %q, got %v", invitationID, err)
		}
		var appErr *apperr.Error
		if !errors.As(err, &appErr) || appErr.Code != "songs.update.invalid_invitation" {
			t.Fatalf("expected songs.update.invalid_invitation, got %v", err)
		}
	}

	stored, err := fixture.service.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Name != "Perfect" || stored.InvitationID != fixture.invitationID {
		t.Fatalf("rejected update must not apply any field, got %#v", stored)
	}
}

func TestSearchMatchesNameOrArtist(t *testing.T) {
	fixture := newSongsFixture(t)
	ctx := context.Background()

	seeds := [][3]string{
		{"Perfect", "Ed Sheeran", "https://example.com/1"},
		{"Thinking Out Loud", "Ed Sheeran", "https://example.com/2"},
		{"Vivir mi vida", "Marc Anthony", "https://example.com/3"},
	}
	for _, seed := range seeds {
		if _, err := fixture.service.Create(ctx, songFields(seed[0], seed[1], seed[2], fixture.invitationID)); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	matches, err := fixture.service.Search(ctx, "sheeran", ListOptions{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected two artist matches, got %d", len(matches))
	}

	matches, err = fixture.service.Search(ctx, "VIDA", ListOptions{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Artist != "Marc Anthony" {
		t.Fatalf("unexpected name matches: %#v", matches)
	}

	if _, err := fixture.service.Search(ctx, "  ", ListOptions{}); !errors.Is(err, apperr.ValidationKind) {
		t.Fatalf("expected validation error for blank query, got %v", err)
	}
}

func TestListExpandsInvitationAndToleratesDanglingReference(t *testing.T) {
	fixture := newSongsFixture(t)
	ctx := context.Background()

	if _, err := fixture.service.Create(ctx, songFields("Perfect", "Ed Sheeran", "https://example.com/1", fixture.invitationID)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	expanded, err := fixture.service.List(ctx, ListOptions{ExpandInvitation: true})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if expanded[0].Invitation == nil || expanded[0].Invitation.Title != "Boda" {
		t.Fatalf("expected expanded invitation, got %#v", expanded[0].Invitation)
	}

	if err := fixture.invitations.DeleteByID(ctx, fixture.invitationID); err != nil {
		t.Fatalf("delete invitation failed: %v", err)
	}
	orphaned, err := fixture.service.ListByInvitation(ctx, fixture.invitationID, ListOptions{ExpandInvitation: true})
	if err != nil {
		t.Fatalf("list by invitation failed: %v", err)
	}
	if len(orphaned) != 1 {
		t.Fatalf("invitation delete must not cascade, got %d songs", len(orphaned))
	}
	if orphaned[0].Invitation != nil {
		t.Fatalf("dangling reference should expand to nil")
	}
}

func TestDeleteUnknownSongIsNotFound(t *testing.T) {
	fixture := newSongsFixture(t)

	err := fixture.service.Delete(context.Background(), missingInvitationID)
	if !errors.Is(err, apperr.NotFoundKind) {
		t.Fatalf("expected not found, got %v", err)
	}
}
