package invitations

import (
	"context"
	"errors"
	"testing"
)

type referrerStub struct {
	InvitationID string
	Invitation   *Invitation
}

func (r *referrerStub) ReferencedInvitation() string {
	return r.InvitationID
}

func (r *referrerStub) AttachInvitation(invitation *Invitation) {
	r.Invitation = invitation
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, []string) (map[string]Invitation, error) {
	return nil, errors.New("lookup failed")
}

func TestExpandAttachesKnownInvitations(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	first, err := service.Create(ctx, Fields{Title: stringPointer("Civil"), Template: stringPointer("a")})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := service.Create(ctx, Fields{Title: stringPointer("Religiosa"), Template: stringPointer("b")})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	records := []referrerStub{
		{InvitationID: first.ID},
		{InvitationID: "0190a6d4-7b1e-7c3a-9a4e-ffffffffffff"},
		{InvitationID: second.ID},
	}
	if err := Expand(ctx, service, records); err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	if records[0].Invitation == nil || records[0].Invitation.Title != "Civil" {
		t.Fatalf("expected first record to carry its invitation, got %#v", records[0].Invitation)
	}
	if records[1].Invitation != nil {
		t.Fatalf("dangling reference must stay empty, got %#v", records[1].Invitation)
	}
	if records[2].Invitation == nil || records[2].Invitation.Title != "Religiosa" {
		t.Fatalf("expected third record to carry its invitation, got %#v", records[2].Invitation)
	}
	if records[0].Invitation == records[2].Invitation {
		t.Fatalf("records must not share one invitation value")
	}
}

func TestExpandReportsResolverFailure(t *testing.T) {
	records := []referrerStub{{InvitationID: "any"}}
	if err := Expand(context.Background(), failingResolver{}, records); err == nil {
		t.Fatalf("expected resolver failure to be returned")
	}
	if err := Expand(context.Background(), failingResolver{}, []referrerStub{}); err != nil {
		t.Fatalf("empty input must not call the resolver, got %v", err)
	}
}
