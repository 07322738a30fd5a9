package invitations

import "context"

// Referrer is a record that points at one invitation and can carry the
// expanded document alongside the identifier.
type Referrer interface {
	ReferencedInvitation() string
	AttachInvitation(invitation *Invitation)
}

type Resolver interface {
	Resolve(ctx context.Context, ids []string) (map[string]Invitation, error)
}

// Expand attaches the referenced invitation to every record in place.
// Records whose invitation no longer exists are left without one.
func Expand[T any, P interface {
	*T
	Referrer
}](ctx context.Context, resolver Resolver, records []T) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, len(records))
	for i := range records {
		ids[i] = P(&records[i]).ReferencedInvitation()
	}
	resolved, err := resolver.Resolve(ctx, ids)
	if err != nil {
		return err
	}
	for i := range records {
		record := P(&records[i])
		if invitation, ok := resolved[record.ReferencedInvitation()]; ok {
			record.AttachInvitation(&invitation)
		}
	}
	return nil
}
