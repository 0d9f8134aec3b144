package service

import (
	"context"

	"github.com/chathaus/friends-api/internal/core/domain"
	"github.com/chathaus/friends-api/internal/core/ports"
)

// IdentityResolver maps a verified external identity to the internal user
// record. Pure lookup, no business rules; every operation below resolves the
// caller through it before doing anything else.
type IdentityResolver struct {
	users ports.UserRepository
}

func NewIdentityResolver(users ports.UserRepository) *IdentityResolver {
	return &IdentityResolver{users: users}
}

// Resolve returns the user mapped to the identity's subject key.
// An empty subject means the caller carries no verified identity.
func (r *IdentityResolver) Resolve(ctx context.Context, ident ports.Identity) (*domain.User, error) {
	if ident.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}

	user, err := r.users.FindByClerkID(ctx, ident.Subject)
	if err != nil {
		return nil, err
	}
	return user, nil
}
