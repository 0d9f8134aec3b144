package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/chathaus/friends-api/internal/core/domain"
	"github.com/chathaus/friends-api/internal/core/ports"
)

// UserService applies account events pushed by the identity provider's
// webhook. It is the only writer of the users collection.
type UserService struct {
	users ports.UserRepository
	log   zerolog.Logger
}

func NewUserService(users ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{users: users, log: log}
}

// Provision creates the user mapped to the given external identity, or
// refreshes the profile fields when the mapping already exists.
func (s *UserService) Provision(ctx context.Context, input ports.ProvisionUserInput) (*domain.User, error) {
	if input.ClerkID == "" || input.Email == "" {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.users.Upsert(ctx, &domain.User{
		ClerkID:  input.ClerkID,
		Email:    input.Email,
		Username: input.Username,
		ImageURL: input.ImageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("provision user: %w", err)
	}

	s.log.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("user provisioned")

	return user, nil
}
