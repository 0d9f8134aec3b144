package ports

import (
	"context"

	"github.com/chathaus/friends-api/internal/core/domain"
)

// ProvisionUserInput carries the profile pushed by the identity provider's
// webhook when an account is created or updated.
type ProvisionUserInput struct {
	ClerkID  string
	Email    string
	Username string
	ImageURL string
}

// UserService handles user provisioning. It is the sole writer of the users
// collection.
type UserService interface {
	Provision(ctx context.Context, input ProvisionUserInput) (*domain.User, error)
}
