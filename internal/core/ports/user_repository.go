package ports

import (
	"context"

	"github.com/chathaus/friends-api/internal/core/domain"
)

// UserRepository defines read access to provisioned users plus the single
// write path used by the identity-provider webhook.
type UserRepository interface {
	FindByClerkID(ctx context.Context, clerkID string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Upsert inserts the user or, when clerk_id already exists, updates the
	// mutable profile fields. Returns the stored record.
	Upsert(ctx context.Context, user *domain.User) (*domain.User, error)
}
