package ports

import (
	"context"

	"github.com/chathaus/friends-api/internal/core/domain"
)

// RequestRepository defines persistence operations for pending friend
// requests.
type RequestRepository interface {
	// Insert persists a new request and returns its assigned id.
	Insert(ctx context.Context, req *domain.FriendRequest) (string, error)
	FindByID(ctx context.Context, id string) (*domain.FriendRequest, error)
	// FindBetween retrieves the request with exactly the given direction,
	// or domain.ErrRequestNotFound when none exists.
	FindBetween(ctx context.Context, senderID, receiverID string) (*domain.FriendRequest, error)
	ListByReceiver(ctx context.Context, receiverID string) ([]*domain.FriendRequest, error)
	CountByReceiver(ctx context.Context, receiverID string) (int64, error)
	Delete(ctx context.Context, id string) error
}
