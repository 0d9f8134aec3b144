package ports

import (
	"context"

	"github.com/chathaus/friends-api/internal/core/domain"
)

// FriendshipRepository handles the friendship graph and the atomic
// accept write set spanning conversations, friendships, members and the
// accepted request.
type FriendshipRepository interface {
	// Exists reports whether a friendship links the two users, probing both
	// orientations.
	Exists(ctx context.Context, userA, userB string) (bool, error)

	// Accept applies the four-write accept unit: insert a direct
	// conversation, insert the friendship (user1=accepter, user2=sender),
	// insert one member row per party, delete the request. Either all four
	// writes land or none do; on partial failure the repository rolls back
	// what it already wrote and returns an error wrapping
	// domain.ErrConsistency. Returns the new conversation id.
	Accept(ctx context.Context, req *domain.FriendRequest, accepterID string) (string, error)
}
