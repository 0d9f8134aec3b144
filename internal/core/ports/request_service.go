package ports

import (
	"context"

	"github.com/chathaus/friends-api/internal/core/domain"
)

// Identity is the verified external identity extracted from the auth token.
// It is threaded explicitly through every operation; no service reads
// ambient session state.
type Identity struct {
	// Subject is the identity provider's stable user key (the `sub` claim).
	Subject string
	// Email is the verified email reported by the provider.
	Email string
}

// RequestService executes the friend-request lifecycle transitions.
type RequestService interface {
	// Create validates and records a request from the caller to the user
	// with the given email, returning the new request id.
	Create(ctx context.Context, ident Identity, targetEmail string) (string, error)
	// Deny removes a request addressed to the caller.
	Deny(ctx context.Context, ident Identity, requestID string) error
	// Accept turns a request addressed to the caller into a friendship plus
	// its direct conversation, returning the conversation id.
	Accept(ctx context.Context, ident Identity, requestID string) (string, error)
}

// PendingRequest pairs a request with its sender's profile for display.
type PendingRequest struct {
	Request domain.FriendRequest `json:"request"`
	Sender  domain.User          `json:"sender"`
}

// QueryService provides the read-side projections over pending requests.
type QueryService interface {
	ListPending(ctx context.Context, ident Identity) ([]PendingRequest, error)
	CountPending(ctx context.Context, ident Identity) (int64, error)
}
