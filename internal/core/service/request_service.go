package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/chathaus/friends-api/internal/api/metrics"
	"github.com/chathaus/friends-api/internal/core/domain"
	"github.com/chathaus/friends-api/internal/core/ports"
)

// PairLocker provides mutual exclusion per unordered user pair (Redis-backed
// in production). Create, Accept and Deny hold the lock for their whole
// validate-then-write sequence so that no operation observes a stale view of
// the pair's relationship state.
type PairLocker interface {
	// Acquire blocks until the lock for {userA, userB} is held or ctx
	// expires. The returned release function must be called exactly once.
	Acquire(ctx context.Context, userA, userB string) (release func(), err error)
}

// RequestService implements the friend-request lifecycle: create, deny,
// accept, and the invariants they enforce over the relationship graph.
type RequestService struct {
	resolver    *IdentityResolver
	users       ports.UserRepository
	requests    ports.RequestRepository
	friendships ports.FriendshipRepository
	locks       PairLocker
	log         zerolog.Logger
}

func NewRequestService(
	resolver *IdentityResolver,
	users ports.UserRepository,
	requests ports.RequestRepository,
	friendships ports.FriendshipRepository,
	locks PairLocker,
	log zerolog.Logger,
) *RequestService {
	return &RequestService{
		resolver:    resolver,
		users:       users,
		requests:    requests,
		friendships: friendships,
		locks:       locks,
		log:         log,
	}
}

// Create validates and records a friend request from the caller to the user
// with targetEmail. Validation order is fixed: self-request, receiver lookup,
// duplicate request, reverse request, existing friendship.
func (s *RequestService) Create(ctx context.Context, ident ports.Identity, targetEmail string) (string, error) {
	caller, err := s.resolver.Resolve(ctx, ident)
	if err != nil {
		return "", err
	}

	if targetEmail == caller.Email {
		metrics.RequestsRejectedTotal.WithLabelValues("self_request").Inc()
		return "", domain.ErrSelfRequest
	}

	receiver, err := s.users.FindByEmail(ctx, targetEmail)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.RequestsRejectedTotal.WithLabelValues("receiver_not_found").Inc()
			return "", domain.ErrReceiverNotFound
		}
		return "", fmt.Errorf("create request: %w", err)
	}

	// All graph checks and the final insert run under the pair lock so a
	// concurrent accept or deny on the same pair cannot interleave.
	release, err := s.locks.Acquire(ctx, caller.ID, receiver.ID)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	defer release()

	if _, err := s.requests.FindBetween(ctx, caller.ID, receiver.ID); err == nil {
		metrics.RequestsRejectedTotal.WithLabelValues("duplicate").Inc()
		return "", domain.ErrDuplicateRequest
	} else if !errors.Is(err, domain.ErrRequestNotFound) {
		return "", fmt.Errorf("create request: %w", err)
	}

	if _, err := s.requests.FindBetween(ctx, receiver.ID, caller.ID); err == nil {
		metrics.RequestsRejectedTotal.WithLabelValues("reverse_exists").Inc()
		return "", domain.ErrReverseRequestExists
	} else if !errors.Is(err, domain.ErrRequestNotFound) {
		return "", fmt.Errorf("create request: %w", err)
	}

	friends, err := s.friendships.Exists(ctx, caller.ID, receiver.ID)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if friends {
		metrics.RequestsRejectedTotal.WithLabelValues("already_friends").Inc()
		return "", domain.ErrAlreadyFriends
	}

	id, err := s.requests.Insert(ctx, &domain.FriendRequest{
		SenderID: caller.ID,
		Receiver: receiver.ID,
	})
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	metrics.RequestsCreatedTotal.Inc()
	s.log.Info().
		Str("request_id", id).
		Str("sender_id", caller.ID).
		Str("receiver_id", receiver.ID).
		Msg("friend request created")

	return id, nil
}

// Deny removes a pending request addressed to the caller. A second deny on
// the same id reports ErrRequestNotFound, which clients treat as "already
// resolved".
func (s *RequestService) Deny(ctx context.Context, ident ports.Identity, requestID string) error {
	caller, req, err := s.ownedRequest(ctx, ident, requestID)
	if err != nil {
		return err
	}

	release, err := s.locks.Acquire(ctx, req.SenderID, req.Receiver)
	if err != nil {
		return fmt.Errorf("deny request: %w", err)
	}
	defer release()

	// Re-check under the lock: a concurrent accept may have consumed it.
	if _, err := s.requests.FindByID(ctx, requestID); err != nil {
		return err
	}

	if err := s.requests.Delete(ctx, requestID); err != nil {
		return fmt.Errorf("deny request: %w", err)
	}

	metrics.RequestsDeniedTotal.Inc()
	s.log.Info().
		Str("request_id", requestID).
		Str("receiver_id", caller.ID).
		Msg("friend request denied")

	return nil
}

// Accept turns a request addressed to the caller into a friendship plus its
// direct conversation. The four-write unit (conversation, friendship, two
// member rows, request delete) is indivisible; partial application is never
// exposed.
func (s *RequestService) Accept(ctx context.Context, ident ports.Identity, requestID string) (string, error) {
	caller, req, err := s.ownedRequest(ctx, ident, requestID)
	if err != nil {
		return "", err
	}

	release, err := s.locks.Acquire(ctx, req.SenderID, req.Receiver)
	if err != nil {
		return "", fmt.Errorf("accept request: %w", err)
	}
	defer release()

	// Re-check under the lock: a concurrent deny may have removed it.
	if _, err := s.requests.FindByID(ctx, requestID); err != nil {
		return "", err
	}

	conversationID, err := s.friendships.Accept(ctx, req, caller.ID)
	if err != nil {
		if errors.Is(err, domain.ErrConsistency) {
			metrics.ConsistencyFaultsTotal.Inc()
			s.log.Error().Err(err).
				Str("request_id", requestID).
				Msg("accept write set failed, rolled back")
		}
		return "", fmt.Errorf("accept request: %w", err)
	}

	metrics.RequestsAcceptedTotal.Inc()
	s.log.Info().
		Str("request_id", requestID).
		Str("conversation_id", conversationID).
		Str("user1", caller.ID).
		Str("user2", req.SenderID).
		Msg("friend request accepted")

	return conversationID, nil
}

// ownedRequest resolves the caller and fetches the request, enforcing that
// the caller is its receiver.
func (s *RequestService) ownedRequest(ctx context.Context, ident ports.Identity, requestID string) (*domain.User, *domain.FriendRequest, error) {
	caller, err := s.resolver.Resolve(ctx, ident)
	if err != nil {
		return nil, nil, err
	}

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if req.Receiver != caller.ID {
		return nil, nil, domain.ErrNotRequestOwner
	}
	return caller, req, nil
}
