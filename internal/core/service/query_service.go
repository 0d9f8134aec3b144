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

// QueryService provides the read-side projections: pending requests joined
// with their sender, and the pending-request count. Reads are not locked;
// both projections see the same committed store state.
type QueryService struct {
	resolver *IdentityResolver
	users    ports.UserRepository
	requests ports.RequestRepository
	log      zerolog.Logger
}

func NewQueryService(
	resolver *IdentityResolver,
	users ports.UserRepository,
	requests ports.RequestRepository,
	log zerolog.Logger,
) *QueryService {
	return &QueryService{
		resolver: resolver,
		users:    users,
		requests: requests,
		log:      log,
	}
}

// ListPending returns every request addressed to the caller together with the
// sender's profile. A request whose sender no longer exists indicates
// referential corruption and is surfaced as an internal fault, not a
// user-input error. Ordering is not guaranteed.
func (s *QueryService) ListPending(ctx context.Context, ident ports.Identity) ([]ports.PendingRequest, error) {
	caller, err := s.resolver.Resolve(ctx, ident)
	if err != nil {
		return nil, err
	}

	reqs, err := s.requests.ListByReceiver(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}

	pending := make([]ports.PendingRequest, 0, len(reqs))
	for _, req := range reqs {
		sender, err := s.users.FindByID(ctx, req.SenderID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				metrics.ConsistencyFaultsTotal.Inc()
				s.log.Error().
					Str("request_id", req.ID).
					Str("sender_id", req.SenderID).
					Msg("pending request references missing sender")
				return nil, fmt.Errorf("list pending: request %s: %w", req.ID, domain.ErrSenderNotFound)
			}
			return nil, fmt.Errorf("list pending: %w", err)
		}
		pending = append(pending, ports.PendingRequest{Request: *req, Sender: *sender})
	}

	return pending, nil
}

// CountPending returns the number of requests addressed to the caller. It
// always equals the length of ListPending's result for the same store state.
func (s *QueryService) CountPending(ctx context.Context, ident ports.Identity) (int64, error) {
	caller, err := s.resolver.Resolve(ctx, ident)
	if err != nil {
		return 0, err
	}

	n, err := s.requests.CountByReceiver(ctx, caller.ID)
	if err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return n, nil
}
