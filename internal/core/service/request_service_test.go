package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/rs/zerolog"

	"github.com/chathaus/friends-api/internal/core/domain"
	"github.com/chathaus/friends-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users  map[string]*domain.User // keyed by id
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) add(clerkID, email, username string) *domain.User {
	r.nextID++
	u := &domain.User{
		ID:       "u" + strconv.Itoa(r.nextID),
		ClerkID:  clerkID,
		Email:    email,
		Username: username,
	}
	r.users[u.ID] = u
	return u
}

func (r *stubUserRepo) FindByClerkID(_ context.Context, clerkID string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ClerkID == clerkID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) Upsert(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.ClerkID == user.ClerkID {
			u.Email = user.Email
			u.Username = user.Username
			u.ImageURL = user.ImageURL
			clone := *u
			return &clone, nil
		}
	}
	r.nextID++
	user.ID = "u" + strconv.Itoa(r.nextID)
	clone := *user
	r.users[user.ID] = &clone
	out := clone
	return &out, nil
}

type stubRequestRepo struct {
	requests map[string]*domain.FriendRequest // keyed by id
	nextID   int
}

func newStubRequestRepo() *stubRequestRepo {
	return &stubRequestRepo{requests: make(map[string]*domain.FriendRequest)}
}

func (r *stubRequestRepo) Insert(_ context.Context, req *domain.FriendRequest) (string, error) {
	r.nextID++
	id := "r" + strconv.Itoa(r.nextID)
	clone := *req
	clone.ID = id
	r.requests[id] = &clone
	return id, nil
}

func (r *stubRequestRepo) FindByID(_ context.Context, id string) (*domain.FriendRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	clone := *req
	return &clone, nil
}

func (r *stubRequestRepo) FindBetween(_ context.Context, senderID, receiverID string) (*domain.FriendRequest, error) {
	for _, req := range r.requests {
		if req.SenderID == senderID && req.Receiver == receiverID {
			clone := *req
			return &clone, nil
		}
	}
	return nil, domain.ErrRequestNotFound
}

func (r *stubRequestRepo) ListByReceiver(_ context.Context, receiverID string) ([]*domain.FriendRequest, error) {
	var out []*domain.FriendRequest
	for _, req := range r.requests {
		if req.Receiver == receiverID {
			clone := *req
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubRequestRepo) CountByReceiver(_ context.Context, receiverID string) (int64, error) {
	var n int64
	for _, req := range r.requests {
		if req.Receiver == receiverID {
			n++
		}
	}
	return n, nil
}

func (r *stubRequestRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.requests[id]; !ok {
		return domain.ErrRequestNotFound
	}
	delete(r.requests, id)
	return nil
}

// stubFriendshipRepo mirrors the Mongo repository: Accept applies all four
// writes or, when acceptErr is set, none of them (simulating a rollback).
type stubFriendshipRepo struct {
	friendships   []*domain.Friendship
	conversations map[string]*domain.Conversation
	members       []*domain.ConversationMember
	requests      *stubRequestRepo
	nextID        int
	acceptErr     error
}

func newStubFriendshipRepo(requests *stubRequestRepo) *stubFriendshipRepo {
	return &stubFriendshipRepo{
		conversations: make(map[string]*domain.Conversation),
		requests:      requests,
	}
}

func (r *stubFriendshipRepo) Exists(_ context.Context, userA, userB string) (bool, error) {
	for _, f := range r.friendships {
		if (f.User1 == userA && f.User2 == userB) || (f.User1 == userB && f.User2 == userA) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubFriendshipRepo) Accept(ctx context.Context, req *domain.FriendRequest, accepterID string) (string, error) {
	if r.acceptErr != nil {
		return "", fmt.Errorf("accept: %v: %w", r.acceptErr, domain.ErrConsistency)
	}

	r.nextID++
	convID := "c" + strconv.Itoa(r.nextID)
	r.conversations[convID] = &domain.Conversation{ID: convID, IsGroup: false}
	r.friendships = append(r.friendships, &domain.Friendship{
		User1:          accepterID,
		User2:          req.SenderID,
		ConversationID: convID,
	})
	for _, memberID := range []string{accepterID, req.SenderID} {
		r.members = append(r.members, &domain.ConversationMember{
			MemberID:       memberID,
			ConversationID: convID,
		})
	}
	if err := r.requests.Delete(ctx, req.ID); err != nil {
		return "", fmt.Errorf("accept: delete request: %w", err)
	}
	return convID, nil
}

// stubPairLock hands out the lock immediately and counts acquisitions.
type stubPairLock struct {
	acquired int
	released int
	lastKey  string
}

func (l *stubPairLock) Acquire(_ context.Context, userA, userB string) (func(), error) {
	if userB < userA {
		userA, userB = userB, userA
	}
	l.acquired++
	l.lastKey = userA + ":" + userB
	return func() { l.released++ }, nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type fixture struct {
	users       *stubUserRepo
	requests    *stubRequestRepo
	friendships *stubFriendshipRepo
	locks       *stubPairLock
	svc         *RequestService

	alice *domain.User
	bob   *domain.User
}

func newFixture() *fixture {
	users := newStubUserRepo()
	requests := newStubRequestRepo()
	friendships := newStubFriendshipRepo(requests)
	locks := &stubPairLock{}

	resolver := NewIdentityResolver(users)
	svc := NewRequestService(resolver, users, requests, friendships, locks, discardLogger)

	return &fixture{
		users:       users,
		requests:    requests,
		friendships: friendships,
		locks:       locks,
		svc:         svc,
		alice:       users.add("clerk_alice", "alice@example.com", "alice"),
		bob:         users.add("clerk_bob", "bob@example.com", "bob"),
	}
}

func identityOf(u *domain.User) ports.Identity {
	return ports.Identity{Subject: u.ClerkID, Email: u.Email}
}

// ---------------------------------------------------------------------------
// Create tests
// ---------------------------------------------------------------------------

func TestRequestService_Create_Success(t *testing.T) {
	f := newFixture()

	id, err := f.svc.Create(context.Background(), identityOf(f.alice), "bob@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected a request id")
	}

	stored := f.requests.requests[id]
	if stored == nil {
		t.Fatal("request not stored")
	}
	if stored.SenderID != f.alice.ID || stored.Receiver != f.bob.ID {
		t.Errorf("wrong direction: sender=%s receiver=%s", stored.SenderID, stored.Receiver)
	}
	if f.locks.acquired != 1 || f.locks.released != 1 {
		t.Errorf("pair lock not held exactly once: acquired=%d released=%d", f.locks.acquired, f.locks.released)
	}
}

func TestRequestService_Create_Unauthenticated(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), ports.Identity{}, "bob@example.com")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestRequestService_Create_UnknownCaller(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), ports.Identity{Subject: "clerk_ghost"}, "bob@example.com")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRequestService_Create_SelfRequest(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), identityOf(f.alice), "alice@example.com")
	if !errors.Is(err, domain.ErrSelfRequest) {
		t.Fatalf("expected ErrSelfRequest, got %v", err)
	}
	if len(f.requests.requests) != 0 {
		t.Error("failed create must not store a request")
	}
}

func TestRequestService_Create_ReceiverNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), identityOf(f.alice), "nobody@example.com")
	if !errors.Is(err, domain.ErrReceiverNotFound) {
		t.Fatalf("expected ErrReceiverNotFound, got %v", err)
	}
	// Cardinality invariant: a failed create never increases the request count.
	if len(f.requests.requests) != 0 {
		t.Error("failed create must not store a request")
	}
}

func TestRequestService_Create_Duplicate(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.Create(context.Background(), identityOf(f.alice), "bob@example.com"); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := f.svc.Create(context.Background(), identityOf(f.alice), "bob@example.com")
	if !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}
	if len(f.requests.requests) != 1 {
		t.Errorf("expected 1 stored request, got %d", len(f.requests.requests))
	}
}

func TestRequestService_Create_ReverseExists(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.Create(context.Background(), identityOf(f.alice), "bob@example.com"); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// Bob requesting Alice while Alice→Bob is pending must be rejected; the
	// right move for Bob is to accept or deny the existing request.
	_, err := f.svc.Create(context.Background(), identityOf(f.bob), "alice@example.com")
	if !errors.Is(err, domain.ErrReverseRequestExists) {
		t.Fatalf("expected ErrReverseRequestExists, got %v", err)
	}
	if len(f.requests.requests) != 1 {
		t.Errorf("expected 1 stored request, got %d", len(f.requests.requests))
	}
}

func TestRequestService_Create_AlreadyFriends_BothOrientations(t *testing.T) {
	f := newFixture()
	f.friendships.friendships = append(f.friendships.friendships, &domain.Friendship{
		User1: f.bob.ID, User2: f.alice.ID, ConversationID: "c1",
	})

	_, err := f.svc.Create(context.Background(), identityOf(f.alice), "bob@example.com")
	if !errors.Is(err, domain.ErrAlreadyFriends) {
		t.Fatalf("alice→bob: expected ErrAlreadyFriends, got %v", err)
	}

	_, err = f.svc.Create(context.Background(), identityOf(f.bob), "alice@example.com")
	if !errors.Is(err, domain.ErrAlreadyFriends) {
		t.Fatalf("bob→alice: expected ErrAlreadyFriends, got %v", err)
	}
}

func TestRequestService_Create_LockKeyIsUnordered(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.Create(context.Background(), identityOf(f.alice), "bob@example.com"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	key1 := f.locks.lastKey

	ident := identityOf(f.bob)
	_, _ = f.svc.Create(context.Background(), ident, "alice@example.com")
	if f.locks.lastKey != key1 {
		t.Errorf("both directions must contend on one key: %q vs %q", key1, f.locks.lastKey)
	}
}

// ---------------------------------------------------------------------------
// Deny tests
// ---------------------------------------------------------------------------

func TestRequestService_Deny_Success(t *testing.T) {
	f := newFixture()
	id, _ := f.svc.Create(context.Background(), identityOf(f.alice), "bob@example.com")

	if err := f.svc.Deny(context.Background(), identityOf(f.bob), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.requests.requests) != 0 {
		t.Error("request must be deleted")
	}
	// Deny must not create relationship state as a side effect.
	if len(f.friendships.friendships) != 0 || len(f.friendships.conversations) != 0 || len(f.friendships.members) != 0 {
		t.Error("deny must not create friendships, conversations or members")
	}
}

func TestRequestService_Deny_SecondCallAlreadyResolved(t *testing.T) {
	f := newFixture()
	id, _ := f.svc.Create(context.Background(), identityOf(f.alice), "bob@example.com")

	if err := f.svc.Deny(context.Background(), identityOf(f.bob), id); err != nil {
		t.Fatalf("first deny failed: %v", err)
	}

	err := f.svc.Deny(context.Background(), identityOf(f.bob), id)
	if !errors.Is(err, domain.ErrRequestNotFound) {
		t.Fatalf("second deny: expected ErrRequestNotFound, got %v", err)
	}
}

func TestRequestService_Deny_NotOwner(t *testing.T) {
	f := newFixture()
	id, _ := f.svc.Create(context.Background(), identityOf(f.alice), "bob@example.com")

	// The sender cannot deny their own outgoing request.
	err := f.svc.Deny(context.Background(), identityOf(f.alice), id)
	if !errors.Is(err, domain.ErrNotRequestOwner) {
		t.Fatalf("expected ErrNotRequestOwner, got %v", err)
	}
	if len(f.requests.requests) != 1 {
		t.Error("request must survive a rejected deny")
	}
}

// ---------------------------------------------------------------------------
// Accept tests
// ---------------------------------------------------------------------------

func TestRequestService_Accept_Success(t *testing.T) {
	f := newFixture()
	id, _ := f.svc.Create(context.Background(), identityOf(f.alice), "bob@example.com")

	conversationID, err := f.svc.Accept(context.Background(), identityOf(f.bob), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conversationID == "" {
		t.Fatal("expected a conversation id")
	}

	// Exactly one friendship linking the pair, oriented accepter→sender.
	if len(f.friendships.friendships) != 1 {
		t.Fatalf("expected 1 friendship, got %d", len(f.friendships.friendships))
	}
	fr := f.friendships.friendships[0]
	if fr.User1 != f.bob.ID || fr.User2 != f.alice.ID {
		t.Errorf("wrong orientation: user1=%s user2=%s", fr.User1, fr.User2)
	}
	if fr.ConversationID != conversationID {
		t.Errorf("friendship points at %s, want %s", fr.ConversationID, conversationID)
	}

	// Exactly one direct conversation.
	conv := f.friendships.conversations[conversationID]
	if conv == nil {
		t.Fatal("conversation not stored")
	}
	if conv.IsGroup {
		t.Error("accept must create a direct conversation")
	}

	// Exactly two member rows, one per party.
	if len(f.friendships.members) != 2 {
		t.Fatalf("expected 2 member rows, got %d", len(f.friendships.members))
	}
	seen := map[string]bool{}
	for _, m := range f.friendships.members {
		if m.ConversationID != conversationID {
			t.Errorf("member points at %s, want %s", m.ConversationID, conversationID)
		}
		seen[m.MemberID] = true
	}
	if !seen[f.alice.ID] || !seen[f.bob.ID] {
		t.Errorf("members must cover both parties, got %v", seen)
	}

	// The request is consumed.
	if len(f.requests.requests) != 0 {
		t.Error("accepted request must be deleted")
	}
}

func TestRequestService_Accept_NotOwner(t *testing.T) {
	f := newFixture()
	id, _ := f.svc.Create(context.Background(), identityOf(f.alice), "bob@example.com")

	_, err := f.svc.Accept(context.Background(), identityOf(f.alice), id)
	if !errors.Is(err, domain.ErrNotRequestOwner) {
		t.Fatalf("expected ErrNotRequestOwner, got %v", err)
	}
	if len(f.friendships.friendships) != 0 {
		t.Error("rejected accept must not create a friendship")
	}
}

func TestRequestService_Accept_RequestNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Accept(context.Background(), identityOf(f.bob), "missing")
	if !errors.Is(err, domain.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestRequestService_Accept_ConsistencyFaultSurfaced(t *testing.T) {
	f := newFixture()
	id, _ := f.svc.Create(context.Background(), identityOf(f.alice), "bob@example.com")
	f.friendships.acceptErr = errors.New("insert member: connection reset")

	_, err := f.svc.Accept(context.Background(), identityOf(f.bob), id)
	if !errors.Is(err, domain.ErrConsistency) {
		t.Fatalf("expected ErrConsistency, got %v", err)
	}
	// Rolled back: no partial relationship state, request still pending.
	if len(f.friendships.friendships) != 0 || len(f.friendships.members) != 0 {
		t.Error("failed accept must leave no partial state")
	}
	if len(f.requests.requests) != 1 {
		t.Error("failed accept must keep the request")
	}
}

// ---------------------------------------------------------------------------
// End-to-end lifecycle scenario
// ---------------------------------------------------------------------------

func TestRequestService_Lifecycle_AcceptThenCreateFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	id, err := f.svc.Create(ctx, identityOf(f.alice), "bob@example.com")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	before, _ := f.requests.CountByReceiver(ctx, f.bob.ID)

	conversationID, err := f.svc.Accept(ctx, identityOf(f.bob), id)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if conversationID == "" {
		t.Fatal("expected a conversation id")
	}

	after, _ := f.requests.CountByReceiver(ctx, f.bob.ID)
	if before-after != 1 {
		t.Errorf("pending count must drop by exactly 1: before=%d after=%d", before, after)
	}

	// Either direction now fails AlreadyFriends.
	if _, err := f.svc.Create(ctx, identityOf(f.alice), "bob@example.com"); !errors.Is(err, domain.ErrAlreadyFriends) {
		t.Errorf("alice→bob after accept: expected ErrAlreadyFriends, got %v", err)
	}
	if _, err := f.svc.Create(ctx, identityOf(f.bob), "alice@example.com"); !errors.Is(err, domain.ErrAlreadyFriends) {
		t.Errorf("bob→alice after accept: expected ErrAlreadyFriends, got %v", err)
	}
}
