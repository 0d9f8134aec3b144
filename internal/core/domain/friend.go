package domain

import "errors"

// FriendRequest is a pending, directional proposal from one user to another.
// At most one request may exist per unordered user pair, in either direction.
type FriendRequest struct {
	ID       string `json:"id"`
	SenderID string `json:"sender_id"`
	Receiver string `json:"receiver_id"`
}

// Friendship is a symmetric relation between two users, paired with exactly
// one direct conversation. User1 is the accepter and User2 the original
// sender, but the relation is undirected: existence checks must probe both
// orientations.
type Friendship struct {
	ID             string `json:"id"`
	User1          string `json:"user1"`
	User2          string `json:"user2"`
	ConversationID string `json:"conversation_id"`
}

// Conversation is a messaging channel. IsGroup is always false for the
// channels created by accepting a friend request.
type Conversation struct {
	ID      string `json:"id"`
	IsGroup bool   `json:"is_group"`
}

// ConversationMember associates one user with one conversation. Accepting a
// request creates exactly two, one per party.
type ConversationMember struct {
	ID             string `json:"id"`
	MemberID       string `json:"member_id"`
	ConversationID string `json:"conversation_id"`
}

// Authentication and lookup failures.
var ErrUnauthenticated = errors.New("unauthenticated")
var ErrUserNotFound = errors.New("user not found")
var ErrReceiverNotFound = errors.New("receiver not found")
var ErrRequestNotFound = errors.New("friend request not found")

// Invariant violations: the requested transition conflicts with the current
// relationship graph. Surfaced to callers as validation failures.
var ErrSelfRequest = errors.New("cannot send a friend request to yourself")
var ErrDuplicateRequest = errors.New("friend request already sent")
var ErrReverseRequestExists = errors.New("this user has already sent you a request")
var ErrAlreadyFriends = errors.New("users are already friends")
var ErrNotRequestOwner = errors.New("request does not belong to caller")

// Internal consistency faults: referential corruption or a partial write the
// engine could not complete. Never caused by caller input.
var ErrSenderNotFound = errors.New("request sender could not be found")
var ErrConsistency = errors.New("relationship store is inconsistent")
