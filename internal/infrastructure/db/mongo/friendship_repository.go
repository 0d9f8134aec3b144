package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chathaus/friends-api/internal/core/domain"
)

const (
	collectionFriendships   = "friendships"
	collectionConversations = "conversations"
	collectionMembers       = "conversation_members"
)

// FriendshipRepository implements ports.FriendshipRepository. It owns the
// friendships, conversations and conversation_members collections and, during
// Accept, deletes the consumed request.
type FriendshipRepository struct {
	friendships   *mongo.Collection
	conversations *mongo.Collection
	members       *mongo.Collection
	requests      *mongo.Collection
}

func NewFriendshipRepository(db *mongo.Database) *FriendshipRepository {
	return &FriendshipRepository{
		friendships:   db.Collection(collectionFriendships),
		conversations: db.Collection(collectionConversations),
		members:       db.Collection(collectionMembers),
		requests:      db.Collection(collectionRequests),
	}
}

// Exists reports whether a friendship links the two users, checking both
// orientations in a single query.
func (r *FriendshipRepository) Exists(ctx context.Context, userA, userB string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"$or": []bson.M{
		{"user1": userA, "user2": userB},
		{"user1": userB, "user2": userA},
	}}

	n, err := r.friendships.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("friendship exists: %w", err)
	}
	return n > 0, nil
}

// Accept applies the four-write accept unit. Mongo deployments without a
// replica set have no multi-document transactions, so the unit is staged
// explicitly: each insert records a compensating delete, and any failure
// rolls back what already landed before reporting a consistency fault. No
// observer ever sees a conversation or friendship without its paired member
// rows.
func (r *FriendshipRepository) Accept(ctx context.Context, req *domain.FriendRequest, accepterID string) (string, error) {
	reqID, err := primitive.ObjectIDFromHex(req.ID)
	if err != nil {
		return "", domain.ErrRequestNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	conv, err := r.conversations.InsertOne(ctx, bson.M{"is_group": false})
	if err != nil {
		return "", fmt.Errorf("accept: insert conversation: %w", err)
	}
	convID := conv.InsertedID.(primitive.ObjectID)

	var undo []func(context.Context)
	undo = append(undo, func(c context.Context) {
		_, _ = r.conversations.DeleteOne(c, bson.M{"_id": convID})
	})

	// fail rolls back already-applied writes in reverse order. The rollback
	// runs on a fresh context so a cancelled request cannot strand partial
	// state.
	fail := func(stage string, cause error) error {
		rbCtx, rbCancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer rbCancel()
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i](rbCtx)
		}
		return fmt.Errorf("accept: %s: %v: %w", stage, cause, domain.ErrConsistency)
	}

	fr, err := r.friendships.InsertOne(ctx, bson.M{
		"user1":           accepterID,
		"user2":           req.SenderID,
		"conversation_id": convID.Hex(),
	})
	if err != nil {
		return "", fail("insert friendship", err)
	}
	frID := fr.InsertedID.(primitive.ObjectID)
	undo = append(undo, func(c context.Context) {
		_, _ = r.friendships.DeleteOne(c, bson.M{"_id": frID})
	})

	for _, memberID := range []string{accepterID, req.SenderID} {
		res, err := r.members.InsertOne(ctx, bson.M{
			"member_id":       memberID,
			"conversation_id": convID.Hex(),
		})
		if err != nil {
			return "", fail("insert member", err)
		}
		docID := res.InsertedID.(primitive.ObjectID)
		undo = append(undo, func(c context.Context) {
			_, _ = r.members.DeleteOne(c, bson.M{"_id": docID})
		})
	}

	del, err := r.requests.DeleteOne(ctx, bson.M{"_id": reqID})
	if err != nil {
		return "", fail("delete request", err)
	}
	if del.DeletedCount == 0 {
		return "", fail("delete request", domain.ErrRequestNotFound)
	}

	return convID.Hex(), nil
}

// EnsureIndexes creates the bidirectional lookup indexes on friendships and
// the member lookup indexes on conversation_members.
func (r *FriendshipRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	friendshipIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user1", Value: 1}}},
		{Keys: bson.D{{Key: "user2", Value: 1}}},
	}
	if _, err := r.friendships.Indexes().CreateMany(ctx, friendshipIdx); err != nil {
		return err
	}

	memberIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "member_id", Value: 1}}},
		{Keys: bson.D{{Key: "conversation_id", Value: 1}}},
	}
	_, err := r.members.Indexes().CreateMany(ctx, memberIdx)
	return err
}
