package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chathaus/friends-api/internal/core/domain"
)

const collectionRequests = "requests"

// RequestRepository implements ports.RequestRepository on the requests
// collection. Sender and receiver are stored as user id strings.
type RequestRepository struct {
	col *mongo.Collection
}

func NewRequestRepository(db *mongo.Database) *RequestRepository {
	return &RequestRepository{col: db.Collection(collectionRequests)}
}

type requestDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Sender   string             `bson:"sender"`
	Receiver string             `bson:"receiver"`
}

func (d *requestDoc) toDomain() *domain.FriendRequest {
	return &domain.FriendRequest{
		ID:       d.ID.Hex(),
		SenderID: d.Sender,
		Receiver: d.Receiver,
	}
}

func (r *RequestRepository) Insert(ctx context.Context, req *domain.FriendRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, requestDoc{Sender: req.SenderID, Receiver: req.Receiver})
	if err != nil {
		// The unique (receiver, sender) index backs up the engine's
		// duplicate check.
		if mongo.IsDuplicateKeyError(err) {
			return "", domain.ErrDuplicateRequest
		}
		return "", fmt.Errorf("insert request: %w", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (r *RequestRepository) FindByID(ctx context.Context, id string) (*domain.FriendRequest, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrRequestNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *RequestRepository) FindBetween(ctx context.Context, senderID, receiverID string) (*domain.FriendRequest, error) {
	return r.findOne(ctx, bson.M{"receiver": receiverID, "sender": senderID})
}

func (r *RequestRepository) findOne(ctx context.Context, filter bson.M) (*domain.FriendRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc requestDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, fmt.Errorf("find request: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *RequestRepository) ListByReceiver(ctx context.Context, receiverID string) ([]*domain.FriendRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"receiver": receiverID})
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer cur.Close(ctx)

	var reqs []*domain.FriendRequest
	for cur.Next(ctx) {
		var doc requestDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode request: %w", err)
		}
		reqs = append(reqs, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return reqs, nil
}

func (r *RequestRepository) CountByReceiver(ctx context.Context, receiverID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"receiver": receiverID})
	if err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return n, nil
}

// Delete removes the request. A miss reports domain.ErrRequestNotFound so a
// repeated deny surfaces as "already resolved".
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrRequestNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

// EnsureIndexes creates the lookup indexes on the requests collection. The
// (receiver, sender) index is unique: at most one request per direction.
func (r *RequestRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "receiver", Value: 1}, {Key: "sender", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "receiver", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
