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

const collectionUsers = "users"

// UserRepository implements ports.UserRepository on the users collection.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type userDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	ClerkID  string             `bson:"clerk_id"`
	Email    string             `bson:"email"`
	Username string             `bson:"username"`
	ImageURL string             `bson:"image_url"`
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:       d.ID.Hex(),
		ClerkID:  d.ClerkID,
		Email:    d.Email,
		Username: d.Username,
		ImageURL: d.ImageURL,
	}
}

func (r *UserRepository) FindByClerkID(ctx context.Context, clerkID string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"clerk_id": clerkID})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// Upsert inserts the user keyed by clerk_id, or refreshes the profile fields
// when the mapping already exists. Returns the stored record.
func (r *UserRepository) Upsert(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"email":     user.Email,
		"username":  user.Username,
		"image_url": user.ImageURL,
	}}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc userDoc
	err := r.col.FindOneAndUpdate(ctx, bson.M{"clerk_id": user.ClerkID}, update, opts).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the unique lookup indexes on the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "clerk_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
