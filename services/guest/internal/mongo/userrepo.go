package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/tableside/services/guest/internal/guest"
)

type UserRepo struct {
	collection *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{
		collection: db.Collection("users"),
	}
}

// EnsureIndexes makes phone the unique login key.
func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "phone", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("cannot create phone index: %w", err)
	}
	return nil
}

func (r *UserRepo) Create(ctx context.Context, u *guest.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}

	if _, err := r.collection.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return guest.ErrPhoneTaken
		}
		return fmt.Errorf("cannot create user: %w", err)
	}

	return nil
}

func (r *UserRepo) Get(ctx context.Context, id uuid.UUID) (*guest.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepo) FindByPhone(ctx context.Context, phone string) (*guest.User, error) {
	return r.findOne(ctx, bson.M{"phone": phone})
}

func (r *UserRepo) Save(ctx context.Context, u *guest.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return fmt.Errorf("cannot update user: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// AddPreferences adds each preference the user does not hold yet and
// returns the updated user, or nil when the user does not exist.
func (r *UserRepo) AddPreferences(ctx context.Context, id uuid.UUID, prefs []string) (*guest.User, error) {
	update := bson.M{
		"$addToSet":    bson.M{"preferences": bson.M{"$each": prefs}},
		"$currentDate": bson.M{"updated_at": true},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u guest.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot add preferences: %w", err)
	}

	return &u, nil
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*guest.User, error) {
	var u guest.User
	err := r.collection.FindOne(ctx, filter).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get user: %w", err)
	}
	return &u, nil
}
