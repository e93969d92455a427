package repositories

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/tikgram/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, bio, avatarURL *string) error
	AddFollow(ctx context.Context, follower, target primitive.ObjectID) (bool, error)
	RemoveFollow(ctx context.Context, follower, target primitive.ObjectID) (bool, error)
	GetCompactByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserCompact, error)
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// CreateUser creates a new user in MongoDB. A duplicate username or email
// surfaces as ErrConflict via the unique indexes.
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	user.ID = primitive.NewObjectID()
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user already exists: %w", models.ErrConflict)
		}
		return storeErr("create user", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID from MongoDB
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", id, models.ErrNotFound)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("user %q: %w", id, models.ErrNotFound)
		}
		return nil, storeErr("get user", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email from MongoDB
func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("user %q: %w", email, models.ErrNotFound)
		}
		return nil, storeErr("get user by email", err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username, case-insensitively
func (r *MongoUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"username": bson.M{
		"$regex":   "^" + regexp.QuoteMeta(username) + "$",
		"$options": "i",
	}}

	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("user %q: %w", username, models.ErrNotFound)
		}
		return nil, storeErr("get user by username", err)
	}
	return &user, nil
}

// UpdateProfile updates the caller's bio and/or avatar reference
func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, bio, avatarURL *string) error {
	set := bson.M{"updated_at": time.Now()}
	if bio != nil {
		set["bio"] = *bio
	}
	if avatarURL != nil {
		set["avatar_url"] = *avatarURL
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return storeErr("update profile", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id.Hex(), models.ErrNotFound)
	}
	return nil
}

// AddFollow establishes follower -> target. The follower-side update is the
// linearization point: it is conditional on non-membership, so of any number
// of concurrent attempts exactly one reports changed=true. The target-side
// $addToSet is idempotent; if it fails the follower side is rolled back so
// the graph never stays asymmetric.
func (r *MongoUserRepository) AddFollow(ctx context.Context, follower, target primitive.ObjectID) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": follower, "following": bson.M{"$ne": target}},
		bson.M{"$addToSet": bson.M{"following": target}})
	if err != nil {
		return false, storeErr("add follow", err)
	}
	if res.ModifiedCount == 0 {
		return false, nil // already following, or lost the race
	}

	if _, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": target},
		bson.M{"$addToSet": bson.M{"followers": follower}}); err != nil {
		r.compensate(follower, bson.M{"$pull": bson.M{"following": target}})
		return false, storeErr("add follow", err)
	}
	return true, nil
}

// RemoveFollow tears down follower -> target, mirroring AddFollow.
func (r *MongoUserRepository) RemoveFollow(ctx context.Context, follower, target primitive.ObjectID) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": follower, "following": target},
		bson.M{"$pull": bson.M{"following": target}})
	if err != nil {
		return false, storeErr("remove follow", err)
	}
	if res.ModifiedCount == 0 {
		return false, nil // not following, or lost the race
	}

	if _, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": target},
		bson.M{"$pull": bson.M{"followers": follower}}); err != nil {
		r.compensate(follower, bson.M{"$addToSet": bson.M{"following": target}})
		return false, storeErr("remove follow", err)
	}
	return true, nil
}

// compensate undoes the follower-side half of a follow toggle after the
// target-side write failed. It runs on a fresh deadline because the request
// context may already be done.
func (r *MongoUserRepository) compensate(follower primitive.ObjectID, update bson.M) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	_, _ = r.collection.UpdateOne(ctx, bson.M{"_id": follower}, update)
}

// GetCompactByIDs retrieves public profile summaries for a set of user IDs
func (r *MongoUserRepository) GetCompactByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserCompact, error) {
	compacts := make(map[primitive.ObjectID]models.UserCompact, len(ids))
	if len(ids) == 0 {
		return compacts, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, storeErr("get users compact", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, storeErr("get users compact", err)
	}
	for i := range users {
		compacts[users[i].ID] = users[i].ToCompact()
	}
	return compacts, nil
}
