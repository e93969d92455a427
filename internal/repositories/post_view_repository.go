package repositories

import (
	"context"
	"time"

	"github.com/tikgram/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PostViewRepository is the view deduplication ledger. InsertView reports
// whether the (post, viewer-key, day) triple was first seen now; a duplicate
// is "already counted", not an error.
type PostViewRepository interface {
	InsertView(ctx context.Context, view *models.PostView) (bool, error)
}

// MongoPostViewRepository implements PostViewRepository for MongoDB. The
// unique compound index on (post_id, key, day) decides the winner.
type MongoPostViewRepository struct {
	collection *mongo.Collection
}

// NewMongoPostViewRepository creates a new MongoPostViewRepository
func NewMongoPostViewRepository(db *mongo.Database) *MongoPostViewRepository {
	return &MongoPostViewRepository{collection: db.Collection("post_views")}
}

// InsertView appends a ledger row, returning false on a duplicate triple
func (r *MongoPostViewRepository) InsertView(ctx context.Context, view *models.PostView) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	view.ID = primitive.NewObjectID()
	view.CreatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, view); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, storeErr("insert view", err)
	}
	return true, nil
}
