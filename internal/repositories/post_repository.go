package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/tikgram/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error)
	GetPostsByUserID(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error)
	GetPostSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.PostSummary, error)
	CommitInteractions(ctx context.Context, post *models.Post) error
	IncrementViewsCount(ctx context.Context, postID primitive.ObjectID) error
	CountPostsByUserID(ctx context.Context, userID primitive.ObjectID) (int64, error)
	CountLikesByUserID(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	post.ID = primitive.NewObjectID()
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	if post.Reactions == nil {
		post.Reactions = []models.Reaction{}
	}
	post.ReactionsSummary = models.BuildReactionsSummary(post.Reactions)
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt

	if _, err := r.collection.InsertOne(ctx, post); err != nil {
		return storeErr("create post", err)
	}
	return nil
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("post %q: %w", id, models.ErrNotFound)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("post %q: %w", id, models.ErrNotFound)
		}
		return nil, storeErr("get post", err)
	}
	return &post, nil
}

// GetAllPosts retrieves all posts from MongoDB with pagination, newest first
func (r *MongoPostRepository) GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var posts []models.Post
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, storeErr("list posts", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &posts); err != nil {
		return nil, storeErr("list posts", err)
	}
	return posts, nil
}

// GetPostsByUserID retrieves posts by a specific user, newest first
func (r *MongoPostRepository) GetPostsByUserID(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var posts []models.Post
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, storeErr("list user posts", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &posts); err != nil {
		return nil, storeErr("list user posts", err)
	}
	return posts, nil
}

// GetPostSummaries retrieves the public summaries for a set of post IDs
func (r *MongoPostRepository) GetPostSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.PostSummary, error) {
	summaries := make(map[primitive.ObjectID]models.PostSummary, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, storeErr("get post summaries", err)
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, storeErr("get post summaries", err)
	}
	for i := range posts {
		summaries[posts[i].ID] = posts[i].Summary()
	}
	return summaries, nil
}

// CommitInteractions writes back a post's embedded collections and their
// denormalized counters as one atomic update, guarded by the version the
// post was read at. A concurrent writer that got there first makes the
// filter miss, which surfaces as ErrConflict so the caller can re-read and
// retry; the collections and counters can therefore never diverge.
func (r *MongoPostRepository) CommitInteractions(ctx context.Context, post *models.Post) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	filter := bson.M{"_id": post.ID, "version": post.Version}
	update := bson.M{
		"$set": bson.M{
			"likes":             post.Likes,
			"comments":          post.Comments,
			"reactions":         post.Reactions,
			"reactions_summary": post.ReactionsSummary,
			"comments_count":    post.CommentsCount,
			"updated_at":        now,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return storeErr("commit interactions", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("post %s changed concurrently: %w", post.ID.Hex(), models.ErrConflict)
	}
	post.Version++
	post.UpdatedAt = now
	return nil
}

// IncrementViewsCount increments the views counter of a post. Callers must
// hold a winning view-ledger insert; the counter itself is unconditional.
func (r *MongoPostRepository) IncrementViewsCount(ctx context.Context, postID primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$inc": bson.M{"views_count": 1}}); err != nil {
		return storeErr("increment views", err)
	}
	return nil
}

// CountPostsByUserID retrieves the number of posts a user has created
func (r *MongoPostRepository) CountPostsByUserID(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, storeErr("count user posts", err)
	}
	return count, nil
}

// CountLikesByUserID sums the like-set sizes across all of a user's posts
func (r *MongoPostRepository) CountLikesByUserID(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$project", Value: bson.M{"c": bson.M{"$size": "$likes"}}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$c"}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, storeErr("count user likes", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int64 `bson:"total"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return 0, storeErr("count user likes", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}
