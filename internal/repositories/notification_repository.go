package repositories

import (
	"context"
	"time"

	"github.com/tikgram/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository defines the interface for notification operations.
// Read-state mutations are always scoped to the recipient; touching someone
// else's notification is a silent no-op.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetByRecipient(ctx context.Context, recipient primitive.ObjectID, limit int64) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id string, recipient primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, recipient primitive.ObjectID) error
}

// MongoNotificationRepository implements NotificationRepository for MongoDB
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new MongoNotificationRepository
func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection("notifications")}
}

// CreateNotification creates a new notification in MongoDB
func (r *MongoNotificationRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		return storeErr("create notification", err)
	}
	return nil
}

// GetByRecipient retrieves up to limit notifications, newest first
func (r *MongoNotificationRepository) GetByRecipient(ctx context.Context, recipient primitive.ObjectID, limit int64) ([]models.Notification, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"recipient": recipient}, findOptions)
	if err != nil {
		return nil, storeErr("list notifications", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, storeErr("list notifications", err)
	}
	return notifications, nil
}

// MarkAsRead sets is_read on one notification, only if it belongs to the
// recipient. Unknown, malformed, or foreign IDs are no-ops, not errors.
func (r *MongoNotificationRepository) MarkAsRead(ctx context.Context, id string, recipient primitive.ObjectID) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "recipient": recipient},
		bson.M{"$set": bson.M{"is_read": true}}); err != nil {
		return storeErr("mark notification read", err)
	}
	return nil
}

// MarkAllAsRead sets is_read on every unread notification of the recipient
func (r *MongoNotificationRepository) MarkAllAsRead(ctx context.Context, recipient primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := r.collection.UpdateMany(ctx,
		bson.M{"recipient": recipient, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}}); err != nil {
		return storeErr("mark all notifications read", err)
	}
	return nil
}
