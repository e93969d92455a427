package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification kinds. Only the interaction engine creates notifications, as
// a side effect of a qualifying state transition.
const (
	NotificationFollow   = "follow"
	NotificationLike     = "like"
	NotificationComment  = "comment"
	NotificationReaction = "reaction"
)

// Notification is a record in a user's notification feed. Once created it is
// only ever mutated by marking it read.
type Notification struct {
	ID        primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	Recipient primitive.ObjectID     `json:"recipient" bson:"recipient"`
	Actor     primitive.ObjectID     `json:"actor" bson:"actor"`
	Type      string                 `json:"type" bson:"type"`
	Post      *primitive.ObjectID    `json:"post,omitempty" bson:"post,omitempty"`
	Meta      map[string]interface{} `json:"meta,omitempty" bson:"meta,omitempty"`
	IsRead    bool                   `json:"isRead" bson:"is_read"`
	CreatedAt time.Time              `json:"createdAt" bson:"created_at"`
}
