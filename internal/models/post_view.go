package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostView is one row of the view deduplication ledger. The unique compound
// index on (post_id, key, day) is the sole mechanism that makes view counting
// idempotent: only the insert that wins the index increments the counter.
type PostView struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PostID    primitive.ObjectID `json:"postId" bson:"post_id"`
	Key       string             `json:"key" bson:"key"` // "u:<hex id>" or "ip:<addr>"
	Day       string             `json:"day" bson:"day"` // UTC, "YYYYMMDD"
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

// ViewerKey derives the deduplication key for a view: the identity when the
// caller is known, otherwise the network origin.
func ViewerKey(userID *primitive.ObjectID, ip string) string {
	if userID != nil {
		return "u:" + userID.Hex()
	}
	return "ip:" + ip
}

// ViewDay formats t as the UTC calendar day a view is deduplicated within.
func ViewDay(t time.Time) string {
	return t.UTC().Format("20060102")
}
