package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReactionKinds is the fixed set of reactions a post accepts. A user holds at
// most one of these per post.
var ReactionKinds = []string{"❤️", "🔥", "😂", "😮", "😍", "💯"}

// IsReactionKind reports whether kind is one of the enumerated reactions.
func IsReactionKind(kind string) bool {
	for _, k := range ReactionKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// MaxCommentLength is the comment length cap in runes; longer input is
// truncated before trimming, matching the client contract.
const MaxCommentLength = 2200

// Comment is an embedded comment on a post.
type Comment struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	UserID    primitive.ObjectID `json:"userId" bson:"user_id"`
	Text      string             `json:"text" bson:"text"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

// Reaction attributes one reaction kind to one user.
type Reaction struct {
	UserID primitive.ObjectID `json:"userId" bson:"user_id"`
	Kind   string             `json:"type" bson:"kind"`
}

// Post is a social media post stored in MongoDB. Likes, comments and
// reactions are embedded; commentsCount and reactionsSummary are denormalized
// caches of their source collections and are only ever written together with
// them, under the same version-guarded update.
type Post struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"userId" bson:"user_id"`
	Caption   string             `json:"caption" bson:"caption"`
	MediaURL  string             `json:"mediaUrl,omitempty" bson:"media_url,omitempty"`
	MediaType string             `json:"mediaType,omitempty" bson:"media_type,omitempty"`

	Likes     []primitive.ObjectID `json:"likes" bson:"likes"`
	Comments  []Comment            `json:"comments" bson:"comments"`
	Reactions []Reaction           `json:"reactions" bson:"reactions"`

	ViewsCount       int64          `json:"viewsCount" bson:"views_count"`
	CommentsCount    int            `json:"commentsCount" bson:"comments_count"`
	ReactionsSummary map[string]int `json:"reactionsSummary" bson:"reactions_summary"`

	// Version guards read-modify-write cycles on the embedded collections.
	Version int64 `json:"-" bson:"version"`

	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// HasLike reports whether userID is in the like set.
func (p *Post) HasLike(userID primitive.ObjectID) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// ReactionBy returns the index of userID's reaction, or -1.
func (p *Post) ReactionBy(userID primitive.ObjectID) int {
	for i, r := range p.Reactions {
		if r.UserID == userID {
			return i
		}
	}
	return -1
}

// BuildReactionsSummary re-derives the per-kind counts from the reaction
// collection. Every enumerated kind is present in the result, zero-valued
// when absent, so clients never have to merge partial maps.
func BuildReactionsSummary(reactions []Reaction) map[string]int {
	summary := make(map[string]int, len(ReactionKinds))
	for _, k := range ReactionKinds {
		summary[k] = 0
	}
	for _, r := range reactions {
		summary[r.Kind]++
	}
	return summary
}

// PostSummary is the minimal public shape of a post, used when a post is
// referenced from a notification.
type PostSummary struct {
	ID        primitive.ObjectID `json:"id"`
	Caption   string             `json:"caption"`
	MediaURL  string             `json:"mediaUrl,omitempty"`
	MediaType string             `json:"mediaType,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Summary projects a post down to its public summary.
func (p *Post) Summary() PostSummary {
	return PostSummary{
		ID:        p.ID,
		Caption:   p.Caption,
		MediaURL:  p.MediaURL,
		MediaType: p.MediaType,
		CreatedAt: p.CreatedAt,
	}
}

// CreatePostRequest defines the request body for creating a new post. Media
// is an opaque blob-store reference; the backend stores and echoes it.
type CreatePostRequest struct {
	Caption   string `json:"caption" validate:"max=2200"`
	MediaURL  string `json:"mediaUrl,omitempty" validate:"omitempty,url"`
	MediaType string `json:"mediaType,omitempty" validate:"omitempty,oneof=image video"`
}

// CreateCommentRequest defines the request body for commenting on a post.
// Trimming and truncation happen in the interaction service.
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// CreateReactionRequest defines the request body for reacting to a post.
type CreateReactionRequest struct {
	Kind string `json:"type" validate:"required"`
}
