package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account stored in MongoDB. Followers and following are the two
// sides of the follow graph; A appears in B's followers exactly when B
// appears in A's following, and every follow toggle maintains both sides.
type User struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username string             `json:"username" bson:"username"`
	Email    string             `json:"email" bson:"email"`
	Password string             `json:"-" bson:"password"` // bcrypt hash, never serialized

	AvatarURL string               `json:"avatarUrl" bson:"avatar_url"`
	Bio       string               `json:"bio" bson:"bio"`
	Followers []primitive.ObjectID `json:"followers" bson:"followers"`
	Following []primitive.ObjectID `json:"following" bson:"following"`

	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// IsFollowing reports whether targetID is in the user's following list.
func (u *User) IsFollowing(targetID primitive.ObjectID) bool {
	for _, id := range u.Following {
		if id == targetID {
			return true
		}
	}
	return false
}

// UserCompact is the public profile summary embedded in enriched responses
// (comment authors, notification actors).
type UserCompact struct {
	ID        primitive.ObjectID `json:"id"`
	Username  string             `json:"username"`
	AvatarURL string             `json:"avatarUrl,omitempty"`
}

// ToCompact projects a user down to its public summary.
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:        u.ID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
	}
}

// SignupRequest defines the request body for account creation.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=2,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest defines the request body for authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest defines the request body for editing the caller's
// profile. An over-long bio is truncated rather than rejected. AvatarURL is
// an opaque blob-store reference.
type UpdateProfileRequest struct {
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty" validate:"omitempty,url"`
}

// AuthClaims are the JWT claims carried by a bearer token. The subject id is
// the user's ObjectID in hex.
type AuthClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}
