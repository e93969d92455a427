package services

import (
	"context"
	"fmt"
	"log"

	"github.com/tikgram/backend/internal/models"
	"github.com/tikgram/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FollowService toggles follow relationships and emits the follow
// notification on the follow transition.
type FollowService struct {
	users         repositories.UserRepository
	notifications repositories.NotificationRepository
}

// NewFollowService creates a new FollowService
func NewFollowService(users repositories.UserRepository, notifications repositories.NotificationRepository) *FollowService {
	return &FollowService{users: users, notifications: notifications}
}

// FollowResult reflects the relationship state after a toggle.
type FollowResult struct {
	Following      bool `json:"following"`
	FollowerCount  int  `json:"followerCount"`
	FollowingCount int  `json:"followingCount"`
}

// Toggle follows the target if the caller is not following them, and
// unfollows otherwise. Both sides of the graph move together; the
// follower-side write decides the winner under concurrency, and only the
// winning follow emits a notification. Unfollowing removes nothing from the
// target's feed.
func (s *FollowService) Toggle(ctx context.Context, callerID primitive.ObjectID, targetID string) (*FollowResult, error) {
	if targetID == callerID.Hex() {
		return nil, fmt.Errorf("cannot follow yourself: %w", models.ErrInvalidArgument)
	}

	target, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.ID == callerID {
		return nil, fmt.Errorf("cannot follow yourself: %w", models.ErrInvalidArgument)
	}

	caller, err := s.users.GetUserByID(ctx, callerID.Hex())
	if err != nil {
		return nil, err
	}

	following := !caller.IsFollowing(target.ID)
	if following {
		changed, err := s.users.AddFollow(ctx, caller.ID, target.ID)
		if err != nil {
			return nil, err
		}
		if changed {
			if nerr := s.notifications.CreateNotification(ctx, &models.Notification{
				Recipient: target.ID,
				Actor:     caller.ID,
				Type:      models.NotificationFollow,
			}); nerr != nil {
				log.Printf("dropping follow notification for %s: %v", target.ID.Hex(), nerr)
			}
		}
	} else {
		if _, err := s.users.RemoveFollow(ctx, caller.ID, target.ID); err != nil {
			return nil, err
		}
	}

	// Re-read both records for fresh counts.
	target, err = s.users.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	caller, err = s.users.GetUserByID(ctx, callerID.Hex())
	if err != nil {
		return nil, err
	}
	return &FollowResult{
		Following:      following,
		FollowerCount:  len(target.Followers),
		FollowingCount: len(caller.Following),
	}, nil
}
