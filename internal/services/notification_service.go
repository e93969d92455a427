package services

import (
	"context"

	"github.com/tikgram/backend/internal/models"
	"github.com/tikgram/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// feedLimit caps a notification feed page.
const feedLimit = 50

// NotificationService reads and maintains a user's notification feed.
type NotificationService struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	posts         repositories.PostRepository
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notifications repositories.NotificationRepository,
	users repositories.UserRepository,
	posts repositories.PostRepository,
) *NotificationService {
	return &NotificationService{notifications: notifications, users: users, posts: posts}
}

// NotificationView is a notification with its actor and related post
// resolved to minimal public summaries.
type NotificationView struct {
	models.Notification
	Actor models.UserCompact  `json:"actor"`
	Post  *models.PostSummary `json:"post,omitempty"`
}

// List returns the recipient's newest notifications, up to 50, enriched with
// actor and post summaries. A deleted actor or post leaves the field empty
// rather than failing the feed.
func (s *NotificationService) List(ctx context.Context, recipientID primitive.ObjectID) ([]NotificationView, error) {
	items, err := s.notifications.GetByRecipient(ctx, recipientID, feedLimit)
	if err != nil {
		return nil, err
	}

	actorIDs := make([]primitive.ObjectID, 0, len(items))
	postIDs := make([]primitive.ObjectID, 0, len(items))
	seenActor := make(map[primitive.ObjectID]bool)
	seenPost := make(map[primitive.ObjectID]bool)
	for _, n := range items {
		if !seenActor[n.Actor] {
			seenActor[n.Actor] = true
			actorIDs = append(actorIDs, n.Actor)
		}
		if n.Post != nil && !seenPost[*n.Post] {
			seenPost[*n.Post] = true
			postIDs = append(postIDs, *n.Post)
		}
	}

	actors, err := s.users.GetCompactByIDs(ctx, actorIDs)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.GetPostSummaries(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	views := make([]NotificationView, len(items))
	for i, n := range items {
		views[i] = NotificationView{Notification: n, Actor: actors[n.Actor]}
		if n.Post != nil {
			if summary, ok := posts[*n.Post]; ok {
				views[i].Post = &summary
			}
		}
	}
	return views, nil
}

// MarkOneRead marks one of the recipient's notifications read. A
// notification that does not exist or belongs to someone else is left
// untouched and the call still succeeds: you only affect your own inbox.
func (s *NotificationService) MarkOneRead(ctx context.Context, recipientID primitive.ObjectID, notificationID string) error {
	return s.notifications.MarkAsRead(ctx, notificationID, recipientID)
}

// MarkAllRead marks every unread notification of the recipient read.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID primitive.ObjectID) error {
	return s.notifications.MarkAllAsRead(ctx, recipientID)
}
