package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tikgram/backend/internal/models"
	"github.com/tikgram/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type notificationFixture struct {
	svc           *NotificationService
	posts         *repositories.MemoryPostRepository
	users         *repositories.MemoryUserRepository
	notifications *repositories.MemoryNotificationRepository
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()
	f := &notificationFixture{
		posts:         repositories.NewMemoryPostRepository(),
		users:         repositories.NewMemoryUserRepository(),
		notifications: repositories.NewMemoryNotificationRepository(),
	}
	f.svc = NewNotificationService(f.notifications, f.users, f.posts)
	return f
}

func (f *notificationFixture) seedUser(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: "x"}
	require.NoError(t, f.users.CreateUser(context.Background(), u))
	return u
}

func TestNotificationList_NewestFirstCappedAt50(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	recipient := f.seedUser(t, "recipient")
	actor := f.seedUser(t, "actor")

	for i := 0; i < 60; i++ {
		require.NoError(t, f.notifications.CreateNotification(ctx, &models.Notification{
			Recipient: recipient.ID,
			Actor:     actor.ID,
			Type:      models.NotificationFollow,
			Meta:      map[string]interface{}{"seq": i},
		}))
	}

	views, err := f.svc.List(ctx, recipient.ID)
	require.NoError(t, err)
	require.Len(t, views, 50)
	assert.Equal(t, 59, views[0].Meta["seq"])
	assert.Equal(t, 10, views[49].Meta["seq"])
}

func TestNotificationList_EnrichesActorAndPost(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	recipient := f.seedUser(t, "recipient")
	actor := f.seedUser(t, "actor")

	post := &models.Post{UserID: recipient.ID, Caption: "sunset", MediaURL: "https://cdn.example.com/a.mp4", MediaType: "video"}
	require.NoError(t, f.posts.CreatePost(ctx, post))

	require.NoError(t, f.notifications.CreateNotification(ctx, &models.Notification{
		Recipient: recipient.ID,
		Actor:     actor.ID,
		Type:      models.NotificationLike,
		Post:      &post.ID,
	}))

	views, err := f.svc.List(ctx, recipient.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "actor", views[0].Actor.Username)
	require.NotNil(t, views[0].Post)
	assert.Equal(t, post.ID, views[0].Post.ID)
	assert.Equal(t, "sunset", views[0].Post.Caption)
	assert.Equal(t, "video", views[0].Post.MediaType)
}

func TestNotificationList_ToleratesDeletedActorAndPost(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	recipient := f.seedUser(t, "recipient")
	goneActor := primitive.NewObjectID()
	gonePost := primitive.NewObjectID()

	require.NoError(t, f.notifications.CreateNotification(ctx, &models.Notification{
		Recipient: recipient.ID,
		Actor:     goneActor,
		Type:      models.NotificationLike,
		Post:      &gonePost,
	}))

	views, err := f.svc.List(ctx, recipient.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Empty(t, views[0].Actor.Username)
	assert.Nil(t, views[0].Post)
}

func TestNotificationList_OnlyOwnItems(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	recipient := f.seedUser(t, "recipient")
	other := f.seedUser(t, "other")
	actor := f.seedUser(t, "actor")

	require.NoError(t, f.notifications.CreateNotification(ctx, &models.Notification{
		Recipient: other.ID, Actor: actor.ID, Type: models.NotificationFollow,
	}))

	views, err := f.svc.List(ctx, recipient.ID)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestMarkOneRead(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	recipient := f.seedUser(t, "recipient")
	actor := f.seedUser(t, "actor")

	n := &models.Notification{Recipient: recipient.ID, Actor: actor.ID, Type: models.NotificationFollow}
	require.NoError(t, f.notifications.CreateNotification(ctx, n))

	require.NoError(t, f.svc.MarkOneRead(ctx, recipient.ID, n.ID.Hex()))

	views, err := f.svc.List(ctx, recipient.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].IsRead)
}

func TestMarkOneRead_ForeignNotificationUntouched(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	recipient := f.seedUser(t, "recipient")
	intruder := f.seedUser(t, "intruder")
	actor := f.seedUser(t, "actor")

	n := &models.Notification{Recipient: recipient.ID, Actor: actor.ID, Type: models.NotificationFollow}
	require.NoError(t, f.notifications.CreateNotification(ctx, n))

	// Someone else's id, an unknown id and a malformed id all succeed
	// without touching anything.
	require.NoError(t, f.svc.MarkOneRead(ctx, intruder.ID, n.ID.Hex()))
	require.NoError(t, f.svc.MarkOneRead(ctx, recipient.ID, primitive.NewObjectID().Hex()))
	require.NoError(t, f.svc.MarkOneRead(ctx, recipient.ID, "garbage"))

	views, err := f.svc.List(ctx, recipient.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.False(t, views[0].IsRead)
}

func TestMarkAllRead(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	recipient := f.seedUser(t, "recipient")
	other := f.seedUser(t, "other")
	actor := f.seedUser(t, "actor")

	for i := 0; i < 3; i++ {
		require.NoError(t, f.notifications.CreateNotification(ctx, &models.Notification{
			Recipient: recipient.ID, Actor: actor.ID, Type: models.NotificationFollow,
			Meta: map[string]interface{}{"seq": fmt.Sprint(i)},
		}))
	}
	require.NoError(t, f.notifications.CreateNotification(ctx, &models.Notification{
		Recipient: other.ID, Actor: actor.ID, Type: models.NotificationFollow,
	}))

	require.NoError(t, f.svc.MarkAllRead(ctx, recipient.ID))

	views, err := f.svc.List(ctx, recipient.ID)
	require.NoError(t, err)
	require.Len(t, views, 3)
	for _, v := range views {
		assert.True(t, v.IsRead)
	}

	// The other inbox stays unread.
	views, err = f.svc.List(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.False(t, views[0].IsRead)
}
