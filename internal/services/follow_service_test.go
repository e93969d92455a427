package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tikgram/backend/internal/models"
	"github.com/tikgram/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type followFixture struct {
	svc           *FollowService
	users         *repositories.MemoryUserRepository
	notifications *repositories.MemoryNotificationRepository
}

func newFollowFixture(t *testing.T) *followFixture {
	t.Helper()
	f := &followFixture{
		users:         repositories.NewMemoryUserRepository(),
		notifications: repositories.NewMemoryNotificationRepository(),
	}
	f.svc = NewFollowService(f.users, f.notifications)
	return f
}

func (f *followFixture) seedUser(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: "x"}
	require.NoError(t, f.users.CreateUser(context.Background(), u))
	return u
}

// assertSymmetry checks that a is in b's followers exactly when b is in a's
// following, for that pair.
func (f *followFixture) assertSymmetry(t *testing.T, a, b primitive.ObjectID) {
	t.Helper()
	ua, err := f.users.GetUserByID(context.Background(), a.Hex())
	require.NoError(t, err)
	ub, err := f.users.GetUserByID(context.Background(), b.Hex())
	require.NoError(t, err)
	assert.Equal(t, ua.IsFollowing(b), containsObjectID(ub.Followers, a),
		"follow edge %s->%s is one-sided", a.Hex(), b.Hex())
}

func containsObjectID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestFollowToggle_FollowThenUnfollow(t *testing.T) {
	f := newFollowFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")

	res, err := f.svc.Toggle(ctx, alice.ID, bob.ID.Hex())
	require.NoError(t, err)
	assert.True(t, res.Following)
	assert.Equal(t, 1, res.FollowerCount)
	assert.Equal(t, 1, res.FollowingCount)
	f.assertSymmetry(t, alice.ID, bob.ID)

	res, err = f.svc.Toggle(ctx, alice.ID, bob.ID.Hex())
	require.NoError(t, err)
	assert.False(t, res.Following)
	assert.Equal(t, 0, res.FollowerCount)
	assert.Equal(t, 0, res.FollowingCount)
	f.assertSymmetry(t, alice.ID, bob.ID)
}

func TestFollowToggle_NotifiesOnFollowOnly(t *testing.T) {
	f := newFollowFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")

	_, err := f.svc.Toggle(ctx, alice.ID, bob.ID.Hex())
	require.NoError(t, err)

	items, err := f.notifications.GetByRecipient(ctx, bob.ID, 50)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.NotificationFollow, items[0].Type)
	assert.Equal(t, alice.ID, items[0].Actor)
	assert.False(t, items[0].IsRead)

	// Unfollow followed by re-follow keeps notifying; a plain unfollow does not.
	_, err = f.svc.Toggle(ctx, alice.ID, bob.ID.Hex())
	require.NoError(t, err)
	items, err = f.notifications.GetByRecipient(ctx, bob.ID, 50)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = f.svc.Toggle(ctx, alice.ID, bob.ID.Hex())
	require.NoError(t, err)
	items, err = f.notifications.GetByRecipient(ctx, bob.ID, 50)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestFollowToggle_SelfFollowRejected(t *testing.T) {
	f := newFollowFixture(t)
	alice := f.seedUser(t, "alice")

	_, err := f.svc.Toggle(context.Background(), alice.ID, alice.ID.Hex())
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	stored, err := f.users.GetUserByID(context.Background(), alice.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, stored.Followers)
	assert.Empty(t, stored.Following)
}

func TestFollowToggle_TargetNotFound(t *testing.T) {
	f := newFollowFixture(t)
	alice := f.seedUser(t, "alice")

	_, err := f.svc.Toggle(context.Background(), alice.ID, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFollowToggle_GraphStaysSymmetric(t *testing.T) {
	f := newFollowFixture(t)
	ctx := context.Background()
	users := []*models.User{f.seedUser(t, "a"), f.seedUser(t, "b"), f.seedUser(t, "c")}

	steps := []struct{ from, to int }{
		{0, 1}, {1, 0}, {0, 2}, {2, 1}, {0, 1}, {1, 0}, {2, 1}, {0, 2}, {0, 2},
	}
	for _, s := range steps {
		_, err := f.svc.Toggle(ctx, users[s.from].ID, users[s.to].ID.Hex())
		require.NoError(t, err)
		for i := range users {
			for j := range users {
				if i != j {
					f.assertSymmetry(t, users[i].ID, users[j].ID)
				}
			}
		}
	}

	// After the sequence above only the last a->c edge survives.
	a, err := f.users.GetUserByID(ctx, users[0].ID.Hex())
	require.NoError(t, err)
	b, err := f.users.GetUserByID(ctx, users[1].ID.Hex())
	require.NoError(t, err)
	c, err := f.users.GetUserByID(ctx, users[2].ID.Hex())
	require.NoError(t, err)
	assert.Len(t, a.Following, 1)
	assert.True(t, a.IsFollowing(c.ID))
	assert.Empty(t, b.Following)
	assert.Empty(t, b.Followers)
	assert.True(t, containsObjectID(c.Followers, a.ID))
}
