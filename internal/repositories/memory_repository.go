package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tikgram/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory implementations of the repository interfaces, used by the unit
// tests. They enforce the same conditional-update semantics as the Mongo
// implementations: version-guarded interaction commits, membership-guarded
// follow writes and a unique (post, key, day) view ledger, so the engine's
// concurrency discipline is exercised for real.

// MemoryPostRepository implements PostRepository in process memory
type MemoryPostRepository struct {
	mu    sync.Mutex
	posts map[primitive.ObjectID]*models.Post
}

// NewMemoryPostRepository creates an empty MemoryPostRepository
func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{posts: make(map[primitive.ObjectID]*models.Post)}
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Likes = append([]primitive.ObjectID(nil), p.Likes...)
	c.Comments = append([]models.Comment(nil), p.Comments...)
	c.Reactions = append([]models.Reaction(nil), p.Reactions...)
	c.ReactionsSummary = make(map[string]int, len(p.ReactionsSummary))
	for k, v := range p.ReactionsSummary {
		c.ReactionsSummary[k] = v
	}
	return &c
}

func (r *MemoryPostRepository) CreatePost(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

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

	r.posts[post.ID] = clonePost(post)
	return nil
}

func (r *MemoryPostRepository) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("post %q: %w", id, models.ErrNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[objID]
	if !ok {
		return nil, fmt.Errorf("post %q: %w", id, models.ErrNotFound)
	}
	return clonePost(p), nil
}

func (r *MemoryPostRepository) GetAllPosts(_ context.Context, skip, limit int64) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		all = append(all, *clonePost(p))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if skip >= int64(len(all)) {
		return []models.Post{}, nil
	}
	all = all[skip:]
	if limit > 0 && limit < int64(len(all)) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryPostRepository) GetPostsByUserID(_ context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Post
	for _, p := range r.posts {
		if p.UserID == userID {
			out = append(out, *clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryPostRepository) GetPostSummaries(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.PostSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	summaries := make(map[primitive.ObjectID]models.PostSummary, len(ids))
	for _, id := range ids {
		if p, ok := r.posts[id]; ok {
			summaries[id] = p.Summary()
		}
	}
	return summaries, nil
}

func (r *MemoryPostRepository) CommitInteractions(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.posts[post.ID]
	if !ok || stored.Version != post.Version {
		return fmt.Errorf("post %s changed concurrently: %w", post.ID.Hex(), models.ErrConflict)
	}

	post.Version++
	post.UpdatedAt = time.Now()
	next := clonePost(post)
	next.ViewsCount = stored.ViewsCount // views move independently of the CAS
	r.posts[post.ID] = next
	return nil
}

func (r *MemoryPostRepository) IncrementViewsCount(_ context.Context, postID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.posts[postID]; ok {
		p.ViewsCount++
	}
	return nil
}

func (r *MemoryPostRepository) CountPostsByUserID(_ context.Context, userID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, p := range r.posts {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryPostRepository) CountLikesByUserID(_ context.Context, userID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, p := range r.posts {
		if p.UserID == userID {
			n += int64(len(p.Likes))
		}
	}
	return n, nil
}

// MemoryUserRepository implements UserRepository in process memory
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

// NewMemoryUserRepository creates an empty MemoryUserRepository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[primitive.ObjectID]*models.User)}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Followers = append([]primitive.ObjectID(nil), u.Followers...)
	c.Following = append([]primitive.ObjectID(nil), u.Following...)
	return &c
}

func (r *MemoryUserRepository) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Username, user.Username) || u.Email == user.Email {
			return fmt.Errorf("user already exists: %w", models.ErrConflict)
		}
	}

	user.ID = primitive.NewObjectID()
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *MemoryUserRepository) GetUserByID(_ context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", id, models.ErrNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[objID]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", id, models.ErrNotFound)
	}
	return cloneUser(u), nil
}

func (r *MemoryUserRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", email, models.ErrNotFound)
}

func (r *MemoryUserRepository) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			return cloneUser(u), nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, models.ErrNotFound)
}

func (r *MemoryUserRepository) UpdateProfile(_ context.Context, id primitive.ObjectID, bio, avatarURL *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id.Hex(), models.ErrNotFound)
	}
	if bio != nil {
		u.Bio = *bio
	}
	if avatarURL != nil {
		u.AvatarURL = *avatarURL
	}
	u.UpdatedAt = time.Now()
	return nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (r *MemoryUserRepository) AddFollow(_ context.Context, follower, target primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.users[follower]
	t, ok2 := r.users[target]
	if !ok || !ok2 {
		return false, fmt.Errorf("follow: %w", models.ErrNotFound)
	}
	if containsID(f.Following, target) {
		return false, nil
	}
	f.Following = append(f.Following, target)
	if !containsID(t.Followers, follower) {
		t.Followers = append(t.Followers, follower)
	}
	return true, nil
}

func (r *MemoryUserRepository) RemoveFollow(_ context.Context, follower, target primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.users[follower]
	t, ok2 := r.users[target]
	if !ok || !ok2 {
		return false, fmt.Errorf("unfollow: %w", models.ErrNotFound)
	}
	if !containsID(f.Following, target) {
		return false, nil
	}
	f.Following = removeID(f.Following, target)
	t.Followers = removeID(t.Followers, follower)
	return true, nil
}

func (r *MemoryUserRepository) GetCompactByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserCompact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	compacts := make(map[primitive.ObjectID]models.UserCompact, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			compacts[id] = u.ToCompact()
		}
	}
	return compacts, nil
}

// MemoryPostViewRepository implements the view ledger in process memory
type MemoryPostViewRepository struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryPostViewRepository creates an empty MemoryPostViewRepository
func NewMemoryPostViewRepository() *MemoryPostViewRepository {
	return &MemoryPostViewRepository{seen: make(map[string]struct{})}
}

func (r *MemoryPostViewRepository) InsertView(_ context.Context, view *models.PostView) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := view.PostID.Hex() + "|" + view.Key + "|" + view.Day
	if _, dup := r.seen[key]; dup {
		return false, nil
	}
	r.seen[key] = struct{}{}
	view.ID = primitive.NewObjectID()
	view.CreatedAt = time.Now()
	return true, nil
}

// MemoryNotificationRepository implements NotificationRepository in process
// memory. Insertion order stands in for created_at ordering.
type MemoryNotificationRepository struct {
	mu            sync.Mutex
	notifications []*models.Notification
}

// NewMemoryNotificationRepository creates an empty MemoryNotificationRepository
func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{}
}

func (r *MemoryNotificationRepository) CreateNotification(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now()
	c := *n
	r.notifications = append(r.notifications, &c)
	return nil
}

func (r *MemoryNotificationRepository) GetByRecipient(_ context.Context, recipient primitive.ObjectID, limit int64) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Notification
	for i := len(r.notifications) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if r.notifications[i].Recipient == recipient {
			out = append(out, *r.notifications[i])
		}
	}
	return out, nil
}

func (r *MemoryNotificationRepository) MarkAsRead(_ context.Context, id string, recipient primitive.ObjectID) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.notifications {
		if n.ID == objID && n.Recipient == recipient {
			n.IsRead = true
		}
	}
	return nil
}

func (r *MemoryNotificationRepository) MarkAllAsRead(_ context.Context, recipient primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.notifications {
		if n.Recipient == recipient && !n.IsRead {
			n.IsRead = true
		}
	}
	return nil
}
