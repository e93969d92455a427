package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tikgram/backend/internal/models"
	"github.com/tikgram/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotifyPolicy controls which interactions emit a notification to the post
// owner. Follow notifications are not governed here; a follow always
// notifies. The zero value matches the shipped behavior: interactions on
// posts are silent.
type NotifyPolicy struct {
	Likes     bool
	Comments  bool
	Reactions bool
}

// casAttempts bounds the read-modify-write loop: a lost race is retried
// once transparently, then surfaced as a conflict for the caller to retry.
const casAttempts = 2

// InteractionService is the engine behind likes, reactions, comments and
// view counting. Every mutation is a load-mutate-commit cycle against one
// post record; the commit is version-guarded so concurrent toggles can never
// both apply against the same prior state.
type InteractionService struct {
	posts         repositories.PostRepository
	users         repositories.UserRepository
	views         repositories.PostViewRepository
	notifications repositories.NotificationRepository
	policy        NotifyPolicy
}

// NewInteractionService creates a new InteractionService
func NewInteractionService(
	posts repositories.PostRepository,
	users repositories.UserRepository,
	views repositories.PostViewRepository,
	notifications repositories.NotificationRepository,
	policy NotifyPolicy,
) *InteractionService {
	return &InteractionService{
		posts:         posts,
		users:         users,
		views:         views,
		notifications: notifications,
		policy:        policy,
	}
}

// mutatePost runs one load-mutate-commit cycle, retrying once on a lost
// version race. The mutate func sees a private copy; nothing is shared until
// the commit lands.
func (s *InteractionService) mutatePost(ctx context.Context, postID string, mutate func(*models.Post) error) (*models.Post, error) {
	for attempt := 0; ; attempt++ {
		post, err := s.posts.GetPostByID(ctx, postID)
		if err != nil {
			return nil, err
		}
		if err := mutate(post); err != nil {
			return nil, err
		}
		err = s.posts.CommitInteractions(ctx, post)
		if err == nil {
			return post, nil
		}
		if !errors.Is(err, models.ErrConflict) || attempt+1 >= casAttempts {
			return nil, err
		}
	}
}

// notify records a notification after its triggering transition committed.
// A failed write is logged and dropped; the relationship change is the
// source of truth and is never rolled back for a missing notification.
func (s *InteractionService) notify(ctx context.Context, n *models.Notification) {
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		log.Printf("dropping %s notification for %s: %v", n.Type, n.Recipient.Hex(), err)
	}
}

// ToggleLike adds the caller to the post's like set, or removes them if
// already present. Returns the new like count.
func (s *InteractionService) ToggleLike(ctx context.Context, postID string, callerID primitive.ObjectID) (int, error) {
	var liked bool
	post, err := s.mutatePost(ctx, postID, func(p *models.Post) error {
		if p.HasLike(callerID) {
			next := p.Likes[:0]
			for _, id := range p.Likes {
				if id != callerID {
					next = append(next, id)
				}
			}
			p.Likes = next
			liked = false
		} else {
			p.Likes = append(p.Likes, callerID)
			liked = true
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if liked && s.policy.Likes && post.UserID != callerID {
		s.notify(ctx, &models.Notification{
			Recipient: post.UserID,
			Actor:     callerID,
			Type:      models.NotificationLike,
			Post:      &post.ID,
		})
	}
	return len(post.Likes), nil
}

// ReactionResult is the aggregate snapshot returned after a reaction toggle.
type ReactionResult struct {
	Reactions        []models.Reaction `json:"reactions"`
	ReactionsSummary map[string]int    `json:"reactionsSummary"`
}

// React applies the three-way reaction toggle: no current reaction adds one,
// the same kind removes it, a different kind replaces it. The summary is
// rebuilt from the reaction collection inside the same commit, so it can
// never drift.
func (s *InteractionService) React(ctx context.Context, postID string, callerID primitive.ObjectID, kind string) (*ReactionResult, error) {
	if !models.IsReactionKind(kind) {
		return nil, fmt.Errorf("reaction %q: %w", kind, models.ErrInvalidArgument)
	}

	var added bool
	post, err := s.mutatePost(ctx, postID, func(p *models.Post) error {
		added = false
		switch i := p.ReactionBy(callerID); {
		case i < 0:
			p.Reactions = append(p.Reactions, models.Reaction{UserID: callerID, Kind: kind})
			added = true
		case p.Reactions[i].Kind == kind: // toggle off
			p.Reactions = append(p.Reactions[:i], p.Reactions[i+1:]...)
		default:
			p.Reactions[i].Kind = kind
			added = true
		}
		p.ReactionsSummary = models.BuildReactionsSummary(p.Reactions)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if added && s.policy.Reactions && post.UserID != callerID {
		s.notify(ctx, &models.Notification{
			Recipient: post.UserID,
			Actor:     callerID,
			Type:      models.NotificationReaction,
			Post:      &post.ID,
			Meta:      map[string]interface{}{"reaction": kind},
		})
	}
	return &ReactionResult{Reactions: post.Reactions, ReactionsSummary: post.ReactionsSummary}, nil
}

// CommentView is a comment with its author resolved to a public summary.
type CommentView struct {
	ID        primitive.ObjectID `json:"id"`
	Text      string             `json:"text"`
	Author    models.UserCompact `json:"author"`
	CreatedAt time.Time          `json:"createdAt"`
}

// CommentsResult is the full comment list plus the denormalized count.
type CommentsResult struct {
	Comments      []CommentView `json:"comments"`
	CommentsCount int           `json:"commentsCount"`
}

// AddComment appends a comment to the post. The text is truncated to the
// length cap and then trimmed; input that is empty after trimming is
// rejected before anything is loaded or written.
func (s *InteractionService) AddComment(ctx context.Context, postID string, callerID primitive.ObjectID, text string) (*CommentsResult, error) {
	if runes := []rune(text); len(runes) > models.MaxCommentLength {
		text = string(runes[:models.MaxCommentLength])
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty comment: %w", models.ErrInvalidArgument)
	}

	post, err := s.mutatePost(ctx, postID, func(p *models.Post) error {
		p.Comments = append(p.Comments, models.Comment{
			ID:        primitive.NewObjectID(),
			UserID:    callerID,
			Text:      text,
			CreatedAt: time.Now(),
		})
		p.CommentsCount = len(p.Comments)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.policy.Comments && post.UserID != callerID {
		s.notify(ctx, &models.Notification{
			Recipient: post.UserID,
			Actor:     callerID,
			Type:      models.NotificationComment,
			Post:      &post.ID,
			Meta:      map[string]interface{}{"text": text},
		})
	}
	return s.buildCommentsResult(ctx, post)
}

// ListComments returns the post's comments with resolved authors.
func (s *InteractionService) ListComments(ctx context.Context, postID string) (*CommentsResult, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.buildCommentsResult(ctx, post)
}

func (s *InteractionService) buildCommentsResult(ctx context.Context, post *models.Post) (*CommentsResult, error) {
	ids := make([]primitive.ObjectID, 0, len(post.Comments))
	seen := make(map[primitive.ObjectID]bool, len(post.Comments))
	for _, c := range post.Comments {
		if !seen[c.UserID] {
			seen[c.UserID] = true
			ids = append(ids, c.UserID)
		}
	}
	authors, err := s.users.GetCompactByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]CommentView, len(post.Comments))
	for i, c := range post.Comments {
		views[i] = CommentView{
			ID:        c.ID,
			Text:      c.Text,
			Author:    authors[c.UserID], // zero-valued for a deleted author
			CreatedAt: c.CreatedAt,
		}
	}
	return &CommentsResult{Comments: views, CommentsCount: post.CommentsCount}, nil
}

// ViewSnapshot is the aggregate state returned after recording a view,
// whether or not the count changed.
type ViewSnapshot struct {
	ViewsCount       int64          `json:"viewsCount"`
	CommentsCount    int            `json:"commentsCount"`
	ReactionsSummary map[string]int `json:"reactionsSummary"`
	Likes            int            `json:"likes"`
}

// RecordView counts a view at most once per viewer per UTC day. The ledger
// insert is the linearization point: of any number of concurrent requests
// for the same (post, viewer-key, day), only the one whose insert succeeds
// increments the counter. callerID is nil for anonymous viewers, whose key
// falls back to the client IP.
func (s *InteractionService) RecordView(ctx context.Context, postID string, callerID *primitive.ObjectID, ip string) (*ViewSnapshot, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	view := &models.PostView{
		PostID: post.ID,
		Key:    models.ViewerKey(callerID, ip),
		Day:    models.ViewDay(time.Now()),
	}
	first, err := s.views.InsertView(ctx, view)
	if err != nil {
		return nil, err
	}
	if first {
		if err := s.posts.IncrementViewsCount(ctx, post.ID); err != nil {
			return nil, err
		}
	}

	// Viewing always answers with fresh aggregate state.
	post, err = s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &ViewSnapshot{
		ViewsCount:       post.ViewsCount,
		CommentsCount:    post.CommentsCount,
		ReactionsSummary: post.ReactionsSummary,
		Likes:            len(post.Likes),
	}, nil
}
